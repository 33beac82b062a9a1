package perception

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"rafiq/internal/logging"
)

// BankWatcher watches a rule-bank overlay file and reloads it on change.
// The classifier keeps serving the previous bank while a reload is invalid,
// so a half-saved YAML file never degrades classification.
type BankWatcher struct {
	mu         sync.Mutex
	watcher    *fsnotify.Watcher
	classifier *Classifier
	path       string
	debounce   time.Duration
	lastEvent  time.Time
	running    bool
	doneCh     chan struct{}
}

// NewBankWatcher creates a watcher for the overlay at path.
func NewBankWatcher(path string, classifier *Classifier) (*BankWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &BankWatcher{
		watcher:    watcher,
		classifier: classifier,
		path:       path,
		debounce:   500 * time.Millisecond, // Debounce rapid saves
		doneCh:     make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the watch loop exits when ctx is
// cancelled or Stop is called. On failure the underlying watcher is closed
// and a later Stop returns immediately.
func (w *BankWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	// Watch the directory, not the file: editors replace files on save and
	// a direct file watch goes stale after the first rename.
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		w.watcher.Close()
		return err
	}

	// Only mark running once the loop that closes doneCh is launched, so
	// Stop never waits on a loop that was never started.
	w.running = true
	go w.loop(ctx)
	logging.Perception("Rule bank watcher started: %s", w.path)
	return nil
}

func (w *BankWatcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			w.mu.Lock()
			now := time.Now()
			if now.Sub(w.lastEvent) < w.debounce {
				w.mu.Unlock()
				continue
			}
			w.lastEvent = now
			w.mu.Unlock()

			if err := w.classifier.LoadOverlayFile(w.path); err != nil {
				logging.Get(logging.CategoryPerception).Warn("Rule bank reload failed, keeping previous bank: %v", err)
				continue
			}
			logging.Perception("Rule bank reloaded: %s", w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryPerception).Warn("Rule bank watcher error: %v", err)
		}
	}
}

// Stop closes the watcher and waits for the loop to exit.
func (w *BankWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.doneCh
	return err
}
