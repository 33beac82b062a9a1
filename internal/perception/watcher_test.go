package perception

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rafiq/internal/types"
)

// waitForCategory polls until text classifies as want or the deadline passes.
func waitForCategory(t *testing.T, c *Classifier, text string, want types.IntentCategory) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if c.Detect(text).Category == want {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

func TestBankWatcher_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("rules: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewBankWatcher(path, NewClassifier(DefaultConfig()))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Start is idempotent while running.
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	// Stop after Stop is a no-op.
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}

func TestBankWatcher_StopAfterFailedStart(t *testing.T) {
	w, err := NewBankWatcher("/definitely-missing-dir-xyz/rules.yaml", NewClassifier(DefaultConfig()))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail for a missing directory")
	}

	// A failed Start must leave Stop callable, not blocked on a loop that
	// never ran.
	stopped := make(chan error, 1)
	go func() { stopped <- w.Stop() }()
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Stop after failed Start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after failed Start")
	}
}

func TestBankWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte("rules: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewClassifier(DefaultConfig())
	w, err := NewBankWatcher(path, c)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if got := c.Detect("khuda hafiz"); got.Category == types.CategorySmallTalk {
		t.Fatalf("precondition failed: vocabulary already present (%s)", got.Category)
	}

	overlay := `
rules:
  - category: small_talk
    priority: 55
    confidence: 0.7
    keywords: ["khuda hafiz"]
`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	if !waitForCategory(t, c, "khuda hafiz", types.CategorySmallTalk) {
		t.Fatal("watcher did not apply the rewritten bank")
	}
}

func TestBankWatcher_KeepsBankOnInvalidWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	overlay := `
rules:
  - category: small_talk
    priority: 55
    confidence: 0.7
    keywords: ["khuda hafiz"]
`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewClassifier(DefaultConfig())
	if err := c.LoadOverlayFile(path); err != nil {
		t.Fatal(err)
	}
	w, err := NewBankWatcher(path, c)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	// A half-saved file must not degrade the active bank.
	if err := os.WriteFile(path, []byte("rules:\n  - category: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(750 * time.Millisecond)

	if got := c.Detect("khuda hafiz"); got.Category != types.CategorySmallTalk {
		t.Fatalf("previous bank lost after invalid write, got %s", got.Category)
	}
}

func TestBankWatcher_ContextCancelStopsLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("rules: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewBankWatcher(path, NewClassifier(DefaultConfig()))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	select {
	case <-w.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on context cancellation")
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop after cancellation returned %v", err)
	}
}
