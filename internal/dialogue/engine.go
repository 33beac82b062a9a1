// Package dialogue runs the turn pipeline: classify, record, respond, reveal,
// suggest. The engine is single-threaded by contract; a busy flag rejects
// overlapping turns instead of queueing them.
package dialogue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"rafiq/internal/almanac"
	"rafiq/internal/articulation"
	"rafiq/internal/logging"
	"rafiq/internal/perception"
	"rafiq/internal/session"
	"rafiq/internal/store"
	"rafiq/internal/suggestion"
	"rafiq/internal/types"
)

// ErrBusy is returned when a turn is submitted while another is in flight.
var ErrBusy = errors.New("a turn is already in progress")

// RevealFunc receives the reply one chunk at a time during the reveal loop.
// A nil RevealFunc delivers the reply all at once.
type RevealFunc func(chunk string)

// ===== CONFIGURATION =====

// Config holds the engine's pacing and oracle parameters.
type Config struct {
	// RevealInterval is the pause between revealed chunks.
	RevealInterval time.Duration

	// AlmanacTimeout bounds each oracle call.
	AlmanacTimeout time.Duration

	// Location is passed through to the almanac provider.
	Location string
}

// DefaultConfig returns the standard engine parameters.
func DefaultConfig() Config {
	return Config{
		RevealInterval: 35 * time.Millisecond,
		AlmanacTimeout: 3 * time.Second,
	}
}

// ===== ENGINE =====

// Engine owns one conversation. All mutation goes through it.
type Engine struct {
	mu   sync.Mutex
	busy bool

	cfg        Config
	classifier *perception.Classifier
	selector   *articulation.Selector
	ranker     *suggestion.Ranker
	session    *session.Store
	answers    store.AnswerStore // nil disables persistence
	provider   almanac.Provider
}

// Options collects the engine's collaborators. Classifier, Selector, Ranker
// and Session are required; Answers and Provider may be nil.
type Options struct {
	Config     Config
	Classifier *perception.Classifier
	Selector   *articulation.Selector
	Ranker     *suggestion.Ranker
	Session    *session.Store
	Answers    store.AnswerStore
	Provider   almanac.Provider
}

// New assembles an engine from its collaborators.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg.RevealInterval <= 0 {
		cfg.RevealInterval = DefaultConfig().RevealInterval
	}
	if cfg.AlmanacTimeout <= 0 {
		cfg.AlmanacTimeout = DefaultConfig().AlmanacTimeout
	}
	return &Engine{
		cfg:        cfg,
		classifier: opts.Classifier,
		selector:   opts.Selector,
		ranker:     opts.Ranker,
		session:    opts.Session,
		answers:    opts.Answers,
		provider:   opts.Provider,
	}
}

// Bootstrap records the user's name and primes the almanac snapshot. Oracle
// failure is not fatal; the session starts with an empty snapshot.
func (e *Engine) Bootstrap(ctx context.Context, userName string) {
	if userName != "" {
		e.session.SetUserName(userName)
	}
	if err := e.RefreshAlmanac(ctx); err != nil {
		logging.AlmanacWarn("Bootstrap continuing without almanac: %v", err)
	}
	logging.Boot("Dialogue engine ready (user=%q)", userName)
}

// RefreshAlmanac fetches a fresh snapshot from the provider. On failure the
// session keeps an empty snapshot and the error is returned for logging.
func (e *Engine) RefreshAlmanac(ctx context.Context) error {
	if e.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.AlmanacTimeout)
	defer cancel()

	snap, err := e.provider.Snapshot(ctx, e.cfg.Location)
	if err != nil {
		e.session.UpdateAlmanac(types.AlmanacSnapshot{})
		return err
	}
	e.session.UpdateAlmanac(snap)
	return nil
}

// Send runs one full turn. The reply is revealed through reveal chunk by
// chunk; cancelling ctx stops the reveal early but the complete reply is
// still recorded in history, so the transcript never holds a partial turn.
func (e *Engine) Send(ctx context.Context, text string, reveal RevealFunc) (types.BotResponse, error) {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return types.BotResponse{}, ErrBusy
	}
	e.busy = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.busy = false
		e.mu.Unlock()
	}()

	timer := logging.StartTimer(logging.CategoryDialogue, "Engine.Send")
	defer timer.Stop()

	intent := e.classifier.Detect(text)
	e.session.AddMessage(types.RoleUser, text, &intent)

	snap := e.session.Context()
	resp := e.selector.Generate(intent, text, snap)

	if intent.Category == types.CategorySaveRequest {
		resp = e.handleSave(ctx, snap, resp)
	}

	revealErr := e.revealLoop(ctx, resp.Text, reveal)

	// Atomic append: the full reply enters history even when the reveal
	// was cancelled partway.
	e.session.AddMessage(types.RoleAssistant, resp.Text, nil)

	logging.Dialogue("Turn complete cat=%s emotion=%s revealErr=%v",
		intent.Category, intent.Emotion, revealErr)
	return resp, revealErr
}

// handleSave persists the most recent answer in history. Failure rewrites the
// reply into a notice instead of failing the turn.
func (e *Engine) handleSave(ctx context.Context, snap types.SessionContext, resp types.BotResponse) types.BotResponse {
	question, answer, ok := lastExchange(snap.History)
	if !ok {
		resp.Text = "There isn't a recent answer to save yet. Ask me something first and I'll keep it for you."
		return resp
	}
	if e.answers == nil {
		resp.Text = "Saving isn't set up on this device, but I'm happy to repeat anything you need."
		return resp
	}

	category := ""
	if turn := lastUserIntent(snap.History); turn != nil {
		category = string(turn.Category)
	}
	result := e.answers.Save(ctx, question, answer, category)
	if !result.Success {
		resp.Text = result.Message
	}
	return resp
}

// lastExchange finds the most recent assistant reply and the user message
// that prompted it.
func lastExchange(history []types.ConversationTurn) (question, answer string, ok bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != types.RoleAssistant {
			continue
		}
		answer = history[i].Text
		for j := i - 1; j >= 0; j-- {
			if history[j].Role == types.RoleUser {
				question = history[j].Text
				break
			}
		}
		return question, answer, true
	}
	return "", "", false
}

// lastUserIntent returns the intent of the latest user turn before the
// current one, if any.
func lastUserIntent(history []types.ConversationTurn) *types.Intent {
	// The final entry is the save request itself; look behind it.
	for i := len(history) - 2; i >= 0; i-- {
		if history[i].Role == types.RoleUser && history[i].Intent != nil {
			return history[i].Intent
		}
	}
	return nil
}

// revealLoop delivers text word by word, pausing RevealInterval between
// chunks. Returns ctx.Err() if cancelled mid-reveal.
func (e *Engine) revealLoop(ctx context.Context, text string, reveal RevealFunc) error {
	if reveal == nil {
		return nil
	}
	words := strings.Fields(text)
	ticker := time.NewTicker(e.cfg.RevealInterval)
	defer ticker.Stop()

	for i, w := range words {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			w = " " + w
		}
		reveal(w)
	}
	return nil
}

// Suggestions ranks the proactive strip for the current snapshot.
func (e *Engine) Suggestions() []types.ProactiveSuggestion {
	return e.ranker.Rank(e.session.Context())
}

// Context returns a deep copy of the current session state.
func (e *Engine) Context() types.SessionContext {
	return e.session.Context()
}

// Clear resets the conversation but keeps the user's identity and almanac.
func (e *Engine) Clear() {
	e.session.ClearHistory()
	logging.Dialogue("Conversation cleared")
}

// Close releases the engine's persistent resources.
func (e *Engine) Close() error {
	if e.answers != nil {
		return e.answers.Close()
	}
	return nil
}
