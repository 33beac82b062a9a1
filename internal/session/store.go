// Package session owns the mutable state of one chat session. All mutation
// goes through Store methods; readers only ever get deep-copied snapshots.
// One Store instance exists per session - never a package-level global.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"rafiq/internal/logging"
	"rafiq/internal/types"
)

// DefaultHistoryLimit bounds the conversation history when no explicit
// limit is configured.
const DefaultHistoryLimit = 40

// Store is the context store for a single chat session. Safe for concurrent
// use, though the turn pipeline serializes writes by design.
type Store struct {
	mu    sync.RWMutex
	ctx   types.SessionContext
	limit int
	now   func() time.Time
}

// NewStore creates an empty session with the given history bound.
// A non-positive limit falls back to DefaultHistoryLimit.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s := &Store{
		limit: limit,
		now:   time.Now,
		ctx: types.SessionContext{
			SessionID: uuid.New().String(),
			CreatedAt: time.Now(),
		},
	}
	logging.Session("Session %s created (history limit %d)", s.ctx.SessionID, limit)
	return s
}

// AddMessage appends a turn, evicting the oldest when the history bound is
// exceeded. User turns increment the daily interaction counter (rolling it
// over on the first turn of a new almanac date) and drive the current
// emotion from the accompanying intent. Assistant turns touch neither.
func (s *Store) AddMessage(role types.Role, text string, intent *types.Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := types.ConversationTurn{
		Role:      role,
		Text:      text,
		Timestamp: s.now(),
	}
	if role == types.RoleUser {
		turn.Intent = copyIntent(intent)
	}

	s.ctx.History = append(s.ctx.History, turn)
	if len(s.ctx.History) > s.limit {
		// Evict oldest first; copy so the backing array doesn't pin turns.
		trimmed := make([]types.ConversationTurn, s.limit)
		copy(trimmed, s.ctx.History[len(s.ctx.History)-s.limit:])
		s.ctx.History = trimmed
	}

	if role != types.RoleUser {
		return
	}

	// Daily rollover keyed on the external almanac date, not wall clock.
	if s.ctx.Data.LastActiveDate != s.ctx.Almanac.Date {
		s.ctx.Data.TodayInteractions = 0
		s.ctx.Data.LastActiveDate = s.ctx.Almanac.Date
	}
	s.ctx.Data.TodayInteractions++

	// Emotion is replacement-driven: a turn with a different or absent
	// emotion overwrites the previous one. No decay timer.
	if intent != nil {
		s.setEmotionLocked(intent.Emotion)
	} else {
		s.setEmotionLocked(types.EmotionNone)
	}

	logging.SessionDebug("Session %s: turn %d appended, interactions today %d",
		s.ctx.SessionID, len(s.ctx.History), s.ctx.Data.TodayInteractions)
}

// SetEmotion overwrites the current emotion directly.
func (s *Store) SetEmotion(e types.Emotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setEmotionLocked(e)
}

func (s *Store) setEmotionLocked(e types.Emotion) {
	s.ctx.CurrentEmotion = e
	if e == types.EmotionNone {
		s.ctx.EmotionSetAt = time.Time{}
	} else {
		s.ctx.EmotionSetAt = s.now()
	}
}

// UpdateAlmanac replaces the whole snapshot. Full replace, not a field
// merge, so stale fields cannot linger.
func (s *Store) UpdateAlmanac(snap types.AlmanacSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.Almanac = copySnapshot(snap)
	logging.SessionDebug("Session %s: almanac updated (date=%s, events=%d)",
		s.ctx.SessionID, snap.Date, len(snap.Events))
}

// SetUserName personalizes the session. Set once at session start from the
// external profile lookup.
func (s *Store) SetUserName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.UserName = name
}

// ClearHistory resets the history, session data and emotion. The user name
// and the last known almanac snapshot survive a clear, so no external
// re-fetch is needed afterwards.
func (s *Store) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.History = nil
	s.ctx.Data = types.SessionData{}
	s.setEmotionLocked(types.EmotionNone)
	logging.Session("Session %s: history cleared", s.ctx.SessionID)
}

// Context returns a deep-copied, read-only snapshot of the session state.
func (s *Store) Context() types.SessionContext {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.ctx
	out.Almanac = copySnapshot(s.ctx.Almanac)
	out.History = make([]types.ConversationTurn, len(s.ctx.History))
	for i, t := range s.ctx.History {
		out.History[i] = t
		out.History[i].Intent = copyIntent(t.Intent)
	}
	return out
}

func copyIntent(in *types.Intent) *types.Intent {
	if in == nil {
		return nil
	}
	out := *in
	if len(in.Entities) > 0 {
		out.Entities = make([]types.Entity, len(in.Entities))
		copy(out.Entities, in.Entities)
	}
	return &out
}

func copySnapshot(in types.AlmanacSnapshot) types.AlmanacSnapshot {
	out := in
	if len(in.Events) > 0 {
		out.Events = make([]types.CalendarEvent, len(in.Events))
		copy(out.Events, in.Events)
	}
	return out
}
