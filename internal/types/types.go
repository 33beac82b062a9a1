// Package types provides shared type definitions used across rafiq packages.
// This package exists to break import cycles between perception, session,
// articulation and suggestion. Types in this package are foundational data
// structures with no complex dependencies.
package types

import (
	"time"
)

// =============================================================================
// INTENT - Parsed User Utterance
// =============================================================================

// IntentCategory is the closed set of utterance categories the classifier
// can produce. CategoryUnknown is the catch-all; the classifier never fails.
type IntentCategory string

const (
	CategoryPrayerRequest IntentCategory = "prayer_request"
	CategoryGuidance      IntentCategory = "guidance_seeking"
	CategoryCalendarQuery IntentCategory = "calendar_query"
	CategoryNavigation    IntentCategory = "navigation_request"
	CategoryEmotional     IntentCategory = "emotional_disclosure"
	CategorySaveRequest   IntentCategory = "save_request"
	CategorySmallTalk     IntentCategory = "small_talk"
	CategoryUnknown       IntentCategory = "unknown"
)

// Valid reports whether c is a member of the closed category enum.
func (c IntentCategory) Valid() bool {
	switch c {
	case CategoryPrayerRequest, CategoryGuidance, CategoryCalendarQuery,
		CategoryNavigation, CategoryEmotional, CategorySaveRequest,
		CategorySmallTalk, CategoryUnknown:
		return true
	}
	return false
}

// Emotion is the closed set of emotional tones detected independently of the
// category. EmotionNone means no emotion keyword cleared the bank.
type Emotion string

const (
	EmotionNone       Emotion = ""
	EmotionDistressed Emotion = "distressed"
	EmotionGrieving   Emotion = "grieving"
	EmotionHopeful    Emotion = "hopeful"
	EmotionJoyful     Emotion = "joyful"
	EmotionGrateful   Emotion = "grateful"
	EmotionNeutral    Emotion = "neutral"
)

// EntityKind tags an extracted entity reference.
type EntityKind string

const (
	EntityImam   EntityKind = "imam"
	EntityRitual EntityKind = "ritual"
)

// Entity is a named reference extracted from the utterance, such as a named
// Imam or a named ritual. Slug is the stable navigation key for the entity.
type Entity struct {
	Kind EntityKind `json:"kind"`
	Name string     `json:"name"`
	Slug string     `json:"slug"`
}

// Intent is the structured classification of one user utterance.
// Immutable once produced by the classifier.
type Intent struct {
	Category   IntentCategory `json:"category"`
	Confidence float64        `json:"confidence"` // always in [0,1]
	Emotion    Emotion        `json:"emotion,omitempty"`
	Entities   []Entity       `json:"entities,omitempty"`
}

// =============================================================================
// CONVERSATION TURN
// =============================================================================

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one entry in the session history. Turns are immutable;
// only user turns carry an Intent.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Intent    *Intent   `json:"intent,omitempty"`
}

// =============================================================================
// BOT RESPONSE
// =============================================================================

// ActionType distinguishes in-app navigation from external links.
type ActionType string

const (
	ActionNavigate ActionType = "navigate"
	ActionExternal ActionType = "external"
)

// Action is a follow-up the host UI may act on. The engine itself performs
// no navigation.
type Action struct {
	Label  string     `json:"label"`
	Type   ActionType `json:"type"`
	Target string     `json:"target"`
}

// BotResponse is the selected reply for one turn. Produced fresh per turn and
// never mutated after return.
type BotResponse struct {
	Text         string   `json:"text"`
	Actions      []Action `json:"actions,omitempty"`
	QuickReplies []string `json:"quickReplies,omitempty"`
}

// =============================================================================
// PROACTIVE SUGGESTION
// =============================================================================

// SuggestionPriority orders proactive suggestions. Higher sorts first.
type SuggestionPriority int

const (
	PriorityLow    SuggestionPriority = 1
	PriorityMedium SuggestionPriority = 2
	PriorityHigh   SuggestionPriority = 3
)

// String returns the wire name for the priority.
func (p SuggestionPriority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	}
	return "unknown"
}

// ProactiveSuggestion is an unsolicited prompt produced by a ranking pass.
// Never persisted.
type ProactiveSuggestion struct {
	Icon     string             `json:"icon"`
	Title    string             `json:"title"`
	Message  string             `json:"message"`
	Priority SuggestionPriority `json:"priority"`
	Action   *Action            `json:"action,omitempty"`
}

// =============================================================================
// ALMANAC SNAPSHOT - External Calendar/Prayer Context
// =============================================================================

// CalendarEvent is a named religious event supplied by the almanac oracle.
type CalendarEvent struct {
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"` // e.g. "mourning", "celebration"
}

// PrayerTimes holds the day's prayer times as "HH:MM" strings. The engine
// treats them as opaque; missing fields are simply omitted from responses.
type PrayerTimes struct {
	Fajr    string `json:"fajr,omitempty"`
	Sunrise string `json:"sunrise,omitempty"`
	Dhuhr   string `json:"dhuhr,omitempty"`
	Asr     string `json:"asr,omitempty"`
	Maghrib string `json:"maghrib,omitempty"`
	Isha    string `json:"isha,omitempty"`
}

// NamedTime pairs a prayer name with its "HH:MM" time.
type NamedTime struct {
	Name string
	At   string
}

// Ordered returns the non-empty prayer times in canonical day order.
func (p PrayerTimes) Ordered() []NamedTime {
	all := []NamedTime{
		{"Fajr", p.Fajr},
		{"Sunrise", p.Sunrise},
		{"Dhuhr", p.Dhuhr},
		{"Asr", p.Asr},
		{"Maghrib", p.Maghrib},
		{"Isha", p.Isha},
	}
	out := make([]NamedTime, 0, len(all))
	for _, nt := range all {
		if nt.At != "" {
			out = append(out, nt)
		}
	}
	return out
}

// Empty reports whether no prayer time is known.
func (p PrayerTimes) Empty() bool {
	return len(p.Ordered()) == 0
}

// AlmanacSnapshot is the point-in-time calendar/prayer context supplied by
// the external oracle. It is merged into the session as-is, never recomputed.
// The zero value is the documented empty-context fallback.
type AlmanacSnapshot struct {
	Date      string          `json:"date"`      // external-context date, drives the daily rollover
	HijriDate string          `json:"hijriDate"` // display form, e.g. "10 Muharram 1447"
	Events    []CalendarEvent `json:"events,omitempty"`
	Prayers   PrayerTimes     `json:"prayers"`
}

// =============================================================================
// SESSION CONTEXT
// =============================================================================

// SessionData tracks per-day engagement counters.
type SessionData struct {
	TodayInteractions int    `json:"todayInteractions"`
	LastActiveDate    string `json:"lastActiveDate"`
}

// SessionContext is all mutable state accumulated during one chat session.
// It is owned by a session.Store; readers only ever see deep-copied
// snapshots, so a snapshot is safe to hold across turns.
type SessionContext struct {
	SessionID      string             `json:"sessionId"`
	CreatedAt      time.Time          `json:"createdAt"`
	UserName       string             `json:"userName,omitempty"`
	History        []ConversationTurn `json:"history"`
	CurrentEmotion Emotion            `json:"currentEmotion,omitempty"`
	EmotionSetAt   time.Time          `json:"emotionSetAt,omitempty"`
	Almanac        AlmanacSnapshot    `json:"almanac"`
	Data           SessionData        `json:"data"`
}

// TodayEvent returns the first named event in the snapshot, if any.
func (s SessionContext) TodayEvent() (CalendarEvent, bool) {
	if len(s.Almanac.Events) == 0 {
		return CalendarEvent{}, false
	}
	return s.Almanac.Events[0], true
}
