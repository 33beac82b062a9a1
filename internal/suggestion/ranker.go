// Package suggestion produces the proactive suggestion strip shown between
// turns. Ranking is rule driven: at most one candidate per source, sorted by
// priority, with a fixed source order breaking ties so the output is stable
// run to run.
package suggestion

import (
	"sort"
	"time"

	"rafiq/internal/logging"
	"rafiq/internal/types"
)

// ===== CONFIGURATION =====

// Config controls candidate generation and the output cap.
type Config struct {
	// MaxSuggestions caps the ranked output.
	MaxSuggestions int

	// PrayerWindow is how far ahead a prayer counts as imminent.
	PrayerWindow time.Duration

	// NudgeBelow emits the engagement nudge while today's interaction
	// count is under this threshold.
	NudgeBelow int
}

// DefaultConfig returns the standard ranking parameters.
func DefaultConfig() Config {
	return Config{
		MaxSuggestions: 3,
		PrayerWindow:   45 * time.Minute,
		NudgeBelow:     3,
	}
}

// ===== SOURCES =====

// source identifies where a candidate came from. Declaration order is the
// tie-break order for equal priorities.
type source int

const (
	sourceCalendar source = iota
	sourcePrayer
	sourceNudge
)

type candidate struct {
	src source
	s   types.ProactiveSuggestion
}

// ===== RANKER =====

// Ranker assembles and orders the suggestion strip.
type Ranker struct {
	cfg Config

	// now is injected for tests; ranking is deterministic given identical
	// snapshot and clock.
	now func() time.Time
}

// NewRanker builds a ranker with the given config.
func NewRanker(cfg Config) *Ranker {
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = DefaultConfig().MaxSuggestions
	}
	if cfg.PrayerWindow <= 0 {
		cfg.PrayerWindow = DefaultConfig().PrayerWindow
	}
	return &Ranker{cfg: cfg, now: time.Now}
}

// Rank returns at most MaxSuggestions suggestions for the current snapshot,
// highest priority first. It never fails; an empty snapshot yields at most
// the engagement nudge.
func (r *Ranker) Rank(snap types.SessionContext) []types.ProactiveSuggestion {
	var cands []candidate

	if c, ok := r.calendarCandidate(snap); ok {
		cands = append(cands, c)
	}
	if c, ok := r.prayerCandidate(snap); ok {
		cands = append(cands, c)
	}
	if c, ok := r.nudgeCandidate(snap); ok {
		cands = append(cands, c)
	}

	// Stable order: priority descending, then fixed source order.
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].s.Priority != cands[j].s.Priority {
			return cands[i].s.Priority > cands[j].s.Priority
		}
		return cands[i].src < cands[j].src
	})

	if len(cands) > r.cfg.MaxSuggestions {
		cands = cands[:r.cfg.MaxSuggestions]
	}

	out := make([]types.ProactiveSuggestion, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.s)
	}
	logging.SuggestionDebug("Ranked %d suggestion(s) for today=%s interactions=%d",
		len(out), snap.Almanac.Date, snap.Data.TodayInteractions)
	return out
}

// calendarCandidate surfaces today's religious occasion, if any.
func (r *Ranker) calendarCandidate(snap types.SessionContext) (candidate, bool) {
	ev, ok := snap.TodayEvent()
	if !ok {
		return candidate{}, false
	}
	return candidate{
		src: sourceCalendar,
		s: types.ProactiveSuggestion{
			Icon:     "calendar",
			Title:    ev.Name,
			Message:  "Today is " + ev.Name + ". Would you like to read about its significance?",
			Priority: types.PriorityHigh,
			Action:   &types.Action{Label: "Learn more", Type: types.ActionNavigate, Target: "/calendar"},
		},
	}, true
}

// prayerCandidate fires when the next prayer falls inside the window.
func (r *Ranker) prayerCandidate(snap types.SessionContext) (candidate, bool) {
	name, at, ok := upcomingWithin(snap.Almanac.Prayers, r.now(), r.cfg.PrayerWindow)
	if !ok {
		return candidate{}, false
	}
	return candidate{
		src: sourcePrayer,
		s: types.ProactiveSuggestion{
			Icon:     "prayer",
			Title:    name + " prayer soon",
			Message:  name + " is at " + at + ".",
			Priority: types.PriorityMedium,
			Action:   &types.Action{Label: "Prayer times", Type: types.ActionNavigate, Target: "/prayer-times"},
		},
	}, true
}

// nudgeCandidate offers a gentle engagement prompt on quiet days.
func (r *Ranker) nudgeCandidate(snap types.SessionContext) (candidate, bool) {
	if snap.Data.TodayInteractions >= r.cfg.NudgeBelow {
		return candidate{}, false
	}
	return candidate{
		src: sourceNudge,
		s: types.ProactiveSuggestion{
			Icon:     "sparkle",
			Title:    "A moment of reflection",
			Message:  "Would you like a short dua or a reading to start with?",
			Priority: types.PriorityLow,
			Action:   &types.Action{Label: "Daily dua", Type: types.ActionNavigate, Target: "/duas"},
		},
	}, true
}

// upcomingWithin finds the first prayer whose "HH:MM" time falls in
// [now, now+window] on the clock's local day. Minute granularity.
func upcomingWithin(p types.PrayerTimes, now time.Time, window time.Duration) (name, at string, ok bool) {
	ordered := p.Ordered()
	if len(ordered) == 0 {
		return "", "", false
	}
	nowMin := now.Hour()*60 + now.Minute()
	limit := nowMin + int(window.Minutes())
	for _, nt := range ordered {
		m, err := parseHHMM(nt.At)
		if err != nil {
			logging.Get(logging.CategorySuggestion).Warn("Skipping malformed prayer time %q: %v", nt.At, err)
			continue
		}
		if m >= nowMin && m <= limit {
			return nt.Name, nt.At, true
		}
	}
	return "", "", false
}

func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
