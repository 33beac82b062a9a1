// Package articulation selects the assistant's reply for a turn. Selection
// walks a fallback chain over a static template bank: category + emotion +
// context condition, then category + emotion, then category, then the
// universal apology. Generate is a total function: it never fails for any
// input, and any missing context field degrades to omitting that detail.
//
// Phrasing variety is rotation, not randomness: the variant index is seeded
// from the TodayInteractions counter in the snapshot, so output is a pure
// function of its inputs and fully predictable in tests.
package articulation

import (
	"strings"
	"time"

	"rafiq/internal/logging"
	"rafiq/internal/types"
)

// Selector resolves a BotResponse from the template bank.
type Selector struct {
	templates []Template
	fallback  Template

	// now is only consulted to pick which prayer counts as "next" when a
	// template references one. Injected for tests.
	now func() time.Time
}

// NewSelector builds a selector over the default template bank.
func NewSelector() *Selector {
	return &Selector{
		templates: DefaultTemplates,
		fallback:  fallbackResponse,
		now:       time.Now,
	}
}

// Generate selects and renders the response for one turn. Deterministic
// given identical (intent, rawText, snapshot) and clock.
func (s *Selector) Generate(intent types.Intent, rawText string, snap types.SessionContext) types.BotResponse {
	timer := logging.StartTimer(logging.CategoryArticulation, "Selector.Generate")
	defer timer.Stop()

	if !intent.Category.Valid() {
		// Programmer error upstream; degrade to the universal fallback
		// rather than propagating.
		logging.Get(logging.CategoryArticulation).Error("Invalid intent category %q, using fallback", intent.Category)
		intent.Category = types.CategoryUnknown
	}

	tpl := s.resolve(intent, snap)
	resp := s.render(tpl, intent, snap)

	logging.ArticulationDebug("Selected template cat=%s emotion=%s cond=%s for %q",
		tpl.Category, tpl.Emotion, tpl.Cond, truncate(rawText, 60))
	return resp
}

// resolve walks the fallback chain. Specificity: an emotion match outranks a
// satisfied context condition, which outranks a bare category match; the
// earlier bank entry wins ties. CategoryUnknown goes straight to (d).
func (s *Selector) resolve(intent types.Intent, snap types.SessionContext) Template {
	if intent.Category == types.CategoryUnknown {
		return s.fallback
	}

	best := -1
	var chosen *Template
	for i := range s.templates {
		tpl := &s.templates[i]
		if tpl.Category != intent.Category {
			continue
		}
		if tpl.Emotion != types.EmotionNone && tpl.Emotion != intent.Emotion {
			continue
		}
		if tpl.Cond != CondNone && !condSatisfied(tpl.Cond, intent, snap) {
			continue
		}

		score := 0
		if tpl.Emotion != types.EmotionNone {
			score += 2
		}
		if tpl.Cond != CondNone {
			score++
		}
		if score > best {
			best = score
			chosen = tpl
		}
	}

	if chosen == nil {
		return s.fallback
	}
	return *chosen
}

// condSatisfied checks a template's context-availability gate.
func condSatisfied(cond Condition, intent types.Intent, snap types.SessionContext) bool {
	switch cond {
	case CondEventToday:
		return len(snap.Almanac.Events) > 0
	case CondPrayerKnown:
		return !snap.Almanac.Prayers.Empty()
	case CondEntityRef:
		return len(intent.Entities) > 0
	case CondNameKnown:
		return snap.UserName != ""
	}
	return true
}

// render produces a fresh BotResponse from the template. The variant is
// rotated by the stable TodayInteractions counter.
func (s *Selector) render(tpl Template, intent types.Intent, snap types.SessionContext) types.BotResponse {
	text := ""
	if len(tpl.Variants) > 0 {
		idx := snap.Data.TodayInteractions % len(tpl.Variants)
		if idx < 0 {
			idx = 0
		}
		text = tpl.Variants[idx]
	}

	repl := s.replacer(intent, snap)
	resp := types.BotResponse{
		Text: tidy(repl.Replace(text)),
	}

	for _, a := range tpl.Actions {
		resp.Actions = append(resp.Actions, types.Action{
			Label:  tidy(repl.Replace(a.Label)),
			Type:   a.Type,
			Target: repl.Replace(a.Target),
		})
	}
	if len(tpl.Quick) > 0 {
		resp.QuickReplies = append([]string(nil), tpl.Quick...)
	}
	return resp
}

// replacer binds every placeholder to its snapshot value. Conditions gate
// which templates are eligible, so gated placeholders always resolve; any
// placeholder used outside its gate resolves to empty and tidy cleans up.
func (s *Selector) replacer(intent types.Intent, snap types.SessionContext) *strings.Replacer {
	event := ""
	if ev, ok := snap.TodayEvent(); ok {
		event = ev.Name
	}
	entityName, entitySlug := "", ""
	if len(intent.Entities) > 0 {
		entityName = intent.Entities[0].Name
		entitySlug = intent.Entities[0].Slug
	}
	prayer, prayerTime := nextPrayer(snap.Almanac.Prayers, s.now())

	return strings.NewReplacer(
		"{name}", snap.UserName,
		"{event}", event,
		"{hijri}", snap.Almanac.HijriDate,
		"{prayer}", prayer,
		"{prayer_time}", prayerTime,
		"{entity}", entityName,
		"{entity_slug}", entitySlug,
	)
}

// nextPrayer picks the first prayer at or after the clock's local "HH:MM",
// wrapping to the first of the day. Empty if none are known.
func nextPrayer(p types.PrayerTimes, now time.Time) (name, at string) {
	ordered := p.Ordered()
	if len(ordered) == 0 {
		return "", ""
	}
	hhmm := now.Format("15:04")
	for _, nt := range ordered {
		if nt.At >= hhmm {
			return nt.Name, nt.At
		}
	}
	return ordered[0].Name, ordered[0].At
}

// tidy collapses the whitespace artifacts left by empty placeholder values.
func tidy(s string) string {
	out := strings.Join(strings.Fields(s), " ")
	out = strings.ReplaceAll(out, " ,", ",")
	out = strings.ReplaceAll(out, " .", ".")
	out = strings.ReplaceAll(out, " !", "!")
	return strings.TrimSpace(out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
