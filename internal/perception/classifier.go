// Package perception turns free-text user input into a structured Intent.
// Classification is deterministic and rule-driven: an ordered bank of
// category matchers, an independent emotion bank, and an entity bank.
// Detect is a total function over all string input; it never fails.
package perception

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"rafiq/internal/logging"
	"rafiq/internal/types"
)

// maxScanLen caps how much of a very long input the matchers scan. Detect
// still returns a valid Intent for arbitrarily long input.
const maxScanLen = 4096

// unknownConfidence is reported when no rule clears the threshold.
const unknownConfidence = 0.1

// hitBonus is added to a rule's base confidence per extra keyword/pattern hit.
const hitBonus = 0.05

// maxConfidence keeps rule confidence strictly below certainty.
const maxConfidence = 0.99

// Config holds classifier tunables.
type Config struct {
	// MinConfidence is the threshold a rule must clear to win.
	MinConfidence float64

	// Parallel runs the category and emotion passes concurrently. Both
	// passes are pure functions of the input, so the result is identical
	// either way.
	Parallel bool
}

// DefaultConfig returns sensible classifier defaults.
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.4,
		Parallel:      true,
	}
}

// compiledRule is an IntentRule with its patterns compiled.
type compiledRule struct {
	IntentRule
	patterns  []*regexp.Regexp
	negations []*regexp.Regexp
}

// Classifier maps raw input text to a structured Intent by ordered rule
// evaluation. Safe for concurrent use; the bank can be swapped at runtime
// via SetBank (rule-bank hot reload).
type Classifier struct {
	mu       sync.RWMutex
	rules    []compiledRule
	emotions []EmotionRule
	entities []EntityDef
	cfg      Config
}

// NewClassifier builds a classifier over the default banks.
func NewClassifier(cfg Config) *Classifier {
	c := &Classifier{cfg: cfg}
	c.SetBank(DefaultIntentRules, DefaultEmotionRules, DefaultEntities)
	return c
}

// SetBank replaces the rule, emotion and entity banks. Rules are sorted by
// priority descending; rules whose patterns fail to compile keep their
// keyword matchers and log the bad pattern.
func (c *Classifier) SetBank(rules []IntentRule, emotions []EmotionRule, entities []EntityDef) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{IntentRule: r}
		for _, p := range r.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				logging.Get(logging.CategoryPerception).Warn("Skipping bad pattern %q for %s: %v", p, r.Category, err)
				continue
			}
			cr.patterns = append(cr.patterns, re)
		}
		for _, p := range r.Negations {
			re, err := regexp.Compile(p)
			if err != nil {
				logging.Get(logging.CategoryPerception).Warn("Skipping bad negation %q for %s: %v", p, r.Category, err)
				continue
			}
			cr.negations = append(cr.negations, re)
		}
		compiled = append(compiled, cr)
	}

	// Stable sort keeps the declaration order for equal priorities, so the
	// deterministic tie-break ("earlier entry wins") is well defined.
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	sortedEmotions := make([]EmotionRule, len(emotions))
	copy(sortedEmotions, emotions)
	sort.SliceStable(sortedEmotions, func(i, j int) bool {
		return sortedEmotions[i].Priority > sortedEmotions[j].Priority
	})

	c.mu.Lock()
	c.rules = compiled
	c.emotions = sortedEmotions
	c.entities = entities
	c.mu.Unlock()

	logging.PerceptionDebug("Bank set: %d rules, %d emotions, %d entities", len(compiled), len(sortedEmotions), len(entities))
}

// Detect classifies one utterance. It always returns a syntactically valid
// Intent: on no confident match the category is CategoryUnknown with low
// confidence, never an error.
func (c *Classifier) Detect(text string) types.Intent {
	c.mu.RLock()
	rules := c.rules
	emotions := c.emotions
	entities := c.entities
	cfg := c.cfg
	c.mu.RUnlock()

	norm := normalize(text)

	var (
		category   types.IntentCategory
		confidence float64
		emotion    types.Emotion
	)

	if cfg.Parallel {
		// The two passes are independent reads over the same text, in the
		// manner of a parallel dual-store lookup. Both are pure, so output
		// is identical to the sequential path.
		var g errgroup.Group
		g.Go(func() error {
			category, confidence = classifyCategory(norm, rules, cfg.MinConfidence)
			return nil
		})
		g.Go(func() error {
			emotion = classifyEmotion(norm, emotions)
			return nil
		})
		_ = g.Wait()
	} else {
		category, confidence = classifyCategory(norm, rules, cfg.MinConfidence)
		emotion = classifyEmotion(norm, emotions)
	}

	intent := types.Intent{
		Category:   category,
		Confidence: confidence,
		Emotion:    emotion,
		Entities:   extractEntities(norm, entities),
	}

	logging.PerceptionDebug("Detected %s (%.2f) emotion=%s entities=%d for %q",
		intent.Category, intent.Confidence, intent.Emotion, len(intent.Entities), truncateForLog(text, 80))
	return intent
}

// classifyCategory evaluates the bank in priority order. Every rule clearing
// the threshold competes; the longest total matched span wins, and on equal
// spans the earlier (higher priority) entry wins.
func classifyCategory(norm string, rules []compiledRule, minConfidence float64) (types.IntentCategory, float64) {
	bestSpan := -1
	bestCategory := types.CategoryUnknown
	bestConfidence := unknownConfidence

	for _, r := range rules {
		span, hits := matchRule(norm, r)
		if hits == 0 {
			continue
		}
		conf := r.Confidence + hitBonus*float64(hits-1)
		if conf > maxConfidence {
			conf = maxConfidence
		}
		if conf < minConfidence {
			continue
		}
		// Strictly longer span wins; equal span keeps the earlier entry.
		if span > bestSpan {
			bestSpan = span
			bestCategory = r.Category
			bestConfidence = conf
		}
	}

	return bestCategory, bestConfidence
}

// matchRule returns the total matched span and hit count for one rule.
// A matching negation suppresses the rule entirely.
func matchRule(norm string, r compiledRule) (span, hits int) {
	for _, re := range r.negations {
		if re.MatchString(norm) {
			return 0, 0
		}
	}
	for _, kw := range r.Keywords {
		if strings.Contains(norm, kw) {
			span += len(kw)
			hits++
		}
	}
	for _, re := range r.patterns {
		if m := re.FindString(norm); m != "" {
			span += len(m)
			hits++
		}
	}
	return span, hits
}

// classifyEmotion runs the independent emotion pass. Longest total span
// wins; equal spans keep the higher-priority emotion. Simple negation
// awareness: a keyword directly preceded by a negator does not count.
func classifyEmotion(norm string, emotions []EmotionRule) types.Emotion {
	bestSpan := 0
	best := types.EmotionNone

	for _, er := range emotions {
		span := 0
		for _, kw := range er.Keywords {
			idx := strings.Index(norm, kw)
			if idx < 0 || negatedBefore(norm, idx) {
				continue
			}
			span += len(kw)
		}
		if span > bestSpan {
			bestSpan = span
			best = er.Emotion
		}
	}
	return best
}

// negators are checked against the few characters before a keyword hit.
var negators = []string{"not ", "never ", "no ", "n't "}

func negatedBefore(norm string, idx int) bool {
	start := idx - 8
	if start < 0 {
		start = 0
	}
	window := norm[start:idx]
	for _, n := range negators {
		if strings.Contains(window, n) {
			return true
		}
	}
	return false
}

// extractEntities scans the entity bank. Each entity contributes at most
// once, in bank order, so output is deterministic.
func extractEntities(norm string, entities []EntityDef) []types.Entity {
	var out []types.Entity
	for _, def := range entities {
		for _, alias := range def.Aliases {
			if strings.Contains(norm, alias) {
				out = append(out, types.Entity{Kind: def.Kind, Name: def.Name, Slug: def.Slug})
				break
			}
		}
	}
	return out
}

// normalize lower-cases, collapses whitespace and caps the scan window.
func normalize(text string) string {
	norm := strings.ToLower(strings.TrimSpace(text))
	norm = strings.Join(strings.Fields(norm), " ")
	if len(norm) > maxScanLen {
		norm = norm[:maxScanLen]
	}
	return norm
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
