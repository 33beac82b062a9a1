package perception

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"rafiq/internal/logging"
	"rafiq/internal/types"
)

// RuleBankFile is the on-disk overlay for the built-in banks. The file is a
// versioned artifact: checked in next to the app, reviewed like code, and
// hot-reloadable. Every block is optional; an omitted block keeps the
// built-in defaults.
type RuleBankFile struct {
	Rules    []IntentRule  `yaml:"rules,omitempty"`
	Emotions []EmotionRule `yaml:"emotions,omitempty"`
	Entities []EntityDef   `yaml:"entities,omitempty"`
}

// LoadRuleBank reads and validates a YAML overlay file.
func LoadRuleBank(path string) (*RuleBankFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule bank %s: %w", path, err)
	}

	var bank RuleBankFile
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse rule bank %s: %w", path, err)
	}

	for i, r := range bank.Rules {
		if !r.Category.Valid() {
			return nil, fmt.Errorf("rule bank %s: rules[%d] has invalid category %q", path, i, r.Category)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return nil, fmt.Errorf("rule bank %s: rules[%d] confidence %f outside [0,1]", path, i, r.Confidence)
		}
	}
	return &bank, nil
}

// ApplyOverlay merges an overlay file into the defaults and installs the
// result. Overlay rules replace built-in rules of the same category; overlay
// emotions and entities replace matching entries by emotion/slug. Entries
// with no built-in counterpart are appended.
func (c *Classifier) ApplyOverlay(bank *RuleBankFile) {
	rules := overlayRules(DefaultIntentRules, bank.Rules)
	emotions := overlayEmotions(DefaultEmotionRules, bank.Emotions)
	entities := overlayEntities(DefaultEntities, bank.Entities)
	c.SetBank(rules, emotions, entities)
	logging.Perception("Rule bank overlay applied: %d rules, %d emotions, %d entities",
		len(bank.Rules), len(bank.Emotions), len(bank.Entities))
}

// LoadOverlayFile is ApplyOverlay plus the file read; a load failure leaves
// the active bank untouched.
func (c *Classifier) LoadOverlayFile(path string) error {
	bank, err := LoadRuleBank(path)
	if err != nil {
		return err
	}
	c.ApplyOverlay(bank)
	return nil
}

func overlayRules(base, overlay []IntentRule) []IntentRule {
	replaced := make(map[types.IntentCategory]bool, len(overlay))
	for _, r := range overlay {
		replaced[r.Category] = true
	}
	out := make([]IntentRule, 0, len(base)+len(overlay))
	for _, r := range base {
		if !replaced[r.Category] {
			out = append(out, r)
		}
	}
	return append(out, overlay...)
}

func overlayEmotions(base, overlay []EmotionRule) []EmotionRule {
	replaced := make(map[types.Emotion]bool, len(overlay))
	for _, r := range overlay {
		replaced[r.Emotion] = true
	}
	out := make([]EmotionRule, 0, len(base)+len(overlay))
	for _, r := range base {
		if !replaced[r.Emotion] {
			out = append(out, r)
		}
	}
	return append(out, overlay...)
}

func overlayEntities(base, overlay []EntityDef) []EntityDef {
	replaced := make(map[string]bool, len(overlay))
	for _, e := range overlay {
		replaced[e.Slug] = true
	}
	out := make([]EntityDef, 0, len(base)+len(overlay))
	for _, e := range base {
		if !replaced[e.Slug] {
			out = append(out, e)
		}
	}
	return append(out, overlay...)
}
