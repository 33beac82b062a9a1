package perception

import (
	"os"
	"path/filepath"
	"testing"

	"rafiq/internal/types"
)

func writeBank(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverlayFile_AddsNewVocabulary(t *testing.T) {
	path := writeBank(t, `
rules:
  - category: small_talk
    priority: 55
    confidence: 0.7
    keywords: ["khuda hafiz"]
`)

	c := NewClassifier(DefaultConfig())
	if err := c.LoadOverlayFile(path); err != nil {
		t.Fatalf("overlay load failed: %v", err)
	}

	got := c.Detect("khuda hafiz my friend")
	if got.Category != types.CategorySmallTalk {
		t.Fatalf("expected overlay keyword to classify as small_talk, got %s", got.Category)
	}
}

func TestLoadOverlayFile_ReplacesSameCategory(t *testing.T) {
	path := writeBank(t, `
rules:
  - category: small_talk
    priority: 50
    confidence: 0.9
    keywords: ["bonjour"]
`)

	c := NewClassifier(DefaultConfig())
	if err := c.LoadOverlayFile(path); err != nil {
		t.Fatalf("overlay load failed: %v", err)
	}

	// Overlay replaces the small_talk row wholesale, so the default
	// greeting vocabulary is gone.
	if got := c.Detect("hello there"); got.Category == types.CategorySmallTalk {
		t.Errorf("expected default small_talk vocabulary replaced, got %s", got.Category)
	}
	if got := c.Detect("bonjour"); got.Category != types.CategorySmallTalk {
		t.Errorf("expected overlay vocabulary active, got %s", got.Category)
	}
}

func TestLoadOverlayFile_BadFileKeepsActiveBank(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	before := c.Detect("salam, how are you")

	if err := c.LoadOverlayFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing overlay file")
	}

	after := c.Detect("salam, how are you")
	if before.Category != after.Category {
		t.Fatalf("active bank changed after failed reload: %s -> %s", before.Category, after.Category)
	}
}

func TestLoadRuleBank_RejectsInvalidCategory(t *testing.T) {
	path := writeBank(t, `
rules:
  - category: made_up_category
    priority: 10
    confidence: 0.5
    keywords: ["x"]
`)
	if _, err := LoadRuleBank(path); err == nil {
		t.Fatal("expected validation error for unknown category")
	}
}

func TestLoadRuleBank_RejectsConfidenceOutOfRange(t *testing.T) {
	path := writeBank(t, `
rules:
  - category: small_talk
    priority: 10
    confidence: 1.5
    keywords: ["x"]
`)
	if _, err := LoadRuleBank(path); err == nil {
		t.Fatal("expected validation error for confidence > 1")
	}
}

func TestLoadOverlayFile_EmotionAndEntityOverlay(t *testing.T) {
	path := writeBank(t, `
emotions:
  - emotion: hopeful
    priority: 60
    keywords: ["dawn will come"]
entities:
  - kind: ritual
    name: "Dua Ahd"
    slug: "dua-ahd"
    aliases: ["dua ahd", "dua al-ahd"]
`)

	c := NewClassifier(DefaultConfig())
	if err := c.LoadOverlayFile(path); err != nil {
		t.Fatalf("overlay load failed: %v", err)
	}

	got := c.Detect("i recite dua ahd because the dawn will come")
	if got.Emotion != types.EmotionHopeful {
		t.Errorf("expected overlay emotion, got %q", got.Emotion)
	}
	found := false
	for _, e := range got.Entities {
		if e.Slug == "dua-ahd" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected overlay entity extracted, got %+v", got.Entities)
	}
}
