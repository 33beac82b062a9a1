// Package config holds rafiq engine configuration: the tunables of the
// dialogue core plus logging and storage settings. Configuration is loaded
// from rafiq.json (or rafiq.yaml) with environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all rafiq configuration.
type Config struct {
	// Core settings
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`

	// Dialogue engine tunables
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Classifier tunables
	Perception PerceptionConfig `json:"perception" yaml:"perception"`

	// Suggestion ranker tunables
	Suggestion SuggestionConfig `json:"suggestion" yaml:"suggestion"`

	// Saved-answer persistence
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Logging
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// EngineConfig configures the turn pipeline and the context store.
type EngineConfig struct {
	// HistoryLimit bounds the conversation history (FIFO eviction).
	HistoryLimit int `json:"history_limit" yaml:"history_limit"`

	// RevealInterval is the delay between reveal chunks, e.g. "35ms".
	RevealInterval string `json:"reveal_interval" yaml:"reveal_interval"`

	// AlmanacTimeout bounds the oracle fetch at session start, e.g. "3s".
	AlmanacTimeout string `json:"almanac_timeout" yaml:"almanac_timeout"`

	// Location passed to the almanac oracle.
	Location string `json:"location" yaml:"location"`
}

// PerceptionConfig configures the intent classifier.
type PerceptionConfig struct {
	// MinConfidence is the threshold a rule must clear to win.
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`

	// RuleBankPath optionally overlays the built-in rule bank from YAML.
	RuleBankPath string `json:"rule_bank_path" yaml:"rule_bank_path"`

	// WatchRuleBank reloads the overlay when the file changes.
	WatchRuleBank bool `json:"watch_rule_bank" yaml:"watch_rule_bank"`

	// Parallel runs the category and emotion passes concurrently.
	Parallel bool `json:"parallel" yaml:"parallel"`
}

// SuggestionConfig configures the proactive suggestion ranker.
type SuggestionConfig struct {
	// MaxSuggestions caps the ranked list.
	MaxSuggestions int `json:"max_suggestions" yaml:"max_suggestions"`

	// NudgeBelow triggers the engagement nudge when today's interaction
	// count is below this value.
	NudgeBelow int `json:"nudge_below" yaml:"nudge_below"`

	// PrayerWindow is how far ahead a prayer time counts as imminent, e.g. "45m".
	PrayerWindow string `json:"prayer_window" yaml:"prayer_window"`
}

// StorageConfig configures the saved-answer store.
type StorageConfig struct {
	DatabasePath string `json:"database_path" yaml:"database_path"`
}

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	DebugMode  bool            `json:"debug_mode" yaml:"debug_mode"`
	Categories map[string]bool `json:"categories,omitempty" yaml:"categories,omitempty"`
	Level      string          `json:"level" yaml:"level"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "rafiq",
		Version: "1.0.0",
		Engine: EngineConfig{
			HistoryLimit:   40,
			RevealInterval: "35ms",
			AlmanacTimeout: "3s",
			Location:       "",
		},
		Perception: PerceptionConfig{
			MinConfidence: 0.4,
			RuleBankPath:  "",
			WatchRuleBank: false,
			Parallel:      true,
		},
		Suggestion: SuggestionConfig{
			MaxSuggestions: 3,
			NudgeBelow:     3,
			PrayerWindow:   "45m",
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(".rafiq", "answers.db"),
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads configuration from path, falling back to defaults for any field
// left unset. A missing file is not an error: defaults plus environment
// overrides apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else {
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return nil, fmt.Errorf("failed to parse %s: %w", path, err)
				}
			default:
				if err := json.Unmarshal(data, cfg); err != nil {
					return nil, fmt.Errorf("failed to parse %s: %w", path, err)
				}
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets RAFIQ_* environment variables win over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RAFIQ_DB_PATH"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("RAFIQ_RULE_BANK"); v != "" {
		c.Perception.RuleBankPath = v
	}
	if v := os.Getenv("RAFIQ_LOCATION"); v != "" {
		c.Engine.Location = v
	}
	if v := os.Getenv("RAFIQ_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Engine.HistoryLimit = n
		}
	}
	if v := os.Getenv("RAFIQ_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
}

// Validate rejects configurations the engine cannot honor.
func (c *Config) Validate() error {
	if c.Engine.HistoryLimit <= 0 {
		return fmt.Errorf("engine.history_limit must be positive, got %d", c.Engine.HistoryLimit)
	}
	if c.Perception.MinConfidence < 0 || c.Perception.MinConfidence > 1 {
		return fmt.Errorf("perception.min_confidence must be in [0,1], got %f", c.Perception.MinConfidence)
	}
	if c.Suggestion.MaxSuggestions < 0 {
		return fmt.Errorf("suggestion.max_suggestions must be non-negative, got %d", c.Suggestion.MaxSuggestions)
	}
	if _, err := c.RevealInterval(); err != nil {
		return err
	}
	if _, err := c.AlmanacTimeout(); err != nil {
		return err
	}
	if _, err := c.PrayerWindow(); err != nil {
		return err
	}
	return nil
}

// RevealInterval parses the reveal interval duration.
func (c *Config) RevealInterval() (time.Duration, error) {
	return parseDuration("engine.reveal_interval", c.Engine.RevealInterval, 35*time.Millisecond)
}

// AlmanacTimeout parses the oracle fetch timeout.
func (c *Config) AlmanacTimeout() (time.Duration, error) {
	return parseDuration("engine.almanac_timeout", c.Engine.AlmanacTimeout, 3*time.Second)
}

// PrayerWindow parses the imminent-prayer window.
func (c *Config) PrayerWindow() (time.Duration, error) {
	return parseDuration("suggestion.prayer_window", c.Suggestion.PrayerWindow, 45*time.Minute)
}

func parseDuration(field, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be non-negative, got %v", field, d)
	}
	return d, nil
}

// Save writes the configuration to path as JSON.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
