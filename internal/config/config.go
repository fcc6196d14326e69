// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	// SessionIdleTTL is how long a session may sit without a turn before
	// the reaper marks it abandoned.
	SessionIdleTTL time.Duration
	// ReaperInterval is how often the idle sweep runs.
	ReaperInterval time.Duration

	// Strictness is the grammar feedback sensitivity: lenient, moderate,
	// or strict.
	Strictness string

	Reasoning ReasoningConfig
	Speech    SpeechConfig
	Handoff   HandoffConfig
}

// SpeechConfig configures the outbound speech-synthesis collaborator. An
// empty SynthURL disables the synthesis endpoint.
type SpeechConfig struct {
	SynthURL       string
	RequestTimeout time.Duration
}

// ReasoningConfig configures the external reasoning-model collaborator.
// An empty APIKey disables model calls; the engine then runs rule-only.
type ReasoningConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	RequestTimeout time.Duration
}

// HandoffConfig carries the handoff detector cutoffs. The defaults
// preserve the original tuning; none of these values are derived, so they
// are exposed for adjustment rather than hard-coded.
type HandoffConfig struct {
	FrustrationThreshold   float64
	PronunciationThreshold float64
	GrammarFocusThreshold  float64
	ReadinessThreshold     float64
	LowConfidenceCutoff    float64
	VeryLowConfidence      float64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/languagepeer.db"),
		SessionIdleTTL: getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		ReaperInterval: getEnvDuration("SESSION_REAPER_INTERVAL", time.Minute),
		Strictness:     getEnv("FEEDBACK_STRICTNESS", "moderate"),
		Reasoning: ReasoningConfig{
			APIKey:         getEnv("REASONING_API_KEY", ""),
			BaseURL:        getEnv("REASONING_BASE_URL", ""),
			Model:          getEnv("REASONING_MODEL", "gpt-4o-mini"),
			RequestTimeout: getEnvDuration("REASONING_TIMEOUT", 20*time.Second),
		},
		Speech: SpeechConfig{
			SynthURL:       getEnv("SPEECH_SYNTH_URL", ""),
			RequestTimeout: getEnvDuration("SPEECH_SYNTH_TIMEOUT", 15*time.Second),
		},
		Handoff: HandoffConfig{
			FrustrationThreshold:   getEnvFloat("HANDOFF_FRUSTRATION_THRESHOLD", 0.7),
			PronunciationThreshold: getEnvFloat("HANDOFF_PRONUNCIATION_THRESHOLD", 0.6),
			GrammarFocusThreshold:  getEnvFloat("HANDOFF_GRAMMAR_THRESHOLD", 0.7),
			ReadinessThreshold:     getEnvFloat("HANDOFF_READINESS_THRESHOLD", 0.7),
			LowConfidenceCutoff:    getEnvFloat("TRANSCRIPT_LOW_CONFIDENCE", 0.6),
			VeryLowConfidence:      getEnvFloat("TRANSCRIPT_VERY_LOW_CONFIDENCE", 0.4),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	switch c.Strictness {
	case "lenient", "moderate", "strict":
	default:
		return fmt.Errorf("FEEDBACK_STRICTNESS must be lenient, moderate, or strict")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be > 0")
	}
	if c.ReaperInterval <= 0 {
		return fmt.Errorf("SESSION_REAPER_INTERVAL must be > 0")
	}
	for name, v := range map[string]float64{
		"HANDOFF_FRUSTRATION_THRESHOLD":   c.Handoff.FrustrationThreshold,
		"HANDOFF_PRONUNCIATION_THRESHOLD": c.Handoff.PronunciationThreshold,
		"HANDOFF_GRAMMAR_THRESHOLD":       c.Handoff.GrammarFocusThreshold,
		"HANDOFF_READINESS_THRESHOLD":     c.Handoff.ReadinessThreshold,
		"TRANSCRIPT_LOW_CONFIDENCE":       c.Handoff.LowConfidenceCutoff,
		"TRANSCRIPT_VERY_LOW_CONFIDENCE":  c.Handoff.VeryLowConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1]", name)
		}
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
