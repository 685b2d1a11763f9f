// Package config loads monitor configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all tunables for the monitor daemon
type Config struct {
	// StatePath is where persistent state lives (profile, archive, journal)
	StatePath string `yaml:"state_path"`

	// Backend (OpenAI-compatible) settings
	Backend BackendConfig `yaml:"backend"`

	// Watcher settings
	IdleThresholdSec int `yaml:"idle_threshold_sec"` // seconds before user counts as idle
	PollIntervalSec  int `yaml:"poll_interval_sec"`  // activity poll cadence

	// Decision loop settings
	CycleIntervalSec    int `yaml:"cycle_interval_sec"`    // decision cycle cadence
	ClassifyIntervalSec int `yaml:"classify_interval_sec"` // min seconds between screen captures
	HistoryCap          int `yaml:"history_cap"`           // in-process intervention history bound
	EffectivenessSec    int `yaml:"effectiveness_sec"`     // resume-within window for attribution

	// Screen classification
	Screen ScreenConfig `yaml:"screen"`

	// Notifier settings
	Notify NotifyConfig `yaml:"notify"`
}

// BackendConfig configures the reasoning/vision backend
type BackendConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"` // env var holding the key
	Model       string  `yaml:"model"`
	VisionModel string  `yaml:"vision_model"`
	RatePerMin  float64 `yaml:"rate_per_min"` // backend call rate limit
}

// ScreenConfig configures screenshot capture
type ScreenConfig struct {
	Enabled        bool   `yaml:"enabled"`
	CaptureCommand string `yaml:"capture_command"` // e.g. "screencapture" or "scrot"
}

// NotifyConfig configures intervention sinks
type NotifyConfig struct {
	Command        string `yaml:"command"` // OS notify command ("" = console only)
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
}

// Default returns the baseline configuration
func Default() Config {
	return Config{
		StatePath: "state",
		Backend: BackendConfig{
			APIKeyEnv:   "OPENAI_API_KEY",
			Model:       "gpt-4o-mini",
			VisionModel: "gpt-4o-mini",
			RatePerMin:  10,
		},
		IdleThresholdSec:    120,
		PollIntervalSec:     2,
		CycleIntervalSec:    10,
		ClassifyIntervalSec: 300,
		HistoryCap:          10,
		EffectivenessSec:    60,
		Screen:              ScreenConfig{Enabled: false},
	}
}

// Load reads path (if it exists), applies env overrides, and validates.
// A missing file is not an error; a malformed file is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NUDGE_STATE_PATH"); v != "" {
		c.StatePath = v
	}
	if v := os.Getenv("NUDGE_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("NUDGE_MODEL"); v != "" {
		c.Backend.Model = v
	}
	if v := os.Getenv("NUDGE_VISION_MODEL"); v != "" {
		c.Backend.VisionModel = v
	}
	if v := os.Getenv("NUDGE_IDLE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IdleThresholdSec = n
		}
	}
	if v := os.Getenv("NUDGE_CYCLE_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CycleIntervalSec = n
		}
	}
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Notify.DiscordToken = v
	}
	if v := os.Getenv("DISCORD_CHANNEL_ID"); v != "" {
		c.Notify.DiscordChannel = v
	}
}

func (c *Config) validate() error {
	if c.IdleThresholdSec <= 0 {
		return fmt.Errorf("idle_threshold_sec must be positive, got %d", c.IdleThresholdSec)
	}
	if c.CycleIntervalSec <= 0 {
		return fmt.Errorf("cycle_interval_sec must be positive, got %d", c.CycleIntervalSec)
	}
	if c.HistoryCap <= 0 {
		c.HistoryCap = 10
	}
	if c.EffectivenessSec <= 0 {
		c.EffectivenessSec = 60
	}
	return nil
}

// APIKey resolves the backend API key from the configured env var.
// Empty means the backend is unavailable; the engine fails closed.
func (c *Config) APIKey() string {
	if c.Backend.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Backend.APIKeyEnv)
}

// IdleThreshold returns the idle threshold as a duration
func (c *Config) IdleThreshold() time.Duration {
	return time.Duration(c.IdleThresholdSec) * time.Second
}

// CycleInterval returns the decision cycle cadence as a duration
func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.CycleIntervalSec) * time.Second
}

// ClassifyInterval returns the minimum gap between screen captures
func (c *Config) ClassifyInterval() time.Duration {
	return time.Duration(c.ClassifyIntervalSec) * time.Second
}

// EffectivenessWindow returns the resume-attribution window
func (c *Config) EffectivenessWindow() time.Duration {
	return time.Duration(c.EffectivenessSec) * time.Second
}
