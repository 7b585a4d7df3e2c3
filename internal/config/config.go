// Package config defines service configuration and its loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load layers file and env on top.
// - Errors returned by Load and Validate wrap this package's sentinels.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/sportid/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of submission workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the submission idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// VerifyLatencyMinMS and VerifyLatencyMaxMS simulate on-chain verification latency.
	VerifyLatencyMinMS int `koanf:"verify_latency_min_ms"`
	VerifyLatencyMaxMS int `koanf:"verify_latency_max_ms"`

	// SportWeights maps sport types to XP earned per minute.
	SportWeights map[string]float64 `koanf:"sport_weights"`

	// DefaultSportWeight is used for sports without an explicit weight.
	DefaultSportWeight float64 `koanf:"default_sport_weight"`

	// XPPerLevel is the XP needed to advance one level.
	XPPerLevel int `koanf:"xp_per_level"`

	// DefaultSport seeds extraction when a request names no sport.
	DefaultSport string `koanf:"default_sport"`

	// SeedFixtures loads the demo profile, feed, challenges and marketplace at startup.
	SeedFixtures bool `koanf:"seed_fixtures"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		VerifyLatencyMinMS:  20,
		VerifyLatencyMaxMS:  60,
		SportWeights: map[string]float64{
			"running":  2.0,
			"swimming": 2.5,
			"gym":      1.5,
		},
		DefaultSportWeight: 1.0,
		XPPerLevel:         1_000,
		DefaultSport:       string(model.SportRunning),
		SeedFixtures:       true,
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.VerifyLatencyMinMS < 0 || c.VerifyLatencyMaxMS < c.VerifyLatencyMinMS:
		return fmt.Errorf("%w: verify latency range [%d,%d] is invalid", ErrInvalidConfig, c.VerifyLatencyMinMS, c.VerifyLatencyMaxMS)
	case c.XPPerLevel < 1:
		return fmt.Errorf("%w: xp_per_level must be positive", ErrInvalidConfig)
	}
	if _, err := model.ParseSportType(c.DefaultSport); err != nil {
		return fmt.Errorf("%w: default_sport: %v", ErrInvalidConfig, err)
	}
	for sport, w := range c.SportWeights {
		if _, err := model.ParseSportType(sport); err != nil {
			return fmt.Errorf("%w: sport_weights: %v", ErrInvalidConfig, err)
		}
		if w <= 0 {
			return fmt.Errorf("%w: sport_weights[%s] must be positive", ErrInvalidConfig, sport)
		}
	}
	return nil
}
