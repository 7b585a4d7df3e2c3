// Package loadtest drives a running sportid service end to end: it connects
// wallets, extracts generated screenshot texts, submits the confirmed
// activities concurrently and checks the resulting leaderboard.
package loadtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/sportid/internal/domain/model"
	"github.com/okian/sportid/internal/domain/types"
)

// Error constants.
var (
	ErrInvalidConfig = errors.New("invalid load test config")
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrInconsistent  = errors.New("leaderboard inconsistent")
	ErrNothingToSave = errors.New("no submissions to save")
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Athletes    int           // Number of distinct athletes
	PerAthlete  int           // Submissions per athlete
	Duplicates  int           // Submissions re-sent to exercise idempotency
	TopN        int           // Leaderboard entries to fetch
	Workers     int           // Concurrent HTTP workers
	Timeout     time.Duration // HTTP request timeout
	Wait        time.Duration // Upper bound on waiting for processing
	PollEvery   time.Duration // Interval between processing checks
	Seed        uint64        // Generator seed; zero picks one from the clock
	OutputFile  string        // Optional JSON dump of generated submissions
	Verbose     bool          // Log per-request failures
	AthletePref string        // Prefix for generated athlete IDs
}

// Default configuration values.
const (
	DefaultAthletes   = 200
	DefaultPerAthlete = 5
	DefaultTopN       = 50
	DefaultTimeout    = 10 * time.Second
	DefaultWait       = 2 * time.Minute
	DefaultPollEvery  = 250 * time.Millisecond
)

// withDefaults fills zero values and validates the rest.
func (c Config) withDefaults() (Config, error) {
	if c.BaseURL == "" {
		return c, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if c.Athletes == 0 {
		c.Athletes = DefaultAthletes
	}
	if c.PerAthlete == 0 {
		c.PerAthlete = DefaultPerAthlete
	}
	if c.TopN == 0 {
		c.TopN = DefaultTopN
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Wait == 0 {
		c.Wait = DefaultWait
	}
	if c.PollEvery == 0 {
		c.PollEvery = DefaultPollEvery
	}
	if c.AthletePref == "" {
		c.AthletePref = "load"
	}
	switch {
	case c.Athletes < 0 || c.PerAthlete < 0 || c.Duplicates < 0:
		return c, fmt.Errorf("%w: counts must not be negative", ErrInvalidConfig)
	case c.Workers < 0 || c.TopN < 0:
		return c, fmt.Errorf("%w: workers and top must be positive", ErrInvalidConfig)
	case c.Duplicates > c.Athletes*c.PerAthlete:
		return c, fmt.Errorf("%w: more duplicates than submissions", ErrInvalidConfig)
	}
	return c, nil
}

// Submission is one generated activity: the screenshot text sent to
// /activities/extract and the id it is submitted under.
type Submission struct {
	SubmissionID string          `json:"submission_id"`
	AthleteID    string          `json:"athlete_id"`
	Sport        model.SportType `json:"sport"`
	Text         string          `json:"text"`
	Content      string          `json:"content"`
}

// Entry is a leaderboard row.
type Entry = types.Entry

// Receipt is the response of POST /activities.
type Receipt struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
	Duplicate    bool   `json:"duplicate"`
}

// Status is the response of GET /activities/{id}.
type Status struct {
	SubmissionID string `json:"submission_id"`
	AthleteID    string `json:"athlete_id"`
	Status       string `json:"status"`
	XP           int    `json:"xp"`
	Error        string `json:"error"`
}

// Stats holds run statistics.
type Stats struct {
	Generated          int
	Submitted          int
	Accepted           int
	Duplicate          int
	Backpressure       int
	Failed             int
	Processed          int
	ProcessingFailed   int
	RanksRetrieved     int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
