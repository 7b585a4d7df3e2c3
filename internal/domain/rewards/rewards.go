// Package rewards computes the experience points and tokens paid out for a
// verified activity.
package rewards

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/sportid/internal/domain/model"
)

// Default reward configuration constants.
const (
	defaultSportWeight = 1.0
	defaultMinLatency  = 20 * time.Millisecond
	defaultMaxLatency  = 60 * time.Millisecond
	defaultRandomSeed  = 42
	xpPerKilometer     = 10
	xpPerToken         = 10
)

// MaxActivityXP caps the XP a single activity can earn.
const MaxActivityXP = 1_000_000

// Option applies a configuration option to the InMemoryRewarder.
type Option func(*InMemoryRewarder)

// WithLatencyRange sets the simulated verification latency range.
// Equal bounds give a fixed latency; zero disables it.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(r *InMemoryRewarder) {
		if minLatency >= 0 && maxLatency >= minLatency {
			r.minLatency = minLatency
			r.maxLatency = maxLatency
		}
	}
}

// WithSportWeightsFromConfig sets per-sport XP-per-minute weights.
func WithSportWeightsFromConfig(weights map[string]float64, defaultWeight float64) Option {
	return func(r *InMemoryRewarder) {
		r.sportWeights = make(map[model.SportType]float64, len(weights))
		for sport, weight := range weights {
			if weight > 0 {
				r.sportWeights[model.SportType(sport)] = weight
			}
		}
		if defaultWeight > 0 {
			r.defaultWeight = defaultWeight
		}
	}
}

// Input is the confirmed activity being rewarded.
type Input struct {
	AthleteID       string
	Sport           model.SportType
	DurationMinutes int
	DistanceKm      float64
}

// Result is the payout for one activity.
type Result struct {
	AthleteID string
	XP        int
	Tokens    int
	Latency   time.Duration
}

// Rewarder computes a payout, honoring ctx for cancellation.
type Rewarder interface {
	Reward(ctx context.Context, in Input) (Result, error)
}

// InMemoryRewarder implements Rewarder with a simulated verification round trip.
type InMemoryRewarder struct {
	sportWeights  map[model.SportType]float64
	defaultWeight float64
	minLatency    time.Duration
	maxLatency    time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewInMemoryRewarder creates a rewarder with configuration options.
func NewInMemoryRewarder(opts ...Option) *InMemoryRewarder {
	r := &InMemoryRewarder{
		sportWeights:  make(map[model.SportType]float64),
		defaultWeight: defaultSportWeight,
		minLatency:    defaultMinLatency,
		maxLatency:    defaultMaxLatency,
		rng:           rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic latency for tests
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reward waits out the simulated verification latency and computes XP.
func (r *InMemoryRewarder) Reward(ctx context.Context, in Input) (Result, error) {
	latency := r.latency()
	if latency > 0 {
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(latency):
		}
	} else if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}

	xp := r.XP(in)
	return Result{
		AthleteID: in.AthleteID,
		XP:        xp,
		Tokens:    xp / xpPerToken,
		Latency:   latency,
	}, nil
}

// XP returns round(minutes*sportWeight + km*10), clamped to
// [1, MaxActivityXP].
func (r *InMemoryRewarder) XP(in Input) int {
	weight, ok := r.sportWeights[in.Sport]
	if !ok {
		weight = r.defaultWeight
	}
	minutes := math.Max(0, float64(in.DurationMinutes))
	km := math.Max(0, in.DistanceKm)
	raw := math.Round(minutes*weight + km*xpPerKilometer)
	switch {
	case math.IsNaN(raw) || raw < 1:
		return 1
	case raw > MaxActivityXP:
		return MaxActivityXP
	}
	return int(raw)
}

func (r *InMemoryRewarder) latency() time.Duration {
	span := r.maxLatency - r.minLatency
	if span <= 0 {
		return r.minLatency
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minLatency + time.Duration(r.rng.Int63n(int64(span)))
}

// Level returns the level reached with xp and the XP total at which the
// next level starts. Levels start at 1.
func Level(xp, xpPerLevel int) (level, nextLevelAt int) {
	if xpPerLevel <= 0 {
		return 1, 0
	}
	if xp < 0 {
		xp = 0
	}
	level = xp/xpPerLevel + 1
	if level > math.MaxInt/xpPerLevel {
		return level, math.MaxInt
	}
	return level, level * xpPerLevel
}
