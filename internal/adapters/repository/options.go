package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithSeed fixes the treap priority source so tree shapes are reproducible.
func WithSeed(seed uint64) Option {
	return func(s *TreapStore) {
		s.seed = seed
	}
}

// FeedOption configures a FeedStore.
type FeedOption func(*FeedStore)

// WithFeedCapacity bounds the feed; the oldest posts are dropped first.
func WithFeedCapacity(capacity int) FeedOption {
	return func(f *FeedStore) {
		if capacity > 0 {
			f.capacity = capacity
		}
	}
}

// WithFeedClock replaces time.Now for post timestamps.
func WithFeedClock(now func() time.Time) FeedOption {
	return func(f *FeedStore) {
		if now != nil {
			f.now = now
		}
	}
}

// CatalogOption configures a CatalogStore.
type CatalogOption func(*CatalogStore)

// WithCatalogClock replaces time.Now for deadlines and streaks.
func WithCatalogClock(now func() time.Time) CatalogOption {
	return func(c *CatalogStore) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLevelFunc sets how XP maps to a level and next-level threshold.
func WithLevelFunc(level func(xp int) (int, int)) CatalogOption {
	return func(c *CatalogStore) {
		if level != nil {
			c.level = level
		}
	}
}

// WithRecentActivities bounds the activities kept on a profile.
func WithRecentActivities(n int) CatalogOption {
	return func(c *CatalogStore) {
		if n > 0 {
			c.recentLimit = n
		}
	}
}
