package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sportid/internal/domain/model"
	"github.com/okian/sportid/pkg/metrics"
)

const defaultFeedCapacity = 1000

// FeedStore keeps posts newest first.
type FeedStore struct {
	mu       sync.RWMutex
	posts    []model.Post // newest first
	capacity int
	now      func() time.Time
}

// NewFeedStore creates an empty feed.
func NewFeedStore(opts ...FeedOption) *FeedStore {
	f := &FeedStore{capacity: defaultFeedCapacity, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Publish prepends post, assigning an ID and timestamp when missing.
func (f *FeedStore) Publish(ctx context.Context, post model.Post) model.Post {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Timestamp.IsZero() {
		post.Timestamp = f.now().UTC()
	}

	f.mu.Lock()
	f.posts = append([]model.Post{post}, f.posts...)
	if len(f.posts) > f.capacity {
		f.posts = f.posts[:f.capacity]
	}
	n := len(f.posts)
	f.mu.Unlock()

	metrics.UpdateFeedPosts(n)
	return post
}

// List returns posts matching a sport filter ("all" or empty for every post).
// Posts without an activity only match "all".
func (f *FeedStore) List(ctx context.Context, sport string) []model.Post {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]model.Post, 0, len(f.posts))
	for _, p := range f.posts {
		if p.ActivityData == nil {
			if model.MatchesSport(sport, "") {
				out = append(out, p)
			}
			continue
		}
		if model.MatchesSport(sport, p.Sport()) {
			out = append(out, p)
		}
	}
	return out
}

// Like increments a post's like count.
func (f *FeedStore) Like(ctx context.Context, postID string) (model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.posts {
		if f.posts[i].ID == postID {
			f.posts[i].Likes++
			return f.posts[i], nil
		}
	}
	return model.Post{}, ErrNotFound
}

// Count returns the number of posts.
func (f *FeedStore) Count(ctx context.Context) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.posts)
}
