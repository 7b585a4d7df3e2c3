package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/sportid/internal/adapters/mq/worker"
	"github.com/okian/sportid/internal/adapters/repository"
	"github.com/okian/sportid/internal/domain/model"
	"github.com/okian/sportid/internal/domain/rewards"
	"github.com/okian/sportid/pkg/logger"
)

// pipeline adapts the service's stores and wallets to the worker's
// Verifier and Recorder. It must not take Service.mu: Stop holds it while
// workers drain.
type pipeline struct {
	svc   *Service
	board repository.Leaderboard
}

var (
	_ worker.Verifier = (*pipeline)(nil)
	_ worker.Recorder = (*pipeline)(nil)
)

// Verify signs the submission on the athlete's wallet session.
func (p *pipeline) Verify(ctx context.Context, sub worker.Submission) error { //nolint:gocritic // hugeParam
	session, err := p.svc.wallets.Session(sub.AthleteID)
	if err != nil {
		return fmt.Errorf("wallet session: %w", err)
	}
	return session.VerifyActivity(ctx, sub.SubmissionID)
}

// Record pays out the reward plus any challenge completed by the activity,
// updates the leaderboard, appends the activity to the profile and posts
// the verified activity to the feed. The leaderboard is credited first and
// a failure there reopens the challenges, so a retry never pays twice.
func (p *pipeline) Record(ctx context.Context, sub worker.Submission, res rewards.Result) error { //nolint:gocritic // hugeParam
	s := p.svc
	sport := sub.Sport()
	minutes := sub.DurationMinutes()

	xp, tokens := res.XP, res.Tokens
	completed := s.catalog.CompleteChallenges(ctx, sub.AthleteID, sport, minutes)
	ids := make([]string, 0, len(completed))
	for _, ch := range completed {
		xp += ch.Reward.XP
		tokens += ch.Reward.Tokens
		ids = append(ids, ch.ID)
	}

	entry, err := p.board.AddXP(ctx, sub.AthleteID, xp)
	if err != nil {
		s.catalog.ReopenChallenges(ctx, sub.AthleteID, ids)
		return fmt.Errorf("leaderboard: %w", err)
	}

	activity := model.ActivityRecord{
		ID:                 sub.SubmissionID,
		Type:               sport,
		Date:               sub.PerformedAt().UTC(),
		Duration:           minutes,
		Distance:           sub.Data.Distance,
		Calories:           sub.Data.Calories,
		Pace:               sub.Data.Pace,
		Verified:           true,
		VerificationSource: model.VerificationScreenshot,
	}
	// AddXP already rejected an empty athlete, the only RecordActivity error.
	profile, err := s.catalog.RecordActivity(ctx, sub.AthleteID, activity, xp, tokens)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}

	content := sub.Content
	if content == "" {
		content = fmt.Sprintf("New %s activity completed!", sport)
	}
	post := s.feed.Publish(ctx, model.Post{
		User:    profile.User,
		Content: content,
		ActivityData: &model.PostActivity{
			Type:               sport,
			Duration:           sub.Data.Duration,
			Distance:           sub.Data.Distance,
			Calories:           sub.Data.Calories,
			Verified:           true,
			VerificationSource: model.VerificationScreenshot,
		},
		Images:   sub.Images,
		Verified: true,
	})

	s.tracker.processed(sub.SubmissionID, xp, tokens, entry.Rank, post.ID)
	if len(completed) > 0 {
		s.logger.Info(ctx, "challenges completed",
			logger.String("athlete_id", sub.AthleteID),
			logger.Int("count", len(completed)),
		)
	}
	return nil
}

// Fail releases the submission's ID so the athlete can resubmit once the
// cause is fixed, then marks it failed. A client that sees the failed
// status can always retry.
func (p *pipeline) Fail(ctx context.Context, sub worker.Submission, err error) { //nolint:gocritic // hugeParam
	p.svc.deduper.Unrecord(ctx, sub.SubmissionID)
	p.svc.tracker.failed(sub.SubmissionID, err)
}

// Status is a submission's processing state.
type Status string

// Submission states.
const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// SubmissionStatus reports what happened to a submission.
type SubmissionStatus struct {
	SubmissionID string    `json:"submission_id"`
	AthleteID    string    `json:"athlete_id"`
	Status       Status    `json:"status"`
	XP           int       `json:"xp,omitempty"`
	Tokens       int       `json:"tokens,omitempty"`
	Rank         int       `json:"rank,omitempty"`
	PostID       string    `json:"post_id,omitempty"`
	Error        string    `json:"error,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// tracker remembers the latest submissions, dropping the oldest past limit.
type tracker struct {
	mu    sync.RWMutex
	byID  map[string]*SubmissionStatus
	order []string
	limit int
	now   func() time.Time
}

func newTracker(limit int, now func() time.Time) *tracker {
	return &tracker{byID: make(map[string]*SubmissionStatus), limit: limit, now: now}
}

func (t *tracker) pending(sub model.Submission) { //nolint:gocritic // hugeParam
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[sub.SubmissionID]; !ok {
		t.order = append(t.order, sub.SubmissionID)
	}
	t.byID[sub.SubmissionID] = &SubmissionStatus{
		SubmissionID: sub.SubmissionID,
		AthleteID:    sub.AthleteID,
		Status:       StatusPending,
		UpdatedAt:    t.now().UTC(),
	}
	for t.limit > 0 && len(t.order) > t.limit {
		delete(t.byID, t.order[0])
		t.order = t.order[1:]
	}
}

func (t *tracker) processed(id string, xp, tokens, rank int, postID string) {
	t.update(id, func(st *SubmissionStatus) {
		st.Status = StatusProcessed
		st.XP, st.Tokens, st.Rank, st.PostID = xp, tokens, rank, postID
	})
}

func (t *tracker) failed(id string, err error) {
	t.update(id, func(st *SubmissionStatus) {
		st.Status = StatusFailed
		st.Error = err.Error()
	})
}

func (t *tracker) update(id string, fn func(*SubmissionStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.byID[id]
	if !ok {
		return
	}
	fn(st)
	st.UpdatedAt = t.now().UTC()
}

func (t *tracker) forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[id]; !ok {
		return
	}
	delete(t.byID, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *tracker) get(id string) (SubmissionStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.byID[id]
	if !ok {
		return SubmissionStatus{}, false
	}
	return *st, true
}
