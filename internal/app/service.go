// Package service wires the extractor, stores, wallet sessions and the
// submission pipeline behind the methods the HTTP API depends on.
package service

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sportid/internal/adapters/mq/queue"
	"github.com/okian/sportid/internal/adapters/mq/worker"
	"github.com/okian/sportid/internal/adapters/repository"
	"github.com/okian/sportid/internal/domain/dedupe"
	"github.com/okian/sportid/internal/domain/extract"
	"github.com/okian/sportid/internal/domain/model"
	"github.com/okian/sportid/internal/domain/rewards"
	"github.com/okian/sportid/internal/domain/types"
	"github.com/okian/sportid/internal/domain/wallet"
	"github.com/okian/sportid/pkg/logger"
	"github.com/okian/sportid/pkg/metrics"
)

// Service implements the API dependencies for the rewards backend.
type Service struct {
	mu sync.RWMutex

	// Core components
	leaderboard *repository.TreapStore
	feed        *repository.FeedStore
	catalog     *repository.CatalogStore
	deduper     dedupe.Deduper
	queue       *queue.InMemoryQueue
	rewarder    *rewards.InMemoryRewarder
	wallets     *wallet.Registry
	extractor   *extract.Extractor
	pool        *worker.Pool
	tracker     *tracker

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	sportWeights  map[string]float64
	defaultWeight float64
	xpPerLevel    int
	defaultSport  model.SportType
	seedFixtures  bool
	now           func() time.Time
	// Verification latency configuration
	verifyMinLatency time.Duration
	verifyMaxLatency time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSportWeights sets XP-per-minute weights by sport.
func WithSportWeights(weights map[string]float64) Option {
	return func(s *Service) {
		s.sportWeights = weights
	}
}

// WithDefaultSportWeight sets the weight for sports without one.
func WithDefaultSportWeight(weight float64) Option {
	return func(s *Service) {
		if weight > 0 {
			s.defaultWeight = weight
		}
	}
}

// WithVerifyLatencyRange sets the simulated verification latency range.
func WithVerifyLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.verifyMinLatency = minLatency
			s.verifyMaxLatency = maxLatency
		}
	}
}

// WithXPPerLevel sets the XP needed per profile level.
func WithXPPerLevel(xp int) Option {
	return func(s *Service) {
		if xp > 0 {
			s.xpPerLevel = xp
		}
	}
}

// WithDefaultSport sets the sport used when an extraction names none.
func WithDefaultSport(sport model.SportType) Option {
	return func(s *Service) {
		if sport.Valid() {
			s.defaultSport = sport
		}
	}
}

// WithSeedFixtures toggles loading the demo data on Start.
func WithSeedFixtures(seed bool) Option {
	return func(s *Service) {
		s.seedFixtures = seed
	}
}

// WithClock replaces time.Now for challenge deadlines, posts and date fallback.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   10_000,
		dedupeSize:  50_000,
		sportWeights: map[string]float64{
			string(model.SportRunning): 2.0,
		},
		defaultWeight:    1.0,
		xpPerLevel:       1_000,
		defaultSport:     model.SportRunning,
		now:              time.Now,
		verifyMinLatency: 20 * time.Millisecond,
		verifyMaxLatency: 60 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(s)
	}
	s.extractor = extract.New(extract.WithClock(s.now))

	return s
}

// Start initializes the stores and starts the worker pool. Calling Start
// on a running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rewards service...")

	xpPerLevel := s.xpPerLevel
	s.leaderboard = repository.NewTreapStore(ctx)
	s.feed = repository.NewFeedStore(repository.WithFeedClock(s.now))
	s.catalog = repository.NewCatalogStore(
		repository.WithCatalogClock(s.now),
		repository.WithLevelFunc(func(xp int) (int, int) { return rewards.Level(xp, xpPerLevel) }),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.rewarder = rewards.NewInMemoryRewarder(
		rewards.WithSportWeightsFromConfig(s.sportWeights, s.defaultWeight),
		rewards.WithLatencyRange(s.verifyMinLatency, s.verifyMaxLatency),
	)
	s.wallets = wallet.NewRegistry(wallet.WithClock(s.now), wallet.WithLogger(s.logger.Named("wallet")))
	s.tracker = newTracker(s.dedupeSize, s.now)

	if s.seedFixtures {
		if err := s.seed(ctx); err != nil {
			_ = s.leaderboard.Close()
			return fmt.Errorf("seed fixtures: %w", err)
		}
	}

	p := &pipeline{svc: s, board: s.leaderboard}
	s.pool = worker.NewPool(s.workerCount, s.queue, p, s.rewarder, p)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "rewards service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("seeded", s.seedFixtures),
	)

	return nil
}

func (s *Service) seed(ctx context.Context) error {
	f := repository.DefaultFixtures(s.now())
	s.catalog.Seed(ctx, f)
	for i := len(f.Posts) - 1; i >= 0; i-- {
		s.feed.Publish(ctx, f.Posts[i])
	}
	for _, p := range f.Profiles {
		if p.XP <= 0 {
			continue
		}
		if _, err := s.leaderboard.AddXP(ctx, p.User.ID, p.XP); err != nil {
			return fmt.Errorf("leaderboard %s: %w", p.User.ID, err)
		}
	}
	return nil
}

// Stop drains queued submissions and shuts the service down. Submissions
// still queued when ctx ends are dropped.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping rewards service...")

	var err error
	if s.pool != nil {
		err = s.pool.Shutdown(ctx)
	}
	if s.leaderboard != nil {
		_ = s.leaderboard.Close()
	}

	s.started = false
	s.logger.Info(ctx, "rewards service stopped", logger.Any("processed", s.pool.Processed()))
	return err
}

func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Extract turns recognized text into an activity record for review. An
// empty sport uses the configured default.
func (s *Service) Extract(ctx context.Context, text, sport string, confidence float64) (model.ExtractedActivityData, error) {
	st := s.defaultSport
	if strings.TrimSpace(sport) != "" {
		parsed, err := model.ParseSportType(sport)
		if err != nil {
			return model.ExtractedActivityData{}, fmt.Errorf("%w: %v", ErrInvalidSport, err)
		}
		st = parsed
	}

	start := time.Now()
	data := s.extractor.Extract(text, st, confidence)
	fields := data.Fields()
	metrics.RecordExtraction(float64(time.Since(start).Microseconds())/1000, fields, data.DateInferred)

	s.log().Debug(ctx, "extracted activity",
		logger.String("sport", string(st)),
		logger.Int("fields", len(fields)),
		logger.Bool("date_inferred", data.DateInferred),
		logger.Float64("confidence", confidence),
	)
	return data, nil
}

// SubmitRequest is a human-confirmed extraction.
type SubmitRequest struct {
	SubmissionID string
	AthleteID    string
	Content      string
	Images       []string
	Data         model.ExtractedActivityData
}

// Upper bounds for a single confirmed activity.
const (
	MaxDistanceKm      = 1000.0
	MaxDurationMinutes = 24 * 60.0
	MaxCalories        = 100_000
	MaxImages          = 10
)

func (r *SubmitRequest) validate() error {
	r.AthleteID = strings.TrimSpace(r.AthleteID)
	r.SubmissionID = strings.TrimSpace(r.SubmissionID)
	switch {
	case r.AthleteID == "":
		return fmt.Errorf("%w: athlete_id is required", ErrInvalidSubmission)
	case r.Data.Type != nil && !r.Data.Type.Valid():
		return fmt.Errorf("%w: unknown sport type %q", ErrInvalidSubmission, *r.Data.Type)
	case r.Data.Calories != nil && *r.Data.Calories < 0:
		return fmt.Errorf("%w: calories must not be negative", ErrInvalidSubmission)
	case r.Data.Calories != nil && *r.Data.Calories > MaxCalories:
		return fmt.Errorf("%w: calories must not exceed %d", ErrInvalidSubmission, MaxCalories)
	case len(r.Images) > MaxImages:
		return fmt.Errorf("%w: at most %d images", ErrInvalidSubmission, MaxImages)
	}
	if err := checkRange("duration", r.Data.Duration, MaxDurationMinutes); err != nil {
		return err
	}
	if err := checkRange("distance", r.Data.Distance, MaxDistanceKm); err != nil {
		return err
	}
	return checkRange("pace", r.Data.Pace, math.MaxFloat64)
}

// checkRange accepts a missing value or a finite one in [0, limit].
func checkRange(field string, v *float64, limit float64) error {
	switch {
	case v == nil:
		return nil
	case math.IsNaN(*v) || math.IsInf(*v, 0):
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidSubmission, field)
	case *v < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidSubmission, field)
	case *v > limit:
		return fmt.Errorf("%w: %s must not exceed %g", ErrInvalidSubmission, field, limit)
	}
	return nil
}

// Receipt acknowledges a submission.
type Receipt struct {
	SubmissionID string `json:"submission_id"`
	Status       Status `json:"status"`
	Duplicate    bool   `json:"duplicate"`
}

// Submit queues a confirmed activity for verification and rewards. The
// athlete's wallet must be connected. A repeated submission ID is
// acknowledged as a duplicate without being queued again. A missing ID is
// generated.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (Receipt, error) { //nolint:gocritic // hugeParam: request value
	if err := s.running(); err != nil {
		return Receipt{}, err
	}
	if err := req.validate(); err != nil {
		return Receipt{}, err
	}
	if req.SubmissionID == "" {
		req.SubmissionID = uuid.NewString()
	}

	session, err := s.wallets.Session(req.AthleteID)
	if err != nil {
		return Receipt{}, fmt.Errorf("wallet session: %w", err)
	}
	if !session.Connected() {
		metrics.RecordWalletOperation(wallet.OpVerifyActivity, "rejected")
		return Receipt{}, wallet.ErrNotConnected
	}

	if s.deduper.SeenAndRecord(ctx, req.SubmissionID) {
		metrics.RecordSubmissionDuplicate()
		s.logger.Debug(ctx, "duplicate submission",
			logger.String("submission_id", req.SubmissionID),
			logger.String("athlete_id", req.AthleteID),
		)
		rec := Receipt{SubmissionID: req.SubmissionID, Status: StatusPending, Duplicate: true}
		if st, ok := s.tracker.get(req.SubmissionID); ok {
			rec.Status = st.Status
		}
		return rec, nil
	}

	sub := model.Submission{
		SubmissionID: req.SubmissionID,
		AthleteID:    req.AthleteID,
		Content:      req.Content,
		Images:       req.Images,
		Data:         req.Data,
		ReceivedAt:   s.now().UTC(),
	}
	s.tracker.pending(sub)
	if !s.queue.Enqueue(ctx, sub) {
		s.deduper.Unrecord(ctx, req.SubmissionID)
		s.tracker.forget(req.SubmissionID)
		return Receipt{}, ErrBackpressure
	}

	metrics.RecordSubmissionAccepted()
	s.logger.Debug(ctx, "submission queued",
		logger.String("submission_id", sub.SubmissionID),
		logger.String("athlete_id", sub.AthleteID),
		logger.String("sport", string(sub.Sport())),
	)
	return Receipt{SubmissionID: sub.SubmissionID, Status: StatusPending}, nil
}

// Submission returns the processing state of a submission.
func (s *Service) Submission(ctx context.Context, submissionID string) (SubmissionStatus, error) {
	if err := s.running(); err != nil {
		return SubmissionStatus{}, err
	}
	st, ok := s.tracker.get(submissionID)
	if !ok {
		return SubmissionStatus{}, repository.ErrNotFound
	}
	return st, nil
}

// Feed returns posts for a sport filter ("all" or empty for every post).
func (s *Service) Feed(ctx context.Context, sport string) ([]model.Post, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.feed.List(ctx, sport), nil
}

// LikePost adds a like to a post.
func (s *Service) LikePost(ctx context.Context, postID string) (model.Post, error) {
	if err := s.running(); err != nil {
		return model.Post{}, err
	}
	return s.feed.Like(ctx, postID)
}

// Challenges lists daily challenges as seen by athleteID.
func (s *Service) Challenges(ctx context.Context, athleteID string) ([]model.Challenge, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.catalog.Challenges(ctx, athleteID), nil
}

// JoinChallenge signs the join on the athlete's wallet and records it.
func (s *Service) JoinChallenge(ctx context.Context, athleteID, challengeID string) (model.Challenge, error) {
	session, err := s.session(athleteID)
	if err != nil {
		return model.Challenge{}, err
	}
	if err := session.JoinChallenge(ctx, challengeID); err != nil {
		return model.Challenge{}, err
	}
	return s.catalog.JoinChallenge(ctx, athleteID, challengeID)
}

// Marketplace lists items matching filter.
func (s *Service) Marketplace(ctx context.Context, filter repository.MarketFilter) ([]model.MarketplaceItem, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.catalog.Items(ctx, filter), nil
}

// Purchase buys an item with the athlete's wallet.
func (s *Service) Purchase(ctx context.Context, athleteID, itemID string) (model.MarketplaceItem, error) {
	session, err := s.session(athleteID)
	if err != nil {
		return model.MarketplaceItem{}, err
	}
	if _, err := s.catalog.Item(ctx, itemID); err != nil {
		return model.MarketplaceItem{}, err
	}
	if err := session.PurchaseItem(ctx, itemID); err != nil {
		return model.MarketplaceItem{}, err
	}
	return s.catalog.Purchase(ctx, athleteID, itemID)
}

// Profile returns the athlete's Sport ID. The wallet address reflects the
// live session when one is connected.
func (s *Service) Profile(ctx context.Context, athleteID string) (model.SportProfile, error) {
	if err := s.running(); err != nil {
		return model.SportProfile{}, err
	}
	p, err := s.catalog.Profile(ctx, athleteID)
	if err != nil {
		return model.SportProfile{}, err
	}
	if session, err := s.wallets.Session(athleteID); err == nil {
		if st := session.Status(); st.Connected {
			p.User.WalletAddress = st.Address
		}
	}
	return p, nil
}

// ClaimTitle mints an earned title through the athlete's wallet.
func (s *Service) ClaimTitle(ctx context.Context, athleteID, titleID string) (model.TitleNFT, error) {
	session, err := s.session(athleteID)
	if err != nil {
		return model.TitleNFT{}, err
	}
	if !session.Connected() {
		metrics.RecordWalletOperation(wallet.OpClaimTitle, "rejected")
		return model.TitleNFT{}, wallet.ErrNotConnected
	}
	if _, err := s.catalog.Profile(ctx, athleteID); err != nil {
		return model.TitleNFT{}, err
	}
	if err := session.ClaimTitle(ctx, titleID); err != nil {
		return model.TitleNFT{}, err
	}
	return s.catalog.ClaimTitle(ctx, athleteID, titleID)
}

// Wallet returns the athlete's wallet status.
func (s *Service) Wallet(ctx context.Context, athleteID string) (wallet.Status, error) {
	session, err := s.session(athleteID)
	if err != nil {
		return wallet.Status{}, err
	}
	return session.Status(), nil
}

// ConnectWallet attaches address, or a generated one when empty.
func (s *Service) ConnectWallet(ctx context.Context, athleteID, address string) (wallet.Status, error) {
	session, err := s.session(athleteID)
	if err != nil {
		return wallet.Status{}, err
	}
	return session.Connect(ctx, address)
}

// DisconnectWallet detaches the athlete's wallet.
func (s *Service) DisconnectWallet(ctx context.Context, athleteID string) (wallet.Status, error) {
	session, err := s.session(athleteID)
	if err != nil {
		return wallet.Status{}, err
	}
	return session.Disconnect(ctx), nil
}

func (s *Service) session(athleteID string) (*wallet.Session, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.wallets.Session(athleteID)
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.leaderboard.TopN(ctx, n)
}

// Rank returns the rank and XP for an athlete.
func (s *Service) Rank(ctx context.Context, athleteID string) (types.Entry, error) {
	if err := s.running(); err != nil {
		return types.Entry{}, err
	}
	return s.leaderboard.Rank(ctx, athleteID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		athletes := s.leaderboard.Count(ctx)

		stats["queueLength"] = queueLen
		stats["athletes"] = athletes
		stats["feedPosts"] = s.feed.Count(ctx)
		stats["processed"] = s.pool.Processed()
		stats["walletsConnected"] = s.wallets.Connected()
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateLeaderboardAthletes(athletes)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}

func (s *Service) log() logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Get()
}
