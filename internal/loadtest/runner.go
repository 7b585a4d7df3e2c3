package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sportid/internal/domain/model"
	"github.com/okian/sportid/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes a complete load test against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	log := logger.Named("loadtest")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("athletes", cfg.Athletes),
		logger.Int("perAthlete", cfg.PerAthlete),
		logger.Int("duplicates", cfg.Duplicates),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	r := &runner{cfg: cfg, client: client, stats: stats, log: log}

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}

	// Step 2: Generate athletes and screenshots
	gen := newGenerator(cfg.Seed, time.Now())
	athletes := gen.athletes(cfg.AthletePref, cfg.Athletes)
	subs := gen.submissions(athletes, cfg.PerAthlete)
	stats.Generated = len(subs)

	// Step 3: Connect a wallet per athlete
	if err := r.connectWallets(ctx, athletes); err != nil {
		return stats, err
	}

	// Step 4: Extract and submit concurrently, then replay duplicates
	accepted := r.submit(ctx, subs)
	r.replay(ctx, subs[:cfg.Duplicates])

	// Step 5: Wait until accepted submissions leave the pending state
	if err := r.awaitProcessing(ctx, accepted); err != nil {
		return stats, err
	}

	// Step 6: Ranks and leaderboard
	ranks := r.ranks(ctx, athletes)
	board, err := client.Leaderboard(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(board)

	// Step 7: Verify ordering and rank agreement
	if err := Verify(board, ranks); err != nil {
		return stats, err
	}

	if cfg.OutputFile != "" {
		if err := saveSubmissions(cfg.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, log, stats)
	return stats, nil
}

type runner struct {
	cfg    Config
	client *Client
	stats  *Stats
	log    logger.Logger

	extracted sync.Map // submission id -> model.ExtractedActivityData
}

// forEach runs fn for every index in [0,n) on cfg.Workers goroutines.
func (r *runner) forEach(ctx context.Context, n int, fn func(i int)) {
	indices := make(chan int, r.cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if ctx.Err() != nil {
					continue
				}
				fn(i)
			}
		}()
	}
	for i := 0; i < n && ctx.Err() == nil; i++ {
		select {
		case <-ctx.Done():
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()
}

func (r *runner) connectWallets(ctx context.Context, athletes []string) error {
	var failed atomic.Int64
	r.forEach(ctx, len(athletes), func(i int) {
		if err := r.client.ConnectWallet(ctx, athletes[i]); err != nil {
			failed.Add(1)
			r.verbose(ctx, "wallet connect failed", athletes[i], err)
		}
	})
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d wallet connections failed", n)
	}
	r.log.Info(ctx, "wallets connected", logger.Int("count", len(athletes)))
	return ctx.Err()
}

// submit extracts and submits every submission and returns the accepted IDs.
func (r *runner) submit(ctx context.Context, subs []Submission) []string {
	var (
		mu       sync.Mutex
		accepted = make([]string, 0, len(subs))
		counts   [4]atomic.Int64 // accepted, duplicate, backpressure, failed
	)
	r.forEach(ctx, len(subs), func(i int) {
		s := subs[i]
		data, err := r.client.Extract(ctx, s.Text, s.Sport)
		if err != nil {
			counts[3].Add(1)
			r.verbose(ctx, "extract failed", s.SubmissionID, err)
			return
		}
		r.extracted.Store(s.SubmissionID, data)

		switch res, _ := r.send(ctx, s, data); res {
		case outcomeAccepted:
			counts[0].Add(1)
			mu.Lock()
			accepted = append(accepted, s.SubmissionID)
			mu.Unlock()
		case outcomeDuplicate:
			counts[1].Add(1)
		case outcomeBackpressure:
			counts[2].Add(1)
		default:
			counts[3].Add(1)
		}
	})

	r.stats.Submitted += len(subs)
	r.stats.Accepted += int(counts[0].Load())
	r.stats.Duplicate += int(counts[1].Load())
	r.stats.Backpressure += int(counts[2].Load())
	r.stats.Failed += int(counts[3].Load())

	r.log.Info(ctx, "submission completed",
		logger.Int("accepted", r.stats.Accepted),
		logger.Int("duplicate", r.stats.Duplicate),
		logger.Int("backpressure", r.stats.Backpressure),
		logger.Int("failed", r.stats.Failed))
	return accepted
}

// replay re-sends submissions with their original IDs; each should be
// answered as a duplicate.
func (r *runner) replay(ctx context.Context, subs []Submission) {
	if len(subs) == 0 {
		return
	}
	var dup, other atomic.Int64
	r.forEach(ctx, len(subs), func(i int) {
		s := subs[i]
		v, ok := r.extracted.Load(s.SubmissionID)
		if !ok {
			return
		}
		res, err := r.send(ctx, s, v.(model.ExtractedActivityData))
		if res == outcomeDuplicate {
			dup.Add(1)
			return
		}
		other.Add(1)
		r.verbose(ctx, "replay not reported as duplicate", s.SubmissionID, err)
	})
	r.stats.Submitted += len(subs)
	r.stats.Duplicate += int(dup.Load())
	r.stats.Failed += int(other.Load())
	r.log.Info(ctx, "duplicates replayed", logger.Int("duplicate", int(dup.Load())), logger.Int("other", int(other.Load())))
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeAccepted
	outcomeDuplicate
	outcomeBackpressure
)

func (r *runner) send(ctx context.Context, s Submission, data model.ExtractedActivityData) (outcome, error) {
	receipt, err := r.client.Submit(ctx, s, data)
	if err != nil {
		var herr *HTTPError
		if errors.As(err, &herr) && herr.StatusCode == http.StatusTooManyRequests {
			return outcomeBackpressure, err
		}
		return outcomeFailed, err
	}
	if receipt.Duplicate {
		return outcomeDuplicate, nil
	}
	return outcomeAccepted, nil
}

// awaitProcessing polls submission status until nothing is pending.
func (r *runner) awaitProcessing(ctx context.Context, ids []string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Wait)
	defer cancel()

	pending := ids
	ticker := time.NewTicker(r.cfg.PollEvery)
	defer ticker.Stop()
	for {
		var (
			mu   sync.Mutex
			next []string
		)
		r.forEach(ctx, len(pending), func(i int) {
			st, err := r.client.Submission(ctx, pending[i])
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil || st.Status == "pending":
				next = append(next, pending[i])
			case st.Status == "processed":
				r.stats.Processed++
			default:
				r.stats.ProcessingFailed++
				r.verbose(ctx, "submission failed", pending[i], errors.New(st.Error))
			}
		})
		if ctx.Err() != nil {
			return fmt.Errorf("waiting for %d submissions: %w", len(pending), ctx.Err())
		}
		pending = next
		if len(pending) == 0 {
			r.log.Info(ctx, "submissions processed",
				logger.Int("processed", r.stats.Processed),
				logger.Int("failed", r.stats.ProcessingFailed))
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%d submissions still pending: %w", len(pending), ctx.Err())
		case <-ticker.C:
		}
	}
}

// ranks fetches every athlete's rank; athletes without one are skipped.
func (r *runner) ranks(ctx context.Context, athletes []string) map[string]Entry {
	var mu sync.Mutex
	out := make(map[string]Entry, len(athletes))
	r.forEach(ctx, len(athletes), func(i int) {
		e, err := r.client.Rank(ctx, athletes[i])
		if err != nil {
			r.verbose(ctx, "rank lookup failed", athletes[i], err)
			return
		}
		mu.Lock()
		out[athletes[i]] = e
		mu.Unlock()
	})
	r.stats.RanksRetrieved = len(out)
	return out
}

func (r *runner) verbose(ctx context.Context, msg, id string, err error) {
	if r.cfg.Verbose {
		r.log.Warn(ctx, msg, logger.String("id", id), logger.Error(err))
	}
}

// saveSubmissions writes the generated submissions as a JSON array.
func saveSubmissions(path string, subs []Submission) error {
	if len(subs) == 0 {
		return ErrNothingToSave
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	buf, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submissions: %w", err)
	}
	return os.WriteFile(path, buf, filePermission)
}

func logFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("backpressure", stats.Backpressure),
		logger.Int("failed", stats.Failed),
		logger.Int("processed", stats.Processed),
		logger.Int("processingFailed", stats.ProcessingFailed),
		logger.Int("ranksRetrieved", stats.RanksRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("submissionsPerSecond", perSecond))
}
