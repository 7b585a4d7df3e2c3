// Package worker verifies queued submissions and pays out their rewards.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sportid/internal/domain/model"
	"github.com/okian/sportid/internal/domain/rewards"
	"github.com/okian/sportid/pkg/logger"
	"github.com/okian/sportid/pkg/metrics"
)

const defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()

// Submission is what workers read off the queue.
type Submission = model.Submission

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Submission
}

// Verifier confirms a submission on the athlete's wallet.
type Verifier interface {
	Verify(ctx context.Context, s Submission) error
}

// Rewarder computes the payout for a verified activity.
type Rewarder interface {
	Reward(ctx context.Context, in rewards.Input) (rewards.Result, error)
}

// Recorder applies the outcome of a submission.
type Recorder interface {
	// Record persists a verified, rewarded submission.
	Record(ctx context.Context, s Submission, r rewards.Result) error
	// Fail notes that a submission could not be processed.
	Fail(ctx context.Context, s Submission, err error)
}

// Worker processes submissions until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	verifier Verifier
	rewarder Rewarder
	recorder Recorder
	name     string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	processed *atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, verifier Verifier, rewarder Rewarder, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		verifier:  verifier,
		rewarder:  rewarder,
		recorder:  recorder,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		processed: new(atomic.Int64),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ch := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-ch:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Warn(ctx, "submission failed",
					logger.String("submission_id", s.SubmissionID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many submissions this worker rewarded.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, s Submission) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.verifier.Verify(ctx, s); err != nil {
		return w.fail(ctx, s, "verify_error", fmt.Errorf("verify submission %s: %w", s.SubmissionID, err))
	}

	in := rewards.Input{
		AthleteID:       s.AthleteID,
		Sport:           s.Sport(),
		DurationMinutes: s.DurationMinutes(),
	}
	if s.Data.Distance != nil {
		in.DistanceKm = *s.Data.Distance
	}

	res, err := w.rewarder.Reward(ctx, in)
	if err != nil {
		return w.fail(ctx, s, "reward_error", fmt.Errorf("reward submission %s: %w", s.SubmissionID, err))
	}
	metrics.RecordVerifyLatency(float64(res.Latency.Milliseconds()))

	if err := w.recorder.Record(ctx, s, res); err != nil {
		return w.fail(ctx, s, "record_error", fmt.Errorf("record submission %s: %w", s.SubmissionID, err))
	}

	w.processed.Add(1)
	metrics.RecordSubmissionProcessed()
	metrics.RecordXPAwarded(string(in.Sport), res.XP)
	w.logger.Debug(ctx, "submission rewarded",
		logger.String("submission_id", s.SubmissionID),
		logger.String("athlete_id", s.AthleteID),
		logger.Int("xp", res.XP),
	)
	return nil
}

func (w *InMemoryWorker) fail(ctx context.Context, s Submission, kind string, err error) error { //nolint:gocritic // hugeParam
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", kind)
	w.recorder.Fail(ctx, s, err)
	return err
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 uses twice the CPU count.
func NewPool(workerCount int, queue Queue, verifier Verifier, rewarder Rewarder, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(queue, verifier, rewarder, recorder,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many submissions the pool rewarded.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Shutdown closes the queue and lets workers drain it. Workers still busy
// when ctx ends are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			timedOut = true
			w.shutdownOnce.Do(func() { close(w.shutdown) })
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
	return nil
}
