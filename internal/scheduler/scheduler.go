// Package scheduler runs the fixed-interval jobs that drive derived state
// and tactical detection. It is the only component that initiates periodic
// work; ingestion and queries stay on-demand.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/pkg/logger"
	"github.com/vardaan112/PelotonIQ-sub001/pkg/metrics"
)

const stopTimeout = 5 * time.Second

// Job is one named fixed-interval task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

func (j *Job) validate() error {
	switch {
	case j.Name == "":
		return fmt.Errorf("%w: empty job name", ErrInvalidJob)
	case j.Interval <= 0:
		return fmt.Errorf("%w: job %q interval must be positive", ErrInvalidJob, j.Name)
	case j.Run == nil:
		return fmt.Errorf("%w: job %q has no run function", ErrInvalidJob, j.Name)
	}
	return nil
}

// Scheduler drives a set of jobs with an explicit start/stop lifecycle.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []Job
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	log     logger.Logger
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a scheduler with configuration options.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{stopCh: make(chan struct{})}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a job before Start. Malformed jobs fail fast.
func (s *Scheduler) Add(job Job) error {
	if err := job.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("%w: scheduler already started", ErrInvalidJob)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Start launches one ticker loop per job. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	if s.log == nil {
		s.log = logger.Get().Named("scheduler")
	}
	s.started = true

	for i := range s.jobs {
		job := s.jobs[i]
		s.wg.Add(1)
		go s.runLoop(ctx, job)
	}
	s.log.Info(ctx, "scheduler started", logger.Int("jobs", len(s.jobs)))
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runOnce(ctx, &job)
		}
	}
}

// runOnce executes a single tick, recovering panics so one bad cycle cannot
// kill the loop for the rest of the race.
func (s *Scheduler) runOnce(ctx context.Context, job *Job) {
	start := time.Now()
	defer func() {
		metrics.RecordTickDuration(job.Name, time.Since(start).Seconds())
		if r := recover(); r != nil {
			metrics.RecordTickError(job.Name)
			s.log.Error(ctx, "job panicked",
				logger.String("job", job.Name),
				logger.Any("panic", r),
			)
		}
	}()

	if err := job.Run(ctx); err != nil {
		metrics.RecordTickError(job.Name)
		s.log.Error(ctx, "job failed",
			logger.String("job", job.Name),
			logger.Error(err),
		)
	}
}

// Stop halts all job loops and waits briefly for in-flight ticks.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		s.log.Warn(context.Background(), "scheduler stop timed out")
	}
}
