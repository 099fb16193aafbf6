package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"agriweather/backend/services/trigger-service/internal/jobs"
)

// JobRunner executes a single job run.
type JobRunner interface {
	Run(ctx context.Context, job jobs.Job) error
}

// Scheduler fires jobs on their cron schedules. At most one run of a job is
// in flight; a scheduled tick or manual trigger arriving meanwhile is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner JobRunner
	logger *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	jobs    map[string]jobs.Job
	running map[string]bool
	stopped bool
	pending sync.WaitGroup
}

// New creates a scheduler in UTC.
func New(runner JobRunner, logger *zap.Logger) *Scheduler {
	cl := NewCronLogger(logger)
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:    make(map[string]jobs.Job),
		running: make(map[string]bool),
	}
}

// Add schedules job.
func (s *Scheduler) Add(job jobs.Job) error {
	_, err := s.cron.AddFunc(job.Schedule, func() {
		if err := s.begin(job.Name); err != nil {
			s.logger.Info("scheduled run skipped", zap.String("job", job.Name), zap.Error(err))
			return
		}
		defer s.finish(job.Name)
		s.logger.Debug("running job", zap.String("job", job.Name))
		_ = s.runner.Run(s.ctx, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name, err)
	}
	s.mu.Lock()
	s.jobs[job.Name] = job
	s.mu.Unlock()
	s.logger.Info("job scheduled",
		zap.String("job", job.Name),
		zap.String("schedule", job.Schedule),
		zap.String("url", job.URL),
	)
	return nil
}

// Trigger starts an out-of-schedule run of a scheduled job and returns
// without waiting for it.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", jobs.ErrUnknownJob, name)
	}
	if err := s.beginLocked(name); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pending.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.pending.Done()
		defer s.finish(name)
		_ = s.runner.Run(s.ctx, job)
	}()
	return nil
}

func (s *Scheduler) begin(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginLocked(name)
}

func (s *Scheduler) beginLocked(name string) error {
	if s.stopped {
		return jobs.ErrStopped
	}
	if s.running[name] {
		return fmt.Errorf("%w: %s", jobs.ErrJobRunning, name)
	}
	s.running[name] = true
	return nil
}

func (s *Scheduler) finish(name string) {
	s.mu.Lock()
	delete(s.running, name)
	s.mu.Unlock()
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Run starts the cron loop and blocks until ctx is done. In-flight runs
// are cancelled and awaited before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
	<-s.cron.Stop().Done()
	s.pending.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}
