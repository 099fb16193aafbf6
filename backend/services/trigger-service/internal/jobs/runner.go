package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	// ErrRetriesExhausted is returned when every attempt of a run failed.
	ErrRetriesExhausted = errors.New("jobs: retries exhausted")
	// ErrCircuitOpen is returned when the job's breaker rejects the call.
	ErrCircuitOpen = errors.New("jobs: circuit breaker open")
	// ErrUnknownJob is returned for a name no job is registered under.
	ErrUnknownJob = errors.New("jobs: unknown job")
	// ErrJobRunning is returned when a run of the same job is in flight.
	ErrJobRunning = errors.New("jobs: job already running")
	// ErrStopped is returned for runs requested after shutdown began.
	ErrStopped = errors.New("jobs: scheduler stopped")
)

// TokenFunc issues a bearer token for outgoing calls.
type TokenFunc func() (string, error)

// BreakerSettings tunes the per-job circuit breaker.
type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Runner executes jobs with fixed-delay retries behind a circuit breaker.
type Runner struct {
	client   *http.Client
	token    TokenFunc
	breaker  BreakerSettings
	registry *Registry
	logger   *zap.Logger
	now      func() time.Time
	wait     func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewRunner returns job runner. token may be nil.
func NewRunner(client *http.Client, token TokenFunc, breaker BreakerSettings, registry *Registry, logger *zap.Logger) *Runner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if breaker.FailureThreshold == 0 {
		breaker.FailureThreshold = 5
	}
	if breaker.OpenTimeout <= 0 {
		breaker.OpenTimeout = time.Minute
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Runner{
		client:   client,
		token:    token,
		breaker:  breaker,
		registry: registry,
		logger:   logger,
		now:      time.Now,
		wait:     sleepContext,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Register makes a job visible in the status registry before its first run.
func (r *Runner) Register(job Job) {
	r.registry.Register(job)
}

// Registry exposes run statuses.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run performs one scheduled execution of job. It makes up to 1+Retries
// attempts spaced by RetryDelay and records the outcome.
func (r *Runner) Run(ctx context.Context, job Job) error {
	cb := r.breakerFor(job.Name)
	attempts := 0
	var lastErr error

	for attempt := 0; attempt <= job.Retries; attempt++ {
		if attempt > 0 {
			if err := r.wait(ctx, job.RetryDelay); err != nil {
				lastErr = err
				break
			}
		}
		attempts++
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, r.call(ctx, job)
		})
		if err == nil {
			r.registry.RecordSuccess(job.Name, r.now(), attempts)
			r.logger.Info("job succeeded",
				zap.String("job", job.Name),
				zap.Int("attempts", attempts),
			)
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%s: %w", job.Name, ErrCircuitOpen)
			r.registry.RecordFailure(job.Name, r.now(), attempts, err)
			r.logger.Warn("job skipped, circuit open", zap.String("job", job.Name))
			return err
		}
		lastErr = err
		r.logger.Warn("job attempt failed",
			zap.String("job", job.Name),
			zap.Int("attempt", attempts),
			zap.Error(err),
		)
	}

	err := fmt.Errorf("%s: %w after %d attempts: %w", job.Name, ErrRetriesExhausted, attempts, lastErr)
	r.registry.RecordFailure(job.Name, r.now(), attempts, err)
	r.logger.Error("job failed", zap.String("job", job.Name), zap.Error(err))
	return err
}

func (r *Runner) call(ctx context.Context, job Job) error {
	var body io.Reader
	if job.Body != "" {
		body = strings.NewReader(job.Body)
	}
	req, err := http.NewRequestWithContext(ctx, job.Method, job.URL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if job.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != nil {
		token, err := r.token()
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (r *Runner) breakerFor(name string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	threshold := r.breaker.FailureThreshold
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     r.breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Info("circuit breaker state change",
				zap.String("job", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	r.breakers[name] = cb
	return cb
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
