package jobs

import (
	"sort"
	"sync"
	"time"
)

// Status is the run history summary of one job.
type Status struct {
	Name                string    `json:"name"`
	Schedule            string    `json:"schedule"`
	Runs                int       `json:"runs"`
	LastRun             time.Time `json:"last_run,omitempty"`
	LastSuccess         time.Time `json:"last_success,omitempty"`
	LastAttempts        int       `json:"last_attempts"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// Registry records job outcomes. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Status
}

// NewRegistry returns empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Status)}
}

// Register adds a job with no runs yet.
func (r *Registry) Register(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.Name]; !ok {
		r.jobs[job.Name] = &Status{Name: job.Name, Schedule: job.Schedule}
	}
}

// RecordSuccess stores a successful run.
func (r *Registry) RecordSuccess(name string, at time.Time, attempts int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.entry(name)
	s.Runs++
	s.LastRun = at
	s.LastSuccess = at
	s.LastAttempts = attempts
	s.LastError = ""
	s.ConsecutiveFailures = 0
}

// RecordFailure stores a failed run.
func (r *Registry) RecordFailure(name string, at time.Time, attempts int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.entry(name)
	s.Runs++
	s.LastRun = at
	s.LastAttempts = attempts
	s.LastError = err.Error()
	s.ConsecutiveFailures++
}

// Get returns one job status.
func (r *Registry) Get(name string) (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.jobs[name]
	if !ok {
		return Status{}, false
	}
	return *s, true
}

// Snapshot returns all statuses ordered by name.
func (r *Registry) Snapshot() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.jobs))
	for _, s := range r.jobs {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) entry(name string) *Status {
	s, ok := r.jobs[name]
	if !ok {
		s = &Status{Name: name}
		r.jobs[name] = s
	}
	return s
}
