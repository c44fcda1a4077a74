// internal/api/job/store.go
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/vcpscan/internal/core"
)

// Status represents job status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Job represents an async scan or backtest run.
type Job struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Status    Status      `json:"status"`
	Result    any         `json:"result,omitempty"`
	Error     *core.Error `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Store manages async jobs.
type Store struct {
	jobs    map[string]*Job
	order   []string // insertion order for eviction
	maxSize int
	ttl     time.Duration
	mu      sync.RWMutex
}

// NewStore creates a new job store.
func NewStore(maxSize int, ttl time.Duration) *Store {
	return &Store{
		jobs:    make(map[string]*Job),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Create registers a new pending job and returns a snapshot of it.
func (s *Store) Create(jobType string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Evict oldest if at capacity
	if len(s.jobs) >= s.maxSize && len(s.order) > 0 {
		oldest := s.order[0]
		delete(s.jobs, oldest)
		s.order = s.order[1:]
	}

	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)

	snapshot := *job
	return &snapshot
}

// Get retrieves a job by ID, expiring entries past their TTL. It
// returns a snapshot, never the live job: callers encode the result
// outside the lock while worker goroutines keep updating the store.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, core.ErrJobNotFound
	}
	if s.ttl > 0 && time.Since(job.UpdatedAt) > s.ttl {
		delete(s.jobs, id)
		return nil, core.ErrJobNotFound
	}

	snapshot := *job
	return &snapshot, nil
}

// SetRunning marks a job running.
func (s *Store) SetRunning(id string) {
	s.update(id, func(j *Job) {
		j.Status = StatusRunning
	})
}

// SetComplete stores the result and marks the job complete.
func (s *Store) SetComplete(id string, result any) {
	s.update(id, func(j *Job) {
		j.Status = StatusComplete
		j.Result = result
	})
}

// SetFailed stores the error and marks the job failed.
func (s *Store) SetFailed(id string, err *core.Error) {
	s.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.Error = err
	})
}

func (s *Store) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
		job.UpdatedAt = time.Now()
	}
}
