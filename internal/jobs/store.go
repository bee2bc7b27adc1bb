// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/form019-finder/internal/logger"
)

// Store persists job state. Update applies fn to a copy of the job and saves
// the copy only when fn returns nil; it returns the saved state.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Update(ctx context.Context, id string, fn func(*Job) error) (Job, error)
	Get(ctx context.Context, id string) (Job, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps jobs in a map guarded by one mutex. The lock covers a
// single read or write and is never held across I/O.
type MemoryStore struct {
	mu        sync.Mutex
	jobs      map[string]*Job
	retention time.Duration
	now       func() time.Time
}

// NewMemoryStore creates an in-memory store. Finished jobs older than
// retention are removed by Sweep; zero keeps them forever.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		jobs:      make(map[string]*Job),
		retention: retention,
		now:       time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return ErrDuplicateJob
	}
	s.jobs[job.ID] = job.clone()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn func(*Job) error) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	next := j.clone()
	if err := fn(next); err != nil {
		return *j.clone(), err
	}
	s.jobs[id] = next
	return *next.clone(), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *j.clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

// Len returns the number of stored jobs
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Sweep removes finished jobs that have outlived the retention period and
// returns how many were removed. Running jobs are never removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, j := range s.jobs {
		if j.expired(now, s.retention) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is cancelled
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 || s.retention <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Printf("Job janitor: evicted %d finished job(s)", n)
			}
		}
	}
}
