package jobs

import (
	"errors"
	"sync"
	"time"

	"fewknow/internal/types"
)

var (
	// ErrNotFound means the job ID has never been seen or was swept.
	ErrNotFound = errors.New("job not found")
	// ErrExpired means the job finished but its result passed its TTL.
	ErrExpired = errors.New("job result expired")
)

type resultEntry struct {
	result    *types.AnalysisResult
	expiresAt time.Time
}

// Store keeps job statuses and terminal results in memory. Results
// carry a TTL; expired entries are evicted lazily on fetch and by
// SweepExpired, which the pipeline runs on each submission.
type Store struct {
	mu       sync.Mutex
	statuses map[string]types.JobStatus
	results  map[string]resultEntry
	now      func() time.Time
}

// NewStore creates an empty job store
func NewStore() *Store {
	return &Store{
		statuses: make(map[string]types.JobStatus),
		results:  make(map[string]resultEntry),
		now:      time.Now,
	}
}

// RecordStatus upserts the current status of a job.
func (s *Store) RecordStatus(st types.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[st.JobID] = st
}

// Status returns the current status of a job.
func (s *Store) Status(jobID string) (types.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.statuses[jobID]
	if !ok {
		return types.JobStatus{}, ErrNotFound
	}
	return st, nil
}

// StoreResult records a terminal result with the given TTL.
func (s *Store) StoreResult(jobID string, res *types.AnalysisResult, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[jobID] = resultEntry{
		result:    res,
		expiresAt: s.now().Add(ttl),
	}
}

// FetchResult returns a job's terminal result. An expired result is
// evicted on access and reported as ErrExpired exactly once; later
// fetches see ErrNotFound.
func (s *Store) FetchResult(jobID string) (*types.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.results[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.results, jobID)
		delete(s.statuses, jobID)
		return nil, ErrExpired
	}
	return e.result, nil
}

// SweepExpired removes expired results and their statuses, returning
// the number of jobs evicted. In-flight jobs have no result entry and
// are never swept.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for id, e := range s.results {
		if now.After(e.expiresAt) {
			delete(s.results, id)
			delete(s.statuses, id)
			evicted++
		}
	}
	return evicted
}
