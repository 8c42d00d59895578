package jobs

import (
	"errors"
	"testing"
	"time"

	"fewknow/internal/types"
)

func TestStoreStatusLifecycle(t *testing.T) {
	s := NewStore()

	if _, err := s.Status("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Status(missing) = %v, want ErrNotFound", err)
	}

	s.RecordStatus(types.JobStatus{JobID: "j1", Status: types.StatusPending, Progress: "0%"})
	s.RecordStatus(types.JobStatus{JobID: "j1", Status: types.StatusProcessing, Progress: "25%"})

	st, err := s.Status("j1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Status != types.StatusProcessing || st.Progress != "25%" {
		t.Errorf("status = %+v, want processing/25%%", st)
	}
}

func TestStoreResultTTL(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	res := &types.AnalysisResult{JobID: "j1", Status: types.StatusCompleted, Ticker: "NVDA"}
	s.RecordStatus(types.JobStatus{JobID: "j1", Status: types.StatusCompleted})
	s.StoreResult("j1", res, 24*time.Hour)

	got, err := s.FetchResult("j1")
	if err != nil || got.Ticker != "NVDA" {
		t.Fatalf("FetchResult = %v, %v", got, err)
	}

	// Jump past the TTL: first fetch reports expiry and evicts.
	now = now.Add(25 * time.Hour)
	if _, err := s.FetchResult("j1"); !errors.Is(err, ErrExpired) {
		t.Fatalf("FetchResult after TTL = %v, want ErrExpired", err)
	}
	if _, err := s.FetchResult("j1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second fetch = %v, want ErrNotFound", err)
	}
	if _, err := s.Status("j1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("status after eviction = %v, want ErrNotFound", err)
	}
}

func TestSweepExpired(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	s.RecordStatus(types.JobStatus{JobID: "done", Status: types.StatusCompleted})
	s.StoreResult("done", &types.AnalysisResult{JobID: "done"}, time.Hour)
	s.RecordStatus(types.JobStatus{JobID: "fresh", Status: types.StatusCompleted})
	s.StoreResult("fresh", &types.AnalysisResult{JobID: "fresh"}, 48*time.Hour)
	// In-flight job: status only, no result envelope.
	s.RecordStatus(types.JobStatus{JobID: "running", Status: types.StatusProcessing})

	now = now.Add(2 * time.Hour)
	if evicted := s.SweepExpired(); evicted != 1 {
		t.Fatalf("SweepExpired = %d, want 1", evicted)
	}

	if _, err := s.Status("done"); !errors.Is(err, ErrNotFound) {
		t.Error("expired job status survived sweep")
	}
	if _, err := s.Status("fresh"); err != nil {
		t.Error("unexpired job was swept")
	}
	if _, err := s.Status("running"); err != nil {
		t.Error("in-flight job was swept")
	}
}
