package jobs

import (
	"context"
	"sync"

	"fewknow/internal/logger"
	"fewknow/internal/types"
)

// Event is one message pushed to a job's listener: a progress update,
// a failure notice, or the terminal result.
type Event struct {
	Type   string                `json:"type"` // "status" | "error" | "result"
	Status *types.JobStatus      `json:"status,omitempty"`
	Error  string                `json:"error,omitempty"`
	Result *types.AnalysisResult `json:"result,omitempty"`
}

// Listener receives pushed events for a single job.
type Listener interface {
	Send(event Event) error
}

// Publisher pushes job events to at most one listener per job. A new
// registration for the same job replaces the previous listener. All
// sends happen under the publisher lock so a replay can never
// interleave with a live update.
type Publisher struct {
	mu        sync.Mutex
	listeners map[string]Listener
	store     *Store
}

// NewPublisher creates a publisher backed by the job store for replay
func NewPublisher(store *Store) *Publisher {
	return &Publisher{
		listeners: make(map[string]Listener),
		store:     store,
	}
}

// Register attaches a listener to a job, replacing any previous one,
// and replays the job's current state so a late subscriber does not
// miss a terminal outcome. Returns ErrNotFound for unknown jobs.
func (p *Publisher) Register(ctx context.Context, jobID string, l Listener) error {
	st, err := p.store.Status(jobID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.listeners[jobID] = l
	if err := l.Send(Event{Type: "status", Status: &st}); err != nil {
		delete(p.listeners, jobID)
		return nil
	}
	if st.Status.Terminal() {
		if res, err := p.store.FetchResult(jobID); err == nil {
			if err := l.Send(Event{Type: "result", Result: res}); err != nil {
				delete(p.listeners, jobID)
				return nil
			}
		}
	}

	logger.Debug(ctx, "Listener registered", "job_id", jobID)
	return nil
}

// Deregister detaches a listener. Identity-checked: a listener that
// was already replaced by a newer registration does not remove its
// successor.
func (p *Publisher) Deregister(jobID string, l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.listeners[jobID]; ok && current == l {
		delete(p.listeners, jobID)
	}
}

// PublishStatus pushes a progress update to the job's listener, if any.
func (p *Publisher) PublishStatus(ctx context.Context, st types.JobStatus) {
	p.publish(ctx, st.JobID, Event{Type: "status", Status: &st})
}

// PublishError pushes a failure notice to the job's listener, if any.
func (p *Publisher) PublishError(ctx context.Context, jobID, message string) {
	p.publish(ctx, jobID, Event{Type: "error", Error: message})
}

// PublishResult pushes the terminal result to the job's listener, if any.
func (p *Publisher) PublishResult(ctx context.Context, jobID string, res *types.AnalysisResult) {
	p.publish(ctx, jobID, Event{Type: "result", Result: res})
}

func (p *Publisher) publish(ctx context.Context, jobID string, ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.listeners[jobID]
	if !ok {
		return
	}
	if err := l.Send(ev); err != nil {
		logger.Warn(ctx, "Listener send failed, deregistering", "job_id", jobID, "error", err.Error())
		delete(p.listeners, jobID)
	}
}
