package poller

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/ipp-client/internal/types"
)

// State is the lifecycle state of a Handle.
type State int

// Handle states.
const (
	StateIdle State = iota
	StatePolling
	StateCompleted
	StateFailed
	StateCancelled
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the job itself finished (completed or failed), as
// opposed to the client giving up on it.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Handle is a running or finished poll of one job.
type Handle struct {
	id     uuid.UUID
	jobID  int64
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state State
	last  *types.AnalysisJob
	err   error
}

// finishedHandle returns a handle that is already in a terminal state.
func finishedHandle(jobID int64, state State, job *types.AnalysisJob, err error) *Handle {
	h := &Handle{
		id:     uuid.New(),
		jobID:  jobID,
		cancel: func() {},
		done:   make(chan struct{}),
		state:  state,
		last:   job,
		err:    err,
	}
	close(h.done)
	return h
}

// ID identifies this handle in logs.
func (h *Handle) ID() uuid.UUID { return h.id }

// JobID returns the polled job id.
func (h *Handle) JobID() int64 { return h.jobID }

// Cancel stops polling. It is safe to call more than once and after completion.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed once the handle reaches a final state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// State returns the current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Last returns the most recently observed job, or nil.
func (h *Handle) Last() *types.AnalysisJob {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Err returns the final error: nil for completed jobs, *JobFailedError, ErrTimeout
// or ErrCancelled otherwise. It is nil while polling.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the handle finishes or ctx is done. For completed jobs it returns
// the full job payload.
func (h *Handle) Wait(ctx context.Context) (*types.AnalysisJob, error) {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.last, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Handle) observe(job *types.AnalysisJob) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = job
}

// settle records the final state. The caller closes done.
func (h *Handle) settle(state State, job *types.AnalysisJob, err error) {
	h.mu.Lock()
	h.state = state
	if job != nil {
		h.last = job
	}
	h.err = err
	h.mu.Unlock()
	h.cancel()
}
