package poller

import (
	"context"
	"sync"

	"github.com/jonathan/ipp-client/internal/types"
)

// Registry keeps at most one active handle per logical key (a workflow stage) and
// per job id, and latches jobs that reached a terminal state so they are never polled
// again.
type Registry struct {
	poller *Poller

	mu      sync.Mutex
	active  map[string]*Handle
	byJob   map[int64]*Handle
	latched map[int64]*Handle
}

// NewRegistry creates a Registry starting handles with p.
func NewRegistry(p *Poller) *Registry {
	return &Registry{
		poller:  p,
		active:  make(map[string]*Handle),
		byJob:   make(map[int64]*Handle),
		latched: make(map[int64]*Handle),
	}
}

// Start cancels any handle active under key and begins polling jobID. A job already
// latched as terminal yields a finished handle and no status requests. A job already
// being polled under another key is moved to key and its live handle returned.
func (r *Registry) Start(ctx context.Context, key string, jobID int64) *Handle {
	return r.StartWith(ctx, r.poller, key, jobID)
}

// StartWith is Start using p for a newly started handle, so callers with their own
// interval or attempt cap still share the one-poller-per-job guarantee.
func (r *Registry) StartWith(ctx context.Context, p *Poller, key string, jobID int64) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, polling := r.byJob[jobID]
	if prev, ok := r.active[key]; ok && prev != live {
		prev.Cancel()
		delete(r.active, key)
		r.forgetJob(prev)
	}

	if h, ok := r.latched[jobID]; ok {
		return finishedHandle(jobID, h.State(), h.Last(), h.Err())
	}

	if polling {
		for k, h := range r.active {
			if h == live {
				delete(r.active, k)
			}
		}
		r.active[key] = live
		return live
	}

	h := p.start(ctx, jobID, r.onFinish)
	r.active[key] = h
	r.byJob[jobID] = h
	return h
}

// Active returns the handle currently registered for key, if any.
func (r *Registry) Active(key string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.active[key]
	return h, ok
}

// Cancel stops the handle registered for key.
func (r *Registry) Cancel(key string) {
	r.mu.Lock()
	h, ok := r.active[key]
	delete(r.active, key)
	if ok {
		r.forgetJob(h)
	}
	r.mu.Unlock()
	if ok {
		h.Cancel()
	}
}

// CancelAll stops every active handle.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	handles := make([]*Handle, 0, len(r.active))
	for key, h := range r.active {
		handles = append(handles, h)
		delete(r.active, key)
		r.forgetJob(h)
	}
	r.mu.Unlock()
	for _, h := range handles {
		h.Cancel()
	}
}

// Observe reconciles a job read outside the poller (for example the latest-status
// endpoint). A terminal job is latched; a non-terminal read of an already latched job
// is stale and the latched job is returned instead.
func (r *Registry) Observe(job *types.AnalysisJob) *types.AnalysisJob {
	if job == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.latched[job.ID]; ok {
		if last := h.Last(); last != nil {
			return last
		}
		return job
	}
	switch job.Status {
	case types.JobStatusCompleted:
		r.latched[job.ID] = finishedHandle(job.ID, StateCompleted, job, nil)
	case types.JobStatusFailed:
		r.latched[job.ID] = finishedHandle(job.ID, StateFailed, job, &JobFailedError{JobID: job.ID, Message: job.ErrorMessage})
	}
	return job
}

// Latched reports whether jobID reached a terminal state.
func (r *Registry) Latched(jobID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.latched[jobID]
	return ok
}

// Polling reports whether a live handle is polling jobID.
func (r *Registry) Polling(jobID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byJob[jobID]
	return ok
}

func (r *Registry) forgetJob(h *Handle) {
	if r.byJob[h.JobID()] == h {
		delete(r.byJob, h.JobID())
	}
}

func (r *Registry) onFinish(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h.State().IsTerminal() {
		r.latched[h.JobID()] = h
	}
	for key, active := range r.active {
		if active == h {
			delete(r.active, key)
		}
	}
	r.forgetJob(h)
}
