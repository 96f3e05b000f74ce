// Package poller watches remote analysis jobs until they reach a terminal state.
//
// Each job is polled by one goroutine driven by a ticker from an injected clock. The
// first status request is issued one interval after Start. Transport errors are logged
// and retried on the next tick; completed and failed statuses stop the ticker and are
// reported exactly once through the Handle.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/jonathan/ipp-client/internal/logging"
	"github.com/jonathan/ipp-client/internal/types"
)

// DefaultInterval is the time between status requests.
const DefaultInterval = 500 * time.Millisecond

// StatusFetcher reads the current state of a job. *api.Client implements it.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, jobID int64) (*types.AnalysisJob, error)
}

// Update is a non-terminal progress report.
type Update struct {
	JobID   int64
	Status  types.JobStatus
	Step    string
	Message string
	Percent float64
}

// Poller creates polling handles. It holds no per-job state and is safe for
// concurrent use.
type Poller struct {
	fetcher     StatusFetcher
	clock       clockwork.Clock
	interval    time.Duration
	maxAttempts int
	onUpdate    func(Update)
	logger      *slog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock injects the clock.
func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithInterval overrides DefaultInterval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxAttempts stops polling with ErrTimeout after n status requests. Zero means
// no limit.
func WithMaxAttempts(n int) Option {
	return func(p *Poller) { p.maxAttempts = n }
}

// WithOnUpdate registers a callback for pending/processing statuses. It runs on the
// polling goroutine and must not block.
func WithOnUpdate(fn func(Update)) Option {
	return func(p *Poller) { p.onUpdate = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// New creates a Poller reading statuses from fetcher.
func New(fetcher StatusFetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		clock:    clockwork.NewRealClock(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrDiscard(p.logger)
	return p
}

// Interval returns the configured polling interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start begins polling jobID. Cancelling ctx or the returned handle stops it.
func (p *Poller) Start(ctx context.Context, jobID int64) *Handle {
	return p.start(ctx, jobID, nil)
}

func (p *Poller) start(ctx context.Context, jobID int64, onFinish func(*Handle)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		id:     uuid.New(),
		jobID:  jobID,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  StatePolling,
	}
	p.logger.Debug("poller.start", "job_id", jobID, "handle", h.id, "interval", p.interval)
	go p.run(ctx, h, onFinish)
	return h
}

func (p *Poller) run(ctx context.Context, h *Handle, onFinish func(*Handle)) {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	finish := func(state State, job *types.AnalysisJob, err error) {
		h.settle(state, job, err)
		p.logger.Debug("poller.finish", "job_id", h.jobID, "handle", h.id, "state", state.String())
		if onFinish != nil {
			onFinish(h)
		}
		close(h.done)
	}

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			finish(StateCancelled, nil, ErrCancelled)
			return
		case <-ticker.Chan():
		}
		// A tick and a cancel can be ready together; cancel wins.
		if ctx.Err() != nil {
			finish(StateCancelled, nil, ErrCancelled)
			return
		}

		attempts++
		job, err := p.fetcher.FetchStatus(ctx, h.jobID)
		switch {
		case err != nil && ctx.Err() != nil:
			finish(StateCancelled, nil, ErrCancelled)
			return
		case err != nil:
			p.logger.Debug("poller.fetch.retry", "job_id", h.jobID, "attempt", attempts, "error", err)
		case job.Status == types.JobStatusCompleted:
			finish(StateCompleted, job, nil)
			return
		case job.Status == types.JobStatusFailed:
			finish(StateFailed, job, &JobFailedError{JobID: h.jobID, Message: job.ErrorMessage})
			return
		default:
			h.observe(job)
			if p.onUpdate != nil {
				p.onUpdate(Update{
					JobID:   h.jobID,
					Status:  job.Status,
					Step:    job.ProgressStep,
					Message: job.ProgressMessage,
					Percent: types.ProgressPercent(job.ProgressStep, job.Status),
				})
			}
		}

		if p.maxAttempts > 0 && attempts >= p.maxAttempts {
			finish(StateTimedOut, h.Last(), ErrTimeout)
			return
		}
	}
}

// Errors reported by Handle.Wait.
var (
	ErrCancelled = errors.New("polling cancelled")
	ErrTimeout   = errors.New("analysis is taking longer than expected")
)

// JobFailedError is the terminal error of a job the backend marked failed.
type JobFailedError struct {
	JobID   int64
	Message string // error_message from the backend, verbatim
}

func (e *JobFailedError) Error() string {
	if e.Message == "" {
		return "Analysis failed"
	}
	return e.Message
}
