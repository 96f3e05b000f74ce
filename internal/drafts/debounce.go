package drafts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jonathan/ipp-client/internal/logging"
	"github.com/jonathan/ipp-client/internal/types"
)

// DefaultDelay is the quiet period before a draft is written.
const DefaultDelay = 1000 * time.Millisecond

// Debouncer coalesces rapid Save calls into one write per form after the delay
// elapses without further changes. Last write wins: writes of one form are
// serialized, so an older write never lands after a newer one.
type Debouncer struct {
	store  Store
	clock  clockwork.Clock
	delay  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]types.Responses
	timers  map[string]clockwork.Timer
	gens    map[string]uint64      // bumped whenever a form's timer is replaced or stopped
	writing map[string]*sync.Mutex // held across store writes of one form

	inflight sync.WaitGroup
}

// DebouncerOption configures a Debouncer.
type DebouncerOption func(*Debouncer)

// WithClock injects the clock (tests use clockwork.NewFakeClock).
func WithClock(c clockwork.Clock) DebouncerOption {
	return func(d *Debouncer) { d.clock = c }
}

// WithDelay overrides DefaultDelay.
func WithDelay(delay time.Duration) DebouncerOption {
	return func(d *Debouncer) { d.delay = delay }
}

// WithLogger sets the logger used for background write failures.
func WithLogger(l *slog.Logger) DebouncerOption {
	return func(d *Debouncer) { d.logger = l }
}

// NewDebouncer wraps store.
func NewDebouncer(store Store, opts ...DebouncerOption) *Debouncer {
	d := &Debouncer{
		store:   store,
		clock:   clockwork.NewRealClock(),
		delay:   DefaultDelay,
		pending: make(map[string]types.Responses),
		timers:  make(map[string]clockwork.Timer),
		gens:    make(map[string]uint64),
		writing: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.OrDiscard(d.logger)
	return d
}

// Save schedules a write of responses, resetting any timer already pending for formID.
// The map is copied, so callers may keep mutating theirs.
func (d *Debouncer) Save(formID string, responses types.Responses) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[formID] = responses.Clone()
	if t, ok := d.timers[formID]; ok {
		t.Stop()
	}
	d.gens[formID]++
	gen := d.gens[formID]
	d.timers[formID] = d.clock.AfterFunc(d.delay, func() {
		d.fire(formID, gen)
	})
}

// fire runs when the timer armed for generation gen expires. A timer that lost a race
// with a newer Save, Flush or Discard does nothing.
func (d *Debouncer) fire(formID string, gen uint64) {
	d.mu.Lock()
	if d.gens[formID] != gen {
		d.mu.Unlock()
		return
	}
	delete(d.timers, formID)
	d.inflight.Add(1)
	d.mu.Unlock()

	defer d.inflight.Done()
	_ = d.write(context.Background(), formID)
}

// Load returns the stored draft. A pending unwritten save is not visible until it fires
// or Flush is called.
func (d *Debouncer) Load(ctx context.Context, formID string) (types.Responses, error) {
	return d.store.Load(ctx, formID)
}

// Pending reports whether formID has an unwritten save.
func (d *Debouncer) Pending(formID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[formID]
	return ok
}

// Flush writes every pending draft immediately and waits for background writes
// already under way, so the store can be closed once it returns.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
		d.gens[id]++
	}
	ids := make([]string, 0, len(d.pending))
	for id := range d.pending {
		ids = append(ids, id)
	}
	d.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := d.write(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.inflight.Wait()
	return firstErr
}

// Discard drops any pending save for formID and clears the stored draft.
func (d *Debouncer) Discard(ctx context.Context, formID string) error {
	d.mu.Lock()
	if t, ok := d.timers[formID]; ok {
		t.Stop()
	}
	delete(d.timers, formID)
	delete(d.pending, formID)
	d.gens[formID]++
	d.mu.Unlock()

	l := d.formLock(formID)
	l.Lock()
	defer l.Unlock()
	return d.store.Clear(ctx, formID)
}

func (d *Debouncer) formLock(formID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.writing[formID]
	if !ok {
		l = &sync.Mutex{}
		d.writing[formID] = l
	}
	return l
}

// write stores the pending draft of formID. The pending value is taken only once
// the form's write lock is held, so the newest value is always written last.
func (d *Debouncer) write(ctx context.Context, formID string) error {
	l := d.formLock(formID)
	l.Lock()
	defer l.Unlock()

	d.mu.Lock()
	responses, ok := d.pending[formID]
	delete(d.pending, formID)
	d.mu.Unlock()
	if !ok {
		return nil
	}

	if err := d.store.Save(ctx, formID, responses); err != nil {
		d.logger.Warn("drafts.save.failed", "form_id", formID, "error", err)
		return err
	}
	d.logger.Debug("drafts.save", "form_id", formID, "fields", len(responses))
	return nil
}
