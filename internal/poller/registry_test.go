package poller

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ipp-client/internal/types"
)

func TestRegistry_NewJobCancelsPrior(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := newScriptedFetcher(status(types.JobStatusProcessing, ""))
	r := NewRegistry(New(f, WithClock(clock)))

	first := r.Start(context.Background(), "context", 1)
	second := r.Start(context.Background(), "context", 2)
	defer r.CancelAll()

	waitDone(t, first)
	assert.Equal(t, StateCancelled, first.State())
	assert.Equal(t, StatePolling, second.State())

	active, ok := r.Active("context")
	require.True(t, ok)
	assert.Same(t, second, active)
	assert.Equal(t, int64(2), active.JobID())
}

func TestRegistry_LatchesTerminalJobs(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := newScriptedFetcher(status(types.JobStatusCompleted, "completed"))
	r := NewRegistry(New(f, WithClock(clock)))

	h := r.Start(context.Background(), "experience", 7)
	clock.BlockUntil(1)
	tick(t, clock, f)
	waitDone(t, h)
	assert.True(t, r.Latched(7))

	_, ok := r.Active("experience")
	assert.False(t, ok)

	again := r.Start(context.Background(), "experience", 7)
	select {
	case <-again.Done():
	default:
		t.Fatal("latched job should return a finished handle")
	}
	assert.Equal(t, StateCompleted, again.State())
	clock.Advance(10 * DefaultInterval)
	assertNoCall(t, f)
	assert.Equal(t, 1, f.count())
}

func TestRegistry_ObserveIgnoresStaleReads(t *testing.T) {
	r := NewRegistry(New(nil))

	done := &types.AnalysisJob{ID: 4, Status: types.JobStatusCompleted, ContextSummary: "final"}
	assert.Same(t, done, r.Observe(done))

	stale := &types.AnalysisJob{ID: 4, Status: types.JobStatusProcessing}
	got := r.Observe(stale)
	assert.Equal(t, types.JobStatusCompleted, got.Status)
	assert.Equal(t, "final", got.ContextSummary)

	other := &types.AnalysisJob{ID: 5, Status: types.JobStatusProcessing}
	assert.Same(t, other, r.Observe(other))
	assert.False(t, r.Latched(5))
	assert.Nil(t, r.Observe(nil))
}

func TestRegistry_CancelKey(t *testing.T) {
	f := newScriptedFetcher(status(types.JobStatusProcessing, ""))
	r := NewRegistry(New(f, WithClock(clockwork.NewFakeClock())))

	h := r.Start(context.Background(), "reflection", 1)
	r.Cancel("reflection")
	waitDone(t, h)

	assert.Equal(t, StateCancelled, h.State())
	_, ok := r.Active("reflection")
	assert.False(t, ok)
	assert.False(t, r.Latched(1))
}

func TestRegistry_OnePollerPerJob(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := newScriptedFetcher(status(types.JobStatusProcessing, "analyzing_resume"))
	r := NewRegistry(New(f, WithClock(clock)))
	defer r.CancelAll()

	first := r.Start(context.Background(), "context", 7)
	second := r.Start(context.Background(), "experience", 7)

	assert.Same(t, first, second)
	assert.Equal(t, StatePolling, first.State())
	assert.True(t, r.Polling(7))

	_, ok := r.Active("context")
	assert.False(t, ok, "the job moved to its new key")
	active, ok := r.Active("experience")
	require.True(t, ok)
	assert.Same(t, first, active)

	clock.BlockUntil(1)
	tick(t, clock, f)
	assertNoCall(t, f)
	assert.Equal(t, 1, f.count())
}

func TestRegistry_StartWithSharesJobIndex(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := newScriptedFetcher(status(types.JobStatusProcessing, ""))
	r := NewRegistry(New(f, WithClock(clock)))
	capped := New(f, WithClock(clock), WithMaxAttempts(2))
	defer r.CancelAll()

	h := r.StartWith(context.Background(), capped, "reanalysis", 3)
	assert.Same(t, h, r.Start(context.Background(), "context", 3))

	r.Cancel("context")
	waitDone(t, h)
	assert.False(t, r.Polling(3))

	next := r.Start(context.Background(), "context", 3)
	assert.NotSame(t, h, next)
	assert.Equal(t, StatePolling, next.State())
}
