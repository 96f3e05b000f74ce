package workflow

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ipp-client/internal/drafts"
	"github.com/jonathan/ipp-client/internal/types"
)

func submitAsync(c *Controller, responses types.Responses) (<-chan *SubmitResult, <-chan error) {
	results := make(chan *SubmitResult, 1)
	errs := make(chan error, 1)
	go func() {
		res, err := c.SubmitQuestionnaire(context.Background(), responses)
		results <- res
		errs <- err
	}()
	return results, errs
}

func TestSubmitQuestionnaire_UpdatesExistingAndReanalyzes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := newFakeAPI()
	f.existing = &types.BackgroundQuestionnaire{ID: 42}
	f.docs = []types.Document{{ID: 3, DocumentType: types.DocumentTypeResume}}
	d := &fakeDrafts{}

	c := NewController(f, WithClock(clock), WithDrafts(d))
	results, errs := submitAsync(c, types.Responses{"values": "service"})

	clock.BlockUntil(1)
	clock.Advance(ReanalysisInterval)

	res := <-results
	require.NoError(t, <-errs)
	require.NotNil(t, res)

	assert.Equal(t, []int64{42}, f.savedWithID)
	assert.Equal(t, int64(42), res.Questionnaire.ID)
	assert.Equal(t, []string{drafts.QuestionnaireFormID}, d.discarded)

	require.Len(t, f.starts, 1)
	assert.Equal(t, types.AnalysisResume, f.startKinds[0])
	assert.Equal(t, int64(3), f.starts[0].ResumeDocumentID)
	require.NoError(t, res.ReanalysisErr)
	require.NotNil(t, res.Reanalysis)
	assert.Equal(t, types.JobStatusCompleted, res.Reanalysis.Status)
}

func TestSubmitQuestionnaire_CreatesWhenNoneExists(t *testing.T) {
	f := newFakeAPI()

	res, err := NewController(f).SubmitQuestionnaire(t.Context(), types.Responses{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, f.savedWithID)
	assert.Equal(t, int64(7), res.Questionnaire.ID)

	// No resume: the submission stands, the re-analysis reports why it was skipped.
	require.ErrorIs(t, res.ReanalysisErr, ErrNoResume)
	assert.Empty(t, f.starts)
}

func TestSubmitQuestionnaire_ReanalysisFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := newFakeAPI()
	f.status = types.JobStatusFailed
	f.docs = []types.Document{{ID: 3, DocumentType: types.DocumentTypeResume}}

	c := NewController(f, WithClock(clock))
	results, errs := submitAsync(c, types.Responses{"a": "b"})

	clock.BlockUntil(1)
	clock.Advance(ReanalysisInterval)

	res := <-results
	require.NoError(t, <-errs)
	require.Error(t, res.ReanalysisErr)
	assert.Equal(t, "engine exploded", UserMessage(res.ReanalysisErr))
}
