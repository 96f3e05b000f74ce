package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/ipp-client/internal/drafts"
	"github.com/jonathan/ipp-client/internal/types"
)

// reanalysisKey registers the post-questionnaire poll alongside the stage polls.
const reanalysisKey = "reanalysis"

// ErrNoResume is reported when there is no resume to re-analyze.
var ErrNoResume = errors.New("no resume found to re-analyze")

// SubmitResult is the outcome of a questionnaire submission. The submission can
// succeed while the follow-up re-analysis fails; ReanalysisErr carries that failure.
type SubmitResult struct {
	Questionnaire *types.BackgroundQuestionnaire
	Reanalysis    *types.AnalysisJob
	ReanalysisErr error
}

// SubmitQuestionnaire saves responses as the completed background questionnaire,
// updating the existing one when present, clears the saved draft and re-analyzes the
// user's resume so the new context is reflected.
func (c *Controller) SubmitQuestionnaire(ctx context.Context, responses types.Responses) (*SubmitResult, error) {
	existing, err := c.api.LatestQuestionnaire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load questionnaire: %w", err)
	}
	var existingID int64
	if existing != nil {
		existingID = existing.ID
	}

	saved, err := c.api.SaveQuestionnaire(ctx, existingID, types.QuestionnaireSubmission{
		Responses:  responses,
		IsComplete: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save questionnaire: %w", err)
	}
	c.logger.Info("workflow.questionnaire.saved", "id", saved.ID, "updated", existingID > 0)

	if c.drafts != nil {
		if err := c.drafts.Discard(ctx, drafts.QuestionnaireFormID); err != nil {
			c.logger.Warn("workflow.questionnaire.draft_discard_failed", "error", err)
		}
	}

	result := &SubmitResult{Questionnaire: saved}
	result.Reanalysis, result.ReanalysisErr = c.reanalyze(ctx)
	if result.ReanalysisErr != nil {
		c.logger.Warn("workflow.reanalysis.failed", "error", result.ReanalysisErr)
	}
	return result, nil
}

func (c *Controller) reanalyze(ctx context.Context) (*types.AnalysisJob, error) {
	docs, err := c.api.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	resume := types.FindDocument(docs, types.DocumentTypeResume)
	if resume == nil {
		return nil, ErrNoResume
	}

	resp, err := c.api.StartAnalysis(ctx, types.AnalysisResume, types.DocumentRefs{ResumeDocumentID: resume.ID})
	if err != nil {
		return nil, err
	}
	c.logger.Info("workflow.reanalysis.start", "analysis_id", resp.AnalysisID)

	return c.Await(ctx, c.registry.StartWith(ctx, c.reanalysis, reanalysisKey, resp.AnalysisID))
}
