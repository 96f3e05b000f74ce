package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/ipp-client/internal/types"
)

// StartAnalysis starts an analysis job with exactly one request. References are
// validated first; invalid ones never reach the network. Any failure after that is
// a *JobStartError.
func (c *Client) StartAnalysis(ctx context.Context, kind types.AnalysisKind, refs types.DocumentRefs) (*types.StartAnalysisResponse, error) {
	path, body, err := types.StartRequest(kind, refs)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis request: %w", err)
	}

	r, err := jsonRequest(http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	var out types.StartAnalysisResponse
	if err := c.do(ctx, r, &out); err != nil {
		return nil, &JobStartError{Detail: DetailOf(err, FallbackStartDetail), Cause: err}
	}
	c.logger.Info("api.analysis.started", "analysis_id", out.AnalysisID, "kind", string(kind), "status", string(out.Status))
	return &out, nil
}

// FetchStatus reads job jobID with one request.
func (c *Client) FetchStatus(ctx context.Context, jobID int64) (*types.AnalysisJob, error) {
	var out types.AnalysisJob
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/analysis/%d", jobID)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LatestStatus returns the user's most recent analysis, or ErrNotFound.
func (c *Client) LatestStatus(ctx context.Context) (*types.AnalysisJob, error) {
	var out types.AnalysisJob
	err := c.do(ctx, request{method: http.MethodGet, path: "/analysis/latest/status"}, &out)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAnalyses returns the user's analyses, newest first.
func (c *Client) ListAnalyses(ctx context.Context) ([]types.AnalysisJob, error) {
	var out []types.AnalysisJob
	if err := c.do(ctx, request{method: http.MethodGet, path: "/analysis/"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
