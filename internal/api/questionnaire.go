package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/ipp-client/internal/types"
)

// LatestQuestionnaire returns the user's latest background questionnaire, or nil
// when there is none.
func (c *Client) LatestQuestionnaire(ctx context.Context) (*types.BackgroundQuestionnaire, error) {
	var out *types.BackgroundQuestionnaire
	err := c.do(ctx, request{method: http.MethodGet, path: "/questionnaire/background/latest"}, &out)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveQuestionnaire updates questionnaire existingID when it is non-zero and
// creates a new one otherwise.
func (c *Client) SaveQuestionnaire(ctx context.Context, existingID int64, sub types.QuestionnaireSubmission) (*types.BackgroundQuestionnaire, error) {
	if err := sub.Validate(); err != nil {
		return nil, fmt.Errorf("invalid questionnaire: %w", err)
	}

	method, path := http.MethodPost, "/questionnaire/background"
	if existingID > 0 {
		method, path = http.MethodPut, fmt.Sprintf("/questionnaire/background/%d", existingID)
	}

	r, err := jsonRequest(method, path, &sub)
	if err != nil {
		return nil, err
	}
	var out types.BackgroundQuestionnaire
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
