// Package drafts persists not-yet-submitted form responses so a reload or crash does
// not lose them.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonathan/ipp-client/internal/logging"
	"github.com/jonathan/ipp-client/internal/storage"
	"github.com/jonathan/ipp-client/internal/types"
)

// QuestionnaireFormID is the form id of the background questionnaire.
const QuestionnaireFormID = "questionnaire"

// Store saves and loads drafts by form id.
type Store interface {
	Save(ctx context.Context, formID string, responses types.Responses) error
	// Load returns the stored responses, or an empty map when there is no usable draft.
	Load(ctx context.Context, formID string) (types.Responses, error)
	Clear(ctx context.Context, formID string) error
}

// KV is the key/value surface LocalStore needs; *storage.Store implements it.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Key returns the storage key for a form, e.g. "questionnaire_draft".
func Key(formID string) string {
	return formID + "_draft"
}

// LocalStore keeps drafts in the local state database.
type LocalStore struct {
	kv     KV
	logger *slog.Logger
}

// NewLocalStore creates a LocalStore over kv.
func NewLocalStore(kv KV, logger *slog.Logger) *LocalStore {
	return &LocalStore{kv: kv, logger: logging.OrDiscard(logger)}
}

// Save writes responses as JSON under Key(formID).
func (s *LocalStore) Save(ctx context.Context, formID string, responses types.Responses) error {
	data, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", formID, err)
	}
	return s.kv.Set(ctx, Key(formID), string(data))
}

// Load reads the draft for formID. Missing or corrupt drafts yield an empty map.
func (s *LocalStore) Load(ctx context.Context, formID string) (types.Responses, error) {
	raw, err := s.kv.Get(ctx, Key(formID))
	if errors.Is(err, storage.ErrNotFound) {
		return types.Responses{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(raw, formID, s.logger), nil
}

// Clear removes the draft for formID.
func (s *LocalStore) Clear(ctx context.Context, formID string) error {
	return s.kv.Delete(ctx, Key(formID))
}

func decode(raw string, formID string, logger *slog.Logger) types.Responses {
	var r types.Responses
	if err := json.Unmarshal([]byte(raw), &r); err != nil || r == nil {
		logger.Warn("drafts.load.corrupt", "form_id", formID, "error", err)
		return types.Responses{}
	}
	return r
}
