package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jonathan/ipp-client/internal/db"
	"github.com/jonathan/ipp-client/internal/logging"
	"github.com/jonathan/ipp-client/internal/types"
)

// DraftTable is the Postgres surface PGStore needs; *db.DB implements it.
type DraftTable interface {
	SaveDraft(ctx context.Context, owner, formID string, responses []byte) error
	GetDraft(ctx context.Context, owner, formID string) (*db.Draft, error)
	DeleteDraft(ctx context.Context, owner, formID string) error
}

// PGStore keeps drafts in Postgres, scoped to one owner (the signed-in user's email),
// so a draft started on one machine can be resumed on another.
type PGStore struct {
	table  DraftTable
	owner  string
	logger *slog.Logger
}

// NewPGStore creates a PGStore for owner.
func NewPGStore(table DraftTable, owner string, logger *slog.Logger) *PGStore {
	return &PGStore{table: table, owner: owner, logger: logging.OrDiscard(logger)}
}

// Save upserts the draft.
func (s *PGStore) Save(ctx context.Context, formID string, responses types.Responses) error {
	data, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", formID, err)
	}
	return s.table.SaveDraft(ctx, s.owner, formID, data)
}

// Load reads the draft. Missing or corrupt drafts yield an empty map.
func (s *PGStore) Load(ctx context.Context, formID string) (types.Responses, error) {
	d, err := s.table.GetDraft(ctx, s.owner, formID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return types.Responses{}, nil
	}
	return decode(string(d.Responses), formID, s.logger), nil
}

// Clear removes the draft.
func (s *PGStore) Clear(ctx context.Context, formID string) error {
	return s.table.DeleteDraft(ctx, s.owner, formID)
}
