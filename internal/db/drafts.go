package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Draft is a stored questionnaire draft.
type Draft struct {
	Owner     string
	FormID    string
	Responses []byte // raw JSON object
	UpdatedAt time.Time
}

// SaveDraft upserts the draft for (owner, formID).
func (db *DB) SaveDraft(ctx context.Context, owner, formID string, responses []byte) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO form_drafts (owner, form_id, responses)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (owner, form_id) DO UPDATE SET responses = $3, updated_at = NOW()`,
		owner, formID, responses,
	)
	if err != nil {
		return fmt.Errorf("failed to save draft %s: %w", formID, err)
	}
	return nil
}

// GetDraft returns the draft for (owner, formID), or nil when none exists.
func (db *DB) GetDraft(ctx context.Context, owner, formID string) (*Draft, error) {
	d := Draft{Owner: owner, FormID: formID}
	err := db.pool.QueryRow(ctx,
		`SELECT responses, updated_at FROM form_drafts WHERE owner = $1 AND form_id = $2`,
		owner, formID,
	).Scan(&d.Responses, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get draft %s: %w", formID, err)
	}
	return &d, nil
}

// DeleteDraft removes the draft for (owner, formID). Missing drafts are not an error.
func (db *DB) DeleteDraft(ctx context.Context, owner, formID string) error {
	if _, err := db.pool.Exec(ctx,
		`DELETE FROM form_drafts WHERE owner = $1 AND form_id = $2`, owner, formID); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", formID, err)
	}
	return nil
}

// ListDrafts returns the owner's drafts, most recently updated first.
func (db *DB) ListDrafts(ctx context.Context, owner string) ([]Draft, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT form_id, responses, updated_at FROM form_drafts
		 WHERE owner = $1 ORDER BY updated_at DESC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		d := Draft{Owner: owner}
		if err := rows.Scan(&d.FormID, &d.Responses, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}
