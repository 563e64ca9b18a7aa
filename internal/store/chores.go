package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ChoreBarcode binds a barcode to a remote chore.
type ChoreBarcode struct {
	ID      int64  `db:"id" json:"id"`
	ChoreID int64  `db:"chore_id" json:"chore_id"`
	Barcode string `db:"barcode" json:"barcode"`
}

// UpsertChoreBarcode binds barcode to choreID. Any barcode previously bound to
// the chore, and any chore previously bound to the barcode, is replaced.
func (s *Store) UpsertChoreBarcode(ctx context.Context, choreID int64, barcode string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM chore_barcodes WHERE chore_id = ? OR barcode = ?
		`, choreID, barcode); err != nil {
			return fmt.Errorf("upsert chore barcode: clear: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chore_barcodes (chore_id, barcode) VALUES (?, ?)
		`, choreID, barcode); err != nil {
			return fmt.Errorf("upsert chore barcode: insert: %w", err)
		}
		return nil
	})
}

// LookupChoreBarcode returns the chore bound to barcode, if any.
func (s *Store) LookupChoreBarcode(ctx context.Context, barcode string) (choreID int64, ok bool, err error) {
	err = s.db.GetContext(ctx, &choreID, `
		SELECT chore_id FROM chore_barcodes WHERE barcode = ?
	`, barcode)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup chore barcode: %w", err)
	}
	return choreID, true, nil
}

// ListChoreBarcodes returns all chore bindings ordered by chore id.
func (s *Store) ListChoreBarcodes(ctx context.Context) ([]ChoreBarcode, error) {
	chores := []ChoreBarcode{}
	if err := s.db.SelectContext(ctx, &chores, `
		SELECT id, chore_id, barcode FROM chore_barcodes ORDER BY chore_id ASC
	`); err != nil {
		return nil, fmt.Errorf("list chore barcodes: %w", err)
	}
	return chores, nil
}

// DeleteChoreBarcode removes the binding for choreID.
func (s *Store) DeleteChoreBarcode(ctx context.Context, choreID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chore_barcodes WHERE chore_id = ?`, choreID)
	if err != nil {
		return fmt.Errorf("delete chore barcode: %w", err)
	}
	return requireRow(result, "delete chore barcode", fmt.Sprint(choreID))
}
