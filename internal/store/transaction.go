package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TransactionRow is the persisted transaction state. The state value is owned
// and interpreted by the state package.
type TransactionRow struct {
	State int
	Since time.Time
}

// ReadTransactionState returns the persisted state row. ok is false before the
// first write.
func (s *Store) ReadTransactionState(ctx context.Context) (row TransactionRow, ok bool, err error) {
	raw := struct {
		State int    `db:"current_state"`
		Since string `db:"since"`
	}{}
	err = s.db.GetContext(ctx, &raw, `SELECT current_state, since FROM transaction_state WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return TransactionRow{}, false, nil
	}
	if err != nil {
		return TransactionRow{}, false, fmt.Errorf("read transaction state: %w", err)
	}

	since, err := time.Parse(time.RFC3339Nano, raw.Since)
	if err != nil {
		return TransactionRow{}, false, fmt.Errorf("read transaction state: parse since: %w", err)
	}
	return TransactionRow{State: raw.State, Since: since}, true, nil
}

// WriteTransactionState replaces the persisted state row.
func (s *Store) WriteTransactionState(ctx context.Context, row TransactionRow) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO transaction_state (id, current_state, since) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET current_state = excluded.current_state, since = excluded.since
	`, row.State, row.Since.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("write transaction state: %w", err)
	}
	return nil
}

// InitTransactionState writes row only if no state has been persisted yet.
func (s *Store) InitTransactionState(ctx context.Context, row TransactionRow) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO transaction_state (id, current_state, since) VALUES (1, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, row.State, row.Since.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("init transaction state: %w", err)
	}
	return nil
}
