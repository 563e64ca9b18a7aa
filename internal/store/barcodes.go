package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UnresolvedName is the sentinel name of a cached barcode that no lookup could name.
// It alone decides whether a row is listed as known or unknown.
const UnresolvedName = "N/A"

// CachedBarcode is a barcode the remote catalog did not recognize.
type CachedBarcode struct {
	ID            int64         `db:"id" json:"id"`
	Barcode       string        `db:"barcode" json:"barcode"`
	Name          string        `db:"name" json:"name"`
	PossibleMatch sql.NullInt64 `db:"possible_match" json:"-"`
	Amount        int64         `db:"amount" json:"amount"`
}

// Known reports whether a lookup produced a display name for the barcode.
func (b CachedBarcode) Known() bool {
	return b.Name != UnresolvedName
}

// MatchID returns the suggested product id, or 0 when there is none.
func (b CachedBarcode) MatchID() int64 {
	if !b.PossibleMatch.Valid {
		return 0
	}
	return b.PossibleMatch.Int64
}

// UpsertUnknownBarcode inserts a new cache row for barcode.
// Returns ErrDuplicateKey if the barcode is already cached; callers check
// HasBarcode first and use IncrementUnknownAmount for repeat scans.
// A match of 0 stores no suggestion.
func (s *Store) UpsertUnknownBarcode(ctx context.Context, barcode string, amount int64, name string, match int64) error {
	if amount < 1 {
		amount = 1
	}
	if name == "" {
		name = UnresolvedName
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO barcodes (barcode, name, amount, possible_match)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(barcode) DO NOTHING
	`, barcode, name, amount, nullableID(match))
	if err != nil {
		return fmt.Errorf("upsert unknown barcode: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert unknown barcode: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("upsert unknown barcode %q: %w", barcode, ErrDuplicateKey)
	}
	return nil
}

// HasBarcode reports whether barcode is cached.
func (s *Store) HasBarcode(ctx context.Context, barcode string) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM barcodes WHERE barcode = ?`, barcode); err != nil {
		return false, fmt.Errorf("check barcode: %w", err)
	}
	return count > 0, nil
}

// GetBarcode returns the cache row for barcode, or ErrNotFound.
func (s *Store) GetBarcode(ctx context.Context, barcode string) (CachedBarcode, error) {
	var b CachedBarcode
	err := s.db.GetContext(ctx, &b, `
		SELECT id, barcode, name, possible_match, amount
		FROM barcodes
		WHERE barcode = ?
	`, barcode)
	if errors.Is(err, sql.ErrNoRows) {
		return CachedBarcode{}, fmt.Errorf("get barcode %q: %w", barcode, ErrNotFound)
	}
	if err != nil {
		return CachedBarcode{}, fmt.Errorf("get barcode: %w", err)
	}
	return b, nil
}

// IncrementUnknownAmount adds delta to the accumulated amount of a cached barcode.
// The increment happens in a single UPDATE so concurrent scans cannot lose updates.
func (s *Store) IncrementUnknownAmount(ctx context.Context, barcode string, delta int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE barcodes SET amount = amount + ? WHERE barcode = ?
	`, delta, barcode)
	if err != nil {
		return fmt.Errorf("increment unknown amount: %w", err)
	}
	return requireRow(result, "increment unknown amount", barcode)
}

// SetUnknownAmount overwrites the accumulated amount of a cached barcode.
func (s *Store) SetUnknownAmount(ctx context.Context, barcode string, amount int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE barcodes SET amount = ? WHERE barcode = ?
	`, amount, barcode)
	if err != nil {
		return fmt.Errorf("set unknown amount: %w", err)
	}
	return requireRow(result, "set unknown amount", barcode)
}

// UpdatePossibleMatch overwrites the heuristic product suggestion.
// A productID of 0 clears the suggestion.
func (s *Store) UpdatePossibleMatch(ctx context.Context, barcode string, productID int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE barcodes SET possible_match = ? WHERE barcode = ?
	`, nullableID(productID), barcode)
	if err != nil {
		return fmt.Errorf("update possible match: %w", err)
	}
	return requireRow(result, "update possible match", barcode)
}

// ListBarcodes returns all cached barcodes partitioned by the UnresolvedName
// sentinel. Both partitions keep insertion order and are never nil.
func (s *Store) ListBarcodes(ctx context.Context) (known, unknown []CachedBarcode, err error) {
	var all []CachedBarcode
	if err := s.db.SelectContext(ctx, &all, `
		SELECT id, barcode, name, possible_match, amount
		FROM barcodes
		ORDER BY id ASC
	`); err != nil {
		return nil, nil, fmt.Errorf("list barcodes: %w", err)
	}

	known = []CachedBarcode{}
	unknown = []CachedBarcode{}
	for _, b := range all {
		if b.Known() {
			known = append(known, b)
		} else {
			unknown = append(unknown, b)
		}
	}
	return known, unknown, nil
}

// DeleteBarcode removes a single cache row by id.
func (s *Store) DeleteBarcode(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM barcodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete barcode: %w", err)
	}
	return requireRow(result, "delete barcode", fmt.Sprint(id))
}

// requireRow converts an UPDATE/DELETE that touched nothing into ErrNotFound.
func requireRow(result sql.Result, op, key string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", op, key, ErrNotFound)
	}
	return nil
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
