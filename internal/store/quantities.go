package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// QuantityBarcode maps a barcode to a stock multiplier.
type QuantityBarcode struct {
	ID         int64          `db:"id" json:"id"`
	Barcode    string         `db:"barcode" json:"barcode"`
	Multiplier int64          `db:"multiplier" json:"multiplier"`
	Product    sql.NullString `db:"product" json:"-"`
}

// ProductName returns the advisory product name, or "" if none was recorded.
func (q QuantityBarcode) ProductName() string {
	return q.Product.String
}

// UpsertQuantityBarcode sets the multiplier for barcode, replacing any previous
// row entirely. An empty productName stores no name.
func (s *Store) UpsertQuantityBarcode(ctx context.Context, barcode string, multiplier int64, productName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quantities (barcode, multiplier, product)
		VALUES (?, ?, ?)
		ON CONFLICT(barcode) DO UPDATE SET
			multiplier = excluded.multiplier,
			product = excluded.product
	`, barcode, multiplier, sql.NullString{String: productName, Valid: productName != ""})
	if err != nil {
		return fmt.Errorf("upsert quantity barcode: %w", err)
	}
	return nil
}

// LookupQuantityBarcode returns the multiplier for barcode, or 1 if none is stored.
func (s *Store) LookupQuantityBarcode(ctx context.Context, barcode string) (int64, error) {
	var multiplier int64
	err := s.db.GetContext(ctx, &multiplier, `
		SELECT multiplier FROM quantities WHERE barcode = ?
	`, barcode)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lookup quantity barcode: %w", err)
	}
	return multiplier, nil
}

// IsQuantityBarcode reports whether barcode has a registered multiplier.
func (s *Store) IsQuantityBarcode(ctx context.Context, barcode string) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM quantities WHERE barcode = ?`, barcode); err != nil {
		return false, fmt.Errorf("check quantity barcode: %w", err)
	}
	return count > 0, nil
}

// RefreshQuantityProductName records the product a quantity barcode was last
// applied to. Barcodes without a quantity row are ignored.
func (s *Store) RefreshQuantityProductName(ctx context.Context, barcode, productName string) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE quantities SET product = ? WHERE barcode = ?
	`, productName, barcode); err != nil {
		return fmt.Errorf("refresh quantity product name: %w", err)
	}
	return nil
}

// ListQuantities returns all quantity barcodes in insertion order.
func (s *Store) ListQuantities(ctx context.Context) ([]QuantityBarcode, error) {
	quantities := []QuantityBarcode{}
	if err := s.db.SelectContext(ctx, &quantities, `
		SELECT id, barcode, multiplier, product FROM quantities ORDER BY id ASC
	`); err != nil {
		return nil, fmt.Errorf("list quantities: %w", err)
	}
	return quantities, nil
}

// DeleteQuantity removes a quantity barcode by id.
func (s *Store) DeleteQuantity(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM quantities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete quantity: %w", err)
	}
	return requireRow(result, "delete quantity", fmt.Sprint(id))
}

// PendingQuantity returns the multiplier waiting for the next stock action and
// the barcode that set it. Without a pending row it returns (1, "").
func (s *Store) PendingQuantity(ctx context.Context) (multiplier int64, barcode string, err error) {
	row := struct {
		Multiplier int64  `db:"multiplier"`
		Barcode    string `db:"barcode"`
	}{}
	err = s.db.GetContext(ctx, &row, `SELECT multiplier, barcode FROM pending_quantity WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("read pending quantity: %w", err)
	}
	return row.Multiplier, row.Barcode, nil
}

// SetPendingQuantity stores the multiplier for the next stock action.
func (s *Store) SetPendingQuantity(ctx context.Context, multiplier int64, barcode string) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_quantity (id, multiplier, barcode) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET multiplier = excluded.multiplier, barcode = excluded.barcode
	`, multiplier, barcode); err != nil {
		return fmt.Errorf("set pending quantity: %w", err)
	}
	return nil
}

// ClearPendingQuantity resets the pending multiplier to 1.
func (s *Store) ClearPendingQuantity(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_quantity WHERE id = 1`); err != nil {
		return fmt.Errorf("clear pending quantity: %w", err)
	}
	return nil
}
