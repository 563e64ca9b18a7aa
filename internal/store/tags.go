package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Tag associates a single word with an inventory product.
type Tag struct {
	ID        int64  `db:"id" json:"id"`
	Word      string `db:"tag" json:"word"`
	ProductID int64  `db:"product_id" json:"product_id"`
}

// AddTag stores a new tag word and returns its id. Duplicate words are allowed;
// matching picks the oldest.
func (s *Store) AddTag(ctx context.Context, word string, productID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (tag, product_id) VALUES (?, ?)
	`, word, productID)
	if err != nil {
		return 0, fmt.Errorf("add tag: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add tag: last insert id: %w", err)
	}
	return id, nil
}

// DeleteTag removes a tag by id.
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return requireRow(result, "delete tag", fmt.Sprint(id))
}

// ListTags returns all tags in insertion order.
func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	tags := []Tag{}
	if err := s.db.SelectContext(ctx, &tags, `
		SELECT id, tag, product_id FROM tags ORDER BY id ASC
	`); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// TagExists reports whether word is already used by any tag.
func (s *Store) TagExists(ctx context.Context, word string) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM tags WHERE tag = ? COLLATE BINARY
	`, word); err != nil {
		return false, fmt.Errorf("check tag: %w", err)
	}
	return count > 0, nil
}

// MatchAnyTag returns the product of the oldest tag equal to any of words.
// Tag order decides, not word order: with tags milk then organic,
// "organic milk" resolves through milk.
func (s *Store) MatchAnyTag(ctx context.Context, words []string) (productID int64, ok bool, err error) {
	if len(words) == 0 {
		return 0, false, nil
	}

	query, args, err := sqlx.In(`
		SELECT product_id FROM tags
		WHERE tag COLLATE BINARY IN (?)
		ORDER BY id ASC
		LIMIT 1
	`, words)
	if err != nil {
		return 0, false, fmt.Errorf("match any tag: %w", err)
	}

	err = s.db.GetContext(ctx, &productID, s.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("match any tag: %w", err)
	}
	return productID, true, nil
}
