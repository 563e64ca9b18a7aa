package store

import (
	"context"
	"fmt"
)

// Section names a group of rows that DeleteAll can purge.
type Section string

const (
	SectionKnown   Section = "known"
	SectionUnknown Section = "unknown"
	SectionLogs    Section = "log"
)

// ParseSection validates a section name.
func ParseSection(name string) (Section, error) {
	switch Section(name) {
	case SectionKnown, SectionUnknown, SectionLogs:
		return Section(name), nil
	}
	return "", fmt.Errorf("invalid section %q: must be one of known, unknown, log", name)
}

// DeleteAll purges every row of a section and returns how many were removed.
// Used by the admin reset only.
func (s *Store) DeleteAll(ctx context.Context, section Section) (int64, error) {
	var query string
	switch section {
	case SectionKnown:
		query = `DELETE FROM barcodes WHERE name <> ?`
	case SectionUnknown:
		query = `DELETE FROM barcodes WHERE name = ?`
	case SectionLogs:
		query = `DELETE FROM barcode_logs`
	default:
		return 0, fmt.Errorf("delete all: invalid section %q", section)
	}

	args := []any{}
	if section != SectionLogs {
		args = append(args, UnresolvedName)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete all %s: %w", section, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all %s: rows affected: %w", section, err)
	}
	return n, nil
}
