package store

import (
	"context"
	"fmt"
	"time"
)

// VerboseKey is the settings key that enables verbose-only log entries.
const VerboseKey = "MORE_VERBOSE"

// LogEntry is one line of the append-only scan log.
type LogEntry struct {
	ID        int64  `db:"id" json:"id"`
	CreatedAt string `db:"created_at" json:"created_at"`
	Message   string `db:"message" json:"message"`
}

// AppendLog appends message to the scan log. Entries marked verboseOnly are
// dropped unless the MORE_VERBOSE setting is enabled at write time.
func (s *Store) AppendLog(ctx context.Context, message string, verboseOnly bool) error {
	if verboseOnly {
		value, _, err := s.Setting(ctx, VerboseKey)
		if err != nil {
			return fmt.Errorf("append log: %w", err)
		}
		if value != "1" {
			return nil
		}
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO barcode_logs (created_at, message) VALUES (?, ?)
	`, s.now().Format(time.RFC3339), message); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// ListLogs returns the newest log entries first. A limit <= 0 returns all.
func (s *Store) ListLogs(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	logs := []LogEntry{}
	if err := s.db.SelectContext(ctx, &logs, `
		SELECT id, created_at, message FROM barcode_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit); err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return logs, nil
}
