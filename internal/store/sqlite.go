package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    target TEXT NOT NULL,
    attempt INTEGER NOT NULL,
    started_at INTEGER NOT NULL,
    latency_ms INTEGER NOT NULL,
    success BOOLEAN NOT NULL,
    reason TEXT,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_attempts_started_at ON attempts(started_at);
CREATE INDEX IF NOT EXISTS idx_attempts_session ON attempts(session_id, attempt);
`

// SQLiteStore is a persistent [Store] backed by a SQLite database file.
//
// Timestamps are stored as Unix nanoseconds in UTC.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and applies
// the schema. The parent directory is created if it does not exist.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// a single writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema creation failed: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append inserts one attempt.
func (s *SQLiteStore) Append(ctx context.Context, r Record) error {
	var errMsg sql.NullString
	if r.Error != nil {
		errMsg = sql.NullString{String: *r.Error, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO attempts (session_id, target, attempt, started_at, latency_ms, success, reason, error_message)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.Target, r.Attempt, r.StartedAt.UTC().UnixNano(), r.LatencyMs, r.Success, r.Reason, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	return nil
}

// Recent returns up to limit attempts, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `
        SELECT session_id, target, attempt, started_at, latency_ms, success, reason, error_message
        FROM attempts
        ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r         Record
			startedAt int64
			reason    sql.NullString
			errMsg    sql.NullString
		)
		if err := rows.Scan(&r.SessionID, &r.Target, &r.Attempt, &startedAt, &r.LatencyMs, &r.Success, &reason, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		r.StartedAt = time.Unix(0, startedAt).UTC()
		r.Reason = reason.String
		if errMsg.Valid {
			msg := errMsg.String
			r.Error = &msg
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attempts: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
