package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"slack_dashboard/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadWatermark returns the saved watermark for the channel.
func (s *SQLite) LoadWatermark(ctx context.Context, channelID string) (float64, bool, error) {
	var watermark float64
	err := s.db.QueryRowContext(ctx,
		`SELECT watermark FROM session_state WHERE channel_id = ?`, channelID,
	).Scan(&watermark)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load watermark: %w", err)
	}
	return watermark, true, nil
}

// SaveWatermark records the newest rendered timestamp for the channel.
func (s *SQLite) SaveWatermark(ctx context.Context, channelID string, watermark float64) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_state (channel_id, watermark, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(channel_id) DO UPDATE SET watermark = excluded.watermark, updated_at = excluded.updated_at`,
		channelID, watermark, now,
	)
	if err != nil {
		return fmt.Errorf("save watermark: %w", err)
	}
	return nil
}
