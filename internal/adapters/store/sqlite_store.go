package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		subject TEXT,
		sender TEXT,
		recipients TEXT,
		received_at TIMESTAMP,
		category TEXT,
		confidence REAL,
		content_hash TEXT,
		body TEXT,
		processed_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_processed_at ON messages(processed_at)`,
	`CREATE TABLE IF NOT EXISTS topics (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		keywords TEXT,
		difficulty TEXT,
		category TEXT,
		provider TEXT,
		status TEXT,
		sources TEXT,
		generated_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_topics_generated_at ON topics(generated_at)`,
	`CREATE TABLE IF NOT EXISTS scan_logs (
		run_id TEXT PRIMARY KEY,
		started_at TIMESTAMP,
		duration_ms INTEGER,
		fetched INTEGER,
		categorized INTEGER,
		eligible INTEGER,
		topics INTEGER,
		status TEXT,
		errors TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_logs_started_at ON scan_logs(started_at)`,
}

// SQLiteStore is a SQLite implementation of the ResultStore interface
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens the database file, creating it and its directory when
// missing, and starts the retention task
func NewSQLiteStore(dbPath string, retention, cleanupFreq time.Duration, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	s := newSQLStore(db, logger, retention, cleanupFreq)
	if err := s.migrate(context.Background(), sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	s.startRetention()

	return &SQLiteStore{sqlStore: s}, nil
}
