package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		id VARCHAR(255) PRIMARY KEY,
		subject TEXT,
		sender VARCHAR(512),
		recipients TEXT,
		received_at TIMESTAMP NULL,
		category VARCHAR(32),
		confidence DOUBLE,
		content_hash CHAR(48),
		body MEDIUMTEXT,
		processed_at TIMESTAMP NULL,
		INDEX idx_messages_processed_at (processed_at)
	)`,
	`CREATE TABLE IF NOT EXISTS topics (
		id CHAR(36) PRIMARY KEY,
		title VARCHAR(512) NOT NULL,
		description TEXT,
		keywords TEXT,
		difficulty VARCHAR(32),
		category VARCHAR(32),
		provider VARCHAR(32),
		status VARCHAR(32),
		sources MEDIUMTEXT,
		generated_at TIMESTAMP NULL,
		INDEX idx_topics_generated_at (generated_at)
	)`,
	`CREATE TABLE IF NOT EXISTS scan_logs (
		run_id CHAR(36) PRIMARY KEY,
		started_at TIMESTAMP NULL,
		duration_ms BIGINT,
		fetched INT,
		categorized INT,
		eligible INT,
		topics INT,
		status VARCHAR(16),
		errors TEXT,
		INDEX idx_scan_logs_started_at (started_at)
	)`,
}

// MySQLStore is a MySQL implementation of the ResultStore interface. The DSN
// must set parseTime=true.
type MySQLStore struct {
	*sqlStore
}

// NewMySQLStore connects, creates the tables and starts the retention task
func NewMySQLStore(dsn string, retention, cleanupFreq time.Duration, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	s := newSQLStore(db, logger, retention, cleanupFreq)
	if err := s.migrate(ctx, mysqlSchema); err != nil {
		db.Close()
		return nil, err
	}
	s.startRetention()

	return &MySQLStore{sqlStore: s}, nil
}
