package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

// sqlStore implements core.ResultStore on database/sql. The SQLite and MySQL
// stores differ only in their schema statements.
type sqlStore struct {
	db          *sql.DB
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	now         func() time.Time
}

func newSQLStore(db *sql.DB, logger *zap.Logger, retention, cleanupFreq time.Duration) *sqlStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sqlStore{
		db:          db,
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}
}

func (s *sqlStore) migrate(ctx context.Context, statements []string) error {
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// SaveCategorization stores or replaces a categorized message
func (s *sqlStore) SaveCategorization(ctx context.Context, msg core.StoredMessage) error {
	_, err := s.db.ExecContext(ctx, `
		REPLACE INTO messages (id, subject, sender, recipients, received_at, category,
			confidence, content_hash, body, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.Subject, msg.From, msg.To, msg.Date.UTC(), string(msg.Category),
		msg.Confidence, msg.ContentHash, msg.Body, msg.ProcessedAt.UTC())
	if err != nil {
		return core.WrapError(core.ErrStore, "save categorization", err)
	}
	return nil
}

// SaveTopics stores generated topics in one transaction
func (s *sqlStore) SaveTopics(ctx context.Context, topics []core.Topic) error {
	if len(topics) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.WrapError(core.ErrStore, "save topics", err)
	}
	defer tx.Rollback()

	for _, t := range topics {
		keywords, err := json.Marshal(t.Keywords)
		if err != nil {
			return core.WrapError(core.ErrStore, "save topics", err)
		}
		sources, err := json.Marshal(t.SourceMessages)
		if err != nil {
			return core.WrapError(core.ErrStore, "save topics", err)
		}
		_, err = tx.ExecContext(ctx, `
			REPLACE INTO topics (id, title, description, keywords, difficulty, category,
				provider, status, sources, generated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.Title, t.Description, string(keywords), t.Difficulty, string(t.Category),
			t.Provider, t.Status, string(sources), t.GeneratedAt.UTC())
		if err != nil {
			return core.WrapError(core.ErrStore, "save topics", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.WrapError(core.ErrStore, "save topics", err)
	}
	return nil
}

// LogScan records a scan run
func (s *sqlStore) LogScan(ctx context.Context, log core.ScanLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_logs (run_id, started_at, duration_ms, fetched, categorized,
			eligible, topics, status, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.RunID, log.StartedAt.UTC(), log.Duration.Milliseconds(), log.MessagesFetched,
		log.MessagesCategorized, log.Eligible, log.TopicsGenerated, log.Status,
		strings.Join(log.Errors, "\n"))
	if err != nil {
		return core.WrapError(core.ErrStore, "log scan", err)
	}
	return nil
}

// Statistics summarizes the store
func (s *sqlStore) Statistics(ctx context.Context) (*core.Statistics, error) {
	stats := &core.Statistics{}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM messages`, &stats.TotalMessages},
		{`SELECT COUNT(*) FROM messages WHERE category <> 'excluded'`, &stats.CategorizedMessages},
		{`SELECT COUNT(*) FROM topics`, &stats.TopicsGenerated},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, core.WrapError(core.ErrStore, "statistics", err)
		}
	}

	var (
		log        core.ScanLog
		durationMS int64
		errs       string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, duration_ms, fetched, categorized, eligible, topics, status, errors
		FROM scan_logs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&log.RunID, &log.StartedAt, &durationMS, &log.MessagesFetched,
		&log.MessagesCategorized, &log.Eligible, &log.TopicsGenerated, &log.Status, &errs)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, core.WrapError(core.ErrStore, "statistics", err)
	default:
		log.Duration = time.Duration(durationMS) * time.Millisecond
		if errs != "" {
			log.Errors = strings.Split(errs, "\n")
		}
		stats.LastScan = &log
	}

	return stats, nil
}

// RecentMessages returns the last processed messages, newest first
func (s *sqlStore) RecentMessages(ctx context.Context, limit int) ([]core.StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject, sender, recipients, received_at, category, confidence,
			content_hash, body, processed_at
		FROM messages
		ORDER BY processed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, core.WrapError(core.ErrStore, "recent messages", err)
	}
	defer rows.Close()

	var out []core.StoredMessage
	for rows.Next() {
		var (
			m        core.StoredMessage
			category string
		)
		if err := rows.Scan(&m.ID, &m.Subject, &m.From, &m.To, &m.Date, &category,
			&m.Confidence, &m.ContentHash, &m.Body, &m.ProcessedAt); err != nil {
			return nil, core.WrapError(core.ErrStore, "recent messages", err)
		}
		m.Category = core.Category(category)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStore, "recent messages", err)
	}
	return out, nil
}

// RecentTopics returns the last generated topics, newest first
func (s *sqlStore) RecentTopics(ctx context.Context, limit int) ([]core.Topic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, keywords, difficulty, category, provider,
			status, sources, generated_at
		FROM topics
		ORDER BY generated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, core.WrapError(core.ErrStore, "recent topics", err)
	}
	defer rows.Close()

	var out []core.Topic
	for rows.Next() {
		var (
			t                 core.Topic
			category          string
			keywords, sources string
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &keywords, &t.Difficulty,
			&category, &t.Provider, &t.Status, &sources, &t.GeneratedAt); err != nil {
			return nil, core.WrapError(core.ErrStore, "recent topics", err)
		}
		t.Category = core.Category(category)
		if keywords != "" {
			if err := json.Unmarshal([]byte(keywords), &t.Keywords); err != nil {
				s.logger.Warn("Failed to decode topic keywords", zap.String("topic_id", t.ID), zap.Error(err))
			}
		}
		if sources != "" {
			if err := json.Unmarshal([]byte(sources), &t.SourceMessages); err != nil {
				s.logger.Warn("Failed to decode topic sources", zap.String("topic_id", t.ID), zap.Error(err))
			}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStore, "recent topics", err)
	}
	return out, nil
}

// Cleanup removes rows older than before
func (s *sqlStore) Cleanup(ctx context.Context, before time.Time) error {
	deletes := []struct {
		table string
		query string
	}{
		{"messages", `DELETE FROM messages WHERE processed_at < ?`},
		{"topics", `DELETE FROM topics WHERE generated_at < ?`},
		{"scan_logs", `DELETE FROM scan_logs WHERE started_at < ?`},
	}

	for _, d := range deletes {
		result, err := s.db.ExecContext(ctx, d.query, before.UTC())
		if err != nil {
			return core.WrapError(core.ErrStore, "cleanup "+d.table, err)
		}
		if n, err := result.RowsAffected(); err != nil {
			s.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
		} else if n > 0 {
			s.logger.Debug("Removed expired rows", zap.String("table", d.table), zap.Int64("count", n))
		}
	}
	return nil
}

// startCleanupTask deletes rows past the retention window until Stop
func (s *sqlStore) startCleanupTask() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Cleanup(context.Background(), s.now().Add(-s.retention)); err != nil {
				s.logger.Error("Failed to clean up result store", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

func (s *sqlStore) startRetention() {
	if s.retention > 0 && s.cleanupFreq > 0 {
		go s.startCleanupTask()
	}
}

// Stop stops the background cleanup task and closes the database connection
func (s *sqlStore) Stop() {
	close(s.stopCh)
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err))
	}
}
