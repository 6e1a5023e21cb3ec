package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

func newStoreWithMock(t *testing.T) (*sqlStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newSQLStore(db, zap.NewNop(), 0, 0), mock
}

func TestSaveCategorization(t *testing.T) {
	s, mock := newStoreWithMock(t)

	msg := core.StoredMessage{
		ID:          "m1",
		Subject:     "Weekly Go",
		From:        "news@golangweekly.com",
		To:          "me@example.com",
		Category:    core.CategoryTech,
		Confidence:  0.9,
		ContentHash: "abc",
		Body:        "body",
	}

	mock.ExpectExec("REPLACE INTO messages").
		WithArgs("m1", "Weekly Go", "news@golangweekly.com", "me@example.com", sqlmock.AnyArg(),
			"tech", 0.9, "abc", "body", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.SaveCategorization(context.Background(), msg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCategorizationWrapsStoreError(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec("REPLACE INTO messages").WillReturnError(errors.New("disk full"))

	err := s.SaveCategorization(context.Background(), core.StoredMessage{ID: "m1"})
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.ErrStore))
	assert.Contains(t, err.Error(), "disk full")
}

func TestSaveTopicsInTransaction(t *testing.T) {
	s, mock := newStoreWithMock(t)

	topics := []core.Topic{
		{ID: "t1", Title: "One", Keywords: []string{"go"}, Category: core.CategoryTech},
		{ID: "t2", Title: "Two", Category: core.CategoryNewsletter},
	}

	mock.ExpectBegin()
	mock.ExpectExec("REPLACE INTO topics").
		WithArgs("t1", "One", "", `["go"]`, "", "tech", "", "", "null", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("REPLACE INTO topics").
		WithArgs("t2", "Two", "", "null", "", "newsletter", "", "", "null", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveTopics(context.Background(), topics))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTopicsRollsBackOnError(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("REPLACE INTO topics").WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := s.SaveTopics(context.Background(), []core.Topic{{ID: "t1", Title: "One"}})
	assert.True(t, core.IsKind(err, core.ErrStore))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTopicsEmptyIsNoop(t *testing.T) {
	s, mock := newStoreWithMock(t)

	require.NoError(t, s.SaveTopics(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogScan(t *testing.T) {
	s, mock := newStoreWithMock(t)

	log := core.ScanLog{
		RunID:               "run-1",
		StartedAt:           time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Duration:            1500 * time.Millisecond,
		MessagesFetched:     10,
		MessagesCategorized: 10,
		Eligible:            2,
		TopicsGenerated:     4,
		Status:              core.ScanStatusPartial,
		Errors:              []string{"tech: timeout", "newsletter: bad json"},
	}

	mock.ExpectExec("INSERT INTO scan_logs").
		WithArgs("run-1", log.StartedAt, int64(1500), 10, 10, 2, 4, "partial",
			"tech: timeout\nnewsletter: bad json").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.LogScan(context.Background(), log))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatistics(t *testing.T) {
	s, mock := newStoreWithMock(t)
	started := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM messages`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM messages WHERE category`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM topics`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("FROM scan_logs").
		WillReturnRows(sqlmock.NewRows([]string{
			"run_id", "started_at", "duration_ms", "fetched", "categorized", "eligible", "topics", "status", "errors",
		}).AddRow("run-2", started, 2000, 12, 12, 3, 5, "success", ""))

	stats, err := s.Statistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, stats.TotalMessages)
	assert.Equal(t, 9, stats.CategorizedMessages)
	assert.Equal(t, 5, stats.TopicsGenerated)
	require.NotNil(t, stats.LastScan)
	assert.Equal(t, "run-2", stats.LastScan.RunID)
	assert.Equal(t, 2*time.Second, stats.LastScan.Duration)
	assert.Empty(t, stats.LastScan.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatisticsWithoutScans(t *testing.T) {
	s, mock := newStoreWithMock(t)

	for i := 0; i < 3; i++ {
		mock.ExpectQuery(`SELECT COUNT\(\*\)`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	}
	mock.ExpectQuery("FROM scan_logs").
		WillReturnRows(sqlmock.NewRows([]string{"run_id"}))

	stats, err := s.Statistics(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats.LastScan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentTopicsDecodesJSONColumns(t *testing.T) {
	s, mock := newStoreWithMock(t)
	generated := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM topics").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "keywords", "difficulty", "category", "provider",
			"status", "sources", "generated_at",
		}).AddRow("t1", "Go generics", "desc", `["go","generics"]`, "Intermediate", "tech",
			"openai", "pending", `[{"MessageID":"m1","Subject":"Weekly Go"}]`, generated))

	topics, err := s.RecentTopics(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, topics, 1)

	assert.Equal(t, []string{"go", "generics"}, topics[0].Keywords)
	assert.Equal(t, core.CategoryTech, topics[0].Category)
	require.Len(t, topics[0].SourceMessages, 1)
	assert.Equal(t, "m1", topics[0].SourceMessages[0].MessageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentMessages(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM messages").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "subject", "sender", "recipients", "received_at", "category", "confidence",
			"content_hash", "body", "processed_at",
		}).
			AddRow("m2", "b", "x@y.com", "", now, "newsletter", 0.5, "h2", "", now).
			AddRow("m1", "a", "x@y.com", "", now, "tech", 0.9, "h1", "", now.Add(-time.Hour)))

	msgs, err := s.RecentMessages(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m2", msgs[0].ID)
	assert.Equal(t, core.CategoryNewsletter, msgs[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupDeletesFromEveryTable(t *testing.T) {
	s, mock := newStoreWithMock(t)
	before := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM messages").WithArgs(before).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM topics").WithArgs(before).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM scan_logs").WithArgs(before).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Cleanup(context.Background(), before))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnFirstError(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS messages").WillReturnError(errors.New("syntax"))

	err := s.migrate(context.Background(), sqliteSchema)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
