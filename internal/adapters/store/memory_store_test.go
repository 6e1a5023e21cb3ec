package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

func TestMemoryStoreStatistics(t *testing.T) {
	s := NewMemoryStore(0, 0, zap.NewNop())
	defer s.Stop()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.SaveCategorization(ctx, core.StoredMessage{ID: "a", Category: core.CategoryTech, ProcessedAt: now}))
	require.NoError(t, s.SaveCategorization(ctx, core.StoredMessage{ID: "b", Category: core.CategoryExcluded, ProcessedAt: now}))
	// replacing keeps one row
	require.NoError(t, s.SaveCategorization(ctx, core.StoredMessage{ID: "a", Category: core.CategoryNewsletter, ProcessedAt: now}))
	require.NoError(t, s.SaveTopics(ctx, []core.Topic{{ID: "t1"}, {ID: "t2"}}))
	require.NoError(t, s.LogScan(ctx, core.ScanLog{RunID: "old", StartedAt: now.Add(-time.Hour)}))
	require.NoError(t, s.LogScan(ctx, core.ScanLog{RunID: "new", StartedAt: now}))

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalMessages)
	assert.Equal(t, 1, stats.CategorizedMessages)
	assert.Equal(t, 2, stats.TopicsGenerated)
	require.NotNil(t, stats.LastScan)
	assert.Equal(t, "new", stats.LastScan.RunID)
}

func TestMemoryStoreRecentOrdering(t *testing.T) {
	s := NewMemoryStore(0, 0, nil)
	defer s.Stop()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveCategorization(ctx, core.StoredMessage{ID: id, ProcessedAt: ts}))
		require.NoError(t, s.SaveTopics(ctx, []core.Topic{{ID: id, GeneratedAt: ts}}))
	}

	msgs, err := s.RecentMessages(ctx, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "third", msgs[0].ID)
	assert.Equal(t, "second", msgs[1].ID)

	topics, err := s.RecentTopics(ctx, 0)
	require.NoError(t, err)
	require.Len(t, topics, 3)
	assert.Equal(t, "third", topics[0].ID)
}

func TestMemoryStoreCleanup(t *testing.T) {
	s := NewMemoryStore(0, 0, nil)
	defer s.Stop()
	ctx := context.Background()
	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveCategorization(ctx, core.StoredMessage{ID: "old", ProcessedAt: cutoff.Add(-time.Hour)}))
	require.NoError(t, s.SaveCategorization(ctx, core.StoredMessage{ID: "new", ProcessedAt: cutoff.Add(time.Hour)}))
	require.NoError(t, s.SaveTopics(ctx, []core.Topic{{ID: "old", GeneratedAt: cutoff.Add(-time.Hour)}}))
	require.NoError(t, s.LogScan(ctx, core.ScanLog{RunID: "old", StartedAt: cutoff.Add(-time.Hour)}))
	require.NoError(t, s.LogScan(ctx, core.ScanLog{RunID: "new", StartedAt: cutoff.Add(time.Hour)}))

	require.NoError(t, s.Cleanup(ctx, cutoff))

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMessages)
	assert.Equal(t, 0, stats.TopicsGenerated)
	assert.Equal(t, "new", stats.LastScan.RunID)
}

func TestMemoryStoreRetentionTask(t *testing.T) {
	s := NewMemoryStore(time.Millisecond, 5*time.Millisecond, nil)
	defer s.Stop()
	ctx := context.Background()

	require.NoError(t, s.SaveCategorization(ctx, core.StoredMessage{ID: "a", ProcessedAt: time.Now().Add(-time.Hour)}))

	assert.Eventually(t, func() bool {
		stats, err := s.Statistics(ctx)
		return err == nil && stats.TotalMessages == 0
	}, time.Second, 5*time.Millisecond)
}

func TestMongoDocumentRoundTrip(t *testing.T) {
	generated := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	topic := core.Topic{
		ID:          "t1",
		Title:       "Go generics in practice",
		Keywords:    []string{"go"},
		Difficulty:  core.DifficultyAdvanced,
		Category:    core.CategoryTech,
		GeneratedAt: generated,
		SourceMessages: []core.TopicSource{
			{MessageID: "m1", Category: core.CategoryTech, RelevanceScore: 0.9},
		},
	}

	assert.Equal(t, topic, fromTopicDocument(toTopicDocument(topic)))

	log := core.ScanLog{RunID: "r", StartedAt: generated, Duration: 2500 * time.Millisecond, Status: core.ScanStatusSuccess}
	assert.Equal(t, log, fromScanDocument(toScanDocument(log)))
}
