// Package store holds the ResultStore implementations: in-memory, SQLite,
// MySQL and MongoDB.
package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

// MemoryStore is an in-memory implementation of the ResultStore interface
type MemoryStore struct {
	mu          sync.RWMutex
	messages    map[string]core.StoredMessage
	topics      map[string]core.Topic
	scans       []core.ScanLog
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryStore creates a new in-memory store. A zero retention or
// frequency disables background cleanup.
func NewMemoryStore(retention, cleanupFreq time.Duration, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MemoryStore{
		messages:    make(map[string]core.StoredMessage),
		topics:      make(map[string]core.Topic),
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if retention > 0 && cleanupFreq > 0 {
		go s.startCleanupTask()
	}

	return s
}

func (s *MemoryStore) SaveCategorization(ctx context.Context, msg core.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[msg.ID] = msg
	return nil
}

func (s *MemoryStore) SaveTopics(ctx context.Context, topics []core.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range topics {
		s.topics[t.ID] = t
	}
	return nil
}

func (s *MemoryStore) LogScan(ctx context.Context, log core.ScanLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scans = append(s.scans, log)
	return nil
}

func (s *MemoryStore) Statistics(ctx context.Context) (*core.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &core.Statistics{
		TotalMessages:   len(s.messages),
		TopicsGenerated: len(s.topics),
	}
	for _, m := range s.messages {
		if m.Category != core.CategoryExcluded {
			stats.CategorizedMessages++
		}
	}
	for i := range s.scans {
		if stats.LastScan == nil || s.scans[i].StartedAt.After(stats.LastScan.StartedAt) {
			last := s.scans[i]
			stats.LastScan = &last
		}
	}
	return stats, nil
}

func (s *MemoryStore) RecentMessages(ctx context.Context, limit int) ([]core.StoredMessage, error) {
	s.mu.RLock()
	out := make([]core.StoredMessage, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, m)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b core.StoredMessage) int {
		return b.ProcessedAt.Compare(a.ProcessedAt)
	})
	return truncate(out, limit), nil
}

func (s *MemoryStore) RecentTopics(ctx context.Context, limit int) ([]core.Topic, error) {
	s.mu.RLock()
	out := make([]core.Topic, 0, len(s.topics))
	for _, t := range s.topics {
		out = append(out, t)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b core.Topic) int {
		return b.GeneratedAt.Compare(a.GeneratedAt)
	})
	return truncate(out, limit), nil
}

// Cleanup removes entries older than before
func (s *MemoryStore) Cleanup(ctx context.Context, before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, m := range s.messages {
		if m.ProcessedAt.Before(before) {
			delete(s.messages, id)
			expired++
		}
	}
	for id, t := range s.topics {
		if t.GeneratedAt.Before(before) {
			delete(s.topics, id)
			expired++
		}
	}
	kept := s.scans[:0]
	for _, l := range s.scans {
		if l.StartedAt.Before(before) {
			expired++
			continue
		}
		kept = append(kept, l)
	}
	s.scans = kept

	s.logger.Debug("Cleaned up expired store entries", zap.Int("expired_count", expired))
	return nil
}

func (s *MemoryStore) startCleanupTask() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Cleanup(context.Background(), time.Now().Add(-s.retention)); err != nil {
				s.logger.Error("Failed to clean up result store", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
