// Package dedupe remembers which message bodies already fed topic
// generation so later scans skip them.
package dedupe

import (
	"context"
	"sync"
	"time"
)

// MemoryIndex is a process-local SeenIndex. Entries expire after the TTL; a
// zero TTL keeps them for the life of the process.
type MemoryIndex struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex(ttl time.Duration) *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryIndex) Seen(ctx context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	markedAt, ok := m.entries[hash]
	if !ok {
		return false, nil
	}
	if m.ttl > 0 && m.now().Sub(markedAt) >= m.ttl {
		delete(m.entries, hash)
		return false, nil
	}
	return true, nil
}

func (m *MemoryIndex) Mark(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[hash] = m.now()
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted
func (m *MemoryIndex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
