package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

func TestMemoryIndexMarkAndSeen(t *testing.T) {
	idx := NewMemoryIndex(0)
	ctx := context.Background()

	seen, err := idx.Seen(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, idx.Mark(ctx, "h1"))

	seen, err = idx.Seen(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, _ = idx.Seen(ctx, "h2")
	assert.False(t, seen)
}

func TestMemoryIndexExpiry(t *testing.T) {
	idx := NewMemoryIndex(time.Hour)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	idx.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, idx.Mark(ctx, "h1"))

	now = now.Add(59 * time.Minute)
	seen, _ := idx.Seen(ctx, "h1")
	assert.True(t, seen)

	now = now.Add(time.Minute)
	seen, _ = idx.Seen(ctx, "h1")
	assert.False(t, seen)
	assert.Equal(t, 0, idx.Len())
}

func TestRedisIndexKeyPrefix(t *testing.T) {
	idx := newRedisIndex(nil, "topic-scanner:seen:", time.Hour, nil)
	assert.Equal(t, "topic-scanner:seen:abc", idx.key("abc"))
}

func TestRedisIndexUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	idx := newRedisIndex(client, "p:", time.Hour, nil)

	_, err := idx.Seen(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.ErrStore))

	err = idx.Mark(context.Background(), "abc")
	assert.True(t, core.IsKind(err, core.ErrStore))
}
