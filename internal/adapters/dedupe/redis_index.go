package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

// RedisIndex is a SeenIndex shared between scanner instances. Each hash is a
// key under the configured prefix with the TTL as expiry.
type RedisIndex struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisIndex connects to Redis and checks the connection
func NewRedisIndex(opts *redis.Options, prefix string, ttl time.Duration, logger *zap.Logger) (*RedisIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	logger.Info("Connected to Redis dedupe index", zap.String("address", opts.Addr))

	return newRedisIndex(client, prefix, ttl, logger), nil
}

func newRedisIndex(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *RedisIndex {
	return &RedisIndex{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (r *RedisIndex) key(hash string) string {
	return r.prefix + hash
}

func (r *RedisIndex) Seen(ctx context.Context, hash string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(hash)).Result()
	if err != nil {
		return false, core.WrapError(core.ErrStore, "dedupe lookup", err)
	}
	return n > 0, nil
}

func (r *RedisIndex) Mark(ctx context.Context, hash string) error {
	if err := r.client.Set(ctx, r.key(hash), time.Now().Unix(), r.ttl).Err(); err != nil {
		return core.WrapError(core.ErrStore, "dedupe mark", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisIndex) Close() error {
	return r.client.Close()
}
