package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"betledger/internal/log"
)

// RedisCache stores JSON-encoded values in Redis, so several instances of
// the service share one cache.
type RedisCache[T any] struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

var _ Cache[int] = (*RedisCache[int])(nil)

// NewRedisClient parses url (redis://...) and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedisCache[T any](client *redis.Client, ttl time.Duration, logger *log.Logger) *RedisCache[T] {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RedisCache[T]{client: client, ttl: ttl, logger: logger.WithComponent(log.ComponentCache)}
}

func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var v T
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Redis get failed", "key", key, log.FieldError, err)
		}
		return v, false
	}
	if err := json.Unmarshal(b, &v); err != nil {
		c.logger.WarnContext(ctx, "Dropping undecodable cache entry", "key", key, log.FieldError, err)
		c.Delete(ctx, key)
		var zero T
		return zero, false
	}
	return v, true
}

func (c *RedisCache[T]) Set(ctx context.Context, key string, data T) {
	b, err := json.Marshal(data)
	if err != nil {
		c.logger.WarnContext(ctx, "Cache value not encodable", "key", key, log.FieldError, err)
		return
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis set failed", "key", key, log.FieldError, err)
	}
}

func (c *RedisCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis delete failed", "key", key, log.FieldError, err)
	}
}

// DeletePrefix walks the keyspace with SCAN; KEYS would block the server.
func (c *RedisCache[T]) DeletePrefix(ctx context.Context, prefix string) int {
	removed := 0
	iter := c.client.Scan(ctx, 0, escapeGlob(prefix)+"*", 100).Iterator()
	var batch []string
	flush := func() {
		if len(batch) == 0 {
			return
		}
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			c.logger.WarnContext(ctx, "Redis delete failed", "prefix", prefix, log.FieldError, err)
		}
		removed += int(n)
		batch = batch[:0]
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			flush()
		}
	}
	flush()
	if err := iter.Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis scan failed", "prefix", prefix, log.FieldError, err)
	}
	return removed
}

// escapeGlob quotes the MATCH metacharacters so that prefix is taken literally.
func escapeGlob(prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix))
	for _, r := range prefix {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
