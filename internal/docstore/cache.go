package docstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const contentKeyPrefix = "scribe:doc:content:"

// CachedStore decorates a DocumentStore with a redis content cache.
// Mutating callers invalidate explicitly after every append or update so a
// later fetch never serves stale content.
type CachedStore struct {
	DocumentStore

	client *redis.Client
	ttl    time.Duration
}

func NewCached(inner DocumentStore, client *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		DocumentStore: inner,
		client:        client,
		ttl:           ttl,
	}
}

func (c *CachedStore) FetchContent(ctx context.Context, ref string) (string, error) {
	cached, err := c.client.Get(ctx, contentKeyPrefix+ref).Result()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		// Cache trouble is not fatal; fall through to the source.
		slog.WarnContext(ctx, "document cache read failed", "ref", ref, "error", err)
	}

	content, err := c.DocumentStore.FetchContent(ctx, ref)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, contentKeyPrefix+ref, content, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "document cache write failed", "ref", ref, "error", err)
	}
	return content, nil
}

// Invalidate drops the cached copy of a document.
func (c *CachedStore) Invalidate(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := c.client.Del(ctx, contentKeyPrefix+ref).Err(); err != nil {
		slog.WarnContext(ctx, "document cache invalidation failed", "ref", ref, "error", err)
	}
}
