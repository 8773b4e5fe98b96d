// internal/documents/cache.go
package documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/metrics"
	"gradabroad-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "gradabroad:documents:"

// Cache keeps complete document statuses in redis, keyed by a hash of the
// bearer token so raw tokens never reach redis. A nil *Cache is a disabled
// cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewCache returns nil when ttl is not positive.
func NewCache(client *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Cache{client: client, ttl: ttl, logger: log}
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get never fails; lookup errors are logged and count as a miss.
func (c *Cache) Get(ctx context.Context, token string) (*models.DocumentStatus, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.DocumentCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.DocumentCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("document cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}

	var status models.DocumentStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		metrics.DocumentCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("document cache entry corrupt", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	metrics.DocumentCacheLookups.WithLabelValues("hit").Inc()
	return &status, true
}

func (c *Cache) Set(ctx context.Context, token string, status *models.DocumentStatus) {
	if c == nil || status == nil {
		return
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(token), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("document cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

// Invalidate drops the cached status for token, e.g. after new uploads.
func (c *Cache) Invalidate(ctx context.Context, token string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(token)).Err(); err != nil {
		c.logger.Warn("document cache invalidate failed", map[string]interface{}{"error": err.Error()})
	}
}
