// Package cache holds recently computed analytics summaries in Redis so
// repeated dashboard loads within the TTL skip the full recompute.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v9"

	"github.com/clientpulse/internal/analytics"
	"github.com/clientpulse/pkg/models"
)

type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(addr string, password string, db int, prefix string, ttl time.Duration) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		// Connection pool settings
		PoolSize:        100,
		MinIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,

		// Timeouts
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// summaryKey derives a stable cache key from a range and filter set.
func summaryKey(r models.TimeRange, filters analytics.Filters) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		r.Start.UTC().Format(time.RFC3339),
		r.End.UTC().Format(time.RFC3339),
		filters.PlanType, filters.SuccessPackage,
		filters.ImplementationManager, filters.Status)
	sum := sha256.Sum256([]byte(raw))
	return "summary:" + hex.EncodeToString(sum[:16])
}

// GetSummary loads a cached summary. The second return reports a hit.
func (rc *RedisCache) GetSummary(ctx context.Context, r models.TimeRange, filters analytics.Filters) (*analytics.Summary, bool, error) {
	data, err := rc.client.Get(ctx, rc.prefix+":"+summaryKey(r, filters)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %v", err)
	}

	var summary analytics.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached summary: %v", err)
	}

	return &summary, true, nil
}

// SetSummary caches a summary under the cache TTL.
func (rc *RedisCache) SetSummary(ctx context.Context, r models.TimeRange, filters analytics.Filters, summary *analytics.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %v", err)
	}

	if err := rc.client.Set(ctx, rc.prefix+":"+summaryKey(r, filters), data, rc.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %v", err)
	}

	return nil
}

// Ping checks Redis connectivity.
func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Close releases the client.
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
