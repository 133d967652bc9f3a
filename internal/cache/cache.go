// Package cache provides a short-lived Redis cache for sanitized query
// results. Only post-redaction payloads are ever stored, so a cache read
// can be returned to an agent without another sanitization pass.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/sentinelops/aws-log-sentinel/internal/cloud"
	"github.com/sentinelops/aws-log-sentinel/internal/config"
	"github.com/sentinelops/aws-log-sentinel/internal/logger"
)

// QueryCache caches sanitized error reports keyed by query parameters
type QueryCache struct {
	client *redis.Client
	cfg    config.CacheConfig
	logger *logger.Logger
	stats  *cacheStats
}

// cacheStats tracks cache performance counters
type cacheStats struct {
	hits   int64
	misses int64
}

// Stats is a point-in-time snapshot of cache performance
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	TotalKeys int64   `json:"total_keys"`
}

// New creates a Redis-backed query cache and verifies the connection
func New(cfg config.CacheConfig, log *logger.Logger) (*QueryCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = cfg.MaxConnections
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Query cache initialized",
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.Duration("default_ttl", cfg.DefaultTTL),
	)

	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: log,
		stats:  &cacheStats{},
	}, nil
}

// ErrorReportKey derives a stable cache key for a recent-errors query
func (qc *QueryCache) ErrorReportKey(logGroup string, minutes int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", logGroup, minutes)))
	return fmt.Sprintf("%s:errors:%s", qc.cfg.KeyPrefix, hex.EncodeToString(sum[:])[:16])
}

// GetErrorReport returns a cached sanitized report, if present
func (qc *QueryCache) GetErrorReport(ctx context.Context, key string) (*cloud.ErrorReport, bool) {
	data, err := qc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		qc.stats.misses++
		return nil, false
	} else if err != nil {
		qc.logger.Error("Cache lookup failed", zap.Error(err))
		return nil, false
	}

	var report cloud.ErrorReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		qc.logger.Error("Failed to unmarshal cached report", zap.Error(err))
		// Drop the corrupted entry
		qc.client.Del(ctx, key)
		qc.stats.misses++
		return nil, false
	}

	qc.stats.hits++
	qc.logger.Debug("Cache hit", zap.String("key", key))
	return &report, true
}

// SetErrorReport stores a sanitized report with the default TTL
func (qc *QueryCache) SetErrorReport(ctx context.Context, key string, report *cloud.ErrorReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report for caching: %w", err)
	}

	if err := qc.client.Set(ctx, key, data, qc.cfg.DefaultTTL).Err(); err != nil {
		qc.logger.Error("Failed to cache report", zap.Error(err))
		return fmt.Errorf("failed to cache report: %w", err)
	}

	return nil
}

// GetStats returns cache performance statistics
func (qc *QueryCache) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Hits:   qc.stats.hits,
		Misses: qc.stats.misses,
	}

	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}

	keys, err := qc.client.DBSize(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis key count: %w", err)
	}
	stats.TotalKeys = keys

	return stats, nil
}

// Close closes the Redis connection
func (qc *QueryCache) Close() error {
	if qc.client != nil {
		return qc.client.Close()
	}
	return nil
}

// maskRedisURL masks credentials in a Redis URL for logging
func maskRedisURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
