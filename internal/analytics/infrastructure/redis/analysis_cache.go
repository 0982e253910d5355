package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"machine-analytics/internal/analytics/application"
)

const (
	// DefaultTTL bounds how long an analysis stays memoized.
	DefaultTTL = 15 * time.Minute

	keyPrefix = "analysis:"
)

// AnalysisCache stores analyses as JSON in Redis.
//
// Key format: analysis:{sha256(key)}
type AnalysisCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewAnalysisCache constructs a cache. A non-positive ttl uses DefaultTTL.
func NewAnalysisCache(client *goredis.Client, ttl time.Duration) (*AnalysisCache, error) {
	if client == nil {
		return nil, errors.New("redis: nil client")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AnalysisCache{client: client, ttl: ttl}, nil
}

// Get loads an analysis by key.
func (c *AnalysisCache) Get(ctx context.Context, key string) (*application.Analysis, bool, error) {
	raw, err := c.client.Get(ctx, storageKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get: %w", err)
	}
	var analysis application.Analysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, false, fmt.Errorf("redis: decode: %w", err)
	}
	return &analysis, true, nil
}

// Set stores analysis under key with the configured TTL.
func (c *AnalysisCache) Set(ctx context.Context, key string, analysis *application.Analysis) error {
	if analysis == nil {
		return nil
	}
	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("redis: encode: %w", err)
	}
	if err := c.client.Set(ctx, storageKey(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set: %w", err)
	}
	return nil
}

func storageKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return keyPrefix + hex.EncodeToString(sum[:])
}
