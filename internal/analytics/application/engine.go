package application

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"machine-analytics/internal/observability/metrics"
)

// Cache memoizes analyses by their full key.
type Cache interface {
	Get(ctx context.Context, key string) (*Analysis, bool, error)
	Set(ctx context.Context, key string, analysis *Analysis) error
}

// Engine runs the pipeline behind an optional cache.
// Concurrent requests for the same key share one computation.
// Returned analyses may be shared between callers and must not be modified.
type Engine struct {
	cache  Cache
	logger *log.Logger
	group  singleflight.Group
}

// NewEngine constructs an Engine. cache may be nil.
func NewEngine(cache Cache, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{cache: cache, logger: logger}
}

// CacheKey is the memoization key: dataset identity plus every parameter.
func CacheKey(in Input, params Params) string {
	return in.Name + "|" + in.Digest + "|" + params.Key()
}

// Analyze validates params and returns the analysis for in.
func (e *Engine) Analyze(ctx context.Context, in Input, params Params) (*Analysis, error) {
	start := time.Now()
	if err := params.Validate(); err != nil {
		metrics.ObserveAnalysis(metrics.ResultError, time.Since(start))
		return nil, err
	}

	key := CacheKey(in, params)
	if e.cache != nil && in.Digest != "" {
		cached, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			e.logger.Printf("analytics: cache get error: %v", err)
		}
		if ok {
			metrics.IncCacheLookup(true)
			metrics.ObserveAnalysis(metrics.ResultSuccess, time.Since(start))
			return cached, nil
		}
		metrics.IncCacheLookup(false)
	}

	value, err, _ := e.group.Do(key, func() (any, error) {
		analysis := Run(in, params)
		if e.cache != nil && in.Digest != "" {
			if err := e.cache.Set(ctx, key, analysis); err != nil {
				e.logger.Printf("analytics: cache set error: %v", err)
			}
		}
		return analysis, nil
	})
	if err != nil {
		metrics.ObserveAnalysis(metrics.ResultError, time.Since(start))
		return nil, err
	}
	metrics.ObserveAnalysis(metrics.ResultSuccess, time.Since(start))
	return value.(*Analysis), nil
}
