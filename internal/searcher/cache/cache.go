// Package cache memoizes search results in Redis. Concurrent identical
// misses are collapsed with singleflight and Redis failures trip a circuit
// breaker so that a sick cache degrades to plain computation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/course-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/resilience"
)

const keyPrefix = "course-search:"

// Store is the subset of the Redis client the cache uses.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Key identifies one cacheable search call.
type Key struct {
	Kind     string
	Query    string
	Strategy string
	Category string
	Limit    int
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	metrics *metrics.Metrics
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New builds a cache over store. m may be nil.
func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	cfg := resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
	if m != nil {
		m.CircuitBreakerState.WithLabelValues("redis-cache").Set(float64(resilience.StateClosed))
		cfg.OnStateChange = func(name string, _, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	}
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		breaker: resilience.NewCircuitBreaker("redis-cache", cfg),
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BreakerState reports the circuit state guarding the store.
func (c *QueryCache) BreakerState() resilience.State {
	return c.breaker.GetState()
}

func (c *QueryCache) Breaker() resilience.Snapshot {
	return c.breaker.Snapshot()
}

func (c *QueryCache) Get(ctx context.Context, key Key) (*executor.SearchResult, bool) {
	k := buildKey(key)
	var data string
	err := c.breaker.Execute(func() error {
		v, err := c.store.Get(ctx, k)
		if pkgredis.IsNilError(err) {
			return nil
		}
		data = v
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", k, "error", err)
		}
		c.miss()
		return nil, false
	}
	if data == "" {
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", k, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	c.logger.Debug("cache hit", "query", key.Query, "key", k)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, key Key, result *executor.SearchResult) {
	k := buildKey(key)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", k, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, k, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", k, "error", err)
	}
}

// GetOrCompute returns the cached result for key or computes, stores and
// returns it. The boolean reports a cache hit. The returned Query always
// echoes the caller's query text.
func (c *QueryCache) GetOrCompute(ctx context.Context, key Key, compute func() (*executor.SearchResult, error)) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, key); ok {
		result.Query = key.Query
		return result, true, nil
	}
	val, err, _ := c.group.Do(buildKey(key), func() (any, error) {
		if result, ok := c.Get(ctx, key); ok {
			return result, nil
		}
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	shared := *val.(*executor.SearchResult)
	shared.Query = key.Query
	return &shared, false, nil
}

func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the cleaned query tokens, so queries that differ only in
// case, accents or stop-words share an entry.
func buildKey(key Key) string {
	normalized := strings.Join(tokenizer.Preprocess(key.Query), " ")
	raw := fmt.Sprintf("%s|%s|%s|%s|limit=%d",
		key.Kind, normalized, key.Strategy, strings.ToLower(strings.TrimSpace(key.Category)), key.Limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, key.Kind, hash[:16])
}
