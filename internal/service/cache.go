package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/complyon/kycengine/internal/report"
	"github.com/complyon/kycengine/internal/screening"
)

// Cache stores assembled reports keyed by subject fingerprint so repeated
// screenings of an unchanged subject skip the engines. The key embeds the
// watchlist snapshot generation, so a refresh orphans stale entries and
// the TTL only bounds their memory, not their visibility.
type Cache interface {
	Get(ctx context.Context, key string) (*report.Report, bool)
	Set(ctx context.Context, key string, r *report.Report)
}

// cacheKey fingerprints the watchlist generation, the subject and the
// options that change the outcome.
func cacheKey(gen uint64, subject screening.Subject, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "gen:%d|", gen)
	fmt.Fprintf(&b, "%s|%s|%s|%s|%s|%s|%v|%v|%v|%.2f",
		screening.NormalizeName(subject.Name), subject.EntityType,
		subject.Nationality, subject.ResidenceCountry, subject.Industry,
		subject.CustomerType, subject.ComplexStructure, subject.OffshoreElements,
		opts.Fuzzy, opts.SanctionsThreshold)
	if subject.DateOfBirth != nil {
		fmt.Fprintf(&b, "|%s", subject.DateOfBirth.Format("2006-01-02"))
	}
	for _, c := range subject.BusinessCountries {
		fmt.Fprintf(&b, "|%s", c)
	}
	for _, item := range opts.AdverseMedia {
		fmt.Fprintf(&b, "|media:%s", item)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return "kyc:screening:" + hex.EncodeToString(sum[:16])
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*report.Report, bool) { return nil, false }
func (nopCache) Set(context.Context, string, *report.Report)        {}

// MemoryCache is a TTL-bounded in-process cache, the fallback when no
// Redis endpoint is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	report  *report.Report
	expires time.Time
}

// NewMemoryCache creates an in-process cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: map[string]memoryEntry{}}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*report.Report, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.report, true
}

func (c *MemoryCache) Set(_ context.Context, key string, r *report.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Opportunistic sweep keeps the map from growing unbounded.
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryEntry{report: r, expires: now.Add(c.ttl)}
}

// RedisCache shares screening results across instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewRedisCache creates a cache backed by the given Redis client.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*report.Report, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warnw("screening cache read failed", "error", err)
		}
		return nil, false
	}
	var r report.Report
	if err := json.Unmarshal(payload, &r); err != nil {
		c.logger.Warnw("screening cache entry corrupt, dropping", "key", key, "error", err)
		c.client.Del(ctx, key)
		return nil, false
	}
	return &r, true
}

func (c *RedisCache) Set(ctx context.Context, key string, r *report.Report) {
	payload, err := json.Marshal(r)
	if err != nil {
		c.logger.Warnw("screening cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warnw("screening cache write failed", "error", err)
	}
}
