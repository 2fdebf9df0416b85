// Package cache stores produced artifacts in the backing store, keyed by
// request fingerprint. A degraded backing store never fails a request: reads
// degrade to a miss and writes are reported but non-fatal.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"animator/internal/domain"
	"animator/internal/infra"
	"animator/internal/store"
)

const keyPrefix = "artifact:"

// Cache is the artifact cache. DegradedHook, when set, is invoked once per
// backing-store failure so telemetry can count degraded-cache events.
type Cache struct {
	store        store.Store
	logger       infra.Logger
	now          func() time.Time
	DegradedHook func()
}

// New constructs a Cache over the given store.
func New(s store.Store, logger infra.Logger) *Cache {
	return &Cache{store: s, logger: logger, now: time.Now}
}

// SetClock overrides the cache's time source for tests.
func (c *Cache) SetClock(now func() time.Time) { c.now = now }

func (c *Cache) degraded(op, fp string, err error) {
	c.logger.Warn().Err(err).Str("fingerprint", fp).Str("op", op).Msg("cache: backing store degraded")
	if c.DegradedHook != nil {
		c.DegradedHook()
	}
}

// Get returns the cached artifact for fp, or false on miss. It never returns
// an error: a backing-store failure is logged and treated as a miss. Expired
// entries read as absent even when not yet physically evicted.
func (c *Cache) Get(ctx context.Context, fp string) (*domain.Artifact, bool) {
	raw, err := c.store.Get(ctx, keyPrefix+fp)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		c.degraded("get", fp, err)
		return nil, false
	}

	var artifact domain.Artifact
	if err := json.Unmarshal([]byte(raw), &artifact); err != nil {
		c.degraded("decode", fp, err)
		return nil, false
	}
	if artifact.Expired(c.now()) {
		return nil, false
	}
	return &artifact, true
}

// Put stores the artifact under fp with the given TTL, overwriting any
// existing entry. A persist failure is returned wrapped in ErrCacheDegraded;
// callers still hand the in-memory artifact to the requester.
func (c *Cache) Put(ctx context.Context, fp string, artifact domain.Artifact, ttl time.Duration) error {
	artifact.TTLSeconds = int(ttl / time.Second)
	raw, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("cache: encode artifact: %w", err)
	}
	if err := c.store.Set(ctx, keyPrefix+fp, string(raw), ttl); err != nil {
		c.degraded("put", fp, err)
		return fmt.Errorf("%w: %v", domain.ErrCacheDegraded, err)
	}
	c.logger.Debug().Str("fingerprint", fp).Dur("ttl", ttl).Msg("cache: stored artifact")
	return nil
}

// Invalidate removes the entry for fp. Administrative use only; the request
// path never calls it.
func (c *Cache) Invalidate(ctx context.Context, fp string) error {
	if err := c.store.Del(ctx, keyPrefix+fp); err != nil {
		c.degraded("invalidate", fp, err)
		return fmt.Errorf("%w: %v", domain.ErrCacheDegraded, err)
	}
	return nil
}
