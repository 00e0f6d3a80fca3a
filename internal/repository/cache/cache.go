package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/domain"
	"github.com/kittylit/kittylit/internal/domain/candidate"
	"github.com/kittylit/kittylit/internal/domain/lookup"
	"github.com/kittylit/kittylit/internal/domain/query"
)

// Source produces a full set of bucket payloads keyed by query.Key.String().
type Source interface {
	Load(ctx context.Context) (map[string][]byte, error)
}

type snapshot struct {
	entries  map[string][]byte
	loadedAt time.Time
}

// Cache is an in-memory, preloaded snapshot of bucket payloads.
// Lookups never block on I/O; Replace swaps the whole snapshot atomically.
type Cache struct {
	snap    atomic.Pointer[snapshot]
	maxAge  time.Duration
	now     func() time.Time
	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New creates an empty cache. maxAge <= 0 disables staleness checks.
// lookups is a counter vec with label "outcome", passed explicitly (may be nil).
func New(maxAge time.Duration, lookups *prometheus.CounterVec, logger *zap.Logger) *Cache {
	c := &Cache{
		maxAge:  maxAge,
		now:     time.Now,
		lookups: lookups,
		logger:  logger,
	}
	c.snap.Store(&snapshot{entries: map[string][]byte{}})
	return c
}

// Lookup reads the bucket for key.
// A malformed payload is reported as a CacheIntegrityWarning and treated as empty.
func (c *Cache) Lookup(key query.Key) lookup.Result {
	k := key.String()
	raw, ok := c.snap.Load().entries[k]
	if !ok {
		return c.result(lookup.Result{Outcome: lookup.Miss})
	}

	createdAt, books, err := decodePayload(raw)
	if err != nil {
		w := &domain.CacheIntegrityWarning{Key: k, Reason: err.Error()}
		c.logger.Warn("Cache payload rejected", zap.String("key", k), zap.Error(w))
		return c.result(lookup.Result{Outcome: lookup.Corrupt, Warning: w})
	}

	if c.maxAge > 0 && c.now().Sub(createdAt) > c.maxAge {
		return c.result(lookup.Result{Outcome: lookup.Stale})
	}
	if len(books) == 0 {
		return c.result(lookup.Result{Outcome: lookup.Miss})
	}

	return c.result(lookup.Result{
		Outcome:    lookup.Hit,
		Candidates: candidate.FromBooks(books, candidate.SourceCache),
	})
}

// Replace swaps in a new snapshot (last writer wins).
func (c *Cache) Replace(entries map[string][]byte) {
	if entries == nil {
		entries = map[string][]byte{}
	}
	c.snap.Store(&snapshot{entries: entries, loadedAt: c.now()})
}

// Len returns the number of buckets in the current snapshot.
func (c *Cache) Len() int {
	return len(c.snap.Load().entries)
}

// LoadedAt returns when the current snapshot was installed (zero before the first load).
func (c *Cache) LoadedAt() time.Time {
	return c.snap.Load().loadedAt
}

// Refresh loads a full snapshot from src and installs it.
// On failure the previous snapshot stays in place.
func (c *Cache) Refresh(ctx context.Context, src Source) error {
	entries, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cache snapshot: %w", err)
	}
	c.Replace(entries)
	c.logger.Info("Cache snapshot installed", zap.Int("buckets", len(entries)))
	return nil
}

// RunRefresh refreshes from src every interval until ctx is done.
func (c *Cache) RunRefresh(ctx context.Context, src Source, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx, src); err != nil {
				c.logger.Warn("Cache refresh failed, keeping previous snapshot", zap.Error(err))
			}
		}
	}
}

func (c *Cache) result(l lookup.Result) lookup.Result {
	if c.lookups != nil {
		c.lookups.WithLabelValues(string(l.Outcome)).Inc()
	}
	return l
}
