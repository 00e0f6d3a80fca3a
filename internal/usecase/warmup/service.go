// Package warmup precomputes recommendation cache buckets from the book store.
package warmup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kittylit/kittylit/internal/domain/criteria"
	"github.com/kittylit/kittylit/internal/domain/query"
	"github.com/kittylit/kittylit/internal/repository/cache"
)

// DefaultConcurrency bounds parallel book store queries during a build.
const DefaultConcurrency = 4

// Report summarizes one warm-up run.
type Report struct {
	Buckets int // buckets written
	Empty   int // buckets with no matching books, not written
	Books   int // book entries across all written buckets
}

// Builder computes one payload per band × genre × reading level.
type Builder struct {
	store       BookStore
	dom         query.Domain
	fetchLimit  int
	concurrency int
	now         func() time.Time
	logger      *zap.Logger
}

// New creates a Builder. concurrency <= 0 uses DefaultConcurrency.
func New(store BookStore, dom query.Domain, fetchLimit, concurrency int, logger *zap.Logger) *Builder {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Builder{
		store:       store,
		dom:         dom,
		fetchLimit:  fetchLimit,
		concurrency: concurrency,
		now:         time.Now,
		logger:      logger,
	}
}

// Load builds every non-empty bucket. It satisfies cache.Source, so the in-memory
// cache can be warmed straight from the book store.
func (b *Builder) Load(ctx context.Context) (map[string][]byte, error) {
	entries := make(map[string][]byte)
	var mu sync.Mutex
	_, err := b.build(ctx, func(_ context.Context, bucket string, payload []byte) error {
		mu.Lock()
		entries[bucket] = payload
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Warm builds every bucket and writes the non-empty ones to w with the given TTL.
func (b *Builder) Warm(ctx context.Context, w BucketWriter, ttl time.Duration) (Report, error) {
	report, err := b.build(ctx, func(ctx context.Context, bucket string, payload []byte) error {
		return w.Put(ctx, bucket, payload, ttl)
	})
	if err != nil {
		return Report{}, err
	}
	b.logger.Info("Cache warm-up complete",
		zap.Int("buckets", report.Buckets),
		zap.Int("empty", report.Empty),
		zap.Int("books", report.Books),
	)
	return report, nil
}

func (b *Builder) build(
	ctx context.Context, emit func(ctx context.Context, bucket string, payload []byte) error,
) (Report, error) {
	createdAt := b.now()
	keys := b.dom.Keys()

	var (
		mu     sync.Mutex
		report Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for _, k := range keys {
		g.Go(func() error {
			books, err := b.store.Query(gctx, criteria.ForKey(k, b.dom, b.fetchLimit))
			if err != nil {
				return fmt.Errorf("query bucket %s: %w", k, err)
			}
			if len(books) == 0 {
				mu.Lock()
				report.Empty++
				mu.Unlock()
				return nil
			}

			payload, err := cache.EncodePayload(createdAt, books)
			if err != nil {
				return fmt.Errorf("encode bucket %s: %w", k, err)
			}
			if err := emit(gctx, k.String(), payload); err != nil {
				return err
			}

			mu.Lock()
			report.Buckets++
			report.Books += len(books)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("warm-up: %w", err)
	}
	return report, nil
}
