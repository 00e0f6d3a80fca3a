// Package app assembles the service components from configuration.
// It is the composition root shared by the API server and the maintenance CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/config"
	dbRedis "github.com/kittylit/kittylit/internal/db/redis"
	"github.com/kittylit/kittylit/internal/domain/book"
	"github.com/kittylit/kittylit/internal/domain/criteria"
	"github.com/kittylit/kittylit/internal/domain/query"
	"github.com/kittylit/kittylit/internal/domain/safety"
	"github.com/kittylit/kittylit/internal/metrics"
	bookrepo "github.com/kittylit/kittylit/internal/repository/book"
	"github.com/kittylit/kittylit/internal/repository/booksql"
	"github.com/kittylit/kittylit/internal/repository/cache"
	healthuc "github.com/kittylit/kittylit/internal/usecase/health"
	"github.com/kittylit/kittylit/internal/usecase/recommend"
	"github.com/kittylit/kittylit/internal/usecase/warmup"
)

// BookStore is the full book store surface used by the service and the CLI.
type BookStore interface {
	Query(ctx context.Context, c criteria.Criteria) ([]book.Book, error)
	Save(ctx context.Context, books []book.Book) error
	EnsureIndex(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Stores holds the open backing connections.
type Stores struct {
	Books   BookStore
	Redis   *dbRedis.Store // nil unless a Redis connection is configured
	closers []func()
}

// OpenStores connects the configured book store, and Redis when the cache preloads from it.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	s := &Stores{}

	needRedis := cfg.Database.Driver == config.DriverRedis || cfg.Cache.Preload == config.PreloadRedis
	if needRedis {
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		s.closers = append(s.closers, rs.Close)
		if err := rs.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			s.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		s.Redis = rs
	}

	switch cfg.Database.Driver {
	case config.DriverRedis:
		s.Books = bookrepo.New(s.Redis, logger)
	case config.DriverSQLite:
		repo, err := booksql.Open(ctx, cfg.Database.Path, logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open sqlite book store: %w", err)
		}
		s.closers = append(s.closers, func() { _ = repo.Close() })
		s.Books = repo
	default:
		s.Close()
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	return s, nil
}

// Close releases every connection in reverse order of opening.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Domain builds and validates the query domain.
func Domain(cfg *config.DomainConfig) (query.Domain, error) {
	bands := make([]query.Band, len(cfg.Bands))
	for i, b := range cfg.Bands {
		bands[i] = query.Band{Min: b.Min, Max: b.Max}
	}
	d := query.Domain{
		MinAge:        cfg.MinAge,
		MaxAge:        cfg.MaxAge,
		Genres:        cfg.Genres,
		ReadingLevels: cfg.ReadingLevels,
		Bands:         bands,
		MaxHintLength: cfg.MaxHintLength,
	}
	if err := d.Validate(); err != nil {
		return query.Domain{}, fmt.Errorf("domain: %w", err)
	}
	return d, nil
}

// Policy builds and validates the rule engine policy.
func Policy(cfg *config.RecommendConfig) (recommend.Policy, error) {
	p := recommend.DefaultPolicy()
	p.SufficientCandidates = cfg.SufficientCandidates
	p.MinCandidates = cfg.MinCandidates
	p.MaxResults = cfg.MaxResults
	p.FetchLimit = cfg.FetchLimit
	if cfg.WidenSteps != nil {
		p.WidenSteps = *cfg.WidenSteps
	}
	p.WidenBands = cfg.WidenBands
	p.Weights = recommend.Weights{
		Category:     cfg.Weights.Category,
		AgeBand:      cfg.Weights.AgeBand,
		ReadingLevel: cfg.Weights.ReadingLevel,
		Hint:         cfg.Weights.Hint,
	}
	if err := p.Validate(); err != nil {
		return recommend.Policy{}, fmt.Errorf("recommend policy: %w", err)
	}
	return p, nil
}

// Ruleset builds the safety ruleset.
func Ruleset(cfg *config.SafetyConfig) safety.Ruleset {
	requireISBN := cfg.RequireISBN == nil || *cfg.RequireISBN
	return safety.NewRuleset(cfg.BlockedFlags, requireISBN)
}

// Breaker converts breaker configuration.
func Breaker(cfg *config.BreakerConfig) recommend.BreakerSettings {
	return recommend.BreakerSettings{
		MaxRequests:      uint32(max(cfg.MaxRequests, 1)), //nolint:gosec // bounded by config validation
		Interval:         time.Duration(cfg.IntervalSec) * time.Second,
		Timeout:          time.Duration(cfg.TimeoutSec) * time.Second,
		FailureThreshold: uint32(max(cfg.FailureThreshold, 1)), //nolint:gosec // bounded by config validation
	}
}

// Service is the assembled recommendation pipeline.
type Service struct {
	Recommender *recommend.Service
	Normalizer  *query.Normalizer
	Cache       *cache.Cache
	Builder     *warmup.Builder
	Health      *healthuc.Service

	source cache.Source
}

// Build wires the recommendation pipeline on top of open stores.
// The cache is empty until LoadCache is called.
func Build(cfg *config.Config, stores *Stores, logger *zap.Logger) (*Service, error) {
	dom, err := Domain(&cfg.Domain)
	if err != nil {
		return nil, err
	}
	policy, err := Policy(&cfg.Recommend)
	if err != nil {
		return nil, err
	}

	c := cache.New(time.Duration(cfg.Cache.MaxAgeHours)*time.Hour, metrics.CacheLookupsTotal, logger)
	builder := warmup.New(stores.Books, dom, policy.FetchLimit, cfg.Cache.WarmConcurrency, logger)

	var (
		source      cache.Source
		cachePinger healthuc.Pinger
	)
	switch cfg.Cache.Preload {
	case config.PreloadRedis:
		rs := cache.NewRedisSource(stores.Redis)
		source, cachePinger = rs, rs
	case config.PreloadDatabase:
		source = builder
	}

	guarded := recommend.NewGuardedStore(
		stores.Books,
		time.Duration(cfg.Database.QueryTimeoutMS)*time.Millisecond,
		Breaker(&cfg.Breaker),
		logger,
	)

	return &Service{
		Recommender: recommend.New(c, guarded, dom, policy, Ruleset(&cfg.Safety), recommend.NewLogSink(logger), logger),
		Normalizer:  query.NewNormalizer(dom),
		Cache:       c,
		Builder:     builder,
		Health:      healthuc.New(stores.Books, cachePinger),
		source:      source,
	}, nil
}

// LoadCache installs the initial snapshot. Without a preload source the cache stays empty.
func (s *Service) LoadCache(ctx context.Context) error {
	if s.source == nil {
		return nil
	}
	return s.Cache.Refresh(ctx, s.source)
}

// RefreshCache reloads the snapshot every interval until ctx is done.
func (s *Service) RefreshCache(ctx context.Context, interval time.Duration) {
	if s.source == nil || interval <= 0 {
		return
	}
	s.Cache.RunRefresh(ctx, s.source, interval)
}
