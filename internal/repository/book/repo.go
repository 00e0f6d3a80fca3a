package book

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/db"
	"github.com/kittylit/kittylit/internal/domain"
	dombook "github.com/kittylit/kittylit/internal/domain/book"
	"github.com/kittylit/kittylit/internal/domain/criteria"
	"github.com/kittylit/kittylit/internal/domain/filter"
)

var (
	keyPrefix = domain.KeyPrefix + "book:"
	indexName = domain.KeyPrefix + "books:idx"
)

// returnFields limits FT.SEARCH output to the record attributes.
var returnFields = []string{
	"id", "isbn", "title", "author", "age_min", "age_max", "categories", "reading_level", "safety_flags",
}

// store is the consumer interface for the book store (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	DropIndex(ctx context.Context, name string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
	Search(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, q *db.FilterQuery) (int, error)
	Ping(ctx context.Context) error
}

// Repo is the Redis-backed book store: one hash per record, queried through an FT index.
type Repo struct {
	store  store
	logger *zap.Logger
}

// New creates a book repository.
func New(s store, logger *zap.Logger) *Repo {
	return &Repo{store: s, logger: logger}
}

// EnsureIndex creates the book index when it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", indexName, err)
	}
	if exists {
		return nil
	}
	if err := r.store.CreateIndex(ctx, buildIndex()); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", indexName, err)
	}
	return nil
}

// Save upserts records in a single pipelined round-trip.
func (r *Repo) Save(ctx context.Context, books []dombook.Book) error {
	items := make([]db.HashSetItem, len(books))
	for i := range books {
		items[i] = db.HashSetItem{Key: keyPrefix + books[i].ID(), Fields: bookToHash(&books[i])}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("save %d books: %w", len(books), err)
	}
	return nil
}

// Query returns records matching c, ordered by identifier.
// Hydration failures are skipped and logged; the index cannot enforce the record invariant.
func (r *Repo) Query(ctx context.Context, c criteria.Criteria) ([]dombook.Book, error) {
	expr, err := buildFilter(&c)
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}

	result, err := r.store.Search(ctx, &db.FilterQuery{
		IndexName:    indexName,
		Filters:      expr,
		Limit:        c.Limit,
		SortBy:       "id",
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	if result == nil {
		return nil, nil
	}

	books := make([]dombook.Book, 0, len(result.Entries))
	for _, e := range result.Entries {
		b, err := bookFromHash(e.Fields)
		if err != nil {
			r.logger.Warn("skip malformed book record",
				zap.String("key", e.Key), zap.Error(err))
			continue
		}
		if !c.Matches(&b) {
			continue
		}
		books = append(books, b)
	}
	return books, nil
}

// Reset drops the book index and deletes every book record.
// The index is recreated by the next EnsureIndex.
func (r *Repo) Reset(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, indexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", indexName, err)
	}
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("scan books: %w", err)
	}
	for _, k := range keys {
		if err := r.store.Del(ctx, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	r.logger.Info("Book store reset", zap.Int("deleted", len(keys)))
	return nil
}

// Count returns the number of indexed records.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, &db.FilterQuery{IndexName: indexName})
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// Ping checks connectivity to the underlying store.
func (r *Repo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func buildIndex() *db.IndexDefinition {
	return db.NewIndex(indexName).
		Prefix(keyPrefix).
		Tag("id").Sortable().
		TagList("categories", tagSeparator).
		Numeric("age_min").
		Numeric("age_max").
		Tag("reading_level").
		TagList("safety_flags", tagSeparator).
		Text("title").
		Text("author").
		MustBuild()
}

// buildFilter expresses c as index conditions: genre tag, age_min in [WindowMin, Age],
// age_max in [AgeThrough, WindowMax] and reading level in the accepted set.
// Unbounded criteria leave the window side of both ranges open.
func buildFilter(c *criteria.Criteria) (filter.Expression, error) {
	if len(c.ReadingLevels) == 0 {
		return filter.Expression{}, fmt.Errorf("criteria accepts no reading level")
	}
	genre, err := filter.NewMatch("categories", strings.ToLower(c.Genre))
	if err != nil {
		return filter.Expression{}, err
	}
	levels, err := filter.NewMatch("reading_level", c.ReadingLevels...)
	if err != nil {
		return filter.Expression{}, err
	}

	from, through := float64(c.Age), float64(c.AgeThrough)
	var lo, hi *float64
	if !c.Unbounded {
		wMin, wMax := float64(c.WindowMin), float64(c.WindowMax)
		lo, hi = &wMin, &wMax
	}
	minRange, err := filter.NewRangeFilter(lo, &from)
	if err != nil {
		return filter.Expression{}, err
	}
	maxRange, err := filter.NewRangeFilter(&through, hi)
	if err != nil {
		return filter.Expression{}, err
	}
	ageMin, _ := filter.NewRange("age_min", minRange)
	ageMax, _ := filter.NewRange("age_max", maxRange)

	return filter.NewExpression([]filter.Condition{genre, ageMin, ageMax, levels}, nil)
}
