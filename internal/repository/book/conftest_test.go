package book

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/db"
	"github.com/kittylit/kittylit/internal/domain/criteria"
	"github.com/kittylit/kittylit/internal/domain/query"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchFn      func(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, q *db.FilterQuery) (int, error)
	dropIndexFn   func(ctx context.Context, name string) error
	keys          []string
	deleted       []string
	pingErr       error
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) Search(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, q *db.FilterQuery) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, q)
	}
	return 0, nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) Scan(_ context.Context, _ string) ([]string, error) { return m.keys, nil }

func (m *mockStore) Del(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockStore) Ping(_ context.Context) error { return m.pingErr }

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, zap.NewNop()), ms
}

func strictCriteria(t *testing.T, age int, genre, level string) criteria.Criteria {
	t.Helper()
	d := query.DefaultDomain()
	q, err := query.NewNormalizer(d).Normalize(query.Raw{Age: &age, Genre: genre, ReadingLevel: level})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return criteria.Strict(&q, d, 50)
}

func hashFields(id string, ageMin, ageMax, level, categories string) map[string]string {
	return map[string]string{
		"id":            id,
		"isbn":          "978-" + id,
		"title":         "Title " + id,
		"author":        "Author",
		"age_min":       ageMin,
		"age_max":       ageMax,
		"categories":    categories,
		"reading_level": level,
	}
}
