package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/db"
	"github.com/kittylit/kittylit/internal/domain/book"
	"github.com/kittylit/kittylit/internal/domain/query"
)

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	scanFn func(ctx context.Context, pattern string) ([]string, error)
	getFn  func(ctx context.Context, key string) ([]byte, error)
	setFn  func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockKVStore) Ping(_ context.Context) error { return nil }

// sourceFunc adapts a function to Source.
type sourceFunc func(ctx context.Context) (map[string][]byte, error)

func (f sourceFunc) Load(ctx context.Context) (map[string][]byte, error) { return f(ctx) }

var testKey = query.Key{
	Band:         query.Band{Min: 7, Max: 8},
	BandIndex:    2,
	Genre:        "fantasy",
	ReadingLevel: "early",
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T, maxAge time.Duration) *Cache {
	t.Helper()
	c := New(maxAge, nil, zap.NewNop())
	c.now = func() time.Time { return fixedNow }
	return c
}

func testBooks() []book.Book {
	return []book.Book{
		book.Reconstruct(book.Fields{
			ID: "b1", ISBN: "978-1", Title: "Dragon Days", Author: "Ann Lee", AgeMin: 6, AgeMax: 9,
			Categories: []string{"fantasy"}, ReadingLevel: "early",
		}),
		book.Reconstruct(book.Fields{
			ID: "b2", ISBN: "978-2", Title: "Moon Map", Author: "Raj Patel", AgeMin: 7, AgeMax: 8,
			Categories: []string{"fantasy", "adventure"}, ReadingLevel: "early",
		}),
	}
}

func mustPayload(t *testing.T, createdAt time.Time, books []book.Book) []byte {
	t.Helper()
	data, err := EncodePayload(createdAt, books)
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	return data
}
