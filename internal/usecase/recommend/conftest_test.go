package recommend

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/domain/book"
	"github.com/kittylit/kittylit/internal/domain/candidate"
	"github.com/kittylit/kittylit/internal/domain/criteria"
	"github.com/kittylit/kittylit/internal/domain/lookup"
	"github.com/kittylit/kittylit/internal/domain/query"
	"github.com/kittylit/kittylit/internal/domain/response"
	"github.com/kittylit/kittylit/internal/domain/safety"
)

// --- Mocks ---

type mockCache struct {
	result lookup.Result
	keys   []query.Key
}

func (m *mockCache) Lookup(key query.Key) lookup.Result {
	m.keys = append(m.keys, key)
	return m.result
}

type mockStore struct {
	mu      sync.Mutex
	queryFn func(ctx context.Context, c criteria.Criteria) ([]book.Book, error)
	calls   []criteria.Criteria
}

func (m *mockStore) Query(ctx context.Context, c criteria.Criteria) ([]book.Book, error) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
	if m.queryFn != nil {
		return m.queryFn(ctx, c)
	}
	return nil, nil
}

func (m *mockStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type recordingSink struct {
	events    []Event
	completed []response.Response
}

func (s *recordingSink) Decision(_ context.Context, e Event) { s.events = append(s.events, e) }

func (s *recordingSink) Completed(_ context.Context, resp *response.Response) {
	s.completed = append(s.completed, *resp)
}

// --- Helpers ---

func newTestService(c Cache, s BookStore, sink DecisionSink) *Service {
	return New(c, s, query.DefaultDomain(), DefaultPolicy(), safety.DefaultRuleset(), sink, zap.NewNop())
}

func mustQuery(t *testing.T, age int, genre, level string) query.Query {
	t.Helper()
	q, err := query.NewNormalizer(query.DefaultDomain()).Normalize(query.Raw{
		Age:          &age,
		Genre:        genre,
		ReadingLevel: level,
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return q
}

// mustBook builds a fantasy book for ages 7-8 at early level, then applies opts.
func mustBook(t *testing.T, id string, opts ...func(*book.Fields)) book.Book {
	t.Helper()
	f := book.Fields{
		ID:           id,
		ISBN:         "978" + id,
		Title:        "Title " + id,
		Author:       "Author " + id,
		AgeMin:       7,
		AgeMax:       8,
		Categories:   []string{"fantasy"},
		ReadingLevel: "early",
	}
	for _, o := range opts {
		o(&f)
	}
	b, err := book.New(f)
	if err != nil {
		t.Fatalf("book %s: %v", id, err)
	}
	return b
}

func ages(lo, hi int) func(*book.Fields) {
	return func(f *book.Fields) { f.AgeMin, f.AgeMax = lo, hi }
}

func level(l string) func(*book.Fields) {
	return func(f *book.Fields) { f.ReadingLevel = l }
}

func categories(cs ...string) func(*book.Fields) {
	return func(f *book.Fields) { f.Categories = cs }
}

func flags(fs ...string) func(*book.Fields) {
	return func(f *book.Fields) { f.SafetyFlags = fs }
}

func title(s string) func(*book.Fields) {
	return func(f *book.Fields) { f.Title = s }
}

func cacheHit(books ...book.Book) *mockCache {
	return &mockCache{result: lookup.Result{
		Candidates: candidate.FromBooks(books, candidate.SourceCache),
		Outcome:    lookup.Hit,
	}}
}

func cacheMiss() *mockCache {
	return &mockCache{result: lookup.Result{Outcome: lookup.Miss}}
}

func returning(books ...book.Book) func(context.Context, criteria.Criteria) ([]book.Book, error) {
	return func(context.Context, criteria.Criteria) ([]book.Book, error) { return books, nil }
}

func itemIDs(items []response.Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func stepRules(resp *response.Response) []string {
	rules := make([]string, len(resp.Metadata.Trace))
	for i, s := range resp.Metadata.Trace {
		rules[i] = s.Rule
	}
	return rules
}

// catalogue answers store queries by matching criteria against a fixed book list.
func catalogue(books ...book.Book) func(context.Context, criteria.Criteria) ([]book.Book, error) {
	return func(_ context.Context, c criteria.Criteria) ([]book.Book, error) {
		var out []book.Book
		for i := range books {
			if c.Matches(&books[i]) {
				out = append(out, books[i])
			}
		}
		return out, nil
	}
}

// bucketFor builds the cache lookup the warm-up job would produce for q's bucket.
func bucketFor(q *query.Query, books ...book.Book) *mockCache {
	c := criteria.ForKey(q.Key(), query.DefaultDomain(), DefaultPolicy().FetchLimit)
	found, _ := catalogue(books...)(context.Background(), c)
	if len(found) == 0 {
		return cacheMiss()
	}
	return cacheHit(found...)
}
