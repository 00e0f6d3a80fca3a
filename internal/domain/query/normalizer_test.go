package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/kittylit/kittylit/internal/domain"
)

func intPtr(v int) *int { return &v }

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	d := DefaultDomain()
	if err := d.Validate(); err != nil {
		t.Fatalf("default domain invalid: %v", err)
	}
	return NewNormalizer(d)
}

func TestNormalize_Valid(t *testing.T) {
	n := newTestNormalizer(t)

	q, err := n.Normalize(Raw{Age: intPtr(7), Genre: " Fantasy ", ReadingLevel: "BEGINNER", Hint: "  dragons   and\tcastles "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Age() != 7 || q.Genre() != "fantasy" || q.ReadingLevel() != "beginner" {
		t.Errorf("unexpected query: age=%d genre=%q level=%q", q.Age(), q.Genre(), q.ReadingLevel())
	}
	if q.Hint() != "dragons and castles" {
		t.Errorf("Hint() = %q", q.Hint())
	}
	if q.Band() != (Band{Min: 7, Max: 8}) {
		t.Errorf("Band() = %v, want 7-8", q.Band())
	}
	if got := q.Key().String(); got != "7-8:fantasy:beginner" {
		t.Errorf("Key() = %q", got)
	}
}

func TestNormalize_RejectsEveryBadField(t *testing.T) {
	n := newTestNormalizer(t)

	_, err := n.Normalize(Raw{Age: intPtr(42), Genre: "horror", ReadingLevel: "", Hint: strings.Repeat("x", 201)})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	got := map[string]string{}
	for _, f := range verr.Fields {
		got[f.Field] = f.Message
	}
	for _, field := range []string{"age", "genre", "reading_level", "hint"} {
		if _, ok := got[field]; !ok {
			t.Errorf("missing error for %s in %v", field, verr.Fields)
		}
	}
	if got["age"] != "age must be between 2 and 16" {
		t.Errorf("age message = %q", got["age"])
	}
	if !strings.HasPrefix(got["genre"], "genre must be one of: adventure, animals") {
		t.Errorf("genre message = %q", got["genre"])
	}
	if got["reading_level"] != "reading_level is required" {
		t.Errorf("reading_level message = %q", got["reading_level"])
	}
}

func TestNormalize_MissingAge(t *testing.T) {
	n := newTestNormalizer(t)

	_, err := n.Normalize(Raw{Genre: "fantasy", ReadingLevel: "beginner"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Message != "age is required" {
		t.Errorf("unexpected fields: %v", verr.Fields)
	}
}

func TestNormalize_AgeBoundaries(t *testing.T) {
	n := newTestNormalizer(t)

	for _, age := range []int{2, 16} {
		if _, err := n.Normalize(Raw{Age: intPtr(age), Genre: "poetry", ReadingLevel: "early"}); err != nil {
			t.Errorf("age %d: unexpected error %v", age, err)
		}
	}
	for _, age := range []int{1, 17, -3} {
		if _, err := n.Normalize(Raw{Age: intPtr(age), Genre: "poetry", ReadingLevel: "early"}); err == nil {
			t.Errorf("age %d: expected error", age)
		}
	}
}

func TestQueryHash_Stable(t *testing.T) {
	n := newTestNormalizer(t)

	a, _ := n.Normalize(Raw{Age: intPtr(9), Genre: "mystery", ReadingLevel: "intermediate"})
	b, _ := n.Normalize(Raw{Age: intPtr(9), Genre: "MYSTERY ", ReadingLevel: "intermediate"})
	c, _ := n.Normalize(Raw{Age: intPtr(10), Genre: "mystery", ReadingLevel: "intermediate"})
	if a.Hash() != b.Hash() {
		t.Error("hash differs for equivalent queries")
	}
	if a.Hash() == c.Hash() {
		t.Error("hash equal for different ages")
	}
	if a.Key() != c.Key() {
		t.Error("ages 9 and 10 should share the 9-10 band key")
	}
}
