package criteria

import (
	"slices"
	"testing"

	"github.com/kittylit/kittylit/internal/domain/book"
	"github.com/kittylit/kittylit/internal/domain/query"
)

func mustQuery(t *testing.T, age int, genre, level string) query.Query {
	t.Helper()
	q, err := query.NewNormalizer(query.DefaultDomain()).Normalize(query.Raw{Age: &age, Genre: genre, ReadingLevel: level})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return q
}

func TestStrict(t *testing.T) {
	q := mustQuery(t, 7, "fantasy", "early")
	c := Strict(&q, query.DefaultDomain(), 50)

	if c.WindowMin != 7 || c.WindowMax != 8 {
		t.Errorf("window = %d-%d, want 7-8", c.WindowMin, c.WindowMax)
	}
	if !slices.Equal(c.ReadingLevels, []string{"early"}) {
		t.Errorf("levels = %v", c.ReadingLevels)
	}
	if c.Step != 0 || c.Limit != 50 {
		t.Errorf("step=%d limit=%d", c.Step, c.Limit)
	}
}

func TestWiden_OneBandAndAdjacentLevels(t *testing.T) {
	q := mustQuery(t, 7, "fantasy", "early")
	c := Strict(&q, query.DefaultDomain(), 50)

	w, ok := c.Widen(1)
	if !ok {
		t.Fatal("expected widening")
	}
	if w.WindowMin != 5 || w.WindowMax != 10 {
		t.Errorf("window = %d-%d, want 5-10", w.WindowMin, w.WindowMax)
	}
	if !slices.Equal(w.ReadingLevels, []string{"beginner", "early", "intermediate"}) {
		t.Errorf("levels = %v", w.ReadingLevels)
	}
	if w.Step != 1 || w.Age != 7 || w.Genre != "fantasy" {
		t.Errorf("unexpected widened criteria %+v", w)
	}
	if !slices.Equal(c.ReadingLevels, []string{"early"}) {
		t.Error("Widen must not mutate the receiver")
	}
}

func TestWiden_ClampsAndStops(t *testing.T) {
	d := query.DefaultDomain()
	q := mustQuery(t, 2, "poetry", "beginner")
	c := Strict(&q, d, 10)

	steps := 0
	for {
		w, ok := c.Widen(1)
		if !ok {
			break
		}
		c = w
		steps++
		if steps > 10 {
			t.Fatal("widening never converged")
		}
	}
	if c.WindowMin != d.MinAge || c.WindowMax != d.MaxAge {
		t.Errorf("window = %d-%d, want full domain", c.WindowMin, c.WindowMax)
	}
	if len(c.ReadingLevels) != len(d.ReadingLevels) {
		t.Errorf("levels = %v", c.ReadingLevels)
	}
}

func TestMatches(t *testing.T) {
	q := mustQuery(t, 7, "fantasy", "early")
	c := Strict(&q, query.DefaultDomain(), 10)

	mk := func(minAge, maxAge int, level string, cats ...string) book.Book {
		return book.Reconstruct(book.Fields{ID: "x", Title: "x", AgeMin: minAge, AgeMax: maxAge, ReadingLevel: level, Categories: cats})
	}
	tests := []struct {
		name string
		b    book.Book
		want bool
	}{
		{"exact", mk(7, 8, "early", "fantasy"), true},
		{"secondary category", mk(7, 7, "early", "animals", "fantasy"), true},
		{"wrong genre", mk(7, 8, "early", "mystery"), false},
		{"wrong level", mk(7, 8, "advanced", "fantasy"), false},
		{"age outside", mk(8, 8, "early", "fantasy"), false},
		{"spills out of band", mk(5, 8, "early", "fantasy"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Matches(&tc.b); got != tc.want {
				t.Errorf("Matches() = %v, want %v", got, tc.want)
			}
		})
	}

	w, _ := c.Widen(1)
	spill := mk(5, 8, "beginner", "fantasy")
	if !w.Matches(&spill) {
		t.Error("widened criteria should accept a 5-8 beginner book")
	}
}

func TestUnbound(t *testing.T) {
	q := mustQuery(t, 7, "fantasy", "beginner")
	c := Strict(&q, query.DefaultDomain(), 10)

	broad := book.Reconstruct(book.Fields{
		ID: "x", Title: "x", AgeMin: 4, AgeMax: 12, ReadingLevel: "beginner", Categories: []string{"fantasy"},
	})
	if c.Matches(&broad) {
		t.Fatal("strict criteria must reject a range reaching past the band")
	}

	u, ok := c.Unbound()
	if !ok {
		t.Fatal("expected unbinding")
	}
	if !u.Unbounded || u.Step != 1 || c.Unbounded {
		t.Errorf("unbounded=%v step=%d receiver unbounded=%v", u.Unbounded, u.Step, c.Unbounded)
	}
	if !u.Matches(&broad) {
		t.Error("unbounded criteria should accept a 4-12 book for age 7")
	}

	tooOld := book.Reconstruct(book.Fields{
		ID: "y", Title: "y", AgeMin: 8, AgeMax: 16, ReadingLevel: "beginner", Categories: []string{"fantasy"},
	})
	if u.Matches(&tooOld) {
		t.Error("unbounded criteria must still require the query age")
	}

	if _, ok := u.Unbound(); ok {
		t.Error("unbinding twice should report no change")
	}
}

func TestForKey(t *testing.T) {
	d := query.DefaultDomain()
	k := d.Keys()[len(d.Keys())-1]
	c := ForKey(k, d, 20)
	if c.Age != k.Band.Min || c.AgeThrough != k.Band.Max || !c.Unbounded {
		t.Errorf("unexpected criteria %+v for key %s", c, k)
	}
}

func TestForKey_MembersCoverTheBand(t *testing.T) {
	d := query.DefaultDomain()
	var k query.Key
	for _, key := range d.Keys() {
		if key.Band.Min == 13 && key.Genre == "fantasy" && key.ReadingLevel == "advanced" {
			k = key
		}
	}
	c := ForKey(k, d, 20)

	mk := func(minAge, maxAge int) book.Book {
		return book.Reconstruct(book.Fields{
			ID: "x", Title: "x", AgeMin: minAge, AgeMax: maxAge, ReadingLevel: "advanced", Categories: []string{"fantasy"},
		})
	}
	tests := []struct {
		name   string
		minAge int
		maxAge int
		want   bool
	}{
		{"exact band", 13, 16, true},
		{"broader than band", 10, 18, true},
		{"youngest only", 13, 14, false},
		{"oldest only", 15, 16, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := mk(tc.minAge, tc.maxAge)
			if got := c.Matches(&b); got != tc.want {
				t.Errorf("Matches(%d-%d) = %v, want %v", tc.minAge, tc.maxAge, got, tc.want)
			}
		})
	}
}
