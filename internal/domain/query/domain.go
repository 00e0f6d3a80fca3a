package query

import (
	"fmt"
	"slices"
	"strings"
)

// Band is an inclusive age range used for cache keys and widening.
type Band struct {
	Min int
	Max int
}

// Contains reports whether age falls inside the band.
func (b Band) Contains(age int) bool { return age >= b.Min && age <= b.Max }

func (b Band) String() string { return fmt.Sprintf("%d-%d", b.Min, b.Max) }

// Domain is the enumerated set of values a query may take.
type Domain struct {
	MinAge        int
	MaxAge        int
	Genres        []string
	ReadingLevels []string // ordered from easiest to hardest
	Bands         []Band   // ascending, contiguous, covering MinAge..MaxAge
	MaxHintLength int
}

// DefaultDomain returns the catalogue defaults for children's books.
func DefaultDomain() Domain {
	return Domain{
		MinAge: 2,
		MaxAge: 16,
		Genres: []string{
			"adventure", "animals", "biography", "fairy-tale", "fantasy", "history",
			"humor", "mystery", "picture-book", "poetry", "science", "science-fiction",
		},
		ReadingLevels: []string{"beginner", "early", "intermediate", "advanced"},
		Bands: []Band{
			{Min: 2, Max: 4},
			{Min: 5, Max: 6},
			{Min: 7, Max: 8},
			{Min: 9, Max: 10},
			{Min: 11, Max: 12},
			{Min: 13, Max: 16},
		},
		MaxHintLength: 200,
	}
}

// Validate checks the domain for internal consistency.
func (d *Domain) Validate() error {
	if d.MinAge <= 0 || d.MaxAge < d.MinAge {
		return fmt.Errorf("invalid age range %d-%d", d.MinAge, d.MaxAge)
	}
	if len(d.Genres) == 0 {
		return fmt.Errorf("at least one genre is required")
	}
	if len(d.ReadingLevels) == 0 {
		return fmt.Errorf("at least one reading level is required")
	}
	for _, g := range d.Genres {
		if g == "" || strings.ContainsAny(g, " ,") || g != strings.ToLower(g) {
			return fmt.Errorf("genre %q must be a lower-case token without spaces or commas", g)
		}
	}
	for _, l := range d.ReadingLevels {
		if l == "" || strings.ContainsAny(l, " ,") || l != strings.ToLower(l) {
			return fmt.Errorf("reading level %q must be a lower-case token without spaces or commas", l)
		}
	}
	if len(d.Bands) == 0 {
		return fmt.Errorf("at least one age band is required")
	}
	if d.Bands[0].Min != d.MinAge || d.Bands[len(d.Bands)-1].Max != d.MaxAge {
		return fmt.Errorf("age bands must cover %d-%d", d.MinAge, d.MaxAge)
	}
	for i, b := range d.Bands {
		if b.Max < b.Min {
			return fmt.Errorf("age band %s is inverted", b)
		}
		if i > 0 && b.Min != d.Bands[i-1].Max+1 {
			return fmt.Errorf("age band %s does not follow %s", b, d.Bands[i-1])
		}
	}
	if d.MaxHintLength <= 0 {
		return fmt.Errorf("max hint length must be positive")
	}
	return nil
}

// BandIndex returns the index of the band containing age, or -1.
func (d *Domain) BandIndex(age int) int {
	for i, b := range d.Bands {
		if b.Contains(age) {
			return i
		}
	}
	return -1
}

// LevelIndex returns the position of level in the ordered reading levels, or -1.
func (d *Domain) LevelIndex(level string) int {
	return slices.Index(d.ReadingLevels, level)
}

// Keys enumerates every cache key the domain can produce (band x genre x level).
func (d *Domain) Keys() []Key {
	keys := make([]Key, 0, len(d.Bands)*len(d.Genres)*len(d.ReadingLevels))
	for bi := range d.Bands {
		for _, g := range d.Genres {
			for _, l := range d.ReadingLevels {
				keys = append(keys, Key{Band: d.Bands[bi], BandIndex: bi, Genre: g, ReadingLevel: l})
			}
		}
	}
	return keys
}
