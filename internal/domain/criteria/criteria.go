package criteria

import (
	"slices"

	"github.com/kittylit/kittylit/internal/domain/book"
	"github.com/kittylit/kittylit/internal/domain/query"
)

// Criteria is a structured book store query derived from a validated Query.
//
// A book matches when it carries Genre as a category, its age range covers every age
// in [Age, AgeThrough], its reading level is one of ReadingLevels and, unless Unbounded,
// its age range lies inside [WindowMin, WindowMax].
type Criteria struct {
	Age           int
	AgeThrough    int
	Genre         string
	WindowMin     int
	WindowMax     int
	Unbounded     bool
	ReadingLevels []string
	Limit         int
	Step          int // 0 for the strict query, incremented by each Widen or Unbound

	bandLo, bandHi   int
	levelLo, levelHi int
	dom              query.Domain
}

// Strict builds the narrowest criteria for q: its own age band and reading level.
func Strict(q *query.Query, d query.Domain, limit int) Criteria {
	bi := q.Key().BandIndex
	li := d.LevelIndex(q.ReadingLevel())
	c := Criteria{
		Age:        q.Age(),
		AgeThrough: q.Age(),
		Genre:      q.Genre(),
		Limit:      limit,
		bandLo:     bi,
		bandHi:     bi,
		levelLo:    li,
		levelHi:    li,
		dom:        d,
	}
	c.sync()
	return c
}

// ForKey builds the criteria of a cache bucket. A member's age range covers the whole
// band, so every cached book passes the age gate for any reader in the band. The window
// is not enforced: ranking already penalizes ranges spilling past the band.
func ForKey(k query.Key, d query.Domain, limit int) Criteria {
	li := d.LevelIndex(k.ReadingLevel)
	c := Criteria{
		Age:        k.Band.Min,
		AgeThrough: k.Band.Max,
		Genre:      k.Genre,
		Unbounded:  true,
		Limit:      limit,
		bandLo:     k.BandIndex,
		bandHi:     k.BandIndex,
		levelLo:    li,
		levelHi:    li,
		dom:        d,
	}
	c.sync()
	return c
}

// Widen relaxes the age window by `bands` bands on each side and the accepted reading
// levels by one adjacent level on each side. ok is false when nothing could be relaxed.
func (c Criteria) Widen(bands int) (widened Criteria, ok bool) {
	w := c
	w.ReadingLevels = nil
	w.bandLo = max(0, c.bandLo-bands)
	w.bandHi = min(len(c.dom.Bands)-1, c.bandHi+bands)
	if c.levelLo >= 0 {
		w.levelLo = max(0, c.levelLo-1)
		w.levelHi = min(len(c.dom.ReadingLevels)-1, c.levelHi+1)
	}
	if w.bandLo == c.bandLo && w.bandHi == c.bandHi && w.levelLo == c.levelLo && w.levelHi == c.levelHi {
		return c, false
	}
	w.Step = c.Step + 1
	w.sync()
	return w, true
}

// Unbound drops the window bound so that books with broad age ranges qualify.
// ok is false when the criteria are already unbounded.
func (c Criteria) Unbound() (unbounded Criteria, ok bool) {
	if c.Unbounded {
		return c, false
	}
	c.Unbounded = true
	c.Step++
	return c, true
}

// Matches reports whether b satisfies the criteria.
func (c *Criteria) Matches(b *book.Book) bool {
	if !b.HasCategory(c.Genre) || !b.ContainsAge(c.Age) || !b.ContainsAge(c.AgeThrough) {
		return false
	}
	if !c.Unbounded && (b.AgeMin() < c.WindowMin || b.AgeMax() > c.WindowMax) {
		return false
	}
	return slices.Contains(c.ReadingLevels, b.ReadingLevel())
}

func (c *Criteria) sync() {
	if len(c.dom.Bands) > 0 {
		c.WindowMin = c.dom.Bands[c.bandLo].Min
		c.WindowMax = c.dom.Bands[c.bandHi].Max
	}
	if c.levelLo >= 0 {
		c.ReadingLevels = slices.Clone(c.dom.ReadingLevels[c.levelLo : c.levelHi+1])
	}
}
