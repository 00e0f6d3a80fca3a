package recommend

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/kittylit/kittylit/internal/domain/book"
	"github.com/kittylit/kittylit/internal/domain/candidate"
	"github.com/kittylit/kittylit/internal/domain/query"
)

// merge unions base and fresh by identifier. On overlap the fresh record replaces the
// base one, so DB records win over cached copies. The result is ordered by identifier.
func merge(base, fresh []candidate.Candidate) []candidate.Candidate {
	byID := make(map[string]candidate.Candidate, len(base)+len(fresh))
	for _, c := range base {
		byID[c.ID()] = c
	}
	for _, c := range fresh {
		byID[c.ID()] = c
	}

	out := make([]candidate.Candidate, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b candidate.Candidate) int { return strings.Compare(a.ID(), b.ID()) })
	return out
}

// ranker scores candidates against a query.
type ranker struct {
	weights Weights
	dom     query.Domain
}

// rank scores every candidate and orders by score descending, identifier ascending.
func (r ranker) rank(q *query.Query, cs []candidate.Candidate) []candidate.Candidate {
	out := make([]candidate.Candidate, len(cs))
	for i := range cs {
		out[i] = cs[i].WithScore(r.score(q, cs[i].Book()))
	}
	slices.SortFunc(out, func(a, b candidate.Candidate) int {
		if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
			return c
		}
		return strings.Compare(a.ID(), b.ID())
	})
	return out
}

func (r ranker) score(q *query.Query, b *book.Book) float64 {
	s := r.weights.Category*categoryMatch(q.Genre(), b) +
		r.weights.AgeBand*bandCloseness(q.Band(), b) +
		r.weights.ReadingLevel*r.levelCloseness(q.ReadingLevel(), b.ReadingLevel()) +
		r.weights.Hint*hintMatch(q.Hint(), b)
	return round3(s)
}

func categoryMatch(genre string, b *book.Book) float64 {
	switch {
	case b.PrimaryCategory() == genre:
		return 1
	case b.HasCategory(genre):
		return 0.5
	default:
		return 0
	}
}

// bandCloseness is 1 when the book's range lies inside the band and decays with
// every year the range spills outside it.
func bandCloseness(band query.Band, b *book.Book) float64 {
	spill := max(0, band.Min-b.AgeMin()) + max(0, b.AgeMax()-band.Max)
	return 1 / float64(1+spill)
}

func (r ranker) levelCloseness(want, got string) float64 {
	wi, gi := r.dom.LevelIndex(want), r.dom.LevelIndex(got)
	if wi < 0 || gi < 0 {
		return 0
	}
	switch d := wi - gi; {
	case d == 0:
		return 1
	case d == 1 || d == -1:
		return 0.5
	default:
		return 0
	}
}

func hintMatch(hint string, b *book.Book) float64 {
	if hint == "" {
		return 0
	}
	haystack := strings.ToLower(b.Title() + " " + b.Author())
	for _, tok := range strings.Fields(strings.ToLower(hint)) {
		if strings.Contains(haystack, tok) {
			return 1
		}
	}
	return 0
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
