package candidate

import "github.com/kittylit/kittylit/internal/domain/book"

// Source tags where a candidate was retrieved from.
type Source string

// Candidate sources.
const (
	SourceCache Source = "cache"
	SourceDB    Source = "db"
)

// Candidate is a book record annotated with its retrieval source and relevance score.
// Candidates live for the duration of one query.
type Candidate struct {
	book   book.Book
	source Source
	score  float64
}

// New creates an unscored candidate.
func New(b book.Book, src Source) Candidate {
	return Candidate{book: b, source: src}
}

// WithScore returns a copy carrying the given score.
func (c Candidate) WithScore(score float64) Candidate {
	c.score = score
	return c
}

// ID returns the underlying record identifier.
func (c *Candidate) ID() string { return c.book.ID() }

// Book returns the underlying record.
func (c *Candidate) Book() *book.Book { return &c.book }

// Source returns where the candidate came from.
func (c *Candidate) Source() Source { return c.source }

// Score returns the relevance score (0 until ranked).
func (c *Candidate) Score() float64 { return c.score }

// FromBooks tags every book with src.
func FromBooks(books []book.Book, src Source) []Candidate {
	out := make([]Candidate, len(books))
	for i := range books {
		out[i] = New(books[i], src)
	}
	return out
}
