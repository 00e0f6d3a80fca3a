package query

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Raw is the structured query as received from a caller, before validation.
type Raw struct {
	Age          *int   `json:"age"`
	Genre        string `json:"genre"`
	ReadingLevel string `json:"reading_level"`
	Hint         string `json:"hint,omitempty"`
}

// Key identifies a cache bucket: age band + genre + reading level.
type Key struct {
	Band         Band
	BandIndex    int
	Genre        string
	ReadingLevel string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Band, k.Genre, k.ReadingLevel)
}

// Query is a validated, normalized recommendation query.
type Query struct {
	age          int
	genre        string
	readingLevel string
	hint         string
	key          Key
}

// Age returns the reader's age in years.
func (q *Query) Age() int { return q.age }

// Genre returns the requested genre.
func (q *Query) Genre() string { return q.genre }

// ReadingLevel returns the requested reading level.
func (q *Query) ReadingLevel() string { return q.readingLevel }

// Hint returns the optional free-text hint.
func (q *Query) Hint() string { return q.hint }

// Band returns the age band the query age falls into.
func (q *Query) Band() Band { return q.key.Band }

// Key returns the cache lookup key.
func (q *Query) Key() Key { return q.key }

// Hash returns a stable identifier of the normalized query.
func (q *Query) Hash() string {
	h := sha256.Sum256([]byte(strconv.Itoa(q.age) + "|" + q.genre + "|" + q.readingLevel + "|" + q.hint))
	return hex.EncodeToString(h[:8])
}
