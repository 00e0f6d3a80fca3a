// Package lookup describes the outcome of a cache read.
package lookup

import (
	"github.com/kittylit/kittylit/internal/domain"
	"github.com/kittylit/kittylit/internal/domain/candidate"
)

// Outcome classifies a cache lookup.
type Outcome string

// Lookup outcomes.
const (
	Hit     Outcome = "hit"
	Miss    Outcome = "miss"
	Stale   Outcome = "stale"
	Corrupt Outcome = "corrupt"
)

// Result is the outcome of a cache read. Candidates is empty unless Outcome is Hit.
type Result struct {
	Candidates []candidate.Candidate
	Outcome    Outcome
	Warning    *domain.CacheIntegrityWarning
}
