package response

import (
	"github.com/kittylit/kittylit/internal/domain/candidate"
	"github.com/kittylit/kittylit/internal/domain/trace"
)

// FallbackReason explains why the response was not served straight from the cache.
type FallbackReason string

// Fallback reasons.
const (
	ReasonNone              FallbackReason = "none"
	ReasonCacheMiss         FallbackReason = "cache_miss"
	ReasonCacheInsufficient FallbackReason = "cache_insufficient"
	ReasonCacheIntegrity    FallbackReason = "cache_integrity"
	ReasonCacheStale        FallbackReason = "cache_stale"
	ReasonWidened           FallbackReason = "widened"
	ReasonBelowThreshold    FallbackReason = "below_threshold"
	ReasonNoSafeMatch       FallbackReason = "no_safe_match"
	ReasonDataUnavailable   FallbackReason = "data_unavailable"
)

// Message texts surfaced to end users.
const (
	MessageNoSafeMatch = "no safe match"
	MessageDegraded    = "service temporarily degraded"
)

// Item is one recommended book in the response.
type Item struct {
	ID     string
	Title  string
	Author string
	Score  float64
	Source candidate.Source
}

// Explanation carries the explainability fields of a response.
type Explanation struct {
	FallbackReason FallbackReason
	Confidence     float64
	Rule           string
	Message        string
	Warnings       []string
}

// Metadata is developer-facing detail about how the response was produced.
type Metadata struct {
	QueryHash     string
	CorrelationID string
	Trace         []trace.Step
	LatenciesMS   map[string]float64
	Counts        map[string]int
}

// Response is the per-request result of the orchestrator. It is never persisted.
type Response struct {
	Candidates  []Item
	Explanation Explanation
	Metadata    Metadata
}

// NoSafeMatch reports whether the response is the explicit no-safe-match outcome.
func (r *Response) NoSafeMatch() bool {
	return r.Explanation.FallbackReason == ReasonNoSafeMatch
}

// Degraded reports whether the response reflects an unavailable book store.
func (r *Response) Degraded() bool {
	return r.Explanation.FallbackReason == ReasonDataUnavailable
}

// FromCandidates converts ranked candidates into response items.
func FromCandidates(cs []candidate.Candidate) []Item {
	items := make([]Item, len(cs))
	for i := range cs {
		b := cs[i].Book()
		items[i] = Item{
			ID:     b.ID(),
			Title:  b.Title(),
			Author: b.Author(),
			Score:  cs[i].Score(),
			Source: cs[i].Source(),
		}
	}
	return items
}
