package recommend

import (
	"context"

	"github.com/kittylit/kittylit/internal/domain/book"
	"github.com/kittylit/kittylit/internal/domain/criteria"
	"github.com/kittylit/kittylit/internal/domain/lookup"
	"github.com/kittylit/kittylit/internal/domain/query"
	"github.com/kittylit/kittylit/internal/domain/response"
	"github.com/kittylit/kittylit/internal/domain/trace"
)

// Cache reads preloaded recommendation buckets. Lookups must not block on I/O.
type Cache interface {
	Lookup(key query.Key) lookup.Result
}

// BookStore is the authoritative book record store.
type BookStore interface {
	Query(ctx context.Context, c criteria.Criteria) ([]book.Book, error)
}

// Event is one decision point of a request, tagged for correlation.
type Event struct {
	QueryHash     string
	CorrelationID string
	Step          trace.Step
}

// DecisionSink receives decision events and the final response of every request.
type DecisionSink interface {
	Decision(ctx context.Context, e Event)
	Completed(ctx context.Context, resp *response.Response)
}
