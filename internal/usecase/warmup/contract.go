package warmup

import (
	"context"
	"time"

	"github.com/kittylit/kittylit/internal/domain/book"
	"github.com/kittylit/kittylit/internal/domain/criteria"
)

// BookStore is the authoritative store buckets are computed from.
type BookStore interface {
	Query(ctx context.Context, c criteria.Criteria) ([]book.Book, error)
}

// BucketWriter persists one encoded bucket payload.
type BucketWriter interface {
	Put(ctx context.Context, bucket string, payload []byte, ttl time.Duration) error
}
