package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kittylit/kittylit/internal/domain/book"
)

// Payload is the serialized content of one cache bucket.
type Payload struct {
	CreatedAt time.Time     `json:"created_at"`
	Books     []book.Record `json:"books"`
}

// EncodePayload serializes books into a bucket payload stamped with createdAt.
func EncodePayload(createdAt time.Time, books []book.Book) ([]byte, error) {
	p := Payload{CreatedAt: createdAt.UTC(), Books: make([]book.Record, len(books))}
	for i := range books {
		p.Books[i] = book.ToRecord(&books[i])
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return data, nil
}

// decodePayload parses raw and validates every record against the eligibility invariant.
func decodePayload(raw []byte) (time.Time, []book.Book, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return time.Time{}, nil, fmt.Errorf("decode payload: %w", err)
	}
	if p.CreatedAt.IsZero() {
		return time.Time{}, nil, errors.New("payload has no created_at")
	}

	books := make([]book.Book, 0, len(p.Books))
	for i, r := range p.Books {
		b, err := book.New(r.Fields())
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("record %d: %w", i, err)
		}
		books = append(books, b)
	}
	return p.CreatedAt, books, nil
}
