package vectorstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when a vector does not match the
// collection's configured size.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Record is one embedded chunk as stored in the vector database.
type Record struct {
	ID         string
	DocumentID string
	ChunkIndex int
	Text       string
	Vector     []float32
	Metadata   map[string]interface{}
}

// SearchResult pairs a record with its cosine similarity to the query vector.
type SearchResult struct {
	Record Record
	Score  float64 // 0.0 to 1.0 (1.0 = identical)
}

// Store abstracts the vector database. Implementations: qdrant (REST),
// postgres (pgvector), memory (tests / local dev).
type Store interface {
	// EnsureCollection creates the backing collection for the given vector
	// size if it does not exist yet.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert inserts or replaces records. Inserted records become searchable
	// eventually; no stronger consistency is guaranteed.
	Upsert(ctx context.Context, records []Record) error

	// Search returns up to limit records ranked by cosine similarity,
	// most similar first.
	Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)

	// DeleteByDocument removes every record belonging to a document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// CheckDimension validates record vectors against the configured size.
func CheckDimension(records []Record, dimension int) error {
	for _, r := range records {
		if len(r.Vector) != dimension {
			return fmt.Errorf("%w: record %s has %d values, collection expects %d",
				ErrDimensionMismatch, r.ID, len(r.Vector), dimension)
		}
	}
	return nil
}
