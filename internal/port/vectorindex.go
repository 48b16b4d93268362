package port

import (
	"context"

	"docchat/internal/domain"
)

// VectorIndex stores chunk embeddings and answers nearest-neighbour queries.
type VectorIndex interface {
	// Insert appends entries. A batch with any vector whose dimension differs
	// from the index dimension is rejected as a whole.
	Insert(ctx context.Context, entries []domain.IndexEntry) error

	// Query returns up to k chunks ordered by similarity, highest first.
	Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error)

	// Count returns the number of stored entries.
	Count() int

	// Dimension returns the fixed vector dimension, or 0 while empty.
	Dimension() int

	Close() error
}

// SessionStore is a VectorIndex that also keeps the session's documents and
// conversation history, committing a document together with its entries.
type SessionStore interface {
	VectorIndex

	AddDocument(ctx context.Context, doc domain.Document, entries []domain.IndexEntry) error
	Documents() ([]domain.Document, error)

	History() (domain.History, error)
	SaveHistory(history domain.History) error
}
