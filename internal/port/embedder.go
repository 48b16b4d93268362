package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for document texts, one vector per input.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates the embedding of a search question.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string
}
