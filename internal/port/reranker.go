package port

import "docchat/internal/domain"

// Reranker reorders retrieved chunks and keeps at most k of them.
type Reranker interface {
	Rerank(candidates []domain.ScoredChunk, k int) []domain.ScoredChunk
}
