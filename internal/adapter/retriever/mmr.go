package retriever

import (
	"docchat/internal/adapter/analyzer"
	"docchat/internal/domain"
)

// MMRReranker diversifies retrieved chunks with Maximal Marginal Relevance.
// Overlapping neighbours of one section are near-duplicates, so picking by
// relevance alone tends to fill the context with the same passage.
type MMRReranker struct {
	lambda       float64
	dedupJaccard float64
	tokenizer    *analyzer.Tokenizer
}

// NewMMRReranker creates a reranker. lambda weighs relevance against
// novelty; candidates whose word overlap with a selected chunk exceeds
// dedupJaccard are dropped.
func NewMMRReranker(lambda, dedupJaccard float64, tokenizer *analyzer.Tokenizer) *MMRReranker {
	return &MMRReranker{
		lambda:       lambda,
		dedupJaccard: dedupJaccard,
		tokenizer:    tokenizer,
	}
}

// Rerank selects up to k candidates.
// MMR(c) = λ * relevance(c) - (1-λ) * max_similarity(c, selected)
func (r *MMRReranker) Rerank(candidates []domain.ScoredChunk, k int) []domain.ScoredChunk {
	if len(candidates) == 0 {
		return nil
	}
	if k <= 0 || k > len(candidates) {
		k = len(candidates)
	}

	// Scores are shifted to [0, 1] so dot-product scores compare with Jaccard.
	minScore, maxScore := candidates[0].Score, candidates[0].Score
	for _, c := range candidates {
		minScore = min(minScore, c.Score)
		maxScore = max(maxScore, c.Score)
	}
	span := maxScore - minScore

	type candidate struct {
		chunk  domain.ScoredChunk
		tokens map[string]struct{}
	}
	remaining := make([]candidate, len(candidates))
	for i, c := range candidates {
		remaining[i] = candidate{chunk: c, tokens: r.tokenizer.TokenSet(c.Chunk.Text)}
	}

	selected := make([]candidate, 0, k)
	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := -1e9

		for i, c := range remaining {
			relevance := 1.0
			if span > 0 {
				relevance = (c.chunk.Score - minScore) / span
			}

			maxSim := 0.0
			for _, sel := range selected {
				maxSim = max(maxSim, jaccardSimilarity(c.tokens, sel.tokens))
			}
			if maxSim > r.dedupJaccard {
				continue
			}

			mmr := r.lambda*relevance - (1-r.lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			break
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	out := make([]domain.ScoredChunk, len(selected))
	for i, s := range selected {
		out[i] = s.chunk
	}
	return out
}

// jaccardSimilarity computes the Jaccard similarity between two token sets.
func jaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
