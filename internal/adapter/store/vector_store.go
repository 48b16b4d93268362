package store

import (
	"fmt"
	"math"
	"sort"

	"docchat/internal/domain"
)

// DefaultK is the number of chunks returned when a query does not ask for a
// positive count.
const DefaultK = 5

type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine, "":
		return MetricCosine, nil
	case MetricDot:
		return MetricDot, nil
	}
	return "", &domain.ConfigError{Field: "retrieve.metric", Reason: fmt.Sprintf("unknown metric %q", s)}
}

// VectorSet is the in-memory, append-only part of an index. It is not safe
// for concurrent use; owners guard it with their own lock.
// Uses brute-force search, which is fine for per-session document sets.
type VectorSet struct {
	metric    Metric
	dimension int
	entries   []domain.IndexEntry
}

func NewVectorSet(metric Metric) *VectorSet {
	return &VectorSet{metric: metric}
}

// Check validates a batch against the fixed dimension, or against the first
// entry of the batch while the set is still empty.
func (s *VectorSet) Check(entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	want := s.dimension
	if want == 0 {
		want = len(entries[0].Embedding)
	}
	if want == 0 {
		return &domain.DimensionMismatchError{Expected: 1, Got: 0}
	}
	for _, e := range entries {
		if len(e.Embedding) != want {
			return &domain.DimensionMismatchError{Expected: want, Got: len(e.Embedding)}
		}
	}
	return nil
}

// Append adds entries that already passed Check.
func (s *VectorSet) Append(entries []domain.IndexEntry) {
	if len(entries) == 0 {
		return
	}
	if s.dimension == 0 {
		s.dimension = len(entries[0].Embedding)
	}
	s.entries = append(s.entries, entries...)
}

// Search scores every entry and returns the top k, ties kept in insertion order.
func (s *VectorSet) Search(query []float32, k int) ([]domain.ScoredChunk, error) {
	if len(s.entries) == 0 {
		return nil, nil
	}
	if len(query) != s.dimension {
		return nil, &domain.DimensionMismatchError{Expected: s.dimension, Got: len(query)}
	}
	if k <= 0 {
		k = DefaultK
	}

	scores := make([]domain.ScoredChunk, len(s.entries))
	for i, entry := range s.entries {
		scores[i] = domain.ScoredChunk{
			Chunk: entry.Chunk,
			Score: s.similarity(query, entry.Embedding),
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

func (s *VectorSet) Len() int {
	return len(s.entries)
}

func (s *VectorSet) Dimension() int {
	return s.dimension
}

func (s *VectorSet) Reset() {
	s.dimension = 0
	s.entries = nil
}

func (s *VectorSet) similarity(a, b []float32) float64 {
	if s.metric == MetricDot {
		return dotProduct(a, b)
	}
	return cosineSimilarity(a, b)
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
