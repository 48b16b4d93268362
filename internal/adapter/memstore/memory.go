package memstore

import (
	"context"
	"sync"

	"docchat/internal/adapter/store"
	"docchat/internal/domain"
)

// MemoryStore is an ephemeral session store with the same semantics as the
// bbolt one. Nothing survives Close.
type MemoryStore struct {
	mu      sync.RWMutex
	vectors *store.VectorSet
	docs    []domain.Document
	history domain.History
	closed  bool
}

func NewMemoryStore(metric store.Metric) *MemoryStore {
	return &MemoryStore{
		vectors: store.NewVectorSet(metric),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, entries []domain.IndexEntry) error {
	return s.commit(ctx, nil, entries)
}

func (s *MemoryStore) AddDocument(ctx context.Context, doc domain.Document, entries []domain.IndexEntry) error {
	return s.commit(ctx, &doc, entries)
}

func (s *MemoryStore) commit(ctx context.Context, doc *domain.Document, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrIndexClosed
	}
	if err := s.vectors.Check(entries); err != nil {
		return err
	}
	copied := make([]domain.IndexEntry, len(entries))
	copy(copied, entries)
	s.vectors.Append(copied)
	if doc != nil {
		s.docs = append(s.docs, *doc)
	}
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, domain.ErrIndexClosed
	}
	return s.vectors.Search(vector, k)
}

func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectors.Len()
}

func (s *MemoryStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectors.Dimension()
}

func (s *MemoryStore) Documents() ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, len(s.docs))
	copy(docs, s.docs)
	return docs, nil
}

func (s *MemoryStore) History() (domain.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := make(domain.History, len(s.history))
	copy(history, s.history)
	return history, nil
}

func (s *MemoryStore) SaveHistory(history domain.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(domain.History(nil), history...)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.vectors.Reset()
	s.docs = nil
	s.history = nil
	return nil
}
