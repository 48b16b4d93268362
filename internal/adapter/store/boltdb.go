package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"docchat/internal/domain"
)

var (
	bucketEntries = []byte("entries")
	bucketDocs    = []byte("docs")
	bucketHistory = []byte("history")
	bucketMeta    = []byte("meta")
	keyTurns      = []byte("turns")
)

// BoltStore is a session's persisted vector index. Entries are kept in bbolt
// in insertion order and mirrored in memory for search.
type BoltStore struct {
	db      *bbolt.DB
	path    string
	mu      sync.RWMutex
	vectors *VectorSet
	closed  bool
}

type storedEntry struct {
	Chunk    domain.Chunk      `json:"c"`
	Vector   []float32         `json:"v"`
	Metadata map[string]string `json:"m,omitempty"`
}

// Options describe how the index scores and which model produced its vectors.
type Options struct {
	Metric         Metric
	EmbeddingModel string
}

// Open opens or creates the index at path and loads its entries.
func Open(path string, opts Options) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketEntries, bucketDocs, bucketHistory, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{
		db:      db,
		path:    path,
		vectors: NewVectorSet(opts.Metric),
	}

	if err := s.loadEntries(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	return s, nil
}

func (s *BoltStore) Path() string {
	return s.path
}

// loadEntries reads all entries from bbolt into memory in key order.
func (s *BoltStore) loadEntries() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		var entries []domain.IndexEntry
		err := tx.Bucket(bucketEntries).ForEach(func(k, v []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			entries = append(entries, domain.IndexEntry{
				Chunk:     stored.Chunk,
				Embedding: stored.Vector,
				Metadata:  stored.Metadata,
			})
			return nil
		})
		if err != nil {
			return err
		}
		if err := s.vectors.Check(entries); err != nil {
			return err
		}
		s.vectors.Append(entries)
		return nil
	})
}

func (s *BoltStore) Insert(ctx context.Context, entries []domain.IndexEntry) error {
	return s.commit(ctx, nil, entries)
}

// AddDocument stores a document and its entries in one transaction, so a
// failure leaves neither behind.
func (s *BoltStore) AddDocument(ctx context.Context, doc domain.Document, entries []domain.IndexEntry) error {
	return s.commit(ctx, &doc, entries)
}

func (s *BoltStore) commit(ctx context.Context, doc *domain.Document, entries []domain.IndexEntry) error {
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

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		for _, entry := range entries {
			data, err := json.Marshal(storedEntry{
				Chunk:    entry.Chunk,
				Vector:   entry.Embedding,
				Metadata: entry.Metadata,
			})
			if err != nil {
				return err
			}
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			if err := b.Put(itob(seq), data); err != nil {
				return err
			}
		}

		if len(entries) > 0 && s.vectors.Dimension() == 0 {
			if err := putInt(tx.Bucket(bucketMeta), keyDimension, len(entries[0].Embedding)); err != nil {
				return err
			}
		}

		if doc != nil {
			docs := tx.Bucket(bucketDocs)
			data, err := json.Marshal(doc)
			if err != nil {
				return err
			}
			seq, err := docs.NextSequence()
			if err != nil {
				return err
			}
			if err := docs.Put(itob(seq), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.vectors.Append(entries)
	return nil
}

// Query finds the k nearest chunks to vector.
func (s *BoltStore) Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
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

// Count returns the number of entries in the index.
func (s *BoltStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectors.Len()
}

func (s *BoltStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectors.Dimension()
}

// Documents returns the stored documents in load order.
func (s *BoltStore) Documents() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var doc domain.Document
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
	})
	return docs, err
}

func (s *BoltStore) History() (domain.History, error) {
	var history domain.History
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketHistory).Get(keyTurns)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &history)
	})
	return history, err
}

// SaveHistory replaces the stored conversation.
func (s *BoltStore) SaveHistory(history domain.History) error {
	data, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketHistory).Put(keyTurns, data)
	})
}

func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
