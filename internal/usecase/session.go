package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"docchat/config"
	"docchat/internal/adapter/analyzer"
	"docchat/internal/adapter/cache"
	"docchat/internal/adapter/chunker"
	"docchat/internal/adapter/memstore"
	"docchat/internal/adapter/retriever"
	"docchat/internal/adapter/store"
	"docchat/internal/domain"
	"docchat/internal/logger"
	"docchat/internal/port"
)

// Session owns one user's documents, vector index and conversation. The
// index is created on the first successful load. All methods are serialised.
type Session struct {
	mu sync.Mutex

	id        string
	dataDir   string
	ephemeral bool
	storeOpts store.Options

	ingest   *IngestUseCase
	embedder port.Embedder
	engine   *ChatEngine

	index     port.SessionStore
	documents []domain.Document
	history   domain.History
}

// SessionInfo summarises a session for listings.
type SessionInfo struct {
	ID        string `json:"id"`
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
	Turns     int    `json:"turns"`
	Ephemeral bool   `json:"ephemeral"`
	Dir       string `json:"dir,omitempty"`
}

// NewSession builds a session from configuration and reopens its persisted
// index, if any. An index built with another metric or embedding model is
// discarded, since its vectors cannot be compared with new queries.
func NewSession(ctx context.Context, cfg *config.Config, embedder port.Embedder, llm port.LLM) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ch, err := chunker.NewCharChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}
	metric, err := store.ParseMetric(cfg.Retrieve.Metric)
	if err != nil {
		return nil, err
	}
	prompts, err := NewPromptBuilder(cfg.Retrieve.MaxContextChars)
	if err != nil {
		return nil, err
	}

	var reranker port.Reranker
	if cfg.Retrieve.MMRLambda > 0 {
		reranker = retriever.NewMMRReranker(cfg.Retrieve.MMRLambda, cfg.Retrieve.DedupJaccard, analyzer.NewTokenizer())
	}

	queryEmbedder := embedder
	if cfg.Retrieve.CacheQueryEmbeddings {
		queryEmbedder = cache.NewCachedEmbedder(embedder, cache.NewQueryCache(cfg.Retrieve.CacheTTL))
	}

	s := &Session{
		id:        cfg.Session.ID,
		dataDir:   cfg.DataDir,
		ephemeral: cfg.Session.Ephemeral,
		storeOpts: store.Options{Metric: metric, EmbeddingModel: embedder.ModelName()},
		ingest:    NewIngestUseCase(ch),
		embedder:  embedder,
		engine: NewChatEngine(queryEmbedder, llm, prompts, ChatOptions{
			TopK:             cfg.Retrieve.TopK,
			Temperature:      cfg.Generation.Temperature,
			MaxTokens:        cfg.Generation.MaxTokens,
			CondenseQuestion: cfg.Retrieve.CondenseQuestion,
			Reranker:         reranker,
		}),
	}

	if !s.ephemeral {
		if err := s.reopen(s.logContext(ctx, "OpenSession")); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Dir() string {
	if s.ephemeral {
		return ""
	}
	return config.SessionDir(s.dataDir, s.id)
}

func (s *Session) logContext(ctx context.Context, action string) context.Context {
	ctx = logger.WithAction(ctx, action)
	return logger.AddFields(ctx, zap.String("session_id", s.id))
}

func (s *Session) reopen(ctx context.Context) error {
	path := config.IndexDBPath(s.dataDir, s.id)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	idx, err := store.Open(path, s.storeOpts)
	if err != nil {
		return fmt.Errorf("open session index: %w", err)
	}

	check, err := idx.CheckMigration(s.storeOpts)
	if err != nil {
		idx.Close()
		return err
	}
	if check.NeedsRebuild {
		ctxzap.Warn(ctx, "discarding stale session index", zap.String("reason", check.Reason))
		idx.Close()
		return os.RemoveAll(s.Dir())
	}
	if err := idx.Migrate(s.storeOpts); err != nil {
		idx.Close()
		return err
	}

	docs, err := idx.Documents()
	if err != nil {
		idx.Close()
		return fmt.Errorf("load documents: %w", err)
	}
	history, err := idx.History()
	if err != nil {
		idx.Close()
		return fmt.Errorf("load history: %w", err)
	}

	s.index = idx
	s.documents = docs
	s.history = history

	ctxzap.Info(ctx, "session reopened",
		zap.Int("documents", len(docs)),
		zap.Int("entries", idx.Count()),
		zap.Int("turns", len(history)),
	)
	return nil
}

// LoadDocument ingests, embeds and indexes one document. Embeddings are all
// computed before anything is written, and the write is a single commit, so
// a failure leaves the session exactly as it was.
func (s *Session) LoadDocument(ctx context.Context, name string, data []byte) (domain.Document, error) {
	ctx = s.logContext(ctx, "LoadDocument")

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, chunks, err := s.ingest.Ingest(ctx, name, data)
	if err != nil {
		ctxzap.Warn(ctx, "failed to ingest document", zap.String("document", name), zap.Error(err))
		return domain.Document{}, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		ctxzap.Error(ctx, "failed to embed document", zap.String("document", doc.Name), zap.Error(err))
		return domain.Document{}, fmt.Errorf("embed %s: %w", doc.Name, err)
	}
	if len(vectors) != len(chunks) {
		return domain.Document{}, &domain.ProviderError{
			Kind:     domain.ProviderRejected,
			Provider: s.embedder.ModelName(),
			Message:  fmt.Sprintf("expected %d embeddings, got %d", len(chunks), len(vectors)),
		}
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.IndexEntry{
			Chunk:     c,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"source": doc.Name,
				"format": string(doc.Format),
			},
		}
	}

	idx, created, err := s.ensureIndex(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	if err := idx.AddDocument(ctx, doc, entries); err != nil {
		if created {
			s.discardIndex(ctx)
		}
		ctxzap.Error(ctx, "failed to index document", zap.String("document", doc.Name), zap.Error(err))
		return domain.Document{}, fmt.Errorf("index %s: %w", doc.Name, err)
	}

	s.documents = append(s.documents, doc)

	ctxzap.Info(ctx, "document loaded",
		zap.String("document", doc.Name),
		zap.Int("chunks", doc.Chunks),
		zap.Int("index_entries", idx.Count()),
	)
	return doc, nil
}

func (s *Session) ensureIndex(ctx context.Context) (port.SessionStore, bool, error) {
	if s.index != nil {
		return s.index, false, nil
	}

	if s.ephemeral {
		s.index = memstore.NewMemoryStore(s.storeOpts.Metric)
		return s.index, true, nil
	}

	if err := config.EnsureSessionDir(s.dataDir, s.id); err != nil {
		return nil, false, fmt.Errorf("create session dir: %w", err)
	}
	idx, err := store.Open(config.IndexDBPath(s.dataDir, s.id), s.storeOpts)
	if err != nil {
		os.RemoveAll(s.Dir())
		return nil, false, fmt.Errorf("create session index: %w", err)
	}
	if err := idx.Migrate(s.storeOpts); err != nil {
		idx.Close()
		os.RemoveAll(s.Dir())
		return nil, false, err
	}

	ctxzap.Debug(ctx, "session index created", zap.String("path", idx.Path()))
	s.index = idx
	return idx, true, nil
}

// discardIndex drops an index that was created for a load that then failed.
func (s *Session) discardIndex(ctx context.Context) {
	if s.index == nil {
		return
	}
	if err := s.index.Close(); err != nil {
		ctxzap.Warn(ctx, "failed to close index", zap.Error(err))
	}
	s.index = nil
	if !s.ephemeral {
		if err := os.RemoveAll(s.Dir()); err != nil {
			ctxzap.Warn(ctx, "failed to remove session dir", zap.Error(err))
		}
	}
}

// Ask answers a question against the loaded documents.
func (s *Session) Ask(ctx context.Context, query string) domain.Reply {
	ctx = s.logContext(ctx, "Ask")

	s.mu.Lock()
	defer s.mu.Unlock()

	var index port.VectorIndex
	if s.index != nil {
		index = s.index
	}

	reply := s.engine.Answer(ctx, index, query, &s.history)
	if reply.OK() {
		if err := s.index.SaveHistory(s.history); err != nil {
			ctxzap.Warn(ctx, "failed to persist history", zap.Error(err))
		}
	}
	return reply
}

func (s *Session) ListDocuments() []domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Document(nil), s.documents...)
}

func (s *Session) History() domain.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(domain.History(nil), s.history...)
}

// ClearDocuments deletes the index, its persisted directory, the document
// list and the conversation.
func (s *Session) ClearDocuments(ctx context.Context) error {
	ctx = s.logContext(ctx, "ClearDocuments")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		if err := s.index.Close(); err != nil {
			ctxzap.Warn(ctx, "failed to close index", zap.Error(err))
		}
		s.index = nil
	}
	if !s.ephemeral {
		if err := os.RemoveAll(s.Dir()); err != nil {
			return fmt.Errorf("remove session dir: %w", err)
		}
	}
	s.documents = nil
	s.history = nil

	ctxzap.Info(ctx, "session cleared")
	return nil
}

// ClearHistory forgets the conversation but keeps the documents.
func (s *Session) ClearHistory(ctx context.Context) error {
	ctx = s.logContext(ctx, "ClearHistory")

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	if s.index != nil {
		if err := s.index.SaveHistory(nil); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
	}
	ctxzap.Info(ctx, "history cleared")
	return nil
}

func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := SessionInfo{
		ID:        s.id,
		Documents: len(s.documents),
		Turns:     len(s.history),
		Ephemeral: s.ephemeral,
		Dir:       s.Dir(),
	}
	if s.index != nil {
		info.Chunks = s.index.Count()
	}
	return info
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}
