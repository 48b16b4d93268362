package usecase

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"docchat/internal/adapter/loader"
	"docchat/internal/domain"
	"docchat/internal/port"
)

// IngestUseCase turns raw uploaded bytes into chunks. It has no side effects.
type IngestUseCase struct {
	chunker port.Chunker
	now     func() time.Time
}

func NewIngestUseCase(chunker port.Chunker) *IngestUseCase {
	return &IngestUseCase{
		chunker: chunker,
		now:     time.Now,
	}
}

// Ingest extracts and chunks one document. name is the original file name or
// path; its extension selects the loader.
func (u *IngestUseCase) Ingest(ctx context.Context, name string, data []byte) (domain.Document, []domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, nil, err
	}

	format, sections, err := loader.Load(name, data)
	if err != nil {
		return domain.Document{}, nil, err
	}

	doc := domain.Document{
		ID:       uuid.NewString(),
		Name:     filepath.Base(name),
		Path:     name,
		Format:   format,
		LoadedAt: u.now().UTC(),
	}

	chunks := u.chunker.Chunk(doc, sections)
	if len(chunks) == 0 {
		return domain.Document{}, nil, domain.Unreadable(name, nil)
	}
	doc.Chunks = len(chunks)

	ctxzap.Debug(ctx, "document ingested",
		zap.String("document", doc.Name),
		zap.String("format", string(format)),
		zap.Int("sections", len(sections)),
		zap.Int("chunks", len(chunks)),
	)

	return doc, chunks, nil
}
