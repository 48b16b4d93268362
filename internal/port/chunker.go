package port

import "docchat/internal/domain"

type Chunker interface {
	Chunk(doc domain.Document, sections []domain.Section) []domain.Chunk
}
