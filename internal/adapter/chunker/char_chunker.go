package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"docchat/internal/domain"
)

// CharChunker splits section text into fixed-size character windows where
// consecutive windows of a section share exactly overlap characters.
type CharChunker struct {
	size    int
	overlap int
}

func NewCharChunker(size, overlap int) (*CharChunker, error) {
	if size <= 0 {
		return nil, &domain.ConfigError{Field: "chunking.size", Reason: "must be positive"}
	}
	if overlap < 0 || overlap >= size {
		return nil, &domain.ConfigError{Field: "chunking.overlap", Reason: fmt.Sprintf("must be in [0, %d)", size)}
	}
	return &CharChunker{size: size, overlap: overlap}, nil
}

func (c *CharChunker) Chunk(doc domain.Document, sections []domain.Section) []domain.Chunk {
	var chunks []domain.Chunk
	seq := 0

	for _, section := range sections {
		if strings.TrimSpace(section.Text) == "" {
			continue
		}
		runes := []rune(section.Text)
		stride := c.size - c.overlap

		for start := 0; start < len(runes); start += stride {
			end := start + c.size
			if end > len(runes) {
				end = len(runes)
			}

			chunks = append(chunks, domain.Chunk{
				ID:      generateChunkID(doc.ID, section.Number, start),
				DocID:   doc.ID,
				Source:  doc.Name,
				Text:    string(runes[start:end]),
				Offset:  start,
				Section: section.Number,
				Seq:     seq,
				Size:    c.size,
				Overlap: c.overlap,
			})
			seq++

			if end == len(runes) {
				break
			}
		}
	}

	return chunks
}

func generateChunkID(docID string, section, offset int) string {
	data := fmt.Sprintf("%s:%d:%d", docID, section, offset)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
