package usecase

import (
	"unicode/utf8"

	"docchat/internal/domain"
)

// Snippet is a retrieved chunk as it is shown to the model.
type Snippet struct {
	Source  string
	Section int
	Score   float64
	Text    string
}

// packSnippets keeps retrieved chunks, best first, while they fit into budget
// characters. The best chunk is always kept, truncated if it alone is too big.
func packSnippets(chunks []domain.ScoredChunk, budget int) []Snippet {
	snippets := make([]Snippet, 0, len(chunks))
	used := 0

	for i, c := range chunks {
		text := c.Chunk.Text
		size := utf8.RuneCountInString(text)
		if budget > 0 && used+size > budget {
			if i > 0 {
				continue
			}
			text = string([]rune(text)[:budget])
			size = budget
		}
		snippets = append(snippets, Snippet{
			Source:  c.Chunk.Source,
			Section: c.Chunk.Section,
			Score:   c.Score,
			Text:    text,
		})
		used += size
	}

	return snippets
}

// distinctSources lists the document names of snippets in first-appearance order.
func distinctSources(snippets []Snippet) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, s := range snippets {
		if s.Source == "" || seen[s.Source] {
			continue
		}
		seen[s.Source] = true
		sources = append(sources, s.Source)
	}
	return sources
}
