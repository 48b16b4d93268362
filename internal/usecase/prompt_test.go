package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
	"docchat/internal/port"
)

func scored(source, text string, section int, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{Source: source, Text: text, Section: section},
		Score: score,
	}
}

func TestPackSnippetsRespectsBudget(t *testing.T) {
	chunks := []domain.ScoredChunk{
		scored("a.txt", strings.Repeat("a", 60), 0, 0.9),
		scored("b.txt", strings.Repeat("b", 50), 0, 0.8),
		scored("c.txt", strings.Repeat("c", 30), 0, 0.7),
	}

	snippets := packSnippets(chunks, 100)

	require.Len(t, snippets, 2)
	assert.Equal(t, "a.txt", snippets[0].Source)
	assert.Equal(t, "c.txt", snippets[1].Source)
}

func TestPackSnippetsTruncatesOversizedFirst(t *testing.T) {
	snippets := packSnippets([]domain.ScoredChunk{scored("a.txt", "héllo world", 0, 1)}, 5)

	require.Len(t, snippets, 1)
	assert.Equal(t, "héllo", snippets[0].Text)
}

func TestPackSnippetsNoBudget(t *testing.T) {
	snippets := packSnippets([]domain.ScoredChunk{
		scored("a.txt", strings.Repeat("a", 5000), 0, 1),
		scored("b.txt", strings.Repeat("b", 5000), 0, 1),
	}, 0)
	assert.Len(t, snippets, 2)
}

func TestDistinctSources(t *testing.T) {
	got := distinctSources([]Snippet{
		{Source: "b.pdf", Section: 1},
		{Source: "a.txt"},
		{Source: "b.pdf", Section: 2},
		{},
	})
	assert.Equal(t, []string{"b.pdf", "a.txt"}, got)
	assert.Nil(t, distinctSources(nil))
}

func TestAnswerMessages(t *testing.T) {
	b, err := NewPromptBuilder(1000)
	require.NoError(t, err)

	history := domain.History{{Query: "first?", Answer: "first answer"}}
	msgs, snippets, err := b.AnswerMessages("second?", []domain.ScoredChunk{
		scored("report.pdf", "Revenue grew 10%.", 3, 0.9),
		scored("notes.txt", "Costs were flat.", 0, 0.5),
	}, history)
	require.NoError(t, err)

	require.Len(t, snippets, 2)
	require.Len(t, msgs, 4)
	assert.Equal(t, port.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "### [1] report.pdf (section 3)\nRevenue grew 10%.")
	assert.Contains(t, msgs[0].Content, "### [2] notes.txt\nCosts were flat.")
	assert.Equal(t, []port.Message{
		{Role: port.RoleUser, Content: "first?"},
		{Role: port.RoleAssistant, Content: "first answer"},
		{Role: port.RoleUser, Content: "second?"},
	}, msgs[1:])
}

func TestCondenseMessages(t *testing.T) {
	b, err := NewPromptBuilder(1000)
	require.NoError(t, err)

	msgs, err := b.CondenseMessages("and the second?", domain.History{
		{Query: "who wrote the first?", Answer: "Alice"},
	})
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	assert.Equal(t, port.RoleUser, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Human: who wrote the first?\nAssistant: Alice\n")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(msgs[0].Content), "Standalone question:"))
}
