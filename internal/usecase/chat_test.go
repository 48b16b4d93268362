package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/adapter/memstore"
	"docchat/internal/adapter/store"
	"docchat/internal/domain"
	"docchat/internal/port"
)

type stubEmbedder struct {
	queries []string
	err     error
}

func (e *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, e.err
}

func (e *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.queries = append(e.queries, text)
	if e.err != nil {
		return nil, e.err
	}
	return []float32{1, 0}, nil
}

func (e *stubEmbedder) ModelName() string { return "stub" }

// scriptedLLM returns its replies in order and records every call.
type scriptedLLM struct {
	replies []string
	errs    []error
	calls   [][]port.Message
	panics  bool
}

func (l *scriptedLLM) Chat(ctx context.Context, messages []port.Message, opts port.ChatOptions) (string, error) {
	if l.panics {
		panic("model exploded")
	}
	i := len(l.calls)
	l.calls = append(l.calls, messages)
	var err error
	if i < len(l.errs) {
		err = l.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(l.replies) {
		return l.replies[i], nil
	}
	return "answer", nil
}

func (l *scriptedLLM) ModelName() string { return "scripted" }

func newTestEngine(t *testing.T, e port.Embedder, l port.LLM, condense bool) *ChatEngine {
	t.Helper()
	prompts, err := NewPromptBuilder(12000)
	require.NoError(t, err)
	return NewChatEngine(e, l, prompts, ChatOptions{TopK: 5, CondenseQuestion: condense})
}

func seededIndex(t *testing.T) *memstore.MemoryStore {
	t.Helper()
	idx := memstore.NewMemoryStore(store.MetricCosine)
	chunk := func(id, source string) domain.IndexEntry {
		return domain.IndexEntry{
			Chunk:     domain.Chunk{ID: id, Source: source, Text: "text of " + id},
			Embedding: []float32{1, 0},
		}
	}
	require.NoError(t, idx.Insert(context.Background(), []domain.IndexEntry{
		chunk("1", "a.txt"),
		chunk("2", "b.csv"),
		chunk("3", "a.txt"),
	}))
	return idx
}

func TestAnswerWithoutDocumentsSkipsProviders(t *testing.T) {
	emb := &stubEmbedder{}
	model := &scriptedLLM{}
	engine := newTestEngine(t, emb, model, true)
	var history domain.History

	reply := engine.Answer(context.Background(), nil, "anything?", &history)
	assert.Equal(t, domain.ReplyNoDocuments, reply.Status)
	assert.Equal(t, domain.NoDocumentsMessage, reply.Text)

	reply = engine.Answer(context.Background(), memstore.NewMemoryStore(store.MetricCosine), "anything?", &history)
	assert.Equal(t, domain.ReplyNoDocuments, reply.Status)

	assert.Empty(t, emb.queries)
	assert.Empty(t, model.calls)
	assert.Empty(t, history)
}

func TestAnswerAppendsTurnWithDistinctSources(t *testing.T) {
	emb := &stubEmbedder{}
	model := &scriptedLLM{replies: []string{"It is blue."}}
	engine := newTestEngine(t, emb, model, true)
	var history domain.History

	reply := engine.Answer(context.Background(), seededIndex(t), "What colour is it?", &history)

	require.True(t, reply.OK(), reply.Text)
	assert.Equal(t, "It is blue.", reply.Answer)
	assert.Equal(t, []string{"a.txt", "b.csv"}, reply.Sources)
	assert.Equal(t, "It is blue.\n\nSources:\n1. a.txt\n2. b.csv\n", reply.Text)

	require.Len(t, history, 1)
	assert.Equal(t, domain.ConversationTurn{Query: "What colour is it?", Answer: "It is blue.", Sources: []string{"a.txt", "b.csv"}}, history[0])

	// first turn has nothing to condense
	require.Len(t, model.calls, 1)
	assert.Equal(t, []string{"What colour is it?"}, emb.queries)

	msgs := model.calls[0]
	assert.Equal(t, port.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "text of 1")
	assert.Equal(t, port.Message{Role: port.RoleUser, Content: "What colour is it?"}, msgs[len(msgs)-1])
}

func TestAnswerEmbeddingFailureLeavesHistory(t *testing.T) {
	emb := &stubEmbedder{err: &domain.ProviderError{Kind: domain.ProviderAuth, Provider: "gemini", StatusCode: 401}}
	model := &scriptedLLM{}
	engine := newTestEngine(t, emb, model, false)
	history := domain.History{{Query: "q", Answer: "a"}}

	reply := engine.Answer(context.Background(), seededIndex(t), "next?", &history)

	assert.Equal(t, domain.ReplyFailed, reply.Status)
	require.NotNil(t, reply.Err)
	assert.Equal(t, domain.StageEmbedding, reply.Err.Stage)
	assert.Contains(t, reply.Text, "An error occurred: ")

	var provErr *domain.ProviderError
	assert.True(t, errors.As(reply.Err, &provErr))
	assert.Len(t, history, 1)
	assert.Empty(t, model.calls)
}

func TestAnswerGenerationFailure(t *testing.T) {
	model := &scriptedLLM{errs: []error{errors.New("upstream 503")}}
	engine := newTestEngine(t, &stubEmbedder{}, model, false)
	var history domain.History

	reply := engine.Answer(context.Background(), seededIndex(t), "q", &history)

	assert.Equal(t, domain.ReplyFailed, reply.Status)
	assert.Equal(t, domain.StageGeneration, reply.Err.Stage)
	assert.Empty(t, history)
}

type brokenIndex struct{}

func (brokenIndex) Insert(ctx context.Context, entries []domain.IndexEntry) error { return nil }
func (brokenIndex) Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	return nil, domain.ErrIndexClosed
}
func (brokenIndex) Count() int     { return 1 }
func (brokenIndex) Dimension() int { return 2 }
func (brokenIndex) Close() error   { return nil }

func TestAnswerRetrievalFailure(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{}, &scriptedLLM{}, false)

	reply := engine.Answer(context.Background(), brokenIndex{}, "q", nil)
	assert.Equal(t, domain.ReplyFailed, reply.Status)
	assert.Equal(t, domain.StageRetrieval, reply.Err.Stage)
	assert.ErrorIs(t, reply.Err, domain.ErrIndexClosed)
}

func TestAnswerCondensesFollowUp(t *testing.T) {
	emb := &stubEmbedder{}
	model := &scriptedLLM{replies: []string{"  What is the colour of the sky?\n", "Blue."}}
	engine := newTestEngine(t, emb, model, true)
	history := domain.History{{Query: "Tell me about the sky", Answer: "The sky is above."}}

	reply := engine.Answer(context.Background(), seededIndex(t), "What colour is it?", &history)

	require.True(t, reply.OK(), reply.Text)
	require.Len(t, model.calls, 2)
	assert.Contains(t, model.calls[0][0].Content, "Human: Tell me about the sky")
	assert.Contains(t, model.calls[0][0].Content, "Follow Up Input: What colour is it?")
	assert.Equal(t, []string{"What is the colour of the sky?"}, emb.queries)

	// the answer prompt replays the conversation and keeps the original wording
	answerMsgs := model.calls[1]
	require.Len(t, answerMsgs, 4)
	assert.Equal(t, port.Message{Role: port.RoleUser, Content: "Tell me about the sky"}, answerMsgs[1])
	assert.Equal(t, port.Message{Role: port.RoleAssistant, Content: "The sky is above."}, answerMsgs[2])
	assert.Equal(t, "What colour is it?", answerMsgs[3].Content)

	require.Len(t, history, 2)
	assert.Equal(t, "What colour is it?", history[1].Query)
}

func TestAnswerCondenseFailureFallsBack(t *testing.T) {
	emb := &stubEmbedder{}
	model := &scriptedLLM{errs: []error{errors.New("rate limited"), nil}, replies: []string{"", "ok"}}
	engine := newTestEngine(t, emb, model, true)
	history := domain.History{{Query: "q1", Answer: "a1"}}

	reply := engine.Answer(context.Background(), seededIndex(t), "q2", &history)

	require.True(t, reply.OK(), reply.Text)
	assert.Equal(t, "ok", reply.Answer)
	assert.Equal(t, []string{"q2"}, emb.queries)
}

func TestAnswerRecoversPanic(t *testing.T) {
	engine := newTestEngine(t, &stubEmbedder{}, &scriptedLLM{panics: true}, false)
	var history domain.History

	reply := engine.Answer(context.Background(), seededIndex(t), "q", &history)

	assert.Equal(t, domain.ReplyFailed, reply.Status)
	assert.Equal(t, domain.StageGeneration, reply.Err.Stage)
	assert.Contains(t, reply.Text, "model exploded")
	assert.Empty(t, history)
}

type recordingReranker struct {
	got []int
	k   int
}

func (r *recordingReranker) Rerank(candidates []domain.ScoredChunk, k int) []domain.ScoredChunk {
	r.got = append(r.got, len(candidates))
	r.k = k
	return candidates[len(candidates)-1:]
}

func TestAnswerWithReranker(t *testing.T) {
	idx := memstore.NewMemoryStore(store.MetricCosine)
	var entries []domain.IndexEntry
	for i := 0; i < 10; i++ {
		entries = append(entries, domain.IndexEntry{
			Chunk:     domain.Chunk{ID: string(rune('a' + i)), Source: "doc.txt", Text: "t"},
			Embedding: []float32{1, float32(i)},
		})
	}
	require.NoError(t, idx.Insert(context.Background(), entries))

	rr := &recordingReranker{}
	prompts, err := NewPromptBuilder(12000)
	require.NoError(t, err)
	engine := NewChatEngine(&stubEmbedder{}, &scriptedLLM{}, prompts, ChatOptions{TopK: 2, Reranker: rr})

	reply := engine.Answer(context.Background(), idx, "q", nil)

	require.True(t, reply.OK(), reply.Text)
	assert.Equal(t, []int{6}, rr.got)
	assert.Equal(t, 2, rr.k)
	assert.Equal(t, []string{"doc.txt"}, reply.Sources)
}

func TestAnswerCitesOnlyPackedDocuments(t *testing.T) {
	idx := memstore.NewMemoryStore(store.MetricCosine)
	require.NoError(t, idx.Insert(context.Background(), []domain.IndexEntry{
		{Chunk: domain.Chunk{ID: "1", Source: "a.txt", Text: strings.Repeat("a", 1000)}, Embedding: []float32{1, 0}},
		{Chunk: domain.Chunk{ID: "2", Source: "b.txt", Text: strings.Repeat("b", 1000)}, Embedding: []float32{1, 0}},
	}))

	prompts, err := NewPromptBuilder(1500)
	require.NoError(t, err)
	model := &scriptedLLM{replies: []string{"Mostly a."}}
	engine := NewChatEngine(&stubEmbedder{}, model, prompts, ChatOptions{TopK: 5})
	var history domain.History

	reply := engine.Answer(context.Background(), idx, "q", &history)

	require.True(t, reply.OK(), reply.Text)
	assert.Equal(t, []string{"a.txt"}, reply.Sources)
	assert.Equal(t, "Mostly a.\n\nSources:\n1. a.txt\n", reply.Text)
	assert.NotContains(t, model.calls[0][0].Content, "b.txt")
	require.Len(t, history, 1)
	assert.Equal(t, []string{"a.txt"}, history[0].Sources)
}
