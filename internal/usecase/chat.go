package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"docchat/internal/domain"
	"docchat/internal/port"
)

// mmrFetchFactor widens retrieval when a reranker picks the final TopK.
const mmrFetchFactor = 3

type ChatOptions struct {
	TopK             int
	Temperature      float64
	MaxTokens        int
	CondenseQuestion bool
	Reranker         port.Reranker // optional
}

// ChatEngine answers questions from the chunks of a vector index.
type ChatEngine struct {
	embedder port.Embedder
	llm      port.LLM
	prompts  *PromptBuilder
	opts     ChatOptions
}

func NewChatEngine(embedder port.Embedder, llm port.LLM, prompts *PromptBuilder, opts ChatOptions) *ChatEngine {
	return &ChatEngine{
		embedder: embedder,
		llm:      llm,
		prompts:  prompts,
		opts:     opts,
	}
}

// Answer runs one retrieval-augmented turn. It never returns an error: every
// failure becomes a Failed reply and leaves history untouched. On success the
// turn is appended to history.
func (e *ChatEngine) Answer(ctx context.Context, index port.VectorIndex, query string, history *domain.History) (reply domain.Reply) {
	stage := domain.StageEmbedding
	defer func() {
		if r := recover(); r != nil {
			ctxzap.Error(ctx, "panic while answering", zap.Any("panic", r))
			reply = domain.FailedReply(&domain.ChatError{Stage: stage, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	if index == nil || index.Count() == 0 {
		return domain.NoDocumentsReply()
	}

	var past domain.History
	if history != nil {
		past = *history
	}

	question := e.standaloneQuestion(ctx, query, past)

	vector, err := e.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return e.fail(ctx, domain.StageEmbedding, err)
	}

	stage = domain.StageRetrieval
	fetch := e.opts.TopK
	if e.opts.Reranker != nil {
		fetch *= mmrFetchFactor
	}
	chunks, err := index.Query(ctx, vector, fetch)
	if err != nil {
		return e.fail(ctx, domain.StageRetrieval, err)
	}
	if e.opts.Reranker != nil {
		chunks = e.opts.Reranker.Rerank(chunks, e.opts.TopK)
	}

	stage = domain.StageGeneration
	messages, snippets, err := e.prompts.AnswerMessages(query, chunks, past)
	if err != nil {
		return e.fail(ctx, domain.StageGeneration, err)
	}

	answer, err := e.llm.Chat(ctx, messages, port.ChatOptions{
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
	})
	if err != nil {
		return e.fail(ctx, domain.StageGeneration, err)
	}

	// only documents the model was shown are cited
	sources := distinctSources(snippets)
	if history != nil {
		history.Append(domain.ConversationTurn{Query: query, Answer: answer, Sources: sources})
	}

	ctxzap.Info(ctx, "question answered",
		zap.Int("chunks", len(chunks)),
		zap.Int("snippets", len(snippets)),
		zap.Strings("sources", sources),
		zap.Int("history_turns", len(past)+1),
	)

	return domain.AnsweredReply(answer, sources)
}

// standaloneQuestion rewrites a follow-up using the conversation so retrieval
// sees a self-contained question. On any failure the original query is used.
func (e *ChatEngine) standaloneQuestion(ctx context.Context, query string, history domain.History) string {
	if !e.opts.CondenseQuestion || len(history) == 0 {
		return query
	}

	messages, err := e.prompts.CondenseMessages(query, history)
	if err != nil {
		ctxzap.Warn(ctx, "failed to build condense prompt", zap.Error(err))
		return query
	}

	rewritten, err := e.llm.Chat(ctx, messages, port.ChatOptions{Temperature: 0})
	if err != nil {
		ctxzap.Warn(ctx, "failed to condense question, using it as asked", zap.Error(err))
		return query
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return query
	}
	ctxzap.Debug(ctx, "condensed question", zap.String("question", rewritten))
	return rewritten
}

func (e *ChatEngine) fail(ctx context.Context, stage domain.ChatStage, err error) domain.Reply {
	chatErr := &domain.ChatError{Stage: stage, Err: err}
	ctxzap.Error(ctx, "failed to answer question", zap.String("stage", string(stage)), zap.Error(err))
	return domain.FailedReply(chatErr)
}
