package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/config"
	"docchat/internal/adapter/retry"
	"docchat/internal/domain"
	"docchat/internal/port"
)

func testHTTP() config.HTTPConfig {
	return config.HTTPConfig{Timeout: 2 * time.Second, ConnTimeout: time.Second}
}

func fastRetry() retry.RetryConfig {
	return retry.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

var conversation = []port.Message{
	{Role: port.RoleSystem, Content: "Answer from context."},
	{Role: port.RoleUser, Content: "What is X?"},
	{Role: port.RoleAssistant, Content: "X is a thing."},
	{Role: port.RoleUser, Content: "And Y?"},
}

func TestGeminiClientRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "Answer from context.", req.SystemInstruction.Parts[0].Text)
		require.Len(t, req.Contents, 3)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "model", req.Contents[1].Role)
		assert.Equal(t, "And Y?", req.Contents[2].Parts[0].Text)
		assert.InDelta(t, 0.3, req.GenerationConfig.Temperature, 1e-9)

		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Y is "},{"text":"another."}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	t.Setenv("TEST_GOOGLE_KEY", "g-key")
	c := NewGeminiClient(config.GenerationConfig{Model: "gemini-2.0-flash", BaseURL: srv.URL, APIKeyEnv: "TEST_GOOGLE_KEY"}, testHTTP(), fastRetry())

	out, err := c.Chat(context.Background(), conversation, port.ChatOptions{Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "Y is another.", out)
}

func TestGeminiClientBlockedPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	t.Setenv("TEST_GOOGLE_KEY", "g-key")
	c := NewGeminiClient(config.GenerationConfig{Model: "gemini-2.0-flash", BaseURL: srv.URL, APIKeyEnv: "TEST_GOOGLE_KEY"}, testHTTP(), fastRetry())

	_, err := c.Chat(context.Background(), conversation, port.ChatOptions{})
	var pe *domain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, domain.ProviderRejected, pe.Kind)
	assert.Contains(t, pe.Error(), "SAFETY")
}

func TestGeminiClientQuotaNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"You exceeded your current quota","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	t.Setenv("TEST_GOOGLE_KEY", "g-key")
	c := NewGeminiClient(config.GenerationConfig{Model: "gemini-2.0-flash", BaseURL: srv.URL, APIKeyEnv: "TEST_GOOGLE_KEY"}, testHTTP(), fastRetry())

	_, err := c.Chat(context.Background(), conversation, port.ChatOptions{})
	var pe *domain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, domain.ProviderQuota, pe.Kind)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIClientChat(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 4)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "assistant", req.Messages[2].Role)
		require.NotNil(t, req.Temperature)
		assert.Equal(t, 0.0, *req.Temperature)

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Y too."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	t.Setenv("TEST_OPENAI_KEY", "sk")
	c := NewOpenAIClient(config.GenerationConfig{Model: "gpt-4o-mini", BaseURL: srv.URL, APIKeyEnv: "TEST_OPENAI_KEY"}, testHTTP(), fastRetry())

	out, err := c.Chat(context.Background(), conversation, port.ChatOptions{Temperature: 0})
	require.NoError(t, err)
	assert.Equal(t, "Y too.", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMockLLM(t *testing.T) {
	out, err := NewMockLLM().Chat(context.Background(), conversation, port.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Mock answer to: And Y?", out)
}

func TestNewProviders(t *testing.T) {
	for provider, want := range map[string]string{"gemini": "gemini-2.0-flash", "openai": "gemini-2.0-flash", "mock": "mock"} {
		c, err := New(config.GenerationConfig{Provider: provider, Model: "gemini-2.0-flash"}, testHTTP(), fastRetry())
		require.NoError(t, err)
		assert.Equal(t, want, c.ModelName(), provider)
	}

	_, err := New(config.GenerationConfig{Provider: "bard"}, testHTTP(), fastRetry())
	var cfgErr *domain.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}
