package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"docchat/config"
	"docchat/internal/adapter/embedding"
	"docchat/internal/adapter/llm"
	sessionapi "docchat/internal/api/session"
	"docchat/internal/usecase"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Embedding.Provider = "mock"
	cfg.Generation.Provider = "mock"

	sess, err := usecase.NewSession(context.Background(), cfg, embedding.NewMockEmbedder(64), llm.NewMockLLM())
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })

	router := SetupRouter(sessionapi.NewHandler(sess, cfg.Server.MaxUploadSize), zaptest.NewLogger(t), 10*time.Second)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestUploadThenAsk(t *testing.T) {
	srv := newTestServer(t)

	ask := func() sessionapi.ReplyDTO {
		resp, err := http.Post(srv.URL+"/ask", "application/json", strings.NewReader(`{"query":"What colour are apples?"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var reply sessionapi.ReplyDTO
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
		return reply
	}

	assert.Equal(t, "no_documents", ask().Status)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("files", "fruit.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("Apples are red. Bananas are yellow."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/documents", mw.FormDataContentType(), body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	reply := ask()
	assert.Equal(t, "answered", reply.Status)
	assert.Equal(t, []string{"fruit.txt"}, reply.Sources)
	assert.Contains(t, reply.Text, "Sources:\n1. fruit.txt")

	resp, err = http.Get(srv.URL + "/session")
	require.NoError(t, err)
	defer resp.Body.Close()
	var info usecase.SessionInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, 1, info.Documents)
	assert.Equal(t, 1, info.Turns)
}
