package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	queries int
	fail    bool
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func (e *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.queries++
	if e.fail {
		return nil, errors.New("boom")
	}
	return []float32{float32(len(text))}, nil
}

func (e *countingEmbedder) ModelName() string { return "counting" }

func TestCachedEmbedderHits(t *testing.T) {
	inner := &countingEmbedder{}
	e := NewCachedEmbedder(inner, NewQueryCache(time.Minute))
	ctx := context.Background()

	v1, err := e.EmbedQuery(ctx, "what is revenue")
	require.NoError(t, err)
	v2, err := e.EmbedQuery(ctx, "what is revenue")
	require.NoError(t, err)
	_, err = e.EmbedQuery(ctx, "something else")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 2, inner.queries)
	assert.Equal(t, "counting", e.ModelName())
}

func TestCachedEmbedderDoesNotCacheErrors(t *testing.T) {
	inner := &countingEmbedder{fail: true}
	c := NewQueryCache(time.Minute)
	e := NewCachedEmbedder(inner, c)

	_, err := e.EmbedQuery(context.Background(), "q")
	assert.Error(t, err)
	_, err = e.EmbedQuery(context.Background(), "q")
	assert.Error(t, err)
	assert.Equal(t, 2, inner.queries)
	assert.Equal(t, 0, c.Size())
}

func TestQueryCacheKeyedByModel(t *testing.T) {
	c := NewQueryCache(time.Minute)
	c.Put("m1", "q", []float32{1})

	_, ok := c.Get("m2", "q")
	assert.False(t, ok)

	v, ok := c.Get("m1", "q")
	require.True(t, ok)
	assert.Equal(t, []float32{1}, v)
	assert.Equal(t, 1, c.Size())
}

func TestQueryCacheExpires(t *testing.T) {
	c := NewQueryCache(20 * time.Millisecond)
	c.Put("m", "q", []float32{1})
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("m", "q")
	assert.False(t, ok)
}
