package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"docchat/internal/port"
)

// QueryCache keeps query embeddings for a while so repeated questions skip
// the provider round trip. Vectors depend only on the model and the text, so
// loading more documents never invalidates them.
type QueryCache struct {
	items *gocache.Cache
}

func NewQueryCache(ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &QueryCache{items: gocache.New(ttl, 2*ttl)}
}

func cacheKey(model, query string) string {
	hash := sha256.Sum256([]byte(model + "\x00" + query))
	return hex.EncodeToString(hash[:16])
}

func (c *QueryCache) Get(model, query string) ([]float32, bool) {
	v, ok := c.items.Get(cacheKey(model, query))
	if !ok {
		return nil, false
	}
	return v.([]float32), true
}

func (c *QueryCache) Put(model, query string, vector []float32) {
	c.items.SetDefault(cacheKey(model, query), vector)
}

func (c *QueryCache) Size() int {
	return c.items.ItemCount()
}

// CachedEmbedder serves EmbedQuery from a QueryCache and passes document
// embedding straight through.
type CachedEmbedder struct {
	port.Embedder
	cache *QueryCache
}

func NewCachedEmbedder(embedder port.Embedder, cache *QueryCache) *CachedEmbedder {
	return &CachedEmbedder{
		Embedder: embedder,
		cache:    cache,
	}
}

func (e *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	model := e.Embedder.ModelName()
	if vec, hit := e.cache.Get(model, text); hit {
		return vec, nil
	}

	vec, err := e.Embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Put(model, text, vec)
	return vec, nil
}
