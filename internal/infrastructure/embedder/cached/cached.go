// Package cached memoises embeddings in memory so repeated texts skip the provider.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ersonp/newscheck/internal/domain/ports"
)

// DefaultTTL is used when a non-positive TTL is given.
const DefaultTTL = time.Hour

// Embedder wraps another ports.Embedder with an expiring in-memory cache.
type Embedder struct {
	inner ports.Embedder
	cache *gocache.Cache
}

// New creates a caching embedder. Expired items are purged every ttl.
func New(inner ports.Embedder, ttl time.Duration) *Embedder {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Embedder{
		inner: inner,
		cache: gocache.New(ttl, ttl),
	}
}

// Embed returns the cached vector for text or asks the wrapped embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if v, ok := e.get(key); ok {
		return v, nil
	}

	v, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.SetDefault(key, v)
	return v, nil
}

// EmbedBatch serves cached texts locally and sends only the misses upstream.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if v, ok := e.get(cacheKey(text)); ok {
			out[i] = v
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	fetched, err := e.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fetched) != len(missTexts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missTexts), len(fetched))
	}

	for j, v := range fetched {
		out[missIdx[j]] = v
		e.cache.SetDefault(cacheKey(missTexts[j]), v)
	}
	return out, nil
}

// Len returns the number of cached vectors.
func (e *Embedder) Len() int {
	return e.cache.ItemCount()
}

func (e *Embedder) get(key string) ([]float32, bool) {
	if v, found := e.cache.Get(key); found {
		return v.([]float32), true
	}
	return nil, false
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
