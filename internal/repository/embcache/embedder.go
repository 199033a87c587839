package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopchat/internal/db"
	"github.com/kailas-cloud/shopchat/internal/domain"
)

// Cache tiers, used as metric label values.
const (
	TierLocal  = "local"
	TierShared = "shared"
)

// store is the consumer interface for the shared cache tier (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures the optional shared tier.
type Options struct {
	Shared    store // nil disables the shared tier
	KeyPrefix string
	TTL       time.Duration
}

// CachedEmbedder serves repeated query embeddings from an in-process LRU,
// then from an optional shared key-value tier, before calling the provider.
type CachedEmbedder struct {
	inner      domain.Embedder
	local      *LRU
	shared     store
	keyPrefix  string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with labels "tier" and "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	local *LRU,
	opts Options,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if local == nil {
		local = NewLRU(DefaultCapacity)
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "shopchat:emb_cache:"
	}
	return &CachedEmbedder{
		inner:      inner,
		local:      local,
		shared:     opts.Shared,
		keyPrefix:  prefix,
		ttl:        opts.TTL,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: Cached = true, no tokens reported.
// Cache miss: full EmbeddingResult from inner.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if vec, ok := c.local.Get(text); ok {
		c.incCache(TierLocal, "hit")
		return domain.EmbeddingResult{Embedding: vec, Cached: true}, nil
	}
	c.incCache(TierLocal, "miss")

	key := c.sharedKey(text)
	if c.shared != nil {
		if vec, ok := c.getShared(ctx, key); ok {
			c.incCache(TierShared, "hit")
			c.local.Put(text, vec)
			return domain.EmbeddingResult{Embedding: vec, Cached: true}, nil
		}
		c.incCache(TierShared, "miss")
	}

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.local.Put(text, result.Embedding)
	if c.shared != nil {
		c.putShared(ctx, key, result.Embedding)
	}
	return result, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *CachedEmbedder) incCache(tier, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(tier, result).Inc()
	}
}

func (c *CachedEmbedder) sharedKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return c.keyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getShared(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.shared.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return vec, true
}

func (c *CachedEmbedder) putShared(ctx context.Context, key string, vec []float32) {
	if err := c.shared.SetWithTTL(ctx, key, vectorToCacheBytes(vec), c.ttl); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
