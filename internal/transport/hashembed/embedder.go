// Package hashembed is a deterministic local embedding provider for development
// and tests. Texts sharing words get nearby vectors; no network is involved.
package hashembed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/shopchat/internal/domain"
	"github.com/kailas-cloud/shopchat/internal/domain/vector"
)

// DefaultDimensions matches the all-MiniLM-L6-v2 output size.
const DefaultDimensions = 384

// projections is the number of buckets each token spreads into.
const projections = 4

// Embedder hashes tokens into a fixed-size vector (feature hashing).
type Embedder struct {
	dim int
}

// New creates a hashing embedder; dim <= 0 uses DefaultDimensions.
func New(dim int) *Embedder {
	if dim <= 0 {
		dim = DefaultDimensions
	}
	return &Embedder{dim: dim}
}

// Dimensions returns the output vector size.
func (e *Embedder) Dimensions() int { return e.dim }

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: e.vector(text)}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func (e *Embedder) vector(text string) []float32 {
	vec := make([]float32, e.dim)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		// whole-text seed keeps blank or symbol-only input unit length
		tokens = []string{text}
	}

	for _, tok := range tokens {
		seed := fnvSeed(tok)
		for range projections {
			seed = seed*1664525 + 1013904223 // LCG constants
			idx := int(seed % uint32(e.dim))
			sign := float32(1)
			if seed&0x80000000 != 0 {
				sign = -1
			}
			vec[idx] += sign
		}
	}

	if vector.Norm(vec) == 0 {
		// projections cancelled out
		vec[fnvSeed(text)%uint32(e.dim)] = 1
	}
	return vector.Normalize(vec)
}

func fnvSeed(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
