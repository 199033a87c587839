package retrieval

import (
	"context"
	"sync/atomic"

	"github.com/kailas-cloud/shopchat/internal/domain"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
)

type mockCatalog struct {
	lexicalFn  func(ctx context.Context, q string, limit int) ([]product.Product, error)
	semanticFn func(ctx context.Context, vec []float32, k int) ([]product.Product, error)
	calls      atomic.Int32
}

func (m *mockCatalog) SearchLexical(ctx context.Context, q string, limit int) ([]product.Product, error) {
	m.calls.Add(1)
	if m.lexicalFn != nil {
		return m.lexicalFn(ctx, q, limit)
	}
	return nil, nil
}

func (m *mockCatalog) SearchSemantic(ctx context.Context, vec []float32, k int) ([]product.Product, error) {
	m.calls.Add(1)
	if m.semanticFn != nil {
		return m.semanticFn(ctx, vec, k)
	}
	return nil, nil
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls   atomic.Int32
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

func prod(id string, vec ...float32) product.Product {
	p := product.Product{ID: id, Name: "Product " + id}
	if len(vec) > 0 {
		p.Embedding = vec
	}
	return p
}

func ids(r Result) []string {
	return product.IDs(r.Products())
}
