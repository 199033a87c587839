package retrieval

import (
	"context"

	"github.com/kailas-cloud/shopchat/internal/domain"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
)

// Catalog is the read side of the product store.
type Catalog interface {
	// SearchLexical returns products whose name, brand, category or description
	// contains q (case-insensitive), ordered by rating, reviews, recency; at most limit.
	SearchLexical(ctx context.Context, q string, limit int) ([]product.Product, error)
	// SearchSemantic returns up to k nearest products with their stored vectors.
	SearchSemantic(ctx context.Context, vec []float32, k int) ([]product.Product, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
