package chat

import (
	"context"

	"github.com/kailas-cloud/shopchat/internal/domain/product"
	"github.com/kailas-cloud/shopchat/internal/usecase/retrieval"
)

// Retriever produces the merged candidate set for a raw message.
type Retriever interface {
	Retrieve(ctx context.Context, raw string, topK int) (retrieval.Result, error)
}

// Reranker reorders candidates for domain-specific queries.
type Reranker interface {
	Apply(raw string, products []product.Product) []product.Product
}
