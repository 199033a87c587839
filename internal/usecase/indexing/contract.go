package indexing

import (
	"context"

	"github.com/kailas-cloud/shopchat/internal/domain/product"
)

// Catalog is the write side of the product store used by tooling.
type Catalog interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, products []product.Product) error
	UpdateEmbedding(ctx context.Context, id string, vec []float32) error
	List(ctx context.Context, offset, limit int) ([]product.Product, int, error)
	Clear(ctx context.Context) (int, error)
}
