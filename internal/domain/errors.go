package domain

import "errors"

var (
	// ErrEmptyMessage signals a chat message that is empty after trimming.
	ErrEmptyMessage = errors.New("message is required")
	// ErrCatalogUnavailable signals a catalog store failure (infrastructure, not "no matches").
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrProductNotFound signals a missing product.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidProduct signals a product that fails validation on the write path.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
