package indexing

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/kailas-cloud/shopchat/internal/domain"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
)

// memCatalog is an in-memory Catalog.
type memCatalog struct {
	mu          sync.Mutex
	items       map[string]product.Product
	ensured     int
	upsertErr   error
	listErr     error
	updateErrFn func(id string) error
}

func newMemCatalog(products ...product.Product) *memCatalog {
	c := &memCatalog{items: make(map[string]product.Product)}
	for _, p := range products {
		c.items[p.ID] = p
	}
	return c
}

func (c *memCatalog) EnsureSchema(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensured++
	return nil
}

func (c *memCatalog) Upsert(_ context.Context, products []product.Product) error {
	if c.upsertErr != nil {
		return c.upsertErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range products {
		c.items[p.ID] = p
	}
	return nil
}

func (c *memCatalog) UpdateEmbedding(_ context.Context, id string, vec []float32) error {
	if c.updateErrFn != nil {
		if err := c.updateErrFn(id); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.items[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Embedding = vec
	c.items[id] = p
	return nil
}

func (c *memCatalog) List(_ context.Context, offset, limit int) ([]product.Product, int, error) {
	if c.listErr != nil {
		return nil, 0, c.listErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if offset >= len(ids) {
		return nil, len(ids), nil
	}
	end := min(offset+limit, len(ids))
	out := make([]product.Product, 0, end-offset)
	for _, id := range ids[offset:end] {
		p := c.items[id]
		p.Embedding = nil
		out = append(out, p)
	}
	return out, len(ids), nil
}

func (c *memCatalog) Clear(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.items)
	c.items = make(map[string]product.Product)
	return n, nil
}

func (c *memCatalog) get(id string) product.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[id]
}

// reorderingCatalog lists products in write order and moves each updated
// product to the end, the way a search index re-adds a changed document.
type reorderingCatalog struct {
	*memCatalog
	order             []string
	updated           bool
	listedAfterUpdate bool
}

func newReorderingCatalog(products ...product.Product) *reorderingCatalog {
	c := &reorderingCatalog{memCatalog: newMemCatalog(products...)}
	for _, p := range products {
		c.order = append(c.order, p.ID)
	}
	return c
}

func (c *reorderingCatalog) UpdateEmbedding(ctx context.Context, id string, vec []float32) error {
	if err := c.memCatalog.UpdateEmbedding(ctx, id, vec); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updated = true
	i := slices.Index(c.order, id)
	c.order = append(slices.Delete(c.order, i, i+1), id)
	return nil
}

func (c *reorderingCatalog) List(_ context.Context, offset, limit int) ([]product.Product, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.updated {
		c.listedAfterUpdate = true
	}
	if offset >= len(c.order) {
		return nil, len(c.order), nil
	}
	end := min(offset+limit, len(c.order))
	out := make([]product.Product, 0, end-offset)
	for _, id := range c.order[offset:end] {
		p := c.items[id]
		p.Embedding = nil
		out = append(out, p)
	}
	return out, len(c.order), nil
}

// lenEmbedder returns [len(text), 1] so tests can check which text was embedded.
type lenEmbedder struct {
	mu        sync.Mutex
	batches   []int
	failOnLen int
}

var errEmbed = errors.New("embed failed")

func (e *lenEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}}, nil
}

func (e *lenEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.mu.Lock()
	e.batches = append(e.batches, len(texts))
	e.mu.Unlock()
	if e.failOnLen > 0 && len(texts) == e.failOnLen {
		return domain.BatchEmbeddingResult{}, errEmbed
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

func (e *lenEmbedder) batchSizes() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := slices.Clone(e.batches)
	slices.Sort(out)
	return out
}
