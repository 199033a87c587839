// Package indexing seeds the catalog and keeps product embeddings current.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopchat/internal/domain"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
	"github.com/kailas-cloud/shopchat/internal/domain/vector"
)

// DefaultBatchSize is the number of products embedded per provider call.
const DefaultBatchSize = 64

// Service embeds product texts and writes them to the catalog.
type Service struct {
	catalog   Catalog
	embed     domain.Embedder
	batchSize int
	workers   int
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBatchSize sets how many products are embedded per call.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithWorkers sets how many batches are embedded concurrently during reindex.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates an indexing service.
func New(catalog Catalog, embed domain.Embedder, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		catalog:   catalog,
		embed:     embed,
		batchSize: DefaultBatchSize,
		workers:   max(1, runtime.NumCPU()/2),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedReport summarizes a Seed run.
type SeedReport struct {
	Cleared int
	Stored  int
}

// Seed ensures the schema, optionally clears the catalog and upserts products with embeddings.
func (s *Service) Seed(ctx context.Context, products []product.Product, clearFirst bool) (SeedReport, error) {
	var rep SeedReport

	if err := s.catalog.EnsureSchema(ctx); err != nil {
		return rep, fmt.Errorf("ensure schema: %w", err)
	}

	if clearFirst {
		n, err := s.catalog.Clear(ctx)
		if err != nil {
			return rep, fmt.Errorf("clear catalog: %w", err)
		}
		rep.Cleared = n
		s.logger.Info("Catalog cleared", zap.Int("deleted", n))
	}

	n, err := s.Upsert(ctx, products)
	rep.Stored = n
	if err != nil {
		return rep, err
	}

	s.logger.Info("Seeding complete", zap.Int("products", n))
	return rep, nil
}

// Upsert embeds and stores products in batches, so every saved product is searchable.
// Returns the number of products stored before any failure.
func (s *Service) Upsert(ctx context.Context, products []product.Product) (int, error) {
	stored := 0
	for start := 0; start < len(products); start += s.batchSize {
		batch := products[start:min(start+s.batchSize, len(products))]

		vecs, err := s.embedBatch(ctx, batch)
		if err != nil {
			return stored, fmt.Errorf("embed batch at %d: %w", start, err)
		}

		withVec := make([]product.Product, len(batch))
		for i := range batch {
			withVec[i] = batch[i]
			withVec[i].Embedding = vecs[i]
		}
		if err := s.catalog.Upsert(ctx, withVec); err != nil {
			return stored, fmt.Errorf("upsert batch at %d: %w", start, err)
		}
		stored += len(batch)
	}
	return stored, nil
}

// ReindexReport summarizes a Reindex run.
type ReindexReport struct {
	Indexed int
	Failed  int
}

// Reindex recomputes embeddings for every stored product. The whole catalog
// is listed before any vector is written, since a search index may move an
// updated document within its listing order. Batches are then embedded
// concurrently on a bounded worker pool. Failed batches are counted and
// reported; the run continues past them.
func (s *Service) Reindex(ctx context.Context) (ReindexReport, error) {
	products, err := s.listAll(ctx)
	if err != nil {
		return ReindexReport{}, err
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return ReindexReport{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		rep  ReindexReport
		errs []error
	)

	total := len(products)
	for start := 0; start < total; start += s.batchSize {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return rep, fmt.Errorf("reindex: %w", err)
		}

		batch := products[start:min(start+s.batchSize, total)]
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			n, err := s.reindexBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			rep.Indexed += n
			if err != nil {
				rep.Failed += len(batch) - n
				errs = append(errs, err)
				s.logger.Warn("Reindex batch failed", zap.Int("offset", start), zap.Error(err))
				return
			}
			s.logger.Info("Indexed products", zap.Int("indexed", rep.Indexed), zap.Int("total", total))
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return rep, fmt.Errorf("submit batch: %w", submitErr)
		}
	}

	wg.Wait()
	s.logger.Info("Reindex done", zap.Int("indexed", rep.Indexed), zap.Int("failed", rep.Failed))

	if len(errs) > 0 {
		return rep, fmt.Errorf("reindex: %d batches failed: %w", len(errs), errors.Join(errs...))
	}
	return rep, nil
}

// listAll pages through the catalog once, keeping the first copy of each ID.
func (s *Service) listAll(ctx context.Context) ([]product.Product, error) {
	var out []product.Product
	seen := make(map[string]struct{})
	for offset := 0; ; offset += s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("reindex: %w", err)
		}
		page, total, err := s.catalog.List(ctx, offset, s.batchSize)
		if err != nil {
			return nil, fmt.Errorf("list products at %d: %w", offset, err)
		}
		for _, p := range page {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
		if len(page) == 0 || offset+len(page) >= total {
			return out, nil
		}
	}
}

func (s *Service) reindexBatch(ctx context.Context, page []product.Product) (int, error) {
	vecs, err := s.embedBatch(ctx, page)
	if err != nil {
		return 0, err
	}
	for i := range page {
		if err := s.catalog.UpdateEmbedding(ctx, page[i].ID, vecs[i]); err != nil {
			return i, fmt.Errorf("update embedding %s: %w", page[i].ID, err)
		}
	}
	return len(page), nil
}

func (s *Service) embedBatch(ctx context.Context, products []product.Product) ([][]float32, error) {
	texts := make([]string, len(products))
	for i := range products {
		texts[i] = products[i].EmbeddingText()
	}

	res, err := domain.BatchEmbed(ctx, s.embed, texts)
	if err != nil {
		return nil, fmt.Errorf("embed products: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d products: %w",
			len(res.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
	}

	out := make([][]float32, len(res.Embeddings))
	for i, v := range res.Embeddings {
		out[i] = vector.Normalize(v)
	}
	return out, nil
}
