// Package retrieval merges lexical and semantic candidates for a chat query.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/shopchat/internal/domain"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
	"github.com/kailas-cloud/shopchat/internal/domain/query"
	"github.com/kailas-cloud/shopchat/internal/domain/vector"
	"github.com/kailas-cloud/shopchat/internal/logger"
	"github.com/kailas-cloud/shopchat/internal/metrics"
)

// Retrieval defaults.
const (
	DefaultTopK        = 8
	DefaultMaxDistance = 0.45
)

// Config tunes candidate selection.
type Config struct {
	TopK        int
	MaxDistance float64
}

// Service runs the lexical and semantic channels and merges their candidates.
type Service struct {
	catalog     Catalog
	embed       Embedder
	topK        int
	maxDistance float64
}

// New creates a retrieval service. Zero config values fall back to defaults;
// a negative MaxDistance is kept and admits no semantic candidates.
func New(catalog Catalog, embed Embedder, cfg Config) *Service {
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	maxDist := cfg.MaxDistance
	if maxDist == 0 {
		maxDist = DefaultMaxDistance
	}
	return &Service{catalog: catalog, embed: embed, topK: topK, maxDistance: maxDist}
}

// TopK returns the configured default candidate limit.
func (s *Service) TopK() int { return s.topK }

// Retrieve returns at most topK distinct candidates for raw: lexical hits first,
// then semantic neighbours within the distance threshold that lexical did not find.
// topK <= 0 uses the configured default. Blank input returns an empty result
// without touching the catalog or the embedder.
func (s *Service) Retrieve(ctx context.Context, raw string, topK int) (Result, error) {
	if strings.TrimSpace(raw) == "" {
		return Result{}, nil
	}
	if topK <= 0 {
		topK = s.topK
	}
	q := query.Effective(raw)

	var (
		lexical  []product.Product
		semantic []product.Product
		queryVec []float32
		embedErr error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		defer observePhase(SourceLexical, start)

		res, err := s.catalog.SearchLexical(gctx, q, topK)
		if err != nil {
			return fmt.Errorf("%w: lexical search: %w", domain.ErrCatalogUnavailable, err)
		}
		lexical = res
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		defer observePhase(SourceSemantic, start)

		emb, err := s.embed.Embed(gctx, q)
		if err != nil {
			// lexical-only fallback
			embedErr = err
			return nil
		}
		queryVec = emb.Embedding

		// lexical returns at most topK, so 2*topK leaves room for the exclusions
		res, err := s.catalog.SearchSemantic(gctx, queryVec, topK*2)
		if err != nil {
			return fmt.Errorf("%w: semantic search: %w", domain.ErrCatalogUnavailable, err)
		}
		semantic = res
		return nil
	})

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("retrieve: %w", err)
	}

	log := logger.FromContext(ctx)
	degraded := false
	if embedErr != nil {
		degraded = true
		metrics.RetrievalDegradedTotal.Inc()
		log.Warn("Semantic retrieval skipped", zap.String("query", q), zap.Error(embedErr))
	}

	lexical = truncate(lexical, topK)
	candidates := make([]Candidate, 0, topK)
	seen := make(map[string]struct{}, topK)
	for _, p := range lexical {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		candidates = append(candidates, Candidate{Product: p, Source: SourceLexical})
	}

	for _, c := range s.filterSemantic(log, queryVec, semantic, seen, topK) {
		if len(candidates) >= topK {
			break
		}
		seen[c.Product.ID] = struct{}{}
		candidates = append(candidates, c)
	}

	res := Result{Candidates: candidates, Degraded: degraded}
	metrics.RetrievalCandidatesTotal.WithLabelValues(string(SourceLexical)).Add(float64(res.Count(SourceLexical)))
	metrics.RetrievalCandidatesTotal.WithLabelValues(string(SourceSemantic)).Add(float64(res.Count(SourceSemantic)))

	return res, nil
}

// filterSemantic drops malformed vectors and lexical duplicates, keeps neighbours
// within maxDistance and orders them by ascending distance, capped at topK.
func (s *Service) filterSemantic(
	log *zap.Logger, queryVec []float32, found []product.Product,
	exclude map[string]struct{}, topK int,
) []Candidate {
	if len(queryVec) == 0 || len(found) == 0 {
		return nil
	}

	out := make([]Candidate, 0, len(found))
	for _, p := range found {
		if _, dup := exclude[p.ID]; dup {
			continue
		}
		if err := vector.Validate(p.Embedding, len(queryVec)); err != nil {
			metrics.RetrievalMalformedEmbeddingsTotal.WithLabelValues(malformedReason(err)).Inc()
			log.Debug("Skipping product with malformed embedding", zap.String("id", p.ID), zap.Error(err))
			continue
		}
		d := vector.CosineDistance(queryVec, p.Embedding)
		if d > s.maxDistance {
			continue
		}
		out = append(out, Candidate{Product: p, Source: SourceSemantic, Distance: d})
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})

	// same product can come back twice from a flaky index
	deduped := out[:0]
	ids := make(map[string]struct{}, len(out))
	for _, c := range out {
		if _, dup := ids[c.Product.ID]; dup {
			continue
		}
		ids[c.Product.ID] = struct{}{}
		deduped = append(deduped, c)
	}

	return truncate(deduped, topK)
}

func malformedReason(err error) string {
	switch {
	case errors.Is(err, vector.ErrEmpty):
		return "absent"
	case errors.Is(err, vector.ErrDimension):
		return "dimension"
	case errors.Is(err, vector.ErrNotUnit):
		return "not_unit"
	default:
		return "non_finite"
	}
}

func observePhase(src Source, start time.Time) {
	metrics.RetrievalDuration.WithLabelValues(string(src)).Observe(time.Since(start).Seconds())
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
