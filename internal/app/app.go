// Package app assembles stores, repositories and the embedder chain from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopchat/internal/config"
	"github.com/kailas-cloud/shopchat/internal/db"
	dbPostgres "github.com/kailas-cloud/shopchat/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/shopchat/internal/db/redis"
	"github.com/kailas-cloud/shopchat/internal/domain"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
	"github.com/kailas-cloud/shopchat/internal/metrics"
	"github.com/kailas-cloud/shopchat/internal/repository/catalog"
	"github.com/kailas-cloud/shopchat/internal/repository/embcache"
	"github.com/kailas-cloud/shopchat/internal/transport/hashembed"
	openaiEmb "github.com/kailas-cloud/shopchat/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/shopchat/internal/usecase/embedding"
)

// Catalog is the full product store surface used by the server and the CLI.
type Catalog interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, products []product.Product) error
	Get(ctx context.Context, id string) (product.Product, error)
	UpdateEmbedding(ctx context.Context, id string, vec []float32) error
	List(ctx context.Context, offset, limit int) ([]product.Product, int, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) (int, error)
	SearchLexical(ctx context.Context, q string, limit int) ([]product.Product, error)
	SearchSemantic(ctx context.Context, vec []float32, k int) ([]product.Product, error)
}

var (
	_ Catalog = (*catalog.RedisRepo)(nil)
	_ Catalog = (*catalog.PostgresRepo)(nil)
)

// pinger is satisfied by both store drivers.
type pinger interface {
	db.Pinger
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// Resources holds the opened catalog store.
type Resources struct {
	Catalog Catalog
	// Store answers health pings.
	Store pinger
	// KV is the Redis-compatible store, nil for postgres.
	KV *dbRedis.Store
}

// Close releases the store connection.
func (r *Resources) Close() {
	if r.Store != nil {
		r.Store.Close()
	}
}

// OpenCatalog connects to the configured driver, waits for readiness and
// builds the catalog repository. It does not create the schema.
func OpenCatalog(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Resources, error) {
	var res Resources
	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
			Flavor:   dbRedis.Flavor(cfg.Database.Driver),
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
		}
		algo, err := db.ParseVectorAlgorithm(cfg.Index.Algorithm)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("index algorithm: %w", err)
		}
		res.Store = store
		res.KV = store
		res.Catalog = catalog.NewRedis(store, catalog.RedisConfig{
			KeyPrefix:    cfg.Database.KeyPrefix,
			Dimensions:   cfg.Embedding.Dimensions,
			Algorithm:    algo,
			HNSWM:        cfg.Index.HNSWM,
			HNSWEFConstr: cfg.Index.HNSWEFConstruct,
		})
	case config.DriverPostgres:
		pg, err := dbPostgres.Open(dbPostgres.Config{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: cfg.Database.MaxOpenConns,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		res.Store = pg
		res.Catalog = catalog.NewPostgres(pg, cfg.Database.Table, cfg.Embedding.Dimensions)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := res.Store.WaitForReady(ctx, timeout); err != nil {
		res.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
	return &res, nil
}

// Embedders is the query/document pair built from one provider.
type Embedders struct {
	// Query is cached and used per chat turn.
	Query domain.Embedder
	// Document is uncached and used by seed and reindex.
	Document domain.Embedder
}

// BuildEmbedders assembles the decorator chains:
// provider -> instrumented -> cached (query only) -> instruction.
// kv enables the shared cache tier when cfg.Embedding.SharedCache is set.
func BuildEmbedders(cfg config.Config, kv *dbRedis.Store, logger *zap.Logger) Embedders {
	ec := cfg.Embedding

	var base domain.Embedder
	model := ec.Model
	switch ec.Provider {
	case config.ProviderOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Timeout:    ec.Timeout(),
			Logger:     logger,
		})
	default:
		base = hashembed.New(ec.Dimensions)
		model = "fnv-hash"
	}

	instrumented := embeddinguc.NewInstrumentedEmbedder(base, ec.Provider, model, ec.Dimensions, logger)

	opts := embcache.Options{TTL: ec.CacheTTL()}
	// Assign only a non-nil store: a typed nil inside the interface would not compare equal to nil.
	if ec.SharedCache && kv != nil {
		opts.Shared = kv
	}
	cached := embcache.New(instrumented, embcache.NewLRU(ec.CacheSize), opts, metrics.EmbeddingCacheTotal, logger)

	return Embedders{
		Query:    withInstruction(cached, ec.QueryInstruction),
		Document: withInstruction(instrumented, ec.DocumentInstruction),
	}
}

func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

// HealthChecker adapts an embedder to a health probe; embedders without one report healthy.
type HealthChecker struct {
	Embedder domain.Embedder
}

// HealthCheck probes the embedder when it supports it.
func (h HealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.Embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
