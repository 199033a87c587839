package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopchat/internal/app"
	"github.com/kailas-cloud/shopchat/internal/config"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
	logpkg "github.com/kailas-cloud/shopchat/internal/logger"
	"github.com/kailas-cloud/shopchat/internal/metrics"
	"github.com/kailas-cloud/shopchat/internal/usecase/indexing"
	"github.com/kailas-cloud/shopchat/internal/version"
)

// indexer is the slice of indexing.Service the commands drive.
type indexer interface {
	Seed(ctx context.Context, products []product.Product, clearFirst bool) (indexing.SeedReport, error)
	Reindex(ctx context.Context) (indexing.ReindexReport, error)
}

// counter reports the catalog size.
type counter interface {
	Count(ctx context.Context) (int, error)
}

// session is an opened catalog plus the indexer bound to it.
type session struct {
	indexer indexer
	catalog counter
	close   func()
}

// opener connects to the configured catalog. Tests substitute a fake.
type opener func(c *cli.Context, opts ...indexing.Option) (*session, error)

func main() {
	if err := newApp(openSession, os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(open opener, out io.Writer) *cli.App {
	return &cli.App{
		Name:    "catalogctl",
		Usage:   "Seed and reindex the shopchat product catalog",
		Version: version.String(),
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Config environment (config/<env>.yaml)",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "Load products from a YAML fixture, embed and store them",
				Action: seedCommand(open),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the products fixture",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Delete existing products before seeding",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of products embedded per provider call",
						Value: indexing.DefaultBatchSize,
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Recompute embeddings for every stored product",
				Action: reindexCommand(open),
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of products embedded per provider call",
						Value: indexing.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding batches (0: half the CPUs)",
					},
				},
			},
			{
				Name:   "count",
				Usage:  "Print the number of stored products",
				Action: countCommand(open),
			},
		},
	}
}

func seedCommand(open opener) cli.ActionFunc {
	return func(c *cli.Context) error {
		products, err := loadFixtureFile(c.String("file"))
		if err != nil {
			return err
		}

		s, err := open(c, indexing.WithBatchSize(c.Int("batch-size")))
		if err != nil {
			return err
		}
		defer s.close()

		rep, err := s.indexer.Seed(c.Context, products, c.Bool("clear"))
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if c.Bool("clear") {
			_, _ = fmt.Fprintf(c.App.Writer, "Cleared %d products\n", rep.Cleared)
		}
		_, _ = fmt.Fprintf(c.App.Writer, "Seeded %d products\n", rep.Stored)
		return nil
	}
}

func reindexCommand(open opener) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.Int("batch-size") <= 0 {
			return fmt.Errorf("batch-size must be positive, got %d", c.Int("batch-size"))
		}
		if c.Int("workers") < 0 {
			return fmt.Errorf("workers must not be negative, got %d", c.Int("workers"))
		}

		s, err := open(c, indexing.WithBatchSize(c.Int("batch-size")), indexing.WithWorkers(c.Int("workers")))
		if err != nil {
			return err
		}
		defer s.close()

		rep, err := s.indexer.Reindex(c.Context)
		if err != nil {
			return fmt.Errorf("reindex (%d indexed, %d failed): %w", rep.Indexed, rep.Failed, err)
		}
		_, _ = fmt.Fprintf(c.App.Writer, "Reindexed %d products\n", rep.Indexed)
		return nil
	}
}

func countCommand(open opener) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := open(c)
		if err != nil {
			return err
		}
		defer s.close()

		n, err := s.catalog.Count(c.Context)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		_, _ = fmt.Fprintf(c.App.Writer, "%d\n", n)
		return nil
	}
}

func loadFixtureFile(path string) ([]product.Product, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()

	products, err := indexing.LoadFixture(f)
	if err != nil {
		return nil, fmt.Errorf("load fixture %s: %w", path, err)
	}
	return products, nil
}

func openSession(c *cli.Context, opts ...indexing.Option) (*session, error) {
	env := c.String("env")
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := c.String("log-level")
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()

	res, err := app.OpenCatalog(c.Context, cfg, logger)
	if err != nil {
		return nil, err
	}
	embedders := app.BuildEmbedders(cfg, res.KV, logger)

	logger.Debug("Catalog session opened",
		zap.String("driver", cfg.Database.Driver),
		zap.String("provider", cfg.Embedding.Provider),
	)

	return &session{
		indexer: indexing.New(res.Catalog, embedders.Document, logger, opts...),
		catalog: res.Catalog,
		close: func() {
			res.Close()
			_ = logger.Sync()
		},
	}, nil
}
