package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopchat/internal/app"
	"github.com/kailas-cloud/shopchat/internal/config"
	"github.com/kailas-cloud/shopchat/internal/domain/rerank"
	logpkg "github.com/kailas-cloud/shopchat/internal/logger"
	"github.com/kailas-cloud/shopchat/internal/metrics"
	chiTransport "github.com/kailas-cloud/shopchat/internal/transport/chi"
	chatuc "github.com/kailas-cloud/shopchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/shopchat/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/shopchat/internal/usecase/retrieval"
	"github.com/kailas-cloud/shopchat/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting shopchat API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Int("top_k", cfg.Retrieval.TopK),
		zap.Float64("max_distance", cfg.Retrieval.MaxDistance),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	ctx := context.Background()
	res, err := app.OpenCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	if err := res.Catalog.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure catalog schema: %w", err)
	}
	if n, err := res.Catalog.Count(ctx); err != nil {
		logger.Warn("Failed to count products", zap.Error(err))
	} else if n == 0 {
		logger.Warn("Catalog is empty, run catalogctl seed")
	}

	embedders := app.BuildEmbedders(cfg, res.KV, logger)

	ranker, err := rerank.NewRanker(cfg.Rerank.EffectiveRules())
	if err != nil {
		return fmt.Errorf("build reranker: %w", err)
	}

	retriever := retrievaluc.New(res.Catalog, embedders.Query, retrievaluc.Config{
		TopK:        cfg.Retrieval.TopK,
		MaxDistance: cfg.Retrieval.MaxDistance,
	})
	chatSvc := chatuc.New(retriever, ranker, cfg.Retrieval.RecommendedCount)
	healthSvc := healthuc.New(res.Store, app.HealthChecker{Embedder: embedders.Query}, 0)

	server := chiTransport.NewServer(chatSvc, healthSvc, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
