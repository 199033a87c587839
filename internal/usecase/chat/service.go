// Package chat answers a shopper's free-text message with ranked products.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopchat/internal/domain"
	"github.com/kailas-cloud/shopchat/internal/domain/intent"
	"github.com/kailas-cloud/shopchat/internal/domain/product"
	"github.com/kailas-cloud/shopchat/internal/logger"
	"github.com/kailas-cloud/shopchat/internal/metrics"
	"github.com/kailas-cloud/shopchat/internal/usecase/retrieval"
)

// DefaultRecommendedCount is how many top product ids are recommended.
const DefaultRecommendedCount = 3

// Request is a single chat turn.
type Request struct {
	Message string
	// Requester identifies the caller for logging; authentication happens upstream.
	Requester string
}

// Response is the assistant's reply.
type Response struct {
	Answer         string
	Intent         intent.Intent
	RecommendedIDs []string
	Products       []product.Product
	// Degraded is set when the reply was built from lexical matches only.
	Degraded bool
}

// Service orchestrates retrieval, re-ranking, intent and answer synthesis.
type Service struct {
	retriever        Retriever
	reranker         Reranker
	recommendedCount int
}

// New creates a chat service. recommendedCount <= 0 uses DefaultRecommendedCount.
func New(retriever Retriever, reranker Reranker, recommendedCount int) *Service {
	if recommendedCount <= 0 {
		recommendedCount = DefaultRecommendedCount
	}
	return &Service{
		retriever:        retriever,
		reranker:         reranker,
		recommendedCount: recommendedCount,
	}
}

// Chat answers req. A blank message fails with domain.ErrEmptyMessage before any retrieval.
func (s *Service) Chat(ctx context.Context, req Request) (Response, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return Response{}, domain.ErrEmptyMessage
	}

	res, err := s.retriever.Retrieve(ctx, msg, 0)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve products: %w", err)
	}

	products := res.Products()
	if s.reranker != nil {
		products = s.reranker.Apply(msg, products)
	}

	it := intent.Classify(msg)
	metrics.ChatIntentTotal.WithLabelValues(it.String()).Inc()

	resp := Response{
		Answer:         Synthesize(it, msg, products),
		Intent:         it,
		RecommendedIDs: product.IDs(products[:min(len(products), s.recommendedCount)]),
		Products:       products,
		Degraded:       res.Degraded,
	}

	logger.FromContext(ctx).Info("Chat answered",
		zap.String("requester", req.Requester),
		zap.String("intent", it.String()),
		zap.Int("products", len(products)),
		zap.Int("lexical", res.Count(retrieval.SourceLexical)),
		zap.Int("semantic", res.Count(retrieval.SourceSemantic)),
		zap.Bool("degraded", res.Degraded),
	)

	return resp, nil
}
