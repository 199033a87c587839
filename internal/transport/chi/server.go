package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopchat/internal/domain"
	"github.com/kailas-cloud/shopchat/internal/logger"
	"github.com/kailas-cloud/shopchat/internal/metrics"
	"github.com/kailas-cloud/shopchat/internal/usecase/chat"
	"github.com/kailas-cloud/shopchat/internal/usecase/health"
)

// maxBodyBytes bounds the chat request body.
const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the shopping assistant HTTP API.
type Server struct {
	chat          ChatService
	health        HealthService
	apiKeys       []string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. Empty apiKeys disables authentication.
func NewServer(chatSvc ChatService, healthSvc HealthService, apiKeys []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		chat:    chatSvc,
		health:  healthSvc,
		apiKeys: apiKeys,
		logger:  logger,
		errorHandlers: []errorHandler{
			sentinelHandler(domain.ErrEmptyMessage, http.StatusBadRequest, CodeValidationFailed),
			sentinelHandler(domain.ErrCatalogUnavailable, http.StatusBadGateway, CodeCatalogUnavailable),
			sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
			sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
			sentinelHandler(domain.ErrVectorDimMismatch, http.StatusInternalServerError, CodeVectorDimMismatch),
		},
	}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.apiKeys))
	r.Use(metrics.Middleware())

	r.Post("/api/chat", s.Chat)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.chat.Chat(r.Context(), chat.Request{
		Message:   req.Message,
		Requester: RequesterFromContext(r.Context()),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if resp.Degraded {
		w.Header().Set("X-Retrieval-Degraded", "true")
	}
	writeJSON(w, http.StatusOK, chatResponseFromDomain(resp))
}

// HealthCheck handles GET /health. Degraded still answers 200 since chat works lexical-only.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == health.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponseFromReport(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyMessage,
		domain.ErrCatalogUnavailable,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
