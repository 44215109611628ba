// Package server exposes the fact-checking pipeline over HTTP. The surface
// has two halves: direct verification endpoints (/fact-check, /extract) and
// an OpenAI-compatible adapter (/v1/completions, /v1/chat/completions,
// /v1/models) that reshapes verification results into completion envelopes
// so existing OpenAI clients can consume the service unchanged.
//
// Handlers are thin: request decoding, delegation to the pipeline, response
// shaping. Pipeline failures surface as well-formed result bodies with
// status 200; only malformed requests produce error statuses.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/ncls-p/teapot-facts/internal/domain"
)

var tracer = otel.Tracer("teapot-facts.server")

// FactChecker is the verification capability consumed by the HTTP layer.
type FactChecker interface {
	CheckFact(ctx context.Context, query, contextText string, documents []domain.Document) domain.VerificationResult
}

// Extractor is the structured-extraction capability consumed by the HTTP layer.
type Extractor interface {
	Extract(ctx context.Context, schema domain.ExtractionSchema, query, contextText string, documents []domain.Document) domain.ExtractionResult
}

// DocumentStore is the model-side document retention capability behind the
// /v1/documents endpoints.
type DocumentStore interface {
	IndexDocuments(documents []domain.Document) int
	StoredDocuments() []domain.Document
	ClearDocuments() int
}

// Options tunes the HTTP surface.
type Options struct {
	// AllowedOrigins lists CORS origins; a single "*" permits any origin.
	// Empty disables cross-origin access.
	AllowedOrigins []string
	// MetricsEnabled mounts the Prometheus /metrics endpoint.
	MetricsEnabled bool
}

// Server holds the pipeline capabilities behind the HTTP handlers.
type Server struct {
	checker   FactChecker
	extractor Extractor
	store     DocumentStore
	logger    *slog.Logger
	opts      Options
}

// NewServer assembles the HTTP layer. The document store may be nil, in
// which case the /v1/documents endpoints report the store as unavailable.
func NewServer(checker FactChecker, extractor Extractor, store DocumentStore, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		checker:   checker,
		extractor: extractor,
		store:     store,
		logger:    logger,
		opts:      opts,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), corsMiddleware(s.opts.AllowedOrigins))

	router.GET("/health", s.handleHealth)
	if s.opts.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.POST("/fact-check", s.handleFactCheck)
	router.POST("/extract", s.handleExtract)

	v1 := router.Group("/v1")
	{
		v1.POST("/completions", s.handleCompletions)
		v1.POST("/chat/completions", s.handleChatCompletions)
		v1.GET("/models", s.handleListModels)
		v1.GET("/models/:id", s.handleGetModel)
		v1.POST("/documents", s.handleIndexDocuments)
		v1.GET("/documents", s.handleListDocuments)
		v1.DELETE("/documents", s.handleClearDocuments)
	}

	return router
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// corsMiddleware implements the permissive CORS policy the API has always
// shipped with. Origins outside the allowed set receive no CORS headers and
// are rejected by the browser, not the server.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAny := false
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAny = true
		}
		allowedSet[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAny {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if _, ok := allowedSet[origin]; ok && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// documentPayload is the wire form of a grounding document.
type documentPayload struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// toDocuments converts wire documents to domain documents, preserving order.
func toDocuments(payloads []documentPayload) []domain.Document {
	if len(payloads) == 0 {
		return nil
	}
	documents := make([]domain.Document, len(payloads))
	for i, p := range payloads {
		documents[i] = domain.Document{Content: p.Content, Metadata: p.Metadata}
	}
	return documents
}

// estimateTokens approximates a token count for OpenAI-compatible usage
// reporting. Four characters per token matches what the upstream providers
// average for English text.
func estimateTokens(text string) int {
	return len(text) / 4
}
