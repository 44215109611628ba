package factcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ncls-p/teapot-facts/internal/domain"
	"github.com/ncls-p/teapot-facts/internal/ports"
)

// Sentinel errors for clear, testable failure conditions.
var (
	ErrModelNil   = errors.New("model cannot be nil")
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// logInputLimit caps how much of a query or answer is written to log lines
// for failure diagnosis.
const logInputLimit = 80

// Checker orchestrates fact verification: it selects a context-acquisition
// strategy per request, invokes the underlying model, and assembles the
// final verdict from the refusal detector, the confidence estimator, and
// the source normalizer.
//
// Checker is stateless between requests. The document set supplied with a
// request is scoped to that request and flows through the call chain, so
// concurrent checks never observe each other's documents. The model's own
// retained store remains available as a read-only source fallback.
type Checker struct {
	model   ports.QAModel
	logger  *slog.Logger
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewChecker creates a Checker around the shared model instance.
// The metrics collector may be nil, in which case no metrics are recorded.
func NewChecker(model ports.QAModel, logger *slog.Logger, metrics ports.MetricsCollector) (*Checker, error) {
	if model == nil {
		return nil, ErrModelNil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		model:   model,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("factcheck-checker"),
	}, nil
}

// CheckFact verifies query against the supplied grounding and returns a
// VerificationResult. The context-acquisition strategy is evaluated in
// strict priority order: documents, then explicit context, then none.
//
// Failures never escape as errors: an empty query, a model connectivity
// failure, or a timeout all produce a well-formed result with factual=false,
// confidence 0.0, and the failure message as the answer. Errors are logged
// with their category.
func (c *Checker) CheckFact(ctx context.Context, query, contextText string, documents []domain.Document) domain.VerificationResult {
	ctx, span := c.tracer.Start(ctx, "Checker.CheckFact",
		trace.WithAttributes(
			attribute.Int("check.documents_count", len(documents)),
			attribute.Bool("check.has_context", contextText != ""),
		),
	)
	defer span.End()

	start := time.Now()

	if query == "" {
		c.logger.Warn("empty query provided to check_fact")
		c.count("fact_check_requests_total", "invalid_input")
		return domain.NewErrorResult("query cannot be empty")
	}

	answer, hasContext, stored, err := c.acquireAndAnswer(ctx, query, contextText, documents)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("fact check failed",
			"category", domain.ErrorCategory(err),
			"query", truncateForLog(query),
			"error", err,
		)
		c.count("fact_check_requests_total", domain.ErrorCategory(err))
		return domain.NewErrorResult(failureMessage(err))
	}

	result := c.assembleResult(answer, hasContext, stored)

	span.SetAttributes(
		attribute.Bool("check.factual", result.Factual),
		attribute.Float64("check.confidence", result.Confidence),
		attribute.Int("check.sources_count", len(result.Sources)),
		attribute.Int64("check.latency_ms", time.Since(start).Milliseconds()),
	)
	c.count("fact_check_requests_total", "ok")
	c.observe("fact_check_confidence", result.Confidence)
	c.logger.Info("fact check complete",
		"factual", result.Factual,
		"confidence", result.Confidence,
		"sources", len(result.Sources),
	)
	return result
}

// acquireAndAnswer applies the strategy order from the request shape and
// performs the single model call. It returns the raw answer, whether any
// grounding context backed it, and the request-scoped document set to
// normalize sources from.
func (c *Checker) acquireAndAnswer(
	ctx context.Context,
	query, contextText string,
	documents []domain.Document,
) (answer string, hasContext bool, stored []domain.Document, err error) {
	switch {
	case len(documents) > 0:
		// Documents replace any other grounding for this request.
		stored = documents
		combined := joinDocumentContents(documents)
		if combined == "" {
			// Documents carried no usable content; degrade to the
			// no-context path while keeping them as source material.
			c.logger.Warn("documents provided but no content extracted")
			answer, err = c.model.Answer(ctx, query, "")
			return answer, false, stored, err
		}
		answer, err = c.model.Answer(ctx, query, combined)
		return answer, true, stored, err

	case contextText != "":
		answer, err = c.model.Answer(ctx, query, contextText)
		return answer, true, nil, err

	default:
		// No grounding at all. The model is expected to refuse or hedge
		// rather than fabricate; the confidence base drops accordingly.
		answer, err = c.model.Answer(ctx, query, "")
		return answer, false, nil, err
	}
}

// assembleResult runs the raw answer through the refusal detector and the
// confidence estimator, and normalizes sources from the request-scoped
// documents with the model store as fallback.
func (c *Checker) assembleResult(answer string, hasContext bool, stored []domain.Document) domain.VerificationResult {
	refused := IsRefusal(answer)
	if refused {
		c.count("fact_check_refusals_total", "refusal")
	}
	return domain.VerificationResult{
		Factual:    !refused,
		Answer:     answer,
		Confidence: EstimateConfidence(answer, hasContext),
		Sources:    NormalizeSources(stored, c.documentFallback()),
	}
}

// documentFallback returns the model's document store capability when the
// model exposes one, or nil otherwise.
func (c *Checker) documentFallback() ports.DocumentProvider {
	if provider, ok := c.model.(ports.DocumentProvider); ok {
		return provider
	}
	return nil
}

func (c *Checker) count(metric, status string) {
	if c.metrics != nil {
		c.metrics.RecordCounter(metric, 1, map[string]string{"status": status})
	}
}

func (c *Checker) observe(metric string, value float64) {
	if c.metrics != nil {
		c.metrics.RecordHistogram(metric, value, nil)
	}
}

// joinDocumentContents builds the combined grounding context by
// concatenating non-empty document contents with a blank-line separator,
// preserving input order.
func joinDocumentContents(documents []domain.Document) string {
	parts := make([]string, 0, len(documents))
	for _, doc := range documents {
		if doc.Content != "" {
			parts = append(parts, doc.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// failureMessage renders a categorized failure as the human-readable answer
// text carried by the error-shaped result.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("request timed out: %v", err)
	case errors.Is(err, domain.ErrInvalidInput):
		return fmt.Sprintf("invalid input: %v", err)
	case errors.Is(err, domain.ErrUpstreamFailure):
		return fmt.Sprintf("model request failed: %v", err)
	default:
		return fmt.Sprintf("error occurred during fact checking: %v", err)
	}
}

// truncateForLog shortens free-text input for log lines.
func truncateForLog(text string) string {
	if len(text) > logInputLimit {
		return text[:logInputLimit] + "..."
	}
	return text
}
