package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ncls-p/teapot-facts/internal/domain"
)

// factCheckRequest is the body of POST /fact-check. The query is not
// required at the binding level: an empty query produces a structured
// error result with status 200, matching the pipeline's failure contract.
type factCheckRequest struct {
	Query     string            `json:"query"`
	Context   string            `json:"context"`
	Documents []documentPayload `json:"documents"`
}

// handleFactCheck verifies a query against the supplied grounding.
// The response is always a well-formed VerificationResult; pipeline
// failures are encoded in the body, never as error statuses.
func (s *Server) handleFactCheck(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "handleFactCheck")
	defer span.End()

	var req factCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		s.logger.Warn("malformed fact-check request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	span.SetAttributes(
		attribute.Int("request.documents_count", len(req.Documents)),
		attribute.Bool("request.has_context", req.Context != ""),
	)

	result := s.checker.CheckFact(ctx, req.Query, req.Context, toDocuments(req.Documents))
	c.JSON(http.StatusOK, result)
}

// extractionField is the wire form of one extraction field spec.
type extractionField struct {
	Name        string `json:"name" binding:"required"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// extractRequest is the body of POST /extract.
type extractRequest struct {
	Query     string            `json:"query"`
	Context   string            `json:"context"`
	Documents []documentPayload `json:"documents"`
	Fields    []extractionField `json:"fields" binding:"required,min=1,dive"`
}

// handleExtract runs schema-guided extraction over the supplied grounding.
// Schema assembly failures are reported in the extraction result body, not
// as error statuses, mirroring the pipeline's failure contract.
func (s *Server) handleExtract(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "handleExtract")
	defer span.End()

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		s.logger.Warn("malformed extract request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	specs := make([]domain.FieldSpec, len(req.Fields))
	for i, field := range req.Fields {
		specs[i] = domain.FieldSpec{
			Name:        field.Name,
			Type:        domain.FieldTypeOf(field.Type),
			Description: field.Description,
		}
	}

	schema, err := domain.NewExtractionSchema("extraction", specs)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusOK, domain.NewExtractionError(err.Error()))
		return
	}

	span.SetAttributes(
		attribute.Int("request.fields_count", len(schema.Fields)),
		attribute.Int("request.documents_count", len(req.Documents)),
	)

	result := s.extractor.Extract(ctx, schema, req.Query, req.Context, toDocuments(req.Documents))
	c.JSON(http.StatusOK, result)
}

// recordSpanOutcome annotates the handler span with the verdict fields the
// dashboards key on.
func recordSpanOutcome(span trace.Span, result domain.VerificationResult) {
	span.SetAttributes(
		attribute.Bool("result.factual", result.Factual),
		attribute.Float64("result.confidence", result.Confidence),
	)
}
