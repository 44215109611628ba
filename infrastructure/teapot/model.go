// Package teapot implements the hallucination-resistant question-answering
// model behind the fact-checking pipeline. It adapts a raw LLM transport
// (ports.LLMClient) into the ports.QAModel capability: grounded answering
// that refuses rather than fabricates, and schema-guided field extraction.
//
// The package also maintains the service's document store. Documents
// indexed through the API are retained here and exposed read-only through
// the ports.DocumentProvider capability so the source normalizer can fall
// back to them when a request carries no documents of its own.
package teapot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ncls-p/teapot-facts/internal/domain"
	"github.com/ncls-p/teapot-facts/internal/ports"
)

// ModelID is the public identifier the HTTP surface advertises for this
// model, independent of the provider model running underneath.
const ModelID = "teapot-llm"

// ModelOwner is the organization reported on the public model card.
const ModelOwner = "teapot-org"

// answerTemperature keeps grounded answering near-deterministic. Factual
// verification wants reproducible answers, not creative ones.
const answerTemperature = 0.1

// Model adapts an LLM transport into the QA capability consumed by the
// verification pipeline. It is safe for concurrent use; the document store
// is guarded by its own lock and answering is stateless.
type Model struct {
	client ports.LLMClient
	logger *slog.Logger
	tracer trace.Tracer

	mu        sync.RWMutex
	documents []domain.Document
}

var (
	_ ports.QAModel          = (*Model)(nil)
	_ ports.DocumentProvider = (*Model)(nil)
)

// NewModel creates a Model over the given transport.
func NewModel(client ports.LLMClient, logger *slog.Logger) (*Model, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{
		client: client,
		logger: logger,
		tracer: otel.Tracer("teapot-model"),
	}, nil
}

// Answer produces a natural-language answer to query. When grounding is
// non-empty the model is constrained to it and instructed to refuse when
// the grounding does not contain the answer; without grounding the model
// is asked to admit ignorance rather than speculate.
func (m *Model) Answer(ctx context.Context, query, grounding string) (string, error) {
	ctx, span := m.tracer.Start(ctx, "Model.Answer",
		trace.WithAttributes(
			attribute.Bool("model.grounded", grounding != ""),
			attribute.Int("model.query_length", len(query)),
		),
	)
	defer span.End()

	opts := map[string]any{
		"system":      answerSystemPrompt(grounding != ""),
		"temperature": answerTemperature,
	}

	answer, err := m.client.Complete(ctx, answerPrompt(query, grounding), opts)
	if err != nil {
		span.RecordError(err)
		m.logger.Error("model answer failed", "grounded", grounding != "", "error", err)
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}

	return answer, nil
}

// Extract performs schema-guided extraction over grounding. The provider
// is asked for a JSON object response; the reply is parsed leniently,
// accepting code-fenced JSON since models frequently wrap their output.
// A reply that cannot be recognized as a JSON object at all is still a
// result: its string form is surfaced under a single "result" key.
func (m *Model) Extract(ctx context.Context, schema domain.ExtractionSchema, grounding, query string) (map[string]any, error) {
	ctx, span := m.tracer.Start(ctx, "Model.Extract",
		trace.WithAttributes(
			attribute.String("model.schema", schema.Name),
			attribute.Int("model.fields_count", len(schema.Fields)),
		),
	)
	defer span.End()

	opts := map[string]any{
		"system":        extractionSystemPrompt(),
		"temperature":   answerTemperature,
		"json_response": true,
	}

	raw, err := m.client.Complete(ctx, extractionPrompt(schema, grounding, query), opts)
	if err != nil {
		span.RecordError(err)
		m.logger.Error("model extraction failed", "schema", schema.Name, "error", err)
		return nil, domain.NewPipelineError("model.extract",
			fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err))
	}

	data, err := parseExtractionResponse(raw)
	if err != nil {
		span.RecordError(err)
		m.logger.Warn("model returned non-JSON extraction output",
			"schema", schema.Name, "output_length", len(raw))
		return map[string]any{domain.OpaqueResultKey: raw}, nil
	}

	return data, nil
}

// IndexDocuments appends documents to the model's retained store.
func (m *Model) IndexDocuments(documents []domain.Document) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = append(m.documents, documents...)
	return len(m.documents)
}

// ClearDocuments empties the retained store and returns the number of
// documents removed.
func (m *Model) ClearDocuments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := len(m.documents)
	m.documents = nil
	return removed
}

// StoredDocuments returns a copy of the retained store.
func (m *Model) StoredDocuments() []domain.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	copied := make([]domain.Document, len(m.documents))
	copy(copied, m.documents)
	return copied
}

// Documents implements ports.DocumentProvider over the retained store.
func (m *Model) Documents() []any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]any, len(m.documents))
	for i, doc := range m.documents {
		out[i] = doc
	}
	return out
}
