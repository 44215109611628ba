package factcheck

import (
	"context"
	"fmt"
	"sync"

	"github.com/ncls-p/teapot-facts/internal/domain"
)

// MockModel provides a configurable in-memory QAModel for tests.
// The default behavior mimics a hallucination-resistant model: grounded
// queries are answered from the supplied context, ungrounded queries
// produce a refusal.
type MockModel struct {
	mu sync.Mutex

	// AnswerFunc overrides the default answer behavior when set.
	AnswerFunc func(ctx context.Context, query, grounding string) (string, error)

	// ExtractFunc overrides the default extraction behavior when set.
	ExtractFunc func(ctx context.Context, schema domain.ExtractionSchema, grounding, query string) (map[string]any, error)

	// Docs is returned by Documents, emulating a model-retained store.
	Docs []any

	// Err, when set, is returned by every call.
	Err error

	// Tracking.
	AnswerCalls  int
	ExtractCalls int
	LastQuery    string
	LastContext  string
}

// Answer implements ports.QAModel.
func (m *MockModel) Answer(ctx context.Context, query, grounding string) (string, error) {
	m.mu.Lock()
	m.AnswerCalls++
	m.LastQuery = query
	m.LastContext = grounding
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, query, grounding)
	}
	if grounding == "" {
		return "I don't have enough information to answer this question.", nil
	}
	return fmt.Sprintf("Based on the provided context: %s", grounding), nil
}

// Extract implements ports.QAModel.
func (m *MockModel) Extract(ctx context.Context, schema domain.ExtractionSchema, grounding, query string) (map[string]any, error) {
	m.mu.Lock()
	m.ExtractCalls++
	m.LastQuery = query
	m.LastContext = grounding
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, schema, grounding, query)
	}

	data := make(map[string]any, len(schema.Fields))
	for _, field := range schema.Fields {
		switch field.Type {
		case domain.TypeNumber:
			data[field.Name] = 1.0
		case domain.TypeInteger:
			data[field.Name] = float64(1)
		case domain.TypeBoolean:
			data[field.Name] = true
		default:
			data[field.Name] = "value"
		}
	}
	return data, nil
}

// Documents implements ports.DocumentProvider.
func (m *MockModel) Documents() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Docs
}
