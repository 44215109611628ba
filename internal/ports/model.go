// Package ports defines the interfaces between the fact-checking core and
// its collaborators: the underlying question-answering model, the raw LLM
// transport, and operational infrastructure such as metrics.
package ports

import (
	"context"

	"github.com/ncls-p/teapot-facts/internal/domain"
)

// QAModel is the consumed capability of the underlying hallucination-resistant
// question-answering model. The fact-checking core orchestrates around this
// interface and never talks to a provider directly.
//
// Implementations are expected to be hallucination-resistant: when asked a
// question without sufficient grounding context they should refuse or hedge
// rather than fabricate an answer.
type QAModel interface {
	// Answer returns a natural-language answer to query, grounded in
	// context when context is non-empty. The answer may itself contain
	// refusal phrasing when the context is insufficient.
	//
	// The call blocks until the model responds; cancellation and deadlines
	// must be imposed through ctx by the caller.
	Answer(ctx context.Context, query, grounding string) (string, error)

	// Extract performs schema-guided field extraction over context.
	// The query, when non-empty, focuses the extraction. The returned map
	// is keyed by field name; values carry the model's raw representation
	// and are type-coerced by the caller.
	Extract(ctx context.Context, schema domain.ExtractionSchema, grounding, query string) (map[string]any, error)
}

// DocumentProvider is an optional capability of a QAModel: a read-only view
// of documents the model has retained from a prior indexing call. Elements
// are deliberately untyped; the source normalizer handles the known shapes
// (string, content-bearing struct, mapping) and coerces anything else.
//
// Reads are best-effort. Implementations may return nil, and callers must
// treat any failure as an empty result.
type DocumentProvider interface {
	Documents() []any
}

// LLMClient is the raw transport beneath a QAModel implementation.
// It abstracts provider-specific details (authentication, request formatting,
// response parsing) behind a single completion operation.
type LLMClient interface {
	// Complete sends a completion request and returns the generated text.
	// The options map carries provider-tunable parameters such as
	// "temperature", "max_tokens", or "system".
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// CompleteWithUsage is Complete with input/output token counts for
	// usage accounting.
	CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error)

	// EstimateTokens approximates the token count of text for usage
	// reporting when the provider does not return exact counts.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier used by this client.
	GetModel() string
}
