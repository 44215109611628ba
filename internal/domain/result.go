package domain

// Refusal confidence constants.
// These pin the heuristic confidence values used across the verification
// pipeline so every component agrees on what a refusal or a failure scores.
const (
	// RefusalConfidence is assigned whenever the answer is classified as a
	// refusal, regardless of any other heuristic signal.
	RefusalConfidence = 0.1

	// FailureConfidence is assigned when the underlying model call failed
	// and no answer was produced at all.
	FailureConfidence = 0.0
)

// VerificationResult is the outcome of a single fact-check.
// It is always well-formed: failures are encoded in the result rather than
// surfaced as errors, so callers can rely on receiving a value.
type VerificationResult struct {
	// Factual reports whether the answer asserts a fact rather than
	// refusing for lack of grounding context.
	Factual bool `json:"factual"`

	// Answer is the model's natural-language answer, or a human-readable
	// error message when the check failed.
	Answer string `json:"answer"`

	// Confidence is a heuristic reliability score in [0.0, 1.0].
	// It is derived from textual cues and context availability and must
	// not be confused with a model-reported likelihood.
	Confidence float64 `json:"confidence"`

	// Sources lists display-safe excerpts of the grounding documents,
	// in input order. Empty when no grounding was available.
	Sources []SourceEntry `json:"sources"`

	// Error holds the failure message when the check could not be
	// performed. Empty on success.
	Error string `json:"error,omitempty"`
}

// NewErrorResult builds the standardized failure-shaped VerificationResult:
// not factual, zero confidence, no sources, with the message mirrored into
// the answer so OpenAI-compatible adapters have text to return.
func NewErrorResult(message string) VerificationResult {
	return VerificationResult{
		Factual:    false,
		Answer:     message,
		Confidence: FailureConfidence,
		Sources:    []SourceEntry{},
		Error:      message,
	}
}
