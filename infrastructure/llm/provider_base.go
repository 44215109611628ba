package llm

import "sync"

// DefaultMaxTokens bounds generation length when the caller does not set
// max_tokens. Fact-checking answers and extractions are short, so the
// default stays conservative.
const DefaultMaxTokens = 1024

// BaseProvider supplies thread-safe model-name management shared by the
// provider implementations.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the currently configured model name.
// Safe for concurrent use.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name for subsequent requests.
// Safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized parameter set extracted from the
// per-request options map. Providers translate it into their native
// request shapes.
type RequestOptions struct {
	// MaxTokens caps the number of tokens to generate.
	MaxTokens int
	// Model overrides the provider's configured model for this request.
	Model string
	// Temperature controls sampling randomness. Nil uses the provider
	// default.
	Temperature *float64
	// TopP enables nucleus sampling. Nil uses the provider default.
	TopP *float64
	// System carries instructions that steer the model's behavior, such
	// as the grounded-answering contract.
	System string
	// JSONResponse asks the provider for a machine-parseable JSON object
	// response where the provider supports enforcing one. Providers
	// without native JSON modes ignore the flag; the prompt carries the
	// format instruction regardless.
	JSONResponse bool
	// Extra holds provider-specific options outside the standard set.
	Extra map[string]any
}

// ParseRequestOptions extracts the standard parameters from an options map,
// applying defaults for missing or invalid entries. Unrecognized keys are
// collected into Extra for provider-specific handling.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: ExtractOptionalInt(opts, "max_tokens", DefaultMaxTokens, IsPositiveInt),
		Model:     ExtractOptionalString(opts, "model", defaultModel, IsNonEmptyString),
		System:    ExtractOptionalString(opts, "system", "", nil),
		Extra:     make(map[string]any),
	}

	if temp := ExtractOptionalFloat64(opts, "temperature", -1, IsValidTemperature); temp != -1 {
		options.Temperature = &temp
	}
	if topP := ExtractOptionalFloat64(opts, "top_p", -1, IsValidTopP); topP != -1 {
		options.TopP = &topP
	}
	if jsonResponse, ok := opts["json_response"].(bool); ok {
		options.JSONResponse = jsonResponse
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "system", "temperature", "top_p", "json_response":
			// Standard options, handled above.
		default:
			options.Extra[k] = v
		}
	}

	return options
}

// TokenCounter estimates token counts when a provider response omits exact
// usage figures.
type TokenCounter struct {
	// CharactersPerToken is the assumed average characters per token.
	CharactersPerToken float64
}

// NewTokenCounter returns a counter tuned for English text.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens approximates the token count of text from its length.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// GetTokenCount prefers the provider-reported count and falls back to an
// estimate when the report is absent or zero.
func (tc *TokenCounter) GetTokenCount(actualCount int, text string) int {
	if actualCount > 0 {
		return actualCount
	}
	return tc.EstimateTokens(text)
}
