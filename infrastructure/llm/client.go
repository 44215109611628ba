// Package llm provides the upstream language-model transport for the
// fact-checking service. It abstracts multiple hosted providers (OpenAI,
// Anthropic, Google) behind a single CoreLLM interface and layers
// cross-cutting concerns such as retries, rate limiting, circuit breaking,
// metrics, and tracing through a middleware chain.
//
// The question-answering layer never talks to a provider SDK directly; it
// depends on ports.LLMClient, which this package implements. Switching the
// backing provider is a configuration change, not a code change.
//
// Basic usage:
//
//	client, err := llm.NewClient("openai", llm.ClientConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-4o-mini",
//	})
//	answer, err := client.Complete(ctx, "What is grounded in the context?", nil)
//
// With middleware:
//
//	client, err := llm.NewClient("anthropic", llm.ClientConfig{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	    Model:  "claude-3-5-haiku",
//	    Middleware: []llm.Middleware{
//	        llm.RetryMiddleware(3, 500*time.Millisecond, 10*time.Second),
//	        llm.CircuitBreakerMiddleware(5, 30*time.Second),
//	        llm.MetricsMiddleware(collector),
//	    },
//	})
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ncls-p/teapot-facts/internal/ports"
)

// CoreLLM is the minimal contract a provider implementation must satisfy.
// Middleware wraps any conforming implementation, so providers stay free of
// operational concerns.
type CoreLLM interface {
	// DoRequest sends a prompt to the provider and returns the response text
	// together with input and output token counts. The opts map carries
	// request-scoped parameters such as temperature, max_tokens, or system.
	DoRequest(
		ctx context.Context,
		prompt string,
		opts map[string]any,
	) (
		response string,
		tokensIn, tokensOut int,
		err error,
	)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel switches the model used for subsequent requests.
	SetModel(model string)
}

// TokenEstimator approximates token counts for text when the provider has
// not reported exact usage. Estimates feed usage accounting and rate
// limiting decisions.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// ClientConfig collects everything needed to construct a provider-backed
// client, including the middleware chain and token estimation strategy.
type ClientConfig struct {
	// APIKey authenticates against the provider. For the Google provider
	// this may alternatively be a credentials file path.
	APIKey string

	// Model names the provider model to use.
	Model string

	// BaseURL overrides the provider's default endpoint. Useful for
	// OpenAI-compatible gateways and local inference servers.
	BaseURL string

	// Timeout bounds individual requests. Zero means no client-side bound.
	Timeout time.Duration

	// TokenEstimator supplies custom token counting. Defaults to a
	// character-ratio estimator when nil.
	TokenEstimator TokenEstimator

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// Middleware wraps a CoreLLM to add behavior around every request.
type Middleware func(CoreLLM) CoreLLM

// Client implements ports.LLMClient over a middleware-wrapped provider.
type Client struct {
	core      CoreLLM
	estimator TokenEstimator
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient assembles a provider, applies the middleware chain, and returns
// a ready client. The provider type must have been registered through
// RegisterProviderFactory; the built-in providers register themselves.
func NewClient(providerType string, config ClientConfig) (ports.LLMClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	// Apply middleware in reverse so the first configured entry ends up
	// outermost in the chain.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	estimator := config.TokenEstimator
	if estimator == nil {
		estimator = NewCharacterBasedTokenEstimator(0)
	}

	return &Client{core: core, estimator: estimator}, nil
}

// Complete sends a prompt and returns only the response text, discarding
// usage counts.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends a prompt and returns the response alongside the
// input and output token counts reported (or estimated) by the provider.
func (c *Client) CompleteWithUsage(
	ctx context.Context,
	prompt string,
	options map[string]any,
) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// EstimateTokens approximates the token count of text using the configured
// estimator.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the model name of the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// ProviderFactory builds a CoreLLM from client configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a provider under a type name. Built-in
// providers call this from init; applications may add custom backends.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
