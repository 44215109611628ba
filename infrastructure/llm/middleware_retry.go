package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// retryLLM retries failed requests with exponential backoff and jitter.
type retryLLM struct {
	next       CoreLLM
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryMiddleware creates middleware that retries transient failures with
// exponential backoff. Classified provider errors that are not retryable,
// such as authentication or bad-request failures, fail immediately.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &retryLLM{
			next:       next,
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
		}
	}
}

// DoRequest executes the request, retrying transient failures until the
// attempt budget is exhausted or the context expires.
func (r *retryLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		response, tokensIn, tokensOut, err := r.next.DoRequest(ctx, prompt, opts)
		if err == nil {
			return response, tokensIn, tokensOut, nil
		}

		lastErr = err

		if !r.shouldRetry(ctx, err) || attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		case <-time.After(r.calculateDelay(attempt)):
		}
	}

	return "", 0, 0, fmt.Errorf("request failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

// shouldRetry reports whether an attempt is worth repeating. An open
// circuit, an expired context, or a non-retryable provider error stops
// the loop.
func (r *retryLLM) shouldRetry(ctx context.Context, err error) bool {
	if errors.Is(err, ErrCircuitOpen) || ctx.Err() != nil {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.IsRetryable()
	}

	// Unclassified errors are assumed transient.
	return true
}

func (r *retryLLM) calculateDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	// #nosec G115 - attempt is bounded between 0 and 30
	multiplier := 1 << uint(attempt)
	delay := time.Duration(float64(r.baseDelay) * float64(multiplier))

	// Jitter of plus or minus 25 percent.
	// #nosec G404 - Using weak RNG is acceptable for jitter calculation
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - (delay / 4)

	if delay > r.maxDelay {
		delay = r.maxDelay
	}

	return delay
}

// GetModel returns the model name from the wrapped implementation.
func (r *retryLLM) GetModel() string { return r.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (r *retryLLM) SetModel(m string) { r.next.SetModel(m) }
