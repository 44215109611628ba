package llm

import (
	"context"
	"sync"
	"time"
)

// MockCoreLLM is a configurable CoreLLM for exercising the middleware
// chain and the layers above it without network access.
type MockCoreLLM struct {
	mu sync.Mutex

	// Response configuration.
	Response      string
	TokensIn      int
	TokensOut     int
	Error         error
	Model         string
	ResponseDelay time.Duration

	// ResponseFunc, when set, computes the response from the prompt and
	// options, overriding the static Response field.
	ResponseFunc func(prompt string, opts map[string]any) (string, error)

	// FailUntilAttempt fails the first N calls, then succeeds.
	FailUntilAttempt int

	// Tracking.
	CallCount      int
	LastPrompt     string
	LastOpts       map[string]any
	CallTimestamps []time.Time
}

// NewMockCoreLLM creates a mock with default successful behavior.
func NewMockCoreLLM() *MockCoreLLM {
	return &MockCoreLLM{
		Response:  "test response",
		TokensIn:  10,
		TokensOut: 20,
		Model:     "test-model",
	}
}

// DoRequest implements CoreLLM with the configured behavior.
func (m *MockCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	m.mu.Lock()
	m.CallCount++
	call := m.CallCount
	m.LastPrompt = prompt
	m.LastOpts = opts
	m.CallTimestamps = append(m.CallTimestamps, time.Now())
	delay := m.ResponseDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUntilAttempt > 0 && call <= m.FailUntilAttempt {
		if m.Error != nil {
			return "", 0, 0, m.Error
		}
		return "", 0, 0, NewProviderError("mock", ErrorTypeServerError, 503, "simulated failure", nil)
	}

	if m.Error != nil {
		return "", 0, 0, m.Error
	}

	if m.ResponseFunc != nil {
		response, err := m.ResponseFunc(prompt, opts)
		if err != nil {
			return "", 0, 0, err
		}
		return response, m.TokensIn, m.TokensOut, nil
	}

	return m.Response, m.TokensIn, m.TokensOut, nil
}

// GetModel returns the configured model name.
func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Model
}

// SetModel updates the model name.
func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Model = model
}

// GetCallCount returns the number of DoRequest invocations.
func (m *MockCoreLLM) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Reset clears tracking state while keeping the configuration.
func (m *MockCoreLLM) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.LastPrompt = ""
	m.LastOpts = nil
	m.CallTimestamps = nil
}
