package llm

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a request
// without reaching the upstream provider.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the current state of a circuit breaker.
type CircuitBreakerState int

const (
	// StateClosed passes requests through normally.
	StateClosed CircuitBreakerState = iota

	// StateOpen rejects requests immediately after too many consecutive
	// failures, giving the upstream room to recover.
	StateOpen

	// StateHalfOpen admits a probe request after the cooldown to test
	// whether the upstream has recovered.
	StateHalfOpen
)

// CircuitBreakerMetrics receives state transitions and outcome counts for
// monitoring circuit behavior.
type CircuitBreakerMetrics interface {
	// RecordState updates the current state metric.
	RecordState(state CircuitBreakerState)

	// RecordTrip increments the rejected-request counter.
	RecordTrip()

	// RecordSuccess increments the successful request counter.
	RecordSuccess()

	// RecordFailure increments the failed request counter.
	RecordFailure()
}

// CircuitBreaker tracks consecutive failures and opens after the threshold,
// then probes recovery through the half-open state.
type CircuitBreaker struct {
	mu               sync.RWMutex
	state            CircuitBreakerState
	failureCount     int
	maxFailures      int
	cooldownDuration time.Duration
	lastFailure      time.Time
	metrics          CircuitBreakerMetrics
}

// NewCircuitBreaker creates a breaker that opens after maxFailures
// consecutive errors and stays open for cooldownDuration.
func NewCircuitBreaker(maxFailures int, cooldownDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		maxFailures:      maxFailures,
		cooldownDuration: cooldownDuration,
	}
}

// Call executes fn through the breaker. An open circuit returns
// ErrCircuitOpen without invoking fn.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFailure) < cb.cooldownDuration {
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		fallthrough
	case StateHalfOpen:
		err := fn()
		if err != nil {
			cb.failureCount++
			cb.lastFailure = time.Now()
			cb.state = StateOpen
			return err
		}
		cb.failureCount = 0
		cb.state = StateClosed
		return nil
	case StateClosed:
		err := fn()
		if err != nil {
			cb.failureCount++
			cb.lastFailure = time.Now()
			if cb.failureCount >= cb.maxFailures {
				cb.state = StateOpen
			}
			return err
		}
		cb.failureCount = 0
		return nil
	}
	return nil
}

// GetState returns the current circuit breaker state.
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// circuitBreakedLLM fails fast when the upstream keeps erroring, so the
// service degrades to error-shaped results instead of queueing doomed
// requests.
type circuitBreakedLLM struct {
	next    CoreLLM
	cb      *CircuitBreaker
	metrics CircuitBreakerMetrics
}

// CircuitBreakerMiddleware creates circuit breaker middleware without
// metrics reporting.
func CircuitBreakerMiddleware(maxFailures int, cooldown time.Duration) Middleware {
	return CircuitBreakerMiddlewareWithMetrics(maxFailures, cooldown, nil)
}

// CircuitBreakerMiddlewareWithMetrics creates circuit breaker middleware
// that reports state and outcomes through the given metrics sink.
func CircuitBreakerMiddlewareWithMetrics(maxFailures int, cooldown time.Duration, metrics CircuitBreakerMetrics) Middleware {
	cb := &CircuitBreaker{
		maxFailures:      maxFailures,
		cooldownDuration: cooldown,
		metrics:          metrics,
		state:            StateClosed,
	}

	return func(next CoreLLM) CoreLLM {
		return &circuitBreakedLLM{
			next:    next,
			cb:      cb,
			metrics: metrics,
		}
	}
}

// DoRequest executes the request through the circuit breaker, failing
// immediately with ErrCircuitOpen while the circuit is open.
func (c *circuitBreakedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	var response string
	var tokensIn, tokensOut int

	err := c.cb.Call(func() error {
		var err error
		response, tokensIn, tokensOut, err = c.next.DoRequest(ctx, prompt, opts)
		return err
	})

	if c.metrics != nil {
		switch err {
		case nil:
			c.metrics.RecordSuccess()
		case ErrCircuitOpen:
			c.metrics.RecordTrip()
		default:
			c.metrics.RecordFailure()
		}
		c.metrics.RecordState(c.cb.GetState())
	}

	return response, tokensIn, tokensOut, err
}

// GetModel returns the model name from the wrapped implementation.
func (c *circuitBreakedLLM) GetModel() string { return c.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (c *circuitBreakedLLM) SetModel(m string) { c.next.SetModel(m) }
