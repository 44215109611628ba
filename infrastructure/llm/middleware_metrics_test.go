package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCollector captures metric calls for assertions.
type recordingCollector struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string][]float64
	labels     map[string]map[string]string
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters:   make(map[string]float64),
		histograms: make(map[string][]float64),
		labels:     make(map[string]map[string]string),
	}
}

func (r *recordingCollector) RecordLatency(name string, duration time.Duration, labels map[string]string) {
	r.RecordHistogram(name, duration.Seconds(), labels)
}

func (r *recordingCollector) RecordCounter(name string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := name + "/" + labels["status"] + "/" + labels["token_type"]
	r.counters[key] += value
	r.labels[key] = cloneLabels(labels)
}

func (r *recordingCollector) RecordHistogram(name string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms[name] = append(r.histograms[name], value)
	r.labels[name] = cloneLabels(labels)
}

func cloneLabels(labels map[string]string) map[string]string {
	copied := make(map[string]string, len(labels))
	for k, v := range labels {
		copied[k] = v
	}
	return copied
}

func TestMetricsMiddleware_Success(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Model = "gpt-4o-mini"
	mock.TokensIn = 15
	mock.TokensOut = 30
	collector := newRecordingCollector()

	wrapped := MetricsMiddleware(collector)(mock)

	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)

	assert.Equal(t, float64(1), collector.counters["upstream_requests_total/success/"])
	assert.Equal(t, float64(15), collector.counters["upstream_tokens_total/success/input"])
	assert.Equal(t, float64(30), collector.counters["upstream_tokens_total/success/output"])
	assert.Len(t, collector.histograms["upstream_latency_seconds"], 1)
	assert.Equal(t, "openai", collector.labels["upstream_latency_seconds"]["provider"])
}

func TestMetricsMiddleware_Error(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Error = NewProviderError("mock", ErrorTypeServerError, 500, "down", nil)
	collector := newRecordingCollector()

	wrapped := MetricsMiddleware(collector)(mock)

	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)

	assert.Equal(t, float64(1), collector.counters["upstream_requests_total/error/"])
	// No token counters on failure.
	assert.Zero(t, collector.counters["upstream_tokens_total/error/input"])
}

func TestMetricsMiddleware_CircuitOpenStatus(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Error = ErrCircuitOpen
	collector := newRecordingCollector()

	wrapped := MetricsMiddleware(collector)(mock)

	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)
	assert.Equal(t, float64(1), collector.counters["upstream_requests_total/circuit_open/"])
}

func TestMetricsMiddleware_NilCollector(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := MetricsMiddleware(nil)(mock)

	response, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "test response", response)
}

func TestMetricsMiddleware_ProviderLabel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gpt-4o", "openai"},
		{"o3-mini", "openai"},
		{"claude-3-5-haiku", "anthropic"},
		{"gemini-2.0-flash", "google"},
		{"mistral-7b", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			mock := NewMockCoreLLM()
			mock.Model = tt.model
			m := &metricsLLM{next: mock}
			assert.Equal(t, tt.want, m.extractProvider())
		})
	}
}
