package llm

import (
	"context"
	"strings"
	"time"

	"github.com/ncls-p/teapot-facts/internal/ports"
)

// metricsLLM records latency, request outcomes, and token throughput for
// every upstream call.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that reports upstream request
// metrics through the shared collector.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{next: next, collector: collector}
	}
}

// DoRequest executes the request while recording latency, a status-labeled
// request counter, and token counters on success.
func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{
		"provider": m.extractProvider(),
		"model":    m.next.GetModel(),
		"status":   "success",
	}

	if err != nil {
		switch {
		case err == ErrCircuitOpen:
			labels["status"] = "circuit_open"
		case ctx.Err() == context.DeadlineExceeded:
			labels["status"] = "timeout"
		default:
			labels["status"] = "error"
		}
	}

	if m.collector != nil {
		m.collector.RecordHistogram("upstream_latency_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("upstream_requests_total", 1, labels)

		if err == nil {
			labels["token_type"] = "input"
			m.collector.RecordCounter("upstream_tokens_total", float64(tokensIn), labels)

			labels["token_type"] = "output"
			m.collector.RecordCounter("upstream_tokens_total", float64(tokensOut), labels)
		}
	}

	return response, tokensIn, tokensOut, err
}

// extractProvider infers the provider label from the model name. The label
// is observability metadata only, so a best-effort guess is sufficient.
func (m *metricsLLM) extractProvider() string {
	model := m.next.GetModel()
	switch {
	case strings.Contains(model, "gpt"), strings.Contains(model, "o1"), strings.Contains(model, "o3"):
		return "openai"
	case strings.Contains(model, "claude"):
		return "anthropic"
	case strings.Contains(model, "gemini"):
		return "google"
	default:
		return "unknown"
	}
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }
