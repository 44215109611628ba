package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncls-p/teapot-facts/infrastructure/teapot"
	"github.com/ncls-p/teapot-facts/internal/domain"
)

// completionRequest is the body of POST /v1/completions. Prompt accepts
// either a string or a list of strings, matching the OpenAI contract; only
// the first element of a list is verified.
type completionRequest struct {
	Model  string `json:"model"`
	Prompt any    `json:"prompt"`
}

// usagePayload is the OpenAI-compatible token accounting block. Counts are
// length-based estimates, not provider-reported values.
type usagePayload struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// factCheckPayload is the non-standard extension block appended to
// completion envelopes so callers get the verdict alongside the text.
type factCheckPayload struct {
	Factual    bool                 `json:"factual"`
	Confidence float64              `json:"confidence"`
	Sources    []domain.SourceEntry `json:"sources"`
}

// handleCompletions adapts the legacy text-completion contract onto the
// fact checker. The prompt is verified without grounding context; the
// answer and verdict are reshaped into a text_completion envelope.
func (s *Server) handleCompletions(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "handleCompletions")
	defer span.End()

	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		s.logger.Warn("malformed completion request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	prompt, ok := promptText(req.Prompt)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt must be a string or a list of strings"})
		return
	}

	result := s.checker.CheckFact(ctx, prompt, "", nil)
	recordSpanOutcome(span, result)

	now := time.Now().Unix()
	c.JSON(http.StatusOK, gin.H{
		"id":      fmt.Sprintf("cmpl-%d", now),
		"object":  "text_completion",
		"created": now,
		"model":   responseModel(req.Model),
		"choices": []gin.H{
			{
				"text":          result.Answer,
				"index":         0,
				"logprobs":      nil,
				"finish_reason": "stop",
			},
		},
		"usage": usagePayload{
			PromptTokens:     estimateTokens(prompt),
			CompletionTokens: estimateTokens(result.Answer),
			TotalTokens:      estimateTokens(prompt) + estimateTokens(result.Answer),
		},
		"fact_check": factCheckPayload{
			Factual:    result.Factual,
			Confidence: result.Confidence,
			Sources:    result.Sources,
		},
	})
}

// promptText normalizes the polymorphic prompt field. Lists take their
// first element; empty lists and non-string shapes are rejected.
func promptText(prompt any) (string, bool) {
	switch v := prompt.(type) {
	case string:
		return v, true
	case []any:
		if len(v) == 0 {
			return "", false
		}
		first, ok := v[0].(string)
		return first, ok
	default:
		return "", false
	}
}

// responseModel echoes the requested model name, falling back to the
// service's public model identifier when the request omitted one.
func responseModel(requested string) string {
	if requested == "" {
		return teapot.ModelID
	}
	return requested
}
