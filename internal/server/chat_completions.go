package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// chatMessage is one turn of an OpenAI-compatible chat transcript.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest is the body of POST /v1/chat/completions.
type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages" binding:"required,min=1"`
}

// handleChatCompletions adapts the chat contract onto the fact checker.
// The query is the final user turn; grounding context is assembled from a
// "context:" marker in the system message plus any assistant turns that
// precede the first user turn. Multi-turn state is not kept.
func (s *Server) handleChatCompletions(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "handleChatCompletions")
	defer span.End()

	var req chatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		s.logger.Warn("malformed chat completion request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	query, contextText := extractQueryAndContext(req.Messages)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no user query found in messages"})
		return
	}

	result := s.checker.CheckFact(ctx, query, contextText, nil)
	recordSpanOutcome(span, result)

	promptTokens := 0
	for _, msg := range req.Messages {
		promptTokens += estimateTokens(msg.Content)
	}
	completionTokens := estimateTokens(result.Answer)

	now := time.Now().Unix()
	c.JSON(http.StatusOK, gin.H{
		"id":      fmt.Sprintf("chatcmpl-%d", now),
		"object":  "chat.completion",
		"created": now,
		"model":   responseModel(req.Model),
		"choices": []gin.H{
			{
				"index": 0,
				"message": gin.H{
					"role":    "assistant",
					"content": result.Answer,
				},
				"finish_reason": "stop",
			},
		},
		"usage": usagePayload{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		"fact_check": factCheckPayload{
			Factual:    result.Factual,
			Confidence: result.Confidence,
			Sources:    result.Sources,
		},
	})
}

// contextMarker introduces grounding context inside a system message.
// Matching is case-insensitive.
const contextMarker = "context:"

// extractQueryAndContext reduces a chat transcript to the single-turn
// verification inputs. The last user turn wins as the query; assistant
// turns seen before any user turn accumulate as context; a system message
// may contribute additional context after a "context:" marker, which is
// prepended to the assistant-derived context.
func extractQueryAndContext(messages []chatMessage) (query, contextText string) {
	var systemMessage string
	var assistantContext strings.Builder

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemMessage = msg.Content
		case "user":
			query = msg.Content
		case "assistant":
			if query == "" {
				assistantContext.WriteString("Assistant: ")
				assistantContext.WriteString(msg.Content)
				assistantContext.WriteString("\n")
			}
		}
	}

	contextText = assistantContext.String()
	if idx := strings.Index(strings.ToLower(systemMessage), contextMarker); idx != -1 {
		marked := strings.TrimSpace(systemMessage[idx+len(contextMarker):])
		contextText = marked + "\n" + contextText
	}

	return query, contextText
}
