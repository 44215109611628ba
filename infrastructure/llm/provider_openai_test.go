package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOpenAITestServer returns a server that captures the request body and
// responds with a canned chat completion.
func newOpenAITestServer(t *testing.T, content string, captured *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, captured))

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 12, "completion_tokens": 34, "total_tokens": 46},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestOpenAIProvider_Creation(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		_, err := newOpenAIProvider(ClientConfig{})
		assert.ErrorIs(t, err, ErrEmptyAPIKey)
	})

	t.Run("default model", func(t *testing.T) {
		provider, err := newOpenAIProvider(ClientConfig{APIKey: "sk-test"})
		require.NoError(t, err)
		assert.Equal(t, OpenAIDefaultModel, provider.GetModel())
	})

	t.Run("invalid base URL", func(t *testing.T) {
		_, err := newOpenAIProvider(ClientConfig{APIKey: "sk-test", BaseURL: "not a url"})
		assert.Error(t, err)
	})
}

func TestOpenAIProvider_DoRequest(t *testing.T) {
	var captured map[string]any
	server := newOpenAITestServer(t, "The Eiffel Tower is 330 meters tall.", &captured)
	defer server.Close()

	provider, err := newOpenAIProvider(ClientConfig{
		APIKey:  "sk-test",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	response, tokensIn, tokensOut, err := provider.DoRequest(context.Background(),
		"How tall is the Eiffel Tower?",
		map[string]any{"system": "Answer only from the provided context.", "temperature": 0.1},
	)
	require.NoError(t, err)

	assert.Equal(t, "The Eiffel Tower is 330 meters tall.", response)
	assert.Equal(t, 12, tokensIn)
	assert.Equal(t, 34, tokensOut)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "Answer only from the provided context.", first["content"])
	second := messages[1].(map[string]any)
	assert.Equal(t, "user", second["role"])
}

func TestOpenAIProvider_JSONResponseFormat(t *testing.T) {
	var captured map[string]any
	server := newOpenAITestServer(t, `{"city": "Paris"}`, &captured)
	defer server.Close()

	provider, err := newOpenAIProvider(ClientConfig{
		APIKey:  "sk-test",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	response, _, _, err := provider.DoRequest(context.Background(), "extract the city",
		map[string]any{"json_response": true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"city": "Paris"}`, response)

	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok, "response_format must be set for JSON requests")
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIProvider_ErrorClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	provider, err := newOpenAIProvider(ClientConfig{
		APIKey:  "sk-test",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	_, _, _, err = provider.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, ErrorTypeRateLimit, providerErr.Type)
	assert.True(t, providerErr.IsRetryable())
}
