package teapot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncls-p/teapot-facts/internal/domain"
)

// stubLLMClient is a minimal ports.LLMClient for exercising the model.
type stubLLMClient struct {
	mu         sync.Mutex
	response   string
	err        error
	lastPrompt string
	lastOpts   map[string]any
	calls      int
}

func (s *stubLLMClient) Complete(_ context.Context, prompt string, options map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastPrompt = prompt
	s.lastOpts = options
	return s.response, s.err
}

func (s *stubLLMClient) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	response, err := s.Complete(ctx, prompt, options)
	return response, 0, 0, err
}

func (s *stubLLMClient) EstimateTokens(text string) (int, error) { return len(text) / 4, nil }

func (s *stubLLMClient) GetModel() string { return "stub-model" }

func TestNewModel(t *testing.T) {
	model, err := NewModel(nil, nil)
	assert.Error(t, err)
	assert.Nil(t, model)

	model, err = NewModel(&stubLLMClient{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, model)
}

func TestModel_Answer_Grounded(t *testing.T) {
	client := &stubLLMClient{response: "The Eiffel Tower is 330 meters tall."}
	model, err := NewModel(client, nil)
	require.NoError(t, err)

	answer, err := model.Answer(context.Background(),
		"How tall is the Eiffel Tower?", "The Eiffel Tower is 330 meters tall.")
	require.NoError(t, err)
	assert.Equal(t, "The Eiffel Tower is 330 meters tall.", answer)

	// The prompt carries the grounding and the question.
	assert.Contains(t, client.lastPrompt, "Context:")
	assert.Contains(t, client.lastPrompt, "330 meters")
	assert.Contains(t, client.lastPrompt, "Question: How tall is the Eiffel Tower?")

	// The system prompt constrains the model to the context and steers
	// failures toward a detectable refusal.
	system, _ := client.lastOpts["system"].(string)
	assert.Contains(t, system, "only the provided context")
	assert.Contains(t, system, "I don't have enough information")
	assert.Equal(t, answerTemperature, client.lastOpts["temperature"])
}

func TestModel_Answer_Ungrounded(t *testing.T) {
	client := &stubLLMClient{response: "I don't have enough information to answer this question."}
	model, err := NewModel(client, nil)
	require.NoError(t, err)

	answer, err := model.Answer(context.Background(), "What is the population of Atlantis?", "")
	require.NoError(t, err)
	assert.Contains(t, answer, "don't have enough information")

	// Without grounding the prompt is just the question.
	assert.Equal(t, "What is the population of Atlantis?", client.lastPrompt)
	system, _ := client.lastOpts["system"].(string)
	assert.Contains(t, system, "No context has been provided")
}

func TestModel_Answer_UpstreamFailure(t *testing.T) {
	client := &stubLLMClient{err: errors.New("connection refused")}
	model, err := NewModel(client, nil)
	require.NoError(t, err)

	_, err = model.Answer(context.Background(), "q", "c")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
}

func TestModel_Extract(t *testing.T) {
	schema, err := domain.NewExtractionSchema("city_info", []domain.FieldSpec{
		{Name: "city", Type: domain.TypeString},
	})
	require.NoError(t, err)

	t.Run("bare JSON object", func(t *testing.T) {
		client := &stubLLMClient{response: `{"city": "Paris"}`}
		model, err := NewModel(client, nil)
		require.NoError(t, err)

		data, err := model.Extract(context.Background(), schema, "The Eiffel Tower is in Paris.", "")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"city": "Paris"}, data)

		// JSON mode is requested from the provider.
		assert.Equal(t, true, client.lastOpts["json_response"])
		assert.Contains(t, client.lastPrompt, `"city" (string)`)
		assert.Contains(t, client.lastPrompt, "The Eiffel Tower is in Paris.")
	})

	t.Run("code-fenced JSON", func(t *testing.T) {
		client := &stubLLMClient{response: "```json\n{\"city\": \"Paris\"}\n```"}
		model, err := NewModel(client, nil)
		require.NoError(t, err)

		data, err := model.Extract(context.Background(), schema, "context", "")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"city": "Paris"}, data)
	})

	t.Run("JSON embedded in prose", func(t *testing.T) {
		client := &stubLLMClient{response: `Here is the result: {"city": "Paris"} as requested.`}
		model, err := NewModel(client, nil)
		require.NoError(t, err)

		data, err := model.Extract(context.Background(), schema, "context", "")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"city": "Paris"}, data)
	})

	t.Run("non-JSON output degrades to an opaque result", func(t *testing.T) {
		client := &stubLLMClient{response: "The city is Paris."}
		model, err := NewModel(client, nil)
		require.NoError(t, err)

		data, err := model.Extract(context.Background(), schema, "context", "")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"result": "The city is Paris."}, data)
	})

	t.Run("upstream failure", func(t *testing.T) {
		client := &stubLLMClient{err: errors.New("boom")}
		model, err := NewModel(client, nil)
		require.NoError(t, err)

		_, err = model.Extract(context.Background(), schema, "context", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
	})

	t.Run("focusing query included", func(t *testing.T) {
		client := &stubLLMClient{response: `{"city": "Paris"}`}
		model, err := NewModel(client, nil)
		require.NoError(t, err)

		_, err = model.Extract(context.Background(), schema, "context", "which city hosts the tower")
		require.NoError(t, err)
		assert.Contains(t, client.lastPrompt, "Focus on: which city hosts the tower")
	})
}

func TestModel_DocumentStore(t *testing.T) {
	model, err := NewModel(&stubLLMClient{}, nil)
	require.NoError(t, err)

	assert.Empty(t, model.Documents())

	total := model.IndexDocuments([]domain.Document{
		{Content: "doc one"},
		{Content: "doc two", Metadata: map[string]any{"source": "a"}},
	})
	assert.Equal(t, 2, total)

	total = model.IndexDocuments([]domain.Document{{Content: "doc three"}})
	assert.Equal(t, 3, total)

	stored := model.StoredDocuments()
	require.Len(t, stored, 3)
	assert.Equal(t, "doc one", stored[0].Content)

	// The provider view exposes the same documents untyped.
	docs := model.Documents()
	require.Len(t, docs, 3)
	first, ok := docs[0].(domain.Document)
	require.True(t, ok)
	assert.Equal(t, "doc one", first.Content)

	removed := model.ClearDocuments()
	assert.Equal(t, 3, removed)
	assert.Empty(t, model.Documents())
}

func TestParseExtractionResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]any
		wantErr bool
	}{
		{name: "bare object", raw: `{"a": 1}`, want: map[string]any{"a": 1.0}},
		{name: "leading whitespace", raw: "  \n {\"a\": 1}", want: map[string]any{"a": 1.0}},
		{name: "fenced with language tag", raw: "```json\n{\"a\": 1}\n```", want: map[string]any{"a": 1.0}},
		{name: "fenced without language tag", raw: "```\n{\"a\": 1}\n```", want: map[string]any{"a": 1.0}},
		{name: "embedded in prose", raw: `sure: {"a": 1} there`, want: map[string]any{"a": 1.0}},
		{name: "plain prose", raw: "no object here", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "array not object", raw: `[1, 2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExtractionResponse(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
