package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestGoogleProvider_Creation(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		_, err := newGoogleProvider(ClientConfig{})
		assert.ErrorIs(t, err, ErrEmptyAPIKey)
	})

	t.Run("credentials file path rejected", func(t *testing.T) {
		_, err := newGoogleProvider(ClientConfig{APIKey: "/etc/creds/service-account.json"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials file not found")
	})
}

func TestLooksLikeFilePath(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"/abs/path/key.json", true},
		{"relative/path.json", true},
		{"windows\\path", true},
		{"service-account.json", true},
		{"key.p12", true},
		{"cert.pem", true},
		{"my-credentials-string", true},
		{"AIzaSyFakeKey123", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, looksLikeFilePath(tt.input), "input %q", tt.input)
	}
}

func TestGoogleProvider_BuildContents(t *testing.T) {
	p := &googleProvider{BaseProvider: BaseProvider{model: "gemini-2.0-flash"}}

	t.Run("without system prompt", func(t *testing.T) {
		contents := p.buildContents("a question", RequestOptions{})
		require.Len(t, contents, 1)
		require.Len(t, contents[0].Parts, 1)
		assert.Equal(t, "a question", contents[0].Parts[0].Text)
	})

	t.Run("system prompt is prepended", func(t *testing.T) {
		contents := p.buildContents("a question", RequestOptions{System: "answer from context"})
		require.Len(t, contents, 1)
		assert.Equal(t, "System: answer from context\n\nUser: a question", contents[0].Parts[0].Text)
	})
}

func TestGoogleProvider_BuildGenerationConfig(t *testing.T) {
	p := &googleProvider{BaseProvider: BaseProvider{model: "gemini-2.0-flash"}}

	temp := 3.5
	topP := 0.9
	config := p.buildGenerationConfig(RequestOptions{
		Temperature:  &temp,
		TopP:         &topP,
		MaxTokens:    512,
		JSONResponse: true,
		Extra:        map[string]any{"top_k": 100},
	})

	require.NotNil(t, config.Temperature)
	// Out-of-range temperature is clamped to the Gemini maximum.
	assert.Equal(t, float32(2.0), *config.Temperature)
	require.NotNil(t, config.TopP)
	assert.Equal(t, float32(0.9), *config.TopP)
	assert.Equal(t, int32(512), config.MaxOutputTokens)
	assert.Equal(t, "application/json", config.ResponseMIMEType)
	require.NotNil(t, config.TopK)
	assert.Equal(t, float32(40), *config.TopK)
}

func TestContainsContentPolicyError(t *testing.T) {
	tests := []struct {
		name string
		err  *googleapi.Error
		want bool
	}{
		{
			name: "safety in message",
			err:  &googleapi.Error{Message: "Request blocked by safety settings"},
			want: true,
		},
		{
			name: "safety reason",
			err:  &googleapi.Error{Errors: []googleapi.ErrorItem{{Reason: "SAFETY"}}},
			want: true,
		},
		{
			name: "plain server error",
			err:  &googleapi.Error{Code: 500, Message: "internal"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, containsContentPolicyError(tt.err))
		})
	}
}
