package domain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateSourceText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "empty", content: "", want: ""},
		{name: "short content unchanged", content: "hello", want: "hello"},
		{
			name:    "exactly at limit unchanged",
			content: strings.Repeat("a", SourceTextLimit),
			want:    strings.Repeat("a", SourceTextLimit),
		},
		{
			name:    "over limit truncated with ellipsis",
			content: strings.Repeat("b", SourceTextLimit+50),
			want:    strings.Repeat("b", SourceTextLimit) + "...",
		},
		{
			// "é" is 2 bytes and straddles the limit; the cut backs up to
			// the rune start instead of splitting it.
			name:    "multi-byte rune at the boundary is not split",
			content: strings.Repeat("a", SourceTextLimit-1) + "é" + "tail",
			want:    strings.Repeat("a", SourceTextLimit-1) + "...",
		},
		{
			name:    "multi-byte rune ending at the boundary is kept",
			content: strings.Repeat("a", SourceTextLimit-2) + "é" + "tail",
			want:    strings.Repeat("a", SourceTextLimit-2) + "é" + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateSourceText(tt.content)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), SourceTextLimit+3)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestNewSourceEntry(t *testing.T) {
	t.Run("nil metadata becomes empty map", func(t *testing.T) {
		entry := NewSourceEntry("text", nil)
		assert.NotNil(t, entry.Metadata)
		assert.Empty(t, entry.Metadata)
	})

	t.Run("metadata passed through", func(t *testing.T) {
		meta := map[string]any{"source": "wiki", "rank": 1}
		entry := NewSourceEntry("text", meta)
		assert.Equal(t, meta, entry.Metadata)
	})
}

func TestNewErrorResult(t *testing.T) {
	result := NewErrorResult("query cannot be empty")
	assert.False(t, result.Factual)
	assert.Equal(t, FailureConfidence, result.Confidence)
	assert.Equal(t, "query cannot be empty", result.Answer)
	assert.Equal(t, "query cannot be empty", result.Error)
	assert.Empty(t, result.Sources)
	assert.NotNil(t, result.Sources)
}
