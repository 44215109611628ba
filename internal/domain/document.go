// Package domain contains the core types for fact verification and
// structured extraction. These types are transport-agnostic and carry
// no dependencies on the model or HTTP layers.
package domain

import "unicode/utf8"

// SourceTextLimit is the maximum number of characters of document content
// included in a SourceEntry before truncation.
const SourceTextLimit = 200

// Document is a single grounding document supplied with a verification or
// extraction request. Documents are ephemeral: they live for the duration
// of one request and are never persisted.
type Document struct {
	// Content is the raw document text used to build grounding context.
	Content string `json:"content"`

	// Metadata carries arbitrary caller-supplied attributes (title, URL,
	// date, ...). It is passed through to source entries unchanged.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SourceEntry is a display-safe excerpt of a grounding document.
// Text is truncated to SourceTextLimit characters with a trailing
// ellipsis marker when the original content is longer.
type SourceEntry struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// NewSourceEntry builds a SourceEntry from raw content and metadata,
// applying the truncation policy. A nil metadata map is normalized to an
// empty one so the JSON representation is always an object.
func NewSourceEntry(content string, metadata map[string]any) SourceEntry {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return SourceEntry{Text: TruncateSourceText(content), Metadata: metadata}
}

// TruncateSourceText shortens content to at most SourceTextLimit bytes,
// appending "..." when truncation occurred. Shorter content is returned
// unchanged. The cut never splits a multi-byte rune, so the excerpt stays
// valid UTF-8.
func TruncateSourceText(content string) string {
	if len(content) <= SourceTextLimit {
		return content
	}
	cut := SourceTextLimit
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}
