package teapot

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ncls-p/teapot-facts/internal/domain"
)

// answerSystemPrompt returns the behavioral contract for grounded
// answering. The refusal phrasing matters: the downstream refusal detector
// keys on phrases like "I don't have enough information", so the
// instruction steers the model toward detectable refusals instead of
// fabricated answers.
func answerSystemPrompt(grounded bool) string {
	if grounded {
		return "You are a factual question-answering assistant. " +
			"Answer the question using only the provided context. " +
			"If the context does not contain the information needed to answer, " +
			"reply exactly: I don't have enough information to answer this question. " +
			"Do not use outside knowledge and do not guess."
	}
	return "You are a factual question-answering assistant. " +
		"No context has been provided for this question. " +
		"If you are not certain of the answer, " +
		"reply exactly: I don't have enough information to answer this question. " +
		"Never fabricate facts."
}

// answerPrompt assembles the user prompt from the query and optional
// grounding context.
func answerPrompt(query, grounding string) string {
	if grounding == "" {
		return query
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", grounding, query)
}

// extractionSystemPrompt returns the behavioral contract for schema-guided
// extraction.
func extractionSystemPrompt() string {
	return "You are an information extraction assistant. " +
		"Extract the requested fields from the provided context and respond " +
		"with a single JSON object containing exactly those fields. " +
		"Respond with JSON only, no prose."
}

// extractionPrompt assembles the extraction prompt: the grounding context,
// the field list with types and descriptions, and the optional focusing
// query.
func extractionPrompt(schema domain.ExtractionSchema, grounding, query string) string {
	var b strings.Builder

	b.WriteString("Context:\n")
	b.WriteString(grounding)
	b.WriteString("\n\nExtract the following fields as a JSON object:\n")

	for _, field := range schema.Fields {
		b.WriteString(fmt.Sprintf("- %q (%s)", field.Name, field.Type))
		if field.Description != "" {
			b.WriteString(": ")
			b.WriteString(field.Description)
		}
		b.WriteString("\n")
	}

	if query != "" {
		b.WriteString("\nFocus on: ")
		b.WriteString(query)
		b.WriteString("\n")
	}

	return b.String()
}

// parseExtractionResponse decodes the model's reply into a field map. It
// accepts a bare JSON object, an object wrapped in a markdown code fence,
// or an object embedded in surrounding prose. Anything else reports an
// extraction failure; the caller degrades that to an opaque result rather
// than surfacing it.
func parseExtractionResponse(raw string) (map[string]any, error) {
	candidate := strings.TrimSpace(raw)

	if fenced := extractFencedBlock(candidate); fenced != "" {
		candidate = fenced
	} else if embedded := extractObjectLiteral(candidate); embedded != "" {
		candidate = embedded
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(candidate), &data); err != nil {
		return nil, fmt.Errorf("%w: model output is not a JSON object", domain.ErrExtractionFailure)
	}
	return data, nil
}

// extractFencedBlock returns the contents of the first markdown code fence
// in text, or empty when no fence is present.
func extractFencedBlock(text string) string {
	start := strings.Index(text, "```")
	if start == -1 {
		return ""
	}
	rest := text[start+3:]
	// Skip a language tag such as "json" on the fence line.
	if newline := strings.IndexByte(rest, '\n'); newline != -1 {
		rest = rest[newline+1:]
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

// extractObjectLiteral returns the outermost braced region of text, or
// empty when none exists. This recovers objects the model surrounded with
// prose despite the JSON-only instruction.
func extractObjectLiteral(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}
