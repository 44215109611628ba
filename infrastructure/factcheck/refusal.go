// Package factcheck implements the fact-verification pipeline: refusal
// detection, heuristic confidence estimation, source normalization, the
// verification orchestrator, and the structured extractor. All components
// operate on the domain types and reach the underlying model only through
// the ports.QAModel interface.
package factcheck

import (
	"strings"

	"golang.org/x/text/cases"
)

// foldCaser performs Unicode-aware case folding for case-insensitive
// substring matching. cases.Fold handles international text correctly,
// unlike simple ASCII lowercasing.
var foldCaser = cases.Fold()

// refusalPhrases is the fixed lexical marker set indicating the model
// declined to assert a fact. Matching is case-insensitive and positional
// (anywhere in the answer).
var refusalPhrases = []string{
	"cannot answer",
	"don't have enough information",
	"insufficient context",
	"cannot be determined",
	"not enough information",
	"cannot be verified",
	"i don't know",
	"no information provided",
}

// IsRefusal reports whether text reads as a refusal to answer due to
// insufficient context rather than a substantive answer.
//
// The check is a pure, deterministic predicate over the fixed refusal
// phrase set; it never calls the model and has no side effects.
func IsRefusal(text string) bool {
	if text == "" {
		return false
	}
	folded := foldCaser.String(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(folded, foldCaser.String(phrase)) {
			return true
		}
	}
	return false
}
