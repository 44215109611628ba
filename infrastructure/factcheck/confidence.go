package factcheck

import (
	"strings"
)

// Confidence heuristic constants.
const (
	// GroundedBaseConfidence is the starting score when grounding context
	// was available for the answer.
	GroundedBaseConfidence = 0.9

	// UngroundedBaseConfidence is the starting score when the model
	// answered from parametric knowledge alone.
	UngroundedBaseConfidence = 0.3

	// UncertaintyPenalty is subtracted once per uncertainty-marker
	// occurrence in the answer.
	UncertaintyPenalty = 0.1

	// MinConfidence floors the heuristic so a substantive answer never
	// scores below a detected refusal would.
	MinConfidence = 0.1
)

// uncertaintyMarkers are hedging terms that each reduce the estimated
// confidence by UncertaintyPenalty per occurrence.
var uncertaintyMarkers = []string{
	"possibly",
	"perhaps",
	"maybe",
	"might",
	"could be",
	"appears to be",
	"seems",
	"likely",
}

// EstimateConfidence scores the reliability of an answer from textual cues
// and context availability. The result is always within [0.1, 0.9].
//
// The algorithm starts from a base of 0.9 with context (0.3 without),
// subtracts 0.1 per uncertainty-marker occurrence with a floor of 0.1, and
// overrides the result to exactly 0.1 when the answer is a refusal.
//
// This is a lexical heuristic, not a calibrated probability. It must not be
// conflated with model-reported likelihoods.
func EstimateConfidence(text string, hasContext bool) float64 {
	base := UngroundedBaseConfidence
	if hasContext {
		base = GroundedBaseConfidence
	}

	folded := foldCaser.String(text)
	for _, marker := range uncertaintyMarkers {
		base -= UncertaintyPenalty * float64(strings.Count(folded, foldCaser.String(marker)))
	}
	if base < MinConfidence {
		base = MinConfidence
	}

	if IsRefusal(text) {
		return MinConfidence
	}
	return base
}
