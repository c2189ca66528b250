package models

import (
	"time"
)

// ============================================================================
// Aspect Tags (extraction output)
// ============================================================================

// Tag is one ontology-validated observation extracted from a review:
// a (aspect, label) pair with the extractor's confidence in it.
// Tags are the only trace of a review that survives the build.
type Tag struct {
	AirportIdent string     `json:"airport_ident"`
	ReviewID     string     `json:"review_id,omitempty"`
	Aspect       string     `json:"aspect"`
	Label        string     `json:"label"`
	Confidence   float64    `json:"confidence"`
	ObservedAt   *time.Time `json:"observed_at,omitempty"`
}

// Distributions is the per-aspect label weight map derived from a set of
// tags, where each label's weight is the sum of tag confidences. It is an
// intermediate value; it is never persisted.
type Distributions map[string]map[string]float64

// AspectWeight returns the total confidence mass recorded for an aspect.
func (d Distributions) AspectWeight(aspect string) float64 {
	total := 0.0
	for _, w := range d[aspect] {
		total += w
	}
	return total
}

// HasAspect reports whether any tag contributed to the aspect.
func (d Distributions) HasAspect(aspect string) bool {
	return len(d[aspect]) > 0
}
