package models

// ============================================================================
// Feature Scores
// ============================================================================

// FeatureSource identifies which family of raw data a feature is derived from.
type FeatureSource string

const (
	// FeatureSourceReview marks features computed from extracted review tags.
	FeatureSourceReview FeatureSource = "review"
	// FeatureSourceFact marks features computed from official AIP metadata.
	FeatureSourceFact FeatureSource = "fact"
)

// ValidFeatureSources contains all valid feature source values.
var ValidFeatureSources = []FeatureSource{
	FeatureSourceReview,
	FeatureSourceFact,
}

// IsValidFeatureSource checks if a string is a recognized feature source.
func IsValidFeatureSource(s string) bool {
	for _, v := range ValidFeatureSources {
		if string(v) == s {
			return true
		}
	}
	return false
}

// FeatureScores holds one airport's normalized scores keyed by feature name.
// A nil value means "insufficient data": it is distinct from 0.0 and must
// survive storage round trips as NULL.
type FeatureScores struct {
	AirportIdent string              `json:"airport_ident"`
	Values       map[string]*float64 `json:"values"`
}

// Value returns the score for a feature. The second return is false when
// the feature is absent or has no data.
func (s *FeatureScores) Value(feature string) (float64, bool) {
	v, ok := s.Values[feature]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Present returns how many features carry a non-null score.
func (s *FeatureScores) Present() int {
	n := 0
	for _, v := range s.Values {
		if v != nil {
			n++
		}
	}
	return n
}

// FactValues holds one airport's raw AIP fields keyed by field name.
// Values are free-form strings as published; interpretation happens in
// the fact feature tables.
type FactValues map[string]string

// Float64Ptr returns a pointer to v. Convenience for literal score maps.
func Float64Ptr(v float64) *float64 {
	return &v
}
