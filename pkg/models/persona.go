package models

// ============================================================================
// Personas
// ============================================================================

// MissingPolicy controls how a persona treats a feature with no data.
type MissingPolicy string

const (
	// MissingNeutral substitutes 0.5 so the airport is neither rewarded
	// nor punished for the gap.
	MissingNeutral MissingPolicy = "neutral"
	// MissingNegative substitutes 0.0, treating absence of evidence as bad.
	MissingNegative MissingPolicy = "negative"
	// MissingPositive substitutes 1.0, giving the benefit of the doubt.
	MissingPositive MissingPolicy = "positive"
	// MissingExclude removes the feature's weight from the denominator,
	// renormalizing the score over the features that do have data.
	MissingExclude MissingPolicy = "exclude"
)

// ValidMissingPolicies contains all valid missing-data policies.
var ValidMissingPolicies = []MissingPolicy{
	MissingNeutral,
	MissingNegative,
	MissingPositive,
	MissingExclude,
}

// IsValidMissingPolicy checks if a string is a recognized missing policy.
func IsValidMissingPolicy(p string) bool {
	for _, v := range ValidMissingPolicies {
		if string(v) == p {
			return true
		}
	}
	return false
}

// Substitute returns the value stood in for a missing feature and whether
// the feature participates at all. Exclude returns (0, false).
func (p MissingPolicy) Substitute() (float64, bool) {
	switch p {
	case MissingNegative:
		return 0.0, true
	case MissingPositive:
		return 1.0, true
	case MissingExclude:
		return 0, false
	default:
		// Neutral is also the fallback for unset policies.
		return 0.5, true
	}
}

// Persona is a named weighting over feature scores. Personas are pure
// configuration: scoring them never touches raw reviews or facts.
type Persona struct {
	ID      string                   `json:"id" yaml:"id"`
	Label   string                   `json:"label" yaml:"label"`
	Weights map[string]float64       `json:"weights" yaml:"weights"`
	Missing map[string]MissingPolicy `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// MissingPolicyFor returns the persona's policy for a feature,
// defaulting to neutral when none is configured.
func (p *Persona) MissingPolicyFor(feature string) MissingPolicy {
	if policy, ok := p.Missing[feature]; ok {
		return policy
	}
	return MissingNeutral
}

// TotalWeight returns the sum of all configured feature weights.
func (p *Persona) TotalWeight() float64 {
	total := 0.0
	for _, w := range p.Weights {
		total += w
	}
	return total
}

// PersonaScore is the result of scoring one airport for one persona.
type PersonaScore struct {
	AirportIdent    string  `json:"airport_ident"`
	PersonaID       string  `json:"persona_id"`
	Score           float64 `json:"score"`
	FeaturesPresent int     `json:"features_present"`
	FeaturesMissing int     `json:"features_missing"`
}
