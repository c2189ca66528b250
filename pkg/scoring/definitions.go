// Package scoring turns validated tags and raw AIP facts into normalized
// feature scores, and combines persisted feature scores into persona scores.
// Every formula is driven by configuration loaded at build start; nothing in
// this package hard-codes an aspect, label, field, or weight.
package scoring

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/skylane-labs/fieldscore/pkg/models"
)

// LabelScores maps extraction labels to sub-scores in [0,1]. The YAML form is
// either one flat table shared by every aspect the feature reads:
//
//	label_scores:
//	  cheap: 0.9
//	  reasonable: 0.6
//
// or nested per aspect when the same feature mixes aspects with different
// vocabularies:
//
//	label_scores:
//	  hospitality:
//	    welcoming: 1.0
//	  food:
//	    great_restaurant: 1.0
type LabelScores struct {
	Flat   map[string]float64
	Nested map[string]map[string]float64
}

// UnmarshalYAML accepts both table shapes. Mixing scalar and mapping values
// under label_scores is rejected.
func (s *LabelScores) UnmarshalYAML(value *yaml.Node) error {
	var flat map[string]float64
	if err := value.Decode(&flat); err == nil {
		s.Flat = flat
		return nil
	}
	var nested map[string]map[string]float64
	if err := value.Decode(&nested); err != nil {
		return fmt.Errorf("label_scores must map label to score or aspect to label to score: %w", err)
	}
	s.Nested = nested
	return nil
}

// Score resolves the sub-score for a label observed under an aspect. The
// second return is false when the table does not cover the label; such
// occurrences contribute nothing to the feature, they are never assumed.
func (s LabelScores) Score(aspect, label string) (float64, bool) {
	if s.Flat != nil {
		v, ok := s.Flat[label]
		return v, ok
	}
	v, ok := s.Nested[aspect][label]
	return v, ok
}

// ReviewFeatureDef computes one review-derived feature from per-aspect label
// distributions. Aspects maps each contributing aspect to its weight in the
// cross-aspect average. Instances are validated against the ontology at load
// time and immutable afterward.
type ReviewFeatureDef struct {
	Name        string
	Aspects     map[string]float64
	LabelScores LabelScores
}

// FactFeatureDef computes one fact-derived feature from raw AIP fields.
// Fields maps each contributing field to its weight; ValueScores holds the
// per-field lookup from raw value to score. Single-field definitions are
// normalized into this shape at load time.
type FactFeatureDef struct {
	Name        string
	Fields      map[string]float64
	ValueScores map[string]map[string]float64
}

// Config is the validated scoring configuration for one build run: every
// feature definition, already resolved against the ontology and the fact
// field registry. Immutable after load.
type Config struct {
	version string
	review  map[string]*ReviewFeatureDef
	fact    map[string]*FactFeatureDef
	names   []string
}

// Version returns the scoring config version stamp recorded in build metadata.
func (c *Config) Version() string {
	return c.version
}

// FeatureNames returns every declared feature name in sorted order. The
// storage layer derives the score table's feature columns from this list.
func (c *Config) FeatureNames() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// IsFeature reports whether name is a declared feature of either family.
// Persona loading uses this to reject weights on unknown features.
func (c *Config) IsFeature(name string) bool {
	if _, ok := c.review[name]; ok {
		return true
	}
	_, ok := c.fact[name]
	return ok
}

// SourceOf returns which family a feature belongs to.
func (c *Config) SourceOf(name string) (models.FeatureSource, bool) {
	if _, ok := c.review[name]; ok {
		return models.FeatureSourceReview, true
	}
	if _, ok := c.fact[name]; ok {
		return models.FeatureSourceFact, true
	}
	return "", false
}

// ReviewFeatures returns the review-family definitions sorted by name.
func (c *Config) ReviewFeatures() []*ReviewFeatureDef {
	defs := make([]*ReviewFeatureDef, 0, len(c.review))
	for _, def := range c.review {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// FactFeatures returns the fact-family definitions sorted by name.
func (c *Config) FactFeatures() []*FactFeatureDef {
	defs := make([]*FactFeatureDef, 0, len(c.fact))
	for _, def := range c.fact {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
