package scoring

import (
	"github.com/skylane-labs/fieldscore/pkg/models"
)

// ReviewFeature computes one review-derived feature score from an airport's
// label distributions. Within each aspect the definition reads, label
// sub-scores are averaged weighted by confidence mass; across aspects the
// configured aspect weights apply, with aspects that have no data excluded
// from normalization. Returns nil, never 0.0 or 0.5, when no aspect has
// usable data.
//
// Iteration is sorted so repeated builds accumulate floating point sums in
// the same order and rebuilds stay byte-identical.
func ReviewFeature(def *ReviewFeatureDef, dists models.Distributions) *float64 {
	total := 0.0
	totalWeight := 0.0

	for _, aspect := range sortedKeys(def.Aspects) {
		dist := dists[aspect]
		if len(dist) == 0 {
			continue
		}

		sub := 0.0
		subWeight := 0.0
		for _, label := range sortedKeys(dist) {
			score, ok := def.LabelScores.Score(aspect, label)
			if !ok {
				// Labels outside the table contribute nothing,
				// their confidence mass is excluded too.
				continue
			}
			sub += dist[label] * score
			subWeight += dist[label]
		}
		if subWeight == 0 {
			continue
		}

		weight := def.Aspects[aspect]
		total += weight * (sub / subWeight)
		totalWeight += weight
	}

	if totalWeight == 0 {
		return nil
	}
	v := total / totalWeight
	return &v
}

// FactFeature computes one fact-derived feature score from an airport's raw
// AIP fields. Each field the definition reads is mapped through its value
// table; fields absent from facts, and values absent from the table, are
// excluded from normalization rather than scored as zero. Returns nil when
// no field is usable.
func FactFeature(def *FactFeatureDef, facts models.FactValues) *float64 {
	total := 0.0
	totalWeight := 0.0

	for _, field := range sortedKeys(def.Fields) {
		raw, ok := facts[field]
		if !ok {
			continue
		}
		score, ok := def.ValueScores[field][raw]
		if !ok {
			continue
		}
		weight := def.Fields[field]
		total += weight * score
		totalWeight += weight
	}

	if totalWeight == 0 {
		return nil
	}
	v := total / totalWeight
	return &v
}

// Scores computes every declared feature for one airport. The returned map
// contains every known feature name, nil-valued where data is insufficient,
// so storage always writes a complete row.
func (c *Config) Scores(ident string, dists models.Distributions, facts models.FactValues) *models.FeatureScores {
	values := make(map[string]*float64, len(c.names))
	for _, def := range c.ReviewFeatures() {
		values[def.Name] = ReviewFeature(def, dists)
	}
	for _, def := range c.FactFeatures() {
		values[def.Name] = FactFeature(def, facts)
	}
	return &models.FeatureScores{AirportIdent: ident, Values: values}
}
