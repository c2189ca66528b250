package scoring

import (
	"github.com/skylane-labs/fieldscore/pkg/models"
)

// Aggregate collapses one airport's validated tags into per-aspect label
// distributions, summing confidence within each (aspect, label) pair. Input
// tags were already validated at the extraction boundary; this function does
// not re-validate.
func Aggregate(tags []models.Tag) models.Distributions {
	dists := make(models.Distributions)
	for _, tag := range tags {
		dist := dists[tag.Aspect]
		if dist == nil {
			dist = make(map[string]float64)
			dists[tag.Aspect] = dist
		}
		dist[tag.Label] += tag.Confidence
	}
	return dists
}
