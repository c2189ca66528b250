// Package extraction is the boundary between free-text reviews and the
// ontology-validated tags the pipeline scores. Extractors propose
// (aspect, label, confidence) candidates for one review; Validate turns
// the survivors into tags and counts everything the ontology rejects.
package extraction

import (
	"context"

	"github.com/skylane-labs/fieldscore/pkg/models"
	"github.com/skylane-labs/fieldscore/pkg/ontology"
)

// Candidate is one proposed tag before ontology validation.
type Candidate struct {
	Aspect     string
	Label      string
	Confidence float64
}

// Extractor proposes tag candidates for a single review.
// Use this interface for dependency injection to enable mocking in tests.
type Extractor interface {
	Extract(ctx context.Context, review models.RawReview) ([]Candidate, error)
}

// Summarizer produces a short neutral summary of one airport's reviews.
// The summary is generated while review text is still in memory; it is the
// only prose derived from reviews that gets persisted.
type Summarizer interface {
	Summarize(ctx context.Context, batch models.ReviewBatch) (string, error)
}

// Validate filters candidates against the ontology and stamps the review's
// identity onto the survivors. Unknown aspects, unknown labels, and
// non-positive confidences are dropped and counted, never fatal; confidences
// above 1.0 are clamped to 1.0.
//
// aiScale down-weights candidates from machine-generated reviews by
// multiplying their confidence. 1.0 (or anything outside (0,1)) leaves them
// untouched.
func Validate(ont *ontology.Ontology, review models.RawReview, candidates []Candidate, aiScale float64) ([]models.Tag, int) {
	var tags []models.Tag
	dropped := 0

	for _, c := range candidates {
		if c.Confidence <= 0 || !ont.ValidLabel(c.Aspect, c.Label) {
			dropped++
			continue
		}

		confidence := c.Confidence
		if confidence > 1 {
			confidence = 1
		}
		if review.AIGenerated && aiScale > 0 && aiScale < 1 {
			confidence *= aiScale
		}

		tags = append(tags, models.Tag{
			AirportIdent: review.AirportIdent,
			ReviewID:     review.ReviewID,
			Aspect:       c.Aspect,
			Label:        c.Label,
			Confidence:   confidence,
			ObservedAt:   review.ObservedAt,
		})
	}
	return tags, dropped
}
