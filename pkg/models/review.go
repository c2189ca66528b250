package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"
)

// ============================================================================
// Raw Reviews (ingestion boundary)
// ============================================================================

// RawReview is a single pilot review as delivered by an ingestion source.
// The text is consumed by tag extraction and discarded afterwards; it is
// never persisted to the score store.
type RawReview struct {
	AirportIdent string     `json:"airport_ident"`
	ReviewID     string     `json:"review_id"`
	Text         string     `json:"text"`
	Rating       *float64   `json:"rating,omitempty"`
	ObservedAt   *time.Time `json:"observed_at,omitempty"`
	Language     string     `json:"language,omitempty"`
	AIGenerated  bool       `json:"ai_generated,omitempty"`
}

// Fingerprint identifies the review content for incremental change detection.
// Two reviews with the same fingerprint are treated as the same input.
func (r *RawReview) Fingerprint() string {
	if r.ReviewID != "" {
		return r.ReviewID
	}
	// Sources without stable IDs fall back to ident+timestamp.
	if r.ObservedAt != nil {
		return r.AirportIdent + "@" + r.ObservedAt.UTC().Format(time.RFC3339)
	}
	return r.AirportIdent + "#" + r.Text[:min(32, len(r.Text))]
}

// ReviewBatch groups the reviews of a single airport for processing.
type ReviewBatch struct {
	AirportIdent string
	Reviews      []RawReview
}

// NewestObservedAt returns the most recent observation timestamp in the
// batch, or zero time if no review carries one.
func (b *ReviewBatch) NewestObservedAt() time.Time {
	var newest time.Time
	for _, r := range b.Reviews {
		if r.ObservedAt != nil && r.ObservedAt.After(newest) {
			newest = *r.ObservedAt
		}
	}
	return newest
}

// Digest is a stable content hash of the batch, computed over sorted review
// fingerprints. Incremental builds compare digests to decide whether an
// airport needs reprocessing; review order within the batch does not matter.
func (b *ReviewBatch) Digest() string {
	fps := make([]string, len(b.Reviews))
	for i, r := range b.Reviews {
		fps[i] = r.Fingerprint()
	}
	sort.Strings(fps)

	h := sha256.New()
	for _, fp := range fps {
		h.Write([]byte(fp))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
