package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFeatureScoresValue(t *testing.T) {
	scores := &FeatureScores{
		AirportIdent: "LOWI",
		Values: map[string]*float64{
			"cost":     Float64Ptr(0.825),
			"friendly": nil,
		},
	}

	v, ok := scores.Value("cost")
	assert.True(t, ok)
	assert.Equal(t, 0.825, v)

	_, ok = scores.Value("friendly")
	assert.False(t, ok, "null score must not read as a value")

	_, ok = scores.Value("undeclared")
	assert.False(t, ok)
}

func TestFeatureScoresPresent(t *testing.T) {
	scores := &FeatureScores{
		Values: map[string]*float64{
			"a": Float64Ptr(0.1),
			"b": nil,
			"c": Float64Ptr(0.0),
		},
	}
	// A stored 0.0 is data; only nil counts as missing.
	assert.Equal(t, 2, scores.Present())
}

func TestRawReviewFingerprint(t *testing.T) {
	observed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	withID := &RawReview{AirportIdent: "EDDK", ReviewID: "r-42", ObservedAt: &observed}
	assert.Equal(t, "r-42", withID.Fingerprint())

	withTime := &RawReview{AirportIdent: "EDDK", ObservedAt: &observed}
	assert.Equal(t, "EDDK@2025-06-01T12:00:00Z", withTime.Fingerprint())

	bare := &RawReview{AirportIdent: "EDDK", Text: "short"}
	assert.Equal(t, "EDDK#short", bare.Fingerprint())
}

func TestDistributionsAspectWeight(t *testing.T) {
	d := Distributions{
		"landing_fees": {"cheap": 0.9, "expensive": 0.3},
	}

	assert.InDelta(t, 1.2, d.AspectWeight("landing_fees"), 1e-12)
	assert.Zero(t, d.AspectWeight("fuel"))
	assert.True(t, d.HasAspect("landing_fees"))
	assert.False(t, d.HasAspect("fuel"))
}

func TestReviewBatchNewestObservedAt(t *testing.T) {
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	batch := &ReviewBatch{
		AirportIdent: "LFPB",
		Reviews: []RawReview{
			{ReviewID: "a", ObservedAt: &older},
			{ReviewID: "b", ObservedAt: &newer},
			{ReviewID: "c"},
		},
	}

	assert.Equal(t, newer, batch.NewestObservedAt())

	empty := &ReviewBatch{AirportIdent: "LFPB"}
	assert.True(t, empty.NewestObservedAt().IsZero())
}
