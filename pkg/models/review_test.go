package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRawReview_Fingerprint(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	withID := RawReview{AirportIdent: "EDKA", ReviewID: "rev-42", Text: "nice field"}
	assert.Equal(t, "rev-42", withID.Fingerprint())

	withTime := RawReview{AirportIdent: "EDKA", ObservedAt: &ts, Text: "nice field"}
	assert.Equal(t, "EDKA@2026-03-14T09:30:00Z", withTime.Fingerprint())

	bare := RawReview{AirportIdent: "EDKA", Text: "short"}
	assert.Equal(t, "EDKA#short", bare.Fingerprint())
}

func TestReviewBatch_Digest_OrderIndependent(t *testing.T) {
	a := RawReview{AirportIdent: "EDKA", ReviewID: "r1"}
	b := RawReview{AirportIdent: "EDKA", ReviewID: "r2"}

	forward := ReviewBatch{AirportIdent: "EDKA", Reviews: []RawReview{a, b}}
	reversed := ReviewBatch{AirportIdent: "EDKA", Reviews: []RawReview{b, a}}

	assert.Equal(t, forward.Digest(), reversed.Digest())
	assert.Len(t, forward.Digest(), 64)
}

func TestReviewBatch_Digest_ChangesWithContent(t *testing.T) {
	base := ReviewBatch{AirportIdent: "EDKA", Reviews: []RawReview{
		{AirportIdent: "EDKA", ReviewID: "r1"},
	}}
	grown := ReviewBatch{AirportIdent: "EDKA", Reviews: []RawReview{
		{AirportIdent: "EDKA", ReviewID: "r1"},
		{AirportIdent: "EDKA", ReviewID: "r2"},
	}}

	assert.NotEqual(t, base.Digest(), grown.Digest())

	empty := ReviewBatch{AirportIdent: "EDKA"}
	assert.NotEqual(t, base.Digest(), empty.Digest())
}

func TestReviewBatch_NewestObservedAt(t *testing.T) {
	older := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	batch := ReviewBatch{AirportIdent: "EDKA", Reviews: []RawReview{
		{AirportIdent: "EDKA", ObservedAt: &older},
		{AirportIdent: "EDKA"},
		{AirportIdent: "EDKA", ObservedAt: &newer},
	}}
	assert.Equal(t, newer, batch.NewestObservedAt())

	noTimes := ReviewBatch{AirportIdent: "EDKA", Reviews: []RawReview{{AirportIdent: "EDKA"}}}
	assert.True(t, noTimes.NewestObservedAt().IsZero())
}
