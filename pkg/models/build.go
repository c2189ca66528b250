package models

import (
	"time"
)

// ============================================================================
// Build Runs
// ============================================================================

// AirportStatus is the terminal state of one airport within a build run.
type AirportStatus string

const (
	AirportWritten AirportStatus = "written"
	AirportSkipped AirportStatus = "skipped"
	AirportFailed  AirportStatus = "failed"
)

// AirportResult records the outcome of processing a single airport.
type AirportResult struct {
	AirportIdent string        `json:"airport_ident"`
	Status       AirportStatus `json:"status"`
	Reviews      int           `json:"reviews"`
	Tags         int           `json:"tags"`
	TagsDropped  int           `json:"tags_dropped"`
	Err          error         `json:"-"`
}

// BuildResult summarizes a completed build run.
type BuildResult struct {
	BuildID      string          `json:"build_id"`
	StartedAt    time.Time       `json:"started_at"`
	Duration     time.Duration   `json:"duration"`
	Success      bool            `json:"success"`
	Processed    int             `json:"processed"`
	Written      int             `json:"written"`
	Skipped      int             `json:"skipped"`
	Failed       int             `json:"failed"`
	Airports     []AirportResult `json:"airports,omitempty"`
	FailedIdents []string        `json:"failed_idents,omitempty"`
}

// ============================================================================
// Build Metadata
// ============================================================================

// Metadata keys persisted alongside scores so consumers can tell which
// inputs and configuration produced them.
const (
	MetaSourceVersion   = "source_version"
	MetaOntologyVersion = "ontology_version"
	MetaScoringVersion  = "scoring_version"
	MetaPersonasVersion = "personas_version"
	MetaBuildID         = "build_id"
	MetaBuiltAt         = "built_at"
)

// AirportState tracks per-airport incremental build state: when the airport
// was last processed, a fingerprint of the review set it was built from, and
// how that attempt ended. A failed attempt is always reprocessed, digest
// match or not.
type AirportState struct {
	AirportIdent  string        `json:"airport_ident"`
	LastProcessed time.Time     `json:"last_processed"`
	ReviewDigest  string        `json:"review_digest"`
	ReviewCount   int           `json:"review_count"`
	LastStatus    AirportStatus `json:"last_status"`
}

// AirportSummary is a short natural-language synthesis of an airport's
// reviews, regenerated on every rebuild of the airport.
type AirportSummary struct {
	AirportIdent string    `json:"airport_ident"`
	Summary      string    `json:"summary"`
	ReviewCount  int       `json:"review_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}
