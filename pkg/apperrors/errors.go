package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAirportNotScored = errors.New("airport has no persisted scores")
	ErrPersonaUnknown   = errors.New("persona not found")
	ErrFeatureUnknown   = errors.New("feature not found")
	ErrBuildInProgress  = errors.New("a build is already in progress for this store")
)

// Stage identifies the pipeline stage a build failure originated from.
type Stage string

const (
	StageValidation Stage = "validation"
	StageExtraction Stage = "extraction"
	StageMapping    Stage = "mapping"
	StageStorage    Stage = "storage"
)

// PipelineError wraps a build failure with the stage it occurred in and the
// airport it affects. Validation errors carry no airport and abort the whole
// run; the other stages fail only the affected airport.
type PipelineError struct {
	Stage   Stage
	Airport string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Airport == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Stage, e.Airport, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps a configuration validation failure. These are
// process-fatal: no build may start until the configuration is fixed.
func NewValidationError(err error) *PipelineError {
	return &PipelineError{Stage: StageValidation, Err: err}
}

// NewExtractionError wraps an extraction collaborator failure for one airport.
func NewExtractionError(airport string, err error) *PipelineError {
	return &PipelineError{Stage: StageExtraction, Airport: airport, Err: err}
}

// NewMappingError wraps a feature mapping failure for one airport.
func NewMappingError(airport string, err error) *PipelineError {
	return &PipelineError{Stage: StageMapping, Airport: airport, Err: err}
}

// NewStorageError wraps a persistence failure for one airport.
func NewStorageError(airport string, err error) *PipelineError {
	return &PipelineError{Stage: StageStorage, Airport: airport, Err: err}
}

// StageOf extracts the pipeline stage from an error chain.
// Returns an empty Stage when the error is not a PipelineError.
func StageOf(err error) Stage {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}

// IsValidation reports whether the error chain contains a validation failure.
func IsValidation(err error) bool {
	return StageOf(err) == StageValidation
}
