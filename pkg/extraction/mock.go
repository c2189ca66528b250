package extraction

import (
	"context"

	"github.com/skylane-labs/fieldscore/pkg/models"
)

// MockExtractor is a configurable extractor for tests.
// Set the function fields to control behavior.
type MockExtractor struct {
	// ExtractFunc is called when Extract is invoked.
	// If nil, returns no candidates and nil error.
	ExtractFunc func(ctx context.Context, review models.RawReview) ([]Candidate, error)

	// Call tracking for verification
	ExtractCalls int
}

// Extract implements Extractor.
func (m *MockExtractor) Extract(ctx context.Context, review models.RawReview) ([]Candidate, error) {
	m.ExtractCalls++
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, review)
	}
	return nil, nil
}

var _ Extractor = (*MockExtractor)(nil)

// MockSummarizer is a configurable summarizer for tests.
type MockSummarizer struct {
	// SummarizeFunc is called when Summarize is invoked.
	// If nil, returns an empty summary and nil error.
	SummarizeFunc func(ctx context.Context, batch models.ReviewBatch) (string, error)

	// Call tracking for verification
	SummarizeCalls int
}

// Summarize implements Summarizer.
func (m *MockSummarizer) Summarize(ctx context.Context, batch models.ReviewBatch) (string, error) {
	m.SummarizeCalls++
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, batch)
	}
	return "", nil
}

var _ Summarizer = (*MockSummarizer)(nil)
