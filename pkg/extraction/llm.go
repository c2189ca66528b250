package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
	"github.com/skylane-labs/fieldscore/pkg/jsonutil"
	"github.com/skylane-labs/fieldscore/pkg/llm"
	"github.com/skylane-labs/fieldscore/pkg/models"
	"github.com/skylane-labs/fieldscore/pkg/ontology"
	"github.com/skylane-labs/fieldscore/pkg/prompts"
)

const (
	// Extraction runs at temperature 0 so identical review sets keep
	// producing identical tags across rebuilds.
	extractionTemperature = 0.0

	// Summaries are prose; a little temperature keeps them from reading
	// like a template.
	summaryTemperature = 0.3
)

// LLMExtractor proposes tag candidates by prompting a language model with
// the ontology vocabulary and a single review.
type LLMExtractor struct {
	client llm.LLMClient
	ont    *ontology.Ontology
	logger *zap.Logger
}

var _ Extractor = (*LLMExtractor)(nil)

// NewLLMExtractor creates an extractor bound to one ontology. The vocabulary
// in every prompt comes from that ontology, so candidates that fail
// validation later indicate model drift rather than stale configuration.
func NewLLMExtractor(client llm.LLMClient, ont *ontology.Ontology, logger *zap.Logger) *LLMExtractor {
	return &LLMExtractor{
		client: client,
		ont:    ont,
		logger: logger.Named("extraction"),
	}
}

// tagExtractionResponse wraps the LLM response for standardization.
type tagExtractionResponse struct {
	Tags []rawTag `json:"tags"`
}

// rawTag keeps every field loosely typed; models drift between strings and
// numbers, and jsonutil absorbs the difference.
type rawTag struct {
	Aspect     json.RawMessage `json:"aspect"`
	Label      json.RawMessage `json:"label"`
	Confidence json.RawMessage `json:"confidence"`
}

// Extract implements Extractor.
func (e *LLMExtractor) Extract(ctx context.Context, review models.RawReview) ([]Candidate, error) {
	prompt := prompts.BuildTagExtractionPrompt(e.promptAspects(), prompts.ReviewContext{
		Text:        review.Text,
		Language:    review.Language,
		Rating:      review.Rating,
		AIGenerated: review.AIGenerated,
	})
	systemMsg := prompts.BuildTagExtractionSystemMessage()

	result, err := e.client.GenerateResponse(ctx, prompt, systemMsg, extractionTemperature, false)
	if err != nil {
		return nil, apperrors.NewExtractionError(review.AirportIdent, err)
	}

	response, err := llm.ParseJSONResponse[tagExtractionResponse](result.Content)
	if err != nil {
		return nil, apperrors.NewExtractionError(review.AirportIdent,
			fmt.Errorf("parse extraction response: %w", err))
	}

	candidates := make([]Candidate, 0, len(response.Tags))
	for _, t := range response.Tags {
		// Unparseable confidence becomes 0 and is dropped by Validate.
		confidence, _ := jsonutil.FlexibleFloatValue(t.Confidence)
		candidates = append(candidates, Candidate{
			Aspect:     jsonutil.FlexibleStringValue(t.Aspect),
			Label:      jsonutil.FlexibleStringValue(t.Label),
			Confidence: confidence,
		})
	}

	e.logger.Debug("extracted tag candidates",
		zap.String("airport", review.AirportIdent),
		zap.String("review_id", review.ReviewID),
		zap.Int("candidates", len(candidates)),
		zap.Int("tokens", result.TotalTokens))
	return candidates, nil
}

func (e *LLMExtractor) promptAspects() []prompts.AspectContext {
	names := e.ont.Aspects()
	out := make([]prompts.AspectContext, 0, len(names))
	for _, name := range names {
		out = append(out, prompts.AspectContext{Name: name, Labels: e.ont.Labels(name)})
	}
	return out
}

// LLMSummarizer writes the per-airport summary from the airport's reviews.
type LLMSummarizer struct {
	client llm.LLMClient
	logger *zap.Logger
}

var _ Summarizer = (*LLMSummarizer)(nil)

// NewLLMSummarizer creates a summarizer over the given client.
func NewLLMSummarizer(client llm.LLMClient, logger *zap.Logger) *LLMSummarizer {
	return &LLMSummarizer{
		client: client,
		logger: logger.Named("summary"),
	}
}

// Summarize implements Summarizer. An empty batch yields an empty summary
// without calling the model.
func (s *LLMSummarizer) Summarize(ctx context.Context, batch models.ReviewBatch) (string, error) {
	if len(batch.Reviews) == 0 {
		return "", nil
	}

	reviews := make([]prompts.ReviewContext, 0, len(batch.Reviews))
	for _, r := range batch.Reviews {
		reviews = append(reviews, prompts.ReviewContext{
			Text:        r.Text,
			Language:    r.Language,
			Rating:      r.Rating,
			AIGenerated: r.AIGenerated,
		})
	}

	prompt := prompts.BuildAirportSummaryPrompt(batch.AirportIdent, reviews)
	systemMsg := prompts.BuildAirportSummarySystemMessage()

	result, err := s.client.GenerateResponse(ctx, prompt, systemMsg, summaryTemperature, false)
	if err != nil {
		return "", apperrors.NewExtractionError(batch.AirportIdent, err)
	}

	summary := strings.TrimSpace(result.Content)
	s.logger.Debug("generated airport summary",
		zap.String("airport", batch.AirportIdent),
		zap.Int("reviews", len(batch.Reviews)),
		zap.Int("length", len(summary)))
	return summary, nil
}
