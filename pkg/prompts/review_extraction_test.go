package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testAspects() []AspectContext {
	return []AspectContext{
		{Name: "cost", Labels: []string{"cheap", "reasonable", "expensive", "rip_off"}},
		{Name: "hospitality", Labels: []string{"welcoming", "indifferent", "unfriendly"}},
	}
}

func TestBuildTagExtractionPrompt(t *testing.T) {
	rating := 4.5
	review := ReviewContext{
		Text:     "Landing fee was only 12 euros and the tower guy waved us into the cafe.",
		Language: "en",
		Rating:   &rating,
	}

	prompt := BuildTagExtractionPrompt(testAspects(), review)

	// Verify prompt structure
	assert.Contains(t, prompt, "# Pilot Review Tagging")
	assert.Contains(t, prompt, "## Tag Vocabulary")
	assert.Contains(t, prompt, "## Review")
	assert.Contains(t, prompt, "## Tagging Guidelines")
	assert.Contains(t, prompt, "## Output Format")

	// Verify vocabulary
	assert.Contains(t, prompt, "### cost")
	assert.Contains(t, prompt, "- cheap")
	assert.Contains(t, prompt, "- rip_off")
	assert.Contains(t, prompt, "### hospitality")
	assert.Contains(t, prompt, "- welcoming")

	// Verify review content and metadata
	assert.Contains(t, prompt, "Landing fee was only 12 euros")
	assert.Contains(t, prompt, "Language: en")
	assert.Contains(t, prompt, "rating: 4.5/5")
	assert.NotContains(t, prompt, "machine-generated")

	// Verify JSON format specification
	assert.Contains(t, prompt, `"tags"`)
	assert.Contains(t, prompt, `"aspect"`)
	assert.Contains(t, prompt, `"label"`)
	assert.Contains(t, prompt, `"confidence"`)
	assert.Contains(t, prompt, "Return ONLY the JSON")
}

func TestBuildTagExtractionPrompt_MinimalReview(t *testing.T) {
	review := ReviewContext{Text: "Decent stop."}

	prompt := BuildTagExtractionPrompt(testAspects(), review)

	assert.Contains(t, prompt, "Decent stop.")
	assert.NotContains(t, prompt, "Language:")
	assert.NotContains(t, prompt, "rating:")
}

func TestBuildTagExtractionPrompt_FlagsGeneratedReviews(t *testing.T) {
	review := ReviewContext{Text: "Translated from French.", AIGenerated: true}

	prompt := BuildTagExtractionPrompt(testAspects(), review)

	assert.Contains(t, prompt, "machine-generated or machine-translated")
}

func TestBuildTagExtractionSystemMessage(t *testing.T) {
	message := BuildTagExtractionSystemMessage()

	assert.NotEmpty(t, message)
	assert.Contains(t, message, "aviation")
	assert.Contains(t, message, "tags")
}

func TestBuildAirportSummaryPrompt(t *testing.T) {
	rating := 3.0
	reviews := []ReviewContext{
		{Text: "Cheap fuel, grumpy handler.", Rating: &rating},
		{Text: "Handler was rude to us too.", AIGenerated: true},
	}

	prompt := BuildAirportSummaryPrompt("EDKA", reviews)

	assert.Contains(t, prompt, "# Airport Review Summary")
	assert.Contains(t, prompt, "airport EDKA")
	assert.Contains(t, prompt, "### Review 1")
	assert.Contains(t, prompt, "### Review 2")
	assert.Contains(t, prompt, "Cheap fuel, grumpy handler.")
	assert.Contains(t, prompt, "Rating: 3.0/5")
	assert.Contains(t, prompt, "machine-generated or machine-translated")

	// Verify guidelines
	assert.Contains(t, prompt, "## Guidelines")
	assert.Contains(t, prompt, "Never quote")
	assert.Contains(t, prompt, "Return ONLY the summary text")
}

func TestBuildAirportSummarySystemMessage(t *testing.T) {
	message := BuildAirportSummarySystemMessage()

	assert.NotEmpty(t, message)
	assert.Contains(t, message, "aviation")
	assert.Contains(t, message, "summaries")
}
