// Package prompts builds the LLM prompts used at the extraction boundary.
// Prompt text lives here, away from transport and parsing, so vocabulary
// changes never touch client code.
package prompts

import (
	"fmt"
	"strings"
)

// AspectContext is one ontology aspect with its closed label set, in the
// order the prompt should present them.
type AspectContext struct {
	Name   string
	Labels []string
}

// ReviewContext carries one review into a prompt.
type ReviewContext struct {
	Text        string
	Language    string
	Rating      *float64 // pilot's own 0-5 rating, shown as sentiment context
	AIGenerated bool
}

// BuildTagExtractionPrompt creates the prompt for extracting aspect tags from
// a single pilot review. It includes the full tag vocabulary, the review with
// its metadata, tagging guidelines, and the JSON response format.
func BuildTagExtractionPrompt(aspects []AspectContext, review ReviewContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Pilot Review Tagging\n\n")
	prompt.WriteString("Read the pilot review below and tag every airport quality it talks about, using ONLY the vocabulary given.\n\n")

	prompt.WriteString("## Tag Vocabulary\n\n")
	prompt.WriteString("Each aspect has a closed label set. A tag is one (aspect, label) pair.\n\n")
	for _, a := range aspects {
		prompt.WriteString(fmt.Sprintf("### %s\n", a.Name))
		for _, label := range a.Labels {
			prompt.WriteString(fmt.Sprintf("- %s\n", label))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("## Review\n\n")
	if review.Language != "" {
		prompt.WriteString(fmt.Sprintf("Language: %s\n", review.Language))
	}
	if review.Rating != nil {
		prompt.WriteString(fmt.Sprintf("Pilot's overall rating: %.1f/5\n", *review.Rating))
	}
	if review.AIGenerated {
		prompt.WriteString("Note: this review is machine-generated or machine-translated.\n")
	}
	prompt.WriteString("\n")
	prompt.WriteString(review.Text)
	prompt.WriteString("\n\n")

	prompt.WriteString("## Tagging Guidelines\n\n")
	prompt.WriteString("- Only emit tags whose aspect and label appear verbatim in the vocabulary above.\n")
	prompt.WriteString("- Tag only what the review actually says; skip aspects it does not mention.\n")
	prompt.WriteString("- At most one label per aspect. If the review is ambivalent about an aspect, pick the dominant impression and lower the confidence.\n")
	prompt.WriteString("- The overall rating is context for reading tone; do not emit tags for qualities the text itself never mentions.\n")
	prompt.WriteString("- `confidence` is 0.0-1.0: how clearly the text supports the tag, not how positive it is.\n")
	prompt.WriteString("- An empty tags array is a valid answer for an off-topic review.\n\n")

	prompt.WriteString("## Output Format\n\n")
	prompt.WriteString("Respond in JSON with:\n")
	prompt.WriteString("- `tags`: Array of tags (may be empty)\n")
	prompt.WriteString("  - `aspect`: Aspect name from the vocabulary\n")
	prompt.WriteString("  - `label`: Label from that aspect's set\n")
	prompt.WriteString("  - `confidence`: 0.0-1.0\n\n")

	prompt.WriteString("Example:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "tags": [
    {"aspect": "cost", "label": "cheap", "confidence": 0.9},
    {"aspect": "hospitality", "label": "welcoming", "confidence": 0.7}
  ]
}
`)
	prompt.WriteString("```\n\n")

	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// BuildTagExtractionSystemMessage returns the system message for tag extraction.
func BuildTagExtractionSystemMessage() string {
	return `You are an aviation review analyst. Your task is to convert free-text pilot reviews of airports into structured tags from a fixed vocabulary. You never invent vocabulary and you never guess beyond what the text supports.`
}
