package prompts

import (
	"fmt"
	"strings"
)

// BuildAirportSummaryPrompt creates the prompt for a short per-airport
// summary of the run's reviews. The summary is the only prose that outlives
// the run, so the guidelines forbid quoting review text directly.
func BuildAirportSummaryPrompt(airportIdent string, reviews []ReviewContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Airport Review Summary\n\n")
	prompt.WriteString(fmt.Sprintf("Write a short field report for airport %s based on the pilot reviews below.\n\n", airportIdent))

	prompt.WriteString("## Reviews\n\n")
	for i, r := range reviews {
		prompt.WriteString(fmt.Sprintf("### Review %d\n", i+1))
		if r.Rating != nil {
			prompt.WriteString(fmt.Sprintf("Rating: %.1f/5\n", *r.Rating))
		}
		if r.AIGenerated {
			prompt.WriteString("Note: machine-generated or machine-translated.\n")
		}
		prompt.WriteString(r.Text)
		prompt.WriteString("\n\n")
	}

	prompt.WriteString("## Guidelines\n\n")
	prompt.WriteString("- 2-3 sentences, neutral tone, written for a pilot planning a stop.\n")
	prompt.WriteString("- Cover only themes that recur across reviews; ignore one-off anecdotes.\n")
	prompt.WriteString("- Paraphrase. Never quote or closely reproduce review wording.\n")
	prompt.WriteString("- No pilot names, dates, or anything that identifies a reviewer.\n")
	prompt.WriteString("- If the reviews disagree, say so rather than averaging the opinions away.\n\n")

	prompt.WriteString("Return ONLY the summary text, no headings and no additional commentary.\n")

	return prompt.String()
}

// BuildAirportSummarySystemMessage returns the system message for summary generation.
func BuildAirportSummarySystemMessage() string {
	return `You are an aviation editor who condenses pilot field reports. You write short, factual, anonymized summaries and never reproduce source text verbatim.`
}
