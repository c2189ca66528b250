package llm

import (
	"testing"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	input := `{"tags": [{"aspect": "landing_fees", "label": "cheap", "confidence": 0.9}]}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_PlainArray(t *testing.T) {
	input := `[{"aspect": "fuel"}, {"aspect": "atc"}]`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_WithThinkTags(t *testing.T) {
	input := `<think>
The review mentions cheap fuel and a friendly tower.
Two tags seem right.
</think>
{"tags": []}`

	expected := `{"tags": []}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_WithMarkdownFences(t *testing.T) {
	input := "Here is the extraction:\n```json\n{\"tags\": [{\"aspect\": \"atc\"}]}\n```\nDone."
	expected := `{"tags": [{"aspect": "atc"}]}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_NestedStructures(t *testing.T) {
	input := `{"outer": {"inner": {"list": [1, 2, {"deep": true}]}}}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	input := `{"summary": "terrain rises {steeply} east of the field"}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_EscapedQuotesInsideStrings(t *testing.T) {
	input := `{"summary": "pilots call it \"the shelf\""}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_LeadingProse(t *testing.T) {
	input := `Sure! Based on the review, the tags are: {"tags": [{"aspect": "food", "label": "good", "confidence": 0.7}]}`
	expected := `{"tags": [{"aspect": "food", "label": "good", "confidence": 0.7}]}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON("I could not find any aspects in this review.")
	if err == nil {
		t.Fatal("expected error for response without JSON")
	}
}

func TestExtractJSON_UnbalancedJSON(t *testing.T) {
	_, err := ExtractJSON(`{"tags": [{"aspect": "fuel"`)
	if err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestParseJSONResponse(t *testing.T) {
	type tagPayload struct {
		Tags []struct {
			Aspect     string  `json:"aspect"`
			Label      string  `json:"label"`
			Confidence float64 `json:"confidence"`
		} `json:"tags"`
	}

	response := "```json\n{\"tags\": [{\"aspect\": \"hangar\", \"label\": \"available\", \"confidence\": 0.8}]}\n```"
	parsed, err := ParseJSONResponse[tagPayload](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(parsed.Tags))
	}
	if parsed.Tags[0].Aspect != "hangar" || parsed.Tags[0].Confidence != 0.8 {
		t.Errorf("unexpected tag: %+v", parsed.Tags[0])
	}
}

func TestParseJSONResponse_TypeMismatch(t *testing.T) {
	type payload struct {
		Count int `json:"count"`
	}

	_, err := ParseJSONResponse[payload](`{"count": "not-a-number"}`)
	if err == nil {
		t.Fatal("expected unmarshal error")
	}
}
