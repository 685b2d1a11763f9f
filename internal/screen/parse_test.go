package screen

import "testing"

func TestParseClassificationPlain(t *testing.T) {
	text := `{"off_task": true, "confidence": 85, "reason": "YouTube full screen", "suggested_action": "return to your editor"}`

	result, err := parseClassification(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !result.OffTask {
		t.Error("Expected off-task verdict")
	}
	if result.Confidence != 85 {
		t.Errorf("Expected confidence 85, got %d", result.Confidence)
	}
	if result.Reason != "YouTube full screen" {
		t.Errorf("Unexpected reason: %q", result.Reason)
	}
}

func TestParseClassificationFencedWithProse(t *testing.T) {
	text := "```json\n{\"off_task\": false, \"confidence\": 60, \"reason\": \"code editor\"}\n```"

	result, err := parseClassification(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.OffTask {
		t.Error("Expected on-task verdict")
	}
	if result.SuggestedAction != "continue working" {
		t.Errorf("Expected default action, got %q", result.SuggestedAction)
	}
}

func TestParseClassificationConfidenceClamped(t *testing.T) {
	result, err := parseClassification(`{"off_task": true, "confidence": 250, "reason": "x"}`)
	if err != nil {
		t.Fatal(err)
	}
	if result.Confidence != 100 {
		t.Errorf("Expected clamp to 100, got %d", result.Confidence)
	}

	result, err = parseClassification(`{"off_task": true, "confidence": -3, "reason": "x"}`)
	if err != nil {
		t.Fatal(err)
	}
	if result.Confidence != 0 {
		t.Errorf("Expected clamp to 0, got %d", result.Confidence)
	}
}

func TestParseClassificationRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"I could not tell from the screenshot.",
		`{"confidence": 50, "reason": "no verdict"}`,
		"{not json}",
	}
	for _, text := range cases {
		if _, err := parseClassification(text); err == nil {
			t.Errorf("Expected parse error for %q", text)
		}
	}
}
