package screen

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/vthunder/nudge/internal/types"
)

type classificationPayload struct {
	OffTask         *bool    `json:"off_task"`
	Confidence      *float64 `json:"confidence"`
	Reason          string   `json:"reason"`
	SuggestedAction string   `json:"suggested_action"`
}

// parseClassification extracts the verdict object from model output,
// tolerating surrounding prose and code fences.
func parseClassification(text string) (*types.ScreenClassification, error) {
	text = stripFences(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, errors.New("no JSON object in response")
	}

	var p classificationPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &p); err != nil {
		return nil, err
	}
	if p.OffTask == nil {
		return nil, errors.New("missing off_task")
	}

	confidence := 0
	if p.Confidence != nil {
		confidence = int(*p.Confidence)
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	action := strings.TrimSpace(p.SuggestedAction)
	if action == "" {
		action = "continue working"
	}

	return &types.ScreenClassification{
		OffTask:         *p.OffTask,
		Confidence:      confidence,
		Reason:          strings.TrimSpace(p.Reason),
		SuggestedAction: action,
	}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSuffix(s, "```")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
