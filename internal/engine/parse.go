package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vthunder/nudge/internal/types"
)

var errNoPayload = errors.New("no decision payload found")

// decisionPayload mirrors the wire shape the model is asked to produce.
// Pointer fields distinguish "absent" from zero values during validation.
type decisionPayload struct {
	ShouldIntervene *bool `json:"should_intervene"`
	Intervention    *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"intervention"`
	Reasoning  string   `json:"reasoning"`
	Confidence *float64 `json:"confidence"`
}

// parseDecision extracts the first well-formed decision payload from free
// text. The backend is allowed to wrap the JSON in prose or code fences.
func parseDecision(text string) (types.AgentDecision, error) {
	// Fenced block first: models often emit ```json ... ```
	if fenced := extractFenced(text); fenced != "" {
		if d, err := tryPayload(fenced); err == nil {
			return d, nil
		}
	}

	// Otherwise scan for the first balanced object that validates
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end := balancedEnd(text, start)
		if end < 0 {
			continue
		}
		if d, err := tryPayload(text[start : end+1]); err == nil {
			return d, nil
		}
	}

	return types.AgentDecision{}, errNoPayload
}

func tryPayload(s string) (types.AgentDecision, error) {
	var p decisionPayload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return types.AgentDecision{}, err
	}

	if p.ShouldIntervene == nil {
		return types.AgentDecision{}, errors.New("missing should_intervene")
	}
	if p.Intervention == nil {
		return types.AgentDecision{}, errors.New("missing intervention")
	}
	kind := types.InterventionKind(p.Intervention.Type)
	if !types.ValidKind(kind) {
		return types.AgentDecision{}, fmt.Errorf("unknown intervention type %q", p.Intervention.Type)
	}
	if strings.TrimSpace(p.Reasoning) == "" {
		return types.AgentDecision{}, errors.New("empty reasoning")
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

	d := types.AgentDecision{
		ShouldIntervene: *p.ShouldIntervene,
		Kind:            kind,
		Message:         p.Intervention.Message,
		Reasoning:       strings.TrimSpace(p.Reasoning),
		Confidence:      confidence,
	}

	// shouldIntervene=false forces kind=none regardless of payload
	if !d.ShouldIntervene {
		d.Kind = types.KindNone
		d.Message = ""
	} else if d.Kind == types.KindNone {
		// "intervene with none" is contradictory; treat as no intervention
		d.ShouldIntervene = false
		d.Message = ""
	}
	return d, nil
}

// extractFenced pulls the contents of the first markdown code fence
func extractFenced(s string) string {
	if start := strings.Index(s, "```json"); start != -1 {
		start += 7
		if end := strings.Index(s[start:], "```"); end != -1 {
			return strings.TrimSpace(s[start : start+end])
		}
	}
	if start := strings.Index(s, "```"); start != -1 {
		start += 3
		if end := strings.Index(s[start:], "```"); end != -1 {
			content := strings.TrimSpace(s[start : start+end])
			if idx := strings.Index(content, "\n"); idx != -1 && !strings.HasPrefix(content, "{") {
				content = content[idx+1:]
			}
			return strings.TrimSpace(content)
		}
	}
	return ""
}

// balancedEnd returns the index of the brace closing the object opened at
// start, or -1. String literals and escapes are respected so braces in
// message text do not fool the scan.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}
