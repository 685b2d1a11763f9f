// Package screen captures the display and asks a vision model whether the
// user looks off-task. Capture and classification both fail closed: any
// error yields a neutral "not off-task" verdict instead of propagating.
package screen

import (
	"context"
	"time"

	"github.com/vthunder/nudge/internal/backend"
	"github.com/vthunder/nudge/internal/logging"
	"github.com/vthunder/nudge/internal/types"
)

const classifyPrompt = `This is a screenshot of a user's desktop. Judge whether they appear
off-task (entertainment, social media, aimless browsing) versus working.

Reply with exactly one JSON object:
{"off_task": <bool>, "confidence": <0-100>, "reason": "<one sentence>", "suggested_action": "<one sentence>"}`

// Capturer produces a PNG screenshot of the current display
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Classifier turns captures into structured off-task judgments
type Classifier struct {
	capturer Capturer
	vision   backend.VisionCompleter
}

// NewClassifier creates a classifier
func NewClassifier(capturer Capturer, vision backend.VisionCompleter) *Classifier {
	return &Classifier{capturer: capturer, vision: vision}
}

// safeResult is the neutral verdict used on any failure
func safeResult(reason string) *types.ScreenClassification {
	return &types.ScreenClassification{
		OffTask:         false,
		Confidence:      0,
		Reason:          reason,
		SuggestedAction: "continue working",
		CapturedAt:      time.Now(),
	}
}

// Classify captures the screen after delay and classifies it. Never
// returns an error: capture or backend failure degrades to the neutral
// result so a broken camera can never cause an alarm.
func (c *Classifier) Classify(ctx context.Context, delay time.Duration) *types.ScreenClassification {
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return safeResult("analysis cancelled")
		}
	}

	img, err := c.capturer.Capture(ctx)
	if err != nil {
		logging.Info("screen", "capture failed: %v", err)
		return safeResult("analysis failed")
	}

	text, err := c.vision.CompleteVision(ctx, classifyPrompt, img)
	if err != nil {
		logging.Info("screen", "vision call failed: %v", err)
		return safeResult("analysis failed")
	}

	result, err := parseClassification(text)
	if err != nil {
		logging.Info("screen", "unparseable classification (%v): %s", err, logging.Truncate(text, 120))
		return safeResult("analysis failed")
	}
	result.CapturedAt = time.Now()
	return result
}
