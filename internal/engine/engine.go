// Package engine is the intervention decision loop. One call per cycle:
// context snapshot in, exactly one decision out. The engine owns prompt
// assembly and response parsing; the policy itself lives in the reasoning
// backend. Any backend failure fails closed to a non-intervention.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vthunder/nudge/internal/backend"
	"github.com/vthunder/nudge/internal/logging"
	"github.com/vthunder/nudge/internal/types"
)

const (
	// DefaultHistoryCap bounds the in-process intervention history
	DefaultHistoryCap = 10

	// minPatternRecords is how much history pattern analysis needs
	minPatternRecords = 3

	// InsufficientData is returned by AnalyzePatterns below the threshold
	InsufficientData = "Not enough intervention history to analyze patterns yet."
)

// Engine produces intervention decisions and tracks its own short-lived
// history. This history is per-process decision context, distinct from
// the memory store's persisted session counters.
type Engine struct {
	completer  backend.Completer
	historyCap int

	mu      sync.Mutex
	history []types.InterventionRecord
}

// New creates an engine. historyCap <= 0 uses DefaultHistoryCap.
func New(completer backend.Completer, historyCap int) *Engine {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &Engine{
		completer:  completer,
		historyCap: historyCap,
	}
}

// Decide runs one decision cycle. It never fails outward: an unreachable
// backend or a malformed response yields the safe default. On a real
// intervention the record is appended to history before returning, so the
// next cycle's context already reflects it.
func (e *Engine) Decide(ctx context.Context, dctx types.DecisionContext) types.AgentDecision {
	prompt := e.buildPrompt(dctx)

	text, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		logging.Info("engine", "backend call failed, defaulting to no intervention: %v", err)
		return types.SafeDefault()
	}

	decision, err := parseDecision(text)
	if err != nil {
		logging.Info("engine", "unparseable decision (%v): %s", err, logging.Truncate(text, 120))
		return types.SafeDefault()
	}

	if decision.ShouldIntervene {
		e.append(types.InterventionRecord{
			ID:       uuid.NewString(),
			Kind:     decision.Kind,
			Message:  decision.Message,
			IssuedAt: time.Now(),
		})
	}
	return decision
}

func (e *Engine) append(rec types.InterventionRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, rec)
	if len(e.history) > e.historyCap {
		e.history = e.history[len(e.history)-e.historyCap:]
	}
}

// RecordEffectiveness scores the most recent intervention exactly once.
// No-op with empty history or an already-scored record, so stray calls
// within one idle/active cycle are harmless.
func (e *Engine) RecordEffectiveness(wasEffective bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) == 0 {
		return
	}
	last := &e.history[len(e.history)-1]
	if last.WasEffective != nil {
		return
	}
	v := wasEffective
	last.WasEffective = &v
}

// History returns a copy of the intervention history, oldest first
func (e *Engine) History() []types.InterventionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]types.InterventionRecord, len(e.history))
	copy(out, e.history)
	return out
}

// LastIntervention returns a copy of the most recent record, or nil
func (e *Engine) LastIntervention() *types.InterventionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) == 0 {
		return nil
	}
	rec := e.history[len(e.history)-1]
	return &rec
}

// AnalyzePatterns asks the backend to summarize intervention history.
// Below minPatternRecords it returns a fixed message without a call, to
// avoid burning tokens on cold start.
func (e *Engine) AnalyzePatterns(ctx context.Context) string {
	history := e.History()
	if len(history) < minPatternRecords {
		return InsufficientData
	}

	var sb strings.Builder
	sb.WriteString("These productivity interventions were issued to a user recently:\n\n")
	for i, rec := range history {
		sb.WriteString(fmt.Sprintf("%d. [%s] %q issued %s", i+1, rec.Kind, rec.Message,
			rec.IssuedAt.Format("Mon 15:04")))
		switch {
		case rec.WasEffective == nil:
			sb.WriteString(" (outcome unknown)")
		case *rec.WasEffective:
			sb.WriteString(" (worked: user resumed)")
		default:
			sb.WriteString(" (ignored)")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nIn a short paragraph, what patterns do you see in which interventions work, and what should change?")

	text, err := e.completer.Complete(ctx, sb.String())
	if err != nil {
		logging.Info("engine", "pattern analysis failed: %v", err)
		return InsufficientData
	}
	return strings.TrimSpace(text)
}

// buildPrompt encodes the decision context for the backend
func (e *Engine) buildPrompt(dctx types.DecisionContext) string {
	var sb strings.Builder

	sb.WriteString("You are a productivity monitor deciding whether to nudge a user right now.\n")
	sb.WriteString("Prefer the least intrusive option that will work; silence is often correct.\n\n")

	sb.WriteString(fmt.Sprintf("Current time: %s\n", dctx.Now.Format("Monday 15:04")))
	sb.WriteString(fmt.Sprintf("User idle for: %d seconds\n", dctx.IdleSeconds))

	if dctx.Screen != nil {
		sb.WriteString(fmt.Sprintf("Screen check (%s ago): off_task=%v confidence=%d reason=%q\n",
			time.Since(dctx.Screen.CapturedAt).Round(time.Second),
			dctx.Screen.OffTask, dctx.Screen.Confidence, dctx.Screen.Reason))
	} else {
		sb.WriteString("Screen check: none this cycle\n")
	}

	if len(dctx.GoalHints) > 0 {
		sb.WriteString("What we know about this user:\n")
		for _, h := range dctx.GoalHints {
			sb.WriteString("- " + h + "\n")
		}
	}

	if len(dctx.Recent) > 0 {
		sb.WriteString("Recent interventions (oldest first):\n")
		for _, rec := range dctx.Recent {
			outcome := "outcome unknown"
			if rec.WasEffective != nil {
				if *rec.WasEffective {
					outcome = "user resumed"
				} else {
					outcome = "ignored"
				}
			}
			sb.WriteString(fmt.Sprintf("- %s %q, %.0fs ago, %s\n",
				rec.Kind, rec.Message, rec.Age(), outcome))
		}
		sb.WriteString("Do not repeat an approach that was just ignored; escalate or stay silent.\n")
	} else {
		sb.WriteString("No recent interventions.\n")
	}

	sb.WriteString(`
Reply with exactly one JSON object:
{"should_intervene": <bool>, "intervention": {"type": "alarm"|"notification"|"gentle_reminder"|"none", "message": "<text shown to user>"}, "reasoning": "<why>", "confidence": <0-100>}
`)
	return sb.String()
}
