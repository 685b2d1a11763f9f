package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vthunder/nudge/internal/types"
)

// fakeCompleter returns a canned response or error
type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

const interveneResponse = `Sure, here is my decision:
{"should_intervene": true, "intervention": {"type": "notification", "message": "Back to work!"}, "reasoning": "idle too long", "confidence": 80}
Hope that helps.`

func TestDecideFailsClosedOnBackendError(t *testing.T) {
	eng := New(&fakeCompleter{err: errors.New("connection refused")}, 0)

	d := eng.Decide(context.Background(), types.DecisionContext{Now: time.Now()})
	if d.ShouldIntervene {
		t.Error("Expected no intervention on backend failure")
	}
	if d.Kind != types.KindNone {
		t.Errorf("Expected kind none, got %s", d.Kind)
	}
	if d.Confidence != 0 {
		t.Errorf("Expected confidence 0, got %d", d.Confidence)
	}
	if len(eng.History()) != 0 {
		t.Error("Failed decision must not enter history")
	}
}

func TestDecideFailsClosedOnMalformedResponse(t *testing.T) {
	for _, response := range []string{
		"",
		"I think you should take a break.",
		`{"should_intervene": true}`,
		`{"should_intervene": true, "intervention": {"type": "nuke"}, "reasoning": "x"}`,
		`{"should_intervene": true, "intervention": {"type": "alarm"}, "reasoning": ""}`,
	} {
		eng := New(&fakeCompleter{response: response}, 0)
		d := eng.Decide(context.Background(), types.DecisionContext{Now: time.Now()})
		if d.ShouldIntervene || d.Kind != types.KindNone {
			t.Errorf("Response %q: expected safe default, got %+v", response, d)
		}
	}
}

func TestDecideAppendsHistoryBeforeReturning(t *testing.T) {
	eng := New(&fakeCompleter{response: interveneResponse}, 0)

	d := eng.Decide(context.Background(), types.DecisionContext{Now: time.Now()})
	if !d.ShouldIntervene || d.Kind != types.KindNotification {
		t.Fatalf("Expected notification intervention, got %+v", d)
	}

	history := eng.History()
	if len(history) != 1 {
		t.Fatalf("Expected 1 history record, got %d", len(history))
	}
	if history[0].Message != "Back to work!" {
		t.Errorf("Unexpected message %q", history[0].Message)
	}
	if history[0].WasEffective != nil {
		t.Error("New record must be unscored")
	}
}

func TestHistoryBoundFIFO(t *testing.T) {
	fake := &fakeCompleter{}
	eng := New(fake, 10)

	// 13 interventions through a cap of 10
	for i := 0; i < 13; i++ {
		fake.response = fmt.Sprintf(
			`{"should_intervene": true, "intervention": {"type": "gentle_reminder", "message": "nudge %d"}, "reasoning": "r", "confidence": 50}`, i)
		eng.Decide(context.Background(), types.DecisionContext{Now: time.Now()})
	}

	history := eng.History()
	if len(history) != 10 {
		t.Fatalf("Expected exactly 10 records, got %d", len(history))
	}
	// Oldest evicted first: records 3..12 remain
	if history[0].Message != "nudge 3" {
		t.Errorf("Expected oldest to be nudge 3, got %q", history[0].Message)
	}
	if history[9].Message != "nudge 12" {
		t.Errorf("Expected newest to be nudge 12, got %q", history[9].Message)
	}
}

func TestRecordEffectiveness(t *testing.T) {
	eng := New(&fakeCompleter{response: interveneResponse}, 0)

	// Empty history: must not panic, must be a no-op
	eng.RecordEffectiveness(true)

	eng.Decide(context.Background(), types.DecisionContext{Now: time.Now()})
	eng.RecordEffectiveness(true)

	history := eng.History()
	if history[0].WasEffective == nil || !*history[0].WasEffective {
		t.Fatal("Expected last record scored effective")
	}

	// Second call must not overwrite
	eng.RecordEffectiveness(false)
	history = eng.History()
	if !*history[0].WasEffective {
		t.Error("Score must be immutable once set")
	}
}

func TestRecordEffectivenessOnlyTouchesLast(t *testing.T) {
	fake := &fakeCompleter{response: interveneResponse}
	eng := New(fake, 0)

	eng.Decide(context.Background(), types.DecisionContext{Now: time.Now()})
	eng.Decide(context.Background(), types.DecisionContext{Now: time.Now()})
	eng.RecordEffectiveness(false)

	history := eng.History()
	if history[0].WasEffective != nil {
		t.Error("First record must stay unscored")
	}
	if history[1].WasEffective == nil || *history[1].WasEffective {
		t.Error("Last record must be scored ineffective")
	}
}

func TestAnalyzePatternsInsufficientData(t *testing.T) {
	fake := &fakeCompleter{response: interveneResponse}
	eng := New(fake, 0)

	eng.Decide(context.Background(), types.DecisionContext{Now: time.Now()})
	eng.Decide(context.Background(), types.DecisionContext{Now: time.Now()})

	fake.calls = 0
	if got := eng.AnalyzePatterns(context.Background()); got != InsufficientData {
		t.Errorf("Expected insufficient-data message, got %q", got)
	}
	if fake.calls != 0 {
		t.Error("Backend must not be called below the record threshold")
	}

	// Third record crosses the threshold
	eng.Decide(context.Background(), types.DecisionContext{Now: time.Now()})
	fake.calls = 0
	fake.response = "Alarms work best in the afternoon."
	if got := eng.AnalyzePatterns(context.Background()); got != "Alarms work best in the afternoon." {
		t.Errorf("Unexpected analysis %q", got)
	}
	if fake.calls != 1 {
		t.Errorf("Expected exactly one backend call, got %d", fake.calls)
	}
}

func TestDecideEmptyContext(t *testing.T) {
	// Shape guarantee: empty context, simulated failure — well-formed default
	eng := New(&fakeCompleter{err: errors.New("down")}, 0)
	d := eng.Decide(context.Background(), types.DecisionContext{})
	if !types.ValidKind(d.Kind) {
		t.Errorf("Invalid kind %q", d.Kind)
	}
	if d.Confidence < 0 || d.Confidence > 100 {
		t.Errorf("Confidence out of range: %d", d.Confidence)
	}
	if d.Reasoning == "" {
		t.Error("Default decision must carry reasoning")
	}
}
