package archive

import (
	"testing"

	"github.com/vthunder/nudge/internal/types"
)

func decision(intervene bool, kind types.InterventionKind, message string) types.AgentDecision {
	return types.AgentDecision{
		ShouldIntervene: intervene,
		Kind:            kind,
		Message:         message,
		Reasoning:       "test",
		Confidence:      75,
	}
}

func TestRecordAndRecent(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	db.RecordCycle(10, decision(false, types.KindNone, ""))
	db.RecordCycle(200, decision(true, types.KindNotification, "back to work"))
	db.RecordCycle(20, decision(false, types.KindNone, ""))

	rows, err := db.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	// Newest first
	if rows[0].IdleSec != 20 || rows[2].IdleSec != 10 {
		t.Errorf("Rows out of order: %+v", rows)
	}

	interventions, err := db.Interventions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(interventions) != 1 || interventions[0].Message != "back to work" {
		t.Errorf("Unexpected interventions: %+v", interventions)
	}
	if interventions[0].Effective != nil {
		t.Error("Fresh intervention must be unscored")
	}
}

func TestMarkLastEffective(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	db.RecordCycle(200, decision(true, types.KindGentleReminder, "first"))
	db.RecordCycle(300, decision(true, types.KindAlarm, "second"))

	if err := db.MarkLastEffective(true); err != nil {
		t.Fatalf("MarkLastEffective failed: %v", err)
	}

	rows, err := db.Interventions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 interventions, got %d", len(rows))
	}
	// Only the most recent unscored intervention gets the flag
	if rows[0].Effective == nil || !*rows[0].Effective {
		t.Error("Expected the latest intervention scored effective")
	}
	if rows[1].Effective != nil {
		t.Error("Expected the earlier intervention untouched")
	}

	// Next score lands on the remaining unscored row
	if err := db.MarkLastEffective(false); err != nil {
		t.Fatal(err)
	}
	rows, _ = db.Interventions(10)
	if rows[1].Effective == nil || *rows[1].Effective {
		t.Error("Expected the earlier intervention scored ineffective")
	}
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	db.RecordCycle(200, decision(true, types.KindNotification, "persisted"))
	db.Close()

	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db2.Close()

	rows, err := db2.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Message != "persisted" {
		t.Errorf("Archive lost across reopen: %+v", rows)
	}
}
