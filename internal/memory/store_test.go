package memory

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/vthunder/nudge/internal/types"
)

func TestColdStartDefaults(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Load(); err != nil {
		t.Fatalf("Load on missing file must not fail: %v", err)
	}

	profile := store.Profile()
	if profile.EffectivenessRate != types.NeutralEffectiveness {
		t.Errorf("Expected neutral prior %.1f, got %f", types.NeutralEffectiveness, profile.EffectivenessRate)
	}
	if profile.TotalSessions != 0 || len(store.Sessions()) != 0 {
		t.Error("Expected empty state on cold start")
	}
}

func TestCorruptStateResetsToDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "behavior.json"), []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(dir)
	if err := store.Load(); err != nil {
		t.Fatalf("Load on corrupt file must not fail: %v", err)
	}
	if store.Profile().EffectivenessRate != types.NeutralEffectiveness {
		t.Error("Corrupt state must reset to the neutral prior")
	}
}

func TestEMAClosedForm(t *testing.T) {
	store := NewStore(t.TempDir())
	store.Load()

	// r0=0.5, true -> 0.6, false -> 0.48
	store.UpdateInterventionEffectiveness(true)
	if r := store.Profile().EffectivenessRate; math.Abs(r-0.6) > 1e-9 {
		t.Errorf("Expected 0.6 after one effective sample, got %f", r)
	}
	store.UpdateInterventionEffectiveness(false)
	if r := store.Profile().EffectivenessRate; math.Abs(r-0.48) > 1e-9 {
		t.Errorf("Expected 0.48 after ineffective sample, got %f", r)
	}
}

func TestSessionAccounting(t *testing.T) {
	store := NewStore(t.TempDir())
	store.Load()

	sess := store.StartSession()
	startHour := sess.StartTime.Hour()

	closed, err := store.EndSession(true, "wrote tests")
	if err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if closed == nil || closed.EndTime == nil {
		t.Fatal("Expected a closed session with an end time")
	}

	profile := store.Profile()
	if profile.TotalSessions != 1 || profile.ProductiveSessions != 1 {
		t.Errorf("Expected 1/1 sessions, got %d/%d", profile.ProductiveSessions, profile.TotalSessions)
	}
	if profile.ProductiveHours[startHour] != 1 {
		t.Errorf("Expected histogram bucket %d to be 1, got %d", startHour, profile.ProductiveHours[startHour])
	}

	// Unproductive session hits the other histogram
	store.StartSession()
	if _, err := store.EndSession(false, "doomscrolled"); err != nil {
		t.Fatal(err)
	}
	profile = store.Profile()
	if profile.ProductiveSessions > profile.TotalSessions {
		t.Error("productiveSessions must never exceed totalSessions")
	}
	if profile.UnproductiveHours[startHour] != 1 {
		t.Errorf("Expected unproductive bucket increment, got %d", profile.UnproductiveHours[startHour])
	}
}

func TestEndSessionWithoutOpen(t *testing.T) {
	store := NewStore(t.TempDir())
	store.Load()

	closed, err := store.EndSession(true, "")
	if err != nil {
		t.Errorf("EndSession with no open session must not fail: %v", err)
	}
	if closed != nil {
		t.Error("Expected nil session")
	}
}

func TestStartSessionLastWins(t *testing.T) {
	store := NewStore(t.TempDir())
	store.Load()

	first := store.StartSession()
	second := store.StartSession()
	if first.ID == second.ID {
		t.Error("Expected a fresh session on restart")
	}
	if cur := store.CurrentSession(); cur == nil || cur.ID != second.ID {
		t.Error("Expected the latest start to win")
	}
}

func TestRecordInterventionPersistsImmediately(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	store.Load()
	store.StartSession()

	if err := store.RecordIntervention(); err != nil {
		t.Fatalf("RecordIntervention failed: %v", err)
	}

	// A fresh store must already see it on disk
	store2 := NewStore(dir)
	store2.Load()
	if store2.Profile().TotalInterventions != 1 {
		t.Errorf("Expected 1 persisted intervention, got %d", store2.Profile().TotalInterventions)
	}
}

func TestTopHoursDeterministicTies(t *testing.T) {
	store := NewStore(t.TempDir())
	store.Load()

	// Tie between hours 5 and 14 and 3; lower hour must sort first
	store.profile.ProductiveHours[14] = 2
	store.profile.ProductiveHours[5] = 2
	store.profile.ProductiveHours[3] = 2
	store.profile.ProductiveHours[9] = 7

	top := store.TopProductiveHours(4)
	want := []int{9, 3, 5, 14}
	if len(top) != 4 {
		t.Fatalf("Expected 4 hours, got %d", len(top))
	}
	for i, hc := range top {
		if hc.Hour != want[i] {
			t.Errorf("Position %d: expected hour %d, got %d", i, want[i], hc.Hour)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	store.Load()

	for i := 0; i < 3; i++ {
		store.StartSession()
		store.RecordIntervention()
		if _, err := store.EndSession(i%2 == 0, "work"); err != nil {
			t.Fatal(err)
		}
	}
	store.UpdateInterventionEffectiveness(true)
	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	store2 := NewStore(dir)
	if err := store2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	before, after := store.Sessions(), store2.Sessions()
	if len(before) != len(after) {
		t.Fatalf("Session count changed: %d != %d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID || before[i].Interventions != after[i].Interventions {
			t.Errorf("Session %d mismatch after round trip", i)
		}
	}

	p1, p2 := store.Profile(), store2.Profile()
	if p1.TotalSessions != p2.TotalSessions || p1.TotalInterventions != p2.TotalInterventions {
		t.Error("Profile counters changed after round trip")
	}
	if math.Abs(p1.EffectivenessRate-p2.EffectivenessRate) > 1e-12 {
		t.Error("Effectiveness rate changed after round trip")
	}
}

func TestSessionLogBounded(t *testing.T) {
	store := NewStore(t.TempDir())
	store.Load()

	for i := 0; i < sessionCap+5; i++ {
		store.StartSession()
		if _, err := store.EndSession(true, ""); err != nil {
			t.Fatal(err)
		}
	}

	if n := len(store.Sessions()); n != sessionCap {
		t.Errorf("Expected session log capped at %d, got %d", sessionCap, n)
	}
	// Lifetime counters keep counting past the eviction
	if store.Profile().TotalSessions != sessionCap+5 {
		t.Errorf("Expected %d total sessions, got %d", sessionCap+5, store.Profile().TotalSessions)
	}
}
