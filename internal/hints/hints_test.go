package hints

import (
	"strings"
	"testing"

	"github.com/vthunder/nudge/internal/memory"
)

func TestDeriveEmptyStore(t *testing.T) {
	store := memory.NewStore(t.TempDir())
	store.Load()

	if hints := Derive(store); len(hints) != 0 {
		t.Errorf("Expected no hints from an empty store, got %v", hints)
	}
}

func TestDeriveProfileHints(t *testing.T) {
	store := memory.NewStore(t.TempDir())
	store.Load()

	store.StartSession()
	store.RecordIntervention()
	if _, err := store.EndSession(true, ""); err != nil {
		t.Fatal(err)
	}

	hints := Derive(store)
	if len(hints) == 0 {
		t.Fatal("Expected hints after a recorded session")
	}

	joined := strings.Join(hints, "\n")
	if !strings.Contains(joined, "100% of past sessions were productive") {
		t.Errorf("Missing session rate hint: %v", hints)
	}
	if !strings.Contains(joined, "nudges worked") {
		t.Errorf("Missing effectiveness hint: %v", hints)
	}
	if !strings.Contains(joined, "most productive around") {
		t.Errorf("Missing productive hour hint: %v", hints)
	}
}

func TestDeriveTopicsFromSummaries(t *testing.T) {
	store := memory.NewStore(t.TempDir())
	store.Load()

	store.StartSession()
	if _, err := store.EndSession(true, "Refactored the Kubernetes deployment scripts for Acme"); err != nil {
		t.Fatal(err)
	}
	store.StartSession()
	if _, err := store.EndSession(true, "More Kubernetes work and a design review"); err != nil {
		t.Fatal(err)
	}

	hints := Derive(store)
	joined := strings.Join(hints, "\n")
	if !strings.Contains(joined, "recent work topics:") {
		t.Errorf("Expected a topics hint, got %v", hints)
	}
	if !strings.Contains(joined, "Kubernetes") {
		t.Errorf("Expected the repeated entity to surface, got %v", hints)
	}
}
