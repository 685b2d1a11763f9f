package watcher

import "testing"

func TestSimSourceEdgeTriggered(t *testing.T) {
	src := NewSimSource(120)

	var idleFires, activityFires int
	src.OnIdle(func() { idleFires++ })
	src.OnActivity(func() { activityFires++ })

	if err := src.Start(); err != nil {
		t.Fatal(err)
	}
	defer src.Stop()

	// Below threshold, nothing fires
	src.SetIdle(30)
	src.SetIdle(119)
	if idleFires != 0 || activityFires != 0 {
		t.Fatalf("No callbacks expected below threshold, got idle=%d activity=%d", idleFires, activityFires)
	}

	// Crossing fires exactly once, staying idle fires nothing more
	src.SetIdle(120)
	src.SetIdle(180)
	src.SetIdle(600)
	if idleFires != 1 {
		t.Errorf("Expected 1 idle fire, got %d", idleFires)
	}

	// Resume fires once, repeated activity fires nothing more
	src.SetIdle(0)
	src.SetIdle(5)
	if activityFires != 1 {
		t.Errorf("Expected 1 activity fire, got %d", activityFires)
	}

	// Second full cycle works the same way
	src.SetIdle(300)
	src.SetIdle(0)
	if idleFires != 2 || activityFires != 2 {
		t.Errorf("Expected 2 fires each after second cycle, got idle=%d activity=%d", idleFires, activityFires)
	}
}

func TestSimSourceIdleSeconds(t *testing.T) {
	src := NewSimSource(0) // 0 falls back to the default threshold

	src.SetIdle(42)
	if got := src.IdleSeconds(); got != 42 {
		t.Errorf("Expected 42 idle seconds, got %d", got)
	}
}
