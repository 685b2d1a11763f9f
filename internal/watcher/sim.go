package watcher

import "sync"

// SimSource is a hand-driven Source for tests and dry runs. Callers feed
// it idle seconds; it fires the same edge-triggered transitions the real
// watcher does when the configured threshold is crossed.
type SimSource struct {
	mu          sync.Mutex
	thresholdSec int
	idleSec      int
	idle         bool
	running      bool

	onIdle     func()
	onActivity func()
}

// NewSimSource creates a simulated source with the given idle threshold
func NewSimSource(thresholdSec int) *SimSource {
	if thresholdSec <= 0 {
		thresholdSec = 120
	}
	return &SimSource{thresholdSec: thresholdSec}
}

// Start marks the source running
func (s *SimSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	return nil
}

// Stop marks the source stopped
func (s *SimSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// IdleSeconds returns the simulated idle time
func (s *SimSource) IdleSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idleSec
}

// OnIdle registers the idle-transition callback
func (s *SimSource) OnIdle(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onIdle = fn
}

// OnActivity registers the resume-transition callback
func (s *SimSource) OnActivity(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onActivity = fn
}

// SetIdle sets the simulated idle seconds, firing a transition callback
// if the threshold was crossed in either direction. Repeated ticks on the
// same side of the threshold fire nothing.
func (s *SimSource) SetIdle(sec int) {
	s.mu.Lock()
	s.idleSec = sec

	var fire func()
	switch {
	case !s.idle && sec >= s.thresholdSec:
		s.idle = true
		fire = s.onIdle
	case s.idle && sec < s.thresholdSec:
		s.idle = false
		fire = s.onActivity
	}
	s.mu.Unlock()

	if fire != nil {
		fire()
	}
}
