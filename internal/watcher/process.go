package watcher

import (
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/vthunder/nudge/internal/logging"
)

// Interactive process names whose CPU activity stands in for user input.
// Direct input-device hooks are OS-specific; foreground app CPU is a
// portable proxy that tracks typing/scrolling closely enough for a
// minute-scale idle threshold.
var defaultInteractiveNames = []string{
	"chrome", "firefox", "safari", "code", "idea", "goland",
	"terminal", "iterm", "alacritty", "kitty", "slack", "zoom",
}

// ProcessWatcher derives an idle signal from per-process CPU of the
// user's interactive applications, polled on a fixed cadence with a
// small hysteresis state machine.
type ProcessWatcher struct {
	mu sync.Mutex

	pollInterval    time.Duration
	idleThreshold   time.Duration // no activity for this long = idle
	activityMinCPU  float64       // summed CPU % that counts as activity
	interactiveHint []string

	lastActivity time.Time
	idle         bool // current edge state
	running      bool
	stopChan     chan struct{}

	onIdle     func()
	onActivity func()
}

// Config holds ProcessWatcher tunables
type Config struct {
	PollInterval  time.Duration // default 2s
	IdleThreshold time.Duration // default 2m
	MinCPU        float64       // default 5.0 (summed %)
	ProcessNames  []string      // default interactive set
}

// NewProcessWatcher creates a watcher; zero-value config fields get defaults
func NewProcessWatcher(cfg Config) *ProcessWatcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.IdleThreshold <= 0 {
		cfg.IdleThreshold = 2 * time.Minute
	}
	if cfg.MinCPU <= 0 {
		cfg.MinCPU = 5.0
	}
	names := cfg.ProcessNames
	if len(names) == 0 {
		names = defaultInteractiveNames
	}
	return &ProcessWatcher{
		pollInterval:    cfg.PollInterval,
		idleThreshold:   cfg.IdleThreshold,
		activityMinCPU:  cfg.MinCPU,
		interactiveHint: names,
		lastActivity:    time.Now(),
		stopChan:        make(chan struct{}),
	}
}

// OnIdle registers the idle-transition callback
func (w *ProcessWatcher) OnIdle(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onIdle = fn
}

// OnActivity registers the resume-transition callback
func (w *ProcessWatcher) OnActivity(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onActivity = fn
}

// Start begins polling
func (w *ProcessWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.lastActivity = time.Now()
	w.mu.Unlock()

	go w.loop()
	logging.Info("watcher", "started (poll=%v, idle_threshold=%v)", w.pollInterval, w.idleThreshold)
	return nil
}

// Stop halts polling
func (w *ProcessWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopChan)
		w.running = false
	}
}

// IdleSeconds returns whole seconds since the last observed activity
func (w *ProcessWatcher) IdleSeconds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int(time.Since(w.lastActivity).Seconds())
}

func (w *ProcessWatcher) loop() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *ProcessWatcher) poll() {
	active := w.sampleCPU() >= w.activityMinCPU

	w.mu.Lock()
	now := time.Now()
	if active {
		w.lastActivity = now
	}

	var fire func()
	switch {
	case !w.idle && now.Sub(w.lastActivity) >= w.idleThreshold:
		// Crossed into idle: fire once
		w.idle = true
		fire = w.onIdle
		logging.Info("watcher", "user idle (%.0fs without activity)", now.Sub(w.lastActivity).Seconds())
	case w.idle && active:
		// Crossed back to active: fire once
		w.idle = false
		fire = w.onActivity
		logging.Info("watcher", "user active again")
	}
	w.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// sampleCPU sums CPU usage across interactive-looking processes
func (w *ProcessWatcher) sampleCPU() float64 {
	procs, err := process.Processes()
	if err != nil {
		logging.Debug("watcher", "process list failed: %v", err)
		return 0
	}

	var total float64
	for _, proc := range procs {
		name, err := proc.Name()
		if err != nil {
			continue
		}
		if !w.isInteractive(name) {
			continue
		}
		cpu, err := proc.CPUPercent()
		if err != nil {
			continue
		}
		total += cpu
	}
	return total
}

func (w *ProcessWatcher) isInteractive(name string) bool {
	name = strings.ToLower(name)
	for _, hint := range w.interactiveHint {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}
