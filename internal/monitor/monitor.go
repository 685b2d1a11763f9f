// Package monitor is the orchestration loop: a fixed-cadence decision
// cycle plus edge-triggered idle/resume handling, tying the watcher,
// screen classifier, decision engine, memory store and notifiers together.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/vthunder/nudge/internal/archive"
	"github.com/vthunder/nudge/internal/engine"
	"github.com/vthunder/nudge/internal/hints"
	"github.com/vthunder/nudge/internal/journal"
	"github.com/vthunder/nudge/internal/logging"
	"github.com/vthunder/nudge/internal/memory"
	"github.com/vthunder/nudge/internal/notify"
	"github.com/vthunder/nudge/internal/types"
	"github.com/vthunder/nudge/internal/watcher"
)

// Classifier is the screen-classification contract the loop consumes
type Classifier interface {
	Classify(ctx context.Context, delay time.Duration) *types.ScreenClassification
}

// Config holds loop tunables
type Config struct {
	CycleInterval       time.Duration // decision cadence, default 10s
	ClassifyInterval    time.Duration // min gap between captures, default 5m
	IdleThreshold       time.Duration // engine only consulted past this, default 2m
	EffectivenessWindow time.Duration // resume-within attribution, default 60s

	// Sessions with fewer interventions than this close as productive
	ProductiveMaxNudges int
}

func (c *Config) defaults() {
	if c.CycleInterval <= 0 {
		c.CycleInterval = 10 * time.Second
	}
	if c.ClassifyInterval <= 0 {
		c.ClassifyInterval = 5 * time.Minute
	}
	if c.IdleThreshold <= 0 {
		c.IdleThreshold = 2 * time.Minute
	}
	if c.EffectivenessWindow <= 0 {
		c.EffectivenessWindow = 60 * time.Second
	}
	if c.ProductiveMaxNudges <= 0 {
		c.ProductiveMaxNudges = 2
	}
}

// Monitor runs the decision loop
type Monitor struct {
	cfg        Config
	source     watcher.Source
	engine     *engine.Engine
	store      *memory.Store
	classifier Classifier // nil = screen checks disabled
	notifier   notify.Notifier
	journal    *journal.Journal
	archive    *archive.DB // nil = archiving disabled

	// cycleMu guarantees at most one decision cycle in flight; an
	// overlapping tick is skipped, never queued.
	cycleMu sync.Mutex

	mu           sync.Mutex
	lastScreen   *types.ScreenClassification
	lastClassify time.Time

	stopChan chan struct{}
	doneChan chan struct{}
	running  bool
}

// New creates a monitor. classifier and arch may be nil to disable those
// collaborators.
func New(cfg Config, source watcher.Source, eng *engine.Engine, store *memory.Store,
	classifier Classifier, notifier notify.Notifier, jrnl *journal.Journal, arch *archive.DB) *Monitor {
	cfg.defaults()
	return &Monitor{
		cfg:        cfg,
		source:     source,
		engine:     eng,
		store:      store,
		classifier: classifier,
		notifier:   notifier,
		journal:    jrnl,
		archive:    arch,
	}
}

// Start opens a session, hooks the activity source, and begins ticking
func (m *Monitor) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})
	m.mu.Unlock()

	sess := m.store.StartSession()
	m.journal.LogSession("started", sess.ID, nil)

	m.source.OnIdle(m.onIdle)
	m.source.OnActivity(m.onActivity)
	if err := m.source.Start(); err != nil {
		// Degraded mode: no idle signal, but the loop still runs
		logging.Warn("monitor", "activity source failed to start: %v", err)
	}

	go m.loop()
	logging.Info("monitor", "started (cycle=%v, idle_threshold=%v)", m.cfg.CycleInterval, m.cfg.IdleThreshold)
	return nil
}

// Stop shuts the loop down. Every step runs even when an earlier one
// fails; data that can still be saved is saved.
func (m *Monitor) Stop(ctx context.Context) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopChan)
	m.mu.Unlock()

	<-m.doneChan
	m.source.Stop()

	sess := m.store.CurrentSession()
	wasProductive := true
	summary := ""
	if sess != nil {
		wasProductive = sess.Interventions < m.cfg.ProductiveMaxNudges
		summary = "clean shutdown"
		closed, err := m.store.EndSession(wasProductive, summary)
		if err != nil {
			logging.Warn("monitor", "session close failed: %v", err)
		}
		if closed != nil {
			m.journal.LogSession("ended", closed.ID, map[string]any{
				"productive":    wasProductive,
				"interventions": closed.Interventions,
			})
		}
	}

	if err := m.store.Save(); err != nil {
		logging.Warn("monitor", "final save failed: %v", err)
	}

	if summary := m.engine.AnalyzePatterns(ctx); summary != engine.InsufficientData {
		logging.Info("monitor", "pattern summary: %s", logging.Truncate(summary, 300))
	}

	logging.Info("monitor", "stopped")
}

func (m *Monitor) loop() {
	defer close(m.doneChan)

	ticker := time.NewTicker(m.cfg.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.RunCycle(context.Background())
		}
	}
}

// RunCycle executes one decision cycle. A cycle already in flight makes
// this a no-op, preserving the no-overlap invariant under slow backends.
// Any failure inside the cycle is logged and absorbed; the loop never
// dies from one bad cycle.
func (m *Monitor) RunCycle(ctx context.Context) {
	if !m.cycleMu.TryLock() {
		logging.Debug("monitor", "cycle still in flight, tick skipped")
		return
	}
	defer m.cycleMu.Unlock()

	idleSec := m.source.IdleSeconds()
	screen := m.maybeClassify(ctx)

	// Engine policy calls cost money; only consult it when there is
	// something to decide about.
	if idleSec < int(m.cfg.IdleThreshold.Seconds()) && (screen == nil || !screen.OffTask) {
		return
	}

	dctx := types.DecisionContext{
		IdleSeconds: idleSec,
		Now:         time.Now(),
		Screen:      screen,
		Recent:      m.engine.History(),
		GoalHints:   hints.Derive(m.store),
	}

	decision := m.engine.Decide(ctx, dctx)

	if err := m.journal.LogCycle(idleSec, decision.ShouldIntervene, decision.Reasoning, decision.Confidence); err != nil {
		logging.Debug("monitor", "journal write failed: %v", err)
	}
	if m.archive != nil {
		if err := m.archive.RecordCycle(idleSec, decision); err != nil {
			logging.Warn("monitor", "archive write failed: %v", err)
		}
	}

	if !decision.ShouldIntervene {
		return
	}

	logging.Info("monitor", "intervening: %s %q (%s)", decision.Kind, decision.Message,
		logging.Truncate(decision.Reasoning, 100))

	if err := m.notifier.Execute(decision.Kind, decision.Message); err != nil {
		logging.Warn("monitor", "notifier failed: %v", err)
	}
	m.journal.LogIntervention(string(decision.Kind), decision.Message, decision.Reasoning)

	if err := m.store.RecordIntervention(); err != nil {
		// Persistence failures surface; they are the one loud category
		logging.Warn("monitor", "intervention not persisted: %v", err)
		m.journal.LogError("intervention persist failed", err)
	}
}

// maybeClassify runs a screen check when enabled and due
func (m *Monitor) maybeClassify(ctx context.Context) *types.ScreenClassification {
	if m.classifier == nil {
		return nil
	}

	m.mu.Lock()
	due := time.Since(m.lastClassify) >= m.cfg.ClassifyInterval
	last := m.lastScreen
	m.mu.Unlock()

	if !due {
		// Reuse the previous verdict while it is still fresh
		if last != nil && time.Since(last.CapturedAt) < 2*m.cfg.ClassifyInterval {
			return last
		}
		return nil
	}

	result := m.classifier.Classify(ctx, 0)

	m.mu.Lock()
	m.lastScreen = result
	m.lastClassify = time.Now()
	m.mu.Unlock()
	return result
}

func (m *Monitor) onIdle() {
	logging.Info("monitor", "idle transition")
	// An idle edge is worth a decision right away rather than waiting
	// out the tick.
	go m.RunCycle(context.Background())
}

// onActivity attributes the resume to the most recent intervention:
// effective when the user came back inside the attribution window.
func (m *Monitor) onActivity() {
	logging.Info("monitor", "activity resumed")

	last := m.engine.LastIntervention()
	if last == nil || last.WasEffective != nil {
		return
	}

	resumeSec := last.Age()
	effective := resumeSec <= m.cfg.EffectivenessWindow.Seconds()

	m.engine.RecordEffectiveness(effective)
	m.store.UpdateInterventionEffectiveness(effective)
	m.journal.LogFeedback(last.ID, effective, resumeSec)
	if m.archive != nil {
		if err := m.archive.MarkLastEffective(effective); err != nil {
			logging.Debug("monitor", "archive feedback failed: %v", err)
		}
	}
}
