package types

import "time"

// InterventionKind classifies how intense a nudge is
type InterventionKind string

const (
	KindAlarm          InterventionKind = "alarm"           // loudest: sound + popup
	KindNotification   InterventionKind = "notification"    // OS notification
	KindGentleReminder InterventionKind = "gentle_reminder" // one quiet line
	KindNone           InterventionKind = "none"            // do nothing
)

// ValidKind reports whether k is one of the known intervention kinds
func ValidKind(k InterventionKind) bool {
	switch k {
	case KindAlarm, KindNotification, KindGentleReminder, KindNone:
		return true
	}
	return false
}

// InterventionRecord is one issued nudge. WasEffective is nil until the
// next activity-resume event is attributed to it, then set exactly once.
type InterventionRecord struct {
	ID           string           `json:"id"`
	Kind         InterventionKind `json:"kind"`
	Message      string           `json:"message"`
	IssuedAt     time.Time        `json:"issued_at"`
	WasEffective *bool            `json:"was_effective,omitempty"`
}

// Age returns seconds since the intervention was issued
func (r *InterventionRecord) Age() float64 {
	return time.Since(r.IssuedAt).Seconds()
}

// ScreenClassification is the vision model's judgment of one capture
type ScreenClassification struct {
	OffTask         bool      `json:"off_task"`
	Confidence      int       `json:"confidence"` // 0-100
	Reason          string    `json:"reason"`
	SuggestedAction string    `json:"suggested_action"`
	CapturedAt      time.Time `json:"captured_at"`
}

// DecisionContext is the snapshot fed to the decision engine.
// Constructed fresh each cycle; never mutated by the engine.
type DecisionContext struct {
	IdleSeconds int
	Now         time.Time
	Screen      *ScreenClassification // nil when no classification this cycle
	Recent      []InterventionRecord  // read-only view, oldest first
	GoalHints   []string
}

// AgentDecision is the engine's output for one cycle.
// Invariant: if ShouldIntervene is false, Kind is KindNone.
type AgentDecision struct {
	ShouldIntervene bool             `json:"should_intervene"`
	Kind            InterventionKind `json:"kind"`
	Message         string           `json:"message"`
	Reasoning       string           `json:"reasoning"`
	Confidence      int              `json:"confidence"` // 0-100
}

// SafeDefault is the fail-closed decision used when the backend is
// unavailable or its response cannot be parsed. Never escalates.
func SafeDefault() AgentDecision {
	return AgentDecision{
		ShouldIntervene: false,
		Kind:            KindNone,
		Reasoning:       "decision unavailable",
		Confidence:      0,
	}
}

// ProductivitySession is one monitored work session
type ProductivitySession struct {
	ID              string     `json:"id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"` // nil while open
	WasProductive   bool       `json:"was_productive"`
	Interventions   int        `json:"interventions"`
	ActivitySummary string     `json:"activity_summary,omitempty"`
}

// Open reports whether the session has not been closed yet
func (s *ProductivitySession) Open() bool {
	return s.EndTime == nil
}

// Duration returns the session length, using now for open sessions
func (s *ProductivitySession) Duration() time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// UserProfile is the durable cross-session behavioral aggregate.
// Written only by the memory store; the decision engine reads it.
type UserProfile struct {
	ProductiveHours    [24]int   `json:"productive_hours"`
	UnproductiveHours  [24]int   `json:"unproductive_hours"`
	EffectivenessRate  float64   `json:"effectiveness_rate"` // EMA in [0,1]
	TotalSessions      int       `json:"total_sessions"`
	ProductiveSessions int       `json:"productive_sessions"`
	TotalInterventions int       `json:"total_interventions"`
	LastUpdated        time.Time `json:"last_updated"`
}

// NeutralEffectiveness is the prior used on cold start or corrupt state
const NeutralEffectiveness = 0.5

// NewUserProfile returns a profile with the neutral prior
func NewUserProfile() UserProfile {
	return UserProfile{EffectivenessRate: NeutralEffectiveness}
}
