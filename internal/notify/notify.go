// Package notify maps intervention decisions to observable effects.
// Notifiers are pure side effect; no decision logic lives here.
package notify

import (
	"github.com/vthunder/nudge/internal/logging"
	"github.com/vthunder/nudge/internal/types"
)

// Notifier delivers one intervention to the user
type Notifier interface {
	Execute(kind types.InterventionKind, message string) error
}

// Multi fans an intervention out to every configured sink. A failing
// sink logs and does not block the others.
type Multi struct {
	sinks []Notifier
}

// NewMulti creates a fan-out notifier
func NewMulti(sinks ...Notifier) *Multi {
	return &Multi{sinks: sinks}
}

// Add appends a sink
func (m *Multi) Add(n Notifier) {
	m.sinks = append(m.sinks, n)
}

// Execute delivers to all sinks
func (m *Multi) Execute(kind types.InterventionKind, message string) error {
	for _, sink := range m.sinks {
		if err := sink.Execute(kind, message); err != nil {
			logging.Warn("notify", "sink failed: %v", err)
		}
	}
	return nil
}
