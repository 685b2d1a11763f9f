// Package watcher reports how long the user has been idle and raises
// edge-triggered idle/resume transitions.
package watcher

// Source is the activity signal contract the monitor consumes. Callbacks
// fire on threshold crossings only, never repeatedly while a state holds.
type Source interface {
	Start() error
	Stop()
	IdleSeconds() int
	OnIdle(fn func())
	OnActivity(fn func())
}
