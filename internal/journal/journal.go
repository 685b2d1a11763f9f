package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EntryType identifies what kind of journal entry this is
type EntryType string

const (
	EntryCycle        EntryType = "cycle"        // one decision cycle completed
	EntryIntervention EntryType = "intervention" // a nudge was issued
	EntryFeedback     EntryType = "feedback"     // effectiveness attributed
	EntrySession      EntryType = "session"      // session opened/closed
	EntryError        EntryType = "error"        // something went wrong
)

// Entry represents a single journal entry
type Entry struct {
	Timestamp time.Time      `json:"ts"`
	Type      EntryType      `json:"type"`
	Summary   string         `json:"summary,omitempty"`
	Reasoning string         `json:"reasoning,omitempty"` // why the engine decided this
	Outcome   string         `json:"outcome,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Journal writes observability entries to <state>/journal.jsonl
type Journal struct {
	path string
	mu   sync.Mutex
}

// New creates a journal writer
func New(statePath string) *Journal {
	return &Journal{
		path: filepath.Join(statePath, "journal.jsonl"),
	}
}

// Log writes an entry to the journal
func (j *Journal) Log(entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// LogCycle logs one completed decision cycle
func (j *Journal) LogCycle(idleSec int, intervened bool, reasoning string, confidence int) error {
	return j.Log(Entry{
		Type:      EntryCycle,
		Summary:   "decision cycle",
		Reasoning: reasoning,
		Data: map[string]any{
			"idle_sec":   idleSec,
			"intervened": intervened,
			"confidence": confidence,
		},
	})
}

// LogIntervention logs a nudge that was issued
func (j *Journal) LogIntervention(kind, message, reasoning string) error {
	return j.Log(Entry{
		Type:      EntryIntervention,
		Summary:   message,
		Reasoning: reasoning,
		Data:      map[string]any{"kind": kind},
	})
}

// LogFeedback logs effectiveness attribution for the latest intervention
func (j *Journal) LogFeedback(interventionID string, effective bool, resumeSec float64) error {
	outcome := "ignored"
	if effective {
		outcome = "resumed"
	}
	return j.Log(Entry{
		Type:    EntryFeedback,
		Outcome: outcome,
		Data: map[string]any{
			"intervention_id": interventionID,
			"effective":       effective,
			"resume_sec":      resumeSec,
		},
	})
}

// LogSession logs a session lifecycle event
func (j *Journal) LogSession(event, sessionID string, data map[string]any) error {
	if data == nil {
		data = make(map[string]any)
	}
	data["session_id"] = sessionID
	return j.Log(Entry{
		Type:    EntrySession,
		Summary: event,
		Data:    data,
	})
}

// LogError logs an error
func (j *Journal) LogError(summary string, err error) error {
	return j.Log(Entry{
		Type:    EntryError,
		Summary: summary,
		Data:    map[string]any{"error": err.Error()},
	})
}

// Recent returns the last n entries from the journal
func (j *Journal) Recent(n int) ([]Entry, error) {
	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}
	if n >= len(entries) {
		return entries, nil
	}
	return entries[len(entries)-n:], nil
}

// Today returns entries from today
func (j *Journal) Today() ([]Entry, error) {
	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var result []Entry
	for _, e := range entries {
		if !e.Timestamp.Before(midnight) {
			result = append(result, e)
		}
	}
	return result, nil
}

// ByType returns the most recent entries of a specific type
func (j *Journal) ByType(t EntryType, limit int) ([]Entry, error) {
	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}

	var result []Entry
	for i := len(entries) - 1; i >= 0 && len(result) < limit; i-- {
		if entries[i].Type == t {
			result = append(result, entries[i])
		}
	}
	return result, nil
}

func (j *Journal) readAll() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	start := 0
	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1
			if len(line) == 0 {
				continue
			}
			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue // skip malformed entries
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
