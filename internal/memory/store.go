// Package memory is the durable behavioral store: the session log and the
// derived user profile. It is the only writer of the profile; the decision
// engine only ever reads it.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vthunder/nudge/internal/logging"
	"github.com/vthunder/nudge/internal/types"
)

const (
	schemaVersion = 1
	sessionCap    = 100 // bounded session log, oldest evicted first

	// emaAlpha is the weight given to each new effectiveness sample
	emaAlpha = 0.2
)

// persisted is the single durable unit written to disk
type persisted struct {
	Version  int                         `json:"version"`
	Sessions []types.ProductivitySession `json:"sessions"`
	Profile  types.UserProfile           `json:"user_profile"`
}

// Store persists sessions and the user profile as one JSON document
type Store struct {
	path string
	mu   sync.Mutex

	sessions []types.ProductivitySession
	profile  types.UserProfile
	current  *types.ProductivitySession // open session, nil when none
}

// NewStore creates a store rooted at statePath
func NewStore(statePath string) *Store {
	return &Store{
		path:    filepath.Join(statePath, "behavior.json"),
		profile: types.NewUserProfile(),
	}
}

// Load reads persisted state. Absence or corruption is a cold start, not
// an error: state resets to documented defaults and Load returns nil.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("memory", "unreadable state file, starting fresh: %v", err)
		}
		s.reset()
		return nil
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		logging.Warn("memory", "corrupt state file, starting fresh: %v", err)
		s.reset()
		return nil
	}

	s.sessions = p.Sessions
	s.profile = p.Profile
	if s.profile.EffectivenessRate <= 0 || s.profile.EffectivenessRate > 1 {
		s.profile.EffectivenessRate = types.NeutralEffectiveness
	}
	return nil
}

func (s *Store) reset() {
	s.sessions = nil
	s.profile = types.NewUserProfile()
	s.current = nil
}

// Save atomically persists the full state. Unlike Load, failures here
// propagate: silent loss of learning data is worse than a visible error.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	p := persisted{
		Version:  schemaVersion,
		Sessions: s.sessions,
		Profile:  s.profile,
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	// Write-then-rename so a crash never leaves a torn file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// StartSession opens a new session stamped now. If one is already open,
// the new start wins and the old open session is discarded with a warning.
func (s *Store) StartSession() *types.ProductivitySession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		logging.Warn("memory", "session %s still open, replaced by new start", s.current.ID)
	}
	s.current = &types.ProductivitySession{
		ID:        uuid.NewString(),
		StartTime: time.Now(),
	}
	logging.Info("memory", "session %s started", s.current.ID)
	return s.current
}

// EndSession closes the open session, folds it into the profile keyed by
// the session's start hour, appends it to the bounded log, and persists.
// With no open session it warns and returns nil, nil.
func (s *Store) EndSession(wasProductive bool, summary string) (*types.ProductivitySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		logging.Warn("memory", "end requested with no open session")
		return nil, nil
	}

	now := time.Now()
	sess := s.current
	sess.EndTime = &now
	sess.WasProductive = wasProductive
	sess.ActivitySummary = summary
	s.current = nil

	s.sessions = append(s.sessions, *sess)
	if len(s.sessions) > sessionCap {
		s.sessions = s.sessions[len(s.sessions)-sessionCap:]
	}

	hour := sess.StartTime.Hour()
	s.profile.TotalSessions++
	if wasProductive {
		s.profile.ProductiveSessions++
		s.profile.ProductiveHours[hour]++
	} else {
		s.profile.UnproductiveHours[hour]++
	}
	s.profile.LastUpdated = now

	if err := s.saveLocked(); err != nil {
		return sess, fmt.Errorf("persist session end: %w", err)
	}
	return sess, nil
}

// RecordIntervention counts an issued nudge against the open session and
// the lifetime profile, then persists immediately so a crash cannot lose it.
func (s *Store) RecordIntervention() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Interventions++
	}
	s.profile.TotalInterventions++
	s.profile.LastUpdated = time.Now()

	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("persist intervention: %w", err)
	}
	return nil
}

// UpdateInterventionEffectiveness folds one boolean sample into the EMA.
// Deliberately not persisted here; durability rides on the next session
// end, which is acceptable for this high-frequency low-value signal.
func (s *Store) UpdateInterventionEffectiveness(wasEffective bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample := 0.0
	if wasEffective {
		sample = 1.0
	}
	s.profile.EffectivenessRate = (1-emaAlpha)*s.profile.EffectivenessRate + emaAlpha*sample
	s.profile.LastUpdated = time.Now()
}

// Profile returns a copy of the current profile
func (s *Store) Profile() types.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Sessions returns a copy of the session log, oldest first
func (s *Store) Sessions() []types.ProductivitySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ProductivitySession, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// CurrentSession returns a copy of the open session, or nil
func (s *Store) CurrentSession() *types.ProductivitySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// HourCount pairs an hour of day with an observation count
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// TopProductiveHours returns up to n hours by descending productive count.
// Ties break toward the lower hour so output is deterministic.
func (s *Store) TopProductiveHours(n int) []HourCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return topHours(s.profile.ProductiveHours, n)
}

// TopUnproductiveHours returns up to n hours by descending unproductive count
func (s *Store) TopUnproductiveHours(n int) []HourCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return topHours(s.profile.UnproductiveHours, n)
}

func topHours(histogram [24]int, n int) []HourCount {
	var counts []HourCount
	for hour, count := range histogram {
		if count > 0 {
			counts = append(counts, HourCount{Hour: hour, Count: count})
		}
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Hour < counts[j].Hour
	})
	if n < len(counts) {
		counts = counts[:n]
	}
	return counts
}

// Insights formats the profile deterministically. No backend call.
func (s *Store) Insights() string {
	s.mu.Lock()
	profile := s.profile
	s.mu.Unlock()

	out := fmt.Sprintf("Sessions: %d total, %d productive\n",
		profile.TotalSessions, profile.ProductiveSessions)
	out += fmt.Sprintf("Interventions: %d lifetime, %.0f%% effective\n",
		profile.TotalInterventions, profile.EffectivenessRate*100)

	if top := s.TopProductiveHours(3); len(top) > 0 {
		out += "Most productive hours:"
		for _, hc := range top {
			out += fmt.Sprintf(" %02d:00(%d)", hc.Hour, hc.Count)
		}
		out += "\n"
	}
	if top := s.TopUnproductiveHours(3); len(top) > 0 {
		out += "Least productive hours:"
		for _, hc := range top {
			out += fmt.Sprintf(" %02d:00(%d)", hc.Hour, hc.Count)
		}
		out += "\n"
	}
	return out
}
