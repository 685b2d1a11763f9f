// Package hints derives the user-goal hint strings fed into the decision
// context: named entities pulled from recent session summaries plus
// time-of-day patterns from the behavioral profile.
package hints

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tsawler/prose/v3"

	"github.com/vthunder/nudge/internal/memory"
	"github.com/vthunder/nudge/internal/types"
)

const maxTopicHints = 5

// Derive builds goal hints from the store's profile and recent sessions
func Derive(store *memory.Store) []string {
	var hints []string

	profile := store.Profile()
	if profile.TotalSessions > 0 {
		rate := float64(profile.ProductiveSessions) / float64(profile.TotalSessions)
		hints = append(hints, fmt.Sprintf("%.0f%% of past sessions were productive", rate*100))
	}
	if profile.TotalInterventions > 0 {
		hints = append(hints, fmt.Sprintf("past nudges worked %.0f%% of the time", profile.EffectivenessRate*100))
	}
	if top := store.TopProductiveHours(1); len(top) > 0 {
		hints = append(hints, fmt.Sprintf("usually most productive around %02d:00", top[0].Hour))
	}
	if top := store.TopUnproductiveHours(1); len(top) > 0 {
		hints = append(hints, fmt.Sprintf("usually least productive around %02d:00", top[0].Hour))
	}

	if topics := recentTopics(store.Sessions()); len(topics) > 0 {
		hints = append(hints, "recent work topics: "+strings.Join(topics, ", "))
	}
	return hints
}

// recentTopics extracts named entities from the latest session summaries
func recentTopics(sessions []types.ProductivitySession) []string {
	var sb strings.Builder
	// Last few summaries are enough signal
	start := len(sessions) - 5
	if start < 0 {
		start = 0
	}
	for _, sess := range sessions[start:] {
		if sess.ActivitySummary != "" {
			sb.WriteString(sess.ActivitySummary)
			sb.WriteString(". ")
		}
	}
	if sb.Len() == 0 {
		return nil
	}

	doc, err := prose.NewDocument(sb.String())
	if err != nil {
		return nil
	}

	seen := make(map[string]int)
	for _, ent := range doc.Entities() {
		name := strings.TrimSpace(ent.Text)
		if name == "" {
			continue
		}
		seen[name]++
	}

	topics := make([]string, 0, len(seen))
	for name := range seen {
		topics = append(topics, name)
	}
	sort.Slice(topics, func(i, j int) bool {
		if seen[topics[i]] != seen[topics[j]] {
			return seen[topics[i]] > seen[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > maxTopicHints {
		topics = topics[:maxTopicHints]
	}
	return topics
}
