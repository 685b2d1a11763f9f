package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vthunder/nudge/internal/memory"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent sessions from the bounded session log",
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Max sessions to show")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	store := memory.NewStore(statePath)
	if err := store.Load(); err != nil {
		return err
	}

	sessions := store.Sessions()
	if len(sessions) > sessionsLimit {
		sessions = sessions[len(sessions)-sessionsLimit:]
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	}

	for _, s := range sessions {
		mark := "·"
		if s.WasProductive {
			mark = "+"
		}
		fmt.Printf("%s %s  %s  %v  %d nudges  %s\n",
			mark, s.ID[:8], s.StartTime.Format("2006-01-02 15:04"),
			s.Duration().Round(time.Second), s.Interventions, s.ActivitySummary)
	}
	return nil
}
