package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vthunder/nudge/internal/memory"
	"github.com/vthunder/nudge/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current session and profile summary",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusOutput struct {
	Session *types.ProductivitySession `json:"session,omitempty"`
	Profile types.UserProfile          `json:"profile"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	store := memory.NewStore(statePath)
	if err := store.Load(); err != nil {
		return err
	}

	out := statusOutput{
		Session: store.CurrentSession(),
		Profile: store.Profile(),
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if out.Session != nil {
		fmt.Printf("Open session: %s (started %s, %d interventions)\n",
			out.Session.ID, out.Session.StartTime.Format(time.Kitchen), out.Session.Interventions)
	} else {
		fmt.Println("No open session")
	}
	fmt.Printf("Sessions: %d total, %d productive\n", out.Profile.TotalSessions, out.Profile.ProductiveSessions)
	fmt.Printf("Interventions: %d lifetime, effectiveness %.0f%%\n",
		out.Profile.TotalInterventions, out.Profile.EffectivenessRate*100)
	return nil
}
