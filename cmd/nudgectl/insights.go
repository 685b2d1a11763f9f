package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vthunder/nudge/internal/memory"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show productive/unproductive hour breakdown",
	RunE:  runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
	store := memory.NewStore(statePath)
	if err := store.Load(); err != nil {
		return err
	}

	if output == "json" {
		out := map[string]any{
			"productive_hours":   store.TopProductiveHours(5),
			"unproductive_hours": store.TopUnproductiveHours(5),
			"profile":            store.Profile(),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Print(store.Insights())
	return nil
}
