package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	statePath string
	output    string
)

var rootCmd = &cobra.Command{
	Use:   "nudgectl",
	Short: "Inspect the nudge productivity monitor's state",
	Long: `nudgectl reads the state the nudged daemon persists:

  status     Current session and profile summary
  insights   Productive/unproductive hour breakdown
  sessions   The bounded session log
  history    Archived decision cycles and interventions`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		if statePath == "" {
			statePath = os.Getenv("NUDGE_STATE_PATH")
		}
		if statePath == "" {
			statePath = "state"
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "State directory (default: $NUDGE_STATE_PATH or ./state)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (json, table)")
}
