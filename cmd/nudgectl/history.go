package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vthunder/nudge/internal/archive"
)

var (
	historyLimit         int
	historyInterventions bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show archived decision cycles",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Max cycles to show")
	historyCmd.Flags().BoolVar(&historyInterventions, "interventions", false, "Only show cycles that intervened")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	arch, err := archive.Open(statePath)
	if err != nil {
		return err
	}
	defer arch.Close()

	var rows []archive.CycleRow
	if historyInterventions {
		rows, err = arch.Interventions(historyLimit)
	} else {
		rows, err = arch.Recent(historyLimit)
	}
	if err != nil {
		return err
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	for _, r := range rows {
		outcome := ""
		if r.Effective != nil {
			if *r.Effective {
				outcome = " [worked]"
			} else {
				outcome = " [ignored]"
			}
		}
		if r.Intervened {
			fmt.Printf("%s  idle=%ds  %s %q%s\n",
				r.At.Format("2006-01-02 15:04:05"), r.IdleSec, r.Kind, r.Message, outcome)
		} else {
			fmt.Printf("%s  idle=%ds  (no intervention)\n",
				r.At.Format("2006-01-02 15:04:05"), r.IdleSec)
		}
	}
	return nil
}
