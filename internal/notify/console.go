package notify

import (
	"fmt"
	"os"

	"github.com/vthunder/nudge/internal/types"
)

// Console writes interventions to stdout, with a terminal bell for alarms
type Console struct{}

// NewConsole creates a console notifier
func NewConsole() *Console {
	return &Console{}
}

// Execute prints the intervention
func (c *Console) Execute(kind types.InterventionKind, message string) error {
	switch kind {
	case types.KindAlarm:
		fmt.Fprintf(os.Stdout, "\a\a*** %s ***\n", message)
	case types.KindNotification:
		fmt.Fprintf(os.Stdout, "\a[!] %s\n", message)
	case types.KindGentleReminder:
		fmt.Fprintf(os.Stdout, "    %s\n", message)
	}
	return nil
}
