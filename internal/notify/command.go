package notify

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/vthunder/nudge/internal/types"
)

// Command delivers interventions through the OS notification tool
// (notify-send on Linux, osascript on macOS, or a configured command).
type Command struct {
	command string // "" = platform default
}

// NewCommand creates a command notifier
func NewCommand(command string) *Command {
	return &Command{command: command}
}

// Execute shows an OS-level notification
func (c *Command) Execute(kind types.InterventionKind, message string) error {
	if kind == types.KindNone {
		return nil
	}

	title := "Nudge"
	if kind == types.KindAlarm {
		title = "Nudge — back to work!"
	}

	name, args := c.commandFor(title, message, kind)
	if name == "" {
		return fmt.Errorf("no notification tool for platform %s", runtime.GOOS)
	}

	cmd := exec.Command(name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w (%s)", name, err, string(out))
	}
	return nil
}

func (c *Command) commandFor(title, message string, kind types.InterventionKind) (string, []string) {
	if c.command != "" {
		return c.command, []string{title, message}
	}
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		if kind == types.KindAlarm {
			script += ` sound name "Sosumi"`
		}
		return "osascript", []string{"-e", script}
	case "linux":
		urgency := "normal"
		if kind == types.KindAlarm {
			urgency = "critical"
		}
		return "notify-send", []string{"-u", urgency, title, message}
	default:
		return "", nil
	}
}
