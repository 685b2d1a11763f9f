package screen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// CommandCapturer shells out to an OS screenshot tool and reads the
// resulting PNG. Which tool depends on the platform; the command can be
// overridden in config for unusual setups.
type CommandCapturer struct {
	command string // "" = platform default
}

// NewCommandCapturer creates a capturer using command, or the platform
// default when command is empty.
func NewCommandCapturer(command string) *CommandCapturer {
	return &CommandCapturer{command: command}
}

// Capture takes a screenshot and returns the PNG bytes
func (c *CommandCapturer) Capture(ctx context.Context) ([]byte, error) {
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("nudge-capture-%d.png", time.Now().UnixNano()))
	defer os.Remove(tmp)

	name, args := c.commandFor(tmp)
	if name == "" {
		return nil, fmt.Errorf("no screenshot tool for platform %s", runtime.GOOS)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s failed: %w (%s)", name, err, string(out))
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	return data, nil
}

func (c *CommandCapturer) commandFor(outPath string) (string, []string) {
	if c.command != "" {
		return c.command, []string{outPath}
	}
	switch runtime.GOOS {
	case "darwin":
		return "screencapture", []string{"-x", outPath}
	case "linux":
		return "scrot", []string{"-o", outPath}
	default:
		return "", nil
	}
}
