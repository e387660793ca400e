package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"
)

// CommandModule is the module name of the command collaborator.
const CommandModule = "Command"

// PathPlaceholder is replaced by the quoted target path in a capture command.
const PathPlaceholder = "{path}"

// Command captures screenshots by running a shell command such as
// "import -window root {path}". Without a placeholder the path is appended.
type Command struct {
	logger  zerolog.Logger
	command string
	shell   string
}

// NewCommand returns a command module running command through /bin/sh.
func NewCommand(logger zerolog.Logger, command string) *Command {
	return &Command{
		logger:  logger,
		command: command,
		shell:   "/bin/sh",
	}
}

func (c *Command) Name() string {
	return CommandModule
}

// BuildCommandLine returns the shell command line capturing into path.
func BuildCommandLine(command, path string) string {
	quoted := shellescape.Quote(path)
	if strings.Contains(command, PathPlaceholder) {
		return strings.ReplaceAll(command, PathPlaceholder, quoted)
	}
	return command + " " + quoted
}

// SaveScreenshot runs the capture command and verifies that it produced path.
func (c *Command) SaveScreenshot(ctx context.Context, path string) error {
	line := BuildCommandLine(c.command, path)
	c.logger.Debug().Str("cmd", line).Msg("Running capture command")

	cmd := exec.CommandContext(ctx, c.shell, "-c", line)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("capture command failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("capture command did not write %s: %w", path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("capture command wrote an empty file %s", path)
	}
	return nil
}
