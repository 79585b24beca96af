package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// RunCommandName is the name of the shell tool. The agent applies its
// blocked-pattern and read-only whitelist checks to calls of this tool.
const RunCommandName = "run_command"

type runCommandArgs struct {
	Command string `json:"command" desc:"The shell command to run" required:"true"`
	Cwd     string `json:"cwd" desc:"Working directory for the command. Optional."`
}

// RunCommand creates the run_command tool. The command runs under sh -c and
// is killed when the registry timeout expires.
func RunCommand(opts ...FileOption) *Tool {
	cfg := applyFileOpts(opts)
	return Func(RunCommandName, "Execute a shell command and return stdout/stderr. Use for running scripts, git, etc. Timeout: 30s.",
		func(ctx context.Context, args runCommandArgs) (any, error) {
			cmd := exec.CommandContext(ctx, "sh", "-c", args.Command)
			cmd.WaitDelay = 2 * time.Second
			if args.Cwd != "" {
				dir, err := ExpandPath(args.Cwd, cfg.baseDir)
				if err != nil {
					return nil, err
				}
				cmd.Dir = dir
			} else if cfg.baseDir != "" {
				cmd.Dir = cfg.baseDir
			}

			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			err := cmd.Run()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			code := 0
			if err != nil {
				var exitErr *exec.ExitError
				if !errors.As(err, &exitErr) {
					return nil, fmt.Errorf("error running command: %w", err)
				}
				code = exitErr.ExitCode()
			}
			return formatCommandOutput(stdout.String(), stderr.String(), code), nil
		}, RequiresConfirmation())
}

func formatCommandOutput(stdout, stderr string, code int) string {
	var sb strings.Builder
	if stdout != "" {
		sb.WriteString("stdout:\n" + stdout)
	}
	if stderr != "" {
		sb.WriteString("\nstderr:\n" + stderr)
	}
	fmt.Fprintf(&sb, "\nexit code: %d", code)

	out := sb.String()
	if clipped, ok := clip(out, maxOutputChars); ok {
		out = clipped + "\n... (truncated)"
	}
	return strings.TrimSpace(out)
}
