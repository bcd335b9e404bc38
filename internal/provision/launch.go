package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/process"
)

// Stdio are the streams handed to the kernel process.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Launch starts plan.Argv and waits for it to exit, returning its exit code.
// Cancelling ctx kills the kernel.
func Launch(ctx context.Context, plan *Plan, stdio Stdio, logger *logging.Logger) (int, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(plan.Argv) == 0 {
		return 1, errors.New("empty kernel command")
	}
	ctx = logging.WithLaunchID(ctx, plan.LaunchID)

	cmd := exec.CommandContext(ctx, plan.Argv[0], plan.Argv[1:]...)
	cmd.Dir = plan.Dir
	cmd.Env = process.EnvList(plan.Env)
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err

	logger.Info(ctx, "Launching kernel", zap.Strings("argv", plan.Argv), zap.String("cwd", plan.Dir))
	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("could not start kernel: %w", err)
	}

	err := cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		logger.Debug(ctx, "kernel exited", zap.Int("exit_code", exitErr.ExitCode()))
		return exitErr.ExitCode(), nil
	default:
		return 1, fmt.Errorf("waiting for kernel: %w", err)
	}
}
