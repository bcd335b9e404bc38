// Package sanity probes a resolved interpreter for ipykernel before a kernel
// is launched with it.
package sanity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/detect"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/process"
)

// ProbeScript exits 0 when ipykernel is importable.
const ProbeScript = `import importlib.util; raise SystemExit(not importlib.util.find_spec("ipykernel"))`

// EnvMarker is set in the probe's environment so projects can tell a probe
// from a kernel start.
const EnvMarker = "PYPROJECT_LOCAL_KERNEL_SANITY_CHECK"

// DefaultTimeout bounds the probe. Tool-managed commands may sync an
// environment on first run.
const DefaultTimeout = 15 * time.Second

var (
	// ErrProbeUnavailable indicates the probe could not run at all.
	ErrProbeUnavailable = errors.New("sanity probe could not run")

	// ErrMissingDependency indicates the probe ran and ipykernel is missing.
	ErrMissingDependency = errors.New("ipykernel not found in environment")
)

// ProbeKind distinguishes probe failures.
type ProbeKind int

const (
	// ProbeUnavailable: the interpreter could not be started or timed out.
	ProbeUnavailable ProbeKind = iota
	// ProbeFailed: the interpreter ran and reported ipykernel missing.
	ProbeFailed
)

// ProbeError describes a failed sanity check.
type ProbeError struct {
	Kind     ProbeKind
	Command  []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProbeError) Error() string {
	if e.Kind == ProbeUnavailable {
		return fmt.Sprintf("sanity check could not run %v: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("sanity check failed for %v: exit code %d", e.Command, e.ExitCode)
}

// Unwrap exposes both the sentinel for the kind and the underlying error.
func (e *ProbeError) Unwrap() []error {
	sentinel := ErrMissingDependency
	if e.Kind == ProbeUnavailable {
		sentinel = ErrProbeUnavailable
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

var osEnviron = os.Environ

// Checker runs the ipykernel probe.
type Checker struct {
	runner  process.Runner
	timeout time.Duration
	logger  *logging.Logger
}

// NewChecker creates a Checker. A non-positive timeout uses DefaultTimeout.
func NewChecker(runner process.Runner, timeout time.Duration, logger *logging.Logger) *Checker {
	if runner == nil {
		runner = process.NewOSRunner()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Checker{runner: runner, timeout: timeout, logger: logger}
}

// ShouldSkip reports whether the probe is unnecessary: uv's default command
// installs ipykernel itself, unless a venv override points elsewhere.
func ShouldSkip(cmd []string, useVenvSet bool) bool {
	if useVenvSet {
		return false
	}
	uv := detect.Uv.PythonCmd()
	if len(cmd) < len(uv) {
		return false
	}
	for i := range uv {
		if cmd[i] != uv[i] {
			return false
		}
	}
	return true
}

// Check runs `cmd -c ProbeScript` in dir with env plus EnvMarker. A nil env
// inherits the current process environment.
func (c *Checker) Check(ctx context.Context, cmd []string, dir string, env map[string]string) error {
	if len(cmd) == 0 {
		return &ProbeError{Kind: ProbeUnavailable, Err: errors.New("empty command")}
	}

	probeEnv := process.CopyEnv(env)
	if env == nil {
		probeEnv = process.EnvMap(osEnviron())
	}
	probeEnv[EnvMarker] = "1"

	args := append(append([]string(nil), cmd[1:]...), "-c", ProbeScript)
	c.logger.Debug(ctx, "Running sanity check", zap.Strings("command", append([]string{cmd[0]}, args...)))

	start := time.Now()
	res, err := c.runner.Run(ctx, process.Command{
		Path:    cmd[0],
		Args:    args,
		Dir:     dir,
		Env:     process.EnvList(probeEnv),
		Timeout: c.timeout,
	})
	defer func() {
		c.logger.Debug(ctx, "sanity check finished", zap.Duration("duration", time.Since(start)))
	}()

	if err != nil {
		c.logger.Error(ctx, "failed sanity check", zap.Error(err))
		return &ProbeError{Kind: ProbeUnavailable, Command: cmd, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	if res.ExitCode != 0 {
		c.logger.Error(ctx, "failed sanity check", zap.Int("exit_code", res.ExitCode))
		return &ProbeError{Kind: ProbeFailed, Command: cmd, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return nil
}
