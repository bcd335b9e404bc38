// Package process runs short-lived subprocesses with a timeout and captured
// output, and probes PATH for executables.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"
)

var (
	// ErrStart indicates the process could not be started at all.
	ErrStart = errors.New("could not start process")

	// ErrTimeout indicates the process was killed after its timeout elapsed.
	ErrTimeout = errors.New("process timed out")
)

// ExitCodeTimeout is reported for processes killed on timeout.
const ExitCodeTimeout = 124

const waitDelay = 500 * time.Millisecond

// Command describes one subprocess invocation.
type Command struct {
	Path string
	Args []string
	Dir  string

	// Env is the full environment in KEY=VALUE form. Nil inherits the
	// current process environment.
	Env []string

	// Timeout of zero means no timeout beyond ctx.
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Result is the outcome of a process that started.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// Runner runs commands. Run returns an error wrapping ErrStart when the
// process could not be started and ErrTimeout (with a populated Result) when
// it was killed on timeout. A non-zero exit is not an error.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// LookPathFunc resolves an executable name on PATH.
type LookPathFunc func(file string) (string, error)

// LookPath is the default LookPathFunc.
var LookPath LookPathFunc = exec.LookPath

// OSRunner runs commands with os/exec.
type OSRunner struct{}

// NewOSRunner returns a Runner backed by os/exec.
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

// Run implements Runner.
func (r *OSRunner) Run(ctx context.Context, c Command) (Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	// Children that inherit the output pipes must not hold Wait open after a kill.
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%w: %s: %v", ErrStart, c.Path, err)
	}
	waitErr := cmd.Wait()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = ExitCodeTimeout
		return res, fmt.Errorf("%w after %s: %s", ErrTimeout, c.Timeout, c)
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		res.ExitCode = cmd.ProcessState.ExitCode()
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = 1
	}
	return res, nil
}

// EnvMap converts KEY=VALUE pairs to a map. Later duplicates win.
func EnvMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// EnvList converts an environment map to sorted KEY=VALUE pairs.
func EnvList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}

// CopyEnv returns a shallow copy of env.
func CopyEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
