// Package resolve turns a project detection into the command that starts a
// Python interpreter in that project's environment.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/detect"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/process"
)

var (
	// ErrNoEnvironment indicates no command could be derived for a project.
	ErrNoEnvironment = errors.New("no python environment for project")

	// ErrNoFallbackAvailable indicates fallback was attempted but neither
	// uv nor rye is on PATH. It wraps ErrNoEnvironment.
	ErrNoFallbackAvailable = fmt.Errorf("no fallback tool (uv, rye) found on PATH: %w", ErrNoEnvironment)
)

// DefaultHatchTimeout bounds `hatch env find`.
const DefaultHatchTimeout = 3 * time.Second

// fallbackKinds are tried in order when a project has no command of its own.
var fallbackKinds = []detect.Kind{detect.Uv, detect.Rye}

// Options controls optional resolution steps.
type Options struct {
	// AllowFallback lets projects without a command use uv or rye.
	AllowFallback bool

	// AllowHatchWorkaround asks hatch for its environment directory.
	AllowHatchWorkaround bool
}

// DefaultOptions enables fallback and leaves the hatch workaround off.
func DefaultOptions() Options {
	return Options{AllowFallback: true}
}

// Resolver resolves detections into environments.
type Resolver struct {
	lookPath     process.LookPathFunc
	runner       process.Runner
	logger       *logging.Logger
	hatchTimeout time.Duration
	goos         string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookPath sets the PATH probe.
func WithLookPath(fn process.LookPathFunc) Option {
	return func(r *Resolver) { r.lookPath = fn }
}

// WithRunner sets the subprocess runner used for the hatch query.
func WithRunner(runner process.Runner) Option {
	return func(r *Resolver) { r.runner = runner }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithHatchTimeout bounds the hatch query.
func WithHatchTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.hatchTimeout = d }
}

// WithGOOS overrides the target platform for venv layout.
func WithGOOS(goos string) Option {
	return func(r *Resolver) { r.goos = goos }
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		lookPath:     process.LookPath,
		runner:       process.NewOSRunner(),
		logger:       logging.NewNop(),
		hatchTimeout: DefaultHatchTimeout,
		goos:         runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve derives the launch environment for det.
//
// Precedence: use-venv (possibly replaced by hatch's own environment), then
// python-cmd, then the kind's default command, then the uv/rye fallback.
// Returns an error wrapping ErrNoEnvironment when nothing applies.
func (r *Resolver) Resolve(ctx context.Context, det *detect.Detection, opts Options) (*Environment, error) {
	var venv string
	hasVenv := det.Config != nil && det.Config.UseVenv != nil
	if hasVenv {
		venv = *det.Config.UseVenv
	}

	if det.Kind == detect.Hatch && opts.AllowHatchWorkaround && det.HasPath() {
		if hatchEnv := r.hatchVenv(ctx, det.Dir()); hatchEnv != "" {
			venv, hasVenv = hatchEnv, true
		}
	}

	if hasVenv {
		if !det.HasPath() {
			return nil, fmt.Errorf("%w: use-venv %q without a project directory", ErrNoEnvironment, venv)
		}
		base := venv
		if !filepath.IsAbs(base) {
			base = filepath.Join(det.Dir(), base)
		}
		python := VenvPython(base, r.goos)
		env := &Environment{Command: []string{python}, BinDir: filepath.Dir(python), goos: r.goos}
		r.logResolved(ctx, det, env, "use-venv")
		return env, nil
	}

	if det.Config != nil && det.Config.PythonCmd != nil {
		env := &Environment{Command: append([]string(nil), det.Config.PythonCmd...), goos: r.goos}
		r.logResolved(ctx, det, env, "python-cmd")
		return env, nil
	}

	if cmd := det.Kind.PythonCmd(); cmd != nil {
		env := &Environment{Command: cmd, goos: r.goos}
		r.logResolved(ctx, det, env, "project kind")
		return env, nil
	}

	if !opts.AllowFallback || det.Kind.IsTerminal() {
		return nil, fmt.Errorf("%w: kind %s", ErrNoEnvironment, det.Kind)
	}

	for _, kind := range fallbackKinds {
		cmd := kind.PythonCmd()
		if _, err := r.lookPath(cmd[0]); err != nil {
			r.logger.Debug(ctx, "fallback tool not found", zap.String("tool", cmd[0]))
			continue
		}
		env := &Environment{Command: cmd, goos: r.goos}
		r.logResolved(ctx, det, env, "fallback "+kind.String())
		return env, nil
	}
	return nil, ErrNoFallbackAvailable
}

// PythonCmd resolves det and returns only the command.
func (r *Resolver) PythonCmd(ctx context.Context, det *detect.Detection, opts Options) ([]string, error) {
	env, err := r.Resolve(ctx, det, opts)
	if err != nil {
		return nil, err
	}
	return env.Command, nil
}

// hatchVenv asks hatch for the project's environment directory. The path is
// not required to exist. Any failure yields "".
func (r *Resolver) hatchVenv(ctx context.Context, dir string) string {
	res, err := r.runner.Run(ctx, process.Command{
		Path:    "hatch",
		Args:    []string{"--no-color", "env", "find"},
		Dir:     dir,
		Timeout: r.hatchTimeout,
	})
	if err != nil {
		r.logger.Warn(ctx, "Error calling hatch", zap.String("dir", dir), zap.Error(err))
		return ""
	}
	if res.ExitCode != 0 {
		r.logger.Warn(ctx, "hatch env find failed",
			zap.Int("exit_code", res.ExitCode),
			zap.String("stderr", strings.TrimSpace(res.Stderr)),
		)
		return ""
	}
	return strings.TrimSpace(res.Stdout)
}

func (r *Resolver) logResolved(ctx context.Context, det *detect.Detection, env *Environment, source string) {
	r.logger.Debug(ctx, "resolved python environment",
		zap.Stringer("kind", det.Kind),
		zap.String("source", source),
		zap.String("command", env.CommandString()),
		zap.String("bin_dir", env.BinDir),
	)
}
