// Package provision prepares a kernel launch for a notebook directory.
//
// PreLaunch runs the whole pipeline: identify the project, merge the
// kernelspec's settings into the project's configuration, resolve the
// interpreter command, adjust PATH and optionally probe for ipykernel. Any
// expected failure is a *LaunchError; Prepare turns it into a plan that
// starts the fallback kernel instead, so the user sees the reason in the
// notebook.
package provision

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/detect"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/process"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/projectconfig"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/resolve"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/sanity"
)

// ConnectionFilePlaceholder is replaced by the connection file path.
const ConnectionFilePlaceholder = "{connection_file}"

// FallbackFlag carries the failure message to the fallback kernel.
const FallbackFlag = "--fallback-kernel"

// DefaultKernelArgs start ipykernel in the resolved interpreter.
var DefaultKernelArgs = []string{"-m", "ipykernel_launcher", "-f", ConnectionFilePlaceholder}

// Settings are the kernelspec-level options.
type Settings struct {
	// UseVenv applies only when UseVenvKernel is set.
	UseVenv       string
	UseVenvKernel bool

	// SanityCheck is the default for projects that do not configure it.
	SanityCheck bool

	// KernelArgs follow the interpreter command.
	KernelArgs []string

	// Executable is this program, used to start the fallback kernel.
	Executable string
}

// DefaultSettings returns the settings of the plain kernelspec.
func DefaultSettings() Settings {
	exe, err := os.Executable()
	if err != nil {
		exe = "pyproject-kernel"
	}
	return Settings{
		UseVenv:     ".venv",
		SanityCheck: true,
		KernelArgs:  append([]string(nil), DefaultKernelArgs...),
		Executable:  exe,
	}
}

// SpecName returns the kernelspec name these settings correspond to.
func (s Settings) SpecName() string {
	if s.UseVenvKernel {
		return "pyproject_local_kernel_use_venv"
	}
	return "pyproject_local_kernel"
}

// Plan is a prepared launch.
type Plan struct {
	LaunchID string
	Argv     []string
	Env      map[string]string
	Dir      string

	Detection   *detect.Detection
	Environment *resolve.Environment

	// Fallback is set when Argv starts the fallback kernel; Reason holds
	// the message it will show.
	Fallback bool
	Reason   string
}

// Provisioner prepares kernel launches.
type Provisioner struct {
	settings   Settings
	identifier *detect.Identifier
	resolver   *resolve.Resolver
	checker    *sanity.Checker
	logger     *logging.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	environ    func() []string
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithIdentifier sets the project identifier.
func WithIdentifier(i *detect.Identifier) Option {
	return func(p *Provisioner) { p.identifier = i }
}

// WithResolver sets the environment resolver.
func WithResolver(r *resolve.Resolver) Option {
	return func(p *Provisioner) { p.resolver = r }
}

// WithChecker sets the sanity checker.
func WithChecker(c *sanity.Checker) Option {
	return func(p *Provisioner) { p.checker = c }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Provisioner) { p.logger = l }
}

// WithMeterProvider records metrics on provider instead of the global one.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(p *Provisioner) { p.metrics = NewMetrics(provider, p.logger) }
}

// WithTracerProvider sets where launch spans are recorded.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(p *Provisioner) { p.tracer = provider.Tracer(instrumentationName) }
}

// WithEnviron sets the source of the inherited environment.
func WithEnviron(fn func() []string) Option {
	return func(p *Provisioner) { p.environ = fn }
}

// New creates a Provisioner. Options are applied in order, so WithLogger
// should precede WithMeterProvider.
func New(settings Settings, opts ...Option) *Provisioner {
	p := &Provisioner{
		settings: settings,
		logger:   logging.NewNop(),
		environ:  os.Environ,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.identifier == nil {
		p.identifier = detect.NewIdentifier(p.logger)
	}
	if p.resolver == nil {
		p.resolver = resolve.NewResolver(resolve.WithLogger(p.logger))
	}
	if p.checker == nil {
		p.checker = sanity.NewChecker(nil, sanity.DefaultTimeout, p.logger)
	}
	if p.metrics == nil {
		p.metrics = NewMetrics(nil, p.logger)
	}
	if p.tracer == nil {
		p.tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return p
}

// specConfig is the overlay contributed by the kernelspec settings.
func (p *Provisioner) specConfig() *projectconfig.Config {
	cfg := &projectconfig.Config{SanityCheck: projectconfig.BoolPtr(p.settings.SanityCheck)}
	if p.settings.UseVenvKernel && p.settings.UseVenv != "" {
		cfg.UseVenv = projectconfig.StringPtr(p.settings.UseVenv)
	}
	return cfg
}

// PreLaunch prepares the launch of a kernel for a notebook in cwd. env is
// the environment for the kernel; nil inherits the current process
// environment. The caller's map is not modified.
//
// Expected failures return a *LaunchError. ErrMissingKernelArgs means the
// kernelspec itself is broken.
func (p *Provisioner) PreLaunch(ctx context.Context, cwd string, env map[string]string) (*Plan, error) {
	ctx, span := p.tracer.Start(ctx, "provision.pre_launch", trace.WithAttributes(
		attribute.String("cwd", cwd),
		attribute.String("kernel_spec", p.settings.SpecName()),
	))
	defer span.End()

	plan, err := p.preLaunch(ctx, cwd, env)
	if plan != nil {
		span.SetAttributes(attribute.String("launch_id", plan.LaunchID))
		if plan.Detection != nil {
			span.SetAttributes(attribute.String("kind", plan.Detection.Kind.String()))
		}
	}
	if err != nil {
		reason := ReasonOSError
		var launchErr *LaunchError
		if errors.As(err, &launchErr) {
			reason = launchErr.Reason
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
	}
	return plan, err
}

func (p *Provisioner) preLaunch(ctx context.Context, cwd string, env map[string]string) (*Plan, error) {
	plan := &Plan{LaunchID: uuid.NewString(), Dir: cwd}
	ctx = p.launchContext(ctx, plan.LaunchID)

	if len(p.settings.KernelArgs) == 0 {
		return nil, ErrMissingKernelArgs
	}

	if env == nil {
		plan.Env = process.EnvMap(p.environ())
	} else {
		plan.Env = process.CopyEnv(env)
	}

	det := p.identifier.Identify(ctx, cwd)
	det.Config = det.Config.Merge(p.specConfig())
	plan.Detection = det
	p.metrics.recordDetection(ctx, det.Kind)

	p.logger.Debug(ctx, "Found project",
		zap.Stringer("kind", det.Kind),
		zap.String("path", det.Path),
		zap.Stringer("config", det.Config),
	)

	if !det.HasPath() {
		return plan, newLaunchError(ReasonNoProject, nil, MsgNoPyproject)
	}
	if det.Kind == detect.InvalidData {
		return plan, newLaunchError(ReasonInvalidData, nil, MsgNoPyproject, "Reason: "+det.ErrorContext)
	}

	pyEnv, err := p.resolver.Resolve(ctx, det, resolve.Options{AllowFallback: true, AllowHatchWorkaround: true})
	if err != nil {
		p.logger.Debug(ctx, "could not resolve environment", zap.Error(err))
		return plan, newLaunchError(ReasonNoEnvironment, err, MsgNoPyproject)
	}
	plan.Environment = pyEnv
	pyEnv.UpdateEnvironment(plan.Env)

	plan.Argv = append(append([]string(nil), pyEnv.Command...), p.settings.KernelArgs...)

	if det.Config.SanityCheckEnabled(p.settings.SanityCheck) && !sanity.ShouldSkip(pyEnv.Command, det.Config.UseVenv != nil) {
		if err := p.sanityCheck(ctx, pyEnv.Command, cwd, plan.Env); err != nil {
			return plan, err
		}
	}

	p.logger.Info(ctx, "prepared kernel launch", zap.Strings("argv", plan.Argv), zap.String("cwd", cwd))
	return plan, nil
}

func (p *Provisioner) sanityCheck(ctx context.Context, cmd []string, dir string, env map[string]string) error {
	ctx, span := p.tracer.Start(ctx, "provision.sanity_check", trace.WithAttributes(
		attribute.StringSlice("command", cmd),
	))
	defer span.End()

	start := time.Now()
	err := p.checker.Check(ctx, cmd, dir, env)
	p.metrics.recordSanity(ctx, time.Since(start), err == nil)
	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "sanity check failed")

	var probeErr *sanity.ProbeError
	if errors.As(err, &probeErr) && probeErr.Kind == sanity.ProbeFailed {
		return newLaunchError(ReasonSanityFailed, err, MsgSanityNoIpykernel)
	}
	return newLaunchError(ReasonSanityUnavailable, err, MsgSanity, "Error: "+err.Error())
}

// Prepare is PreLaunch with failures turned into a fallback plan. Only
// ErrMissingKernelArgs is returned as an error.
func (p *Provisioner) Prepare(ctx context.Context, cwd string, env map[string]string) (*Plan, error) {
	plan, err := p.PreLaunch(ctx, cwd, env)
	if err == nil {
		return plan, nil
	}
	if errors.Is(err, ErrMissingKernelArgs) {
		return nil, err
	}
	if plan == nil {
		plan = &Plan{LaunchID: uuid.NewString(), Dir: cwd}
	}
	if plan.Env == nil {
		plan.Env = process.EnvMap(p.environ())
	}

	reason := ReasonOSError
	var launchErr *LaunchError
	if errors.As(err, &launchErr) {
		reason = launchErr.Reason
	}
	p.metrics.recordFallback(ctx, reason)

	ctx = p.launchContext(ctx, plan.LaunchID)
	p.logger.Warn(ctx, "starting fallback kernel", zap.String("reason", reason), zap.Error(err))

	plan.Fallback = true
	plan.Reason = err.Error()
	plan.Argv = append([]string{p.settings.Executable, "launch", FallbackFlag + "=" + plan.Reason}, p.settings.KernelArgs...)
	return plan, nil
}

func (p *Provisioner) launchContext(ctx context.Context, launchID string) context.Context {
	ctx = logging.WithLaunchID(ctx, launchID)
	return logging.WithKernelSpec(ctx, p.settings.SpecName())
}

// ExpandArgs replaces the connection file placeholder in argv.
func ExpandArgs(argv []string, connectionFile string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		if connectionFile != "" {
			arg = strings.ReplaceAll(arg, ConnectionFilePlaceholder, connectionFile)
		}
		out[i] = arg
	}
	return out
}
