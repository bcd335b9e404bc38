package fallback

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/detect"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/process"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/provision"
)

// EnvMessage carries the help text to the fallback kernel process.
const EnvMessage = "PYPROJECT_LOCAL_KERNEL_FALLBACK_MESSAGE"

// exitNoIpykernel is the script's exit code when ipykernel is missing.
const exitNoIpykernel = 3

// kernelScript starts an IPython kernel that prints the help text before
// every execution. Arguments after -c are passed to the kernel app.
const kernelScript = `import os, sys
try:
    import ipykernel.ipkernel
    from ipykernel.kernelapp import IPKernelApp
except ImportError:
    sys.exit(3)
_messages = os.environ.get("` + EnvMessage + `", "").splitlines()
class FallbackMessageKernel(ipykernel.ipkernel.IPythonKernel):
    def do_execute(self, *args, **kwargs):
        for msg in _messages:
            print(msg, file=sys.stderr)
        return super().do_execute(*args, **kwargs)
IPKernelApp.launch_instance(sys.argv[1:], kernel_class=FallbackMessageKernel)
`

const versionScript = `import sys; print("%d.%d" % sys.version_info[:2])`

// interpreters are tried in order on PATH.
var interpreters = []string{"python3", "python"}

// Kernel starts the fallback kernel.
type Kernel struct {
	identifier *detect.Identifier
	runner     process.Runner
	lookPath   process.LookPathFunc
	logger     *logging.Logger
	environ    func() []string
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithRunner sets the runner used for the interpreter version query.
func WithRunner(r process.Runner) Option { return func(k *Kernel) { k.runner = r } }

// WithLookPath sets the PATH probe.
func WithLookPath(fn process.LookPathFunc) Option { return func(k *Kernel) { k.lookPath = fn } }

// WithIdentifier sets the project identifier.
func WithIdentifier(i *detect.Identifier) Option { return func(k *Kernel) { k.identifier = i } }

// WithEnviron sets the source of the inherited environment.
func WithEnviron(fn func() []string) Option { return func(k *Kernel) { k.environ = fn } }

// NewKernel creates a fallback Kernel.
func NewKernel(logger *logging.Logger, opts ...Option) *Kernel {
	if logger == nil {
		logger = logging.NewNop()
	}
	k := &Kernel{
		runner:   process.NewOSRunner(),
		lookPath: process.LookPath,
		logger:   logger,
		environ:  os.Environ,
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.identifier == nil {
		k.identifier = detect.NewIdentifier(logger)
	}
	return k
}

// interpreter returns the first python on PATH.
func (k *Kernel) interpreter() (string, bool) {
	for _, name := range interpreters {
		if path, err := k.lookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

func (k *Kernel) pythonVersion(ctx context.Context, python string) string {
	if python == "" {
		return ""
	}
	res, err := k.runner.Run(ctx, process.Command{
		Path:    python,
		Args:    []string{"-c", versionScript},
		Timeout: 5 * time.Second,
	})
	if err != nil || res.ExitCode != 0 {
		return ""
	}
	return strings.TrimSpace(res.Stdout)
}

// Messages identifies the project in cwd and builds the help text.
func (k *Kernel) Messages(ctx context.Context, cwd, failure string) []string {
	python, _ := k.interpreter()
	in := Input{Failure: failure, PythonVersion: k.pythonVersion(ctx, python)}

	det := k.identifier.Identify(ctx, cwd)
	if det.HasPath() {
		kind := det.Kind
		in.ManifestFound = true
		in.Kind = &kind
	}
	return Messages(in)
}

// Run logs the help text and runs the fallback kernel until it exits. Extra
// arguments are passed to the kernel after the connection file. It returns 1
// when no interpreter with ipykernel is available.
func (k *Kernel) Run(ctx context.Context, cwd, failure, connectionFile string, stdio provision.Stdio, extra ...string) (int, error) {
	msgs := k.Messages(ctx, cwd, failure)

	k.logger.Info(ctx, "starting fallback kernel")
	for _, msg := range msgs {
		k.logger.Info(ctx, msg)
	}

	python, ok := k.interpreter()
	if !ok {
		k.logger.Error(ctx, "Fallback kernel requires `ipykernel` to be installed")
		return 1, nil
	}

	env := process.EnvMap(k.environ())
	env[EnvMessage] = strings.Join(msgs, "\n")

	argv := []string{python, "-c", kernelScript}
	if connectionFile != "" {
		argv = append(argv, "-f", connectionFile)
	}
	argv = append(argv, extra...)
	plan := &provision.Plan{Argv: argv, Env: env, Dir: cwd, Fallback: true, Reason: failure}
	k.logger.Debug(ctx, "fallback kernel launch", zap.String("python", python), zap.String("connection_file", connectionFile))

	code, err := provision.Launch(ctx, plan, stdio, k.logger)
	if err != nil {
		return 1, err
	}
	if code == exitNoIpykernel {
		k.logger.Error(ctx, "Fallback kernel requires `ipykernel` to be installed", zap.String("python", python))
		return 1, nil
	}
	return code, nil
}
