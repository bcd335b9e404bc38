// Package main implements pyproject-kernel, a Jupyter kernel launcher that
// runs notebooks inside the Python environment of their enclosing project.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/config"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/process"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/resolve"
)

// version information, set at build time
var version = "dev"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// exitCodeError ends the process with a specific code without printing.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func execute(args []string, stdout, stderr io.Writer) int {
	return run(&app{}, args, stdout, stderr)
}

func run(a *app, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err == nil {
		return 0
	}
	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

// app carries state shared by subcommands once flags are parsed.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *logging.Logger

	// lookPath overrides PATH lookups in tests.
	lookPath process.LookPathFunc
}

func (a *app) newResolver() *resolve.Resolver {
	opts := []resolve.Option{
		resolve.WithLogger(a.logger),
		resolve.WithHatchTimeout(a.cfg.HatchTimeout),
	}
	if a.lookPath != nil {
		opts = append(opts, resolve.WithLookPath(a.lookPath))
	}
	return resolve.NewResolver(opts...)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pyproject-kernel",
		Short: "Jupyter kernel that runs in your project's Python environment",
		Long: `pyproject-kernel finds the pyproject.toml that governs a notebook's
directory, works out which project manager (uv, rye, poetry, pdm, hatch) owns
it, and starts the kernel with that project's interpreter.

Projects can override detection in pyproject.toml:

  [tool.pyproject-local-kernel]
  python-cmd = ["uv", "run", "python"]
  use-venv = ".venv"
  sanity-check = false`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.config/pyproject-kernel/config.yaml)")
	flags.Bool("debug", false, "enable debug logging (also PYPROJECT_LOCAL_KERNEL_DEBUG=1)")
	flags.String("log-level", "info", "log level: trace, debug, info, warn, error")
	flags.String("log-format", "console", "log format: console or json")

	root.AddCommand(
		newIdentifyCmd(a),
		newResolveCmd(a),
		newLaunchCmd(a),
		newInstallCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.LoadOptions{ConfigPath: a.configPath, Flags: cmd.Flags()})
	if err != nil {
		return err
	}
	logCfg, err := cfg.LoggerConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	logger.Debug(context.Background(), "Started", zap.Strings("argv", os.Args), zap.String("command", cmd.CommandPath()))
	return nil
}

// targetDir returns the directory argument or the working directory.
func targetDir(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return os.Getwd()
}
