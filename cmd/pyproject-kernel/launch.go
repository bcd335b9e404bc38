package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/detect"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/fallback"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/provision"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/resolve"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/sanity"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/telemetry"
)

type launchFlags struct {
	connectionFile string
	useVenv        bool
	fallbackReason string

	// extraArgs are unknown flags and positional arguments, appended to
	// the kernel command in the order given.
	extraArgs []string
}

func newLaunchCmd(a *app) *cobra.Command {
	var lf launchFlags
	cmd := &cobra.Command{
		Use:   "launch -f CONNECTION_FILE",
		Short: "Start a kernel in the project environment (used by Jupyter)",
		Long: `Starts ipykernel with the interpreter of the project that contains the
working directory. When no project environment can be used, a fallback kernel
starts instead and shows what went wrong when a cell is executed.

This is the command kernel.json runs; Jupyter supplies the connection file.`,
		Args: cobra.ArbitraryArgs,
		// Arguments this command does not know are passed through to the
		// kernel, so flags are split out by hand.
		DisableFlagParsing: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := parseLaunchArgs(cmd, args, &lf); err != nil {
				return err
			}
			if help, _ := cmd.Flags().GetBool("help"); help {
				return nil
			}
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if help, _ := cmd.Flags().GetBool("help"); help {
				return cmd.Help()
			}
			code, err := a.runLaunch(cmd, lf)
			if err != nil {
				return err
			}
			if code != 0 {
				return &exitCodeError{code: code}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&lf.connectionFile, "connection-file", "f", "", "Jupyter connection file")
	flags.BoolVar(&lf.useVenv, "use-venv", false, "start the interpreter of the configured venv directly")
	flags.StringVar(&lf.fallbackReason, "fallback-kernel", "", "start the fallback kernel with this message")
	flags.String("venv", "", "venv directory for --use-venv (default .venv)")
	flags.Bool("sanity-check", true, "check that ipykernel is importable before launching")
	flags.Duration("sanity-timeout", sanity.DefaultTimeout, "timeout for the ipykernel check")
	flags.Duration("hatch-timeout", resolve.DefaultHatchTimeout, "timeout for `hatch env find`")
	_ = flags.MarkHidden("fallback-kernel")
	return cmd
}

func (a *app) runLaunch(cmd *cobra.Command, lf launchFlags) (int, error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	// Jupyter interrupts the kernel's process group; the kernel handles
	// SIGINT and the launcher keeps running.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func(ctx context.Context, logger *logging.Logger) {
		for {
			select {
			case <-ctx.Done():
				return
			case <-interrupts:
				logger.Debug(ctx, "interrupt received")
			}
		}
	}(ctx, a.logger)

	cwd, err := os.Getwd()
	if err != nil {
		return 1, err
	}
	stdio := provision.Stdio{In: cmd.InOrStdin(), Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}

	if cmd.Flags().Changed("fallback-kernel") {
		return a.runFallback(ctx, cwd, lf.fallbackReason, lf, stdio)
	}

	a.cfg.Telemetry.ServiceVersion = version
	tel, err := telemetry.New(ctx, &a.cfg.Telemetry, telemetry.WithLogger(a.logger))
	if err != nil {
		return 1, err
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			a.logger.Warn(ctx, "failed to flush telemetry", zap.Error(err))
		}
	}()
	a.logger = a.logger.WithLoggerProvider(tel.LoggerProvider())

	settings := provision.DefaultSettings()
	settings.UseVenv = a.cfg.UseVenv
	settings.UseVenvKernel = lf.useVenv
	settings.SanityCheck = a.cfg.SanityCheck

	p := provision.New(settings,
		provision.WithLogger(a.logger),
		provision.WithIdentifier(detect.NewIdentifier(a.logger)),
		provision.WithResolver(a.newResolver()),
		provision.WithChecker(sanity.NewChecker(nil, a.cfg.SanityTimeout, a.logger)),
		provision.WithTracerProvider(tel.TracerProvider()),
		provision.WithMeterProvider(tel.MeterProvider()),
	)
	plan, err := p.Prepare(ctx, cwd, nil)
	if err != nil {
		return 1, err
	}
	ctx = logging.WithKernelSpec(logging.WithLaunchID(ctx, plan.LaunchID), settings.SpecName())

	if plan.Fallback {
		return a.runFallback(ctx, cwd, plan.Reason, lf, stdio)
	}

	plan.Argv = append(provision.ExpandArgs(plan.Argv, lf.connectionFile), lf.extraArgs...)
	code, err := provision.Launch(ctx, plan, stdio, a.logger)
	if err == nil && errors.Is(ctx.Err(), context.Canceled) {
		a.logger.Info(ctx, "kernel terminated", zap.Int("exit_code", code))
		return 0, nil
	}
	return code, err
}

func (a *app) runFallback(ctx context.Context, cwd, reason string, lf launchFlags, stdio provision.Stdio) (int, error) {
	opts := []fallback.Option{fallback.WithIdentifier(detect.NewIdentifier(a.logger))}
	if a.lookPath != nil {
		opts = append(opts, fallback.WithLookPath(a.lookPath))
	}
	return fallback.NewKernel(a.logger, opts...).Run(ctx, cwd, reason, lf.connectionFile, stdio, lf.extraArgs...)
}

// parseLaunchArgs parses the flags cmd knows, including those inherited from
// the root command, and keeps everything else in lf.extraArgs. Arguments
// after "--" are always extra.
func parseLaunchArgs(cmd *cobra.Command, args []string, lf *launchFlags) error {
	fs := cmd.Flags()
	fs.AddFlagSet(cmd.InheritedFlags())

	known, extra := splitKernelArgs(fs, args)
	if err := fs.Parse(known); err != nil {
		return err
	}
	lf.extraArgs = extra
	return nil
}

// splitKernelArgs separates the flags defined in fs, with their values, from
// the remaining arguments. Order is preserved on both sides.
func splitKernelArgs(fs *pflag.FlagSet, args []string) (known, extra []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return known, append(extra, args[i+1:]...)
		}
		f := lookupFlag(fs, arg)
		if f == nil {
			extra = append(extra, arg)
			continue
		}
		known = append(known, arg)
		if takesNextArg(f, arg) && i+1 < len(args) {
			i++
			known = append(known, args[i])
		}
	}
	return known, extra
}

func lookupFlag(fs *pflag.FlagSet, arg string) *pflag.Flag {
	switch {
	case strings.HasPrefix(arg, "--") && len(arg) > 2:
		name, _, _ := strings.Cut(arg[2:], "=")
		return fs.Lookup(name)
	case strings.HasPrefix(arg, "-") && len(arg) > 1:
		return fs.ShorthandLookup(arg[1:2])
	}
	return nil
}

// takesNextArg reports whether the flag's value is the following argument.
func takesNextArg(f *pflag.Flag, arg string) bool {
	if f.NoOptDefVal != "" {
		return false
	}
	if strings.HasPrefix(arg, "--") {
		return !strings.Contains(arg, "=")
	}
	return len(arg) == 2
}
