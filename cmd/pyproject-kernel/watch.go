package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/detect"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-identify the project whenever a pyproject.toml changes",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(*cobra.Command, []string) error {
			return validateFormat(format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := targetDir(args)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watch.New(dir, watch.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			identifier := detect.NewIdentifier(a.logger)
			out := cmd.OutOrStdout()
			last := identifier.Identify(ctx, dir)
			if err := render(out, format, newIdentifyView(last)); err != nil {
				return err
			}

			for ev := range w.Events() {
				det := identifier.Identify(ctx, dir)
				a.logger.Debug(ctx, "manifest changed",
					zap.String("path", ev.Path),
					zap.Stringer("op", ev.Op),
					zap.Stringer("kind", det.Kind),
				)
				if det.Path == last.Path && det.Kind == last.Kind && det.ErrorContext == last.ErrorContext &&
					det.Config.String() == last.Config.String() {
					continue
				}
				fmt.Fprintf(out, "# %s changed\n", ev.Path)
				if err := render(out, format, newIdentifyView(det)); err != nil {
					return err
				}
				last = det
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", formatText, "output format: text, json or yaml")
	return cmd
}
