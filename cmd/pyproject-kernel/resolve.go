package main

import (
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/detect"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/resolve"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		format string
		opts   = resolve.DefaultOptions()
		noFB   bool
	)
	cmd := &cobra.Command{
		Use:   "resolve [dir]",
		Short: "Show the Python command a kernel would be started with",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(*cobra.Command, []string) error {
			return validateFormat(format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := targetDir(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			opts.AllowFallback = !noFB

			det := detect.NewIdentifier(a.logger).Identify(ctx, dir)
			env, err := a.newResolver().Resolve(ctx, det, opts)
			if rerr := render(cmd.OutOrStdout(), format, withEnvironment(newIdentifyView(det), env, err)); rerr != nil {
				return rerr
			}
			if err != nil {
				return &exitCodeError{code: 2}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", formatText, "output format: text, json or yaml")
	cmd.Flags().BoolVar(&noFB, "no-fallback", false, "do not fall back to uv or rye for projects without a command")
	cmd.Flags().BoolVar(&opts.AllowHatchWorkaround, "hatch-workaround", false, "ask hatch for its environment directory")
	cmd.Flags().Duration("hatch-timeout", resolve.DefaultHatchTimeout, "timeout for `hatch env find`")
	return cmd
}
