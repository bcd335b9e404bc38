package main

import (
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/detect"
)

func newIdentifyCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "identify [dir]",
		Short: "Show the project kind and configuration for a directory",
		Long: `Searches dir (default: the working directory) and its ancestors for
pyproject.toml and reports which project manager it belongs to.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(*cobra.Command, []string) error {
			return validateFormat(format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := targetDir(args)
			if err != nil {
				return err
			}
			det := detect.NewIdentifier(a.logger).Identify(cmd.Context(), dir)
			return render(cmd.OutOrStdout(), format, newIdentifyView(det))
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", formatText, "output format: text, json or yaml")
	return cmd
}
