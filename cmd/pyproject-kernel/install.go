package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/kernelspec"
)

func newInstallCmd(a *app) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the Jupyter kernelspecs",
		Long: `Writes the pyproject_local_kernel and pyproject_local_kernel_use_venv
kernelspecs to the Jupyter data directory (or --prefix).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := prefix
			if dir == "" {
				var err error
				if dir, err = kernelspec.DefaultDir(); err != nil {
					return err
				}
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to locate executable: %w", err)
			}
			if resolved, err := filepath.EvalSymlinks(exe); err == nil {
				exe = resolved
			}

			paths, err := kernelspec.Install(dir, exe)
			if err != nil {
				return err
			}
			for _, p := range paths {
				a.logger.Debug(cmd.Context(), "installed kernelspec", zap.String("path", p))
				fmt.Fprintf(cmd.OutOrStdout(), "Installed kernelspec %s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "kernels directory (default: Jupyter data dir/kernels)")
	return cmd
}
