// Package kernelspec writes the Jupyter kernel specs that start this
// launcher.
package kernelspec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/provision"
)

// Kernel spec names.
const (
	Name        = "pyproject_local_kernel"
	NameUseVenv = Name + "_use_venv"
)

// FileName is the spec file inside each kernel directory.
const FileName = "kernel.json"

// Spec is the content of kernel.json.
type Spec struct {
	Argv        []string       `json:"argv"`
	DisplayName string         `json:"display_name"`
	Language    string         `json:"language"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Specs returns both kernel specs for the launcher at exe, keyed by name.
func Specs(exe string) map[string]Spec {
	base := []string{exe, "launch", "-f", provision.ConnectionFilePlaceholder}
	return map[string]Spec{
		Name: {
			Argv:        base,
			DisplayName: "Pyproject Local",
			Language:    "python",
			Metadata:    map[string]any{"debugger": true},
		},
		NameUseVenv: {
			Argv:        append(append([]string(nil), base...), "--use-venv"),
			DisplayName: "Pyproject Local (use-venv)",
			Language:    "python",
			Metadata:    map[string]any{"debugger": true},
		},
	}
}

// Install writes both specs under dir and returns the written kernel.json
// paths in name order.
func Install(dir, exe string) ([]string, error) {
	specs := Specs(exe)
	var written []string
	for _, name := range []string{Name, NameUseVenv} {
		kernelDir := filepath.Join(dir, name)
		if err := os.MkdirAll(kernelDir, 0o755); err != nil {
			return written, fmt.Errorf("failed to create kernel directory %s: %w", kernelDir, err)
		}
		data, err := json.MarshalIndent(specs[name], "", "  ")
		if err != nil {
			return written, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		path := filepath.Join(kernelDir, FileName)
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// Read loads a kernel.json file.
func Read(path string) (Spec, error) {
	var spec Spec
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, err
	}
	if err := json.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("invalid kernel spec %s: %w", path, err)
	}
	return spec, nil
}

// DefaultDir returns the per-user Jupyter kernels directory. JUPYTER_DATA_DIR
// overrides the platform default.
func DefaultDir() (string, error) {
	return defaultDir(runtime.GOOS, os.Getenv, os.UserHomeDir)
}

func defaultDir(goos string, getenv func(string) string, home func() (string, error)) (string, error) {
	if dataDir := getenv("JUPYTER_DATA_DIR"); dataDir != "" {
		return filepath.Join(dataDir, "kernels"), nil
	}
	switch goos {
	case "windows":
		if appData := getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "jupyter", "kernels"), nil
		}
	case "linux", "freebsd", "openbsd", "netbsd":
		if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "jupyter", "kernels"), nil
		}
	}

	h, err := home()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	switch goos {
	case "darwin":
		return filepath.Join(h, "Library", "Jupyter", "kernels"), nil
	case "windows":
		return filepath.Join(h, "AppData", "Roaming", "jupyter", "kernels"), nil
	default:
		return filepath.Join(h, ".local", "share", "jupyter", "kernels"), nil
	}
}
