package resolve

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Environment is a resolved launch target. It is not modified after Resolve
// returns it.
type Environment struct {
	// Command is the interpreter invocation. The first element is either a
	// tool name looked up on PATH or an absolute interpreter path.
	Command []string `json:"command" yaml:"command"`

	// BinDir, when set, is prepended to PATH before launch.
	BinDir string `json:"bin_dir,omitempty" yaml:"bin_dir,omitempty"`

	goos string
}

// NewEnvironment builds an Environment for the current platform.
func NewEnvironment(command []string, binDir string) *Environment {
	return &Environment{Command: command, BinDir: binDir, goos: runtime.GOOS}
}

func (e *Environment) platform() string {
	if e.goos == "" {
		return runtime.GOOS
	}
	return e.goos
}

// UpdateEnvironment prepends BinDir to the PATH variable unless it is already
// the first entry. On Windows the variable is matched case-insensitively and
// rewritten under its existing spelling. A missing PATH is treated as the
// platform default search path.
func (e *Environment) UpdateEnvironment(env map[string]string) {
	if e.BinDir == "" {
		return
	}
	sep, defPath := ":", "/bin:/usr/bin"
	windows := e.platform() == "windows"
	if windows {
		sep, defPath = ";", `.;C:\bin`
	}

	key := "PATH"
	if windows {
		key = pathKey(env)
	}
	pathEnv, ok := env[key]
	if !ok {
		pathEnv = defPath
	}
	entries := strings.Split(pathEnv, sep)
	if len(entries) > 0 && entries[0] == e.BinDir {
		return
	}
	env[key] = strings.Join(append([]string{e.BinDir}, entries...), sep)
}

// pathKey returns the spelling of the PATH variable already present in env,
// or "PATH" when there is none.
func pathKey(env map[string]string) string {
	if _, ok := env["PATH"]; ok {
		return "PATH"
	}
	for k := range env {
		if strings.EqualFold(k, "PATH") {
			return k
		}
	}
	return "PATH"
}

// CommandString renders Command for logs, quoting tokens that contain
// whitespace or quotes.
func (e *Environment) CommandString() string {
	parts := make([]string, len(e.Command))
	for i, arg := range e.Command {
		if arg == "" || strings.ContainsAny(arg, " \t\n'\"") {
			parts[i] = strconv.Quote(arg)
		} else {
			parts[i] = arg
		}
	}
	return strings.Join(parts, " ")
}

// VenvPython returns the interpreter path inside a virtual environment:
// base/bin/python, or base\Scripts\python.exe on Windows.
func VenvPython(base, goos string) string {
	if goos == "windows" {
		return filepath.Join(base, "Scripts", "python.exe")
	}
	return filepath.Join(base, "bin", "python")
}
