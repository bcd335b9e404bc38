package process

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// FakeRunner is a Runner for tests. Calls are recorded and answered by
// Handler, or with a zero Result when Handler is nil.
type FakeRunner struct {
	Handler func(cmd Command) (Result, error)

	mu    sync.Mutex
	calls []Command
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, cmd Command) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()
	if f.Handler == nil {
		return Result{}, nil
	}
	return f.Handler(cmd)
}

// Calls returns the recorded commands.
func (f *FakeRunner) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}

// StaticLookPath resolves only the given names, each to /usr/bin/<name>.
func StaticLookPath(found ...string) LookPathFunc {
	set := make(map[string]bool, len(found))
	for _, name := range found {
		set[name] = true
	}
	return func(file string) (string, error) {
		if set[file] {
			return "/usr/bin/" + file, nil
		}
		return "", fmt.Errorf("exec: %q: %w", file, exec.ErrNotFound)
	}
}
