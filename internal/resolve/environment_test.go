package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvironment_UpdateEnvironment(t *testing.T) {
	tests := []struct {
		name string
		goos string
		bin  string
		env  map[string]string
		key  string
		want string
	}{
		{
			name: "prepends to existing PATH",
			goos: "linux",
			bin:  "/p/.venv/bin",
			env:  map[string]string{"PATH": "/usr/local/bin:/usr/bin"},
			want: "/p/.venv/bin:/usr/local/bin:/usr/bin",
		},
		{
			name: "already first",
			goos: "linux",
			bin:  "/p/.venv/bin",
			env:  map[string]string{"PATH": "/p/.venv/bin:/usr/bin"},
			want: "/p/.venv/bin:/usr/bin",
		},
		{
			name: "present later is still prepended",
			goos: "linux",
			bin:  "/p/.venv/bin",
			env:  map[string]string{"PATH": "/usr/bin:/p/.venv/bin"},
			want: "/p/.venv/bin:/usr/bin:/p/.venv/bin",
		},
		{
			name: "missing PATH uses default",
			goos: "linux",
			bin:  "/p/.venv/bin",
			env:  map[string]string{},
			want: "/p/.venv/bin:/bin:/usr/bin",
		},
		{
			name: "windows separator",
			goos: "windows",
			bin:  `C:\p\.venv\Scripts`,
			env:  map[string]string{"PATH": `C:\Windows`},
			want: `C:\p\.venv\Scripts;C:\Windows`,
		},
		{
			name: "windows mixed-case Path keeps its spelling",
			goos: "windows",
			bin:  `P\.venv\Scripts`,
			env:  map[string]string{"Path": `C:\Windows;C:\Tools`},
			key:  "Path",
			want: `P\.venv\Scripts;C:\Windows;C:\Tools`,
		},
		{
			name: "windows missing path uses default",
			goos: "windows",
			bin:  `P\.venv\Scripts`,
			env:  map[string]string{"SystemRoot": `C:\Windows`},
			want: `P\.venv\Scripts;.;C:\bin`,
		},
		{
			name: "linux Path is a different variable",
			goos: "linux",
			bin:  "/p/.venv/bin",
			env:  map[string]string{"Path": "/opt/bin"},
			want: "/p/.venv/bin:/bin:/usr/bin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &Environment{Command: []string{"python"}, BinDir: tt.bin, goos: tt.goos}
			key := tt.key
			if key == "" {
				key = "PATH"
			}
			env.UpdateEnvironment(tt.env)
			assert.Equal(t, tt.want, tt.env[key])

			env.UpdateEnvironment(tt.env)
			assert.Equal(t, tt.want, tt.env[key], "second update is a no-op")
			if key != "PATH" {
				assert.NotContains(t, tt.env, "PATH")
			}
		})
	}
}

func TestEnvironment_UpdateEnvironmentWithoutBinDir(t *testing.T) {
	env := NewEnvironment([]string{"uv", "run", "python"}, "")
	vars := map[string]string{}
	env.UpdateEnvironment(vars)
	_, ok := vars["PATH"]
	assert.False(t, ok)
}

func TestEnvironment_CommandString(t *testing.T) {
	env := NewEnvironment([]string{"uv", "run", "--with", "custom string", ""}, "")
	assert.Equal(t, `uv run --with "custom string" ""`, env.CommandString())
}

func TestVenvPython(t *testing.T) {
	assert.Equal(t, "/p/.venv/bin/python", VenvPython("/p/.venv", "linux"))
	assert.Equal(t, "/p/.venv/Scripts/python.exe", VenvPython("/p/.venv", "windows"))
}
