package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// realTempDir resolves symlinks so expectations match FindFrom on macOS,
// where the temp dir lives under a symlink.
func realTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestFindFrom(t *testing.T) {
	root := realTempDir(t)
	manifestPath := filepath.Join(root, "proj", FileName)
	writeFile(t, manifestPath, "[project]\nname = \"x\"\n")

	nested := filepath.Join(root, "proj", "notebooks", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	tests := []struct {
		name string
		dir  string
	}{
		{name: "same directory", dir: filepath.Join(root, "proj")},
		{name: "nested directory", dir: nested},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindFrom(tt.dir)
			require.NoError(t, err)
			assert.Equal(t, manifestPath, got)
			assert.True(t, filepath.IsAbs(got))
		})
	}
}

func TestFindFrom_NearestWins(t *testing.T) {
	root := realTempDir(t)
	writeFile(t, filepath.Join(root, FileName), "")
	inner := filepath.Join(root, "inner", FileName)
	writeFile(t, inner, "")

	got, err := FindFrom(filepath.Join(root, "inner"))
	require.NoError(t, err)
	assert.Equal(t, inner, got)
}

func TestFindFrom_NotFound(t *testing.T) {
	root := realTempDir(t)
	_, err := FindFromWithName(root, "surely-not-a-manifest-name.toml")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAncestors(t *testing.T) {
	root := realTempDir(t)
	dirs := Ancestors(filepath.Join(root, "a", "b"))

	require.GreaterOrEqual(t, len(dirs), 3)
	assert.Equal(t, filepath.Join(root, "a", "b"), dirs[0])
	assert.Equal(t, filepath.Join(root, "a"), dirs[1])
	assert.Equal(t, root, dirs[2])
	last := dirs[len(dirs)-1]
	assert.Equal(t, last, filepath.Dir(last), "search ends at the filesystem root")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "ok.toml")
		writeFile(t, path, "[project]\nname = \"demo\"\nversion = \"0.1\"\n[tool.rye]\nmanaged = true\n")
		doc, err := Load(path)
		require.NoError(t, err)
		v, ok := Lookup(doc, "tool.rye.managed")
		assert.True(t, ok)
		assert.Equal(t, true, v)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.toml")
		writeFile(t, path, "")
		doc, err := Load(path)
		require.NoError(t, err)
		assert.NotNil(t, doc)
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.toml")
		writeFile(t, path, "[project\nname = ")
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidTOML)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.toml"))
		assert.ErrorIs(t, err, ErrUnreadable)
	})
}

func TestLookup(t *testing.T) {
	doc := map[string]any{
		"project": map[string]any{"name": "demo", "dynamic": []any{"version"}},
		"tool":    map[string]any{"poetry": "not a table"},
	}

	tests := []struct {
		key    string
		want   any
		wantOK bool
	}{
		{key: "project.name", want: "demo", wantOK: true},
		{key: "project", want: doc["project"], wantOK: true},
		{key: "project.version", wantOK: false},
		{key: "tool.poetry.name", wantOK: false},
		{key: "missing.key", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := Lookup(doc, tt.key)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	_, ok := Lookup("not a map", "project")
	assert.False(t, ok)
	assert.True(t, Has(doc, "project.dynamic"))
	assert.False(t, Has(doc, "project.version"))
}
