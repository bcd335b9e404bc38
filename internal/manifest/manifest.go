// Package manifest locates and loads pyproject.toml files.
//
// FindFrom walks from a directory toward the filesystem root and returns the
// first manifest it sees. Load decodes it into a generic Document that the
// classifier inspects with dotted-key lookups.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file name searched for.
const FileName = "pyproject.toml"

// Document is a decoded manifest: nested maps of string keys.
type Document = map[string]any

// FindFrom returns the absolute path of the nearest pyproject.toml, checking
// dir itself and then each ancestor. Returns ErrNotFound if none exists.
func FindFrom(dir string) (string, error) {
	return FindFromWithName(dir, FileName)
}

// FindFromWithName is FindFrom for an arbitrary manifest basename.
func FindFromWithName(dir, basename string) (string, error) {
	for _, candidate := range Ancestors(dir) {
		path := filepath.Join(candidate, basename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: searched from %s", ErrNotFound, dir)
}

// Ancestors returns dir (made absolute, symlinks resolved where possible)
// followed by each parent up to the filesystem root, in search order.
func Ancestors(dir string) []string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = filepath.Clean(dir)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	var dirs []string
	for {
		dirs = append(dirs, abs)
		parent := filepath.Dir(abs)
		if parent == abs {
			return dirs
		}
		abs = parent
	}
}

// Load reads and decodes the manifest at path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	var doc Document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Lookup traverses doc along a dotted key such as "tool.rye.managed".
// A missing key or a non-mapping intermediate value yields (nil, false).
func Lookup(doc any, dotkey string) (any, bool) {
	current := doc
	for _, part := range strings.Split(dotkey, ".") {
		table, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = table[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Has reports whether dotkey is present with a non-nil value.
func Has(doc any, dotkey string) bool {
	v, ok := Lookup(doc, dotkey)
	return ok && v != nil
}
