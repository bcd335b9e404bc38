// Package projectconfig parses the [tool.pyproject-local-kernel] section of
// pyproject.toml into a typed overlay.
//
// Each field is declared once in a closed schema with its accepted Shape.
// Both spellings of a key (python-cmd and python_cmd) are accepted; when both
// are present the underscored one is used and the other is reported as a
// duplicate.
package projectconfig

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
)

// Config is the per-project overlay. A nil field is unset.
type Config struct {
	// PythonCmd is nil or a non-empty argument list.
	PythonCmd   []string
	UseVenv     *string
	SanityCheck *bool
}

type field struct {
	name   string
	shape  Shape
	assign func(c *Config, v any) error
}

var schema = []field{
	{
		name:   "python_cmd",
		shape:  Union(String, ListOf(String)),
		assign: assignPythonCmd,
	},
	{
		name:  "use_venv",
		shape: String,
		assign: func(c *Config, v any) error {
			s := v.(string)
			c.UseVenv = &s
			return nil
		},
	},
	{
		name:  "sanity_check",
		shape: Bool,
		assign: func(c *Config, v any) error {
			b := v.(bool)
			c.SanityCheck = &b
			return nil
		},
	},
}

// hyphenated returns the manifest spelling of a field name.
func hyphenated(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// FromMap builds a Config from the decoded tool section. Unknown and
// duplicate keys are logged at warn level. A value of the wrong type returns
// a *TypeError.
func FromMap(ctx context.Context, data map[string]any, logger *logging.Logger) (*Config, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	cfg := &Config{}
	used := make(map[string]bool, len(schema))

	for _, f := range schema {
		key, value, ok := lookupField(data, f.name)
		if !ok {
			continue
		}
		used[key] = true

		if !f.shape.Check(value) {
			return nil, &TypeError{Key: hyphenated(f.name), Value: value, Expected: f.shape.String()}
		}
		if err := f.assign(cfg, value); err != nil {
			return nil, err
		}
	}

	var unknown []string
	for key := range data {
		if !used[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		logger.Warn(ctx, "Ignoring unknown (or duplicate) configuration key", zap.String("key", key))
	}

	return cfg, nil
}

// lookupField returns the key actually used for a field, preferring the
// underscored spelling.
func lookupField(data map[string]any, name string) (string, any, bool) {
	for _, key := range []string{name, hyphenated(name)} {
		if v, ok := data[key]; ok {
			return key, v, true
		}
	}
	return "", nil, false
}

func assignPythonCmd(c *Config, v any) error {
	var args []string
	switch val := v.(type) {
	case string:
		split, err := shlex.Split(val)
		if err != nil {
			return &TypeError{Key: "python-cmd", Value: v, Expected: "str | list[str]", Detail: err.Error()}
		}
		args = split
	case []string:
		args = append([]string(nil), val...)
	case []any:
		args = make([]string, len(val))
		for i, item := range val {
			args[i] = item.(string)
		}
	}
	if len(args) == 0 {
		return &TypeError{Key: "python-cmd", Value: v, Expected: "str | list[str]", Detail: "command is empty"}
	}
	c.PythonCmd = args
	return nil
}

// Merge fills fields unset on c from other. Fields already set on c are kept.
// It returns c.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}
	if c.PythonCmd == nil && other.PythonCmd != nil {
		c.PythonCmd = append([]string(nil), other.PythonCmd...)
	}
	if c.UseVenv == nil && other.UseVenv != nil {
		v := *other.UseVenv
		c.UseVenv = &v
	}
	if c.SanityCheck == nil && other.SanityCheck != nil {
		b := *other.SanityCheck
		c.SanityCheck = &b
	}
	return c
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	return (&Config{}).Merge(c)
}

// SanityCheckEnabled returns the sanity-check setting, or def when unset.
func (c *Config) SanityCheckEnabled(def bool) bool {
	if c == nil || c.SanityCheck == nil {
		return def
	}
	return *c.SanityCheck
}

// IsEmpty reports whether no field is set.
func (c *Config) IsEmpty() bool {
	return c == nil || (c.PythonCmd == nil && c.UseVenv == nil && c.SanityCheck == nil)
}

func (c *Config) String() string {
	if c == nil {
		return "Config{}"
	}
	var parts []string
	if c.PythonCmd != nil {
		parts = append(parts, "python_cmd="+formatValue(c.PythonCmd))
	}
	if c.UseVenv != nil {
		parts = append(parts, "use_venv="+formatValue(*c.UseVenv))
	}
	if c.SanityCheck != nil {
		parts = append(parts, fmt.Sprintf("sanity_check=%t", *c.SanityCheck))
	}
	return "Config{" + strings.Join(parts, ", ") + "}"
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
