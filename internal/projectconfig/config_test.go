package projectconfig

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
)

func TestFromMap(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want *Config
	}{
		{
			name: "empty",
			data: map[string]any{},
			want: &Config{},
		},
		{
			name: "hyphenated keys",
			data: map[string]any{"python-cmd": []any{"python3"}, "use-venv": ".venv", "sanity-check": false},
			want: &Config{PythonCmd: []string{"python3"}, UseVenv: StringPtr(".venv"), SanityCheck: BoolPtr(false)},
		},
		{
			name: "underscored keys",
			data: map[string]any{"use_venv": "env", "sanity_check": true},
			want: &Config{UseVenv: StringPtr("env"), SanityCheck: BoolPtr(true)},
		},
		{
			name: "shell split keeps quoted segment",
			data: map[string]any{"python-cmd": "uv run --with 'custom string' -BI"},
			want: &Config{PythonCmd: []string{"uv", "run", "--with", "custom string", "-BI"}},
		},
		{
			name: "list passes through",
			data: map[string]any{"python-cmd": []any{"a b", "c"}},
			want: &Config{PythonCmd: []string{"a b", "c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromMap(context.Background(), tt.data, nil)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FromMap() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromMap_TypeErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		wantMsg string
	}{
		{
			name:    "python-cmd integer",
			data:    map[string]any{"python-cmd": int64(1)},
			wantMsg: "invalid config python-cmd = 1, expected value of type 'str | list[str]'",
		},
		{
			name:    "python-cmd list with integer",
			data:    map[string]any{"python-cmd": []any{"python", int64(2)}},
			wantMsg: `invalid config python-cmd = ["python", 2], expected value of type 'str | list[str]'`,
		},
		{
			name:    "use-venv bool",
			data:    map[string]any{"use-venv": true},
			wantMsg: "invalid config use-venv = true, expected value of type 'str'",
		},
		{
			name:    "sanity-check string",
			data:    map[string]any{"sanity_check": "yes"},
			wantMsg: `invalid config sanity-check = "yes", expected value of type 'bool'`,
		},
		{
			name:    "empty command string",
			data:    map[string]any{"python-cmd": "   "},
			wantMsg: "command is empty",
		},
		{
			name:    "empty command list",
			data:    map[string]any{"python-cmd": []any{}},
			wantMsg: "command is empty",
		},
		{
			name:    "unclosed quote",
			data:    map[string]any{"python-cmd": "uv run 'oops"},
			wantMsg: "invalid config python-cmd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromMap(context.Background(), tt.data, nil)
			require.Error(t, err)
			assert.Nil(t, cfg)

			var typeErr *TypeError
			require.True(t, errors.As(err, &typeErr))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFromMap_UnknownKeysWarn(t *testing.T) {
	logger := logging.NewTestLogger()

	cfg, err := FromMap(context.Background(), map[string]any{
		"use-venv":   ".venv",
		"whatever":   1,
		"also-bogus": "x",
	}, logger.Logger)
	require.NoError(t, err)
	assert.Equal(t, ".venv", *cfg.UseVenv)

	entries := logger.FilterMessage("Ignoring unknown (or duplicate) configuration key").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	logger.AssertField(t, "Ignoring unknown", "key", "also-bogus")
	logger.AssertField(t, "Ignoring unknown", "key", "whatever")
}

func TestFromMap_UnderscoredKeyWins(t *testing.T) {
	logger := logging.NewTestLogger()

	cfg, err := FromMap(context.Background(), map[string]any{
		"use-venv": "hyphen",
		"use_venv": "underscore",
	}, logger.Logger)
	require.NoError(t, err)
	assert.Equal(t, "underscore", *cfg.UseVenv)
	logger.AssertField(t, "duplicate", "key", "use-venv")
}

func TestConfig_Merge(t *testing.T) {
	t.Run("self wins", func(t *testing.T) {
		self := &Config{UseVenv: StringPtr("mine")}
		other := &Config{UseVenv: StringPtr("theirs"), SanityCheck: BoolPtr(false), PythonCmd: []string{"py"}}

		got := self.Merge(other)
		assert.Same(t, self, got)
		assert.Equal(t, "mine", *got.UseVenv)
		assert.False(t, *got.SanityCheck)
		assert.Equal(t, []string{"py"}, got.PythonCmd)
	})

	t.Run("nil other", func(t *testing.T) {
		self := &Config{SanityCheck: BoolPtr(true)}
		assert.Equal(t, self, self.Merge(nil))
	})

	t.Run("merge copies values", func(t *testing.T) {
		other := &Config{PythonCmd: []string{"a"}}
		got := (&Config{}).Merge(other)
		other.PythonCmd[0] = "changed"
		assert.Equal(t, []string{"a"}, got.PythonCmd)
	})
}

func TestConfig_Clone(t *testing.T) {
	orig := &Config{PythonCmd: []string{"x"}, UseVenv: StringPtr("v"), SanityCheck: BoolPtr(true)}
	clone := orig.Clone()
	assert.Equal(t, orig, clone)
	*clone.UseVenv = "changed"
	assert.Equal(t, "v", *orig.UseVenv)
}

func TestConfig_SanityCheckEnabled(t *testing.T) {
	var nilCfg *Config
	assert.True(t, nilCfg.SanityCheckEnabled(true))
	assert.False(t, (&Config{}).SanityCheckEnabled(false))
	assert.False(t, (&Config{SanityCheck: BoolPtr(false)}).SanityCheckEnabled(true))
}

func TestConfig_String(t *testing.T) {
	cfg := &Config{PythonCmd: []string{"uv", "run"}, UseVenv: StringPtr(".venv"), SanityCheck: BoolPtr(false)}
	assert.Equal(t, `Config{python_cmd=["uv", "run"], use_venv=".venv", sanity_check=false}`, cfg.String())
	assert.Equal(t, "Config{}", (&Config{}).String())
	assert.True(t, (&Config{}).IsEmpty())
}
