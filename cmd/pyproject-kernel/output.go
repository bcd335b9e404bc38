package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/detect"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/projectconfig"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/resolve"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type configView struct {
	PythonCmd   []string `json:"python_cmd,omitempty" yaml:"python_cmd,omitempty"`
	UseVenv     *string  `json:"use_venv,omitempty" yaml:"use_venv,omitempty"`
	SanityCheck *bool    `json:"sanity_check,omitempty" yaml:"sanity_check,omitempty"`
}

type identifyView struct {
	Path         string      `json:"path,omitempty" yaml:"path,omitempty"`
	Kind         string      `json:"kind" yaml:"kind"`
	Config       configView  `json:"config" yaml:"config"`
	ErrorContext string      `json:"error_context,omitempty" yaml:"error_context,omitempty"`
	Environment  *envView    `json:"environment,omitempty" yaml:"environment,omitempty"`
	Resolution   *resultView `json:"resolution,omitempty" yaml:"resolution,omitempty"`
}

type envView struct {
	Command []string `json:"command" yaml:"command"`
	BinDir  string   `json:"bin_dir,omitempty" yaml:"bin_dir,omitempty"`
}

type resultView struct {
	Error string `json:"error" yaml:"error"`
}

func newConfigView(cfg *projectconfig.Config) configView {
	if cfg == nil {
		return configView{}
	}
	return configView{PythonCmd: cfg.PythonCmd, UseVenv: cfg.UseVenv, SanityCheck: cfg.SanityCheck}
}

func newIdentifyView(det *detect.Detection) identifyView {
	return identifyView{
		Path:         det.Path,
		Kind:         det.Kind.String(),
		Config:       newConfigView(det.Config),
		ErrorContext: det.ErrorContext,
	}
}

func withEnvironment(v identifyView, env *resolve.Environment, err error) identifyView {
	if env != nil {
		v.Environment = &envView{Command: env.Command, BinDir: env.BinDir}
	}
	if err != nil {
		v.Resolution = &resultView{Error: err.Error()}
	}
	return v
}

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
}

func render(w io.Writer, format string, v identifyView) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	path := v.Path
	if path == "" {
		path = "(none)"
	}
	fmt.Fprintf(w, "path:   %s\n", path)
	fmt.Fprintf(w, "kind:   %s\n", v.Kind)
	if v.Config.PythonCmd != nil {
		fmt.Fprintf(w, "python-cmd:   %s\n", strings.Join(v.Config.PythonCmd, " "))
	}
	if v.Config.UseVenv != nil {
		fmt.Fprintf(w, "use-venv:     %s\n", *v.Config.UseVenv)
	}
	if v.Config.SanityCheck != nil {
		fmt.Fprintf(w, "sanity-check: %t\n", *v.Config.SanityCheck)
	}
	if v.ErrorContext != "" {
		fmt.Fprintf(w, "error:  %s\n", v.ErrorContext)
	}
	if v.Environment != nil {
		fmt.Fprintf(w, "command: %s\n", resolve.NewEnvironment(v.Environment.Command, "").CommandString())
		if v.Environment.BinDir != "" {
			fmt.Fprintf(w, "bin-dir: %s\n", v.Environment.BinDir)
		}
	}
	if v.Resolution != nil {
		fmt.Fprintf(w, "unresolved: %s\n", v.Resolution.Error)
	}
	return nil
}
