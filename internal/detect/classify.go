// Package detect classifies the project that governs a directory.
//
// Classification is an ordered list of checks over the decoded manifest.
// Explicit configuration in [tool.pyproject-local-kernel] comes first, then
// per-tool predicates in a fixed order: Rye, Pdm, Poetry, Hatch, Uv. The
// first match wins, so a manifest carrying several tools' markers is
// classified by the earliest predicate.
package detect

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/manifest"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/projectconfig"
)

// ToolName is the name of this tool's section under [tool].
const ToolName = "pyproject-local-kernel"

// Error context messages for InvalidData.
const (
	MsgNotMapping     = "Could not read pyproject.toml"
	MsgNoProjectTable = "No valid project table or configuration"
)

// Classification is the outcome of classifying one manifest. Config is nil
// when Kind is InvalidData.
type Classification struct {
	Kind   Kind
	Config *projectconfig.Config
	Err    string
}

type predicate struct {
	kind  Kind
	match func(doc map[string]any) bool
}

var predicates = []predicate{
	{kind: Rye, match: isRye},
	{kind: Pdm, match: isPdm},
	{kind: Poetry, match: isPoetry},
	{kind: Hatch, match: isHatch},
	{kind: Uv, match: isUv},
}

// Classify classifies a decoded manifest.
func Classify(ctx context.Context, doc any, logger *logging.Logger) Classification {
	if logger == nil {
		logger = logging.NewNop()
	}

	data, ok := doc.(map[string]any)
	if !ok {
		return Classification{Kind: InvalidData, Err: MsgNotMapping}
	}

	cfg, err := toolConfig(ctx, data, logger)
	if err != nil {
		msg := fmt.Sprintf("Error on reading pyproject.toml: %v", err)
		logger.Warn(ctx, msg)
		return Classification{Kind: InvalidData, Err: msg}
	}

	if cfg.PythonCmd != nil {
		return Classification{Kind: CustomConfiguration, Config: cfg}
	}
	if cfg.UseVenv != nil {
		return Classification{Kind: UseVenv, Config: cfg}
	}

	for _, p := range predicates {
		matched := p.match(data)
		logger.Trace(ctx, "checked project predicate", zap.Stringer("kind", p.kind), zap.Bool("matched", matched))
		if matched {
			return Classification{Kind: p.kind, Config: cfg}
		}
	}

	if !hasProjectTable(data) {
		return Classification{Kind: InvalidData, Err: MsgNoProjectTable}
	}
	return Classification{Kind: Unknown, Config: cfg}
}

func toolConfig(ctx context.Context, data map[string]any, logger *logging.Logger) (*projectconfig.Config, error) {
	section, ok := manifest.Lookup(data, "tool."+ToolName)
	if !ok {
		return &projectconfig.Config{}, nil
	}
	table, ok := section.(map[string]any)
	if !ok {
		return nil, &projectconfig.TypeError{Key: "tool." + ToolName, Value: section, Expected: "table"}
	}
	return projectconfig.FromMap(ctx, table, logger)
}

// hasProjectTable requires project.name and either project.version or
// project.dynamic; a version may be declared dynamic.
func hasProjectTable(data map[string]any) bool {
	return manifest.Has(data, "project.name") &&
		(manifest.Has(data, "project.version") || manifest.Has(data, "project.dynamic"))
}

func isRye(data map[string]any) bool {
	if !hasProjectTable(data) {
		return false
	}
	managed, _ := manifest.Lookup(data, "tool.rye.managed")
	b, ok := managed.(bool)
	return ok && b
}

func isPoetry(data map[string]any) bool {
	name, _ := manifest.Lookup(data, "tool.poetry.name")
	s, ok := name.(string)
	return ok && s != ""
}

func isPdm(data map[string]any) bool {
	return hasProjectTable(data) && manifest.Has(data, "tool.pdm")
}

func isHatch(data map[string]any) bool {
	return hasProjectTable(data) &&
		(manifest.Has(data, "tool.hatch.version") || manifest.Has(data, "tool.hatch.envs"))
}

func isUv(data map[string]any) bool {
	return hasProjectTable(data) && manifest.Has(data, "tool.uv")
}
