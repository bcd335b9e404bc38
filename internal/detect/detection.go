package detect

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/manifest"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/projectconfig"
)

// Detection is the result of identifying the project for a directory.
type Detection struct {
	// Path is the absolute manifest path, empty when none was found.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	Kind Kind   `json:"kind" yaml:"kind"`

	// Config is never nil.
	Config *projectconfig.Config `json:"-" yaml:"-"`

	// ErrorContext explains an InvalidData classification.
	ErrorContext string `json:"error_context,omitempty" yaml:"error_context,omitempty"`
}

// HasPath reports whether a manifest was found.
func (d *Detection) HasPath() bool {
	return d.Path != ""
}

// Dir returns the directory holding the manifest, or "".
func (d *Detection) Dir() string {
	if d.Path == "" {
		return ""
	}
	return filepath.Dir(d.Path)
}

// Identifier finds and classifies the project governing a directory.
type Identifier struct {
	logger   *logging.Logger
	fileName string
}

// IdentifierOption configures an Identifier.
type IdentifierOption func(*Identifier)

// WithManifestName overrides the manifest file name searched for.
func WithManifestName(name string) IdentifierOption {
	return func(i *Identifier) { i.fileName = name }
}

// NewIdentifier creates an Identifier.
func NewIdentifier(logger *logging.Logger, opts ...IdentifierOption) *Identifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	i := &Identifier{logger: logger, fileName: manifest.FileName}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Identify locates the nearest manifest from dir and classifies it. Expected
// failures are reported in the result, never as errors: a missing manifest is
// NoProject and an unreadable one is InvalidData.
func (i *Identifier) Identify(ctx context.Context, dir string) *Detection {
	path, err := manifest.FindFromWithName(dir, i.fileName)
	if err != nil {
		if !errors.Is(err, manifest.ErrNotFound) {
			i.logger.Warn(ctx, "manifest search failed", zap.String("dir", dir), zap.Error(err))
		}
		return &Detection{Kind: NoProject, Config: &projectconfig.Config{}}
	}

	doc, err := manifest.Load(path)
	if err != nil {
		i.logger.Error(ctx, "could not load manifest", zap.String("path", path), zap.Error(err))
		return &Detection{Path: path, Kind: InvalidData, Config: &projectconfig.Config{}, ErrorContext: err.Error()}
	}

	c := Classify(ctx, doc, i.logger)
	det := &Detection{Path: path, Kind: c.Kind, Config: c.Config, ErrorContext: c.Err}
	if det.Config == nil {
		det.Config = &projectconfig.Config{}
	}

	i.logger.Debug(ctx, "identified project",
		zap.String("path", path),
		zap.Stringer("kind", det.Kind),
		zap.Stringer("config", det.Config),
	)
	return det
}
