package manifest

import "errors"

var (
	// ErrNotFound indicates no manifest exists in a directory or any ancestor.
	ErrNotFound = errors.New("pyproject.toml not found")

	// ErrUnreadable indicates the manifest exists but could not be read.
	ErrUnreadable = errors.New("could not read manifest")

	// ErrInvalidTOML indicates the manifest is not a valid TOML document.
	ErrInvalidTOML = errors.New("invalid TOML in manifest")
)
