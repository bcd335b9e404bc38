package provision

import (
	"errors"
	"strings"
)

// User-facing messages shown by the fallback kernel.
const (
	MsgNoPyproject       = "Could not start project - no pyproject.toml or malformed pyproject.toml?"
	MsgSanity            = "Sanity check: Could not find `ipykernel` in environment"
	MsgSanityNoIpykernel = MsgSanity + "\nAdd `ipykernel` as a dependency in your project and update the virtual environment."
)

// Fallback reasons, used as the metrics label.
const (
	ReasonNoProject         = "no_project"
	ReasonInvalidData       = "invalid_data"
	ReasonNoEnvironment     = "no_environment"
	ReasonSanityUnavailable = "sanity_unavailable"
	ReasonSanityFailed      = "sanity_failed"
	ReasonOSError           = "os_error"
)

// ErrMissingKernelArgs indicates the kernelspec carries no kernel arguments.
var ErrMissingKernelArgs = errors.New("kernelspec missing kernel arguments")

// LaunchError is an expected failure to prepare a kernel. Its message is
// shown to the user by the fallback kernel.
type LaunchError struct {
	Message string
	Reason  string
	Err     error
}

func newLaunchError(reason string, err error, lines ...string) *LaunchError {
	return &LaunchError{Message: strings.Join(lines, "\n"), Reason: reason, Err: err}
}

func (e *LaunchError) Error() string {
	return e.Message
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
