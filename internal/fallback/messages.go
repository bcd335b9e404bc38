// Package fallback runs a plain ipykernel that explains why the project
// kernel could not start.
//
// The fallback kernel gives the user a working notebook in which to run
// shell commands that repair the environment. Every executed cell prints the
// help messages to stderr.
package fallback

import (
	"fmt"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/detect"
)

// Input describes the failed launch.
type Input struct {
	// Failure is the message from the failed launch, may be empty.
	Failure string

	// ManifestFound reports whether a pyproject.toml exists.
	ManifestFound bool

	// Kind is the detected project kind, nil when no project was identified.
	Kind *detect.Kind

	// PythonVersion is "major.minor" of the fallback interpreter.
	PythonVersion string
}

// Messages returns the help text lines for in.
func Messages(in Input) []string {
	var msgs []string

	if in.Failure != "" {
		msgs = append(msgs, "Error: "+in.Failure)
	}

	if !in.ManifestFound {
		version := in.PythonVersion
		if version == "" {
			version = "3"
		}
		msgs = append(msgs,
			"Do you need to create a new project?",
			"",
			"Use a command like one of these to start:",
			"!uv init && uv add ipykernel",
			fmt.Sprintf("!pdm init --python %s -n && pdm add ipykernel", version),
			"!poetry init -n && poetry add ipykernel",
			"",
			"Some project managers work better in a terminal than in a notebook",
			"in that case, set up your project separately.",
		)
	}

	if in.Kind != nil {
		msgs = append(msgs, "The detected project type is: "+in.Kind.String())
	}

	msgs = append(msgs, "")
	switch {
	case in.Kind == nil:
	case *in.Kind == detect.Rye:
		msgs = append(msgs, "Run this:", "!rye add --sync ipykernel")
	case *in.Kind == detect.Uv:
		msgs = append(msgs, "Run this:", "!uv add ipykernel")
	case in.Kind.PythonCmd() != nil:
		msgs = append(msgs,
			"Add ipykernel as a dependency in the project and sync the virtual environment.",
			"",
			"Then restart the kernel to try again.",
		)
	}

	return append(msgs,
		"",
		"This is a fallback - "+detect.ToolName+" failed to start.",
		"The purpose of the fallback is to let you run shell commands to fix the",
		"environment - when you are done, restart the kernel and try again!",
	)
}
