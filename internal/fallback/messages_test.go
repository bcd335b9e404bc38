package fallback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/detect"
)

func kindPtr(k detect.Kind) *detect.Kind { return &k }

func TestMessages(t *testing.T) {
	tests := []struct {
		name     string
		in       Input
		contains []string
		excludes []string
	}{
		{
			name: "no project",
			in:   Input{Failure: "Could not start project", PythonVersion: "3.12"},
			contains: []string{
				"Error: Could not start project",
				"Do you need to create a new project?",
				"!uv init && uv add ipykernel",
				"!pdm init --python 3.12 -n && pdm add ipykernel",
				"!poetry init -n && poetry add ipykernel",
			},
			excludes: []string{"The detected project type is"},
		},
		{
			name:     "rye",
			in:       Input{ManifestFound: true, Kind: kindPtr(detect.Rye)},
			contains: []string{"The detected project type is: Rye", "Run this:", "!rye add --sync ipykernel"},
			excludes: []string{"Do you need to create a new project?", "Error: "},
		},
		{
			name:     "uv",
			in:       Input{ManifestFound: true, Kind: kindPtr(detect.Uv)},
			contains: []string{"The detected project type is: Uv", "!uv add ipykernel"},
		},
		{
			name:     "poetry has default command",
			in:       Input{ManifestFound: true, Kind: kindPtr(detect.Poetry)},
			contains: []string{"Add ipykernel as a dependency in the project and sync the virtual environment.", "Then restart the kernel to try again."},
			excludes: []string{"Run this:"},
		},
		{
			name:     "unknown has no remediation",
			in:       Input{ManifestFound: true, Kind: kindPtr(detect.Unknown)},
			contains: []string{"The detected project type is: Unknown"},
			excludes: []string{"Run this:", "Add ipykernel as a dependency"},
		},
		{
			name:     "default python version",
			in:       Input{},
			contains: []string{"!pdm init --python 3 -n && pdm add ipykernel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := Messages(tt.in)
			for _, want := range tt.contains {
				assert.Contains(t, msgs, want)
			}
			joined := strings.Join(msgs, "\n")
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, joined, unwanted)
			}
			assert.Equal(t, "environment - when you are done, restart the kernel and try again!", msgs[len(msgs)-1])
			assert.Contains(t, msgs, "This is a fallback - pyproject-local-kernel failed to start.")
		})
	}
}
