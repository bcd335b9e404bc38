package detect

import (
	"fmt"
)

// Kind is the classified project type of a directory.
type Kind int

// Project kinds. NoProject and InvalidData are terminal: no command can be
// derived for them.
const (
	CustomConfiguration Kind = iota
	UseVenv
	Rye
	Poetry
	Pdm
	Hatch
	Uv
	Unknown
	NoProject
	InvalidData

	numKinds
)

type kindInfo struct {
	name      string
	pythonCmd []string
}

// kinds maps every Kind to its name and default launch command. Kinds without
// a default command have a nil pythonCmd.
var kinds = map[Kind]kindInfo{
	CustomConfiguration: {name: "CustomConfiguration"},
	UseVenv:             {name: "UseVenv"},
	Rye:                 {name: "Rye", pythonCmd: []string{"rye", "run", "python"}},
	Poetry:              {name: "Poetry", pythonCmd: []string{"poetry", "run", "python"}},
	Pdm:                 {name: "Pdm", pythonCmd: []string{"pdm", "run", "python"}},
	Hatch:               {name: "Hatch", pythonCmd: []string{"hatch", "run", "python"}},
	Uv:                  {name: "Uv", pythonCmd: []string{"uv", "run", "--with", "ipykernel", "python"}},
	Unknown:             {name: "Unknown"},
	NoProject:           {name: "NoProject"},
	InvalidData:         {name: "InvalidData"},
}

func init() {
	for k := Kind(0); k < numKinds; k++ {
		if _, ok := kinds[k]; !ok {
			panic(fmt.Sprintf("detect: kind %d missing from kind table", int(k)))
		}
	}
}

// Kinds returns all kinds in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// PythonCmd returns the default launch command for the kind, or nil. The
// returned slice is a fresh copy.
func (k Kind) PythonCmd() []string {
	cmd := kinds[k].pythonCmd
	if cmd == nil {
		return nil
	}
	return append([]string(nil), cmd...)
}

// IsTerminal reports whether the kind admits no launch command at all.
func (k Kind) IsTerminal() bool {
	return k == NoProject || k == InvalidData
}

// ParseKind parses a kind name as returned by String.
func ParseKind(s string) (Kind, error) {
	for k, info := range kinds {
		if info.name == s {
			return k, nil
		}
	}
	return Unknown, fmt.Errorf("unknown project kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kinds[k]; !ok {
		return nil, fmt.Errorf("invalid project kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
