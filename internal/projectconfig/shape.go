package projectconfig

import (
	"strings"
)

type shapeKind int

const (
	shapeString shapeKind = iota
	shapeBool
	shapeInt
	shapeList
	shapeUnion
)

// Shape describes the accepted type of a configuration value. The set of
// shapes is closed: primitives, homogeneous lists and unions.
type Shape struct {
	kind    shapeKind
	elem    *Shape
	options []Shape
}

// Primitive shapes.
var (
	String = Shape{kind: shapeString}
	Bool   = Shape{kind: shapeBool}
	Int    = Shape{kind: shapeInt}
)

// ListOf accepts a list whose every element matches elem.
func ListOf(elem Shape) Shape {
	return Shape{kind: shapeList, elem: &elem}
}

// Union accepts a value matching any of options.
func Union(options ...Shape) Shape {
	return Shape{kind: shapeUnion, options: options}
}

// Check reports whether v, as decoded from TOML, matches the shape.
func (s Shape) Check(v any) bool {
	switch s.kind {
	case shapeString:
		_, ok := v.(string)
		return ok
	case shapeBool:
		_, ok := v.(bool)
		return ok
	case shapeInt:
		switch v.(type) {
		case int, int64:
			return true
		}
		return false
	case shapeList:
		switch list := v.(type) {
		case []any:
			for _, item := range list {
				if !s.elem.Check(item) {
					return false
				}
			}
			return true
		case []string:
			return s.elem.kind == shapeString
		}
		return false
	case shapeUnion:
		for _, opt := range s.options {
			if opt.Check(v) {
				return true
			}
		}
		return false
	}
	return false
}

// String renders the shape as it appears in error messages,
// e.g. "str | list[str]".
func (s Shape) String() string {
	switch s.kind {
	case shapeString:
		return "str"
	case shapeBool:
		return "bool"
	case shapeInt:
		return "int"
	case shapeList:
		return "list[" + s.elem.String() + "]"
	case shapeUnion:
		names := make([]string, len(s.options))
		for i, opt := range s.options {
			names[i] = opt.String()
		}
		return strings.Join(names, " | ")
	}
	return "unknown"
}
