package projectconfig

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeError reports a configuration value that does not match its field's
// shape. Key is the hyphenated field name.
type TypeError struct {
	Key      string
	Value    any
	Expected string
	Detail   string
}

func (e *TypeError) Error() string {
	msg := fmt.Sprintf("invalid config %s = %s, expected value of type '%s'", e.Key, formatValue(e.Value), e.Expected)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// formatValue renders TOML values the way they would be written in the
// manifest.
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case []string:
		parts := make([]string, len(val))
		for i, s := range val {
			parts[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		return "{...}"
	default:
		return fmt.Sprintf("%v", val)
	}
}
