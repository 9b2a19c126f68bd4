package modules

import (
	"fmt"
	"strconv"
	"time"
)

// Options is a module's option table from configuration. Values arrive as
// decoded TOML/YAML scalars, so the accessors accept the common encodings.
type Options map[string]any

// String returns the option as a string, or def.
func (o Options) String(key, def string) string {
	v, ok := o[key]
	if !ok {
		return def
	}
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Bool returns the option as a bool, or def when absent or unparsable.
func (o Options) Bool(key string, def bool) bool {
	switch val := o[key].(type) {
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return def
		}
		return b
	default:
		return def
	}
}

// Int returns the option as an int, or def.
func (o Options) Int(key string, def int) int {
	switch val := o[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

// Duration returns the option as a duration. Strings use Go duration
// syntax; numbers are milliseconds.
func (o Options) Duration(key string, def time.Duration) time.Duration {
	switch val := o[key].(type) {
	case time.Duration:
		return val
	case int:
		return time.Duration(val) * time.Millisecond
	case int64:
		return time.Duration(val) * time.Millisecond
	case float64:
		return time.Duration(val * float64(time.Millisecond))
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return def
		}
		return d
	default:
		return def
	}
}

// Interval is the refresh interval requested through the "interval" option.
func (o Options) Interval() time.Duration {
	return o.Duration("interval", 0)
}
