package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for TOML. It accepts Go duration strings
// ("500ms", "2s") and bare integers, which are read as milliseconds.
type Duration struct {
	time.Duration
}

// Millis builds a Duration from a millisecond count.
func Millis(ms int64) Duration {
	return Duration{time.Duration(ms) * time.Millisecond}
}

// UnmarshalText implements encoding.TextUnmarshaler for string values.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %q not allowed", s)
	}
	d.Duration = parsed
	return nil
}

// UnmarshalTOML handles integer millisecond values; strings are delegated
// to UnmarshalText.
func (d *Duration) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case int64:
		if val < 0 {
			return fmt.Errorf("negative duration %dms not allowed", val)
		}
		d.Duration = time.Duration(val) * time.Millisecond
		return nil
	case string:
		return d.UnmarshalText([]byte(val))
	default:
		return fmt.Errorf("invalid duration value %v (%T)", v, v)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML mirrors UnmarshalTOML for exported YAML snapshots.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid duration node at line %d", node.Line)
	}
	if node.ShortTag() == "!!int" {
		ms, err := strconv.ParseInt(node.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", node.Value, err)
		}
		return d.UnmarshalTOML(ms)
	}
	return d.UnmarshalText([]byte(node.Value))
}

// MarshalYAML writes the duration as a Go duration string.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}
