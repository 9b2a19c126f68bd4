// Package config holds the cc-statusline Configuration snapshot, its TOML
// loader, and the hot-reload machinery around it. A Config is never mutated
// after Normalize returns it; reloads swap in a whole new snapshot.
package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MinRefreshInterval is the smallest accepted tick interval.
	MinRefreshInterval = 100 * time.Millisecond

	// DefaultRefreshInterval is used when no interval is configured.
	DefaultRefreshInterval = time.Second

	// DefaultTickTimeout bounds a single tick's module evaluation.
	DefaultTickTimeout = 2 * time.Second

	// minTickTimeout keeps a misconfigured timeout from failing every module.
	minTickTimeout = 50 * time.Millisecond
)

// DefaultModules is the module line used when the config names none.
var DefaultModules = []string{"model", "cwd", "git_branch", "session_time", "cost"}

// Config is the resolved configuration snapshot consumed by the engine.
type Config struct {
	// Theme is the id of the theme used to render the line.
	Theme string `toml:"theme" yaml:"theme"`

	// RefreshInterval is the tick interval for watch mode.
	RefreshInterval Duration `toml:"refresh_interval" yaml:"refresh_interval"`

	// TickTimeout bounds concurrent module evaluation within one tick.
	TickTimeout Duration `toml:"tick_timeout" yaml:"tick_timeout"`

	// Modules lists enabled module ids in display order.
	Modules []string `toml:"modules" yaml:"modules"`

	// ModuleOptions holds per-module option tables, keyed by module id.
	ModuleOptions map[string]map[string]any `toml:"module" yaml:"module,omitempty"`

	// ThemeDir is an optional directory of *.toml theme files.
	ThemeDir string `toml:"theme_dir" yaml:"theme_dir,omitempty"`

	// Color selects the color profile: auto, always, never, 256, truecolor.
	Color string `toml:"color" yaml:"color,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level,omitempty"`

	// LogFile, when set, receives a copy of every log line.
	LogFile string `toml:"log_file" yaml:"log_file,omitempty"`

	unknownKeys []string
}

// Issue records a configuration value that was clamped or replaced during
// normalization. Issues are never fatal.
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string {
	return i.Field + ": " + i.Message
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Theme:           "default",
		RefreshInterval: Duration{DefaultRefreshInterval},
		TickTimeout:     Duration{DefaultTickTimeout},
		Modules:         append([]string(nil), DefaultModules...),
		ModuleOptions:   map[string]map[string]any{},
		Color:           "auto",
		LogLevel:        "warn",
	}
}

// Interval returns the tick interval.
func (c *Config) Interval() time.Duration {
	return c.RefreshInterval.Duration
}

// Timeout returns the per-tick evaluation timeout.
func (c *Config) Timeout() time.Duration {
	return c.TickTimeout.Duration
}

// OptionsFor returns a copy of the option table for module id, or nil.
func (c *Config) OptionsFor(id string) map[string]any {
	src := c.ModuleOptions[id]
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy suitable for building a modified snapshot.
func (c *Config) Clone() *Config {
	out := *c
	out.Modules = append([]string(nil), c.Modules...)
	out.ModuleOptions = make(map[string]map[string]any, len(c.ModuleOptions))
	for id := range c.ModuleOptions {
		out.ModuleOptions[id] = c.OptionsFor(id)
	}
	return &out
}

// Normalize returns a validated copy of c with out-of-range values clamped
// and blanks filled from Default. The receiver is left untouched.
func (c *Config) Normalize() (*Config, []Issue) {
	out := c.Clone()
	def := Default()
	var issues []Issue

	for _, k := range c.unknownKeys {
		issues = append(issues, Issue{Field: k, Message: "unknown key ignored"})
	}
	out.unknownKeys = nil

	if strings.TrimSpace(out.Theme) == "" {
		out.Theme = def.Theme
	}

	switch {
	case out.RefreshInterval.Duration == 0:
		out.RefreshInterval = def.RefreshInterval
	case out.RefreshInterval.Duration < MinRefreshInterval:
		issues = append(issues, Issue{
			Field:   "refresh_interval",
			Message: fmt.Sprintf("%s is below the %s minimum, clamped", out.RefreshInterval.Duration, MinRefreshInterval),
		})
		out.RefreshInterval = Duration{MinRefreshInterval}
	}

	switch {
	case out.TickTimeout.Duration == 0:
		out.TickTimeout = def.TickTimeout
	case out.TickTimeout.Duration < minTickTimeout:
		issues = append(issues, Issue{
			Field:   "tick_timeout",
			Message: fmt.Sprintf("%s is below the %s minimum, clamped", out.TickTimeout.Duration, minTickTimeout),
		})
		out.TickTimeout = Duration{minTickTimeout}
	}

	ids := out.Modules[:0]
	for _, id := range out.Modules {
		id = strings.TrimSpace(id)
		if id == "" {
			issues = append(issues, Issue{Field: "modules", Message: "empty module id dropped"})
			continue
		}
		ids = append(ids, id)
	}
	out.Modules = ids

	switch strings.ToLower(out.Color) {
	case "":
		out.Color = def.Color
	case "auto", "always", "never", "256", "truecolor":
		out.Color = strings.ToLower(out.Color)
	default:
		issues = append(issues, Issue{Field: "color", Message: fmt.Sprintf("unknown value %q, using auto", out.Color)})
		out.Color = def.Color
	}

	switch strings.ToLower(out.LogLevel) {
	case "":
		out.LogLevel = def.LogLevel
	case "debug", "info", "warn", "error":
		out.LogLevel = strings.ToLower(out.LogLevel)
	default:
		issues = append(issues, Issue{Field: "log_level", Message: fmt.Sprintf("unknown level %q, using %s", out.LogLevel, def.LogLevel)})
		out.LogLevel = def.LogLevel
	}

	return out, issues
}
