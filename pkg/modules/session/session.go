// Package session provides the "session_time" module: how long the current
// host session has been running.
package session

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
)

// ID is the module id used in configuration.
const ID = "session_time"

// Formats accepted by the "format" option.
const (
	FormatShort = "short"
	FormatLong  = "long"
)

// Module renders elapsed session time. The session start is derived from the
// duration the host reported on stdin when present, otherwise from process
// start, so the value keeps advancing in watch mode.
type Module struct {
	start time.Time
	now   func() time.Time
}

// New returns the session time module.
func New(env modules.Env) *Module {
	started := env.Started
	if started.IsZero() {
		started = env.Clock()
	}
	if elapsed, ok := env.Session.Elapsed(); ok {
		started = started.Add(-elapsed)
	}
	return &Module{start: started, now: env.Clock}
}

func (m *Module) Descriptor() modules.Descriptor {
	return modules.Descriptor{
		ID:          ID,
		Label:       "Session",
		Icon:        "⏱",
		MinInterval: time.Second,
		Capability:  modules.CapFast,
	}
}

// Start returns the derived session start.
func (m *Module) Start() time.Time { return m.start }

func (m *Module) Evaluate(ctx context.Context, opts modules.Options) (string, error) {
	text, _, err := m.EvaluateLevel(ctx, opts)
	return text, err
}

// EvaluateLevel also grades the session length: ok from two hours, warn
// from one, info below.
func (m *Module) EvaluateLevel(_ context.Context, opts modules.Options) (string, modules.Level, error) {
	elapsed := m.now().Sub(m.start)
	if elapsed < 0 {
		elapsed = 0
	}
	level := LevelFor(elapsed)
	switch f := opts.String("format", FormatShort); f {
	case FormatShort:
		return Short(elapsed), level, nil
	case FormatLong:
		return Long(elapsed), level, nil
	default:
		return "", modules.LevelNone, fmt.Errorf("unknown format %q", f)
	}
}

// LevelFor returns the level for a session of length d.
func LevelFor(d time.Duration) modules.Level {
	switch {
	case d >= 2*time.Hour:
		return modules.LevelOK
	case d >= time.Hour:
		return modules.LevelWarn
	default:
		return modules.LevelInfo
	}
}

// Short formats d as "2h 15m", "15m 30s" or "45s".
func Short(d time.Duration) string {
	secs := int64(d / time.Second)
	switch {
	case secs >= 3600:
		return fmt.Sprintf("%dh %dm", secs/3600, secs%3600/60)
	case secs >= 60:
		return fmt.Sprintf("%dm %ds", secs/60, secs%60)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// Long formats d as "02:15:30".
func Long(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}
