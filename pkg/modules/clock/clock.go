// Package clock provides the "time" module: the wall clock.
package clock

import (
	"context"
	"time"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
)

// ID is the module id used in configuration.
const ID = "time"

const (
	layoutMinutes = "15:04"
	layoutSeconds = "15:04:05"
)

// Module renders the current time.
//
// Options:
//
//	format  Go time layout, overrides seconds
//	seconds include seconds (default false)
type Module struct {
	now func() time.Time
}

// New returns the clock module.
func New(env modules.Env) *Module {
	return &Module{now: env.Clock}
}

func (m *Module) Descriptor() modules.Descriptor {
	return modules.Descriptor{
		ID:          ID,
		Label:       "Time",
		Icon:        "🕐",
		MinInterval: time.Second,
		Capability:  modules.CapFast,
	}
}

func (m *Module) Evaluate(_ context.Context, opts modules.Options) (string, error) {
	layout := layoutMinutes
	if opts.Bool("seconds", false) {
		layout = layoutSeconds
	}
	layout = opts.String("format", layout)
	return m.now().Format(layout), nil
}
