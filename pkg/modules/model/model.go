// Package model provides the "model" module: the model driving the session.
package model

import (
	"context"
	"errors"
	"strings"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/session"
)

// ID is the module id used in configuration.
const ID = "model"

// ErrUnknown is returned when the host did not report a model.
var ErrUnknown = errors.New("model not reported by host")

// Module renders the model name from the session input.
//
// Options:
//
//	short  reduce to a family name such as "opus" (default false)
type Module struct {
	model session.Model
}

// New returns the model module.
func New(env modules.Env) *Module {
	return &Module{model: env.Session.Model}
}

func (m *Module) Descriptor() modules.Descriptor {
	return modules.Descriptor{
		ID:         ID,
		Label:      "Model",
		Icon:       "🤖",
		Capability: modules.CapFast,
	}
}

func (m *Module) Evaluate(_ context.Context, opts modules.Options) (string, error) {
	name := m.model.DisplayName
	if name == "" {
		name = m.model.ID
	}
	if name == "" {
		return "", ErrUnknown
	}
	if opts.Bool("short", false) {
		id := m.model.ID
		if id == "" {
			id = name
		}
		return ShortName(id), nil
	}
	return name, nil
}

// ShortName reduces a model id to its family name, e.g.
// "claude-opus-4-20250514" becomes "opus".
func ShortName(model string) string {
	if model == "" {
		return ""
	}

	lower := strings.ToLower(model)
	for _, name := range []string{"opus", "sonnet", "haiku"} {
		if strings.Contains(lower, name) {
			return name
		}
	}

	// Last dash-separated segment that is not a date.
	parts := strings.Split(model, "-")
	for i := len(parts) - 1; i >= 0; i-- {
		if len(parts[i]) < 8 {
			return parts[i]
		}
	}
	return model
}
