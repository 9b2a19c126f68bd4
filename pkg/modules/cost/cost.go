// Package cost provides the "cost" module: the session's running cost as
// reported by the host.
package cost

import (
	"context"
	"errors"
	"fmt"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/session"
)

// ID is the module id used in configuration.
const ID = "cost"

// ErrNoCost is returned when the host sent no cost block.
var ErrNoCost = errors.New("cost not reported by host")

// Module renders "$1.23", optionally followed by line counts.
//
// Options:
//
//	precision  decimal places (default 2)
//	lines      append "+added/-removed" (default false)
type Module struct {
	cost *session.Cost
}

// New returns the cost module.
func New(env modules.Env) *Module {
	return &Module{cost: env.Session.Cost}
}

func (m *Module) Descriptor() modules.Descriptor {
	return modules.Descriptor{
		ID:            ID,
		Label:         "Cost",
		Icon:          "💰",
		Capability:    modules.CapFast,
		OmitOnFailure: true,
	}
}

func (m *Module) Evaluate(_ context.Context, opts modules.Options) (string, error) {
	if m.cost == nil {
		return "", ErrNoCost
	}
	prec := opts.Int("precision", 2)
	if prec < 0 || prec > 6 {
		prec = 2
	}
	text := fmt.Sprintf("$%.*f", prec, m.cost.TotalCostUSD)
	if opts.Bool("lines", false) {
		text += fmt.Sprintf(" +%d/-%d", m.cost.TotalLinesAdded, m.cost.TotalLinesRemoved)
	}
	return text, nil
}
