// Package sysload provides the "sysload" module: host CPU and memory use,
// gathered with gopsutil so it works on Darwin and Linux alike.
package sysload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
)

// ID is the module id used in configuration.
const ID = "sysload"

// Stats is one sample of host load. Fields whose sub-collector failed are
// left zero and flagged in Missing.
type Stats struct {
	CPUPercent float64
	MemUsed    uint64
	MemPercent float64
	Load1      float64
	Missing    []string
}

// Module renders e.g. "CPU 12% 3.2 GB".
//
// Options:
//
//	show  comma-separated fields among cpu, mem, load (default "cpu,mem")
type Module struct {
	sample func(ctx context.Context) (Stats, error)
}

// New returns the system load module.
func New(_ modules.Env) *Module {
	return &Module{sample: Sample}
}

func (m *Module) Descriptor() modules.Descriptor {
	return modules.Descriptor{
		ID:          ID,
		Label:       "Load",
		Icon:        "📊",
		MinInterval: 2 * time.Second,
		Capability:  modules.CapMayBlock,
	}
}

func (m *Module) Evaluate(ctx context.Context, opts modules.Options) (string, error) {
	st, err := m.sample(ctx)
	if err != nil {
		return "", err
	}
	return Format(st, opts.String("show", "cpu,mem"))
}

// Format renders the fields named in show, skipping any that were not
// sampled.
func Format(st Stats, show string) (string, error) {
	missing := make(map[string]bool, len(st.Missing))
	for _, f := range st.Missing {
		missing[f] = true
	}

	var parts []string
	for _, field := range strings.Split(show, ",") {
		field = strings.TrimSpace(field)
		if missing[field] {
			continue
		}
		switch field {
		case "cpu":
			parts = append(parts, fmt.Sprintf("CPU %.0f%%", st.CPUPercent))
		case "mem":
			parts = append(parts, humanize.Bytes(st.MemUsed))
		case "load":
			parts = append(parts, fmt.Sprintf("%.2f", st.Load1))
		case "":
		default:
			return "", fmt.Errorf("unknown field %q", field)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no load data")
	}
	return strings.Join(parts, " "), nil
}

// Sample gathers CPU, memory and load average. It fails only when every
// sub-collector fails.
func Sample(ctx context.Context) (Stats, error) {
	var st Stats
	var errs []error

	// Interval 0 compares against the previous call.
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err != nil || len(pct) == 0 {
		st.Missing = append(st.Missing, "cpu")
		errs = append(errs, fmt.Errorf("cpu: %v", err))
	} else {
		st.CPUPercent = pct[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		st.Missing = append(st.Missing, "mem")
		errs = append(errs, fmt.Errorf("memory: %w", err))
	} else {
		st.MemUsed = vm.Used
		st.MemPercent = vm.UsedPercent
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		st.Missing = append(st.Missing, "load")
		errs = append(errs, fmt.Errorf("load: %w", err))
	} else {
		st.Load1 = avg.Load1
	}

	if len(errs) == 3 {
		return Stats{}, fmt.Errorf("sysload: all sub-collectors failed: %w", errors.Join(errs...))
	}
	return st, nil
}
