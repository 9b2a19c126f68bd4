// Package health runs diagnostics over the configured modules and theme
// without touching the live cache. Failures are reported as items; Check
// itself never fails.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/cache"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/config"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/render"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/theme"
)

// Kind groups report items.
type Kind string

const (
	KindConfig    Kind = "config"
	KindModule    Kind = "module"
	KindProbe     Kind = "probe"
	KindFormatter Kind = "formatter"
	KindCommand   Kind = "command"
)

// DefaultCommandTimeout bounds Options.TestCommand.
const DefaultCommandTimeout = 5 * time.Second

// Item is the outcome of one diagnostic.
type Item struct {
	Name    string        `json:"name"`
	Kind    Kind          `json:"kind"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency_ns"`
	Detail  string        `json:"detail,omitempty"`
}

// Report aggregates every item of a check.
type Report struct {
	OK        bool          `json:"ok"`
	Items     []Item        `json:"items"`
	Total     time.Duration `json:"total_ns"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Failed returns the failing items.
func (r Report) Failed() []Item {
	var out []Item
	for _, it := range r.Items {
		if !it.OK {
			out = append(out, it)
		}
	}
	return out
}

// Options selects optional diagnostics.
type Options struct {
	// Verbose includes passing item details in Text output and logs each
	// item at debug level.
	Verbose bool
	// TestCommand is run through the shell with a sample session on stdin.
	TestCommand    string
	CommandTimeout time.Duration
	// Deep calls Probe on modules that implement modules.Prober.
	Deep bool
}

// Checker runs health checks against a module registry.
type Checker struct {
	Registry *modules.Registry
	// Renderer styles the formatter self-test. Nil uses the lipgloss
	// default renderer.
	Renderer *lipgloss.Renderer
	// Now overrides time.Now for testing.
	Now    func() time.Time
	Logger *slog.Logger
}

func (c *Checker) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Checker) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Check evaluates every module resolved from cfg on a throwaway cache,
// renders a synthetic record with the configured theme, and runs the
// optional diagnostics in opts.
func (c *Checker) Check(ctx context.Context, cfg *config.Config, opts Options) Report {
	start := time.Now()
	report := Report{CheckedAt: c.now()}

	norm, issues := cfg.Normalize()
	resolved, warnings := c.Registry.Resolve(norm)

	report.Items = append(report.Items, configItems(issues, warnings)...)
	report.Items = append(report.Items, c.checkModules(ctx, norm, resolved)...)
	if opts.Deep {
		report.Items = append(report.Items, c.probeModules(ctx, resolved)...)
	}
	report.Items = append(report.Items, c.checkFormatter(norm, resolved))
	if opts.TestCommand != "" {
		report.Items = append(report.Items, runCommand(ctx, opts.TestCommand, opts.CommandTimeout))
	}

	report.OK = true
	for _, it := range report.Items {
		if !it.OK {
			report.OK = false
		}
		if opts.Verbose {
			c.log().Debug("health item", "name", it.Name, "kind", it.Kind, "ok", it.OK, "latency", it.Latency, "detail", it.Detail)
		}
	}
	report.Total = time.Since(start)
	return report
}

func configItems(issues []config.Issue, warnings []modules.Warning) []Item {
	if len(issues) == 0 && len(warnings) == 0 {
		return []Item{{Name: "config", Kind: KindConfig, OK: true, Detail: "valid"}}
	}
	var items []Item
	for _, is := range issues {
		items = append(items, Item{Name: "config " + is.Field, Kind: KindConfig, Detail: is.Message})
	}
	for _, w := range warnings {
		items = append(items, Item{Name: "config module " + w.ModuleID, Kind: KindConfig, Detail: w.String()})
	}
	return items
}

func (c *Checker) checkModules(ctx context.Context, cfg *config.Config, resolved []modules.Resolved) []Item {
	scratch := cache.New()
	tctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	items := make([]Item, len(resolved))
	var wg sync.WaitGroup
	for i, r := range resolved {
		wg.Add(1)
		go func() {
			defer wg.Done()
			began := time.Now()
			res := scratch.GetOrCompute(tctx, r.Module, r.Options, c.now())
			items[i] = Item{
				Name:    "module " + r.Descriptor.ID,
				Kind:    KindModule,
				OK:      res.OK,
				Latency: time.Since(began),
				Detail:  resultDetail(res),
			}
		}()
	}
	wg.Wait()
	return items
}

func resultDetail(res modules.Result) string {
	switch {
	case res.TimedOut:
		return "timed out"
	case !res.OK:
		return res.ErrorText()
	case res.Text == "":
		return "(empty)"
	default:
		return strconv.Quote(res.Text)
	}
}

func (c *Checker) probeModules(ctx context.Context, resolved []modules.Resolved) []Item {
	var items []Item
	for _, r := range resolved {
		p, ok := r.Module.(modules.Prober)
		if !ok {
			continue
		}
		began := time.Now()
		err := p.Probe(ctx)
		it := Item{Name: "probe " + r.Descriptor.ID, Kind: KindProbe, OK: err == nil, Latency: time.Since(began)}
		if err != nil {
			it.Detail = err.Error()
		} else {
			it.Detail = "reachable"
		}
		items = append(items, it)
	}
	return items
}

// checkFormatter renders a record of sample values, one per resolved module
// plus a failure, so every style the line can use is exercised.
func (c *Checker) checkFormatter(cfg *config.Config, resolved []modules.Resolved) Item {
	began := time.Now()
	it := Item{Name: "formatter " + cfg.Theme, Kind: KindFormatter}

	th, ok := theme.Lookup(cfg.Theme)
	if !ok {
		it.Detail = fmt.Sprintf("unknown theme %q", cfg.Theme)
		it.Latency = time.Since(began)
		return it
	}

	at := c.now()
	rec := make(render.Record, 0, len(resolved)+1)
	for _, r := range resolved {
		rec = append(rec, render.Item{Descriptor: r.Descriptor, Result: modules.Success(r.Descriptor.ID, "sample", at)})
	}
	probe := modules.Descriptor{ID: "health", Label: "Health"}
	rec = append(rec, render.Item{Descriptor: probe, Result: modules.Failure(probe.ID, errors.New("synthetic failure"), at)})

	line, err := render.New(c.Renderer).Render(rec, th)
	it.Latency = time.Since(began)
	if err != nil {
		it.Detail = err.Error()
		return it
	}
	it.OK = true
	it.Detail = fmt.Sprintf("%d columns", render.Width(line))
	return it
}

// Text renders the report for a terminal. Details of passing items are
// shown only when verbose.
func (r Report) Text(verbose bool) string {
	var b strings.Builder

	status := "OK"
	if !r.OK {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "cc-statusline health: %s (%d checks, %d failed, %s)\n",
		status, len(r.Items), len(r.Failed()), r.Total.Round(time.Millisecond))

	for _, it := range r.Items {
		mark := "+"
		if !it.OK {
			mark = "-"
		}
		fmt.Fprintf(&b, "  [%s] %s", mark, it.Name)
		if it.Detail != "" && (verbose || !it.OK) {
			fmt.Fprintf(&b, ": %s", it.Detail)
		}
		if verbose && it.Latency > 0 {
			fmt.Fprintf(&b, " (%s)", it.Latency.Round(time.Microsecond))
		}
		b.WriteString("\n")
	}
	return b.String()
}
