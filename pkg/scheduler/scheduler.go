// Package scheduler drives refresh ticks: each tick resolves the configured
// modules, evaluates them concurrently through the cache under a shared
// deadline, and renders the results in configuration order.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/cache"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/config"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/render"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/theme"
)

// fallbackSeparator joins modules when a theme cannot supply one.
const fallbackSeparator = " | "

// ConfigSource supplies the configuration snapshot for each tick.
// *config.Holder implements it.
type ConfigSource interface {
	Current() *config.Config
}

// StaticConfig is a ConfigSource that never changes.
type StaticConfig struct{ Config *config.Config }

func (s StaticConfig) Current() *config.Config { return s.Config }

// ThemeSource resolves a theme name.
type ThemeSource interface {
	Theme(name string) (theme.Theme, bool)
}

// RegisteredThemes resolves names against the theme registry.
type RegisteredThemes struct{}

func (RegisteredThemes) Theme(name string) (theme.Theme, bool) { return theme.Lookup(name) }

// Tick is the outcome of one refresh.
type Tick struct {
	At       time.Time
	Record   render.Record
	Line     string
	Warnings []modules.Warning
	// ThemeErr is set when the theme failed to render and the plain
	// fallback was used.
	ThemeErr error
	Elapsed  time.Duration
}

// Scheduler evaluates modules and renders lines.
type Scheduler struct {
	registry  *modules.Registry
	cache     *cache.Cache
	formatter *render.Formatter
	themes    ThemeSource
	clock     Clock
	logger    *slog.Logger

	mu     sync.Mutex
	warned map[string]bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the real clock.
func WithClock(c Clock) Option { return func(s *Scheduler) { s.clock = c } }

// WithCache shares an existing cache.
func WithCache(c *cache.Cache) Option { return func(s *Scheduler) { s.cache = c } }

// WithFormatter sets the formatter used to render lines.
func WithFormatter(f *render.Formatter) Option { return func(s *Scheduler) { s.formatter = f } }

// WithThemes sets how theme names are resolved.
func WithThemes(t ThemeSource) Option { return func(s *Scheduler) { s.themes = t } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Scheduler) { s.logger = l } }

// New returns a scheduler for the modules in reg.
func New(reg *modules.Registry, opts ...Option) *Scheduler {
	s := &Scheduler{
		registry: reg,
		themes:   RegisteredThemes{},
		clock:    RealClock{},
		logger:   slog.New(slog.DiscardHandler),
		warned:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.New()
	}
	if s.formatter == nil {
		s.formatter = render.New(nil)
	}
	return s
}

// Cache returns the scheduler's cache.
func (s *Scheduler) Cache() *cache.Cache { return s.cache }

// RunOnce evaluates every module resolved from cfg and returns their
// results in configuration order. Modules run concurrently; a module that
// has not returned when cfg's tick timeout passes yields a timed-out
// failure. Cancelling ctx does not interrupt evaluations already started.
func (s *Scheduler) RunOnce(ctx context.Context, cfg *config.Config) (render.Record, []modules.Warning) {
	now := s.clock.Now()
	resolved, warnings := s.registry.Resolve(cfg)
	s.logWarnings(warnings)

	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = config.DefaultTickTimeout
	}
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	rec := make(render.Record, len(resolved))
	var wg sync.WaitGroup
	for i, r := range resolved {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := s.cache.GetOrCompute(tctx, r.Module, r.Options, now)
			if !res.OK {
				s.logger.Debug("module failed", "module", r.Descriptor.ID, "timed_out", res.TimedOut, "error", res.ErrorText())
			}
			rec[i] = render.Item{Descriptor: r.Descriptor, Result: res}
		}()
	}
	wg.Wait()
	return rec, warnings
}

// Tick runs one refresh and renders it. The returned error is non-nil only
// when rendering failed for a reason other than a broken theme.
func (s *Scheduler) Tick(ctx context.Context, cfg *config.Config) (Tick, error) {
	start := s.clock.Now()
	rec, warnings := s.RunOnce(ctx, cfg)

	t := Tick{At: start, Record: rec, Warnings: warnings}
	th := s.theme(cfg.Theme)
	line, err := s.formatter.Render(rec, th)
	if err != nil {
		var te *theme.Error
		if !errors.As(err, &te) {
			return t, err
		}
		s.warnOnce("theme-error:"+th.Name, "theme failed to render, using plain output", "theme", th.Name, "error", err)
		t.ThemeErr = err
		line = render.Plain(rec, plainSeparator(th), max(th.MaxWidth, 0))
	}
	t.Line = line
	t.Elapsed = s.clock.Now().Sub(start)
	return t, nil
}

// Run ticks until ctx is cancelled, calling onTick with each line. The
// configuration is re-read from src at the start of every tick, so a
// reload takes effect on the next tick. Cancellation is observed between
// ticks only. Run returns nil when stopped and an error only when a line
// cannot be rendered at all.
func (s *Scheduler) Run(ctx context.Context, src ConfigSource, onTick func(line string)) error {
	return s.RunTicks(ctx, src, func(t Tick) { onTick(t.Line) })
}

// RunTicks is Run with the whole Tick passed to the callback.
func (s *Scheduler) RunTicks(ctx context.Context, src ConfigSource, onTick func(Tick)) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		cfg := src.Current()
		tick, err := s.Tick(ctx, cfg)
		if err != nil {
			return err
		}
		onTick(tick)

		wait := cfg.Interval() - s.clock.Now().Sub(tick.At)
		if wait <= 0 {
			// Keep ticks sequential but never spin.
			wait = config.MinRefreshInterval
		}
		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(wait):
		}
	}
}

func (s *Scheduler) theme(name string) theme.Theme {
	if th, ok := s.themes.Theme(name); ok {
		return th
	}
	s.warnOnce("theme-missing:"+name, "unknown theme, using default", "theme", name)
	return theme.Get("default")
}

func (s *Scheduler) logWarnings(ws []modules.Warning) {
	for _, w := range ws {
		s.warnOnce("module:"+w.ModuleID+":"+w.Reason, w.String())
	}
}

// warnOnce logs msg at WARN the first time key is seen so a steady
// configuration problem is not repeated every tick.
func (s *Scheduler) warnOnce(key, msg string, args ...any) {
	s.mu.Lock()
	seen := s.warned[key]
	s.warned[key] = true
	s.mu.Unlock()
	if !seen {
		s.logger.Warn(msg, args...)
	}
}

func plainSeparator(th theme.Theme) string {
	if th.Separator != "" {
		return th.Separator
	}
	return fallbackSeparator
}
