package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/config"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/render"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/theme"
)

// fakeClock advances by the requested duration whenever After is called,
// so Run never waits on real time between ticks.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.waits = append(c.waits, d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

type staticThemes map[string]theme.Theme

func (s staticThemes) Theme(name string) (theme.Theme, bool) {
	th, ok := s[name]
	return th, ok
}

func plainFormatter() *render.Formatter {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return render.New(r)
}

func testConfig(ids ...string) *config.Config {
	cfg := config.Default()
	cfg.Theme = "plain"
	cfg.Modules = ids
	cfg.TickTimeout = config.Millis(100)
	return cfg
}

func newTestScheduler(clock Clock, ms ...modules.Module) *Scheduler {
	reg := modules.NewRegistry().MustRegister(ms...)
	return New(reg, WithClock(clock), WithFormatter(plainFormatter()))
}

// --- RunOnce ---

func TestRunOnceEmptyModuleList(t *testing.T) {
	s := newTestScheduler(newFakeClock(), modules.NewMockModule("time", modules.WithText("12:00")))
	rec, warns := s.RunOnce(context.Background(), testConfig())
	if len(rec) != 0 || len(warns) != 0 {
		t.Errorf("RunOnce = %v, %v; want empty record", rec, warns)
	}

	tick, err := s.Tick(context.Background(), testConfig())
	if err != nil || tick.Line != "" {
		t.Errorf("Tick = %q, %v; want empty line", tick.Line, err)
	}
}

func TestRunOnceOrderAndUnknown(t *testing.T) {
	s := newTestScheduler(newFakeClock(),
		modules.NewMockModule("time", modules.WithText("12:00")),
		modules.NewMockModule("model", modules.WithText("gpt")),
	)
	rec, warns := s.RunOnce(context.Background(), testConfig("model", "bogus", "time"))
	if len(rec) != 2 || rec[0].Descriptor.ID != "model" || rec[1].Descriptor.ID != "time" {
		t.Fatalf("record = %+v", rec)
	}
	if len(warns) != 1 || warns[0].ModuleID != "bogus" {
		t.Errorf("warnings = %v", warns)
	}
}

func TestTickRendersScenarioLine(t *testing.T) {
	s := newTestScheduler(newFakeClock(),
		modules.NewMockModule("time", modules.WithText("12:00")),
		modules.NewMockModule("model", modules.WithText("gpt")),
	)
	tick, err := s.Tick(context.Background(), testConfig("time", "model"))
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if tick.Line != "12:00 | gpt" {
		t.Errorf("Line = %q, want %q", tick.Line, "12:00 | gpt")
	}
}

func TestFailingModuleDoesNotAffectSiblings(t *testing.T) {
	panicky := modules.NewMockModule("panicky", modules.WithEvaluateFunc(func(context.Context, modules.Options) (string, error) {
		panic("nope")
	}))
	s := newTestScheduler(newFakeClock(),
		modules.NewMockModule("a", modules.WithText("A")),
		modules.NewMockModule("bad", modules.WithError(errors.New("broken"))),
		panicky,
		modules.NewMockModule("z", modules.WithText("Z")),
	)
	tick, err := s.Tick(context.Background(), testConfig("a", "bad", "panicky", "z"))
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	want := "A | ✗ | ✗ | Z"
	if tick.Line != want {
		t.Errorf("Line = %q, want %q", tick.Line, want)
	}
	if len(tick.Record.Failed()) != 2 {
		t.Errorf("failed items = %d, want 2", len(tick.Record.Failed()))
	}
}

func TestSlowModuleTimesOutWithoutBlockingSiblings(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := modules.NewMockModule("slow", modules.WithEvaluateFunc(func(context.Context, modules.Options) (string, error) {
		<-release
		return "late", nil
	}))
	s := newTestScheduler(newFakeClock(), slow, modules.NewMockModule("fast", modules.WithText("F")))

	cfg := testConfig("slow", "fast")
	cfg.TickTimeout = config.Millis(50)

	start := time.Now()
	rec, _ := s.RunOnce(context.Background(), cfg)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("RunOnce took %v, want about the tick timeout", elapsed)
	}
	if !rec[0].Result.TimedOut {
		t.Errorf("slow result = %+v, want timed out", rec[0].Result)
	}
	if !rec[1].Result.OK || rec[1].Result.Text != "F" {
		t.Errorf("fast result = %+v", rec[1].Result)
	}
	if _, ok := s.Cache().Peek("slow"); ok {
		t.Error("timed-out module must not be cached")
	}
}

func TestCancelledContextStillCompletesTick(t *testing.T) {
	started := make(chan struct{})
	proceed := make(chan struct{})
	m := modules.NewMockModule("git_branch", modules.WithEvaluateFunc(func(ctx context.Context, _ modules.Options) (string, error) {
		close(started)
		<-proceed
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "main", nil
	}))
	s := newTestScheduler(newFakeClock(), m)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
		close(proceed)
	}()

	rec, _ := s.RunOnce(ctx, testConfig("git_branch"))
	if !rec[0].Result.OK || rec[0].Result.Text != "main" {
		t.Errorf("result = %+v, want completed evaluation", rec[0].Result)
	}
}

// --- Theme fallback ---

func TestBrokenThemeFallsBackToPlain(t *testing.T) {
	broken := theme.Get("default")
	broken.Name = "broken"
	broken.Styles["time"] = "fg:undefined"

	reg := modules.NewRegistry().MustRegister(
		modules.NewMockModule("time", modules.WithText("12:00")),
		modules.NewMockModule("model", modules.WithText("gpt")),
	)
	s := New(reg,
		WithClock(newFakeClock()),
		WithFormatter(plainFormatter()),
		WithThemes(staticThemes{"broken": broken}),
	)

	cfg := testConfig("time", "model")
	cfg.Theme = "broken"
	tick, err := s.Tick(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if tick.Line != "12:00 | gpt" {
		t.Errorf("Line = %q", tick.Line)
	}
	if !errors.Is(tick.ThemeErr, theme.ErrMissingStyle) {
		t.Errorf("ThemeErr = %v, want ErrMissingStyle", tick.ThemeErr)
	}
}

func TestUnknownThemeUsesDefault(t *testing.T) {
	s := newTestScheduler(newFakeClock(), modules.NewMockModule("time", modules.WithText("12:00")))
	cfg := testConfig("time")
	cfg.Theme = "does-not-exist"
	tick, err := s.Tick(context.Background(), cfg)
	if err != nil || tick.Line != "12:00" || tick.ThemeErr != nil {
		t.Errorf("Tick = %+v, %v", tick, err)
	}
}

// --- Run ---

func TestRunStopsAtTickBoundary(t *testing.T) {
	clock := newFakeClock()
	m := modules.NewMockModule("time", modules.WithText("12:00"))
	s := newTestScheduler(clock, m)

	ctx, cancel := context.WithCancel(context.Background())
	var lines []string
	err := s.Run(ctx, StaticConfig{testConfig("time")}, func(line string) {
		lines = append(lines, line)
		if len(lines) == 3 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(lines) != 3 {
		t.Errorf("ticks = %d, want 3", len(lines))
	}
	for _, d := range clock.waits {
		if d != time.Second {
			t.Errorf("wait = %v, want refresh interval", d)
		}
	}
}

func TestRunTicksPassesRecord(t *testing.T) {
	s := newTestScheduler(newFakeClock(),
		modules.NewMockModule("time", modules.WithText("12:00")),
		modules.NewMockModule("model", modules.WithError(errors.New("no model"))),
	)
	ctx, cancel := context.WithCancel(context.Background())
	var got Tick
	err := s.RunTicks(ctx, StaticConfig{testConfig("time", "model")}, func(tick Tick) {
		got = tick
		cancel()
	})
	if err != nil {
		t.Fatalf("RunTicks: %v", err)
	}
	if len(got.Record) != 2 || len(got.Record.Failed()) != 1 || got.Line != "12:00 | ✗" {
		t.Errorf("tick = %+v", got)
	}
}

func TestRunReturnsImmediatelyWhenCancelled(t *testing.T) {
	s := newTestScheduler(newFakeClock())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	if err := s.Run(ctx, StaticConfig{testConfig()}, func(string) { called = true }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if called {
		t.Error("onTick called after cancellation")
	}
}

func TestRunAppliesReloadOnNextTick(t *testing.T) {
	s := newTestScheduler(newFakeClock(),
		modules.NewMockModule("time", modules.WithText("12:00")),
		modules.NewMockModule("model", modules.WithText("gpt")),
	)
	holder := config.NewHolder(testConfig("time"))

	ctx, cancel := context.WithCancel(context.Background())
	var lines []string
	err := s.Run(ctx, holder, func(line string) {
		lines = append(lines, line)
		switch len(lines) {
		case 1:
			holder.Store(testConfig("model", "time"))
		case 2:
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(lines) != 2 || lines[0] != "12:00" || lines[1] != "gpt | 12:00" {
		t.Errorf("lines = %q", lines)
	}
}

func TestCacheReusedAcrossTicks(t *testing.T) {
	m := modules.NewMockModule("git_branch", modules.WithText("main"), modules.WithMinInterval(5*time.Second))
	clock := newFakeClock()
	s := newTestScheduler(clock, m)

	ctx, cancel := context.WithCancel(context.Background())
	ticks := 0
	_ = s.Run(ctx, StaticConfig{testConfig("git_branch")}, func(string) {
		ticks++
		if ticks == 5 {
			cancel()
		}
	})
	// Ticks at 0s..4s fall inside the first 5s interval.
	if m.CallCount() != 1 {
		t.Errorf("CallCount = %d, want 1", m.CallCount())
	}
}
