package health

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/config"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type probed struct {
	*modules.MockModule
	err   error
	calls atomic.Int32
}

func (p *probed) Probe(context.Context) error {
	p.calls.Add(1)
	return p.err
}

func newChecker(ms ...modules.Module) *Checker {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return &Checker{
		Registry: modules.NewRegistry().MustRegister(ms...),
		Renderer: r,
		Now:      func() time.Time { return fixedNow },
	}
}

func checkConfig(ids ...string) *config.Config {
	cfg := config.Default()
	cfg.Theme = "plain"
	cfg.Modules = ids
	cfg.TickTimeout = config.Millis(200)
	return cfg
}

func findItem(t *testing.T, r Report, name string) Item {
	t.Helper()
	for _, it := range r.Items {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("item %q not in report: %+v", name, r.Items)
	return Item{}
}

// --- Check ---

func TestCheckAllHealthy(t *testing.T) {
	c := newChecker(
		modules.NewMockModule("time", modules.WithText("12:00")),
		modules.NewMockModule("model", modules.WithText("gpt")),
	)
	r := c.Check(context.Background(), checkConfig("time", "model"), Options{})

	if !r.OK {
		t.Fatalf("report not OK: %s", r.Text(true))
	}
	if !r.CheckedAt.Equal(fixedNow) {
		t.Errorf("CheckedAt = %v", r.CheckedAt)
	}
	if it := findItem(t, r, "module time"); it.Detail != `"12:00"` || it.Kind != KindModule {
		t.Errorf("time item = %+v", it)
	}
	if it := findItem(t, r, "config"); !it.OK {
		t.Errorf("config item = %+v", it)
	}
	if it := findItem(t, r, "formatter plain"); !it.OK || it.Detail == "" {
		t.Errorf("formatter item = %+v", it)
	}
}

func TestCheckReportsFailingModule(t *testing.T) {
	c := newChecker(
		modules.NewMockModule("time", modules.WithText("12:00")),
		modules.NewMockModule("git_branch", modules.WithError(errors.New("not a git repository"))),
	)
	r := c.Check(context.Background(), checkConfig("time", "git_branch"), Options{})

	if r.OK {
		t.Fatal("report OK with a failing module")
	}
	it := findItem(t, r, "module git_branch")
	if it.OK || it.Detail != "not a git repository" {
		t.Errorf("git_branch item = %+v", it)
	}
	if len(r.Failed()) != 1 {
		t.Errorf("Failed() = %+v", r.Failed())
	}
}

func TestCheckTimesOutSlowModule(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := modules.NewMockModule("slow", modules.WithEvaluateFunc(func(context.Context, modules.Options) (string, error) {
		<-release
		return "late", nil
	}))
	c := newChecker(slow)

	cfg := checkConfig("slow")
	cfg.TickTimeout = config.Millis(60)
	r := c.Check(context.Background(), cfg, Options{})

	it := findItem(t, r, "module slow")
	if it.OK || it.Detail != "timed out" {
		t.Errorf("slow item = %+v", it)
	}
}

func TestCheckForcesEvaluationEachTime(t *testing.T) {
	m := modules.NewMockModule("git_branch", modules.WithText("main"), modules.WithMinInterval(time.Hour))
	c := newChecker(m)
	cfg := checkConfig("git_branch")

	c.Check(context.Background(), cfg, Options{})
	c.Check(context.Background(), cfg, Options{})
	if m.CallCount() != 2 {
		t.Errorf("CallCount = %d, want 2", m.CallCount())
	}
}

func TestCheckResolutionWarningsFail(t *testing.T) {
	c := newChecker(modules.NewMockModule("time", modules.WithText("12:00")))
	r := c.Check(context.Background(), checkConfig("time", "tiem"), Options{})

	if r.OK {
		t.Fatal("report OK with an unknown module")
	}
	it := findItem(t, r, "config module tiem")
	if it.Kind != KindConfig || !strings.Contains(it.Detail, `did you mean "time"`) {
		t.Errorf("warning item = %+v", it)
	}
}

func TestCheckUnknownTheme(t *testing.T) {
	c := newChecker(modules.NewMockModule("time", modules.WithText("12:00")))
	cfg := checkConfig("time")
	cfg.Theme = "no-such-theme"
	r := c.Check(context.Background(), cfg, Options{})

	it := findItem(t, r, "formatter no-such-theme")
	if it.OK || !strings.Contains(it.Detail, "unknown theme") {
		t.Errorf("formatter item = %+v", it)
	}
}

func TestCheckDeepProbes(t *testing.T) {
	good := &probed{MockModule: modules.NewMockModule("mcp_status", modules.WithText("2/2"))}
	bad := &probed{MockModule: modules.NewMockModule("kube", modules.WithText("ctx")), err: errors.New("no kubeconfig")}
	c := newChecker(good, bad, modules.NewMockModule("time", modules.WithText("12:00")))
	cfg := checkConfig("mcp_status", "kube", "time")

	r := c.Check(context.Background(), cfg, Options{})
	if good.calls.Load() != 0 {
		t.Error("Probe called without Deep")
	}

	r = c.Check(context.Background(), cfg, Options{Deep: true})
	if it := findItem(t, r, "probe mcp_status"); !it.OK {
		t.Errorf("good probe = %+v", it)
	}
	if it := findItem(t, r, "probe kube"); it.OK || it.Detail != "no kubeconfig" {
		t.Errorf("bad probe = %+v", it)
	}
	for _, it := range r.Items {
		if it.Name == "probe time" {
			t.Error("module without Probe was probed")
		}
	}
}

func TestCheckTestCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	c := newChecker()

	tests := []struct {
		name    string
		command string
		wantOK  bool
		detail  string
	}{
		{"success reads stdin", `grep -q health-check && echo line`, true, "exit status 0: line"},
		{"non-zero exit", `echo boom; exit 3`, false, "exit status 3: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.Check(context.Background(), checkConfig(), Options{TestCommand: tt.command})
			it := findItem(t, r, "command")
			if it.OK != tt.wantOK || it.Detail != tt.detail {
				t.Errorf("command item = %+v", it)
			}
		})
	}
}

func TestCheckTestCommandTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	c := newChecker()
	r := c.Check(context.Background(), checkConfig(), Options{TestCommand: "sleep 5", CommandTimeout: 50 * time.Millisecond})
	it := findItem(t, r, "command")
	if it.OK || !strings.HasPrefix(it.Detail, "timed out") {
		t.Errorf("command item = %+v", it)
	}
}

// --- Text ---

func TestReportText(t *testing.T) {
	r := Report{
		OK: false,
		Items: []Item{
			{Name: "config", Kind: KindConfig, OK: true, Detail: "valid"},
			{Name: "module git_branch", Kind: KindModule, Detail: "exit status 128", Latency: 3 * time.Millisecond},
		},
		Total: 5 * time.Millisecond,
	}

	quiet := r.Text(false)
	for _, want := range []string{"health: FAIL (2 checks, 1 failed, 5ms)", "  [+] config\n", "  [-] module git_branch: exit status 128\n"} {
		if !strings.Contains(quiet, want) {
			t.Errorf("Text(false) missing %q:\n%s", want, quiet)
		}
	}

	verbose := r.Text(true)
	for _, want := range []string{"  [+] config: valid\n", "exit status 128 (3ms)"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Text(true) missing %q:\n%s", want, verbose)
		}
	}
}

// --- File ---

func TestWriteAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "health.json")
	want := Report{
		OK:        true,
		Items:     []Item{{Name: "config", Kind: KindConfig, OK: true, Latency: time.Millisecond}},
		Total:     2 * time.Millisecond,
		CheckedAt: fixedNow,
	}
	if err := WriteFile(path, want); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !got.OK || len(got.Items) != 1 || got.Items[0].Latency != time.Millisecond || !got.CheckedAt.Equal(fixedNow) {
		t.Errorf("ReadFile = %+v", got)
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file: expected error")
	}
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{"), 0o644)
	if _, err := ReadFile(bad); err == nil {
		t.Error("malformed file: expected error")
	}
}
