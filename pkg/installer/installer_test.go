package installer

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/config"
)

const binary = "/usr/local/bin/cc-statusline"

func newTestInstaller(t *testing.T) *Installer {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, binary, []byte("#!"), 0o755); err != nil {
		t.Fatal(err)
	}
	return &Installer{
		FS:         fs,
		HostDir:    "/home/dev/.claude",
		ConfigPath: "/home/dev/.claude/cc-statusline/config.toml",
	}
}

func readSettings(t *testing.T, in *Installer) map[string]any {
	t.Helper()
	settings, exists, err := in.readSettings()
	if err != nil || !exists {
		t.Fatalf("readSettings: exists=%v err=%v", exists, err)
	}
	return settings
}

// --- Install ---

func TestInstallFresh(t *testing.T) {
	in := newTestInstaller(t)
	cfg := config.Default()
	cfg.Theme = "nord"

	report, err := in.Install(cfg, binary)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !report.OK() || len(report.Actions) != 2 {
		t.Errorf("report = %+v", report)
	}

	line, ok := readSettings(t, in)["statusLine"].(map[string]any)
	if !ok {
		t.Fatal("statusLine not written")
	}
	if line["type"] != "command" || line["command"] != binary+" render" || line["padding"] != float64(0) {
		t.Errorf("statusLine = %v", line)
	}

	raw, err := afero.ReadFile(in.FS, in.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := config.LoadFromReader(strings.NewReader(string(raw)))
	if err != nil || loaded.Theme != "nord" {
		t.Errorf("config.toml = %q, %v", raw, err)
	}
}

func TestInstallPreservesSettingsAndBacksUp(t *testing.T) {
	in := newTestInstaller(t)
	original := `{"model": "opus", "statusLine": {"type": "command", "command": "old"}}`
	afero.WriteFile(in.FS, in.SettingsPath(), []byte(original), 0o644)

	if _, err := in.Install(config.Default(), binary); err != nil {
		t.Fatalf("Install: %v", err)
	}

	settings := readSettings(t, in)
	if settings["model"] != "opus" {
		t.Errorf("other keys lost: %v", settings)
	}
	backup, err := afero.ReadFile(in.FS, in.SettingsPath()+BackupSuffix)
	if err != nil || string(backup) != original {
		t.Errorf("backup = %q, %v", backup, err)
	}
}

func TestInstallQuotesPathWithSpaces(t *testing.T) {
	if got := CommandFor("/Applications/My Tools/cc-statusline").Command; got != "'/Applications/My Tools/cc-statusline' render" {
		t.Errorf("Command = %q", got)
	}
}

func TestInstallErrors(t *testing.T) {
	in := newTestInstaller(t)
	if _, err := in.Install(config.Default(), ""); err == nil {
		t.Error("empty binary: expected error")
	}

	afero.WriteFile(in.FS, in.SettingsPath(), []byte("{not json"), 0o644)
	if _, err := in.Install(config.Default(), binary); err == nil {
		t.Error("malformed settings: expected error")
	}
	raw, _ := afero.ReadFile(in.FS, in.SettingsPath())
	if string(raw) != "{not json" {
		t.Error("malformed settings were overwritten")
	}
}

// --- Uninstall ---

func TestUninstall(t *testing.T) {
	in := newTestInstaller(t)
	afero.WriteFile(in.FS, in.SettingsPath(), []byte(`{"theme": "dark"}`), 0o644)
	if _, err := in.Install(config.Default(), binary); err != nil {
		t.Fatal(err)
	}

	report, err := in.Uninstall()
	if err != nil || !report.OK() {
		t.Fatalf("Uninstall = %+v, %v", report, err)
	}
	settings := readSettings(t, in)
	if _, ok := settings["statusLine"]; ok {
		t.Error("statusLine still present")
	}
	if settings["theme"] != "dark" {
		t.Errorf("other keys lost: %v", settings)
	}
	if ok, _ := afero.Exists(in.FS, in.ConfigPath); !ok {
		t.Error("config file removed by uninstall")
	}

	report, err = in.Uninstall()
	if err != nil || report.Actions[0].Detail != "not installed" {
		t.Errorf("second Uninstall = %+v, %v", report, err)
	}
}

// --- Export / Import ---

func TestExportImport(t *testing.T) {
	cfg := config.Default()
	cfg.Theme = "dracula"
	cfg.RefreshInterval = config.Millis(500)
	cfg.Modules = []string{"time", "kube"}
	cfg.ModuleOptions = map[string]map[string]any{"time": {"seconds": true}}

	data, err := Export(cfg)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(string(data), "theme: dracula") {
		t.Errorf("export = %s", data)
	}

	got, err := Import(data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got.Theme != "dracula" || got.Interval() != 500*time.Millisecond || len(got.Modules) != 2 {
		t.Errorf("Import = %+v", got)
	}
	if got.ModuleOptions["time"]["seconds"] != true {
		t.Errorf("module options = %v", got.ModuleOptions)
	}
}

func TestImportRejectsUnknownKeys(t *testing.T) {
	if _, err := Import([]byte("theme: nord\nbogus: 1\n")); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestImportFile(t *testing.T) {
	in := newTestInstaller(t)
	afero.WriteFile(in.FS, "/tmp/shared.yaml", []byte("theme: gruvbox\nrefresh_interval: 10ms\n"), 0o644)

	cfg, issues, err := in.ImportFile("/tmp/shared.yaml")
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if cfg.Theme != "gruvbox" || cfg.Interval() != config.MinRefreshInterval {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(issues) != 1 || issues[0].Field != "refresh_interval" {
		t.Errorf("issues = %v", issues)
	}
	raw, _ := afero.ReadFile(in.FS, in.ConfigPath)
	if !strings.Contains(string(raw), `theme = "gruvbox"`) {
		t.Errorf("config.toml = %s", raw)
	}
}

// --- Verify ---

func TestVerify(t *testing.T) {
	in := newTestInstaller(t)
	if r := in.Verify(binary); r.OK() {
		t.Errorf("Verify before install passed:\n%s", r.RenderText())
	}

	if _, err := in.Install(config.Default(), binary); err != nil {
		t.Fatal(err)
	}
	r := in.Verify(binary)
	if !r.OK() {
		t.Errorf("Verify after install failed:\n%s", r.RenderText())
	}
	text := r.RenderText()
	if !strings.Contains(text, "[+] statusLine set") || !strings.Contains(text, "3/3 ok") {
		t.Errorf("RenderText =\n%s", text)
	}

	if r := in.Verify("/elsewhere/cc-statusline"); r.OK() {
		t.Error("Verify with another binary passed")
	}
}
