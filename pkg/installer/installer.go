// Package installer wires cc-statusline into the host's settings.json and
// manages the config file next to it. All file access goes through an
// afero.Fs so tests run against an in-memory filesystem.
package installer

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// SettingsFile is the host's settings file inside HostDir.
	SettingsFile = "settings.json"
	// BackupSuffix is appended to the settings path for the pre-install copy.
	BackupSuffix = ".bak"

	statusLineKey = "statusLine"
)

// StatusLine is the settings.json entry that makes the host run a command
// for its status line.
type StatusLine struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Padding int    `json:"padding"`
}

// CommandFor returns the status line entry that runs binary.
func CommandFor(binary string) StatusLine {
	return StatusLine{Type: "command", Command: quote(binary) + " render", Padding: 0}
}

// Installer edits the host configuration.
type Installer struct {
	FS afero.Fs
	// HostDir holds settings.json, normally ~/.claude.
	HostDir string
	// ConfigPath is where Install writes config.toml.
	ConfigPath string
	Logger     *slog.Logger
}

// New returns an Installer for the real filesystem and default paths.
func New(logger *slog.Logger) *Installer {
	return &Installer{
		FS:         afero.NewOsFs(),
		HostDir:    config.HostDir(),
		ConfigPath: config.DefaultPath(),
		Logger:     logger,
	}
}

func (in *Installer) log() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// SettingsPath returns the host settings.json path.
func (in *Installer) SettingsPath() string {
	return filepath.Join(in.HostDir, SettingsFile)
}

// Install writes cfg to ConfigPath and points the host's statusLine at
// binary. An existing settings.json is copied to settings.json.bak first;
// every other key in it is preserved.
func (in *Installer) Install(cfg *config.Config, binary string) (*Report, error) {
	report := &Report{Title: "Install"}
	if binary == "" {
		return report, errors.New("installer: binary path is empty")
	}

	data, err := config.Encode(cfg)
	if err != nil {
		return report, err
	}
	if err := in.writeFile(in.ConfigPath, data); err != nil {
		return report, err
	}
	report.add("write config", in.ConfigPath, true, "")

	settings, exists, err := in.readSettings()
	if err != nil {
		return report, err
	}
	if exists {
		backup := in.SettingsPath() + BackupSuffix
		raw, err := afero.ReadFile(in.FS, in.SettingsPath())
		if err != nil {
			return report, fmt.Errorf("installer: read settings: %w", err)
		}
		if err := in.writeFile(backup, raw); err != nil {
			return report, err
		}
		report.add("backup settings", backup, true, "")
	}

	line := CommandFor(binary)
	settings[statusLineKey] = line
	if err := in.writeSettings(settings); err != nil {
		return report, err
	}
	report.add("set statusLine", in.SettingsPath(), true, line.Command)
	in.log().Info("installed status line", "settings", in.SettingsPath(), "command", line.Command)
	return report, nil
}

// Uninstall removes the statusLine key from settings.json. The config file
// is left in place.
func (in *Installer) Uninstall() (*Report, error) {
	report := &Report{Title: "Uninstall"}
	settings, exists, err := in.readSettings()
	if err != nil {
		return report, err
	}
	if _, ok := settings[statusLineKey]; !exists || !ok {
		report.add("remove statusLine", in.SettingsPath(), true, "not installed")
		return report, nil
	}
	delete(settings, statusLineKey)
	if err := in.writeSettings(settings); err != nil {
		return report, err
	}
	report.add("remove statusLine", in.SettingsPath(), true, "")
	in.log().Info("removed status line", "settings", in.SettingsPath())
	return report, nil
}

// Export encodes cfg as YAML for sharing.
func Export(cfg *config.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("installer: export: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("installer: export: %w", err)
	}
	return buf.Bytes(), nil
}

// Import decodes a YAML export over the defaults. Unknown keys are
// rejected. The result is not yet normalized.
func Import(data []byte) (*config.Config, error) {
	cfg := config.Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("installer: import: %w", err)
	}
	return cfg, nil
}

// ImportFile imports a YAML export, normalizes it and writes it to
// ConfigPath as TOML.
func (in *Installer) ImportFile(path string) (*config.Config, []config.Issue, error) {
	data, err := afero.ReadFile(in.FS, path)
	if err != nil {
		return nil, nil, fmt.Errorf("installer: read %s: %w", path, err)
	}
	decoded, err := Import(data)
	if err != nil {
		return nil, nil, err
	}
	cfg, issues := decoded.Normalize()
	out, err := config.Encode(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := in.writeFile(in.ConfigPath, out); err != nil {
		return nil, nil, err
	}
	return cfg, issues, nil
}

// readSettings returns settings.json as a generic map. A missing file is an
// empty map.
func (in *Installer) readSettings() (map[string]any, bool, error) {
	raw, err := afero.ReadFile(in.FS, in.SettingsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("installer: read settings: %w", err)
	}
	settings := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return settings, true, nil
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, true, fmt.Errorf("installer: parse %s: %w", in.SettingsPath(), err)
	}
	return settings, true, nil
}

func (in *Installer) writeSettings(settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("installer: encode settings: %w", err)
	}
	return in.writeFile(in.SettingsPath(), append(data, '\n'))
}

// writeFile writes atomically through a temp file and rename.
func (in *Installer) writeFile(path string, data []byte) error {
	if err := in.FS.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("installer: create directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(in.FS, tmp, data, 0o644); err != nil {
		return fmt.Errorf("installer: write %s: %w", path, err)
	}
	if err := in.FS.Rename(tmp, path); err != nil {
		in.FS.Remove(tmp)
		return fmt.Errorf("installer: rename %s: %w", path, err)
	}
	return nil
}

func quote(path string) string {
	if strings.ContainsAny(path, " \t'\"") {
		return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
	}
	return path
}

// ExecutablePath returns the running binary's resolved path.
func ExecutablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}
