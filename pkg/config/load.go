package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

// AppDirName is the directory name used under every config root.
const AppDirName = "cc-statusline"

// FileName is the config file name inside AppDirName.
const FileName = "config.toml"

// Load reads configuration from the first existing search path.
// Search order:
//  1. $CLAUDE_CONFIG_DIR/cc-statusline/config.toml
//  2. ~/.claude/cc-statusline/config.toml
//  3. $XDG_CONFIG_HOME/cc-statusline/config.toml
//
// If no file exists, returns Default() with env overrides applied.
func Load() (*Config, string, error) {
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			cfg, err := LoadFromFile(p)
			return cfg, p, err
		}
	}
	cfg := Default()
	applyEnvOverrides(cfg)
	return cfg, "", nil
}

// LoadFromFile reads configuration from a specific file path. A missing
// file yields the defaults.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes TOML over the defaults and applies env overrides.
// The result is not yet normalized.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		cfg.unknownKeys = make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			cfg.unknownKeys = append(cfg.unknownKeys, k.String())
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Encode writes cfg as TOML.
func Encode(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("config: encode TOML: %w", err)
	}
	return buf.Bytes(), nil
}

// applyEnvOverrides checks environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CC_STATUSLINE_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("CC_STATUSLINE_MODULES"); v != "" {
		var ids []string
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		cfg.Modules = ids
	}
	if v := os.Getenv("CC_STATUSLINE_COLOR"); v != "" {
		cfg.Color = v
	}
}

// HostDir returns the host application's config directory.
func HostDir() string {
	if v := os.Getenv("CLAUDE_CONFIG_DIR"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}

// DefaultPath is where the installer writes the config file.
func DefaultPath() string {
	return filepath.Join(HostDir(), AppDirName, FileName)
}

// SearchPaths returns the ordered list of config file paths to try.
func SearchPaths() []string {
	paths := []string{DefaultPath()}

	home, _ := os.UserHomeDir()
	if fallback := filepath.Join(home, ".claude", AppDirName, FileName); fallback != paths[0] {
		paths = append(paths, fallback)
	}
	paths = append(paths, filepath.Join(xdg.ConfigHome, AppDirName, FileName))
	return paths
}

// StateDir is where logs and other runtime files live.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppDirName)
}
