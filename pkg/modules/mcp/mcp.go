// Package mcp provides the "mcp_status" module: a summary of the MCP servers
// known to the host, from `claude mcp list` and the mcp.json config files.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/xdg"
	jsoniter "github.com/json-iterator/go"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ID is the module id used in configuration.
const ID = "mcp_status"

// DefaultTimeout bounds `claude mcp list`.
const DefaultTimeout = 10 * time.Second

// Server states.
const (
	StatusRunning = "running"
	StatusError   = "error"
	StatusUnknown = "unknown"
)

// Server is one MCP server and its last known state.
type Server struct {
	Name    string
	Status  string
	Command string
}

// Module summarizes MCP servers as "N/M running", "N errors" or "no MCP".
//
// Options:
//
//	claude   path to the claude binary (default "claude")
//	config   mcp.json path, searched before the default locations
//	timeout  bound on `claude mcp list` (default 10s)
type Module struct {
	run         modules.Runner
	configPaths []string
}

// New returns the MCP status module.
func New(_ modules.Env) *Module {
	return newWithRunner(modules.ExecRunner, DefaultConfigPaths())
}

func newWithRunner(run modules.Runner, configPaths []string) *Module {
	return &Module{run: run, configPaths: configPaths}
}

// DefaultConfigPaths lists the mcp.json locations in search order.
func DefaultConfigPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".claude", "mcp.json"))
	}
	paths = append(paths, filepath.Join(xdg.ConfigHome, "claude", "mcp.json"))
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		paths = append(paths, filepath.Join(dir, "mcp.json"))
	}
	return paths
}

func (m *Module) Descriptor() modules.Descriptor {
	return modules.Descriptor{
		ID:          ID,
		Label:       "MCP",
		Icon:        "🔌",
		MinInterval: 10 * time.Second,
		Capability:  modules.CapMayBlock,
	}
}

func (m *Module) Evaluate(ctx context.Context, opts modules.Options) (string, error) {
	return Summary(m.Servers(ctx, opts)), nil
}

func (m *Module) EvaluateLevel(ctx context.Context, opts modules.Options) (string, modules.Level, error) {
	servers := m.Servers(ctx, opts)
	return Summary(servers), LevelOf(servers), nil
}

// LevelOf is error when any server failed, warn when some are not running,
// and ok when all are. No servers has no level.
func LevelOf(servers []Server) modules.Level {
	if len(servers) == 0 {
		return modules.LevelNone
	}
	var running int
	for _, s := range servers {
		switch s.Status {
		case StatusError:
			return modules.LevelError
		case StatusRunning:
			running++
		}
	}
	if running < len(servers) {
		return modules.LevelWarn
	}
	return modules.LevelOK
}

// Servers merges servers reported by the claude CLI with those declared in
// the first mcp.json found. CLI state wins for servers present in both.
func (m *Module) Servers(ctx context.Context, opts modules.Options) []Server {
	byName := make(map[string]Server)

	cctx, cancel := context.WithTimeout(ctx, opts.Duration("timeout", DefaultTimeout))
	out, err := m.run(cctx, "", opts.String("claude", "claude"), "mcp", "list")
	cancel()
	if err == nil {
		for _, s := range ParseList(string(out)) {
			byName[s.Name] = s
		}
	}

	paths := m.configPaths
	if p := opts.String("config", ""); p != "" {
		paths = append([]string{p}, paths...)
	}
	for _, path := range paths {
		declared, err := LoadConfig(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		for _, s := range declared {
			if _, ok := byName[s.Name]; !ok {
				byName[s.Name] = s
			}
		}
		break
	}

	servers := make([]Server, 0, len(byName))
	for _, s := range byName {
		servers = append(servers, s)
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].Name < servers[j].Name })
	return servers
}

// Summary renders the server counts.
func Summary(servers []Server) string {
	if len(servers) == 0 {
		return "no MCP"
	}
	var running, errs int
	for _, s := range servers {
		switch s.Status {
		case StatusRunning:
			running++
		case StatusError:
			errs++
		}
	}
	if errs > 0 {
		if errs == 1 {
			return "1 error"
		}
		return fmt.Sprintf("%d errors", errs)
	}
	return fmt.Sprintf("%d/%d running", running, len(servers))
}

// ParseList parses `claude mcp list` output. Server lines look like
// "name: command args - ✓ Connected" or "name: url - ✗ Failed to connect".
func ParseList(out string) []Server {
	var servers []Server
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Checking") {
			continue
		}
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		idx := strings.LastIndex(rest, " - ")
		if idx < 0 {
			continue
		}
		command := strings.TrimSpace(rest[:idx])
		state := strings.TrimSpace(rest[idx+3:])

		status := StatusUnknown
		switch {
		case strings.HasPrefix(state, "✓"):
			status = StatusRunning
		case strings.HasPrefix(state, "✗"):
			status = StatusError
		}
		servers = append(servers, Server{Name: strings.TrimSpace(name), Status: status, Command: command})
	}
	return servers
}

type mcpConfig struct {
	MCPServers map[string]struct {
		Command string   `json:"command"`
		Args    []string `json:"args"`
		URL     string   `json:"url"`
	} `json:"mcpServers"`
}

// LoadConfig reads the servers declared in an mcp.json file. Their status is
// unknown.
func LoadConfig(path string) ([]Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg mcpConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("mcp: parse %s: %w", path, err)
	}
	servers := make([]Server, 0, len(cfg.MCPServers))
	for name, sc := range cfg.MCPServers {
		command := sc.URL
		if sc.Command != "" {
			command = strings.TrimSpace(sc.Command + " " + strings.Join(sc.Args, " "))
		}
		servers = append(servers, Server{Name: name, Status: StatusUnknown, Command: command})
	}
	return servers, nil
}

// Probe reports whether either data source is available.
func (m *Module) Probe(context.Context) error {
	if _, err := exec.LookPath("claude"); err == nil {
		return nil
	}
	for _, path := range m.configPaths {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}
	return errors.New("claude CLI not on PATH and no mcp.json found")
}
