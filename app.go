package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/config"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules/builtin"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/render"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/scheduler"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/session"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/terminal"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/theme"
)

// app is the state shared by every command: global flags, the loaded
// configuration, and the logger.
type app struct {
	configPath string
	themeName  string
	color      string
	logFile    string
	verbose    int

	started  time.Time
	cfg      *config.Config
	cfgPath  string
	themeDir string
	logger   *slog.Logger
	closers  []io.Closer
}

// load resolves the configuration and sets up logging. A broken config
// file is reported and replaced by the defaults so the status line still
// renders.
func (a *app) load(stderr io.Writer) {
	var (
		cfg     *config.Config
		path    string
		loadErr error
	)
	if a.configPath != "" {
		path = a.configPath
		cfg, loadErr = config.LoadFromFile(path)
	} else {
		cfg, path, loadErr = config.Load()
	}
	if loadErr != nil {
		cfg = config.Default()
	}
	if a.themeName != "" {
		cfg.Theme = a.themeName
	}
	if a.color != "" {
		cfg.Color = a.color
	}
	if a.logFile != "" {
		cfg.LogFile = a.logFile
	}

	norm, issues := cfg.Normalize()
	a.cfg = norm
	a.cfgPath = path
	a.logger = a.newLogger(stderr, norm)

	if loadErr != nil {
		a.logger.Warn("config load failed, using defaults", "path", path, "error", loadErr)
	}
	for _, is := range issues {
		a.logger.Warn("config issue", "field", is.Field, "message", is.Message)
	}
	a.loadThemes(norm.ThemeDir)
}

// loadThemes registers the themes in dir. Invalid files are logged and
// skipped.
func (a *app) loadThemes(dir string) {
	a.themeDir = dir
	if dir == "" {
		return
	}
	names, err := theme.LoadDir(expandHome(dir))
	if err != nil {
		a.logger.Warn("theme directory has invalid themes", "dir", dir, "error", err)
	}
	if len(names) > 0 {
		a.logger.Debug("loaded themes", "dir", dir, "themes", names)
	}
}

// onReload is the config watcher callback for watch mode. The watcher has
// already logged the reload and its issues.
func (a *app) onReload(cfg *config.Config, _ []config.Issue) {
	if cfg.ThemeDir != a.themeDir {
		a.loadThemes(cfg.ThemeDir)
	}
}

// newLogger writes text logs to stderr and, when a log file is configured,
// to that file as well.
func (a *app) newLogger(stderr io.Writer, cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.LogLevel)
	switch {
	case a.verbose >= 2:
		level = slog.LevelDebug
	case a.verbose == 1 && level > slog.LevelInfo:
		level = slog.LevelInfo
	}

	w := stderr
	if cfg.LogFile != "" {
		path := expandHome(cfg.LogFile)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				a.closers = append(a.closers, f)
				w = io.MultiWriter(stderr, f)
			} else {
				fmt.Fprintf(stderr, "cc-statusline: open log file: %v\n", err)
			}
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (a *app) close() {
	for _, c := range a.closers {
		c.Close()
	}
	a.closers = nil
}

// env builds the module environment for a session document.
func (a *app) env(in session.Input) modules.Env {
	return modules.Env{Session: in, Started: a.started, Logger: a.logger}
}

func (a *app) registry(in session.Input) *modules.Registry {
	return builtin.NewRegistry(a.env(in))
}

// formatter renders for out with the configured color mode.
func (a *app) formatter(out io.Writer) *render.Formatter {
	return render.New(terminal.NewRenderer(out, a.cfg.Color), render.WithTerminalWidth(terminal.Width))
}

func (a *app) scheduler(reg *modules.Registry, out io.Writer) *scheduler.Scheduler {
	return scheduler.New(reg,
		scheduler.WithFormatter(a.formatter(out)),
		scheduler.WithLogger(a.logger),
	)
}

// readSession decodes the session document from r. A terminal on stdin
// means no host is attached.
func readSession(r io.Reader) (session.Input, error) {
	if f, ok := r.(*os.File); ok {
		return session.FromFile(f)
	}
	return session.Decode(r)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}
