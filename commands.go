package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/config"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/daemon"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/health"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/installer"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/render"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/scheduler"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/session"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/terminal"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/theme"
)

// newRootCmd creates the command tree.
func newRootCmd() *cobra.Command {
	a := &app{started: time.Now()}

	root := &cobra.Command{
		Use:     "cc-statusline",
		Short:   "Status line for Claude Code",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.load(cmd.ErrOrStderr())
			a.logger.Debug("command started", "command", cmd.Name(), "config", a.cfgPath)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "config file (default: search standard locations)")
	pf.StringVarP(&a.themeName, "theme", "t", "", "theme name, overrides the config")
	pf.StringVar(&a.color, "color", "", "color mode: auto, always, never, 256, truecolor")
	pf.StringVar(&a.logFile, "log-file", "", "also write logs to this file")
	pf.CountVarP(&a.verbose, "verbose", "v", "increase log verbosity (repeatable)")

	root.AddCommand(
		newRenderCmd(a),
		newWatchCmd(a),
		newHealthCmd(a),
		newInstallCmd(a),
		newUninstallCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newThemesCmd(a),
		newModulesCmd(a),
		newStatusCmd(a),
		newVersionCmd(),
	)
	return root
}

// --- render ---

func newRenderCmd(a *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one status line from the session on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := sessionFrom(cmd.InOrStdin(), input)
			if err != nil {
				// A bad document still gets a line; modules that need it fail.
				a.logger.Warn("session input unreadable", "error", err)
			}
			out := cmd.OutOrStdout()
			s := a.scheduler(a.registry(in), out)
			tick, err := s.Tick(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, tick.Line)
			return err
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "read the session document from a file instead of stdin")
	return cmd
}

func sessionFrom(stdin io.Reader, path string) (session.Input, error) {
	if path == "" {
		return readSession(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return session.Input{}, err
	}
	defer f.Close()
	return session.Decode(f)
}

// --- watch ---

func newWatchCmd(a *app) *cobra.Command {
	var (
		input string
		noPID bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render the line every refresh interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stateDir := config.StateDir()
			if !noPID {
				pidPath := filepath.Join(stateDir, daemon.PIDFileName)
				if err := daemon.AcquirePID(pidPath); err != nil {
					return err
				}
				defer daemon.ReleasePID(pidPath)
			}

			var in session.Input
			if input != "" {
				var err error
				if in, err = sessionFrom(nil, input); err != nil {
					a.logger.Warn("session input unreadable", "error", err)
				}
			}

			holder := config.NewHolder(a.cfg)
			if a.cfgPath != "" {
				w := config.NewWatcher(a.cfgPath, holder, a.logger)
				w.OnReload = a.onReload
				go func() {
					if err := w.Run(ctx); err != nil {
						a.logger.Warn("config watcher stopped", "error", err)
					}
				}()
			}

			out := cmd.OutOrStdout()
			s := a.scheduler(a.registry(in), out)
			statePath := filepath.Join(stateDir, daemon.StateFileName)
			inPlace := isTerminal(out)

			err := s.RunTicks(ctx, holder, func(tick scheduler.Tick) {
				if inPlace {
					fmt.Fprint(out, "\r\x1b[K"+tick.Line)
				} else {
					fmt.Fprintln(out, tick.Line)
				}
				if err := daemon.WriteState(statePath, daemon.NewState(tick, s.Cache().Stats())); err != nil {
					a.logger.Debug("state write failed", "error", err)
				}
			})
			if inPlace {
				fmt.Fprintln(out)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "session document to render against")
	cmd.Flags().BoolVar(&noPID, "no-pid", false, "allow more than one watcher")
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// --- health ---

func newHealthCmd(a *app) *cobra.Command {
	var (
		opts    health.Options
		asJSON  bool
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Evaluate every configured module and report problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = a.verbose > 0
			out := cmd.OutOrStdout()
			in, _ := readSession(cmd.InOrStdin())
			checker := &health.Checker{
				Registry: a.registry(in),
				Renderer: terminal.NewRenderer(out, a.cfg.Color),
				Logger:   a.logger,
			}
			report := checker.Check(cmd.Context(), a.cfg, opts)

			if outPath != "" {
				if err := health.WriteFile(outPath, report); err != nil {
					return err
				}
			}
			if asJSON {
				data, err := report.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			} else {
				fmt.Fprint(out, report.Text(opts.Verbose))
				if opts.Verbose {
					writeCapabilities(out, terminal.DetectCapabilities(a.cfg.Color))
				}
			}
			if !report.OK {
				return fmt.Errorf("%d of %d checks failed", len(report.Failed()), len(report.Items))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.Deep, "deep", false, "also probe each module's data source")
	f.StringVar(&opts.TestCommand, "test-command", "", "shell command to run with a sample session on stdin")
	f.DurationVar(&opts.CommandTimeout, "test-timeout", health.DefaultCommandTimeout, "timeout for --test-command")
	f.BoolVar(&asJSON, "json", false, "print the report as JSON")
	f.StringVarP(&outPath, "output", "o", "", "also write the JSON report to this file")
	return cmd
}

func writeCapabilities(w io.Writer, c terminal.Capabilities) {
	width := "unknown"
	if c.Width > 0 {
		width = fmt.Sprintf("%d", c.Width)
	}
	fmt.Fprintf(w, "terminal: %s, color %s, width %s, ssh %t, mux %t\n",
		c.Term, terminal.ProfileName(c.Profile), width, c.SSH, c.Mux)
}

// --- install / uninstall ---

func newInstallCmd(a *app) *cobra.Command {
	var (
		binary string
		verify bool
	)
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Write the config file and register the status line with the host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if binary == "" {
				exe, err := installer.ExecutablePath()
				if err != nil {
					return fmt.Errorf("locate binary: %w", err)
				}
				binary = exe
			}
			in := installer.New(a.logger)
			if a.configPath != "" {
				in.ConfigPath = a.configPath
			}
			out := cmd.OutOrStdout()
			if verify {
				r := in.Verify(binary)
				fmt.Fprint(out, r.RenderText())
				if !r.OK() {
					return errors.New("installation incomplete")
				}
				return nil
			}
			r, err := in.Install(a.cfg, binary)
			fmt.Fprint(out, r.RenderText())
			return err
		},
	}
	cmd.Flags().StringVar(&binary, "binary", "", "binary the host should run (default: this executable)")
	cmd.Flags().BoolVar(&verify, "verify", false, "check an existing installation instead of installing")
	return cmd
}

func newUninstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the status line from the host settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := installer.New(a.logger).Uninstall()
			fmt.Fprint(cmd.OutOrStdout(), r.RenderText())
			return err
		},
	}
}

// --- export / import ---

func newExportCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := installer.Export(a.cfg)
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(outPath, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the config file with a YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := installer.New(a.logger)
			if a.configPath != "" {
				in.ConfigPath = a.configPath
			}
			cfg, issues, err := in.ImportFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, is := range issues {
				fmt.Fprintf(out, "warning: %s\n", is)
			}
			fmt.Fprintf(out, "imported %d modules, theme %q, into %s\n", len(cfg.Modules), cfg.Theme, in.ConfigPath)
			return nil
		},
	}
}

// --- themes ---

func newThemesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List themes with a sample line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			f := render.New(terminal.NewRenderer(out, a.cfg.Color))
			rec := sampleRecord()
			for _, name := range theme.Names() {
				th := theme.Get(name)
				line, err := f.Render(rec, th)
				if err != nil {
					line = "invalid: " + err.Error()
				}
				mark := " "
				if name == a.cfg.Theme {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %-12s %s\n", mark, name, line)
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print a theme as TOML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			th, ok := theme.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown theme %q (available: %s)", args[0], strings.Join(theme.Names(), ", "))
			}
			data, err := theme.SaveToTOML(th)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}

func sampleRecord() render.Record {
	now := time.Now()
	sample := []struct{ id, label, text string }{
		{"model", "Model", "opus"},
		{"cwd", "Dir", "cc-statusline"},
		{"git_branch", "Branch", "main"},
		{"session_time", "Session", "15m 30s"},
		{"cost", "Cost", "$1.23"},
	}
	rec := make(render.Record, 0, len(sample))
	for _, s := range sample {
		rec = append(rec, render.Item{
			Descriptor: modules.Descriptor{ID: s.id, Label: s.label},
			Result:     modules.Success(s.id, s.text, now),
		})
	}
	return rec
}

// --- modules ---

func newModulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List available modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled := make(map[string]int, len(a.cfg.Modules))
			for i, id := range a.cfg.Modules {
				enabled[id] = i + 1
			}
			descs := a.registry(session.Input{}).Descriptors()
			sort.SliceStable(descs, func(i, j int) bool {
				pi, pj := enabled[descs[i].ID], enabled[descs[j].ID]
				if (pi == 0) != (pj == 0) {
					return pi != 0
				}
				return pi < pj
			})

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tINTERVAL\tCOST\tENABLED")
			for _, d := range descs {
				pos := "-"
				if p := enabled[d.ID]; p > 0 {
					pos = fmt.Sprintf("#%d", p)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Label, d.MinInterval, d.Capability, pos)
			}
			return tw.Flush()
		},
	}
}

// --- status ---

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last line written by a running watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := config.StateDir()
			st, err := daemon.ReadState(filepath.Join(dir, daemon.StateFileName))
			if err != nil {
				return fmt.Errorf("no watcher state: %w", err)
			}
			out := cmd.OutOrStdout()
			alive := daemon.IsProcessAlive(st.PID)
			fmt.Fprintf(out, "line:     %s\n", st.Line)
			fmt.Fprintf(out, "updated:  %s\n", humanize.Time(st.At))
			fmt.Fprintf(out, "watcher:  pid %d, running %t\n", st.PID, alive)
			fmt.Fprintf(out, "cache:    %d hits, %d misses, %d timeouts\n", st.Cache.Hits, st.Cache.Misses, st.Cache.Timeouts)
			if len(st.Failed) > 0 {
				fmt.Fprintf(out, "failed:   %s\n", strings.Join(st.Failed, ", "))
			}
			return nil
		},
	}
}

// --- version ---

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cc-statusline %s (%s) built %s\n", version, commit, date)
		},
	}
}
