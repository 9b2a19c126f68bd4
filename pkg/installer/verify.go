package installer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/config"
)

// Action is one step taken or checked by the installer.
type Action struct {
	Name   string
	Path   string
	OK     bool
	Detail string
}

// Report lists the actions of one installer operation.
type Report struct {
	Title   string
	Actions []Action
}

func (r *Report) add(name, path string, ok bool, detail string) {
	r.Actions = append(r.Actions, Action{Name: name, Path: path, OK: ok, Detail: detail})
}

// OK reports whether every action succeeded.
func (r *Report) OK() bool {
	for _, a := range r.Actions {
		if !a.OK {
			return false
		}
	}
	return true
}

// RenderText returns a plain-text report.
func (r *Report) RenderText() string {
	var b strings.Builder

	b.WriteString(r.Title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 40))
	b.WriteString("\n")

	passed := 0
	for _, a := range r.Actions {
		mark := "+"
		if !a.OK {
			mark = "-"
		} else {
			passed++
		}
		fmt.Fprintf(&b, "  [%s] %s: %s", mark, a.Name, a.Path)
		if a.Detail != "" {
			fmt.Fprintf(&b, " (%s)", a.Detail)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d/%d ok\n", passed, len(r.Actions))
	return b.String()
}

// Verify checks that the config file parses, that settings.json runs binary
// for its status line, and that binary exists.
func (in *Installer) Verify(binary string) *Report {
	report := &Report{Title: "Verify"}

	if raw, err := afero.ReadFile(in.FS, in.ConfigPath); err != nil {
		report.add("config present", in.ConfigPath, false, err.Error())
	} else if _, err := config.LoadFromReader(bytes.NewReader(raw)); err != nil {
		report.add("config parses", in.ConfigPath, false, err.Error())
	} else {
		report.add("config parses", in.ConfigPath, true, "")
	}

	settings, exists, err := in.readSettings()
	switch {
	case err != nil:
		report.add("statusLine set", in.SettingsPath(), false, err.Error())
	case !exists:
		report.add("statusLine set", in.SettingsPath(), false, "settings.json missing")
	default:
		want := CommandFor(binary).Command
		got := statusCommand(settings[statusLineKey])
		report.add("statusLine set", in.SettingsPath(), got == want, fmt.Sprintf("command %q", got))
	}

	if info, err := in.FS.Stat(binary); err != nil {
		report.add("binary present", binary, false, err.Error())
	} else {
		report.add("binary present", binary, !info.IsDir(), "")
	}
	return report
}

func statusCommand(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m["command"].(string)
	return s
}
