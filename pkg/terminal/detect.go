// Package terminal decides how the status line may be colored and how wide
// it may be. The status-line command runs with stdout attached to a pipe, so
// color support is inferred from the environment the host passes through
// rather than from the output file descriptor.
package terminal

import (
	"os"
	"strings"
)

// Terminal identifies the terminal emulator hosting the session.
type Terminal int

const (
	TermUnknown Terminal = iota
	TermGhostty
	TermKitty
	TermWezTerm
	TermITerm2
	TermAlacritty
	TermTilix
	TermGNOME
	TermTmux
	TermScreen
	TermVSCode
	TermEmacs
	TermGeneric
)

var terminalNames = map[Terminal]string{
	TermGhostty:   "ghostty",
	TermKitty:     "kitty",
	TermWezTerm:   "wezterm",
	TermITerm2:    "iterm2",
	TermAlacritty: "alacritty",
	TermTilix:     "tilix",
	TermGNOME:     "gnome-terminal",
	TermTmux:      "tmux",
	TermScreen:    "screen",
	TermVSCode:    "vscode",
	TermEmacs:     "emacs",
	TermGeneric:   "generic",
}

func (t Terminal) String() string {
	if name, ok := terminalNames[t]; ok {
		return name
	}
	return "unknown"
}

// SupportsTrueColor reports whether the emulator renders 24-bit color.
// Multiplexers and editors are excluded: what reaches the outer terminal
// depends on their own configuration.
func (t Terminal) SupportsTrueColor() bool {
	switch t {
	case TermTmux, TermScreen, TermEmacs, TermGeneric, TermUnknown:
		return false
	}
	return true
}

// Detect identifies the terminal from the process environment.
func Detect() Terminal { return DetectFrom(os.Getenv) }

// detectRule matches one environment signal.
type detectRule struct {
	term  Terminal
	match func(getenv func(string) string) bool
}

func termProgram(name string) func(func(string) string) bool {
	return func(getenv func(string) string) bool {
		return strings.EqualFold(getenv("TERM_PROGRAM"), name)
	}
}

func envSet(key string) func(func(string) string) bool {
	return func(getenv func(string) string) bool { return getenv(key) != "" }
}

// detectRules are tried in order. TERM_PROGRAM is checked first because an
// emulator's own variable survives inside a multiplexer; multiplexers come
// last so the outer emulator wins when it is known.
var detectRules = []detectRule{
	{TermGhostty, termProgram("ghostty")},
	{TermKitty, termProgram("kitty")},
	{TermWezTerm, termProgram("wezterm")},
	{TermITerm2, termProgram("iterm.app")},
	{TermVSCode, termProgram("vscode")},
	{TermAlacritty, termProgram("alacritty")},
	{TermTmux, termProgram("tmux")},

	{TermGhostty, func(getenv func(string) string) bool { return getenv("TERM") == "xterm-ghostty" }},
	{TermKitty, func(getenv func(string) string) bool { return getenv("TERM") == "xterm-kitty" }},
	{TermAlacritty, func(getenv func(string) string) bool { return strings.HasPrefix(getenv("TERM"), "alacritty") }},
	{TermScreen, func(getenv func(string) string) bool {
		return strings.HasPrefix(getenv("TERM"), "screen") && getenv("STY") != ""
	}},

	{TermKitty, envSet("KITTY_WINDOW_ID")},
	{TermITerm2, envSet("ITERM_SESSION_ID")},
	{TermWezTerm, envSet("WEZTERM_EXECUTABLE")},
	{TermTilix, func(getenv func(string) string) bool {
		return getenv("VTE_VERSION") != "" && getenv("TILIX_ID") != ""
	}},
	{TermGNOME, envSet("VTE_VERSION")},
	{TermEmacs, envSet("INSIDE_EMACS")},

	{TermTmux, envSet("TMUX")},
	{TermScreen, envSet("STY")},
	// iTerm2 forwards LC_TERMINAL over SSH.
	{TermITerm2, func(getenv func(string) string) bool { return getenv("LC_TERMINAL") == "iTerm2" }},
}

// DetectFrom identifies the terminal from variables read through getenv.
// It performs no I/O and returns TermGeneric when nothing matches.
func DetectFrom(getenv func(string) string) Terminal {
	for _, r := range detectRules {
		if r.match(getenv) {
			return r.term
		}
	}
	return TermGeneric
}
