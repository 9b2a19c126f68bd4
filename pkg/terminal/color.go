package terminal

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color modes accepted by the "color" configuration key.
const (
	ColorAuto      = "auto"
	ColorAlways    = "always"
	ColorNever     = "never"
	Color256       = "256"
	ColorTrueColor = "truecolor"
)

// Profile returns the color profile for mode using the process environment.
func Profile(mode string) termenv.Profile {
	return ProfileFrom(mode, os.Getenv)
}

// ProfileFrom returns the color profile for mode, reading the environment
// through getenv.
//
// In auto mode NO_COLOR and TERM=dumb disable color, COLORTERM or a
// terminal known to support 24-bit color selects true color, a TERM
// mentioning 256color selects 256 colors, and anything else gets basic
// ANSI colors. CLICOLOR_FORCE behaves like "always". "always" never yields
// fewer than the 16 ANSI colors.
func ProfileFrom(mode string, getenv func(string) string) termenv.Profile {
	switch strings.ToLower(mode) {
	case ColorNever:
		return termenv.Ascii
	case Color256:
		return termenv.ANSI256
	case ColorTrueColor:
		return termenv.TrueColor
	case ColorAlways:
		return envProfile(getenv, true)
	}

	if getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	force := getenv("CLICOLOR_FORCE") != "" && getenv("CLICOLOR_FORCE") != "0"
	return envProfile(getenv, force)
}

func envProfile(getenv func(string) string, force bool) termenv.Profile {
	term := strings.ToLower(getenv("TERM"))
	if term == "dumb" && !force {
		return termenv.Ascii
	}

	ct := strings.ToLower(getenv("COLORTERM"))
	switch {
	case ct == "truecolor" || ct == "24bit":
		return termenv.TrueColor
	case DetectFrom(getenv).SupportsTrueColor():
		return termenv.TrueColor
	case strings.Contains(term, "256color"):
		return termenv.ANSI256
	}
	return termenv.ANSI
}

// NewRenderer returns a lipgloss renderer writing to w whose color profile
// follows mode.
func NewRenderer(w io.Writer, mode string) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(Profile(mode))
	return r
}

// ProfileName returns a short name for p.
func ProfileName(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "truecolor"
	case termenv.ANSI256:
		return "256"
	case termenv.ANSI:
		return "ansi"
	default:
		return "none"
	}
}
