package terminal

import (
	"os"

	"github.com/muesli/termenv"
)

// Capabilities summarizes what the current environment allows the status
// line to use. It is reported by the health command.
type Capabilities struct {
	Term    Terminal        // Detected terminal emulator
	Profile termenv.Profile // Color profile for the configured mode
	Width   int             // Columns, 0 if unknown
	SSH     bool            // Running over SSH
	Mux     bool            // Inside tmux or screen
}

// DetectCapabilities inspects the environment for the given color mode.
func DetectCapabilities(colorMode string) Capabilities {
	return Capabilities{
		Term:    Detect(),
		Profile: Profile(colorMode),
		Width:   Width(),
		SSH:     isSSH(),
		Mux:     os.Getenv("TMUX") != "" || os.Getenv("STY") != "",
	}
}

// isSSH reports whether the current session is running over SSH.
func isSSH() bool {
	return os.Getenv("SSH_TTY") != "" ||
		os.Getenv("SSH_CONNECTION") != "" ||
		os.Getenv("SSH_CLIENT") != ""
}
