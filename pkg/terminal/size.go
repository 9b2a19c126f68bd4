package terminal

import (
	"os"
	"strconv"

	"github.com/charmbracelet/x/term"
)

// Width returns the terminal width in columns, or 0 when it cannot be
// determined. It tries stdout, stderr and stdin in that order, then the
// COLUMNS environment variable.
func Width() int {
	for _, f := range []*os.File{os.Stdout, os.Stderr, os.Stdin} {
		if w := WidthFromFd(f.Fd()); w > 0 {
			return w
		}
	}
	return envInt("COLUMNS", 0)
}

// WidthFromFd returns the width of the terminal on fd, or 0 if fd is not a
// terminal.
func WidthFromFd(fd uintptr) int {
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 0
	}
	return w
}

// envInt reads an integer from the named environment variable. Returns
// the fallback value if the variable is unset, empty, or not a valid
// positive integer.
func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
