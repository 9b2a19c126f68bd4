// Package cwd provides the "cwd" module: the session's working directory.
package cwd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
)

// ID is the module id used in configuration.
const ID = "cwd"

// ErrNoDir is returned when no working directory is known.
var ErrNoDir = errors.New("working directory unknown")

// Module renders the base name of the working directory.
//
// Options:
//
//	full  render the whole path, with the home directory shortened to "~"
type Module struct {
	dir  string
	home string
}

// New returns the cwd module.
func New(env modules.Env) *Module {
	home, _ := os.UserHomeDir()
	return &Module{dir: env.Session.Dir(), home: home}
}

func (m *Module) Descriptor() modules.Descriptor {
	return modules.Descriptor{
		ID:         ID,
		Label:      "Dir",
		Icon:       "📁",
		Capability: modules.CapFast,
	}
}

func (m *Module) Evaluate(_ context.Context, opts modules.Options) (string, error) {
	if m.dir == "" {
		return "", ErrNoDir
	}
	dir := filepath.Clean(m.dir)
	if opts.Bool("full", false) {
		return Abbreviate(dir, m.home), nil
	}
	return filepath.Base(dir), nil
}

// Abbreviate replaces a leading home directory with "~".
func Abbreviate(dir, home string) string {
	if home == "" {
		return dir
	}
	home = filepath.Clean(home)
	if dir == home {
		return "~"
	}
	if strings.HasPrefix(dir, home+string(filepath.Separator)) {
		return "~" + dir[len(home):]
	}
	return dir
}
