// Package gitbranch provides the "git_branch" module: the checked-out branch
// of the repository containing the session's working directory.
package gitbranch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
)

// ID is the module id used in configuration.
const ID = "git_branch"

// ErrNoDir is returned when no working directory is known.
var ErrNoDir = errors.New("working directory unknown")

// Module runs git in the session directory. Outside a repository it fails,
// and the module is dropped from the line.
//
// Options:
//
//	git  path to the git binary (default "git")
//	dir  directory to inspect, overriding the session's
type Module struct {
	dir string
	run modules.Runner
}

// New returns the git branch module.
func New(env modules.Env) *Module {
	return newWithRunner(env.Session.Dir(), modules.ExecRunner)
}

func newWithRunner(dir string, run modules.Runner) *Module {
	return &Module{dir: dir, run: run}
}

func (m *Module) Descriptor() modules.Descriptor {
	return modules.Descriptor{
		ID:            ID,
		Label:         "Branch",
		Icon:          "⎇",
		MinInterval:   2 * time.Second,
		Capability:    modules.CapMayBlock,
		OmitOnFailure: true,
	}
}

func (m *Module) Evaluate(ctx context.Context, opts modules.Options) (string, error) {
	dir := opts.String("dir", m.dir)
	if dir == "" {
		return "", ErrNoDir
	}
	git := opts.String("git", "git")

	out, err := m.run(ctx, dir, git, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	branch := strings.TrimSpace(string(out))
	if branch != "HEAD" {
		return branch, nil
	}

	// Detached: show the short commit instead.
	out, err = m.run(ctx, dir, git, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return "@" + strings.TrimSpace(string(out)), nil
}

// Probe reports whether git is on PATH.
func (m *Module) Probe(context.Context) error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git not found: %w", err)
	}
	return nil
}
