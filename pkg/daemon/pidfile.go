// Package daemon holds the process-level plumbing for watch mode: a PID
// file that keeps a second watcher from starting, and a state file that
// records the most recent tick for other commands to read.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrRunning is returned by AcquirePID when a live process holds the file.
var ErrRunning = errors.New("watch already running")

// AcquirePID creates a PID file at path with the current process PID.
// It fails if another live process already holds it. A PID file left by a
// dead process is replaced.
func AcquirePID(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}

	if existing, err := ReadPID(path); err == nil {
		if existing != os.Getpid() && IsProcessAlive(existing) {
			return fmt.Errorf("%w (PID %d)", ErrRunning, existing)
		}
		os.Remove(path)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("write temp PID file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename PID file: %w", err)
	}
	return nil
}

// ReleasePID removes the PID file at path if it still names this process.
func ReleasePID(path string) error {
	if pid, err := ReadPID(path); err == nil && pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

// ReadPID reads and parses the PID from path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID file: %w", err)
	}
	return pid, nil
}

// IsProcessAlive reports whether a process with pid exists.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}
