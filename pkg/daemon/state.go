package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/cache"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/scheduler"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Default file names under config.StateDir.
const (
	PIDFileName   = "watch.pid"
	StateFileName = "watch.json"
)

// State is the snapshot a watcher writes after every tick.
type State struct {
	PID      int           `json:"pid"`
	Line     string        `json:"line"`
	At       time.Time     `json:"at"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Failed   []string      `json:"failed,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
	Cache    cache.Stats   `json:"cache"`
}

// NewState builds the state for tick.
func NewState(tick scheduler.Tick, stats cache.Stats) State {
	st := State{
		PID:     os.Getpid(),
		Line:    tick.Line,
		At:      tick.At,
		Elapsed: tick.Elapsed,
		Cache:   stats,
	}
	for _, it := range tick.Record.Failed() {
		st.Failed = append(st.Failed, it.Descriptor.ID)
	}
	for _, w := range tick.Warnings {
		st.Warnings = append(st.Warnings, w.String())
	}
	return st
}

// Age returns how long ago the state was written.
func (s State) Age(now time.Time) time.Duration {
	return now.Sub(s.At)
}

// WriteState writes st as indented JSON to path. The write is atomic:
// content goes to a temporary file first, then is renamed into place to
// prevent partial reads.
func WriteState(path string, st State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}

// ReadState reads a state file written by WriteState.
func ReadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("read state file: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("parse state file: %w", err)
	}
	return st, nil
}
