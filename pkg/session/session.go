// Package session decodes the JSON document Claude Code pipes into a
// status-line command on stdin. Every field is optional; modules that need a
// missing field report a failure instead of guessing.
package session

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mattn/go-isatty"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxInputBytes bounds how much of stdin is read. The host sends a few
// hundred bytes; anything larger is not a session document.
const maxInputBytes = 1 << 20

// Model identifies the model driving the session.
type Model struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Workspace holds the directories the session operates in.
type Workspace struct {
	CurrentDir string `json:"current_dir"`
	ProjectDir string `json:"project_dir"`
}

// Cost carries the running session totals reported by the host.
type Cost struct {
	TotalCostUSD       float64 `json:"total_cost_usd"`
	TotalDurationMS    int64   `json:"total_duration_ms"`
	TotalAPIDurationMS int64   `json:"total_api_duration_ms"`
	TotalLinesAdded    int64   `json:"total_lines_added"`
	TotalLinesRemoved  int64   `json:"total_lines_removed"`
}

// Input is the decoded stdin document.
type Input struct {
	SessionID      string    `json:"session_id"`
	TranscriptPath string    `json:"transcript_path"`
	CWD            string    `json:"cwd"`
	Version        string    `json:"version"`
	Model          Model     `json:"model"`
	Workspace      Workspace `json:"workspace"`
	Cost           *Cost     `json:"cost,omitempty"`
}

// Dir returns the most specific working directory known for the session,
// falling back to the process working directory.
func (in Input) Dir() string {
	switch {
	case in.Workspace.CurrentDir != "":
		return in.Workspace.CurrentDir
	case in.CWD != "":
		return in.CWD
	case in.Workspace.ProjectDir != "":
		return in.Workspace.ProjectDir
	}
	wd, _ := os.Getwd()
	return wd
}

// Elapsed returns the session duration reported by the host, or false when
// the host did not send one.
func (in Input) Elapsed() (time.Duration, bool) {
	if in.Cost == nil || in.Cost.TotalDurationMS <= 0 {
		return 0, false
	}
	return time.Duration(in.Cost.TotalDurationMS) * time.Millisecond, true
}

// Decode parses a session document. Empty input yields a zero Input.
func Decode(r io.Reader) (Input, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes))
	if err != nil {
		return Input{}, fmt.Errorf("session: read input: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Input{}, nil
	}

	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("session: decode input: %w", err)
	}
	return in, nil
}

// FromFile decodes f unless it is an interactive terminal, in which case no
// host is feeding it and a zero Input is returned without blocking.
func FromFile(f *os.File) (Input, error) {
	if f == nil {
		return Input{}, nil
	}
	fd := f.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return Input{}, nil
	}
	return Decode(f)
}
