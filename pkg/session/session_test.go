package session

import (
	"strings"
	"testing"
	"time"
)

const sampleInput = `{
  "session_id": "abc123",
  "transcript_path": "/tmp/t.jsonl",
  "cwd": "/home/u/proj/sub",
  "model": {"id": "claude-opus-4-1", "display_name": "Opus"},
  "workspace": {"current_dir": "/home/u/proj", "project_dir": "/home/u/proj"},
  "version": "1.0.80",
  "cost": {"total_cost_usd": 0.0123, "total_duration_ms": 45000}
}`

func TestDecode(t *testing.T) {
	in, err := Decode(strings.NewReader(sampleInput))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if in.SessionID != "abc123" {
		t.Errorf("SessionID = %q, want %q", in.SessionID, "abc123")
	}
	if in.Model.DisplayName != "Opus" {
		t.Errorf("Model.DisplayName = %q, want %q", in.Model.DisplayName, "Opus")
	}
	if in.Cost == nil || in.Cost.TotalCostUSD != 0.0123 {
		t.Fatalf("Cost = %+v, want total 0.0123", in.Cost)
	}
	if got := in.Dir(); got != "/home/u/proj" {
		t.Errorf("Dir() = %q, want workspace current_dir", got)
	}
	d, ok := in.Elapsed()
	if !ok || d != 45*time.Second {
		t.Errorf("Elapsed() = %v, %v; want 45s, true", d, ok)
	}
}

func TestDecodeEmpty(t *testing.T) {
	in, err := Decode(strings.NewReader("  \n"))
	if err != nil {
		t.Fatalf("Decode empty: %v", err)
	}
	if in.SessionID != "" || in.Cost != nil {
		t.Errorf("expected zero Input, got %+v", in)
	}
	if _, ok := in.Elapsed(); ok {
		t.Error("Elapsed should be unknown for empty input")
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected error for malformed input")
	}
}

func TestDirFallbacks(t *testing.T) {
	in := Input{CWD: "/a"}
	if got := in.Dir(); got != "/a" {
		t.Errorf("Dir() = %q, want /a", got)
	}
	in = Input{Workspace: Workspace{ProjectDir: "/p"}}
	if got := in.Dir(); got != "/p" {
		t.Errorf("Dir() = %q, want /p", got)
	}
}

func TestFromFileNil(t *testing.T) {
	in, err := FromFile(nil)
	if err != nil || in.SessionID != "" {
		t.Errorf("FromFile(nil) = %+v, %v", in, err)
	}
}
