package model

import (
	"context"
	"errors"
	"testing"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/session"
)

func TestShortName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"claude-opus-4-20250514", "opus"},
		{"claude-3-5-Sonnet-20241022", "sonnet"},
		{"claude-haiku-4-5", "haiku"},
		{"gpt-4o-20240513", "4o"},
		{"mystery", "mystery"},
	}
	for _, tt := range tests {
		if got := ShortName(tt.in); got != tt.want {
			t.Errorf("ShortName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		model   session.Model
		opts    modules.Options
		want    string
		wantErr error
	}{
		{"display name", session.Model{ID: "claude-opus-4-1", DisplayName: "Opus 4.1"}, nil, "Opus 4.1", nil},
		{"id fallback", session.Model{ID: "claude-sonnet-4"}, nil, "claude-sonnet-4", nil},
		{"short", session.Model{ID: "claude-opus-4-1", DisplayName: "Opus 4.1"}, modules.Options{"short": true}, "opus", nil},
		{"short from display name", session.Model{DisplayName: "Haiku"}, modules.Options{"short": "true"}, "haiku", nil},
		{"unknown", session.Model{}, nil, "", ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(modules.Env{Session: session.Input{Model: tt.model}})
			got, err := m.Evaluate(context.Background(), tt.opts)
			if !errors.Is(err, tt.wantErr) || got != tt.want {
				t.Errorf("Evaluate = %q, %v; want %q, %v", got, err, tt.want, tt.wantErr)
			}
		})
	}
}
