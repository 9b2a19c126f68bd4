package cost

import (
	"context"
	"errors"
	"testing"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/session"
)

func TestEvaluate(t *testing.T) {
	c := &session.Cost{TotalCostUSD: 1.2345, TotalLinesAdded: 12, TotalLinesRemoved: 3}
	tests := []struct {
		name string
		opts modules.Options
		want string
	}{
		{"default", nil, "$1.23"},
		{"precision", modules.Options{"precision": int64(3)}, "$1.234"},
		{"bad precision", modules.Options{"precision": -1}, "$1.23"},
		{"lines", modules.Options{"lines": true}, "$1.23 +12/-3"},
	}
	m := New(modules.Env{Session: session.Input{Cost: c}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Evaluate(context.Background(), tt.opts)
			if err != nil || got != tt.want {
				t.Errorf("Evaluate = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestNoCostOmitted(t *testing.T) {
	m := New(modules.Env{})
	if _, err := m.Evaluate(context.Background(), nil); !errors.Is(err, ErrNoCost) {
		t.Errorf("err = %v, want ErrNoCost", err)
	}
	if !m.Descriptor().OmitOnFailure {
		t.Error("cost should be omitted on failure")
	}
}
