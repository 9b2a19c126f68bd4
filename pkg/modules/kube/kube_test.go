package kube

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
)

const kubeconfig = `apiVersion: v1
kind: Config
current-context: %s
clusters:
- name: lab
  cluster:
    server: https://127.0.0.1:6443
users:
- name: admin
  user:
    token: fake
contexts:
- name: lab-admin
  context:
    cluster: lab
    user: admin
    namespace: monitoring
- name: bare
  context:
    cluster: lab
    user: admin
`

func writeKubeconfig(t *testing.T, current string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	body := []byte(replaceCurrent(current))
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func replaceCurrent(current string) string {
	if current == "" {
		current = `""`
	}
	return fmt.Sprintf(kubeconfig, current)
}

func TestEvaluate(t *testing.T) {
	m := New(modules.Env{})
	tests := []struct {
		name    string
		current string
		opts    modules.Options
		want    string
	}{
		{"with namespace", "lab-admin", nil, "lab-admin/monitoring"},
		{"namespace disabled", "lab-admin", modules.Options{"namespace": false}, "lab-admin"},
		{"no namespace", "bare", nil, "bare"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := modules.Options{"kubeconfig": writeKubeconfig(t, tt.current)}
			for k, v := range tt.opts {
				opts[k] = v
			}
			got, err := m.Evaluate(context.Background(), opts)
			if err != nil || got != tt.want {
				t.Errorf("Evaluate = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestFailures(t *testing.T) {
	m := New(modules.Env{})

	_, err := m.Evaluate(context.Background(), modules.Options{"kubeconfig": writeKubeconfig(t, "")})
	if !errors.Is(err, ErrNoContext) {
		t.Errorf("empty current-context: err = %v, want ErrNoContext", err)
	}

	_, err = m.Evaluate(context.Background(), modules.Options{"kubeconfig": writeKubeconfig(t, "ghost")})
	if err == nil {
		t.Error("undefined context: expected error")
	}

	_, err = m.Evaluate(context.Background(), modules.Options{"kubeconfig": filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Error("missing kubeconfig: expected error")
	}

	if !m.Descriptor().OmitOnFailure {
		t.Error("kube should be omitted on failure")
	}
}
