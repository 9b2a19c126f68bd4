// Package kube provides the "kube" module: the current kubeconfig context
// and its namespace. It reads kubeconfig only and never contacts a cluster.
package kube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/client-go/tools/clientcmd"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
)

// ID is the module id used in configuration.
const ID = "kube"

// ErrNoContext is returned when kubeconfig selects no context.
var ErrNoContext = errors.New("no current kube context")

// Module renders "context" or "context/namespace".
//
// Options:
//
//	kubeconfig  explicit kubeconfig path (default: KUBECONFIG, ~/.kube/config)
//	namespace   append the context's namespace (default true)
type Module struct{}

// New returns the kube module.
func New(_ modules.Env) *Module { return &Module{} }

func (m *Module) Descriptor() modules.Descriptor {
	return modules.Descriptor{
		ID:            ID,
		Label:         "K8s",
		Icon:          "☸",
		MinInterval:   5 * time.Second,
		Capability:    modules.CapFast,
		OmitOnFailure: true,
	}
}

func (m *Module) Evaluate(_ context.Context, opts modules.Options) (string, error) {
	name, ns, err := Current(opts.String("kubeconfig", ""))
	if err != nil {
		return "", err
	}
	if ns != "" && opts.Bool("namespace", true) {
		return name + "/" + ns, nil
	}
	return name, nil
}

// Current loads kubeconfig with the standard precedence, or from path when
// set, and returns the current context and its namespace.
func Current(path string) (name, namespace string, err error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		rules.ExplicitPath = path
	}
	raw, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).RawConfig()
	if err != nil {
		return "", "", fmt.Errorf("kube: load kubeconfig: %w", err)
	}
	if raw.CurrentContext == "" {
		return "", "", ErrNoContext
	}
	kctx, ok := raw.Contexts[raw.CurrentContext]
	if !ok {
		return "", "", fmt.Errorf("kube: current context %q not defined", raw.CurrentContext)
	}
	return raw.CurrentContext, kctx.Namespace, nil
}

// Probe reports whether a usable kubeconfig is present.
func (m *Module) Probe(context.Context) error {
	_, _, err := Current("")
	return err
}
