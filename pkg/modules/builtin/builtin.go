// Package builtin wires every built-in module into a registry.
package builtin

import (
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules/clock"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules/cost"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules/cwd"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules/gitbranch"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules/kube"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules/mcp"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules/model"
	sessiontime "gitlab.com/tinyland/lab/cc-statusline/pkg/modules/session"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules/sysload"
)

// Modules returns a fresh instance of every built-in module for env.
func Modules(env modules.Env) []modules.Module {
	return []modules.Module{
		clock.New(env),
		sessiontime.New(env),
		model.New(env),
		cost.New(env),
		cwd.New(env),
		gitbranch.New(env),
		mcp.New(env),
		sysload.New(env),
		kube.New(env),
	}
}

// NewRegistry returns a registry holding every built-in module.
func NewRegistry(env modules.Env) *modules.Registry {
	return modules.NewRegistry().MustRegister(Modules(env)...)
}
