package modules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agnivade/levenshtein"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/config"
)

// suggestDistance is the largest edit distance for a "did you mean" hint.
const suggestDistance = 2

// Resolved is one enabled module paired with its options.
type Resolved struct {
	Module     Module
	Descriptor Descriptor
	Options    Options
}

// Warning is a non-fatal resolution problem.
type Warning struct {
	ModuleID   string
	Reason     string
	Suggestion string
}

func (w Warning) String() string {
	if w.Suggestion != "" {
		return fmt.Sprintf("module %q: %s (did you mean %q?)", w.ModuleID, w.Reason, w.Suggestion)
	}
	return fmt.Sprintf("module %q: %s", w.ModuleID, w.Reason)
}

// Registry manages the set of known module implementations. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry returns an empty registry ready for module registration.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds a module. It returns an error for an empty id or an id that
// is already registered.
func (r *Registry) Register(m Module) error {
	id := m.Descriptor().ID
	if id == "" {
		return fmt.Errorf("module has empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[id]; exists {
		return fmt.Errorf("module %q already registered", id)
	}
	r.modules[id] = m
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func (r *Registry) MustRegister(ms ...Module) *Registry {
	for _, m := range ms {
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
	return r
}

// Get returns the module with the given id, or false if not found.
func (r *Registry) Get(id string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[id]
	return m, ok
}

// List returns a sorted slice of all registered module ids.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.modules))
	for id := range r.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Descriptors returns the descriptors of all registered modules, sorted by id.
func (r *Registry) Descriptors() []Descriptor {
	ids := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.modules[id]; ok {
			out = append(out, m.Descriptor())
		}
	}
	return out
}

// Resolve returns the modules named by cfg.Modules in configuration order.
// Unknown and repeated ids are skipped and reported as warnings; resolution
// of the remaining ids always continues. Resolve performs no I/O.
func (r *Registry) Resolve(cfg *config.Config) ([]Resolved, []Warning) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		out      = make([]Resolved, 0, len(cfg.Modules))
		warnings []Warning
		seen     = make(map[string]bool, len(cfg.Modules))
	)
	for _, id := range cfg.Modules {
		m, ok := r.modules[id]
		if !ok {
			warnings = append(warnings, Warning{
				ModuleID:   id,
				Reason:     "unknown module, skipped",
				Suggestion: r.suggestLocked(id),
			})
			continue
		}
		if seen[id] {
			warnings = append(warnings, Warning{ModuleID: id, Reason: "listed more than once, later entry skipped"})
			continue
		}
		seen[id] = true
		out = append(out, Resolved{
			Module:     m,
			Descriptor: m.Descriptor(),
			Options:    Options(cfg.OptionsFor(id)),
		})
	}
	return out, warnings
}

// suggestLocked returns the closest registered id within suggestDistance.
// Caller must hold r.mu.
func (r *Registry) suggestLocked(id string) string {
	best, bestDist := "", suggestDistance+1
	for known := range r.modules {
		d := levenshtein.ComputeDistance(id, known)
		if d < bestDist || (d == bestDist && known < best) {
			best, bestDist = known, d
		}
	}
	if bestDist > suggestDistance {
		return ""
	}
	return best
}
