package theme

import (
	"sort"
	"strings"
	"sync"
)

// Truncation names what the formatter does when a line is wider than the
// theme's MaxWidth.
type Truncation string

const (
	// TruncateDropTail drops whole modules from the end of the line until
	// it fits.
	TruncateDropTail Truncation = "drop-tail"
	// TruncateNone renders the line at full width.
	TruncateNone Truncation = "none"
)

// MaxWidthTerminal makes the line as wide as the terminal.
const MaxWidthTerminal = -1

// DefaultStyleKey is the Styles entry used for modules without their own.
const DefaultStyleKey = "default"

// Theme describes how a status line is drawn.
type Theme struct {
	Name string

	// Separator is placed between adjacent modules.
	Separator      string
	SeparatorStyle string // style token for the separator

	// Palette maps color names usable in style tokens to "#RRGGBB" or an
	// ANSI index ("0".."255").
	Palette map[string]string

	// Styles maps module ids to style tokens, e.g. "fg:accent bold".
	Styles map[string]string

	// FailureStyle is applied to a failed module's placeholder.
	FailureStyle string

	// MaxWidth limits the visible width of the line. 0 is unlimited and
	// MaxWidthTerminal follows the terminal.
	MaxWidth   int
	Truncation Truncation

	ShowIcons  bool
	ShowLabels bool
}

// StyleFor returns the style token for a module id, falling back to the
// "default" entry.
func (t Theme) StyleFor(id string) string {
	if s, ok := t.Styles[id]; ok {
		return s
	}
	return t.Styles[DefaultStyleKey]
}

// LevelStyleKey is the Styles key for module id at a severity level, e.g.
// "mcp_status.error".
func LevelStyleKey(id, level string) string { return id + "." + level }

// Clone returns a deep copy of t.
func (t Theme) Clone() Theme {
	out := t
	out.Palette = make(map[string]string, len(t.Palette))
	for k, v := range t.Palette {
		out.Palette[k] = v
	}
	out.Styles = make(map[string]string, len(t.Styles))
	for k, v := range t.Styles {
		out.Styles[k] = v
	}
	return out
}

var (
	mu       sync.RWMutex
	registry = map[string]Theme{}
)

func init() {
	thRegisterBuiltins()
}

// Get returns a named theme, falling back to Default if not found.
func Get(name string) Theme {
	if t, ok := Lookup(name); ok {
		return t
	}
	mu.RLock()
	defer mu.RUnlock()
	return registry["default"].Clone()
}

// Lookup returns a named theme and whether it exists.
func Lookup(name string) (Theme, bool) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := registry[strings.ToLower(name)]
	if !ok {
		return Theme{}, false
	}
	return t.Clone(), true
}

// Names returns all available theme names sorted alphabetically.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register validates t and adds it to the registry under its lowercase
// name, replacing any theme of the same name.
func Register(t Theme) error {
	if err := Validate(t); err != nil {
		return err
	}
	thRegister(t)
	return nil
}

// thRegister adds a theme to the registry under its lowercase name.
func thRegister(t Theme) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(t.Name)] = t.Clone()
}
