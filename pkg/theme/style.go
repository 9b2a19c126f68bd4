package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Styler is a theme compiled against a lipgloss renderer. The renderer's
// color profile decides how (and whether) colors are emitted.
type Styler struct {
	theme     Theme
	separator lipgloss.Style
	failure   lipgloss.Style
	fallback  lipgloss.Style
	styles    map[string]lipgloss.Style
}

// Compile parses every token of t and builds its styles. A nil renderer
// uses lipgloss.DefaultRenderer. The returned error is always a *Error.
func Compile(t Theme, r *lipgloss.Renderer) (*Styler, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}
	p, err := thParseAll(t)
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}

	s := &Styler{
		theme:     t,
		separator: p.separator.Style(r),
		failure:   p.failure.Style(r),
		fallback:  r.NewStyle(),
		styles:    make(map[string]lipgloss.Style, len(p.styles)),
	}
	for key, spec := range p.styles {
		s.styles[key] = spec.Style(r)
	}
	if def, ok := s.styles[DefaultStyleKey]; ok {
		s.fallback = def
	}
	return s, nil
}

// Theme returns the theme the styler was compiled from.
func (s *Styler) Theme() Theme { return s.theme }

// Module returns the style for a module id.
func (s *Styler) Module(id string) lipgloss.Style {
	if st, ok := s.styles[id]; ok {
		return st
	}
	return s.fallback
}

// ModuleLevel returns the style for a module value at level. The lookup
// order is "<id>.<level>", then "<level>", then the module's own style.
func (s *Styler) ModuleLevel(id, level string) lipgloss.Style {
	if level != "" {
		if st, ok := s.styles[LevelStyleKey(id, level)]; ok {
			return st
		}
		if st, ok := s.styles[level]; ok {
			return st
		}
	}
	return s.Module(id)
}

// ApplyLevel renders text in the style for id at level.
func (s *Styler) ApplyLevel(id, level, text string) string {
	return thApply(s.ModuleLevel(id, level), text)
}

// Failure returns the style for failure placeholders.
func (s *Styler) Failure() lipgloss.Style { return s.failure }

// Separator returns the styled separator text.
func (s *Styler) Separator() string {
	return thApply(s.separator, s.theme.Separator)
}

// Apply renders text in the style for id.
func (s *Styler) Apply(id, text string) string {
	return thApply(s.Module(id), text)
}

// ApplyFailure renders text in the failure style.
func (s *Styler) ApplyFailure(text string) string {
	return thApply(s.failure, text)
}

// thApply skips empty text, which lipgloss would otherwise wrap in reset
// sequences.
func thApply(st lipgloss.Style, text string) string {
	if text == "" {
		return ""
	}
	return st.Render(text)
}

// Style builds a lipgloss style for s using renderer r.
func (s Spec) Style(r *lipgloss.Renderer) lipgloss.Style {
	st := r.NewStyle()
	if s.FG != "" {
		st = st.Foreground(lipgloss.Color(s.FG))
	}
	if s.BG != "" {
		st = st.Background(lipgloss.Color(s.BG))
	}
	if s.Bold {
		st = st.Bold(true)
	}
	if s.Italic {
		st = st.Italic(true)
	}
	if s.Underline {
		st = st.Underline(true)
	}
	if s.Faint {
		st = st.Faint(true)
	}
	if s.Reverse {
		st = st.Reverse(true)
	}
	if s.Strike {
		st = st.Strikethrough(true)
	}
	return st
}
