// Package render turns a Record of module results into the final status
// line using a theme.
package render

import (
	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
	"gitlab.com/tinyland/lab/cc-statusline/pkg/theme"
)

// Item pairs a module's descriptor with its result for one tick.
type Item struct {
	Descriptor modules.Descriptor
	Result     modules.Result
}

// Record is the ordered input to the formatter. Its order is the
// configuration's module order.
type Record []Item

// Failed returns the items whose result is a failure.
func (r Record) Failed() []Item {
	var out []Item
	for _, it := range r {
		if !it.Result.OK {
			out = append(out, it)
		}
	}
	return out
}

// Formatter renders records with a theme.
type Formatter struct {
	renderer  *lipgloss.Renderer
	termWidth func() int
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithTerminalWidth sets the function used to resolve a theme MaxWidth of
// theme.MaxWidthTerminal. A result <= 0 means unlimited.
func WithTerminalWidth(fn func() int) Option {
	return func(f *Formatter) { f.termWidth = fn }
}

// New returns a Formatter that styles through r. A nil r uses the lipgloss
// default renderer.
func New(r *lipgloss.Renderer, opts ...Option) *Formatter {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	f := &Formatter{
		renderer:  r,
		termWidth: func() int { return 0 },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Render builds the line for rec. Items are joined with the theme's styled
// separator; a failed item shows its placeholder in the failure style
// unless its descriptor asks to be omitted. When the line is wider than the
// theme allows, whole items are dropped from the end.
//
// Any problem with the theme is returned as a *theme.Error.
func (f *Formatter) Render(rec Record, th theme.Theme) (string, error) {
	styler, err := theme.Compile(th, f.renderer)
	if err != nil {
		return "", err
	}

	segs := make([]Segment, 0, len(rec))
	for _, it := range rec {
		if seg, ok := f.segment(it, th, styler); ok {
			segs = append(segs, seg)
		}
	}

	maxWidth := th.MaxWidth
	if maxWidth == theme.MaxWidthTerminal {
		maxWidth = f.termWidth()
	}
	if th.Truncation == theme.TruncateNone {
		maxWidth = 0
	}
	return FormatLine(segs, styler.Separator(), maxWidth), nil
}

func (f *Formatter) segment(it Item, th theme.Theme, s *theme.Styler) (Segment, bool) {
	d := it.Descriptor
	prefix := ssPrefix(d, th.ShowIcons, th.ShowLabels)

	if !it.Result.OK {
		if d.OmitOnFailure {
			return Segment{}, false
		}
		return NewSegment(s.Apply(d.ID, prefix) + s.ApplyFailure(d.Placeholder())), true
	}
	if it.Result.Text == "" {
		return Segment{}, false
	}
	return NewSegment(s.ApplyLevel(d.ID, string(it.Result.Level), prefix+it.Result.Text)), true
}

// Plain renders rec without any styling, icons or labels. It cannot fail
// and is the fallback when a theme is broken.
func Plain(rec Record, sep string, maxWidth int) string {
	segs := make([]Segment, 0, len(rec))
	for _, it := range rec {
		switch {
		case !it.Result.OK && it.Descriptor.OmitOnFailure:
		case !it.Result.OK:
			segs = append(segs, NewSegment(it.Descriptor.Placeholder()))
		case it.Result.Text != "":
			segs = append(segs, NewSegment(it.Result.Text))
		}
	}
	return FormatLine(segs, sep, maxWidth)
}

// ssPrefix is the icon and label shown before a module's value.
func ssPrefix(d modules.Descriptor, icons, labels bool) string {
	var prefix string
	if icons && d.Icon != "" {
		prefix += d.Icon + " "
	}
	if labels && d.Label != "" {
		prefix += d.Label + ": "
	}
	return prefix
}
