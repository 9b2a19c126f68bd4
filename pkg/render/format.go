package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Segment is one rendered module: its final (possibly styled) text and its
// visible width.
type Segment struct {
	Text  string
	Width int
}

// NewSegment measures text, ignoring ANSI escape sequences.
func NewSegment(text string) Segment {
	return Segment{Text: text, Width: ansi.StringWidth(text)}
}

// Width returns the visible width of s.
func Width(s string) int { return ansi.StringWidth(s) }

// FormatLine joins segments with sep. With maxWidth > 0 it keeps the
// longest prefix of segments whose joined width fits, so segments are
// dropped from the end and never split. Returns "" when nothing fits or
// segments is empty.
func FormatLine(segments []Segment, sep string, maxWidth int) string {
	if len(segments) == 0 {
		return ""
	}

	included := len(segments)
	if maxWidth > 0 {
		sepWidth := ansi.StringWidth(sep)
		total := 0
		included = 0
		for i, seg := range segments {
			needed := seg.Width
			if i > 0 {
				needed += sepWidth
			}
			if total+needed > maxWidth {
				break
			}
			total += needed
			included++
		}
	}

	var b strings.Builder
	for i, seg := range segments[:included] {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}
