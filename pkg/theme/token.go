package theme

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrMissingStyle reports a style token that names a color the theme's
	// palette does not define.
	ErrMissingStyle = errors.New("undefined palette color")
	// ErrBadToken reports a style token that cannot be parsed.
	ErrBadToken = errors.New("malformed style token")
)

// Error is returned for any problem with a theme's descriptor. Callers use
// errors.As to tell it apart from other failures.
type Error struct {
	Theme string
	Key   string // style key, e.g. a module id or "separator"
	Token string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "theme %q", e.Theme)
	if e.Key != "" {
		fmt.Fprintf(&b, ": style %q", e.Key)
	}
	if e.Token != "" {
		fmt.Fprintf(&b, ": token %q", e.Token)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

var thHexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Spec is a parsed style token.
type Spec struct {
	FG, BG    string // resolved color: "#RRGGBB" or an ANSI index
	Bold      bool
	Italic    bool
	Underline bool
	Faint     bool
	Reverse   bool
	Strike    bool
}

// IsZero reports whether s applies no styling.
func (s Spec) IsZero() bool { return s == Spec{} }

// ParseSpec parses a style token such as "fg:accent bg:#1e1e1e bold".
// Fields are separated by whitespace. Colors are a palette name, "#RRGGBB",
// or an ANSI index 0-255. An empty token is valid and applies nothing.
func ParseSpec(token string, palette map[string]string) (Spec, error) {
	var s Spec
	for _, field := range strings.Fields(token) {
		if key, val, ok := strings.Cut(field, ":"); ok {
			color, err := thResolveColor(val, palette)
			if err != nil {
				return Spec{}, err
			}
			switch strings.ToLower(key) {
			case "fg":
				s.FG = color
			case "bg":
				s.BG = color
			default:
				return Spec{}, fmt.Errorf("%w: unknown color target %q", ErrBadToken, key)
			}
			continue
		}

		switch strings.ToLower(field) {
		case "bold":
			s.Bold = true
		case "italic":
			s.Italic = true
		case "underline":
			s.Underline = true
		case "dim", "faint":
			s.Faint = true
		case "reverse", "inverse":
			s.Reverse = true
		case "strikethrough", "strike":
			s.Strike = true
		case "none", "plain":
		default:
			return Spec{}, fmt.Errorf("%w: unknown attribute %q", ErrBadToken, field)
		}
	}
	return s, nil
}

// thResolveColor turns a token color into a literal color.
func thResolveColor(val string, palette map[string]string) (string, error) {
	switch {
	case val == "":
		return "", fmt.Errorf("%w: empty color", ErrBadToken)
	case strings.HasPrefix(val, "#"):
		if !thHexColorRegex.MatchString(val) {
			return "", fmt.Errorf("%w: invalid hex color %q (expected #RRGGBB)", ErrBadToken, val)
		}
		return val, nil
	case thIsANSIIndex(val):
		return val, nil
	}

	lit, ok := palette[val]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingStyle, val)
	}
	if !thValidColor(lit) {
		return "", fmt.Errorf("%w: palette color %q has invalid value %q", ErrBadToken, val, lit)
	}
	return lit, nil
}

func thIsANSIIndex(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0 && n <= 255
}

func thValidColor(s string) bool {
	return thHexColorRegex.MatchString(s) || thIsANSIIndex(s)
}

// Validate checks every style token and the layout settings of t.
func Validate(t Theme) error {
	if t.Name == "" {
		return &Error{Theme: t.Name, Err: fmt.Errorf("%w: missing name", ErrBadToken)}
	}
	for name, val := range t.Palette {
		if !thValidColor(val) {
			return &Error{Theme: t.Name, Key: "palette." + name, Token: val,
				Err: fmt.Errorf("%w: invalid color (expected #RRGGBB or 0-255)", ErrBadToken)}
		}
	}
	switch t.Truncation {
	case "", TruncateDropTail, TruncateNone:
	default:
		return &Error{Theme: t.Name, Key: "truncation", Token: string(t.Truncation),
			Err: fmt.Errorf("%w: unknown truncation policy", ErrBadToken)}
	}
	if t.MaxWidth < MaxWidthTerminal {
		return &Error{Theme: t.Name, Key: "max_width", Token: strconv.Itoa(t.MaxWidth),
			Err: fmt.Errorf("%w: max width must be >= -1", ErrBadToken)}
	}

	_, err := thParseAll(t)
	return err
}

// thParsed holds every parsed token of a theme.
type thParsed struct {
	separator Spec
	failure   Spec
	styles    map[string]Spec
}

func thParseAll(t Theme) (thParsed, error) {
	parse := func(key, token string) (Spec, error) {
		s, err := ParseSpec(token, t.Palette)
		if err != nil {
			return Spec{}, &Error{Theme: t.Name, Key: key, Token: token, Err: err}
		}
		return s, nil
	}

	var (
		p   = thParsed{styles: make(map[string]Spec, len(t.Styles))}
		err error
	)
	if p.separator, err = parse("separator", t.SeparatorStyle); err != nil {
		return thParsed{}, err
	}
	if p.failure, err = parse("failure", t.FailureStyle); err != nil {
		return thParsed{}, err
	}
	for key, token := range t.Styles {
		if p.styles[key], err = parse(key, token); err != nil {
			return thParsed{}, err
		}
	}
	return p, nil
}
