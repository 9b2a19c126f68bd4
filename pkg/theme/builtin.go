package theme

// Palette color names shared by the built-in themes.
const (
	ColorFG     = "fg"
	ColorDim    = "dim"
	ColorAccent = "accent"
	ColorInfo   = "info"
	ColorOK     = "ok"
	ColorWarn   = "warn"
	ColorError  = "error"
)

// thRegisterBuiltins registers all built-in themes in the registry.
func thRegisterBuiltins() {
	for _, t := range []Theme{
		thDefaultTheme(),
		thPlainTheme(),
		thGruvboxTheme(),
		thNordTheme(),
		thCatppuccinTheme(),
		thDraculaTheme(),
		thTokyoNightTheme(),
	} {
		thRegister(t)
	}
}

// thStandardStyles maps the built-in module ids onto the standard palette
// names.
func thStandardStyles() map[string]string {
	return map[string]string{
		DefaultStyleKey: "fg:fg",
		"time":          "fg:dim",
		"session_time":  "fg:info",
		"model":         "fg:accent bold",
		"cost":          "fg:warn",
		"cwd":           "fg:info",
		"git_branch":    "fg:ok",
		"mcp_status":    "fg:fg",
		"sysload":       "fg:dim",
		"kube":          "fg:accent italic",

		// Severity levels some modules attach to their value.
		"info":  "fg:info",
		"ok":    "fg:ok",
		"warn":  "fg:warn",
		"error": "fg:error",
	}
}

// thPaletteTheme builds a theme that styles the standard module set from a
// palette.
func thPaletteTheme(name string, palette map[string]string) Theme {
	return Theme{
		Name:           name,
		Separator:      " | ",
		SeparatorStyle: "fg:dim",
		Palette:        palette,
		Styles:         thStandardStyles(),
		FailureStyle:   "fg:error",
		Truncation:     TruncateDropTail,
	}
}

// thDefaultTheme returns the dark neutral theme with purple accent.
func thDefaultTheme() Theme {
	return thPaletteTheme("default", map[string]string{
		ColorFG:     "#d4d4d4",
		ColorDim:    "#6b6b6b",
		ColorAccent: "#7C3AED",
		ColorInfo:   "#61afef",
		ColorOK:     "#4ec970",
		ColorWarn:   "#e5c07b",
		ColorError:  "#e06c75",
	})
}

// thPlainTheme returns an unstyled theme. It never fails to render.
func thPlainTheme() Theme {
	return Theme{
		Name:       "plain",
		Separator:  " | ",
		Palette:    map[string]string{},
		Styles:     map[string]string{},
		Truncation: TruncateDropTail,
	}
}

// thGruvboxTheme returns the warm retro Gruvbox theme.
func thGruvboxTheme() Theme {
	return thPaletteTheme("gruvbox", map[string]string{
		ColorFG:     "#ebdbb2",
		ColorDim:    "#928374",
		ColorAccent: "#fe8019",
		ColorInfo:   "#83a598",
		ColorOK:     "#b8bb26",
		ColorWarn:   "#fabd2f",
		ColorError:  "#fb4934",
	})
}

// thNordTheme returns the arctic blue Nord theme.
func thNordTheme() Theme {
	return thPaletteTheme("nord", map[string]string{
		ColorFG:     "#eceff4",
		ColorDim:    "#4c566a",
		ColorAccent: "#88c0d0",
		ColorInfo:   "#5e81ac",
		ColorOK:     "#a3be8c",
		ColorWarn:   "#ebcb8b",
		ColorError:  "#bf616a",
	})
}

// thCatppuccinTheme returns the pastel Catppuccin Mocha theme.
func thCatppuccinTheme() Theme {
	return thPaletteTheme("catppuccin", map[string]string{
		ColorFG:     "#cdd6f4",
		ColorDim:    "#6c7086",
		ColorAccent: "#cba6f7",
		ColorInfo:   "#89b4fa",
		ColorOK:     "#a6e3a1",
		ColorWarn:   "#f9e2af",
		ColorError:  "#f38ba8",
	})
}

// thDraculaTheme returns the Dracula theme.
func thDraculaTheme() Theme {
	return thPaletteTheme("dracula", map[string]string{
		ColorFG:     "#f8f8f2",
		ColorDim:    "#6272a4",
		ColorAccent: "#bd93f9",
		ColorInfo:   "#8be9fd",
		ColorOK:     "#50fa7b",
		ColorWarn:   "#f1fa8c",
		ColorError:  "#ff5555",
	})
}

// thTokyoNightTheme returns the Tokyo Night theme.
func thTokyoNightTheme() Theme {
	return thPaletteTheme("tokyo-night", map[string]string{
		ColorFG:     "#c0caf5",
		ColorDim:    "#565f89",
		ColorAccent: "#7aa2f7",
		ColorInfo:   "#7dcfff",
		ColorOK:     "#9ece6a",
		ColorWarn:   "#e0af68",
		ColorError:  "#f7768e",
	})
}
