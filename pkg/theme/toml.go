package theme

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// thTOMLTheme is the TOML-serializable representation of a Theme. Pointer
// fields distinguish "unset" from zero so a theme can inherit from another.
type thTOMLTheme struct {
	Name           string            `toml:"name"`
	Inherits       string            `toml:"inherits,omitempty"`
	Separator      *string           `toml:"separator"`
	SeparatorStyle *string           `toml:"separator_style"`
	FailureStyle   *string           `toml:"failure_style"`
	Layout         thTOMLLayout      `toml:"layout"`
	Palette        map[string]string `toml:"palette"`
	Styles         map[string]string `toml:"styles"`
}

type thTOMLLayout struct {
	MaxWidth   *int    `toml:"max_width"`
	Truncation *string `toml:"truncation"`
	ShowIcons  *bool   `toml:"show_icons"`
	ShowLabels *bool   `toml:"show_labels"`
}

// LoadFromTOML parses a TOML theme definition from raw bytes. When the
// definition names a registered theme in "inherits", unset fields, palette
// colors and styles are taken from it.
func LoadFromTOML(data []byte) (Theme, error) {
	var tt thTOMLTheme
	if err := toml.Unmarshal(data, &tt); err != nil {
		return Theme{}, fmt.Errorf("theme: parse TOML: %w", err)
	}

	t := Theme{
		Separator:  " | ",
		Palette:    map[string]string{},
		Styles:     map[string]string{},
		Truncation: TruncateDropTail,
	}
	if tt.Inherits != "" {
		base, ok := Lookup(tt.Inherits)
		if !ok {
			return Theme{}, fmt.Errorf("theme: %q inherits unknown theme %q", tt.Name, tt.Inherits)
		}
		t = base
	}
	t.Name = tt.Name

	if tt.Separator != nil {
		t.Separator = *tt.Separator
	}
	if tt.SeparatorStyle != nil {
		t.SeparatorStyle = *tt.SeparatorStyle
	}
	if tt.FailureStyle != nil {
		t.FailureStyle = *tt.FailureStyle
	}
	if tt.Layout.MaxWidth != nil {
		t.MaxWidth = *tt.Layout.MaxWidth
	}
	if tt.Layout.Truncation != nil {
		t.Truncation = Truncation(strings.ToLower(*tt.Layout.Truncation))
	}
	if tt.Layout.ShowIcons != nil {
		t.ShowIcons = *tt.Layout.ShowIcons
	}
	if tt.Layout.ShowLabels != nil {
		t.ShowLabels = *tt.Layout.ShowLabels
	}
	for k, v := range tt.Palette {
		t.Palette[k] = v
	}
	for k, v := range tt.Styles {
		t.Styles[k] = v
	}

	if err := Validate(t); err != nil {
		return Theme{}, err
	}
	return t, nil
}

// SaveToTOML serializes a theme to TOML bytes.
func SaveToTOML(t Theme) ([]byte, error) {
	truncation := string(t.Truncation)
	tt := thTOMLTheme{
		Name:           t.Name,
		Separator:      &t.Separator,
		SeparatorStyle: &t.SeparatorStyle,
		FailureStyle:   &t.FailureStyle,
		Layout: thTOMLLayout{
			MaxWidth:   &t.MaxWidth,
			Truncation: &truncation,
			ShowIcons:  &t.ShowIcons,
			ShowLabels: &t.ShowLabels,
		},
		Palette: t.Palette,
		Styles:  t.Styles,
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(tt); err != nil {
		return nil, fmt.Errorf("theme: encode TOML: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadDir loads every *.toml file in dir, in name order, and registers the
// themes that parse. Files that fail are skipped and reported in the joined
// error. A missing directory is not an error.
func LoadDir(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("theme: read dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var (
		loaded []string
		errs   []error
	)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("theme: %s: %w", path, err))
			continue
		}
		t, err := LoadFromTOML(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		thRegister(t)
		loaded = append(loaded, t.Name)
	}
	return loaded, errors.Join(errs...)
}
