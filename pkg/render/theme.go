package render

import (
	"cmp"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mermaidpng/pkg/errors"
)

// Theme holds the palette and typography used when building a diagram.
// Field names follow the Mermaid theme variables they can be overridden by.
type Theme struct {
	Name string `toml:"name"`

	PrimaryColor        string `toml:"primary_color"`
	PrimaryBorderColor  string `toml:"primary_border_color"`
	PrimaryTextColor    string `toml:"primary_text_color"`
	LineColor           string `toml:"line_color"`
	TextColor           string `toml:"text_color"`
	ClusterBackground   string `toml:"cluster_background"`
	ClusterBorder       string `toml:"cluster_border"`
	NoteBackground      string `toml:"note_background"`
	NoteBorder          string `toml:"note_border"`
	NoteTextColor       string `toml:"note_text_color"`
	EdgeLabelBackground string `toml:"edge_label_background"`

	FontFamily string  `toml:"font_family"`
	FontSize   float64 `toml:"font_size"`
}

// DefaultThemeName is used when no theme is configured.
const DefaultThemeName = "default"

var builtinThemes = map[string]Theme{
	"default": {
		Name:                "default",
		PrimaryColor:        "#ECECFF",
		PrimaryBorderColor:  "#9370DB",
		PrimaryTextColor:    "#333333",
		LineColor:           "#333333",
		TextColor:           "#333333",
		ClusterBackground:   "#FFFFDE",
		ClusterBorder:       "#AAAA33",
		NoteBackground:      "#FFF5AD",
		NoteBorder:          "#AAAA33",
		NoteTextColor:       "#333333",
		EdgeLabelBackground: "#E8E8E8",
		FontSize:            14,
	},
	"neutral": {
		Name:                "neutral",
		PrimaryColor:        "#EEEEEE",
		PrimaryBorderColor:  "#999999",
		PrimaryTextColor:    "#333333",
		LineColor:           "#666666",
		TextColor:           "#333333",
		ClusterBackground:   "#F4F4F4",
		ClusterBorder:       "#999999",
		NoteBackground:      "#666666",
		NoteBorder:          "#999999",
		NoteTextColor:       "#FFFFFF",
		EdgeLabelBackground: "#FFFFFF",
		FontSize:            14,
	},
	"dark": {
		Name:                "dark",
		PrimaryColor:        "#1F2020",
		PrimaryBorderColor:  "#CCCCCC",
		PrimaryTextColor:    "#CCCCCC",
		LineColor:           "#D3D3D3",
		TextColor:           "#CCCCCC",
		ClusterBackground:   "#302F3D",
		ClusterBorder:       "#BFBFBF",
		NoteBackground:      "#FFF5AD",
		NoteBorder:          "#BFBFBF",
		NoteTextColor:       "#333333",
		EdgeLabelBackground: "#585858",
		FontSize:            14,
	},
	"forest": {
		Name:                "forest",
		PrimaryColor:        "#CDE498",
		PrimaryBorderColor:  "#13540C",
		PrimaryTextColor:    "#000000",
		LineColor:           "#008000",
		TextColor:           "#000000",
		ClusterBackground:   "#CDFFB2",
		ClusterBorder:       "#6EAA49",
		NoteBackground:      "#FFF5AD",
		NoteBorder:          "#6EAA49",
		NoteTextColor:       "#000000",
		EdgeLabelBackground: "#E8E8E8",
		FontSize:            14,
	},
	"base": {
		Name:                "base",
		PrimaryColor:        "#FFF4DD",
		PrimaryBorderColor:  "#C9A96E",
		PrimaryTextColor:    "#333333",
		LineColor:           "#333333",
		TextColor:           "#333333",
		ClusterBackground:   "#FFFCF2",
		ClusterBorder:       "#C9A96E",
		NoteBackground:      "#FFF5AD",
		NoteBorder:          "#C9A96E",
		NoteTextColor:       "#333333",
		EdgeLabelBackground: "#FFFFFF",
		FontSize:            14,
	},
}

// ThemeNames returns the built-in theme names, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// BuiltinTheme returns the built-in theme with the given name.
func BuiltinTheme(name string) (Theme, bool) {
	t, ok := builtinThemes[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// LoadTheme resolves a theme by built-in name or, when nameOrPath names a
// .toml file, by decoding it. A theme file may set extends = "<builtin>" to
// start from a built-in palette; unset fields keep the base values.
func LoadTheme(nameOrPath string) (Theme, error) {
	if nameOrPath == "" {
		nameOrPath = DefaultThemeName
	}
	if t, ok := BuiltinTheme(nameOrPath); ok {
		return t, nil
	}
	if !strings.EqualFold(filepath.Ext(nameOrPath), ".toml") {
		return Theme{}, errors.New(errors.ErrCodeInvalidTheme,
			"unknown theme %q (available: %s)", nameOrPath, strings.Join(ThemeNames(), ", "))
	}

	data, err := os.ReadFile(nameOrPath)
	if err != nil {
		return Theme{}, errors.Wrap(errors.ErrCodeInvalidTheme, err, "read theme file")
	}

	var head struct {
		Extends string `toml:"extends"`
	}
	if _, err := toml.Decode(string(data), &head); err != nil {
		return Theme{}, errors.Wrap(errors.ErrCodeInvalidTheme, err, "parse theme file %s", nameOrPath)
	}
	base, ok := BuiltinTheme(cmp.Or(head.Extends, DefaultThemeName))
	if !ok {
		return Theme{}, errors.New(errors.ErrCodeInvalidTheme, "theme file %s extends unknown theme %q", nameOrPath, head.Extends)
	}

	file := struct {
		Extends string `toml:"extends"`
		Theme
	}{Theme: base}
	file.Name = strings.TrimSuffix(filepath.Base(nameOrPath), filepath.Ext(nameOrPath))
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return Theme{}, errors.Wrap(errors.ErrCodeInvalidTheme, err, "parse theme file %s", nameOrPath)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Theme{}, errors.New(errors.ErrCodeInvalidTheme, "theme file %s: unknown keys %s", nameOrPath, strings.Join(keys, ", "))
	}
	t := file.Theme
	if t.FontSize <= 0 {
		return Theme{}, errors.New(errors.ErrCodeInvalidTheme, "theme file %s: font_size must be positive", nameOrPath)
	}
	return t, nil
}

// WithVariables returns a copy of t with Mermaid themeVariables applied.
// Unknown variables are ignored.
func (t Theme) WithVariables(vars map[string]string) Theme {
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		v := strings.TrimSpace(vars[k])
		if v == "" {
			continue
		}
		switch k {
		case "primaryColor", "mainBkg":
			t.PrimaryColor = v
		case "primaryBorderColor", "nodeBorder":
			t.PrimaryBorderColor = v
		case "primaryTextColor", "nodeTextColor":
			t.PrimaryTextColor = v
		case "lineColor":
			t.LineColor = v
		case "textColor", "titleColor":
			t.TextColor = v
		case "clusterBkg":
			t.ClusterBackground = v
		case "clusterBorder":
			t.ClusterBorder = v
		case "noteBkgColor":
			t.NoteBackground = v
		case "noteBorderColor":
			t.NoteBorder = v
		case "noteTextColor":
			t.NoteTextColor = v
		case "edgeLabelBackground":
			t.EdgeLabelBackground = v
		case "fontSize":
			if size, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil && size > 0 {
				t.FontSize = size
			}
		}
	}
	return t
}
