package device

import (
	"fmt"
	"strings"
)

// Line is a product line, ignoring color.
type Line int

const (
	LineUnknown Line = iota
	LineEar1
	LineEar2
	LineEar3
	LineEarStick
	LineEarOpen
	LineEar
	LineEarA
	LineHeadphone1
	LineCMFBudsPro
	LineCMFBuds
	LineCMFBuds2a
	LineCMFBuds2
	LineCMFBuds2Plus
	LineCMFBudsPro2
	LineCMFNeckbandPro
	LineCMFHeadphonePro
)

// Color is the color or trim of a unit.
type Color int

const (
	ColorNone Color = iota
	ColorBlack
	ColorWhite
	ColorYellow
	ColorGrey
	ColorOrange
	ColorBlue
	ColorLightGrey
	ColorDarkGrey
	ColorLightGreen
)

var colorNames = map[Color]string{
	ColorNone:       "",
	ColorBlack:      "black",
	ColorWhite:      "white",
	ColorYellow:     "yellow",
	ColorGrey:       "grey",
	ColorOrange:     "orange",
	ColorBlue:       "blue",
	ColorLightGrey:  "light-grey",
	ColorDarkGrey:   "dark-grey",
	ColorLightGreen: "light-green",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("color(%d)", int(c))
}

// ParseColor parses a color name as printed by String. The empty string is ColorNone.
func ParseColor(s string) (Color, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for c, name := range colorNames {
		if name == s {
			return c, nil
		}
	}
	return ColorNone, fmt.Errorf("unknown color %q", s)
}

type lineInfo struct {
	name   string
	code   string
	colors []Color // first entry is the default for name-only detection
	short  string
}

var lines = map[Line]lineInfo{
	LineEar1:            {"Nothing Ear (1)", "B181", []Color{ColorBlack, ColorWhite}, "ear1"},
	LineEar2:            {"Nothing Ear (2)", "B155", []Color{ColorBlack, ColorWhite}, "ear2"},
	LineEar3:            {"Nothing Ear (3)", "B173", []Color{ColorBlack, ColorWhite}, "ear3"},
	LineEarStick:        {"Nothing Ear (stick)", "B157", []Color{ColorNone}, "ear-stick"},
	LineEarOpen:         {"Nothing Ear (open)", "B174", []Color{ColorNone}, "ear-open"},
	LineEar:             {"Nothing Ear", "B171", []Color{ColorBlack, ColorWhite}, "ear"},
	LineEarA:            {"Nothing Ear (a)", "B162", []Color{ColorBlack, ColorWhite, ColorYellow}, "ear-a"},
	LineHeadphone1:      {"Nothing Headphone (1)", "B170", []Color{ColorBlack, ColorGrey}, "headphone1"},
	LineCMFBudsPro:      {"CMF Buds Pro", "B163", []Color{ColorBlack, ColorWhite, ColorOrange}, "cmf-buds-pro"},
	LineCMFBuds:         {"CMF Buds", "B168", []Color{ColorBlack, ColorWhite, ColorOrange}, "cmf-buds"},
	LineCMFBuds2a:       {"CMF Buds 2a", "B185", []Color{ColorDarkGrey, ColorLightGrey, ColorOrange}, "cmf-buds-2a"},
	LineCMFBuds2:        {"CMF Buds 2", "B179", []Color{ColorDarkGrey, ColorLightGreen, ColorOrange}, "cmf-buds-2"},
	LineCMFBuds2Plus:    {"CMF Buds 2 Plus", "B184", []Color{ColorLightGrey, ColorBlue}, "cmf-buds-2-plus"},
	LineCMFBudsPro2:     {"CMF Buds Pro 2", "B172", []Color{ColorBlack, ColorWhite, ColorOrange, ColorBlue}, "cmf-buds-pro-2"},
	LineCMFNeckbandPro:  {"CMF Neckband Pro", "B164", []Color{ColorBlack, ColorWhite, ColorOrange}, "cmf-neckband-pro"},
	LineCMFHeadphonePro: {"CMF Headphone Pro", "B175", []Color{ColorDarkGrey, ColorLightGrey, ColorLightGreen}, "cmf-headphone-pro"},
}

// AllLines lists every known product line.
var AllLines = []Line{
	LineEar1, LineEar2, LineEar3, LineEarStick, LineEarOpen, LineEar, LineEarA,
	LineHeadphone1, LineCMFBudsPro, LineCMFBuds, LineCMFBuds2a, LineCMFBuds2,
	LineCMFBuds2Plus, LineCMFBudsPro2, LineCMFNeckbandPro, LineCMFHeadphonePro,
}

// DisplayName is the marketing name, e.g. "CMF Buds Pro 2".
func (l Line) DisplayName() string {
	if info, ok := lines[l]; ok {
		return info.name
	}
	return "Unknown"
}

// Code is the product code, e.g. "B172".
func (l Line) Code() string {
	return lines[l].code
}

// Colors lists the colors the line ships in.
func (l Line) Colors() []Color {
	return lines[l].colors
}

// IsCMF reports whether the line is a CMF by Nothing product.
func (l Line) IsCMF() bool {
	return strings.HasPrefix(lines[l].name, "CMF ")
}

func (l Line) String() string {
	if info, ok := lines[l]; ok {
		return info.short
	}
	return "unknown"
}

// ParseLine accepts a short name ("cmf-buds-2"), a product code ("B179") or a
// display name.
func ParseLine(s string) (Line, error) {
	s = strings.TrimSpace(s)
	for l, info := range lines {
		if strings.EqualFold(s, info.short) || strings.EqualFold(s, info.code) || s == info.name {
			return l, nil
		}
	}
	return LineUnknown, fmt.Errorf("unknown product line %q", s)
}

// LineByCode returns the line with the given product code.
func LineByCode(code string) (Line, bool) {
	for l, info := range lines {
		if strings.EqualFold(info.code, code) {
			return l, true
		}
	}
	return LineUnknown, false
}

// Model is a concrete hardware variant.
type Model struct {
	Line  Line
	Color Color
}

// IsZero reports whether the model is unresolved.
func (m Model) IsZero() bool {
	return m.Line == LineUnknown
}

// SameLine reports whether both models belong to the same product line.
func (m Model) SameLine(other Model) bool {
	return m.Line == other.Line
}

// DisplayName is the line name with the color appended when there is one.
func (m Model) DisplayName() string {
	if m.Color == ColorNone {
		return m.Line.DisplayName()
	}
	return fmt.Sprintf("%s (%s)", m.Line.DisplayName(), m.Color)
}

func (m Model) String() string {
	if m.Color == ColorNone {
		return m.Line.String()
	}
	return m.Line.String() + "/" + m.Color.String()
}

// MarshalText implements encoding.TextMarshaler as "line/color".
func (m Model) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Model) UnmarshalText(text []byte) error {
	linePart, colorPart, _ := strings.Cut(string(text), "/")
	if linePart == "" || linePart == "unknown" {
		*m = Model{}
		return nil
	}
	l, err := ParseLine(linePart)
	if err != nil {
		return err
	}
	c, err := ParseColor(colorPart)
	if err != nil {
		return err
	}
	*m = Model{Line: l, Color: c}
	return nil
}
