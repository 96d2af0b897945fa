package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the banner printed at the start of a command: what is being
// done and to which device.
type Header struct {
	Title   string  // e.g., "Noise Control"
	Command string  // e.g., "earctl anc adaptive"
	Params  []Param // e.g., {"Device", "Nothing Ear (3)"}
	Width   int     // Terminal width for responsive rendering
}

// NewHeader creates a new header with the given values
func NewHeader(title, command string, params ...Param) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := clampWidth(h.Width)

	titleLine := HeaderTitleStyle.Render(strings.ToUpper(h.Title))
	commandLine := HeaderCommandStyle.Render(h.Command)
	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(h.Params) > 0 {
		divider := lipgloss.NewStyle().PaddingLeft(2).Render(RenderHorizontalDivider(width-6, "─"))
		params := strings.Join(renderParams(h.Params, HeaderParamKeyStyle), "\n")
		content = lipgloss.JoinVertical(lipgloss.Left, content, divider, params)
	}

	return PanelStyle(width).Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
