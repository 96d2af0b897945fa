package ui

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/earctl/internal/protocol"
)

// FrameBox shows one decoded frame: header fields, the interpreted value
// and a hex dump.
type FrameBox struct {
	Raw     []byte
	Decoded *protocol.Decoded
	Width   int
}

// NewFrameBox creates a box for a frame decoded with protocol.Decode.
func NewFrameBox(raw []byte, d *protocol.Decoded) *FrameBox {
	return &FrameBox{Raw: raw, Decoded: d, Width: GetTerminalWidth()}
}

// SetWidth sets the terminal width for responsive rendering
func (f *FrameBox) SetWidth(width int) *FrameBox {
	f.Width = width
	return f
}

// Render returns the styled box
func (f *FrameBox) Render() string {
	width := clampWidth(f.Width)
	resp := f.Decoded.Response

	params := []Param{
		{"Command", fmt.Sprintf("%s (0x%04X)", protocol.CommandName(resp.Command), uint16(resp.Command))},
		{"Feature", f.Decoded.Feature.String()},
		{"Operation", fmt.Sprint(resp.OperationID)},
		{"Payload", fmt.Sprintf("%d bytes", len(resp.Payload))},
		{"Value", formatValue(f.Decoded.Value)},
	}

	lines := []string{FrameTitleStyle.Render("Frame"), ""}
	lines = append(lines, renderParams(params, ResultKeyStyle)...)
	lines = append(lines, "", FrameContentStyle.Render(strings.TrimRight(hex.Dump(f.Raw), "\n")))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(width-4).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (f *FrameBox) String() string {
	return f.Render()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case []byte:
		if len(v) == 0 {
			return "(empty)"
		}
		return fmt.Sprintf("% X", v)
	case []protocol.Gesture:
		parts := make([]string, 0, len(v))
		for _, g := range v {
			parts = append(parts, fmt.Sprintf("%s %s=%s", g.Device, g.Type, g.Action))
		}
		return strings.Join(parts, ", ")
	case bool:
		return onOff(v)
	case string:
		return fmt.Sprintf("%q", v)
	}
	return fmt.Sprint(v)
}
