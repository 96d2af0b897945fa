package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/earctl/internal/protocol"
)

// Levels below these are drawn in warning and error colors.
const (
	batteryWarnLevel = 40
	batteryLowLevel  = 20
)

// batteryColor picks the bar color for a charge level.
func batteryColor(level int) lipgloss.Color {
	switch {
	case level < batteryLowLevel:
		return ErrorColor
	case level < batteryWarnLevel:
		return WarningColor
	default:
		return SuccessColor
	}
}

// RenderBatteryLevel renders one component as "Label  [bar]  85% charging".
func RenderBatteryLevel(label string, l protocol.BatteryLevel, barWidth int) string {
	name := lipgloss.NewStyle().Foreground(MutedColor).Width(8).Render(label)
	if !l.Connected {
		return "  " + name + StepPendingStyle.Render("not connected")
	}

	bar := progress.New(
		progress.WithSolidFill(string(batteryColor(l.Level))),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)

	text := fmt.Sprintf("%3d%%", l.Level)
	if l.Charging {
		text += " " + StepNoteStyle.Render("charging")
	}
	return "  " + name + bar.ViewAs(float64(l.Level)/100) + "  " + ResultValueStyle.Render(text)
}

// RenderBattery renders every component the snapshot reports. Headphones
// have a single bar, buds have left, right and case.
func RenderBattery(b protocol.Battery, width int) string {
	barWidth := clampWidth(width) - 30
	if barWidth > 30 {
		barWidth = 30
	}

	if b.SingleDevice {
		return RenderBatteryLevel("Battery", b.Single, barWidth)
	}
	lines := []string{
		RenderBatteryLevel("Left", b.Left, barWidth),
		RenderBatteryLevel("Right", b.Right, barWidth),
		RenderBatteryLevel("Case", b.Case, barWidth),
	}
	return strings.Join(lines, "\n")
}
