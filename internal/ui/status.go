package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/earctl/internal/device"
	"github.com/muurk/earctl/internal/protocol"
	"github.com/muurk/earctl/internal/session"
)

const notReported = "-"

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func stringOr[T fmt.Stringer](v *T) string {
	if v == nil {
		return notReported
	}
	return (*v).String()
}

// RenderStatus renders a snapshot as the status panel. Rows for features
// the model lacks are left out.
func RenderStatus(snap session.Snapshot, width int) string {
	width = clampWidth(width)
	model := snap.Info.Model

	title := snap.Info.Name
	if !model.IsZero() {
		title = model.DisplayName()
	}
	if title == "" {
		title = "No device"
	}

	sections := []string{
		HeaderTitleStyle.Render(strings.ToUpper(title)),
		HeaderCommandStyle.Render(snap.State.String()),
	}

	var info []Param
	if snap.Peripheral != nil {
		info = append(info, Param{"Address", snap.Peripheral.ID})
	}
	if snap.Info.SerialNumber != "" {
		info = append(info, Param{"Serial", snap.Info.SerialNumber})
	}
	if snap.Info.FirmwareVersion != "" {
		info = append(info, Param{"Firmware", snap.Info.FirmwareVersion})
	}
	if len(info) > 0 {
		sections = append(sections, renderSection("Device", info))
	}

	if snap.Battery != nil {
		sections = append(sections, SectionTitleStyle.Render("Battery"), RenderBattery(*snap.Battery, width))
	}

	if snap.State == session.StateConnected {
		if audio := audioParams(snap, model); len(audio) > 0 {
			sections = append(sections, renderSection("Audio", audio))
		}
		if settings := settingsParams(snap, model); len(settings) > 0 {
			sections = append(sections, renderSection("Settings", settings))
		}
		if len(snap.Gestures) > 0 {
			sections = append(sections, renderSection("Gestures", gestureParams(snap.Gestures)))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return PanelStyle(width).Render(content)
}

func renderSection(title string, params []Param) string {
	lines := append([]string{"", SectionTitleStyle.Render(title)}, renderParams(params, HeaderParamKeyStyle.Width(20))...)
	return strings.Join(lines, "\n")
}

// supports treats an unresolved model as capable of everything, so values
// the device reported before the model resolved still show.
func supports(m device.Model, c device.Capability) bool {
	return m.IsZero() || m.Supports(c)
}

func audioParams(snap session.Snapshot, m device.Model) []Param {
	var ps []Param
	if supports(m, device.CapNoiseControl) {
		ps = append(ps, Param{"Noise control", stringOr(snap.NoiseControl)})
	}
	if supports(m, device.CapEQ) || supports(m, device.CapListeningMode) {
		ps = append(ps, Param{"EQ preset", stringOr(snap.EQ)})
	}
	if supports(m, device.CapCustomEQ) && snap.CustomEQ != nil {
		ps = append(ps, Param{"Custom EQ", fmt.Sprintf("bass %+d  mid %+d  treble %+d",
			snap.CustomEQ.Bass, snap.CustomEQ.Mid, snap.CustomEQ.Treble)})
	}
	if supports(m, device.CapEnhancedBass) {
		bass := notReported
		if snap.EnhancedBass != nil {
			bass = onOff(snap.EnhancedBass.Enabled)
			if snap.EnhancedBass.Enabled {
				bass += fmt.Sprintf(" (level %d)", snap.EnhancedBass.Level)
			}
		}
		ps = append(ps, Param{"Enhanced bass", bass})
	}
	if supports(m, device.CapSpatialAudio) {
		ps = append(ps, Param{"Spatial audio", stringOr(snap.SpatialAudio)})
	}
	return ps
}

func settingsParams(snap session.Snapshot, m device.Model) []Param {
	var ps []Param
	if supports(m, device.CapInEarDetection) {
		ps = append(ps, Param{"In-ear detection", onOff(snap.Settings.InEarDetection)})
	}
	if supports(m, device.CapLowLatency) {
		ps = append(ps, Param{"Low latency", onOff(snap.Settings.LowLatency)})
	}
	if supports(m, device.CapPersonalizedANC) {
		ps = append(ps, Param{"Personalized ANC", personalizedANC(snap)})
	}
	if supports(m, device.CapRingBuds) && snap.Ring != nil && snap.Ring.On {
		ps = append(ps, Param{"Ringing", snap.Ring.Bud.String()})
	}
	return ps
}

// personalizedANC marks the setting inactive while the headset is in a
// mode that does not cancel noise.
func personalizedANC(snap session.Snapshot) string {
	v := onOff(snap.Settings.PersonalizedANC)
	if snap.Settings.PersonalizedANC && snap.NoiseControl != nil && !snap.NoiseControl.IsNoiseCancellation() {
		v += " (inactive)"
	}
	return v
}

func gestureParams(gestures []protocol.Gesture) []Param {
	ps := make([]Param, 0, len(gestures))
	for _, g := range gestures {
		ps = append(ps, Param{Key: g.Device.String() + " " + g.Type.String(), Value: g.Action.String()})
	}
	return ps
}
