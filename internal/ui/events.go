package ui

import (
	"fmt"
	"strings"

	"github.com/muurk/earctl/internal/session"
)

// DescribeEvent is a one-line human description of a session event.
func DescribeEvent(ev session.Event) string {
	switch e := ev.(type) {
	case session.DiscoveredEvent:
		return fmt.Sprintf("found %s (%d dBm)", e.Peripheral, e.Peripheral.RSSI)
	case session.StateChangedEvent:
		return e.State.String()
	case session.ConnectedEvent:
		if e.Err != nil {
			return "connection failed: " + e.Err.Error()
		}
		desc := e.Info.Name
		if !e.Info.Model.IsZero() {
			desc = e.Info.Model.DisplayName()
		}
		if e.Info.FirmwareVersion != "" {
			desc += ", firmware " + e.Info.FirmwareVersion
		}
		return desc
	case session.DisconnectedEvent:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "disconnected"
	case session.BatteryEvent:
		return e.Battery.String()
	case session.NoiseControlEvent:
		return e.Mode.String()
	case session.SpatialAudioEvent:
		return e.Mode.String()
	case session.EnhancedBassEvent:
		return e.EnhancedBass.String()
	case session.EQEvent:
		return e.Preset.String()
	case session.CustomEQEvent:
		return fmt.Sprintf("bass %+d, mid %+d, treble %+d", e.CustomEQ.Bass, e.CustomEQ.Mid, e.CustomEQ.Treble)
	case session.SettingsEvent:
		return fmt.Sprintf("in-ear %s, low latency %s, personalized anc %s",
			onOff(e.Settings.InEarDetection), onOff(e.Settings.LowLatency), onOff(e.Settings.PersonalizedANC))
	case session.RingEvent:
		return e.Ring.String()
	case session.GesturesEvent:
		parts := make([]string, 0, len(e.Gestures))
		for _, g := range e.Gestures {
			parts = append(parts, fmt.Sprintf("%s %s=%s", g.Device, g.Type, g.Action))
		}
		return strings.Join(parts, ", ")
	case session.ErrorEvent:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "error"
	}
	return ev.EventName()
}

// isErrorEvent reports events that should be drawn in the error color.
func isErrorEvent(ev session.Event) bool {
	switch e := ev.(type) {
	case session.ErrorEvent:
		return true
	case session.ConnectedEvent:
		return e.Err != nil
	case session.DisconnectedEvent:
		return e.Err != nil
	}
	return false
}
