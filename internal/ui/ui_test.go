package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/earctl/internal/device"
	"github.com/muurk/earctl/internal/protocol"
	"github.com/muurk/earctl/internal/session"
)

const testWidth = 80

func TestHeaderRender(t *testing.T) {
	out := NewHeader("Noise control", "earctl anc adaptive", Param{"Device", "Nothing Ear (3)"}).
		SetWidth(testWidth).
		Render()

	assert.Contains(t, out, "NOISE CONTROL")
	assert.Contains(t, out, "earctl anc adaptive")
	assert.Contains(t, out, "Device:")
	assert.Contains(t, out, "Nothing Ear (3)")
}

func TestResultRender(t *testing.T) {
	success := NewSuccessResult("EQ set", Param{"Preset", "voice"}, Param{"Device", "Ear (a)"}).SetWidth(testWidth).Render()
	assert.Contains(t, success, SuccessMarker)
	assert.Less(t, strings.Index(success, "Preset"), strings.Index(success, "Device"), "details keep their order")

	failure := NewFailureResult("Connect", errors.New("radio off"), []string{"Turn Bluetooth on"}).SetWidth(testWidth).Render()
	assert.Contains(t, failure, "FAILED")
	assert.Contains(t, failure, "radio off")
	assert.Contains(t, failure, "Turn Bluetooth on")

	warning := NewWarningResult("Battery low", Param{"Left", "12%"}).SetWidth(testWidth).Render()
	assert.Contains(t, warning, "WARNING")
	assert.Contains(t, warning, "12%")
}

func TestProgressUpdateStep(t *testing.T) {
	p := NewProgress("Bluetooth", "Find device", "Connect", "Handshake").SetWidth(testWidth)

	p.UpdateStep(1, StepComplete, "")
	p.UpdateStep(2, StepRunning, "")
	assert.Equal(t, 2, p.Current)
	assert.InDelta(t, 0.25, p.Percent, 0.001)

	p.UpdateStep(2, StepSkipped, "already connected")
	p.UpdateStep(3, StepFailed, "timeout")
	assert.InDelta(t, 0.5, p.Percent, 0.001)

	p.UpdateStep(9, StepComplete, "")
	assert.InDelta(t, 0.5, p.Percent, 0.001)

	out := p.Render()
	assert.Contains(t, out, "[2/4]")
	assert.Contains(t, out, "already connected")
}

func TestRunner(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerConfig{Title: "Connect", Command: "earctl status", Steps: []string{"Bluetooth"}, Output: &buf})

		err := r.Run(func(onStep StepCallback) ([]Param, error) {
			onStep(1, StepRunning, "")
			onStep(1, StepComplete, "powered on")
			return []Param{{"Model", "ear3/white"}}, nil
		})
		require.NoError(t, err)
		out := buf.String()
		assert.Contains(t, out, "CONNECT")
		assert.Contains(t, out, "powered on")
		assert.Contains(t, out, "Connect complete")
		assert.Contains(t, out, "ear3/white")
		assert.Contains(t, out, "Duration")
	})

	t.Run("failure", func(t *testing.T) {
		var buf bytes.Buffer
		want := errors.New("no device")
		r := NewRunner(RunnerConfig{Title: "Connect", Troubleshooting: []string{"Open the case"}, Output: &buf})

		err := r.Run(func(StepCallback) ([]Param, error) { return nil, want })
		assert.Same(t, want, err)
		assert.Contains(t, buf.String(), "Open the case")
	})

	t.Run("tips for error", func(t *testing.T) {
		var buf bytes.Buffer
		special := errors.New("not supported")
		r := NewRunner(RunnerConfig{
			Title:           "Set",
			Troubleshooting: []string{"Open the case"},
			TipsFor: func(err error) []string {
				if errors.Is(err, special) {
					return []string{"Pick another setting"}
				}
				return nil
			},
			Output: &buf,
		})

		_ = r.Run(func(StepCallback) ([]Param, error) { return nil, special })
		assert.Contains(t, buf.String(), "Pick another setting")
		assert.NotContains(t, buf.String(), "Open the case")
	})

	t.Run("quiet", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerConfig{Title: "Connect", Quiet: true, Output: &buf})
		require.NoError(t, r.Run(func(StepCallback) ([]Param, error) { return nil, nil }))
		assert.Empty(t, buf.String())
	})
}

func TestRenderBattery(t *testing.T) {
	buds := RenderBattery(protocol.Battery{
		Case:  protocol.BatteryLevel{Level: 60, Connected: true, Charging: true},
		Left:  protocol.BatteryLevel{Level: 85, Connected: true},
		Right: protocol.BatteryLevel{},
	}, testWidth)
	assert.Contains(t, buds, "Left")
	assert.Contains(t, buds, "85%")
	assert.Contains(t, buds, "charging")
	assert.Contains(t, buds, "not connected")

	single := RenderBattery(protocol.Battery{SingleDevice: true, Single: protocol.BatteryLevel{Level: 7, Connected: true}}, testWidth)
	assert.Contains(t, single, "Battery")
	assert.Contains(t, single, "7%")
	assert.NotContains(t, single, "Case")
}

func TestBatteryColor(t *testing.T) {
	assert.Equal(t, ErrorColor, batteryColor(5))
	assert.Equal(t, WarningColor, batteryColor(30))
	assert.Equal(t, SuccessColor, batteryColor(40))
}

func TestRenderStatus(t *testing.T) {
	mode := protocol.NoiseControlAdaptive
	snap := session.Snapshot{
		State: session.StateConnected,
		Info: session.DeviceInfo{
			Model:           device.Model{Line: device.LineEar3, Color: device.ColorWhite},
			SerialNumber:    "SH10252535010003",
			FirmwareVersion: "1.0.0.100",
		},
		NoiseControl: &mode,
		Settings:     protocol.DeviceSettings{LowLatency: true},
	}

	out := RenderStatus(snap, testWidth)
	assert.Contains(t, out, "SH10252535010003")
	assert.Contains(t, out, "adaptive")
	assert.Contains(t, out, "Personalized ANC")

	snap.Info.Model = device.Model{Line: device.LineEarOpen}
	snap.NoiseControl = nil
	out = RenderStatus(snap, testWidth)
	assert.NotContains(t, out, "Noise control")
	assert.NotContains(t, out, "In-ear detection")
	assert.Contains(t, out, "Low latency")
}

func TestRenderStatusPersonalizedANCInactive(t *testing.T) {
	mode := protocol.NoiseControlTransparent
	snap := session.Snapshot{
		State:        session.StateConnected,
		Info:         session.DeviceInfo{Model: device.Model{Line: device.LineEar3, Color: device.ColorWhite}},
		NoiseControl: &mode,
		Settings:     protocol.DeviceSettings{PersonalizedANC: true},
	}
	assert.Contains(t, RenderStatus(snap, testWidth), "on (inactive)")

	mode = protocol.NoiseControlHigh
	assert.NotContains(t, RenderStatus(snap, testWidth), "inactive")
}

func TestRenderStatusDisconnected(t *testing.T) {
	out := RenderStatus(session.Snapshot{}, testWidth)
	assert.Contains(t, out, "NO DEVICE")
	assert.Contains(t, out, "disconnected")
	assert.NotContains(t, out, "Audio")
}

func TestDescribeEvent(t *testing.T) {
	tests := []struct {
		ev   session.Event
		want string
	}{
		{session.StateChangedEvent{State: session.StateScanning}, "scanning"},
		{session.NoiseControlEvent{Mode: protocol.NoiseControlHigh}, "high"},
		{session.EQEvent{Preset: protocol.EQVoice}, "voice"},
		{session.CustomEQEvent{CustomEQ: protocol.CustomEQ{Bass: 2, Mid: 0, Treble: -3}}, "bass +2, mid +0, treble -3"},
		{session.SettingsEvent{Settings: protocol.DeviceSettings{LowLatency: true}}, "in-ear off, low latency on, personalized anc off"},
		{session.DisconnectedEvent{}, "disconnected"},
		{session.ConnectedEvent{Info: session.DeviceInfo{Name: "Nothing Ear", FirmwareVersion: "2.0"}}, "Nothing Ear, firmware 2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.ev.EventName(), func(t *testing.T) {
			assert.Equal(t, tt.want, DescribeEvent(tt.ev))
		})
	}
}

func TestFrameBox(t *testing.T) {
	raw := protocol.Request{Command: protocol.RespLowLatency, Payload: protocol.EncodeLowLatency(true), OperationID: 7}.MustEncode()
	d, err := protocol.Decode(raw, false)
	require.NoError(t, err)

	out := NewFrameBox(raw, d).SetWidth(testWidth).Render()
	assert.Contains(t, out, "low_latency")
	assert.Contains(t, out, "on")
	assert.Contains(t, out, "55 60 01")
}

func newTestMonitor(events chan session.Event, refresh func(context.Context) error) Monitor {
	m := NewMonitor(session.Snapshot{}, events, refresh)
	m.now = func() time.Time { return time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC) }
	return m
}

func TestMonitorAppliesEvents(t *testing.T) {
	events := make(chan session.Event, 1)
	var model tea.Model = newTestMonitor(events, nil)

	model, cmd := model.Update(eventMsg{session.NoiseControlEvent{Mode: protocol.NoiseControlLow}})
	require.NotNil(t, cmd, "keeps listening")

	m := model.(Monitor)
	require.NotNil(t, m.Snapshot().NoiseControl)
	assert.Equal(t, protocol.NoiseControlLow, *m.Snapshot().NoiseControl)
	assert.Contains(t, m.View(), "15:04:05")
	assert.Contains(t, m.View(), "noise_control")

	events <- session.EQEvent{Preset: protocol.EQVoice}
	msg := cmd()
	assert.Equal(t, eventMsg{session.EQEvent{Preset: protocol.EQVoice}}, msg)
}

func TestMonitorLogIsBounded(t *testing.T) {
	var model tea.Model = newTestMonitor(make(chan session.Event), nil)
	for i := 0; i < maxLogLines+5; i++ {
		model, _ = model.Update(eventMsg{session.StateChangedEvent{State: session.StateScanning}})
	}
	assert.Len(t, model.(Monitor).log, maxLogLines)
}

func TestMonitorKeys(t *testing.T) {
	called := false
	refresh := func(context.Context) error {
		called = true
		return errors.New("not connected")
	}
	var model tea.Model = newTestMonitor(make(chan session.Event), refresh)

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.True(t, called)

	model, _ = model.Update(msg)
	assert.Contains(t, model.View(), "not connected")

	_, cmd = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestMonitorQuitsWhenStreamCloses(t *testing.T) {
	events := make(chan session.Event)
	close(events)
	m := newTestMonitor(events, nil)

	msg := m.Init()()
	assert.Equal(t, streamClosedMsg{}, msg)

	model, cmd := m.Update(msg)
	assert.Contains(t, model.View(), "session closed")
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(tt.input), &out, "Forget device", []string{"Nickname is lost"}, "Continue?")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "Continue?")
	}
}
