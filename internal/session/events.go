package session

import (
	"encoding/json"
	"fmt"

	"github.com/muurk/earctl/internal/device"
	"github.com/muurk/earctl/internal/protocol"
)

// State is the connection state.
type State int

const (
	StateDisconnected State = iota
	StateScanning
	StateConnecting
	StateConnected
	StateFoundConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateScanning:
		return "scanning"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFoundConnected:
		return "found_connected"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so bridge clients can
// decode snapshots.
func (s *State) UnmarshalText(text []byte) error {
	for st := StateDisconnected; st <= StateFoundConnected; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// DeviceInfo describes the connected peripheral. It starts empty on connect
// and fills in as the handshake answers arrive.
type DeviceInfo struct {
	Model           device.Model `json:"model"`
	Name            string       `json:"name"`
	Address         string       `json:"address,omitempty"`
	SerialNumber    string       `json:"serial_number,omitempty"`
	FirmwareVersion string       `json:"firmware_version,omitempty"`
}

// Snapshot is a copy of everything the session currently knows. Nil fields
// have not been reported yet.
type Snapshot struct {
	State        State                      `json:"state"`
	Peripheral   *Peripheral                `json:"peripheral,omitempty"`
	Info         DeviceInfo                 `json:"info"`
	Settings     protocol.DeviceSettings    `json:"settings"`
	Battery      *protocol.Battery          `json:"battery,omitempty"`
	NoiseControl *protocol.NoiseControlMode `json:"noise_control,omitempty"`
	EnhancedBass *protocol.EnhancedBass     `json:"enhanced_bass,omitempty"`
	EQ           *protocol.EQPreset         `json:"eq,omitempty"`
	CustomEQ     *protocol.CustomEQ         `json:"custom_eq,omitempty"`
	SpatialAudio *protocol.SpatialAudioMode `json:"spatial_audio,omitempty"`
	Ring         *protocol.RingState        `json:"ring,omitempty"`
	Gestures     []protocol.Gesture         `json:"gestures,omitempty"`
}

// Event is anything the session reports to its owner.
type Event interface {
	EventName() string
}

// DiscoveredEvent reports a peripheral seen while scanning.
type DiscoveredEvent struct {
	Peripheral Peripheral `json:"peripheral"`
}

// StateChangedEvent reports a connection state transition.
type StateChangedEvent struct {
	State State `json:"state"`
}

// ConnectedEvent reports the outcome of a connection attempt. Err is nil on
// success, in which case Info holds the handshake results.
type ConnectedEvent struct {
	Info DeviceInfo `json:"info"`
	Err  error      `json:"-"`
}

// DisconnectedEvent reports the end of a connection. Err is nil for a
// requested disconnect.
type DisconnectedEvent struct {
	Err error `json:"-"`
}

type BatteryEvent struct {
	Battery protocol.Battery `json:"battery"`
}

type NoiseControlEvent struct {
	Mode protocol.NoiseControlMode `json:"mode"`
}

type SpatialAudioEvent struct {
	Mode protocol.SpatialAudioMode `json:"mode"`
}

type EnhancedBassEvent struct {
	EnhancedBass protocol.EnhancedBass `json:"enhanced_bass"`
}

type EQEvent struct {
	Preset protocol.EQPreset `json:"preset"`
}

type CustomEQEvent struct {
	CustomEQ protocol.CustomEQ `json:"custom_eq"`
}

// SettingsEvent carries the full settings aggregate after any field changes.
type SettingsEvent struct {
	Settings protocol.DeviceSettings `json:"settings"`
}

type RingEvent struct {
	Ring protocol.RingState `json:"ring"`
}

type GesturesEvent struct {
	Gestures []protocol.Gesture `json:"gestures"`
}

// ErrorEvent reports a non-fatal problem or the cause of a teardown.
type ErrorEvent struct {
	Err *Error `json:"-"`
}

func (DiscoveredEvent) EventName() string   { return "discovered" }
func (StateChangedEvent) EventName() string { return "state" }
func (ConnectedEvent) EventName() string    { return "connected" }
func (DisconnectedEvent) EventName() string { return "disconnected" }
func (BatteryEvent) EventName() string      { return "battery" }
func (NoiseControlEvent) EventName() string { return "noise_control" }
func (SpatialAudioEvent) EventName() string { return "spatial_audio" }
func (EnhancedBassEvent) EventName() string { return "enhanced_bass" }
func (EQEvent) EventName() string           { return "eq" }
func (CustomEQEvent) EventName() string     { return "custom_eq" }
func (SettingsEvent) EventName() string     { return "settings" }
func (RingEvent) EventName() string         { return "ring" }
func (GesturesEvent) EventName() string     { return "gestures" }
func (ErrorEvent) EventName() string        { return "error" }

// MarshalEvent encodes an event as {"type": name, "data": event, "error": msg}.
func MarshalEvent(ev Event) ([]byte, error) {
	envelope := struct {
		Type  string `json:"type"`
		Data  Event  `json:"data"`
		Error string `json:"error,omitempty"`
	}{Type: ev.EventName(), Data: ev}

	switch e := ev.(type) {
	case ConnectedEvent:
		if e.Err != nil {
			envelope.Error = e.Err.Error()
		}
	case DisconnectedEvent:
		if e.Err != nil {
			envelope.Error = e.Err.Error()
		}
	case ErrorEvent:
		if e.Err != nil {
			envelope.Error = e.Err.Error()
		}
	}
	return json.Marshal(envelope)
}
