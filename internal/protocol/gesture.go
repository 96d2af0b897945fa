package protocol

import (
	"fmt"
	"strings"
)

// GestureDevice selects which side a gesture applies to.
type GestureDevice int

const (
	GestureDeviceUnspecified GestureDevice = iota
	GestureDeviceLeft
	GestureDeviceRight
)

// gestureDeviceDefault is written when no side is given.
const gestureDeviceDefault = 0x01

// GestureType is the touch pattern.
type GestureType int

const (
	GestureTap GestureType = iota
	GestureDoubleTap
	GestureTripleTap
	GestureLongPress
)

// GestureAction is what the peripheral does when the gesture fires.
type GestureAction int

const (
	ActionNone GestureAction = iota
	ActionPlayPause
	ActionNextTrack
	ActionPreviousTrack
	ActionVolumeUp
	ActionVolumeDown
	ActionVoiceAssistant
	ActionNoiseControlToggle
	ActionCustom
)

var gestureDeviceWire = newWireTable(map[GestureDevice]byte{
	GestureDeviceLeft:  0x02,
	GestureDeviceRight: 0x03,
})

var gestureTypeWire = newWireTable(map[GestureType]byte{
	GestureTap:       0x01,
	GestureDoubleTap: 0x02,
	GestureTripleTap: 0x03,
	GestureLongPress: 0x0B,
})

var gestureActionWire = newWireTable(map[GestureAction]byte{
	ActionNone:               0x00,
	ActionPlayPause:          0x01,
	ActionNextTrack:          0x02,
	ActionPreviousTrack:      0x03,
	ActionVolumeUp:           0x04,
	ActionVolumeDown:         0x05,
	ActionVoiceAssistant:     0x06,
	ActionNoiseControlToggle: 0x07,
	ActionCustom:             0x08,
})

var gestureDeviceNames = map[GestureDevice]string{
	GestureDeviceUnspecified: "default",
	GestureDeviceLeft:        "left",
	GestureDeviceRight:       "right",
}

var gestureTypeNames = map[GestureType]string{
	GestureTap:       "tap",
	GestureDoubleTap: "double-tap",
	GestureTripleTap: "triple-tap",
	GestureLongPress: "long-press",
}

var gestureActionNames = map[GestureAction]string{
	ActionNone:               "none",
	ActionPlayPause:          "play-pause",
	ActionNextTrack:          "next-track",
	ActionPreviousTrack:      "previous-track",
	ActionVolumeUp:           "volume-up",
	ActionVolumeDown:         "volume-down",
	ActionVoiceAssistant:     "voice-assistant",
	ActionNoiseControlToggle: "noise-control-toggle",
	ActionCustom:             "custom",
}

func (d GestureDevice) String() string { return enumName(gestureDeviceNames, d, "gesture_device") }
func (g GestureType) String() string   { return enumName(gestureTypeNames, g, "gesture_type") }
func (a GestureAction) String() string { return enumName(gestureActionNames, a, "gesture_action") }

// MarshalText implements encoding.TextMarshaler.
func (d GestureDevice) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// MarshalText implements encoding.TextMarshaler.
func (g GestureType) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// MarshalText implements encoding.TextMarshaler.
func (a GestureAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *GestureDevice) UnmarshalText(text []byte) (err error) {
	*d, err = ParseGestureDevice(string(text))
	return err
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GestureType) UnmarshalText(text []byte) (err error) {
	*g, err = ParseGestureType(string(text))
	return err
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *GestureAction) UnmarshalText(text []byte) (err error) {
	*a, err = ParseGestureAction(string(text))
	return err
}

func enumName[T ~int](names map[T]string, v T, kind string) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("%s(%d)", kind, int(v))
}

func parseEnum[T ~int](names map[T]string, s, kind string) (T, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for v, name := range names {
		if name == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, s)
}

// ParseGestureDevice parses "left", "right" or "default".
func ParseGestureDevice(s string) (GestureDevice, error) {
	return parseEnum(gestureDeviceNames, s, "gesture device")
}

// ParseGestureType parses a gesture type name such as "double-tap".
func ParseGestureType(s string) (GestureType, error) {
	return parseEnum(gestureTypeNames, s, "gesture type")
}

// ParseGestureAction parses a gesture action name such as "play-pause".
func ParseGestureAction(s string) (GestureAction, error) {
	return parseEnum(gestureActionNames, s, "gesture action")
}

// Gesture binds a touch pattern on one side to an action.
type Gesture struct {
	Device GestureDevice `json:"device"`
	Type   GestureType   `json:"type"`
	Action GestureAction `json:"action"`
}

func (g Gesture) String() string {
	return fmt.Sprintf("%s %s -> %s", g.Device, g.Type, g.Action)
}

// EncodeGesture builds the write payload: 01 device 01 type action.
func EncodeGesture(g Gesture) ([]byte, error) {
	device := byte(gestureDeviceDefault)
	if g.Device != GestureDeviceUnspecified {
		b, ok := gestureDeviceWire.encode(g.Device)
		if !ok {
			return nil, fmt.Errorf("gesture: unsupported device %d", int(g.Device))
		}
		device = b
	}
	t, ok := gestureTypeWire.encode(g.Type)
	if !ok {
		return nil, fmt.Errorf("gesture: unsupported type %d", int(g.Type))
	}
	a, ok := gestureActionWire.encode(g.Action)
	if !ok {
		return nil, fmt.Errorf("gesture: unsupported action %d", int(g.Action))
	}
	return []byte{0x01, device, 0x01, t, a}, nil
}

const gestureGroupLen = 4

// DecodeGestures parses a gesture list: a count byte then 4-byte groups of
// device, reserved, type and action. Groups with an unknown value are
// skipped. A payload shorter than its declared count yields no gestures.
func DecodeGestures(payload []byte) []Gesture {
	if len(payload) < 1 {
		return nil
	}
	count := int(payload[0])
	if len(payload) < 1+count*gestureGroupLen {
		return nil
	}

	gestures := make([]Gesture, 0, count)
	for i := 0; i < count; i++ {
		group := payload[1+i*gestureGroupLen : 1+(i+1)*gestureGroupLen]
		device, ok := gestureDeviceWire.decode(group[0])
		if !ok {
			continue
		}
		t, ok := gestureTypeWire.decode(group[2])
		if !ok {
			continue
		}
		a, ok := gestureActionWire.decode(group[3])
		if !ok {
			continue
		}
		gestures = append(gestures, Gesture{Device: device, Type: t, Action: a})
	}
	return gestures
}

// EncodeGestures builds a gesture list response payload.
func EncodeGestures(gestures []Gesture) []byte {
	payload := []byte{0x00}
	for _, g := range gestures {
		device, ok1 := gestureDeviceWire.encode(g.Device)
		t, ok2 := gestureTypeWire.encode(g.Type)
		a, ok3 := gestureActionWire.encode(g.Action)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		payload = append(payload, device, 0x00, t, a)
		payload[0]++
	}
	return payload
}
