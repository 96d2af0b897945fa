package protocol

import (
	"fmt"
	"strings"
)

// NoiseControlMode is the active noise control setting.
type NoiseControlMode int

const (
	NoiseControlOff NoiseControlMode = iota
	NoiseControlTransparent
	NoiseControlHigh
	NoiseControlMid
	NoiseControlLow
	NoiseControlAdaptive
)

var noiseControlWire = newWireTable(map[NoiseControlMode]byte{
	NoiseControlOff:         0x05,
	NoiseControlTransparent: 0x07,
	NoiseControlHigh:        0x01,
	NoiseControlMid:         0x02,
	NoiseControlLow:         0x03,
	NoiseControlAdaptive:    0x04,
})

var noiseControlNames = map[NoiseControlMode]string{
	NoiseControlOff:         "off",
	NoiseControlTransparent: "transparent",
	NoiseControlHigh:        "high",
	NoiseControlMid:         "mid",
	NoiseControlLow:         "low",
	NoiseControlAdaptive:    "adaptive",
}

// AllNoiseControlModes lists every mode in display order.
var AllNoiseControlModes = []NoiseControlMode{
	NoiseControlOff,
	NoiseControlTransparent,
	NoiseControlLow,
	NoiseControlMid,
	NoiseControlHigh,
	NoiseControlAdaptive,
}

func (m NoiseControlMode) String() string {
	if name, ok := noiseControlNames[m]; ok {
		return name
	}
	return fmt.Sprintf("noise_control(%d)", int(m))
}

// IsNoiseCancellation reports whether the mode is one of the ANC strengths.
func (m NoiseControlMode) IsNoiseCancellation() bool {
	switch m {
	case NoiseControlHigh, NoiseControlMid, NoiseControlLow, NoiseControlAdaptive:
		return true
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (m NoiseControlMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *NoiseControlMode) UnmarshalText(text []byte) error {
	v, err := ParseNoiseControlMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseNoiseControlMode parses a mode name as printed by String.
func ParseNoiseControlMode(s string) (NoiseControlMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range noiseControlNames {
		if name == s {
			return m, nil
		}
	}
	if s == "transparency" {
		return NoiseControlTransparent, nil
	}
	return 0, fmt.Errorf("unknown noise control mode %q", s)
}

// EncodeNoiseControl builds the write payload: 01 mode 00.
func EncodeNoiseControl(m NoiseControlMode) ([]byte, error) {
	b, ok := noiseControlWire.encode(m)
	if !ok {
		return nil, fmt.Errorf("noise control: unsupported mode %d", int(m))
	}
	return []byte{0x01, b, 0x00}, nil
}

// DecodeNoiseControl reads the mode from payload[1].
func DecodeNoiseControl(payload []byte) (NoiseControlMode, error) {
	if err := requireLen("noise control", payload, 2); err != nil {
		return 0, err
	}
	m, ok := noiseControlWire.decode(payload[1])
	if !ok {
		return 0, unknownValue("noise control", payload[1])
	}
	return m, nil
}
