package protocol

import (
	"fmt"
	"strings"
)

// SpatialAudioMode is the spatial audio setting.
type SpatialAudioMode int

const (
	SpatialOff SpatialAudioMode = iota
	SpatialFixed
	SpatialHeadTracking
)

type spatialTuple [2]byte

var spatialWire = map[SpatialAudioMode]spatialTuple{
	SpatialOff:          {0x00, 0x00},
	SpatialFixed:        {0x01, 0x00},
	SpatialHeadTracking: {0x01, 0x01},
}

var spatialNames = map[SpatialAudioMode]string{
	SpatialOff:          "off",
	SpatialFixed:        "fixed",
	SpatialHeadTracking: "head-tracking",
}

// AllSpatialAudioModes lists every mode in display order.
var AllSpatialAudioModes = []SpatialAudioMode{SpatialOff, SpatialFixed, SpatialHeadTracking}

func (m SpatialAudioMode) String() string {
	if name, ok := spatialNames[m]; ok {
		return name
	}
	return fmt.Sprintf("spatial(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m SpatialAudioMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SpatialAudioMode) UnmarshalText(text []byte) error {
	v, err := ParseSpatialAudioMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseSpatialAudioMode parses a mode name.
func ParseSpatialAudioMode(s string) (SpatialAudioMode, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for m, name := range spatialNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown spatial audio mode %q", s)
}

// EncodeSpatialAudio builds the two-byte write payload.
func EncodeSpatialAudio(m SpatialAudioMode) ([]byte, error) {
	t, ok := spatialWire[m]
	if !ok {
		return nil, fmt.Errorf("spatial audio: unsupported mode %d", int(m))
	}
	return []byte{t[0], t[1]}, nil
}

// DecodeSpatialAudio looks up the (payload[0], payload[1]) tuple. Some CMF
// firmware answers with a single byte, which is read as (payload[0], 0).
func DecodeSpatialAudio(payload []byte) (SpatialAudioMode, error) {
	if err := requireLen("spatial audio", payload, 1); err != nil {
		return 0, err
	}
	t := spatialTuple{payload[0], 0x00}
	if len(payload) > 1 {
		t[1] = payload[1]
	}
	for m, wire := range spatialWire {
		if wire == t {
			return m, nil
		}
	}
	return 0, fmt.Errorf("spatial audio: %w: %02x %02x", ErrUnknownValue, t[0], t[1])
}
