package protocol

import (
	"fmt"
	"strings"
)

// EQPreset is a standard equalizer preset.
type EQPreset int

const (
	EQBalanced EQPreset = iota
	EQVoice
	EQMoreTreble
	EQMoreBass
	EQCustom
	EQAdvanced
)

var eqPresetWire = newWireTable(map[EQPreset]byte{
	EQBalanced:   0x00,
	EQVoice:      0x01,
	EQMoreTreble: 0x02,
	EQMoreBass:   0x03,
	EQCustom:     0x05,
	EQAdvanced:   0x06,
})

var eqPresetNames = map[EQPreset]string{
	EQBalanced:   "balanced",
	EQVoice:      "voice",
	EQMoreTreble: "more-treble",
	EQMoreBass:   "more-bass",
	EQCustom:     "custom",
	EQAdvanced:   "advanced",
}

// AllEQPresets lists every preset in wire order.
var AllEQPresets = []EQPreset{EQBalanced, EQVoice, EQMoreTreble, EQMoreBass, EQCustom, EQAdvanced}

func (p EQPreset) String() string {
	if name, ok := eqPresetNames[p]; ok {
		return name
	}
	return fmt.Sprintf("eq(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p EQPreset) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *EQPreset) UnmarshalText(text []byte) error {
	v, err := ParseEQPreset(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParseEQPreset parses a preset name. Underscores and dashes are interchangeable.
func ParseEQPreset(s string) (EQPreset, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for p, name := range eqPresetNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown EQ preset %q", s)
}

// EncodeEQPreset builds the write payload: ordinal 00.
func EncodeEQPreset(p EQPreset) ([]byte, error) {
	b, ok := eqPresetWire.encode(p)
	if !ok {
		return nil, fmt.Errorf("eq: unsupported preset %d", int(p))
	}
	return []byte{b, 0x00}, nil
}

// DecodeEQPreset reads the ordinal from payload[1], or payload[0] for
// single-byte payloads.
func DecodeEQPreset(payload []byte) (EQPreset, error) {
	if err := requireLen("eq", payload, 1); err != nil {
		return 0, err
	}
	b := payload[0]
	if len(payload) > 1 {
		b = payload[1]
	}
	p, ok := eqPresetWire.decode(b)
	if !ok {
		return 0, unknownValue("eq", b)
	}
	return p, nil
}
