package protocol

import "fmt"

// EnhancedBass is the bass boost setting. Level is 0-100; the wire carries it doubled.
type EnhancedBass struct {
	Enabled bool `json:"enabled"`
	Level   int  `json:"level"`
}

func (e EnhancedBass) String() string {
	return fmt.Sprintf("EnhancedBass{enabled=%t, level=%d}", e.Enabled, e.Level)
}

// EncodeEnhancedBass builds the write payload: enabled level*2.
func EncodeEnhancedBass(e EnhancedBass) ([]byte, error) {
	if e.Level < 0 || e.Level > 100 {
		return nil, fmt.Errorf("enhanced bass: level %d out of range [0, 100]", e.Level)
	}
	return []byte{boolByte(e.Enabled), byte(e.Level * 2)}, nil
}

// DecodeEnhancedBass parses the enhanced bass response.
func DecodeEnhancedBass(payload []byte) (EnhancedBass, error) {
	if err := requireLen("enhanced bass", payload, 2); err != nil {
		return EnhancedBass{}, err
	}
	return EnhancedBass{
		Enabled: payload[0] != 0,
		Level:   int(payload[1]) / 2,
	}, nil
}

// EncodeInEarDetection builds the write payload: 01 01 flag.
func EncodeInEarDetection(enabled bool) []byte {
	return []byte{0x01, 0x01, boolByte(enabled)}
}

// DecodeInEarDetection reads the flag from payload[2].
func DecodeInEarDetection(payload []byte) (bool, error) {
	if err := requireLen("in-ear detection", payload, 3); err != nil {
		return false, err
	}
	return payload[2] != 0, nil
}

// Low latency wire values. Disabled is 2, not 0.
const (
	lowLatencyOn  = 0x01
	lowLatencyOff = 0x02
)

// EncodeLowLatency builds the write payload: 01 00 to enable, 02 00 to disable.
func EncodeLowLatency(enabled bool) []byte {
	if enabled {
		return []byte{lowLatencyOn, 0x00}
	}
	return []byte{lowLatencyOff, 0x00}
}

// DecodeLowLatency reports whether payload[0] is the enabled value.
func DecodeLowLatency(payload []byte) (bool, error) {
	if err := requireLen("low latency", payload, 1); err != nil {
		return false, err
	}
	return payload[0] == lowLatencyOn, nil
}

// EncodePersonalizedANC builds the write payload: a single flag byte.
func EncodePersonalizedANC(enabled bool) []byte {
	return []byte{boolByte(enabled)}
}

// DecodePersonalizedANC reports whether payload[0] is set.
func DecodePersonalizedANC(payload []byte) (bool, error) {
	if err := requireLen("personalized anc", payload, 1); err != nil {
		return false, err
	}
	return payload[0] == 0x01, nil
}

// DeviceSettings aggregates the boolean device settings.
type DeviceSettings struct {
	InEarDetection  bool `json:"in_ear_detection"`
	LowLatency      bool `json:"low_latency"`
	PersonalizedANC bool `json:"personalized_anc"`
}

func (s DeviceSettings) String() string {
	return fmt.Sprintf("DeviceSettings{in_ear=%t, low_latency=%t, personalized_anc=%t}",
		s.InEarDetection, s.LowLatency, s.PersonalizedANC)
}
