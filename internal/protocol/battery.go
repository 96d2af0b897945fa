package protocol

import "fmt"

// Battery component IDs used in multi-device battery payloads
const (
	BatteryIDLeft  = 0x02
	BatteryIDRight = 0x03
	BatteryIDCase  = 0x04
)

const (
	batteryLevelMask    = 0x7F
	batteryChargingMask = 0x80
)

// BatteryLevel is the state of one battery-bearing component.
type BatteryLevel struct {
	Level     int  `json:"level"` // 0-100
	Charging  bool `json:"charging"`
	Connected bool `json:"connected"`
}

func (b BatteryLevel) String() string {
	if !b.Connected {
		return "disconnected"
	}
	if b.Charging {
		return fmt.Sprintf("%d%% (charging)", b.Level)
	}
	return fmt.Sprintf("%d%%", b.Level)
}

// Battery is a battery snapshot. Single-device peripherals (headphones) only
// fill Single; buds fill Case, Left and Right.
type Battery struct {
	SingleDevice bool         `json:"single_device"`
	Single       BatteryLevel `json:"single"`
	Case         BatteryLevel `json:"case"`
	Left         BatteryLevel `json:"left"`
	Right        BatteryLevel `json:"right"`
}

func (b Battery) String() string {
	if b.SingleDevice {
		return fmt.Sprintf("Battery{%s}", b.Single)
	}
	return fmt.Sprintf("Battery{case=%s, left=%s, right=%s}", b.Case, b.Left, b.Right)
}

func decodeBatteryByte(raw byte, connected bool) BatteryLevel {
	return BatteryLevel{
		Level:     int(raw & batteryLevelMask),
		Charging:  raw&batteryChargingMask != 0,
		Connected: connected,
	}
}

// DecodeBattery parses a battery response.
//
// Single-device payloads are exactly 3 bytes with the level byte at [2].
// Multi-device payloads are a count followed by (id, level) pairs; components
// that are absent are reported as disconnected.
func DecodeBattery(payload []byte, singleDevice bool) (Battery, error) {
	if err := requireLen("battery", payload, 1); err != nil {
		return Battery{}, err
	}

	if singleDevice {
		if len(payload) != 3 {
			return Battery{}, fmt.Errorf("battery: %w: %d bytes (want 3)", ErrPayloadTooShort, len(payload))
		}
		level := decodeBatteryByte(payload[2], false)
		level.Connected = level.Level > 0
		return Battery{SingleDevice: true, Single: level}, nil
	}

	count := int(payload[0])
	if err := requireLen("battery", payload, 1+count*2); err != nil {
		return Battery{}, err
	}

	var b Battery
	for i := 0; i < count; i++ {
		id := payload[1+i*2]
		level := decodeBatteryByte(payload[2+i*2], true)
		switch id {
		case BatteryIDCase:
			b.Case = level
		case BatteryIDLeft:
			b.Left = level
		case BatteryIDRight:
			b.Right = level
		}
	}
	return b, nil
}

// EncodeBattery builds a battery response payload. The virtual peripheral
// uses it to answer battery reads.
func EncodeBattery(b Battery) []byte {
	encode := func(l BatteryLevel) byte {
		raw := byte(l.Level) & batteryLevelMask
		if l.Charging {
			raw |= batteryChargingMask
		}
		return raw
	}

	if b.SingleDevice {
		return []byte{0x01, 0x00, encode(b.Single)}
	}

	payload := []byte{0x00}
	for _, c := range []struct {
		id    byte
		level BatteryLevel
	}{
		{BatteryIDCase, b.Case},
		{BatteryIDLeft, b.Left},
		{BatteryIDRight, b.Right},
	} {
		if !c.level.Connected {
			continue
		}
		payload = append(payload, c.id, encode(c.level))
		payload[0]++
	}
	return payload
}
