package protocol

import "fmt"

// Bud identifies which bud (or the whole unit) should ring.
type Bud int

const (
	BudLeft Bud = iota
	BudRight
	BudUnibody
)

var budWire = newWireTable(map[Bud]byte{
	BudLeft:    0x02,
	BudRight:   0x03,
	BudUnibody: 0x06,
})

// budLeftAlias is reported for the left bud by CMF Buds 2 firmware.
const budLeftAlias = 0x01

var budNames = map[Bud]string{
	BudLeft:    "left",
	BudRight:   "right",
	BudUnibody: "unibody",
}

func (b Bud) String() string { return enumName(budNames, b, "bud") }

// MarshalText implements encoding.TextMarshaler.
func (b Bud) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bud) UnmarshalText(text []byte) (err error) {
	*b, err = ParseBud(string(text))
	return err
}

// ParseBud parses "left", "right" or "unibody".
func ParseBud(s string) (Bud, error) {
	return parseEnum(budNames, s, "bud")
}

// RingState is the find-my-buds state of one bud.
type RingState struct {
	Bud Bud  `json:"bud"`
	On  bool `json:"on"`
}

func (r RingState) String() string {
	return fmt.Sprintf("Ring{bud=%s, on=%t}", r.Bud, r.On)
}

// EncodeRingBuds builds the write payload: bud flag.
func EncodeRingBuds(r RingState) ([]byte, error) {
	b, ok := budWire.encode(r.Bud)
	if !ok {
		return nil, fmt.Errorf("ring buds: unsupported bud %d", int(r.Bud))
	}
	return []byte{b, boolByte(r.On)}, nil
}

// DecodeRingBuds reads the bud from payload[1] and the flag from payload[2].
func DecodeRingBuds(payload []byte) (RingState, error) {
	if err := requireLen("ring buds", payload, 3); err != nil {
		return RingState{}, err
	}
	bud, ok := budWire.decode(payload[1])
	if !ok {
		if payload[1] != budLeftAlias {
			return RingState{}, unknownValue("ring buds", payload[1])
		}
		bud = BudLeft
	}
	return RingState{Bud: bud, On: payload[2] != 0}, nil
}

// EncodeRingBudsResponse builds a ring response payload.
func EncodeRingBudsResponse(r RingState) []byte {
	b, _ := budWire.encode(r.Bud)
	return []byte{0x00, b, boolByte(r.On)}
}
