package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Custom EQ limits
const (
	CustomEQMinGain = -6
	CustomEQMaxGain = 6

	customEQPayloadLen = 62
	customEQBandLen    = 13 // type + gain + frequency + Q
	customEQHeaderLen  = 5  // 0x03 + total gain
	customEQMarker     = 0x03
)

// Band layout of the custom EQ read response.
const (
	customEQReadBassOffset   = 6
	customEQReadMidOffset    = 19
	customEQReadTrebleOffset = 32
	customEQReadLen          = customEQReadTrebleOffset + 4
)

// Filter types inside a custom EQ band
const (
	FilterLowShelf  = 0x00
	FilterPeak      = 0x01
	FilterHighShelf = 0x02
)

// FilterSpec holds the model-specific centre frequencies and Q factors of the
// three custom EQ bands.
type FilterSpec struct {
	FreqLow  float32
	QLow     float32
	FreqPeak float32
	QPeak    float32
	FreqHigh float32
	QHigh    float32
}

// CustomEQ is a three-band custom equalizer setting. Gains are in dB.
type CustomEQ struct {
	Bass   int `json:"bass"`
	Mid    int `json:"mid"`
	Treble int `json:"treble"`
}

func (c CustomEQ) String() string {
	return fmt.Sprintf("CustomEQ{bass=%+d, mid=%+d, treble=%+d}", c.Bass, c.Mid, c.Treble)
}

// Validate checks every band gain is within the supported range.
func (c CustomEQ) Validate() error {
	for _, band := range []struct {
		name string
		gain int
	}{{"bass", c.Bass}, {"mid", c.Mid}, {"treble", c.Treble}} {
		if band.gain < CustomEQMinGain || band.gain > CustomEQMaxGain {
			return fmt.Errorf("custom eq: %s gain %d out of range [%d, %d]",
				band.name, band.gain, CustomEQMinGain, CustomEQMaxGain)
		}
	}
	return nil
}

// TotalGain is the pre-gain applied to avoid clipping: the negated largest
// band boost, never positive.
func (c CustomEQ) TotalGain() float32 {
	peak := float32(0)
	for _, g := range []int{c.Bass, c.Mid, c.Treble} {
		if float32(g) > peak {
			peak = float32(g)
		}
	}
	return -peak
}

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// EncodeCustomEQ builds the custom EQ write payload.
//
// Layout:
//
//	[0]      0x03        marker
//	[1-4]    total gain  float32
//	[5-17]   peak band   type, gain, frequency, Q (mid)
//	[18-30]  high shelf  treble
//	[31-43]  low shelf   bass
//	[44-61]  zero padding
func EncodeCustomEQ(c CustomEQ, spec FilterSpec) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	payload := make([]byte, customEQPayloadLen)
	payload[0] = customEQMarker
	putFloat32(payload[1:5], c.TotalGain())

	bands := []struct {
		filter byte
		gain   int
		freq   float32
		q      float32
	}{
		{FilterPeak, c.Mid, spec.FreqPeak, spec.QPeak},
		{FilterHighShelf, c.Treble, spec.FreqHigh, spec.QHigh},
		{FilterLowShelf, c.Bass, spec.FreqLow, spec.QLow},
	}

	offset := customEQHeaderLen
	for _, band := range bands {
		payload[offset] = band.filter
		putFloat32(payload[offset+1:], float32(band.gain))
		putFloat32(payload[offset+5:], band.freq)
		putFloat32(payload[offset+9:], band.q)
		offset += customEQBandLen
	}

	return payload, nil
}

// DecodeCustomEQ reads the band gains from a custom EQ read response. Gains
// are rounded to whole dB and clamped to the supported range.
func DecodeCustomEQ(payload []byte) (CustomEQ, error) {
	if err := requireLen("custom eq", payload, customEQReadLen); err != nil {
		return CustomEQ{}, err
	}

	gain := func(offset int) int {
		v := readFloat32(payload[offset : offset+4])
		if math.IsNaN(float64(v)) {
			return 0
		}
		g := int(math.Round(float64(v)))
		if g < CustomEQMinGain {
			return CustomEQMinGain
		}
		if g > CustomEQMaxGain {
			return CustomEQMaxGain
		}
		return g
	}

	return CustomEQ{
		Bass:   gain(customEQReadBassOffset),
		Mid:    gain(customEQReadMidOffset),
		Treble: gain(customEQReadTrebleOffset),
	}, nil
}

// EncodeCustomEQReadResponse builds a payload in the read-response layout.
func EncodeCustomEQReadResponse(c CustomEQ) []byte {
	payload := make([]byte, customEQReadLen)
	payload[customEQReadBassOffset-1] = FilterLowShelf
	payload[customEQReadMidOffset-1] = FilterPeak
	payload[customEQReadTrebleOffset-1] = FilterHighShelf
	putFloat32(payload[customEQReadBassOffset:], float32(c.Bass))
	putFloat32(payload[customEQReadMidOffset:], float32(c.Mid))
	putFloat32(payload[customEQReadTrebleOffset:], float32(c.Treble))
	return payload
}

// DecodeCustomEQWrite recovers the band gains from a write payload built by
// EncodeCustomEQ.
func DecodeCustomEQWrite(payload []byte) (CustomEQ, error) {
	if err := requireLen("custom eq write", payload, customEQHeaderLen+3*customEQBandLen); err != nil {
		return CustomEQ{}, err
	}
	if payload[0] != customEQMarker {
		return CustomEQ{}, unknownValue("custom eq write", payload[0])
	}

	var c CustomEQ
	for i := 0; i < 3; i++ {
		offset := customEQHeaderLen + i*customEQBandLen
		g := int(math.Round(float64(readFloat32(payload[offset+1 : offset+5]))))
		switch payload[offset] {
		case FilterLowShelf:
			c.Bass = g
		case FilterPeak:
			c.Mid = g
		case FilterHighShelf:
			c.Treble = g
		default:
			return CustomEQ{}, unknownValue("custom eq filter", payload[offset])
		}
	}
	return c, nil
}
