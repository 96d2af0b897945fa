package protocol

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestDecode(t *testing.T) {
	noise, err := EncodeNoiseControl(NoiseControlAdaptive)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		frame       []byte
		single      bool
		wantFeature Feature
		wantValue   any
	}{
		{
			name:        "noise control",
			frame:       Request{Command: RespNoiseControlB, Payload: noise, OperationID: 3}.MustEncode(),
			wantFeature: FeatureNoiseControl,
			wantValue:   NoiseControlAdaptive,
		},
		{
			name:        "low latency",
			frame:       Request{Command: RespLowLatency, Payload: EncodeLowLatency(true), OperationID: 1}.MustEncode(),
			wantFeature: FeatureLowLatency,
			wantValue:   true,
		},
		{
			name:        "firmware",
			frame:       Request{Command: RespFirmware, Payload: []byte("2.0.1.5"), OperationID: 2}.MustEncode(),
			wantFeature: FeatureFirmware,
			wantValue:   "2.0.1.5",
		},
		{
			name: "single battery",
			frame: Request{
				Command:     RespBatteryB,
				Payload:     EncodeBattery(Battery{SingleDevice: true, Single: BatteryLevel{Level: 70, Connected: true}}),
				OperationID: 4,
			}.MustEncode(),
			single:      true,
			wantFeature: FeatureBattery,
			wantValue:   Battery{SingleDevice: true, Single: BatteryLevel{Level: 70, Connected: true}},
		},
		{
			name:        "unknown response keeps payload",
			frame:       Request{Command: Command(0x4999), Payload: []byte{0xAA}, OperationID: 5}.MustEncode(),
			wantFeature: FeatureUnknown,
			wantValue:   []byte{0xAA},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decode(tt.frame, tt.single)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if d.Feature != tt.wantFeature {
				t.Errorf("Feature = %v, want %v", d.Feature, tt.wantFeature)
			}
			if !reflect.DeepEqual(d.Value, tt.wantValue) {
				t.Errorf("Value = %#v, want %#v", d.Value, tt.wantValue)
			}
		})
	}
}

func TestDecodeRejectsBadFrames(t *testing.T) {
	frame := Request{Command: RespLowLatency, Payload: []byte{0x01}, OperationID: 1}.MustEncode()
	frame[len(frame)-1] ^= 0xFF

	if _, err := Decode(frame, false); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Decode() error = %v, want ErrChecksumMismatch", err)
	}
}

func TestDecodeReportsPayloadErrors(t *testing.T) {
	frame := Request{Command: RespNoiseControlB, Payload: []byte{0x01}, OperationID: 1}.MustEncode()

	_, err := Decode(frame, false)
	if !errors.Is(err, ErrPayloadTooShort) {
		t.Errorf("Decode() error = %v, want ErrPayloadTooShort", err)
	}
}

func TestDecodePayloadPassthrough(t *testing.T) {
	raw := []byte{0x01, 0x02}
	v, err := DecodePayload(FeatureEarFitTest, raw, false)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := v.([]byte); !ok || !bytes.Equal(got, raw) {
		t.Errorf("DecodePayload() = %#v, want raw payload", v)
	}
}
