package protocol

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestCRC16(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"empty keeps seed", nil, 0xFFFF},
		{"check string", []byte("123456789"), 0x4B37},
		{"battery read header", []byte{0x55, 0x60, 0x01, 0x07, 0xC0, 0x00, 0x00, 0x01}, 0xDFAC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CRC16(tt.data); got != tt.want {
				t.Errorf("CRC16() = 0x%04x, want 0x%04x", got, tt.want)
			}
		})
	}
}

func TestCRC16SingleByteMutation(t *testing.T) {
	base := []byte{0x55, 0x60, 0x01, 0x0F, 0xF0, 0x03, 0x00, 0x01, 0x01, 0x02, 0x00}
	want := CRC16(base)
	if CRC16(base) != want {
		t.Fatal("CRC16 is not deterministic")
	}

	for i := range base {
		mutated := append([]byte(nil), base...)
		mutated[i] ^= 0x01
		if CRC16(mutated) == want {
			t.Errorf("flipping bit 0 of byte %d did not change the checksum", i)
		}
	}
}

func TestRequestEncode(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "battery read",
			req:  ReadRequest(ReadBattery, 1),
			want: "55 60 01 07 C0 00 00 01 AC DF",
		},
		{
			name: "noise control read",
			req:  ReadRequest(ReadNoiseControl, 1),
			want: "55 60 01 1E C0 00 00 01 B1 1D",
		},
		{
			name: "noise control mid",
			req:  Request{Command: WriteNoiseControl, Payload: []byte{0x01, 0x02, 0x00}, OperationID: 1},
			want: "55 60 01 0F F0 03 00 01 01 02 00 F9 27",
		},
		{
			name: "spatial fixed",
			req:  Request{Command: WriteSpatialAudio, Payload: []byte{0x01, 0x00}, OperationID: 1},
			want: "55 60 01 52 F0 02 00 01 01 00 44 3D",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.Encode()
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			want := mustHex(t, tt.want)
			if !bytes.Equal(got, want) {
				t.Errorf("Encode() = % X, want % X", got, want)
			}
		})
	}
}

func TestRequestEncodeLayout(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC}
	frame := Request{Command: 0xF010, Payload: payload, OperationID: 42}.MustEncode()

	if len(frame) != FrameHeaderLen+len(payload)+FrameCRCLen {
		t.Fatalf("frame length = %d, want %d", len(frame), FrameHeaderLen+len(payload)+FrameCRCLen)
	}
	if frame[0] != 0x55 || frame[1] != 0x60 || frame[2] != 0x01 {
		t.Errorf("prefix = % X, want 55 60 01", frame[:3])
	}
	if frame[3] != 0x10 || frame[4] != 0xF0 {
		t.Errorf("command bytes = % X, want 10 F0", frame[3:5])
	}
	if frame[5] != 3 {
		t.Errorf("length = %d, want 3", frame[5])
	}
	if frame[6] != 0x00 {
		t.Errorf("reserved = 0x%02x, want 0x00", frame[6])
	}
	if frame[7] != 42 {
		t.Errorf("operation id = %d, want 42", frame[7])
	}
	crc := CRC16(frame[:FrameHeaderLen+len(payload)])
	if frame[len(frame)-2] != byte(crc) || frame[len(frame)-1] != byte(crc>>8) {
		t.Errorf("crc = % X, want %04X little-endian", frame[len(frame)-2:], crc)
	}
}

func TestRequestEncodePayloadTooLarge(t *testing.T) {
	_, err := Request{Command: WriteEQ, Payload: make([]byte, MaxPayloadSize+1)}.Encode()
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Encode() error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantCommand Command
		wantOpID    uint8
		wantPayload string
		wantErr     error
	}{
		{
			name:        "no crc",
			data:        "55 60 01 07 40 07 00 01 03 04 B4 02 48 03 C6",
			wantCommand: RespBatteryB,
			wantOpID:    1,
			wantPayload: "03 04 B4 02 48 03 C6",
		},
		{
			name:        "full frame crc",
			data:        "55 60 01 07 40 07 00 01 03 04 B4 02 48 03 C6 E4 EF",
			wantCommand: RespBatteryB,
			wantOpID:    1,
			wantPayload: "03 04 B4 02 48 03 C6",
		},
		{
			// CMF Buds Pro 2 checksums only the payload
			name:        "payload only crc",
			data:        "55 60 01 07 40 07 00 01 03 04 B4 02 48 03 C6 98 92",
			wantCommand: RespBatteryB,
			wantOpID:    1,
			wantPayload: "03 04 B4 02 48 03 C6",
		},
		{
			name:        "noise control with crc",
			data:        "55 60 01 1E 40 02 00 05 01 02 13 C9",
			wantCommand: RespNoiseControlB,
			wantOpID:    5,
			wantPayload: "01 02",
		},
		{
			name:    "bad crc",
			data:    "55 60 01 07 40 07 00 01 03 04 B4 02 48 03 C6 00 00",
			wantErr: ErrChecksumMismatch,
		},
		{
			name:    "too short",
			data:    "55 60 01 07",
			wantErr: ErrFrameTooShort,
		},
		{
			name:    "bad sync",
			data:    "54 60 01 07 40 00 00 01",
			wantErr: ErrInvalidSync,
		},
		{
			name:    "truncated",
			data:    "55 60 01 07 40 07 00 01 03 04",
			wantErr: ErrFrameTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodeResponse(mustHex(t, tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeResponse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeResponse() error = %v", err)
			}
			if resp.Command != tt.wantCommand {
				t.Errorf("command = %s, want %s", resp.Command, tt.wantCommand)
			}
			if resp.OperationID != tt.wantOpID {
				t.Errorf("operation id = %d, want %d", resp.OperationID, tt.wantOpID)
			}
			if want := mustHex(t, tt.wantPayload); !bytes.Equal(resp.Payload, want) {
				t.Errorf("payload = % X, want % X", resp.Payload, want)
			}
		})
	}
}

func TestDecodeResponseCopiesPayload(t *testing.T) {
	data := mustHex(t, "55 60 01 1E 40 02 00 05 01 02")
	resp, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	data[9] = 0xFF
	if resp.Payload[1] != 0x02 {
		t.Error("payload aliases the input buffer")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	req := Request{Command: RespGesture, Payload: []byte{0x01, 0x03, 0x00, 0x02, 0x02}, OperationID: 250}
	resp, err := DecodeResponse(req.MustEncode())
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if resp.Command != req.Command || resp.OperationID != req.OperationID || !bytes.Equal(resp.Payload, req.Payload) {
		t.Errorf("round trip = %s, want %s", resp, req)
	}
}
