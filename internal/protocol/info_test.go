package protocol

import "testing"

func cmfSerialPayload(trailer ...byte) []byte {
	payload := []byte{0x06, 0x32, 0x2C, 0x32, 0x2C, 0x31, 0x2E}
	payload = append(payload, "0.1.50\n\n2,4,123456789\n2,6,1EB4E3EDB03C\n3,2,1.0.1.50\n\n3,4,123456789\n2,6,1EB4E3EDB03C\n"...)
	return append(payload, trailer...)
}

func TestDecodeSerialNumber(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
		wantErr bool
	}{
		{
			name:    "cmf layout",
			payload: cmfSerialPayload(),
			want:    "123456789",
		},
		{
			name:    "cmf layout with crc noise",
			payload: cmfSerialPayload(0x19, 0xE1),
			want:    "123456789",
		},
		{
			name:    "cmf layout with invalid utf-8 tail",
			payload: cmfSerialPayload(0xEF, 0xA4),
			want:    "123456789",
		},
		{
			name:    "legacy layout",
			payload: append([]byte{0x01, 0x02, 0x00, 0x04, 0x05, 0x1F, 0x07}, "0,4,LEGACY123456\n"...),
			want:    "LEGACY123456",
		},
		{
			name:    "empty value is skipped",
			payload: append(make([]byte, 7), "1,4,\n1,4,SH10252535010003\n"...),
			want:    "SH10252535010003",
		},
		{
			name:    "no serial line",
			payload: append(make([]byte, 7), "1,2,abc\n"...),
			wantErr: true,
		},
		{
			name:    "header only",
			payload: make([]byte, 3),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSerialNumber(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeSerialNumber() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DecodeSerialNumber() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeSerialNumber(t *testing.T) {
	got, err := DecodeSerialNumber(EncodeSerialNumber("M3A603000000"))
	if err != nil || got != "M3A603000000" {
		t.Errorf("round trip = %q, %v", got, err)
	}
}

func TestDecodeFirmware(t *testing.T) {
	if got := DecodeFirmware([]byte("1.0.1.50")); got != "1.0.1.50" {
		t.Errorf("DecodeFirmware() = %q", got)
	}
	if got := DecodeFirmware([]byte{0x31, 0xFF, 0xFE}); got != "" {
		t.Errorf("DecodeFirmware(invalid) = %q, want empty", got)
	}
}
