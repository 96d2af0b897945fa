package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// serialHeaderLen is the number of leading bytes before the key/value text.
const serialHeaderLen = 7

// serialKey is the middle field of the line carrying the serial number.
const serialKey = 4

// DecodeSerialNumber extracts the serial number from a serial response.
//
// After a 7-byte header the payload is newline separated text of
// "group,key,value" lines. The serial is the value of the first line whose
// key is 4. Bytes that are not valid UTF-8 are dropped, which discards the
// CRC-like noise some firmware appends after the text.
func DecodeSerialNumber(payload []byte) (string, error) {
	if err := requireLen("serial number", payload, serialHeaderLen); err != nil {
		return "", err
	}

	text := strings.ToValidUTF8(string(payload[serialHeaderLen:]), "")
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Split(strings.TrimSpace(line), ",")
		if len(fields) != 3 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		key, err := strconv.Atoi(fields[1])
		if err != nil || key != serialKey {
			continue
		}
		if value := strings.TrimSpace(fields[2]); value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("serial number: no serial line in %d bytes of text", len(text))
}

// EncodeSerialNumber builds a serial response payload in the legacy layout.
func EncodeSerialNumber(serial string) []byte {
	payload := make([]byte, serialHeaderLen, serialHeaderLen+len(serial)+8)
	payload[0] = 0x01
	payload = append(payload, fmt.Sprintf("0,%d,%s\n", serialKey, serial)...)
	return payload
}

// DecodeFirmware returns the payload as text, or "" when it is not UTF-8.
func DecodeFirmware(payload []byte) string {
	if !utf8.Valid(payload) {
		return ""
	}
	return string(payload)
}
