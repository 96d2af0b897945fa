package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame constants
const (
	FrameSync      = 0x55
	FrameHeaderLen = 8   // sync + 2 fixed bytes + command + length + reserved + operation ID
	FrameCRCLen    = 2   // trailing CRC16, little-endian
	MaxPayloadSize = 255 // length is a single byte
)

var framePrefix = [3]byte{FrameSync, 0x60, 0x01}

// Frame errors. DecodeResponse wraps these with context, use errors.Is.
var (
	ErrFrameTooShort    = errors.New("frame too short")
	ErrInvalidSync      = errors.New("invalid sync byte")
	ErrFrameTruncated   = errors.New("frame truncated")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrPayloadTooLarge  = errors.New("payload too large")
)

// Request is an outgoing command frame.
type Request struct {
	Command     Command
	Payload     []byte
	OperationID uint8
}

// Response is an incoming frame after validation.
type Response struct {
	Command     Command
	Payload     []byte
	OperationID uint8
}

// Encode serializes the request into a complete frame with trailing CRC.
//
// Layout:
//
//	55 60 01 cmdLo cmdHi len 00 opID payload... crcLo crcHi
//
// The CRC covers every byte before it.
func (r Request) Encode() ([]byte, error) {
	if len(r.Payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(r.Payload), MaxPayloadSize)
	}

	n := FrameHeaderLen + len(r.Payload)
	frame := make([]byte, n, n+FrameCRCLen)

	copy(frame[0:3], framePrefix[:])
	binary.LittleEndian.PutUint16(frame[3:5], uint16(r.Command))
	frame[5] = byte(len(r.Payload))
	frame[6] = 0x00
	frame[7] = r.OperationID
	copy(frame[FrameHeaderLen:], r.Payload)

	return binary.LittleEndian.AppendUint16(frame, CRC16(frame)), nil
}

// MustEncode is Encode for requests built by this package, whose payloads
// never exceed MaxPayloadSize.
func (r Request) MustEncode() []byte {
	frame, err := r.Encode()
	if err != nil {
		panic(err)
	}
	return frame
}

func (r Request) String() string {
	return fmt.Sprintf("Request{command=%s, op=%d, payload=% X}", CommandName(r.Command), r.OperationID, r.Payload)
}

// DecodeResponse parses and validates a frame received on the notify channel.
//
// The trailing CRC is optional. When the buffer is long enough to carry one it
// is checked against the header+payload span first and then against the
// payload alone; CMF Buds Pro 2 firmware uses the latter. A frame that matches
// neither is rejected.
func DecodeResponse(data []byte) (*Response, error) {
	if len(data) < FrameHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes (minimum %d)", ErrFrameTooShort, len(data), FrameHeaderLen)
	}
	if data[0] != FrameSync {
		return nil, fmt.Errorf("%w: 0x%02x (expected 0x%02x)", ErrInvalidSync, data[0], FrameSync)
	}

	required := FrameHeaderLen + int(data[5])

	if len(data) >= required+FrameCRCLen {
		want := binary.LittleEndian.Uint16(data[required : required+FrameCRCLen])
		full := CRC16(data[:required])
		if full != want {
			payloadOnly := CRC16(data[FrameHeaderLen:required])
			if payloadOnly != want {
				return nil, fmt.Errorf("%w: got 0x%04x, computed 0x%04x (payload-only 0x%04x)",
					ErrChecksumMismatch, want, full, payloadOnly)
			}
		}
	}

	if len(data) < required {
		return nil, fmt.Errorf("%w: %d bytes, header declares %d", ErrFrameTruncated, len(data), required)
	}

	payload := make([]byte, required-FrameHeaderLen)
	copy(payload, data[FrameHeaderLen:required])

	return &Response{
		Command:     Command(binary.LittleEndian.Uint16(data[3:5])),
		Payload:     payload,
		OperationID: data[7],
	}, nil
}

func (r *Response) String() string {
	return fmt.Sprintf("Response{command=%s, op=%d, payload=% X}", CommandName(r.Command), r.OperationID, r.Payload)
}
