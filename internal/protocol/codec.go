package protocol

import (
	"errors"
	"fmt"
)

// Payload decode errors
var (
	ErrPayloadTooShort = errors.New("payload too short")
	ErrUnknownValue    = errors.New("unknown wire value")
)

func requireLen(feature string, payload []byte, min int) error {
	if len(payload) < min {
		return fmt.Errorf("%s: %w: %d bytes (minimum %d)", feature, ErrPayloadTooShort, len(payload), min)
	}
	return nil
}

func unknownValue(feature string, b byte) error {
	return fmt.Errorf("%s: %w: 0x%02x", feature, ErrUnknownValue, b)
}

// wireTable is a bidirectional mapping between an enum and its wire byte.
type wireTable[T comparable] struct {
	toWire   map[T]byte
	fromWire map[byte]T
}

func newWireTable[T comparable](pairs map[T]byte) wireTable[T] {
	t := wireTable[T]{
		toWire:   pairs,
		fromWire: make(map[byte]T, len(pairs)),
	}
	for v, b := range pairs {
		t.fromWire[b] = v
	}
	return t
}

func (t wireTable[T]) encode(v T) (byte, bool) {
	b, ok := t.toWire[v]
	return b, ok
}

func (t wireTable[T]) decode(b byte) (T, bool) {
	v, ok := t.fromWire[b]
	return v, ok
}

func boolByte(v bool) byte {
	if v {
		return 0x01
	}
	return 0x00
}
