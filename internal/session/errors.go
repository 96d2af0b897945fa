package session

import (
	"errors"
	"fmt"
)

// ErrorKind is the category of a session error.
type ErrorKind int

const (
	KindRadioPoweredOff ErrorKind = iota
	KindRadioUnauthorized
	KindRadioUnavailable
	KindConnectionFailed
	KindDeviceNotFound
	KindInvalidResponse
	KindTimeout
	KindUnsupportedOperation
)

// String returns the fixed description for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindRadioPoweredOff:
		return "Bluetooth is powered off"
	case KindRadioUnauthorized:
		return "Bluetooth is not authorized"
	case KindRadioUnavailable:
		return "Bluetooth is not available on this device"
	case KindDeviceNotFound:
		return "Nothing device is not found"
	case KindConnectionFailed:
		return "Failed to connect to device"
	case KindInvalidResponse:
		return "Received invalid response from device"
	case KindUnsupportedOperation:
		return "Operation not supported by this device model"
	case KindTimeout:
		return "Operation timed out"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a categorized session error.
type Error struct {
	Kind    ErrorKind // Category of error
	Message string    // Optional detail
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s (caused by: %v)", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrTimeout)
// works regardless of message and cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrRadioPoweredOff      = &Error{Kind: KindRadioPoweredOff}
	ErrRadioUnauthorized    = &Error{Kind: KindRadioUnauthorized}
	ErrRadioUnavailable     = &Error{Kind: KindRadioUnavailable}
	ErrConnectionFailed     = &Error{Kind: KindConnectionFailed}
	ErrDeviceNotFound       = &Error{Kind: KindDeviceNotFound}
	ErrInvalidResponse      = &Error{Kind: KindInvalidResponse}
	ErrTimeout              = &Error{Kind: KindTimeout}
	ErrUnsupportedOperation = &Error{Kind: KindUnsupportedOperation}
)

// ErrClosed is returned by calls made after Run has returned.
var ErrClosed = errors.New("session closed")

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// radioError maps a non-operational radio state to its error.
func radioError(state RadioState) *Error {
	switch state {
	case RadioPoweredOn:
		return nil
	case RadioPoweredOff:
		return newError(KindRadioPoweredOff, "", nil)
	case RadioUnauthorized:
		return newError(KindRadioUnauthorized, "", nil)
	default:
		return newError(KindRadioUnavailable, state.String(), nil)
	}
}
