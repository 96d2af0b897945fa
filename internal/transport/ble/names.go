package ble

import (
	"strings"

	"github.com/google/uuid"

	"github.com/muurk/earctl/internal/device"
	"github.com/muurk/earctl/internal/session"
)

var namePrefixes = []string{"Nothing ", "CMF "}

// IsCandidateName reports whether an advertised local name looks like one
// of the supported headsets.
func IsCandidateName(name string) bool {
	if _, ok := device.FromName(name); ok {
		return true
	}
	for _, prefix := range namePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// serviceID renders a discovered UUID the way the session compares them:
// short form for SIG assigned numbers, upper-case full form otherwise.
func serviceID(canonical string) string {
	u, err := uuid.Parse(canonical)
	if err != nil {
		return strings.ToUpper(canonical)
	}
	if short, ok := session.ShortForm(u); ok {
		return short
	}
	return strings.ToUpper(u.String())
}

// sameUUID compares a session UUID string against a discovered one.
func sameUUID(id, canonical string) bool {
	a, err := session.ParseUUID(id)
	if err != nil {
		return false
	}
	b, err := session.ParseUUID(canonical)
	if err != nil {
		return false
	}
	return a == b
}

// GATT characteristic property bits.
const (
	gattRead                 = 0x02
	gattWriteWithoutResponse = 0x04
	gattWrite                = 0x08
	gattNotify               = 0x10
	gattIndicate             = 0x20
)

// assumedProperties stands in on backends that hide GATT properties.
const assumedProperties = session.PropWriteWithoutResponse | session.PropNotify

// propertyReporter is implemented by backends that expose GATT properties.
type propertyReporter interface {
	Properties() uint32
}

// ackedWriter is implemented by backends that can write with response.
type ackedWriter interface {
	Write(p []byte) (int, error)
}

func characteristicProperties(c any) session.Property {
	r, ok := c.(propertyReporter)
	if !ok {
		return assumedProperties
	}
	return propertiesFromFlags(r.Properties())
}

func propertiesFromFlags(flags uint32) session.Property {
	var p session.Property
	for bit, prop := range map[uint32]session.Property{
		gattRead:                 session.PropRead,
		gattWriteWithoutResponse: session.PropWriteWithoutResponse,
		gattWrite:                session.PropWrite,
		gattNotify:               session.PropNotify,
		gattIndicate:             session.PropIndicate,
	} {
		if flags&bit != 0 {
			p |= prop
		}
	}
	return p
}
