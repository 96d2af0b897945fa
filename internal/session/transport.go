package session

import "fmt"

// RadioState is the power and authorization state of the host radio.
type RadioState int

const (
	RadioUnknown RadioState = iota
	RadioPoweredOn
	RadioPoweredOff
	RadioUnauthorized
	RadioUnsupported
)

func (r RadioState) String() string {
	switch r {
	case RadioPoweredOn:
		return "powered_on"
	case RadioPoweredOff:
		return "powered_off"
	case RadioUnauthorized:
		return "unauthorized"
	case RadioUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Peripheral identifies a remote device as seen by the transport.
type Peripheral struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	RSSI    int    `json:"rssi,omitempty"`
}

func (p Peripheral) String() string {
	if p.Name == "" {
		return p.ID
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.ID)
}

// Property is a bit set of characteristic capabilities.
type Property uint8

const (
	PropRead Property = 1 << iota
	PropWrite
	PropWriteWithoutResponse
	PropNotify
	PropIndicate
)

// Has reports whether every bit in q is set.
func (p Property) Has(q Property) bool {
	return p&q == q
}

// CanWrite reports whether the characteristic accepts writes of either kind.
func (p Property) CanWrite() bool {
	return p&(PropWrite|PropWriteWithoutResponse) != 0
}

// CanNotify reports whether the characteristic can push values.
func (p Property) CanNotify() bool {
	return p&(PropNotify|PropIndicate) != 0
}

// Service is a GATT service. UUID is either a 16-bit short form ("FD90") or
// a full 128-bit UUID string.
type Service struct {
	UUID string
}

// Characteristic is a GATT characteristic within a service.
type Characteristic struct {
	UUID       string
	Service    string
	Properties Property
}

// WriteMode selects acknowledged or unacknowledged writes.
type WriteMode int

const (
	WriteWithResponse WriteMode = iota
	WriteWithoutResponse
)

// TransportEventKind tags a TransportEvent.
type TransportEventKind int

const (
	TransportDiscovered TransportEventKind = iota
	TransportConnected
	TransportConnectFailed
	TransportDisconnected
	TransportValue
)

// TransportEvent is an asynchronous notification from the transport.
type TransportEvent struct {
	Kind           TransportEventKind
	Peripheral     Peripheral
	Characteristic string // TransportValue only
	Data           []byte // TransportValue only
	Err            error  // TransportConnectFailed, TransportDisconnected
}

// Transport is the wireless link the session drives. Connect and
// CancelConnect are asynchronous: their outcome arrives on Events as
// TransportConnected, TransportConnectFailed or TransportDisconnected. The
// discovery, subscribe and write calls may block until the peripheral
// answers.
type Transport interface {
	RadioState() RadioState
	StartScan() error
	StopScan() error
	ConnectedPeripherals() ([]Peripheral, error)
	Connect(p Peripheral) error
	CancelConnect(p Peripheral) error
	DiscoverServices(p Peripheral) ([]Service, error)
	DiscoverCharacteristics(p Peripheral, s Service) ([]Characteristic, error)
	Subscribe(p Peripheral, c Characteristic) error
	Write(p Peripheral, c Characteristic, data []byte, mode WriteMode) error
	IsConnected(p Peripheral) bool
	Events() <-chan TransportEvent
}
