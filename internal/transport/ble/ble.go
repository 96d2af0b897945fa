package ble

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/muurk/earctl/internal/logging"
	"github.com/muurk/earctl/internal/session"
)

const eventBufferSize = 256

var (
	// ErrNotConnected is returned for GATT calls on a peripheral without a link.
	ErrNotConnected = errors.New("peripheral not connected")

	// ErrLinkLost is the cause reported when the peripheral drops the link.
	ErrLinkLost = errors.New("link lost")
)

// link is the live GATT state of one connected peripheral.
type link struct {
	peripheral session.Peripheral
	device     bluetooth.Device
	services   map[string]bluetooth.DeviceService
	chars      map[string]bluetooth.DeviceCharacteristic
}

func newLink(p session.Peripheral, dev bluetooth.Device) *link {
	return &link{
		peripheral: p,
		device:     dev,
		services:   make(map[string]bluetooth.DeviceService),
		chars:      make(map[string]bluetooth.DeviceCharacteristic),
	}
}

// Transport drives the host adapter through tinygo.org/x/bluetooth.
type Transport struct {
	adapter *bluetooth.Adapter
	radio   session.RadioState
	log     *zap.Logger

	mu        sync.Mutex
	addresses map[string]bluetooth.Address
	links     map[string]*link
	pending   map[string]uint64 // dial generation per peripheral
	dials     uint64
	scanning  bool
	closed    bool

	events chan session.TransportEvent
}

// New enables the default adapter. A radio that cannot be enabled is
// reported through RadioState rather than as an error so the session can
// surface it.
func New() *Transport {
	t := newTransport(bluetooth.DefaultAdapter)
	// must be registered before the first Connect
	t.adapter.SetConnectHandler(t.onConnectChange)
	if err := t.adapter.Enable(); err != nil {
		t.log.Warn("Failed to enable Bluetooth adapter", zap.Error(err))
		t.radio = session.RadioPoweredOff
	}
	return t
}

func newTransport(adapter *bluetooth.Adapter) *Transport {
	return &Transport{
		adapter:   adapter,
		radio:     session.RadioPoweredOn,
		log:       logging.Named("ble"),
		addresses: make(map[string]bluetooth.Address),
		links:     make(map[string]*link),
		pending:   make(map[string]uint64),
		events:    make(chan session.TransportEvent, eventBufferSize),
	}
}

// onConnectChange is the adapter's connect handler. Not every backend
// reports remote disconnects through it; failed writes are treated as a
// lost link as well.
func (t *Transport) onConnectChange(d bluetooth.Device, connected bool) {
	if connected {
		return
	}
	t.linkLost(d.Address.String(), ErrLinkLost)
}

// linkLost forgets the link to id and reports the disconnect. It returns
// the dropped link, or nil when there was none.
func (t *Transport) linkLost(id string, cause error) *link {
	t.mu.Lock()
	l, ok := t.links[id]
	delete(t.links, id)
	t.mu.Unlock()
	if !ok {
		return nil
	}
	t.log.Info("Link lost", zap.Stringer("peripheral", l.peripheral), zap.Error(cause))
	t.emit(session.TransportEvent{Kind: session.TransportDisconnected, Peripheral: l.peripheral, Err: cause})
	return l
}

func (t *Transport) emit(ev session.TransportEvent) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return
	}
	select {
	case t.events <- ev:
	default:
		t.log.Warn("Event buffer full, dropping event", zap.Int("kind", int(ev.Kind)))
	}
}

func (t *Transport) RadioState() session.RadioState { return t.radio }

// StartScan runs the adapter scan in the background. Only advertisements
// with a supported local name are reported.
func (t *Transport) StartScan() error {
	t.mu.Lock()
	if t.scanning {
		t.mu.Unlock()
		return nil
	}
	t.scanning = true
	t.mu.Unlock()

	go func() {
		err := t.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			name := result.LocalName()
			if !IsCandidateName(name) {
				return
			}
			id := result.Address.String()
			t.mu.Lock()
			t.addresses[id] = result.Address
			t.mu.Unlock()
			t.emit(session.TransportEvent{
				Kind:       session.TransportDiscovered,
				Peripheral: session.Peripheral{ID: id, Name: name, Address: id, RSSI: int(result.RSSI)},
			})
		})
		if err != nil {
			t.log.Warn("Scan ended with error", zap.Error(err))
		}
		t.mu.Lock()
		t.scanning = false
		t.mu.Unlock()
	}()
	return nil
}

func (t *Transport) StopScan() error {
	t.mu.Lock()
	scanning := t.scanning
	t.mu.Unlock()
	if !scanning {
		return nil
	}
	return t.adapter.StopScan()
}

// ConnectedPeripherals lists links this transport holds. The adapter API
// offers no view of connections made by other applications.
func (t *Transport) ConnectedPeripherals() ([]session.Peripheral, error) {
	return nil, nil
}

// Connect dials in the background and reports the outcome as an event.
func (t *Transport) Connect(p session.Peripheral) error {
	t.mu.Lock()
	addr, ok := t.addresses[p.ID]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("connect %s: not seen while scanning", p)
	}
	t.dials++
	gen := t.dials
	t.pending[p.ID] = gen
	t.mu.Unlock()

	go func() {
		dev, err := t.adapter.Connect(addr, bluetooth.ConnectionParams{})
		if !t.finishDial(p, gen, dev, err) && err == nil {
			// cancelled while dialing
			_ = dev.Disconnect()
		}
	}()
	return nil
}

// finishDial records the outcome of dial gen and reports it. It returns
// false when the dial was cancelled or superseded, in which case nothing is
// reported.
func (t *Transport) finishDial(p session.Peripheral, gen uint64, dev bluetooth.Device, err error) bool {
	t.mu.Lock()
	if t.pending[p.ID] != gen || t.closed {
		t.mu.Unlock()
		t.log.Debug("Dropping cancelled dial", zap.Stringer("peripheral", p), zap.Error(err))
		return false
	}
	delete(t.pending, p.ID)
	if err == nil {
		t.links[p.ID] = newLink(p, dev)
	}
	t.mu.Unlock()

	if err != nil {
		t.emit(session.TransportEvent{Kind: session.TransportConnectFailed, Peripheral: p, Err: err})
		return true
	}
	t.log.Info("Connected", zap.Stringer("peripheral", p))
	t.emit(session.TransportEvent{Kind: session.TransportConnected, Peripheral: p})
	return true
}

// CancelConnect drops the link to p, or abandons a dial still in progress.
func (t *Transport) CancelConnect(p session.Peripheral) error {
	t.mu.Lock()
	_, dialing := t.pending[p.ID]
	delete(t.pending, p.ID)
	l, ok := t.links[p.ID]
	delete(t.links, p.ID)
	t.mu.Unlock()
	if !ok {
		if dialing {
			t.log.Info("Connect cancelled", zap.Stringer("peripheral", p))
			t.emit(session.TransportEvent{Kind: session.TransportDisconnected, Peripheral: p})
		}
		return nil
	}

	err := l.device.Disconnect()
	t.emit(session.TransportEvent{Kind: session.TransportDisconnected, Peripheral: p})
	if err != nil {
		return fmt.Errorf("disconnect %s: %w", p, err)
	}
	return nil
}

func (t *Transport) link(p session.Peripheral) (*link, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.links[p.ID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNotConnected)
	}
	return l, nil
}

func (t *Transport) DiscoverServices(p session.Peripheral) ([]session.Service, error) {
	l, err := t.link(p)
	if err != nil {
		return nil, err
	}
	svcs, err := l.device.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", err)
	}

	out := make([]session.Service, 0, len(svcs))
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, svc := range svcs {
		id := serviceID(svc.UUID().String())
		l.services[id] = svc
		out = append(out, session.Service{UUID: id})
	}
	return out, nil
}

// DiscoverCharacteristics reports GATT properties where the backend exposes
// them. Elsewhere every characteristic is reported as unacknowledged write
// plus notify.
func (t *Transport) DiscoverCharacteristics(p session.Peripheral, s session.Service) ([]session.Characteristic, error) {
	l, err := t.link(p)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	svc, ok := l.services[s.UUID]
	t.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("discover characteristics: unknown service %s", s.UUID)
	}

	chars, err := svc.DiscoverCharacteristics(nil)
	if err != nil {
		return nil, fmt.Errorf("discover characteristics: %w", err)
	}

	out := make([]session.Characteristic, 0, len(chars))
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range chars {
		id := serviceID(c.UUID().String())
		l.chars[id] = c
		out = append(out, session.Characteristic{
			UUID:       id,
			Service:    s.UUID,
			Properties: characteristicProperties(c),
		})
	}
	return out, nil
}

func (t *Transport) characteristic(p session.Peripheral, c session.Characteristic) (bluetooth.DeviceCharacteristic, error) {
	l, err := t.link(p)
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if dc, ok := l.chars[c.UUID]; ok {
		return dc, nil
	}
	for id, dc := range l.chars {
		if sameUUID(c.UUID, id) {
			return dc, nil
		}
	}
	return bluetooth.DeviceCharacteristic{}, fmt.Errorf("unknown characteristic %s", c.UUID)
}

func (t *Transport) Subscribe(p session.Peripheral, c session.Characteristic) error {
	dc, err := t.characteristic(p, c)
	if err != nil {
		return err
	}
	err = dc.EnableNotifications(func(data []byte) {
		t.emit(session.TransportEvent{
			Kind:           session.TransportValue,
			Peripheral:     p,
			Characteristic: c.UUID,
			Data:           append([]byte(nil), data...),
		})
	})
	if err != nil {
		return fmt.Errorf("enable notifications on %s: %w", c.UUID, err)
	}
	return nil
}

// Write sends with response when asked and the backend supports it. A failed
// write drops the link.
func (t *Transport) Write(p session.Peripheral, c session.Characteristic, data []byte, mode session.WriteMode) error {
	dc, err := t.characteristic(p, c)
	if err != nil {
		return err
	}
	if w, ok := any(dc).(ackedWriter); ok && mode == session.WriteWithResponse {
		_, err = w.Write(data)
	} else {
		_, err = dc.WriteWithoutResponse(data)
	}
	if err != nil {
		err = fmt.Errorf("write %s: %w", c.UUID, err)
		if l := t.linkLost(p.ID, err); l != nil {
			_ = l.device.Disconnect()
		}
		return err
	}
	return nil
}

func (t *Transport) IsConnected(p session.Peripheral) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.links[p.ID]
	return ok
}

func (t *Transport) Events() <-chan session.TransportEvent { return t.events }

// Close stops scanning and drops every link. Events already queued stay
// readable.
func (t *Transport) Close() error {
	_ = t.StopScan()

	t.mu.Lock()
	links := t.links
	t.links = make(map[string]*link)
	t.pending = make(map[string]uint64)
	t.closed = true
	t.mu.Unlock()

	var errs []error
	for id, l := range links {
		if err := l.device.Disconnect(); err != nil {
			errs = append(errs, fmt.Errorf("disconnect %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

var _ session.Transport = (*Transport)(nil)
