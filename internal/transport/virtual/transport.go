package virtual

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/earctl/internal/logging"
	"github.com/muurk/earctl/internal/session"
)

// Advertised GATT layout. Every virtual device exposes device information
// and the FD90 control service.
var (
	deviceInfoService = session.Service{UUID: "180A"}
	controlService    = session.Service{UUID: "FD90"}

	controlWrite = session.Characteristic{
		UUID:       session.KnownServices[1].Write,
		Service:    controlService.UUID,
		Properties: session.PropWrite | session.PropWriteWithoutResponse,
	}
	controlNotify = session.Characteristic{
		UUID:       session.KnownServices[1].Notify,
		Service:    controlService.UUID,
		Properties: session.PropNotify,
	}
	modelNumber = session.Characteristic{
		UUID:       "2A24",
		Service:    deviceInfoService.UUID,
		Properties: session.PropRead,
	}
)

// ErrUnknownPeripheral is returned for peripherals the transport never
// advertised.
var ErrUnknownPeripheral = errors.New("unknown peripheral")

const eventBufferSize = 256

// Option configures a Transport.
type Option func(*Transport)

// WithDevice adds an emulated device.
func WithDevice(d *Device) Option {
	return func(t *Transport) { t.devices[d.ID] = d }
}

// WithRadioState sets the reported radio state.
func WithRadioState(s session.RadioState) Option {
	return func(t *Transport) { t.radio = s }
}

// WithLatency delays every connect and response by d.
func WithLatency(d time.Duration) Option {
	return func(t *Transport) { t.latency = d }
}

// WithAlreadyConnected makes the device with the given ID report as
// connected before any scan.
func WithAlreadyConnected(id string) Option {
	return func(t *Transport) { t.preconnected = id }
}

// Transport is an in-memory session.Transport backed by emulated devices.
type Transport struct {
	mu           sync.Mutex
	radio        session.RadioState
	latency      time.Duration
	devices      map[string]*Device
	connected    map[string]bool
	subscribed   map[string]bool
	preconnected string
	scanning     bool

	events chan session.TransportEvent
	closed chan struct{}
	once   sync.Once
	log    *zap.Logger
}

// New creates a transport. Without options it has a powered radio and no
// devices.
func New(opts ...Option) *Transport {
	t := &Transport{
		radio:      session.RadioPoweredOn,
		devices:    make(map[string]*Device),
		connected:  make(map[string]bool),
		subscribed: make(map[string]bool),
		events:     make(chan session.TransportEvent, eventBufferSize),
		closed:     make(chan struct{}),
		log:        logging.Named("virtual"),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.preconnected != "" {
		t.connected[t.preconnected] = true
	}
	return t
}

// Close stops event delivery.
func (t *Transport) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}

// Device returns the emulated device with the given ID.
func (t *Transport) Device(id string) (*Device, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.devices[id]
	return d, ok
}

func (t *Transport) peripheral(d *Device) session.Peripheral {
	return session.Peripheral{ID: d.ID, Name: d.Name, Address: d.Address, RSSI: -50}
}

func (t *Transport) device(p session.Peripheral) (*Device, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.devices[p.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPeripheral, p.ID)
	}
	return d, nil
}

// deliver queues an event after the configured latency.
func (t *Transport) deliver(ev session.TransportEvent) {
	send := func() {
		select {
		case t.events <- ev:
		case <-t.closed:
		default:
			t.log.Warn("Event buffer full, dropping event", zap.Int("kind", int(ev.Kind)))
		}
	}
	if t.latency > 0 {
		time.AfterFunc(t.latency, send)
		return
	}
	send()
}

func (t *Transport) RadioState() session.RadioState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.radio
}

// StartScan reports every device not yet connected as discovered.
func (t *Transport) StartScan() error {
	t.mu.Lock()
	if t.radio != session.RadioPoweredOn {
		t.mu.Unlock()
		return fmt.Errorf("radio is %s", t.radio)
	}
	t.scanning = true
	var found []session.Peripheral
	for id, d := range t.devices {
		if !t.connected[id] {
			found = append(found, t.peripheral(d))
		}
	}
	t.mu.Unlock()

	for _, p := range found {
		t.log.Debug("Advertising", zap.Stringer("peripheral", p))
		t.deliver(session.TransportEvent{Kind: session.TransportDiscovered, Peripheral: p})
	}
	return nil
}

func (t *Transport) StopScan() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scanning = false
	return nil
}

// ConnectedPeripherals lists devices that are already linked to the host.
func (t *Transport) ConnectedPeripherals() ([]session.Peripheral, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ps []session.Peripheral
	for id := range t.connected {
		if d, ok := t.devices[id]; ok {
			ps = append(ps, t.peripheral(d))
		}
	}
	return ps, nil
}

func (t *Transport) Connect(p session.Peripheral) error {
	d, err := t.device(p)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.connected[d.ID] = true
	t.mu.Unlock()

	t.log.Info("Connected", zap.Stringer("peripheral", p))
	t.deliver(session.TransportEvent{Kind: session.TransportConnected, Peripheral: t.peripheral(d)})
	return nil
}

func (t *Transport) CancelConnect(p session.Peripheral) error {
	t.mu.Lock()
	wasConnected := t.connected[p.ID]
	delete(t.connected, p.ID)
	delete(t.subscribed, p.ID)
	t.mu.Unlock()

	if wasConnected {
		t.log.Info("Disconnected", zap.Stringer("peripheral", p))
		t.deliver(session.TransportEvent{Kind: session.TransportDisconnected, Peripheral: p})
	}
	return nil
}

// Drop simulates the peripheral going out of range.
func (t *Transport) Drop(id string, cause error) {
	t.mu.Lock()
	d, ok := t.devices[id]
	wasConnected := t.connected[id]
	delete(t.connected, id)
	delete(t.subscribed, id)
	t.mu.Unlock()

	if ok && wasConnected {
		t.deliver(session.TransportEvent{Kind: session.TransportDisconnected, Peripheral: t.peripheral(d), Err: cause})
	}
}

func (t *Transport) DiscoverServices(p session.Peripheral) ([]session.Service, error) {
	if !t.IsConnected(p) {
		return nil, fmt.Errorf("discover services: %s not connected", p.ID)
	}
	return []session.Service{deviceInfoService, controlService}, nil
}

func (t *Transport) DiscoverCharacteristics(p session.Peripheral, s session.Service) ([]session.Characteristic, error) {
	if !t.IsConnected(p) {
		return nil, fmt.Errorf("discover characteristics: %s not connected", p.ID)
	}
	switch s.UUID {
	case controlService.UUID:
		return []session.Characteristic{controlWrite, controlNotify}, nil
	case deviceInfoService.UUID:
		return []session.Characteristic{modelNumber}, nil
	}
	return nil, fmt.Errorf("discover characteristics: no service %s", s.UUID)
}

func (t *Transport) Subscribe(p session.Peripheral, c session.Characteristic) error {
	if c.UUID != controlNotify.UUID {
		return fmt.Errorf("subscribe: %s does not notify", c.UUID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected[p.ID] {
		return fmt.Errorf("subscribe: %s not connected", p.ID)
	}
	t.subscribed[p.ID] = true
	return nil
}

// Write hands the frame to the emulated device and queues its answer.
func (t *Transport) Write(p session.Peripheral, c session.Characteristic, data []byte, _ session.WriteMode) error {
	if c.UUID != controlWrite.UUID {
		return fmt.Errorf("write: %s is not writable", c.UUID)
	}
	d, err := t.device(p)
	if err != nil {
		return err
	}
	t.mu.Lock()
	connected, subscribed := t.connected[p.ID], t.subscribed[p.ID]
	t.mu.Unlock()
	if !connected {
		return fmt.Errorf("write: %s not connected", p.ID)
	}

	resp, err := d.handle(data, t.log)
	if err != nil {
		// a real device ignores requests it cannot parse
		t.log.Warn("Device rejected request", zap.Error(err))
		return nil
	}
	if resp == nil || !subscribed {
		return nil
	}
	t.deliver(session.TransportEvent{
		Kind:           session.TransportValue,
		Peripheral:     t.peripheral(d),
		Characteristic: controlNotify.UUID,
		Data:           resp,
	})
	return nil
}

func (t *Transport) IsConnected(p session.Peripheral) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected[p.ID]
}

func (t *Transport) Events() <-chan session.TransportEvent {
	return t.events
}

var _ session.Transport = (*Transport)(nil)
