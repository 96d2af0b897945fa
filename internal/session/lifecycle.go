package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/muurk/earctl/internal/device"
	"github.com/muurk/earctl/internal/protocol"
)

// StartScanning begins discovery. When the transport already holds a
// connection to a peripheral, the session connects to it directly instead.
// It is a no-op while a connection is in progress or established.
func (s *Session) StartScanning(ctx context.Context) error {
	return s.call(ctx, s.startScanning)
}

func (s *Session) startScanning() error {
	switch s.state {
	case StateFoundConnected, StateConnecting, StateConnected:
		s.log.Debug("Not scanning while connected", zap.Stringer("state", s.state))
		return nil
	}

	if err := radioError(s.transport.RadioState()); err != nil {
		s.emitError(err)
		return err
	}

	connected, err := s.transport.ConnectedPeripherals()
	if err != nil {
		s.log.Warn("Listing connected peripherals failed", zap.Error(err))
	}
	if len(connected) > 0 {
		s.log.Info("Found already connected peripheral", zap.Stringer("peripheral", connected[0]))
		s.setState(StateFoundConnected)
		return s.connect(connected[0])
	}

	if err := s.transport.StartScan(); err != nil {
		serr := newError(KindRadioUnavailable, "start scan", err)
		s.emitError(serr)
		return serr
	}
	s.setState(StateScanning)
	return nil
}

// StopScanning ends discovery. It is a no-op when not scanning.
func (s *Session) StopScanning(ctx context.Context) error {
	return s.call(ctx, func() error {
		s.stopScanning()
		return nil
	})
}

func (s *Session) stopScanning() {
	if s.state != StateScanning {
		return
	}
	if err := s.transport.StopScan(); err != nil {
		s.log.Warn("Stop scan failed", zap.Error(err))
	}
	s.setState(StateDisconnected)
}

// Connect stops scanning and connects to p. The outcome arrives as a
// ConnectedEvent.
func (s *Session) Connect(ctx context.Context, p Peripheral) error {
	return s.call(ctx, func() error { return s.connect(p) })
}

func (s *Session) connect(p Peripheral) error {
	s.stopScanning()
	if s.peripheral != nil && s.peripheral.ID != p.ID {
		s.teardown(nil)
	}

	s.peripheral = &p
	s.snapshot.Peripheral = &p
	s.setState(StateConnecting)

	if err := s.transport.Connect(p); err != nil {
		cerr := newError(KindConnectionFailed, p.String(), err)
		s.reset()
		s.setState(StateDisconnected)
		s.emit(ConnectedEvent{Err: cerr})
		return cerr
	}
	return nil
}

// Disconnect cancels the current connection. The outcome arrives as a
// DisconnectedEvent. It is a no-op without a peripheral.
func (s *Session) Disconnect(ctx context.Context) error {
	return s.call(ctx, func() error {
		if s.peripheral == nil {
			return nil
		}
		return s.transport.CancelConnect(*s.peripheral)
	})
}

func (s *Session) handleTransportEvent(ev TransportEvent) {
	switch ev.Kind {
	case TransportDiscovered:
		s.emit(DiscoveredEvent{Peripheral: ev.Peripheral})

	case TransportConnected:
		if !s.isCurrent(ev.Peripheral) || s.state != StateConnecting {
			s.log.Debug("Ignoring connect for stale peripheral", zap.Stringer("peripheral", ev.Peripheral))
			return
		}
		s.onConnected(ev.Peripheral)

	case TransportConnectFailed:
		if !s.isCurrent(ev.Peripheral) {
			return
		}
		err := newError(KindConnectionFailed, ev.Peripheral.String(), ev.Err)
		s.log.Warn("Connection failed", zap.Error(err))
		s.reset()
		s.setState(StateDisconnected)
		s.emit(ConnectedEvent{Err: err})

	case TransportDisconnected:
		if !s.isCurrent(ev.Peripheral) {
			return
		}
		s.log.Info("Disconnected", zap.Stringer("peripheral", ev.Peripheral), zap.Error(ev.Err))
		s.reset()
		s.setState(StateDisconnected)
		s.emit(DisconnectedEvent{Err: ev.Err})

	case TransportValue:
		if s.channels == nil || !s.isCurrent(ev.Peripheral) {
			return
		}
		if ev.Characteristic != "" && !uuidEqual(ev.Characteristic, s.channels.notify.UUID) {
			return
		}
		s.handleFrame(ev.Data)
	}
}

func (s *Session) isCurrent(p Peripheral) bool {
	return s.peripheral != nil && s.peripheral.ID == p.ID
}

func (s *Session) onConnected(p Peripheral) {
	s.setState(StateConnected)
	s.peripheral = &p
	s.snapshot.Peripheral = &p

	s.snapshot.Info = DeviceInfo{Name: p.Name, Address: p.Address}
	if m, ok := device.FromName(p.Name); ok {
		s.snapshot.Info.Model = m
	}

	services, err := s.transport.DiscoverServices(p)
	if err != nil {
		s.failConnection(newError(KindConnectionFailed, "service discovery", err))
		return
	}

	pair, err := selectChannels(s.transport, p, services, s.log)
	if err != nil {
		s.failConnection(err.(*Error))
		return
	}
	s.log.Info("Selected control service",
		zap.String("service", pair.service.UUID),
		zap.String("write", pair.write.UUID),
		zap.String("notify", pair.notify.UUID),
		zap.Int("score", pair.score))

	if err := s.transport.Subscribe(p, pair.notify); err != nil {
		s.failConnection(newError(KindConnectionFailed, "subscribe", err))
		return
	}

	s.channels = &pair
	s.writeMode = WriteWithoutResponse
	if pair.write.Properties.Has(PropWrite) {
		s.writeMode = WriteWithResponse
	}

	s.startHandshake()
}

// failConnection aborts a connection attempt that the transport considers
// established.
func (s *Session) failConnection(err *Error) {
	s.emitError(err)
	s.emit(ConnectedEvent{Info: s.snapshot.Info, Err: err})
	s.teardown(err)
}

// teardown drops the connection locally and asks the transport to follow.
// The transport's own disconnect event is ignored afterwards.
func (s *Session) teardown(err error) {
	p := s.peripheral
	s.reset()
	s.setState(StateDisconnected)
	if p == nil {
		return
	}
	if cerr := s.transport.CancelConnect(*p); cerr != nil {
		s.log.Warn("Cancel connection failed", zap.Error(cerr))
	}
	if err != nil {
		s.emit(DisconnectedEvent{Err: err})
	}
}

// reset clears connection scoped state.
func (s *Session) reset() {
	s.stopHandshakeTimer()
	s.generation++
	s.peripheral = nil
	s.channels = nil
	s.opID = 0
	s.serialReceived = false
	s.firmwareReceived = false
	s.connectEmitted = false
	s.snapshot = Snapshot{State: s.state}
}

func (s *Session) startHandshake() {
	s.serialReceived = false
	s.firmwareReceived = false
	s.connectEmitted = false

	s.stopHandshakeTimer()
	gen := s.generation
	s.handshakeTimer = s.after(s.handshakeTimeout, func() {
		if s.generation != gen || s.connectEmitted {
			return
		}
		s.onHandshakeTimeout()
	})

	_ = s.sendRead(protocol.ReadSerialNumber)
	s.after(s.stagger, func() {
		if s.generation != gen || !s.isConnected() {
			return
		}
		_ = s.sendRead(protocol.ReadFirmware)
	})
}

func (s *Session) stopHandshakeTimer() {
	if s.handshakeTimer != nil {
		s.handshakeTimer.Stop()
		s.handshakeTimer = nil
	}
}

func (s *Session) onHandshakeTimeout() {
	err := newError(KindTimeout, "handshake did not complete", nil)
	s.emitError(err)
	s.emit(ConnectedEvent{Info: s.snapshot.Info, Err: err})
	s.teardown(err)
}

// tryCompleteHandshake emits the connect event once both handshake answers
// are in, then starts the status refresh.
func (s *Session) tryCompleteHandshake() {
	if s.connectEmitted || !s.serialReceived || !s.firmwareReceived {
		return
	}
	s.connectEmitted = true
	s.stopHandshakeTimer()

	info := s.snapshot.Info
	s.log.Info("Connected",
		zap.String("model", info.Model.DisplayName()),
		zap.String("serial", info.SerialNumber),
		zap.String("firmware", info.FirmwareVersion))
	s.emit(ConnectedEvent{Info: info})

	s.schedule(s.statusReads())
}

// statusReads lists the reads issued after the handshake, skipping what the
// model cannot answer.
func (s *Session) statusReads() []protocol.Command {
	line := s.snapshot.Info.Model.Line

	reads := []struct {
		cmd protocol.Command
		cap device.Capability
	}{
		{protocol.ReadInEarDetection, device.CapInEarDetection},
		{protocol.ReadLowLatency, device.CapLowLatency},
		{protocol.ReadEnhancedBass, device.CapEnhancedBass},
		{protocol.ReadNoiseControl, device.CapNoiseControl},
		{line.EQReadCommand(), device.CapEQ},
		{protocol.ReadBattery, -1},
		{protocol.ReadGesture, device.CapGestures},
		{protocol.ReadSpatialAudio, device.CapSpatialAudio},
		{protocol.ReadRingBuds, device.CapRingBuds},
		{protocol.ReadPersonalizedANC, device.CapPersonalizedANC},
		{protocol.ReadCustomEQ, device.CapCustomEQ},
	}

	var cmds []protocol.Command
	for _, r := range reads {
		// unresolved models still get the reads every line answers
		if r.cap >= 0 && !line.Supports(r.cap) && !(line == device.LineUnknown && universal(r.cap)) {
			continue
		}
		cmds = append(cmds, r.cmd)
	}
	return cmds
}

func universal(c device.Capability) bool {
	switch c {
	case device.CapEQ, device.CapLowLatency, device.CapGestures:
		return true
	}
	return false
}
