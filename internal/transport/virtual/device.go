package virtual

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/earctl/internal/device"
	"github.com/muurk/earctl/internal/protocol"
)

// Device is an emulated peripheral. It keeps the settings a real unit would
// and answers framed requests from them.
type Device struct {
	ID       string
	Name     string
	Address  string
	Serial   string
	Firmware string
	Model    device.Model

	mu           sync.Mutex
	battery      protocol.Battery
	noise        protocol.NoiseControlMode
	eq           protocol.EQPreset
	customEQ     protocol.CustomEQ
	bass         protocol.EnhancedBass
	spatial      protocol.SpatialAudioMode
	settings     protocol.DeviceSettings
	gestures     []protocol.Gesture
	ring         protocol.RingState
	silent       map[protocol.Command]bool
	requestCount int
}

// NewDevice creates an emulated unit of the given model with plausible
// defaults. The advertised name is the line's display name.
func NewDevice(id string, model device.Model, serial string) *Device {
	d := &Device{
		ID:       id,
		Name:     model.Line.DisplayName(),
		Address:  id,
		Serial:   serial,
		Firmware: "1.0.0.100",
		Model:    model,
		noise:    protocol.NoiseControlOff,
		eq:       protocol.EQBalanced,
		spatial:  protocol.SpatialOff,
		settings: protocol.DeviceSettings{InEarDetection: true},
		gestures: []protocol.Gesture{
			{Device: protocol.GestureDeviceLeft, Type: protocol.GestureDoubleTap, Action: protocol.ActionPreviousTrack},
			{Device: protocol.GestureDeviceRight, Type: protocol.GestureDoubleTap, Action: protocol.ActionNextTrack},
		},
		silent: make(map[protocol.Command]bool),
	}

	if model.Supports(device.CapSingleBattery) {
		d.battery = protocol.Battery{
			SingleDevice: true,
			Single:       protocol.BatteryLevel{Level: 80, Connected: true},
		}
	} else {
		d.battery = protocol.Battery{
			Case:  protocol.BatteryLevel{Level: 60, Connected: true, Charging: true},
			Left:  protocol.BatteryLevel{Level: 90, Connected: true},
			Right: protocol.BatteryLevel{Level: 85, Connected: true},
		}
	}
	return d
}

// Silence stops the device answering cmd. Used to exercise handshake
// timeouts.
func (d *Device) Silence(cmd protocol.Command) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.silent[cmd] = true
}

// SetBattery replaces the reported battery state.
func (d *Device) SetBattery(b protocol.Battery) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.battery = b
}

// NoiseControl returns the current noise control mode.
func (d *Device) NoiseControl() protocol.NoiseControlMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.noise
}

// EQ returns the current preset.
func (d *Device) EQ() protocol.EQPreset {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eq
}

// Settings returns the current boolean settings.
func (d *Device) Settings() protocol.DeviceSettings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settings
}

// Ring returns the last ring request.
func (d *Device) Ring() protocol.RingState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ring
}

// Requests returns how many frames the device has received.
func (d *Device) Requests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requestCount
}

// handle applies one request frame and returns the response frame, or nil
// when the request gets no answer.
func (d *Device) handle(frame []byte, log *zap.Logger) ([]byte, error) {
	req, err := protocol.DecodeResponse(frame)
	if err != nil {
		return nil, fmt.Errorf("virtual device: bad request: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.requestCount++

	if d.silent[req.Command] {
		log.Debug("Ignoring silenced request", zap.Stringer("command", req.Command))
		return nil, nil
	}

	switch req.Command.Kind() {
	case protocol.KindRead:
		resp, payload, ok := d.read(req.Command)
		if !ok {
			log.Debug("No answer for read", zap.Stringer("command", req.Command))
			return nil, nil
		}
		return protocol.Request{Command: resp, Payload: payload, OperationID: req.OperationID}.MustEncode(), nil
	case protocol.KindWrite:
		if err := d.write(req.Command, req.Payload); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("virtual device: unexpected command %s", req.Command)
	}
}

func (d *Device) read(cmd protocol.Command) (protocol.Command, []byte, bool) {
	switch cmd {
	case protocol.ReadSerialNumber:
		return protocol.RespSerialNumber, protocol.EncodeSerialNumber(d.Serial), true
	case protocol.ReadFirmware:
		return protocol.RespFirmware, []byte(d.Firmware), true
	case protocol.ReadBattery:
		return protocol.RespBatteryB, protocol.EncodeBattery(d.battery), true
	case protocol.ReadNoiseControl:
		p, _ := protocol.EncodeNoiseControl(d.noise)
		return protocol.RespNoiseControlB, p, true
	case protocol.ReadEQ, protocol.ReadListeningMode:
		p, _ := protocol.EncodeEQPreset(d.eq)
		resp, _ := protocol.ResponseFor(cmd)
		return resp, []byte{0x00, p[0]}, true
	case protocol.ReadCustomEQ:
		return protocol.RespCustomEQ, protocol.EncodeCustomEQReadResponse(d.customEQ), true
	case protocol.ReadEnhancedBass:
		p, _ := protocol.EncodeEnhancedBass(d.bass)
		return protocol.RespEnhancedBass, p, true
	case protocol.ReadSpatialAudio:
		p, _ := protocol.EncodeSpatialAudio(d.spatial)
		return protocol.RespSpatialAudio, p, true
	case protocol.ReadInEarDetection:
		return protocol.RespInEarDetection, protocol.EncodeInEarDetection(d.settings.InEarDetection), true
	case protocol.ReadLowLatency:
		return protocol.RespLowLatency, protocol.EncodeLowLatency(d.settings.LowLatency), true
	case protocol.ReadPersonalizedANC:
		return protocol.RespPersonalizedANC, protocol.EncodePersonalizedANC(d.settings.PersonalizedANC), true
	case protocol.ReadGesture:
		return protocol.RespGesture, protocol.EncodeGestures(d.gestures), true
	case protocol.ReadRingBuds:
		return protocol.RespRingBuds, protocol.EncodeRingBudsResponse(d.ring), true
	}
	return 0, nil, false
}

func (d *Device) write(cmd protocol.Command, payload []byte) error {
	var err error
	switch cmd {
	case protocol.WriteNoiseControl:
		d.noise, err = protocol.DecodeNoiseControl(payload)
	case protocol.WriteEQ, protocol.WriteListeningMode:
		if len(payload) > 0 {
			// the write carries the ordinal first, unlike the response
			d.eq, err = protocol.DecodeEQPreset(payload[:1])
		}
	case protocol.WriteCustomEQ:
		d.customEQ, err = protocol.DecodeCustomEQWrite(payload)
	case protocol.WriteEnhancedBass:
		d.bass, err = protocol.DecodeEnhancedBass(payload)
	case protocol.WriteSpatialAudio:
		d.spatial, err = protocol.DecodeSpatialAudio(payload)
	case protocol.WriteInEarDetection:
		d.settings.InEarDetection, err = protocol.DecodeInEarDetection(payload)
	case protocol.WriteLowLatency:
		d.settings.LowLatency, err = protocol.DecodeLowLatency(payload)
	case protocol.WritePersonalizedANC:
		d.settings.PersonalizedANC, err = protocol.DecodePersonalizedANC(payload)
	case protocol.WriteGesture:
		err = d.writeGesture(payload)
	case protocol.WriteRingBuds:
		d.ring, err = protocol.DecodeRingBuds(append([]byte{0x00}, payload...))
	default:
		return fmt.Errorf("virtual device: unsupported write %s", cmd)
	}
	if err != nil {
		return fmt.Errorf("virtual device: %s: %w", cmd, err)
	}
	return nil
}

// writeGesture replaces the binding for the written side and touch type.
// The write layout is a one-entry gesture list; a write without a side
// applies to both.
func (d *Device) writeGesture(payload []byte) error {
	if len(payload) >= 2 && payload[1] == gestureNoSide {
		for _, side := range []byte{gestureLeft, gestureRight} {
			sided := append([]byte(nil), payload...)
			sided[1] = side
			if err := d.writeGesture(sided); err != nil {
				return err
			}
		}
		return nil
	}

	written := protocol.DecodeGestures(payload)
	if len(written) != 1 {
		return fmt.Errorf("gesture write: % X", payload)
	}
	g := written[0]
	for i, existing := range d.gestures {
		if existing.Device == g.Device && existing.Type == g.Type {
			d.gestures[i] = g
			return nil
		}
	}
	d.gestures = append(d.gestures, g)
	return nil
}

// Gesture side bytes as written on the wire.
const (
	gestureNoSide = 0x01
	gestureLeft   = 0x02
	gestureRight  = 0x03
)
