package session

import (
	"go.uber.org/zap"

	"github.com/muurk/earctl/internal/device"
	"github.com/muurk/earctl/internal/logging"
	"github.com/muurk/earctl/internal/protocol"
)

// handleFrame decodes a notification and routes it by command code. The
// operation ID is only logged; responses are not correlated with requests.
func (s *Session) handleFrame(data []byte) {
	logging.LogFrame(logging.DirectionIncoming, data)

	resp, err := protocol.DecodeResponse(data)
	if err != nil {
		s.emitError(newError(KindInvalidResponse, "frame", err))
		return
	}

	feature, ok := protocol.LookupResponse(resp.Command)
	if !ok {
		s.log.Warn("Unhandled response", zap.Stringer("response", resp))
		return
	}
	s.log.Debug("Received response", zap.Stringer("feature", feature), zap.Uint8("op", resp.OperationID))

	if err := s.applyResponse(feature, resp.Payload); err != nil {
		s.emitError(newError(KindInvalidResponse, feature.String(), err))
	}
}

// applyResponse folds one decoded feature into the snapshot and reports it.
func (s *Session) applyResponse(feature protocol.Feature, payload []byte) error {
	model := s.snapshot.Info.Model

	switch feature {
	case protocol.FeatureSerialNumber:
		// The flag is set even for an unparseable answer so a device with an
		// odd serial format still completes the handshake.
		s.serialReceived = true
		defer s.tryCompleteHandshake()

		serial, err := protocol.DecodeSerialNumber(payload)
		if err != nil {
			return err
		}
		s.snapshot.Info.SerialNumber = serial
		if m, ok := device.Resolve(s.snapshot.Info.Name, serial); ok {
			if m != model {
				s.log.Info("Resolved model", zap.Stringer("model", m), zap.String("serial", serial))
			}
			s.snapshot.Info.Model = m
		}

	case protocol.FeatureFirmware:
		s.firmwareReceived = true
		defer s.tryCompleteHandshake()
		s.snapshot.Info.FirmwareVersion = protocol.DecodeFirmware(payload)

	case protocol.FeatureBattery:
		b, err := protocol.DecodeBattery(payload, model.Supports(device.CapSingleBattery))
		if err != nil {
			return err
		}
		s.snapshot.Battery = &b
		s.emit(BatteryEvent{Battery: b})

	case protocol.FeatureNoiseControl:
		m, err := protocol.DecodeNoiseControl(payload)
		if err != nil {
			return err
		}
		s.snapshot.NoiseControl = &m
		s.emit(NoiseControlEvent{Mode: m})

	case protocol.FeatureEQ:
		p, err := protocol.DecodeEQPreset(payload)
		if err != nil {
			return err
		}
		s.snapshot.EQ = &p
		s.emit(EQEvent{Preset: p})

	case protocol.FeatureCustomEQ:
		c, err := protocol.DecodeCustomEQ(payload)
		if err != nil {
			return err
		}
		s.snapshot.CustomEQ = &c
		s.emit(CustomEQEvent{CustomEQ: c})

	case protocol.FeatureEnhancedBass:
		e, err := protocol.DecodeEnhancedBass(payload)
		if err != nil {
			return err
		}
		s.snapshot.EnhancedBass = &e
		s.emit(EnhancedBassEvent{EnhancedBass: e})

	case protocol.FeatureSpatialAudio:
		m, err := protocol.DecodeSpatialAudio(payload)
		if err != nil {
			return err
		}
		s.snapshot.SpatialAudio = &m
		s.emit(SpatialAudioEvent{Mode: m})

	case protocol.FeatureInEarDetection:
		if !model.Supports(device.CapInEarDetection) {
			s.log.Debug("Ignoring in-ear detection for model without it", zap.Stringer("model", model))
			return nil
		}
		on, err := protocol.DecodeInEarDetection(payload)
		if err != nil {
			return err
		}
		s.snapshot.Settings.InEarDetection = on
		s.emit(SettingsEvent{Settings: s.snapshot.Settings})

	case protocol.FeatureLowLatency:
		on, err := protocol.DecodeLowLatency(payload)
		if err != nil {
			return err
		}
		s.snapshot.Settings.LowLatency = on
		s.emit(SettingsEvent{Settings: s.snapshot.Settings})

	case protocol.FeaturePersonalizedANC:
		on, err := protocol.DecodePersonalizedANC(payload)
		if err != nil {
			return err
		}
		s.snapshot.Settings.PersonalizedANC = on
		s.emit(SettingsEvent{Settings: s.snapshot.Settings})

	case protocol.FeatureGesture:
		gestures := protocol.DecodeGestures(payload)
		s.snapshot.Gestures = gestures
		s.emit(GesturesEvent{Gestures: gestures})

	case protocol.FeatureRingBuds:
		r, err := protocol.DecodeRingBuds(payload)
		if err != nil {
			return err
		}
		s.snapshot.Ring = &r
		s.emit(RingEvent{Ring: r})

	default:
		s.log.Debug("Ignoring response", zap.Stringer("feature", feature), zap.Int("len", len(payload)))
	}
	return nil
}
