package session

import (
	"context"
	"fmt"

	"github.com/muurk/earctl/internal/device"
	"github.com/muurk/earctl/internal/protocol"
)

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.call(ctx, func() error {
		snap = s.snapshot
		snap.State = s.state
		if s.snapshot.Gestures != nil {
			snap.Gestures = append([]protocol.Gesture(nil), s.snapshot.Gestures...)
		}
		return nil
	})
	return snap, err
}

// State returns the current connection state.
func (s *Session) State(ctx context.Context) (State, error) {
	var st State
	err := s.call(ctx, func() error {
		st = s.state
		return nil
	})
	return st, err
}

// Refresh re-reads every status the connected model supports.
func (s *Session) Refresh(ctx context.Context) error {
	return s.call(ctx, func() error {
		if err := s.requireConnected(); err != nil {
			return err
		}
		s.schedule(s.statusReads())
		return nil
	})
}

// requireConnected fails unless the session and the transport both consider
// the peripheral connected.
func (s *Session) requireConnected() error {
	if !s.isConnected() {
		err := newError(KindConnectionFailed, "not connected", nil)
		s.emitError(err)
		return err
	}
	return nil
}

func (s *Session) unsupported(what string) error {
	model := s.snapshot.Info.Model
	name := "unknown model"
	if !model.IsZero() {
		name = model.Line.DisplayName()
	}
	err := newError(KindUnsupportedOperation, fmt.Sprintf("%s on %s", what, name), nil)
	s.emitError(err)
	return err
}

// requireCapability gates a write on the connected model.
func (s *Session) requireCapability(c device.Capability) error {
	if !s.snapshot.Info.Model.Supports(c) {
		return s.unsupported(c.String())
	}
	return nil
}

// write gates, builds and sends a mutating request, then reads the feature
// back so the snapshot reflects what the device accepted.
func (s *Session) write(ctx context.Context, gate func() error, build func(opID uint8) (protocol.Request, error), readBack protocol.Command) error {
	return s.call(ctx, func() error {
		if err := s.requireConnected(); err != nil {
			return err
		}
		if gate != nil {
			if err := gate(); err != nil {
				return err
			}
		}
		req, err := build(0)
		if err != nil {
			return err
		}
		req.OperationID = s.nextOperationID()
		if err := s.send(req); err != nil {
			return err
		}
		if readBack == protocol.ReadEQ {
			// some lines answer EQ only through the listening mode read
			readBack = s.snapshot.Info.Model.Line.EQReadCommand()
		}
		if readBack != 0 {
			s.schedule([]protocol.Command{readBack})
		}
		return nil
	})
}

// SetNoiseControl sets the noise control mode.
func (s *Session) SetNoiseControl(ctx context.Context, mode protocol.NoiseControlMode) error {
	return s.write(ctx,
		func() error { return s.requireCapability(device.CapNoiseControl) },
		func(op uint8) (protocol.Request, error) { return protocol.SetNoiseControl(mode, op) },
		protocol.ReadNoiseControl)
}

// SetEnhancedBass sets enhanced bass and its level.
func (s *Session) SetEnhancedBass(ctx context.Context, bass protocol.EnhancedBass) error {
	return s.write(ctx,
		func() error { return s.requireCapability(device.CapEnhancedBass) },
		func(op uint8) (protocol.Request, error) { return protocol.SetEnhancedBass(bass, op) },
		protocol.ReadEnhancedBass)
}

// SetEQPreset selects an EQ preset. The preset must be one the model offers.
func (s *Session) SetEQPreset(ctx context.Context, preset protocol.EQPreset) error {
	return s.write(ctx,
		func() error {
			if !s.snapshot.Info.Model.Line.SupportsEQPreset(preset) {
				return s.unsupported("eq preset " + preset.String())
			}
			return nil
		},
		func(op uint8) (protocol.Request, error) { return protocol.SetEQPreset(preset, op) },
		protocol.ReadEQ)
}

// SetCustomEQ writes the custom EQ bands using the model's filter layout.
func (s *Session) SetCustomEQ(ctx context.Context, eq protocol.CustomEQ) error {
	var spec protocol.FilterSpec
	return s.write(ctx,
		func() error {
			if err := s.requireCapability(device.CapCustomEQ); err != nil {
				return err
			}
			var ok bool
			if spec, ok = s.snapshot.Info.Model.Line.FilterSpec(); !ok {
				return s.unsupported("custom eq")
			}
			return nil
		},
		func(op uint8) (protocol.Request, error) { return protocol.SetCustomEQ(eq, spec, op) },
		protocol.ReadCustomEQ)
}

// SetInEarDetection turns in-ear detection on or off.
func (s *Session) SetInEarDetection(ctx context.Context, enabled bool) error {
	return s.write(ctx,
		func() error { return s.requireCapability(device.CapInEarDetection) },
		func(op uint8) (protocol.Request, error) { return protocol.SetInEarDetection(enabled, op), nil },
		protocol.ReadInEarDetection)
}

// SetLowLatency turns low latency mode on or off. Every model accepts it.
func (s *Session) SetLowLatency(ctx context.Context, enabled bool) error {
	return s.write(ctx, nil,
		func(op uint8) (protocol.Request, error) { return protocol.SetLowLatency(enabled, op), nil },
		protocol.ReadLowLatency)
}

// SetPersonalizedANC turns personalized ANC on or off.
func (s *Session) SetPersonalizedANC(ctx context.Context, enabled bool) error {
	return s.write(ctx,
		func() error { return s.requireCapability(device.CapPersonalizedANC) },
		func(op uint8) (protocol.Request, error) { return protocol.SetPersonalizedANC(enabled, op), nil },
		protocol.ReadPersonalizedANC)
}

// SetSpatialAudio sets the spatial audio mode.
func (s *Session) SetSpatialAudio(ctx context.Context, mode protocol.SpatialAudioMode) error {
	return s.write(ctx,
		func() error {
			if !s.snapshot.Info.Model.Line.SupportsSpatialAudioMode(mode) {
				return s.unsupported("spatial audio " + mode.String())
			}
			return nil
		},
		func(op uint8) (protocol.Request, error) { return protocol.SetSpatialAudio(mode, op) },
		protocol.ReadSpatialAudio)
}

// SetGesture binds one touch gesture. Every model accepts it.
func (s *Session) SetGesture(ctx context.Context, g protocol.Gesture) error {
	return s.write(ctx, nil,
		func(op uint8) (protocol.Request, error) { return protocol.SetGesture(g, op) },
		protocol.ReadGesture)
}

// SetRingBuds starts or stops the find-my-buds tone on one bud.
func (s *Session) SetRingBuds(ctx context.Context, ring protocol.RingState) error {
	return s.write(ctx,
		func() error {
			for _, b := range s.snapshot.Info.Model.Line.RingTargets() {
				if b == ring.Bud {
					return nil
				}
			}
			return s.unsupported("ring " + ring.Bud.String())
		},
		func(op uint8) (protocol.Request, error) { return protocol.SetRingBuds(ring, op) },
		protocol.ReadRingBuds)
}
