package session

// Apply folds an event into a snapshot held outside the session, such as
// one fetched with Snapshot and kept current from Events. It mirrors what
// the session does to its own copy.
func (s *Snapshot) Apply(ev Event) {
	switch e := ev.(type) {
	case StateChangedEvent:
		s.State = e.State
	case ConnectedEvent:
		if e.Err == nil {
			s.State = StateConnected
			s.Info = e.Info
		}
	case DisconnectedEvent:
		*s = Snapshot{State: StateDisconnected}
	case BatteryEvent:
		b := e.Battery
		s.Battery = &b
	case NoiseControlEvent:
		m := e.Mode
		s.NoiseControl = &m
	case SpatialAudioEvent:
		m := e.Mode
		s.SpatialAudio = &m
	case EnhancedBassEvent:
		b := e.EnhancedBass
		s.EnhancedBass = &b
	case EQEvent:
		p := e.Preset
		s.EQ = &p
	case CustomEQEvent:
		c := e.CustomEQ
		s.CustomEQ = &c
	case SettingsEvent:
		s.Settings = e.Settings
	case RingEvent:
		r := e.Ring
		s.Ring = &r
	case GesturesEvent:
		s.Gestures = append(s.Gestures[:0:0], e.Gestures...)
	}
}
