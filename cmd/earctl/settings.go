package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/earctl/internal/protocol"
	"github.com/muurk/earctl/internal/session"
	"github.com/muurk/earctl/internal/ui"
	"github.com/muurk/earctl/internal/urls"
)

// Settings command flags
var (
	bassLevel   int
	eqBass      int
	eqMid       int
	eqTreble    int
	ringStop    bool
	gestureSide string
)

func init() {
	rootCmd.AddCommand(ancCmd)
	rootCmd.AddCommand(eqCmd)
	rootCmd.AddCommand(customEQCmd)
	rootCmd.AddCommand(bassCmd)
	rootCmd.AddCommand(inEarCmd)
	rootCmd.AddCommand(latencyCmd)
	rootCmd.AddCommand(personalizedANCCmd)
	rootCmd.AddCommand(spatialCmd)
	rootCmd.AddCommand(gestureCmd)
	rootCmd.AddCommand(ringCmd)

	bassCmd.Flags().IntVar(&bassLevel, "level", -1, "Bass boost level 0-100 (default: keep the current level)")

	customEQCmd.Flags().IntVar(&eqBass, "bass", 0, "Bass gain in dB")
	customEQCmd.Flags().IntVar(&eqMid, "mid", 0, "Mid gain in dB")
	customEQCmd.Flags().IntVar(&eqTreble, "treble", 0, "Treble gain in dB")

	ringCmd.Flags().BoolVar(&ringStop, "stop", false, "Stop ringing instead of starting")

	gestureCmd.Flags().StringVar(&gestureSide, "side", "default", "Side to bind (left, right, default for both)")
}

// setting describes one write and how to recognise its read-back.
type setting struct {
	title   string
	details []ui.Param
	apply   func(ctx context.Context, s *session.Session) error
	confirm func(session.Event) bool
}

// unsupportedTips replaces the connection tips when the model lacks a
// setting.
var unsupportedTips = []string{
	"Run 'earctl status' to see what this model offers",
	"Supported settings per model: " + urls.SupportedModels,
}

// runSetting connects, writes the setting and waits until the headset
// reports the new value.
func runSetting(cmd *cobra.Command, st setting) error {
	return runOnDevice(cmd, st.title, func(ctx context.Context, c *client) ([]ui.Param, error) {
		settleCtx, cancel := context.WithTimeout(ctx, applyTimeout)
		c.settle(settleCtx, statusSettle)
		cancel()

		waitCtx, cancel := context.WithTimeout(ctx, applyTimeout)
		defer cancel()
		if err := st.apply(waitCtx, c.session); err != nil {
			return nil, err
		}
		if _, err := c.await(waitCtx, "waiting for "+st.title, st.confirm); err != nil {
			return nil, err
		}
		return st.details, nil
	})
}

// parseOnOff accepts on/off and the usual boolean spellings.
func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "enable", "enabled":
		return true, nil
	case "off", "disable", "disabled":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
	return v, nil
}

func names[T fmt.Stringer](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

var ancCmd = &cobra.Command{
	Use:   "anc <mode>",
	Short: "Set noise control",
	Long: `Set the noise control mode: ` + names(protocol.AllNoiseControlModes) + `.

Which noise cancellation strengths are available depends on the model.`,
	Example: `  earctl anc high
  earctl anc transparent`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := protocol.ParseNoiseControlMode(args[0])
		if err != nil {
			return err
		}
		return runSetting(cmd, setting{
			title:   "Set noise control",
			details: []ui.Param{{Key: "Noise control", Value: mode.String()}},
			apply: func(ctx context.Context, s *session.Session) error {
				return s.SetNoiseControl(ctx, mode)
			},
			confirm: func(ev session.Event) bool {
				e, ok := ev.(session.NoiseControlEvent)
				return ok && e.Mode == mode
			},
		})
	},
}

var eqCmd = &cobra.Command{
	Use:   "eq <preset>",
	Short: "Select an EQ preset",
	Long:  `Select an EQ preset: ` + names(protocol.AllEQPresets) + `.`,
	Example: `  earctl eq more-bass
  earctl eq balanced`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preset, err := protocol.ParseEQPreset(args[0])
		if err != nil {
			return err
		}
		return runSetting(cmd, setting{
			title:   "Set EQ preset",
			details: []ui.Param{{Key: "EQ", Value: preset.String()}},
			apply: func(ctx context.Context, s *session.Session) error {
				return s.SetEQPreset(ctx, preset)
			},
			confirm: func(ev session.Event) bool {
				e, ok := ev.(session.EQEvent)
				return ok && e.Preset == preset
			},
		})
	},
}

var customEQCmd = &cobra.Command{
	Use:   "custom-eq",
	Short: "Set the three band custom EQ",
	Long: fmt.Sprintf(`Set bass, mid and treble gains of the custom EQ, each between %d and %d dB.

Bands not given are set to 0.`, protocol.CustomEQMinGain, protocol.CustomEQMaxGain),
	Example: `  earctl custom-eq --bass 4 --treble -2`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eq := protocol.CustomEQ{Bass: eqBass, Mid: eqMid, Treble: eqTreble}
		if err := eq.Validate(); err != nil {
			return err
		}
		return runSetting(cmd, setting{
			title:   "Set custom EQ",
			details: []ui.Param{{Key: "Custom EQ", Value: fmt.Sprintf("bass %+d, mid %+d, treble %+d", eq.Bass, eq.Mid, eq.Treble)}},
			apply: func(ctx context.Context, s *session.Session) error {
				return s.SetCustomEQ(ctx, eq)
			},
			confirm: func(ev session.Event) bool {
				e, ok := ev.(session.CustomEQEvent)
				return ok && e.CustomEQ == eq
			},
		})
	},
}

var bassCmd = &cobra.Command{
	Use:   "bass <on|off>",
	Short: "Set enhanced bass",
	Example: `  earctl bass on --level 60
  earctl bass off`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		if bassLevel > 100 {
			return fmt.Errorf("--level must be between 0 and 100")
		}
		var want protocol.EnhancedBass
		return runSetting(cmd, setting{
			title:   "Set enhanced bass",
			details: []ui.Param{{Key: "Enhanced bass", Value: onOff(on)}},
			apply: func(ctx context.Context, s *session.Session) error {
				want = protocol.EnhancedBass{Enabled: on, Level: bassLevel}
				if bassLevel < 0 {
					want.Level = 0
					if snap, err := s.Snapshot(ctx); err == nil && snap.EnhancedBass != nil {
						want.Level = snap.EnhancedBass.Level
					}
				}
				return s.SetEnhancedBass(ctx, want)
			},
			confirm: func(ev session.Event) bool {
				e, ok := ev.(session.EnhancedBassEvent)
				return ok && e.EnhancedBass.Enabled == want.Enabled
			},
		})
	},
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// settingsCommand builds the on/off commands backed by DeviceSettings.
func settingsCommand(use, short, title string, set func(*session.Session, context.Context, bool) error, field func(protocol.DeviceSettings) bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <on|off>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			return runSetting(cmd, setting{
				title:   title,
				details: []ui.Param{{Key: title[len("Set "):], Value: onOff(on)}},
				apply: func(ctx context.Context, s *session.Session) error {
					return set(s, ctx, on)
				},
				confirm: func(ev session.Event) bool {
					e, ok := ev.(session.SettingsEvent)
					return ok && field(e.Settings) == on
				},
			})
		},
	}
}

var inEarCmd = settingsCommand("inear", "Turn in-ear detection on or off", "Set in-ear detection",
	(*session.Session).SetInEarDetection,
	func(s protocol.DeviceSettings) bool { return s.InEarDetection })

var latencyCmd = settingsCommand("latency", "Turn low latency mode on or off", "Set low latency",
	(*session.Session).SetLowLatency,
	func(s protocol.DeviceSettings) bool { return s.LowLatency })

var personalizedANCCmd = settingsCommand("personalized-anc", "Turn personalized ANC on or off", "Set personalized ANC",
	(*session.Session).SetPersonalizedANC,
	func(s protocol.DeviceSettings) bool { return s.PersonalizedANC })

var spatialCmd = &cobra.Command{
	Use:   "spatial <mode>",
	Short: "Set spatial audio",
	Long: `Set spatial audio: off, fixed or head-tracking.

Head tracking is only offered by models with a motion sensor.`,
	Example: `  earctl spatial head-tracking`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := protocol.ParseSpatialAudioMode(args[0])
		if err != nil {
			return err
		}
		return runSetting(cmd, setting{
			title:   "Set spatial audio",
			details: []ui.Param{{Key: "Spatial audio", Value: mode.String()}},
			apply: func(ctx context.Context, s *session.Session) error {
				return s.SetSpatialAudio(ctx, mode)
			},
			confirm: func(ev session.Event) bool {
				e, ok := ev.(session.SpatialAudioEvent)
				return ok && e.Mode == mode
			},
		})
	},
}

var gestureCmd = &cobra.Command{
	Use:   "gesture <type> <action>",
	Short: "Bind a touch gesture to an action",
	Long: `Bind a touch gesture to an action.

Types: tap, double-tap, triple-tap, long-press.
Actions: play-pause, next-track, previous-track, volume-up, volume-down,
voice-assistant, noise-control-toggle, none.`,
	Example: `  # Triple tap on the right bud skips forward
  earctl gesture triple-tap next-track --side right`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		side, err := protocol.ParseGestureDevice(gestureSide)
		if err != nil {
			return err
		}
		typ, err := protocol.ParseGestureType(args[0])
		if err != nil {
			return err
		}
		action, err := protocol.ParseGestureAction(args[1])
		if err != nil {
			return err
		}
		g := protocol.Gesture{Device: side, Type: typ, Action: action}
		return runSetting(cmd, setting{
			title:   "Set gesture",
			details: []ui.Param{{Key: "Gesture", Value: fmt.Sprintf("%s %s: %s", side, typ, action)}},
			apply: func(ctx context.Context, s *session.Session) error {
				return s.SetGesture(ctx, g)
			},
			confirm: func(ev session.Event) bool {
				e, ok := ev.(session.GesturesEvent)
				return ok && hasGesture(e.Gestures, g)
			},
		})
	},
}

// hasGesture reports whether gestures carry g. A binding without a side
// must show up on both.
func hasGesture(gestures []protocol.Gesture, g protocol.Gesture) bool {
	sides := []protocol.GestureDevice{g.Device}
	if g.Device == protocol.GestureDeviceUnspecified {
		sides = []protocol.GestureDevice{protocol.GestureDeviceLeft, protocol.GestureDeviceRight}
	}
	for _, side := range sides {
		found := false
		for _, have := range gestures {
			if have.Device == side && have.Type == g.Type && have.Action == g.Action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

var ringCmd = &cobra.Command{
	Use:   "ring <left|right|unibody>",
	Short: "Play the find-my-buds tone",
	Long: `Start (or with --stop, stop) the find-my-buds tone.

Earbuds ring one bud at a time; headphones and the speaker use unibody.
The tone is loud: take the buds out of your ears first.`,
	Example: `  earctl ring left
  earctl ring left --stop`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bud, err := protocol.ParseBud(args[0])
		if err != nil {
			return err
		}
		ring := protocol.RingState{Bud: bud, On: !ringStop}
		return runSetting(cmd, setting{
			title:   "Ring",
			details: []ui.Param{{Key: "Ring", Value: fmt.Sprintf("%s %s", bud, onOff(ring.On))}},
			apply: func(ctx context.Context, s *session.Session) error {
				return s.SetRingBuds(ctx, ring)
			},
			confirm: func(ev session.Event) bool {
				e, ok := ev.(session.RingEvent)
				return ok && e.Ring.On == ring.On
			},
		})
	},
}
