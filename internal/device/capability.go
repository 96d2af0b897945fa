package device

import (
	"fmt"

	"github.com/muurk/earctl/internal/protocol"
)

// Capability is a feature a product line may or may not support.
type Capability int

const (
	CapNoiseControl Capability = iota
	CapSpatialAudio
	CapEnhancedBass
	CapEQ
	CapCustomEQ
	CapListeningMode
	CapSpatialWithBass // spatial audio and enhanced bass may be on together
	CapInEarDetection
	CapLowLatency
	CapGestures
	CapRingBuds
	CapPersonalizedANC
	CapSingleBattery
)

var capabilityNames = map[Capability]string{
	CapNoiseControl:    "noise_control",
	CapSpatialAudio:    "spatial_audio",
	CapEnhancedBass:    "enhanced_bass",
	CapEQ:              "eq",
	CapCustomEQ:        "custom_eq",
	CapListeningMode:   "listening_mode",
	CapSpatialWithBass: "spatial_with_bass",
	CapInEarDetection:  "in_ear_detection",
	CapLowLatency:      "low_latency",
	CapGestures:        "gestures",
	CapRingBuds:        "ring_buds",
	CapPersonalizedANC: "personalized_anc",
	CapSingleBattery:   "single_battery",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("capability(%d)", int(c))
}

// AllCapabilities lists every capability in declaration order.
var AllCapabilities = []Capability{
	CapNoiseControl, CapSpatialAudio, CapEnhancedBass, CapEQ, CapCustomEQ,
	CapListeningMode, CapSpatialWithBass, CapInEarDetection, CapLowLatency,
	CapGestures, CapRingBuds, CapPersonalizedANC, CapSingleBattery,
}

type lineSet map[Line]bool

func setOf(ls ...Line) lineSet {
	s := make(lineSet, len(ls))
	for _, l := range ls {
		s[l] = true
	}
	return s
}

func allLinesExcept(excluded ...Line) lineSet {
	s := setOf(AllLines...)
	for _, l := range excluded {
		delete(s, l)
	}
	return s
}

var cmfLines = setOf(
	LineCMFBudsPro, LineCMFBuds, LineCMFBuds2a, LineCMFBuds2,
	LineCMFBuds2Plus, LineCMFBudsPro2, LineCMFNeckbandPro, LineCMFHeadphonePro,
)

var capabilities = map[Capability]lineSet{
	CapNoiseControl: allLinesExcept(LineEarStick, LineEarOpen),
	CapSpatialAudio: setOf(
		LineEar1, LineEar2, LineEar3, LineHeadphone1,
		LineCMFBudsPro, LineCMFBuds2, LineCMFBudsPro2, LineCMFNeckbandPro, LineCMFHeadphonePro,
	),
	CapEnhancedBass:    allLinesExcept(LineEarOpen),
	CapEQ:              setOf(AllLines...),
	CapListeningMode:   setOf(LineCMFBuds, LineCMFBuds2, LineCMFBudsPro2),
	CapSpatialWithBass: cmfLines,
	CapInEarDetection:  allLinesExcept(LineEarOpen),
	CapLowLatency:      setOf(AllLines...),
	CapGestures:        setOf(AllLines...),
	CapRingBuds:        setOf(AllLines...),
	CapPersonalizedANC: setOf(LineEar2, LineEar, LineEar3, LineHeadphone1),
	CapSingleBattery:   setOf(LineHeadphone1, LineCMFHeadphonePro),
}

// Supports reports whether the line has the capability.
func (l Line) Supports(c Capability) bool {
	if c == CapCustomEQ {
		return l.SupportsEQPreset(protocol.EQCustom)
	}
	return capabilities[c][l]
}

// Supports reports whether the model's line has the capability.
func (m Model) Supports(c Capability) bool {
	return m.Line.Supports(c)
}

// Capabilities lists what the line supports, in declaration order.
func (l Line) Capabilities() []Capability {
	var caps []Capability
	for _, c := range AllCapabilities {
		if l.Supports(c) {
			caps = append(caps, c)
		}
	}
	return caps
}

// EQPresets lists the presets the line accepts.
func (l Line) EQPresets() []protocol.EQPreset {
	if l == LineUnknown {
		return nil
	}
	if l == LineCMFNeckbandPro {
		return []protocol.EQPreset{
			protocol.EQBalanced, protocol.EQVoice, protocol.EQMoreTreble, protocol.EQMoreBass, protocol.EQCustom,
		}
	}
	return protocol.AllEQPresets
}

// SupportsEQPreset reports whether p is one of the line's presets.
func (l Line) SupportsEQPreset(p protocol.EQPreset) bool {
	for _, supported := range l.EQPresets() {
		if supported == p {
			return true
		}
	}
	return false
}

// SpatialAudioModes lists the spatial modes the line accepts. Lines without
// spatial audio return nil.
func (l Line) SpatialAudioModes() []protocol.SpatialAudioMode {
	if !l.Supports(CapSpatialAudio) {
		return nil
	}
	if l == LineHeadphone1 {
		return []protocol.SpatialAudioMode{protocol.SpatialOff, protocol.SpatialFixed, protocol.SpatialHeadTracking}
	}
	return []protocol.SpatialAudioMode{protocol.SpatialOff, protocol.SpatialFixed}
}

// SupportsSpatialAudioMode reports whether m is one of the line's modes.
func (l Line) SupportsSpatialAudioMode(m protocol.SpatialAudioMode) bool {
	for _, supported := range l.SpatialAudioModes() {
		if supported == m {
			return true
		}
	}
	return false
}

// RingTargets lists the buds that can be rung. Headphones ring as one unit.
func (l Line) RingTargets() []protocol.Bud {
	if !l.Supports(CapRingBuds) {
		return nil
	}
	if l.Supports(CapSingleBattery) {
		return []protocol.Bud{protocol.BudUnibody}
	}
	return []protocol.Bud{protocol.BudLeft, protocol.BudRight}
}

// EQReadCommand is the command that reads the EQ preset on this line.
func (l Line) EQReadCommand() protocol.Command {
	if l.Supports(CapListeningMode) {
		return protocol.ReadListeningMode
	}
	return protocol.ReadEQ
}

// Custom EQ filter specs. They differ only in the treble shelf frequency and,
// on Ear (stick), the peak Q.
var (
	filterSpec3400        = newFilterSpec(3400, 0.7)
	filterSpec3500        = newFilterSpec(3500, 0.7)
	filterSpec3500AltPeak = newFilterSpec(3500, 0.66)
	filterSpec6900        = newFilterSpec(6900, 0.7)
)

func newFilterSpec(freqHigh, qPeak float32) protocol.FilterSpec {
	return protocol.FilterSpec{
		FreqLow:  140,
		QLow:     0.8,
		FreqPeak: 980,
		QPeak:    qPeak,
		FreqHigh: freqHigh,
		QHigh:    1.0,
	}
}

var filterSpecs = map[Line]protocol.FilterSpec{
	LineEar1:            filterSpec3400,
	LineEar2:            filterSpec3400,
	LineEar3:            filterSpec3400,
	LineEarOpen:         filterSpec3400,
	LineEar:             filterSpec3400,
	LineEarA:            filterSpec3400,
	LineCMFBudsPro:      filterSpec3400,
	LineHeadphone1:      filterSpec3500,
	LineCMFHeadphonePro: filterSpec3500,
	LineEarStick:        filterSpec3500AltPeak,
	LineCMFBuds:         filterSpec6900,
	LineCMFBuds2a:       filterSpec6900,
	LineCMFBuds2:        filterSpec6900,
	LineCMFBuds2Plus:    filterSpec6900,
	LineCMFBudsPro2:     filterSpec6900,
	LineCMFNeckbandPro:  filterSpec6900,
}

// FilterSpec returns the custom EQ band parameters for the line.
func (l Line) FilterSpec() (protocol.FilterSpec, bool) {
	spec, ok := filterSpecs[l]
	return spec, ok
}
