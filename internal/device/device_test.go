package device

import (
	"testing"

	"github.com/muurk/earctl/internal/protocol"
)

func TestFromName(t *testing.T) {
	tests := []struct {
		name string
		want Model
		ok   bool
	}{
		{"Nothing Ear (1)", Model{LineEar1, ColorBlack}, true},
		{"Nothing Ear (stick)", Model{LineEarStick, ColorNone}, true},
		{"Nothing Ear", Model{LineEar, ColorBlack}, true},
		{"CMF Buds 2A", Model{LineCMFBuds2a, ColorDarkGrey}, true},
		{"CMF Buds 2a", Model{LineCMFBuds2a, ColorDarkGrey}, true},
		{"CMF Buds 2 Plus", Model{LineCMFBuds2Plus, ColorLightGrey}, true},
		{"CMF Headphone Pro", Model{LineCMFHeadphonePro, ColorDarkGrey}, true},
		{"nothing ear (1)", Model{}, false},
		{"Pixel Buds", Model{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromName(tt.name)
			if ok != tt.ok || got != tt.want {
				t.Errorf("FromName(%q) = %s, %t, want %s, %t", tt.name, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFromSerial(t *testing.T) {
	tests := []struct {
		serial string
		want   Model
		ok     bool
	}{
		{"12345678901234567", Model{LineEar1, ColorWhite}, true},
		{"SH10252535010003", Model{LineEar3, ColorWhite}, true},
		{"SH10262635010003", Model{LineEar3, ColorBlack}, true},
		{"SH005401000000", Model{LineCMFBuds, ColorBlack}, true},
		{"SH005601000000", Model{LineCMFBuds, ColorWhite}, true},
		{"SH005801000000", Model{LineCMFBuds, ColorOrange}, true},
		{"130099000000", Model{LineCMFBuds2, ColorDarkGrey}, true},
		{"M3A603000000", Model{LineHeadphone1, ColorBlack}, true},
		{"M3A606000000", Model{LineHeadphone1, ColorGrey}, true},
		{"MA0000220000", Model{LineEarStick, ColorNone}, true},
		{"MA0000230000", Model{LineEarStick, ColorNone}, true},
		{"MA0000240000", Model{LineEarOpen, ColorNone}, true},
		{"MA0000250000", Model{}, false},
		{"SH00", Model{}, false},
		{"SH0000000", Model{}, false},
		{"XX0054010000", Model{}, false},
		{"", Model{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.serial, func(t *testing.T) {
			got, ok := FromSerial(tt.serial)
			if ok != tt.ok || got != tt.want {
				t.Errorf("FromSerial(%q) = %s, %t, want %s, %t", tt.serial, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		advert string
		serial string
		want   Model
		ok     bool
	}{
		{"name only", "Nothing Ear (2)", "", Model{LineEar2, ColorBlack}, true},
		{"serial only", "", "SH10252535010003", Model{LineEar3, ColorWhite}, true},
		{"same line prefers serial", "Nothing Ear (3)", "SH10252535010003", Model{LineEar3, ColorWhite}, true},
		{"different line prefers name", "CMF Buds Pro 2", "SH10252535010003", Model{LineCMFBudsPro2, ColorBlack}, true},
		{"legacy serial with name", "Nothing Ear (1)", "12345678901234567", Model{LineEar1, ColorWhite}, true},
		{"neither", "Speaker", "nope", Model{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.advert, tt.serial)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Resolve(%q, %q) = %s, %t, want %s, %t", tt.advert, tt.serial, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSKUTableColorsBelongToLine(t *testing.T) {
	for sku, m := range modelsBySKU {
		found := false
		for _, c := range m.Line.Colors() {
			if c == m.Color {
				found = true
			}
		}
		if !found {
			t.Errorf("sku %s maps to %s, a color the line does not ship in", sku, m)
		}
	}
	for name, m := range modelsByName {
		if m.Color != m.Line.Colors()[0] {
			t.Errorf("%q default color = %s, want %s", name, m.Color, m.Line.Colors()[0])
		}
	}
}

func TestLineMetadata(t *testing.T) {
	codes := map[string]bool{}
	for _, l := range AllLines {
		if l.DisplayName() == "Unknown" || l.Code() == "" {
			t.Errorf("line %d has no metadata", int(l))
		}
		if codes[l.Code()] {
			t.Errorf("duplicate product code %s", l.Code())
		}
		codes[l.Code()] = true

		parsed, err := ParseLine(l.String())
		if err != nil || parsed != l {
			t.Errorf("ParseLine(%q) = %s, %v", l.String(), parsed, err)
		}
		if byCode, ok := LineByCode(l.Code()); !ok || byCode != l {
			t.Errorf("LineByCode(%s) = %s, %t", l.Code(), byCode, ok)
		}
		if _, ok := l.FilterSpec(); !ok {
			t.Errorf("%s has no custom EQ filter spec", l)
		}
	}

	if LineCMFBudsPro2.Code() != "B172" || LineEar1.DisplayName() != "Nothing Ear (1)" {
		t.Error("unexpected line metadata")
	}
	if !LineCMFNeckbandPro.IsCMF() || LineEar.IsCMF() {
		t.Error("IsCMF misclassifies lines")
	}
}

func TestModelText(t *testing.T) {
	for _, m := range []Model{
		{LineCMFHeadphonePro, ColorLightGreen},
		{LineEarStick, ColorNone},
		{},
	} {
		text, _ := m.MarshalText()
		var back Model
		if err := back.UnmarshalText(text); err != nil || back != m {
			t.Errorf("text round trip of %s = %s, %v", m, back, err)
		}
	}
	if got := (Model{LineEarA, ColorYellow}).DisplayName(); got != "Nothing Ear (a) (yellow)" {
		t.Errorf("DisplayName() = %q", got)
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		line Line
		cap  Capability
		want bool
	}{
		{LineEarStick, CapNoiseControl, false},
		{LineEarOpen, CapNoiseControl, false},
		{LineCMFBuds2Plus, CapNoiseControl, true},
		{LineEar1, CapNoiseControl, true},
		{LineEar1, CapSpatialAudio, true},
		{LineCMFBuds, CapSpatialAudio, false},
		{LineCMFBuds2a, CapSpatialAudio, false},
		{LineEarA, CapSpatialAudio, false},
		{LineEarOpen, CapEnhancedBass, false},
		{LineEar2, CapEnhancedBass, true},
		{LineEarStick, CapEQ, true},
		{LineCMFNeckbandPro, CapCustomEQ, true},
		{LineCMFBudsPro2, CapListeningMode, true},
		{LineCMFBudsPro, CapListeningMode, false},
		{LineCMFBudsPro, CapSpatialWithBass, true},
		{LineEar3, CapSpatialWithBass, false},
		{LineEarOpen, CapInEarDetection, false},
		{LineEar2, CapPersonalizedANC, true},
		{LineCMFBuds2, CapPersonalizedANC, false},
		{LineHeadphone1, CapSingleBattery, true},
		{LineCMFHeadphonePro, CapSingleBattery, true},
		{LineEar3, CapSingleBattery, false},
		{LineUnknown, CapEQ, false},
	}

	for _, tt := range tests {
		if got := tt.line.Supports(tt.cap); got != tt.want {
			t.Errorf("%s.Supports(%s) = %t, want %t", tt.line, tt.cap, got, tt.want)
		}
	}

	if (Model{LineEar1, ColorWhite}).Supports(CapSpatialAudio) != (Model{LineEar1, ColorBlack}).Supports(CapSpatialAudio) {
		t.Error("color changed a capability")
	}
}

func TestVariantSets(t *testing.T) {
	if got := LineCMFNeckbandPro.EQPresets(); len(got) != 5 || LineCMFNeckbandPro.SupportsEQPreset(protocol.EQAdvanced) {
		t.Errorf("neckband presets = %v", got)
	}
	if !LineEar2.SupportsEQPreset(protocol.EQAdvanced) {
		t.Error("Ear (2) should accept the advanced preset")
	}

	if !LineHeadphone1.SupportsSpatialAudioMode(protocol.SpatialHeadTracking) {
		t.Error("Headphone (1) should support head tracking")
	}
	if LineEar1.SupportsSpatialAudioMode(protocol.SpatialHeadTracking) {
		t.Error("Ear (1) should not support head tracking")
	}
	if LineCMFBuds.SpatialAudioModes() != nil {
		t.Error("CMF Buds should have no spatial modes")
	}

	if got := LineHeadphone1.RingTargets(); len(got) != 1 || got[0] != protocol.BudUnibody {
		t.Errorf("headphone ring targets = %v", got)
	}
	if got := LineEar3.RingTargets(); len(got) != 2 {
		t.Errorf("Ear (3) ring targets = %v", got)
	}

	if LineCMFBuds2.EQReadCommand() != protocol.ReadListeningMode || LineEar2.EQReadCommand() != protocol.ReadEQ {
		t.Error("EQReadCommand picks the wrong command")
	}

	spec, _ := LineEarStick.FilterSpec()
	if spec.QPeak != 0.66 || spec.FreqHigh != 3500 {
		t.Errorf("Ear (stick) filter spec = %+v", spec)
	}
	spec, _ = LineCMFBudsPro2.FilterSpec()
	if spec.FreqHigh != 6900 {
		t.Errorf("CMF Buds Pro 2 treble = %v, want 6900", spec.FreqHigh)
	}
}
