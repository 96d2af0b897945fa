package protocol

import "fmt"

// Command is a 16-bit command code carried in bytes 3-4 of every frame.
type Command uint16

// Read request commands (0xC0xx)
const (
	ReadAdvancedEQ      Command = 0xC04C
	ReadNoiseControl    Command = 0xC01E
	ReadBattery         Command = 0xC007
	ReadCustomEQ        Command = 0xC044
	ReadEnhancedBass    Command = 0xC04E
	ReadEQ              Command = 0xC01F
	ReadFirmware        Command = 0xC042
	ReadGesture         Command = 0xC018
	ReadInEarDetection  Command = 0xC00E
	ReadLowLatency      Command = 0xC041
	ReadLEDCaseColor    Command = 0xC017
	ReadListeningMode   Command = 0xC050 // EQ read on CMF Buds / Buds 2 / Buds Pro 2
	ReadPersonalizedANC Command = 0xC020
	ReadSerialNumber    Command = 0xC006
	ReadSpatialAudio    Command = 0xC04F
	ReadRingBuds        Command = 0xC002
)

// Write request commands (0xF0xx)
const (
	WriteAdvancedEQ      Command = 0xF06F
	WriteNoiseControl    Command = 0xF00F
	WriteCustomEQ        Command = 0xF061
	WriteEarFitTest      Command = 0xF014
	WriteEnhancedBass    Command = 0xF071
	WriteEQ              Command = 0xF010
	WriteGesture         Command = 0xF003
	WriteInEarDetection  Command = 0xF004
	WriteLowLatency      Command = 0xF060
	WriteLEDCaseColor    Command = 0xF00D
	WriteListeningMode   Command = 0xF01D
	WritePersonalizedANC Command = 0xF011
	WriteRingBuds        Command = 0xF002
	WriteSpatialAudio    Command = 0xF052
)

// Response commands. Pairs suffixed A/B are synonyms sent by different
// device generations.
const (
	RespAdvancedEQ      Command = 0x404C
	RespNoiseControlA   Command = 0xE003
	RespNoiseControlB   Command = 0x401E
	RespBatteryA        Command = 0xE001
	RespBatteryB        Command = 0x4007
	RespCustomEQ        Command = 0x4044
	RespEarFitTest      Command = 0xE00D
	RespEnhancedBass    Command = 0x404E
	RespEQA             Command = 0x401F
	RespEQB             Command = 0x4050 // listening mode answer
	RespFirmware        Command = 0x4042
	RespGesture         Command = 0x4018
	RespInEarDetection  Command = 0x400E
	RespLowLatency      Command = 0x4041
	RespLEDCaseColor    Command = 0x4017
	RespPersonalizedANC Command = 0x4020
	RespSerialNumber    Command = 0x4006
	RespSpatialAudio    Command = 0x404F
	RespRingBuds        Command = 0x4002
)

// Feature identifies what a response carries once synonyms are folded.
type Feature int

const (
	FeatureUnknown Feature = iota
	FeatureAdvancedEQ
	FeatureNoiseControl
	FeatureBattery
	FeatureCustomEQ
	FeatureEarFitTest
	FeatureEnhancedBass
	FeatureEQ
	FeatureFirmware
	FeatureGesture
	FeatureInEarDetection
	FeatureLowLatency
	FeatureLEDCaseColor
	FeaturePersonalizedANC
	FeatureSerialNumber
	FeatureSpatialAudio
	FeatureRingBuds
)

var featureNames = map[Feature]string{
	FeatureUnknown:         "unknown",
	FeatureAdvancedEQ:      "advanced_eq",
	FeatureNoiseControl:    "noise_control",
	FeatureBattery:         "battery",
	FeatureCustomEQ:        "custom_eq",
	FeatureEarFitTest:      "ear_fit_test",
	FeatureEnhancedBass:    "enhanced_bass",
	FeatureEQ:              "eq",
	FeatureFirmware:        "firmware",
	FeatureGesture:         "gesture",
	FeatureInEarDetection:  "in_ear_detection",
	FeatureLowLatency:      "low_latency",
	FeatureLEDCaseColor:    "led_case_color",
	FeaturePersonalizedANC: "personalized_anc",
	FeatureSerialNumber:    "serial_number",
	FeatureSpatialAudio:    "spatial_audio",
	FeatureRingBuds:        "ring_buds",
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return fmt.Sprintf("feature(%d)", int(f))
}

var responseFeatures = map[Command]Feature{
	RespAdvancedEQ:      FeatureAdvancedEQ,
	RespNoiseControlA:   FeatureNoiseControl,
	RespNoiseControlB:   FeatureNoiseControl,
	RespBatteryA:        FeatureBattery,
	RespBatteryB:        FeatureBattery,
	RespCustomEQ:        FeatureCustomEQ,
	RespEarFitTest:      FeatureEarFitTest,
	RespEnhancedBass:    FeatureEnhancedBass,
	RespEQA:             FeatureEQ,
	RespEQB:             FeatureEQ,
	RespFirmware:        FeatureFirmware,
	RespGesture:         FeatureGesture,
	RespInEarDetection:  FeatureInEarDetection,
	RespLowLatency:      FeatureLowLatency,
	RespLEDCaseColor:    FeatureLEDCaseColor,
	RespPersonalizedANC: FeaturePersonalizedANC,
	RespSerialNumber:    FeatureSerialNumber,
	RespSpatialAudio:    FeatureSpatialAudio,
	RespRingBuds:        FeatureRingBuds,
}

// LookupResponse maps a response code to the feature it carries.
func LookupResponse(cmd Command) (Feature, bool) {
	f, ok := responseFeatures[cmd]
	return f, ok
}

// CommandKind is the namespace a command code belongs to.
type CommandKind int

const (
	KindUnknown CommandKind = iota
	KindRead
	KindWrite
	KindResponse
)

var commandNames = map[Command]string{
	ReadAdvancedEQ:      "ReadAdvancedEQ",
	ReadNoiseControl:    "ReadNoiseControl",
	ReadBattery:         "ReadBattery",
	ReadCustomEQ:        "ReadCustomEQ",
	ReadEnhancedBass:    "ReadEnhancedBass",
	ReadEQ:              "ReadEQ",
	ReadFirmware:        "ReadFirmware",
	ReadGesture:         "ReadGesture",
	ReadInEarDetection:  "ReadInEarDetection",
	ReadLowLatency:      "ReadLowLatency",
	ReadLEDCaseColor:    "ReadLEDCaseColor",
	ReadListeningMode:   "ReadListeningMode",
	ReadPersonalizedANC: "ReadPersonalizedANC",
	ReadSerialNumber:    "ReadSerialNumber",
	ReadSpatialAudio:    "ReadSpatialAudio",
	ReadRingBuds:        "ReadRingBuds",

	WriteAdvancedEQ:      "WriteAdvancedEQ",
	WriteNoiseControl:    "WriteNoiseControl",
	WriteCustomEQ:        "WriteCustomEQ",
	WriteEarFitTest:      "WriteEarFitTest",
	WriteEnhancedBass:    "WriteEnhancedBass",
	WriteEQ:              "WriteEQ",
	WriteGesture:         "WriteGesture",
	WriteInEarDetection:  "WriteInEarDetection",
	WriteLowLatency:      "WriteLowLatency",
	WriteLEDCaseColor:    "WriteLEDCaseColor",
	WriteListeningMode:   "WriteListeningMode",
	WritePersonalizedANC: "WritePersonalizedANC",
	WriteRingBuds:        "WriteRingBuds",
	WriteSpatialAudio:    "WriteSpatialAudio",

	RespAdvancedEQ:      "RespAdvancedEQ",
	RespNoiseControlA:   "RespNoiseControlA",
	RespNoiseControlB:   "RespNoiseControlB",
	RespBatteryA:        "RespBatteryA",
	RespBatteryB:        "RespBatteryB",
	RespCustomEQ:        "RespCustomEQ",
	RespEarFitTest:      "RespEarFitTest",
	RespEnhancedBass:    "RespEnhancedBass",
	RespEQA:             "RespEQA",
	RespEQB:             "RespEQB",
	RespFirmware:        "RespFirmware",
	RespGesture:         "RespGesture",
	RespInEarDetection:  "RespInEarDetection",
	RespLowLatency:      "RespLowLatency",
	RespLEDCaseColor:    "RespLEDCaseColor",
	RespPersonalizedANC: "RespPersonalizedANC",
	RespSerialNumber:    "RespSerialNumber",
	RespSpatialAudio:    "RespSpatialAudio",
	RespRingBuds:        "RespRingBuds",
}

// CommandName returns a human-readable name for a command code
func CommandName(cmd Command) string {
	if name, ok := commandNames[cmd]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%04X)", uint16(cmd))
}

func (c Command) String() string {
	return CommandName(c)
}

// Kind reports which namespace a known command belongs to.
func (c Command) Kind() CommandKind {
	if _, ok := commandNames[c]; !ok {
		return KindUnknown
	}
	if _, ok := responseFeatures[c]; ok {
		return KindResponse
	}
	switch uint16(c) & 0xF000 {
	case 0xC000:
		return KindRead
	case 0xF000:
		return KindWrite
	}
	return KindUnknown
}

// ResponseFor returns the primary response code a read request is answered
// with. Used by the virtual peripheral.
func ResponseFor(read Command) (Command, bool) {
	if read.Kind() != KindRead {
		return 0, false
	}
	resp := Command(uint16(read)&0x0FFF | 0x4000)
	if _, ok := responseFeatures[resp]; !ok {
		return 0, false
	}
	return resp, true
}
