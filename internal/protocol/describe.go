package protocol

import "fmt"

// DecodePayload decodes a response payload for feature into its typed value:
// Battery, NoiseControlMode, EQPreset, CustomEQ, EnhancedBass,
// SpatialAudioMode, bool, []Gesture, RingState or string. Features without
// a codec return the raw payload. singleBattery selects the headphone
// battery layout.
func DecodePayload(feature Feature, payload []byte, singleBattery bool) (any, error) {
	switch feature {
	case FeatureSerialNumber:
		return DecodeSerialNumber(payload)
	case FeatureFirmware:
		return DecodeFirmware(payload), nil
	case FeatureBattery:
		return DecodeBattery(payload, singleBattery)
	case FeatureNoiseControl:
		return DecodeNoiseControl(payload)
	case FeatureEQ:
		return DecodeEQPreset(payload)
	case FeatureCustomEQ:
		return DecodeCustomEQ(payload)
	case FeatureEnhancedBass:
		return DecodeEnhancedBass(payload)
	case FeatureSpatialAudio:
		return DecodeSpatialAudio(payload)
	case FeatureInEarDetection:
		return DecodeInEarDetection(payload)
	case FeatureLowLatency:
		return DecodeLowLatency(payload)
	case FeaturePersonalizedANC:
		return DecodePersonalizedANC(payload)
	case FeatureGesture:
		return DecodeGestures(payload), nil
	case FeatureRingBuds:
		return DecodeRingBuds(payload)
	}
	return payload, nil
}

// Decoded is a validated frame with its payload interpreted.
type Decoded struct {
	Response *Response
	Feature  Feature
	Value    any
}

// Decode validates a raw notification and interprets its payload. Frames
// whose command is not a known response decode with FeatureUnknown and the
// raw payload as Value.
func Decode(frame []byte, singleBattery bool) (*Decoded, error) {
	resp, err := DecodeResponse(frame)
	if err != nil {
		return nil, err
	}
	feature, ok := LookupResponse(resp.Command)
	if !ok {
		return &Decoded{Response: resp, Feature: FeatureUnknown, Value: resp.Payload}, nil
	}
	v, err := DecodePayload(feature, resp.Payload, singleBattery)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", feature, err)
	}
	return &Decoded{Response: resp, Feature: feature, Value: v}, nil
}
