package protocol

// ReadRequest builds a payload-less read request.
func ReadRequest(cmd Command, opID uint8) Request {
	return Request{Command: cmd, OperationID: opID}
}

func writeRequest(cmd Command, opID uint8, payload []byte, err error) (Request, error) {
	if err != nil {
		return Request{}, err
	}
	return Request{Command: cmd, Payload: payload, OperationID: opID}, nil
}

// SetNoiseControl builds a noise control write.
func SetNoiseControl(m NoiseControlMode, opID uint8) (Request, error) {
	p, err := EncodeNoiseControl(m)
	return writeRequest(WriteNoiseControl, opID, p, err)
}

// SetEQPreset builds an EQ preset write.
func SetEQPreset(p EQPreset, opID uint8) (Request, error) {
	payload, err := EncodeEQPreset(p)
	return writeRequest(WriteEQ, opID, payload, err)
}

// SetCustomEQ builds a custom EQ write using the model's filter spec.
func SetCustomEQ(c CustomEQ, spec FilterSpec, opID uint8) (Request, error) {
	p, err := EncodeCustomEQ(c, spec)
	return writeRequest(WriteCustomEQ, opID, p, err)
}

// SetEnhancedBass builds an enhanced bass write.
func SetEnhancedBass(e EnhancedBass, opID uint8) (Request, error) {
	p, err := EncodeEnhancedBass(e)
	return writeRequest(WriteEnhancedBass, opID, p, err)
}

func SetInEarDetection(enabled bool, opID uint8) Request {
	return Request{Command: WriteInEarDetection, Payload: EncodeInEarDetection(enabled), OperationID: opID}
}

func SetLowLatency(enabled bool, opID uint8) Request {
	return Request{Command: WriteLowLatency, Payload: EncodeLowLatency(enabled), OperationID: opID}
}

func SetPersonalizedANC(enabled bool, opID uint8) Request {
	return Request{Command: WritePersonalizedANC, Payload: EncodePersonalizedANC(enabled), OperationID: opID}
}

// SetSpatialAudio builds a spatial audio write.
func SetSpatialAudio(m SpatialAudioMode, opID uint8) (Request, error) {
	p, err := EncodeSpatialAudio(m)
	return writeRequest(WriteSpatialAudio, opID, p, err)
}

// SetGesture builds a single gesture write.
func SetGesture(g Gesture, opID uint8) (Request, error) {
	p, err := EncodeGesture(g)
	return writeRequest(WriteGesture, opID, p, err)
}

// SetRingBuds starts or stops the find-my-buds tone.
func SetRingBuds(r RingState, opID uint8) (Request, error) {
	p, err := EncodeRingBuds(r)
	return writeRequest(WriteRingBuds, opID, p, err)
}
