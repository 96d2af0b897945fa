// Package protocol implements the binary control protocol spoken by Nothing and
// CMF earbuds and headphones over Bluetooth Low Energy.
//
// The peripheral exposes a write channel and a notify channel. Every message in
// either direction is a frame with this layout:
//
//	[0]     0x55          Sync byte
//	[1]     0x60          Fixed
//	[2]     0x01          Fixed
//	[3-4]   command       Command code (little-endian uint16)
//	[5]     length        Payload length (0-255)
//	[6]     0x00          Reserved
//	[7]     operation ID  Request sequence byte (diagnostic only)
//	[8+]    payload       Feature specific bytes
//	[N+]    crc           Optional CRC16 (little-endian)
//
// Requests always carry a CRC computed over the header and payload. Responses
// may omit it. Some CMF firmware computes the CRC over the payload only, so the
// decoder accepts either domain.
//
// # Commands
//
// Command codes live in three namespaces: read requests (0xC0xx), write
// requests (0xF0xx) and responses (0x40xx, plus the legacy 0xE0xx codes). Older
// device generations answer some reads with an alternate response code, so
// LookupResponse maps both codes of a pair to the same Feature.
//
// # Usage Example - Building a Request
//
//	req := protocol.SetNoiseControl(protocol.NoiseControlMid, opID)
//	frame, err := req.Encode()
//	if err != nil {
//	    return err
//	}
//
// # Usage Example - Decoding a Response
//
//	resp, err := protocol.DecodeResponse(data)
//	if err != nil {
//	    return err
//	}
//	if feature, ok := protocol.LookupResponse(resp.Command); ok && feature == protocol.FeatureBattery {
//	    battery, err := protocol.DecodeBattery(resp.Payload, singleDevice)
//	    ...
//	}
//
// All codecs are pure functions. Decoders validate the payload length and
// return an error instead of guessing a default value.
package protocol
