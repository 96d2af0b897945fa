// Package device identifies Nothing and CMF audio peripherals and answers
// what each product line can do.
//
// A Model is a product Line plus a Color. Models are resolved from the
// advertised Bluetooth name, from the serial number, or from both via
// Resolve. Capability lookups are keyed by Line only; color never changes
// what a device supports.
//
//	m, ok := device.Resolve("CMF Buds 2", serial)
//	if ok && m.Supports(device.CapSpatialAudio) {
//		modes := m.Line.SpatialAudioModes()
//		...
//	}
package device
