// Package discovery advertises and finds earctl bridges over mDNS.
//
// A bridge is an `earctl serve` process holding a headset connection and
// exposing it over HTTP and websocket. Bridges register the "_earctl._tcp"
// service with an instance name of the form "earctl-<host>" and TXT records
// describing the connected headset:
//   - v: bridge version
//   - device: connected peripheral address, empty when idle
//   - model: resolved model, e.g. "ear3/white"
//   - path: API prefix, always "/api"
//
// # Usage Example
//
//	bridges, err := discovery.ScanForBridges(3 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, b := range bridges {
//	    fmt.Println(b, b.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridges must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
