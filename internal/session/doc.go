// Package session drives one connection to a Nothing or CMF peripheral.
//
// A Session is a single-goroutine actor. Run owns every piece of connection
// state; exported methods enqueue work onto that goroutine and wait for the
// local result, so precondition failures (not connected, unsupported by the
// model) come back synchronously and nothing is sent. Everything the
// peripheral reports arrives on Events.
//
// Lifecycle:
//
//	Disconnected -> Scanning -> Connecting -> Connected -> Disconnected
//	                 FoundConnected -^
//
// After the transport connects, the session picks the proprietary service,
// subscribes to its notify characteristic and runs the handshake: a serial
// number read, then a firmware read. Once both answers are in, a
// ConnectedEvent is emitted and the remaining status reads are issued one
// stagger interval apart.
//
// Usage:
//
//	s := session.New(transport)
//	go s.Run(ctx)
//	for ev := range s.Events() {
//		switch ev := ev.(type) {
//		case session.DiscoveredEvent:
//			s.Connect(ctx, ev.Peripheral)
//		case session.BatteryEvent:
//			fmt.Println(ev.Battery)
//		}
//	}
package session
