// Package server exposes a headset session over HTTP and websocket.
//
// `earctl serve` runs one session and this package bridges it to other
// processes on the network: REST endpoints under /api change settings and
// read the current snapshot, and /api/events streams every session event
// as JSON.
//
// # Endpoints
//
//	GET    /api/version
//	GET    /api/status               current snapshot
//	POST   /api/refresh              re-read every supported status
//	POST   /api/scan                 start scanning
//	DELETE /api/scan                 stop scanning
//	POST   /api/connect              {"id": "..."}
//	POST   /api/disconnect
//	PUT    /api/anc                  {"mode": "adaptive"}
//	PUT    /api/eq                   {"preset": "more-bass"}
//	PUT    /api/custom-eq            {"bass": 2, "mid": 0, "treble": -1}
//	PUT    /api/bass                 {"enabled": true, "level": 3}
//	PUT    /api/settings/{name}      {"enabled": true}; in-ear, low-latency, personalized-anc
//	PUT    /api/spatial              {"mode": "fixed"}
//	PUT    /api/gesture              {"device": "left", "type": "double-tap", "action": "next-track"}
//	POST   /api/ring                 {"bud": "left", "on": true}
//	GET    /api/events               websocket
//
// Writes answer 202 Accepted once the request frame is sent; the confirmed
// value follows on the event stream. Unsupported operations answer 422 and
// writes without a connection answer 409.
//
// # Event Stream
//
// Every websocket message is a JSON envelope {"type", "data", "error"} as
// produced by session.MarshalEvent. The first message after the upgrade
// has type "snapshot" and carries the full session snapshot.
//
// # Graceful Shutdown
//
// Serve returns when its context is cancelled; Start cancels on SIGINT or
// SIGTERM. Websocket clients receive a close frame before the HTTP server
// stops.
package server
