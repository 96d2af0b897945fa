// Package logging provides structured logging for earctl.
//
// This package wraps a global zap logger with convenience functions used by
// the session, the BLE transport and the bridge server.
//
// # Log Levels
//
//   - Debug: frame hex dumps, handshake steps, service scoring
//   - Info: connection events, decoded feature updates
//   - Warn: undecodable payloads, unknown response codes
//   - Error: transport failures
//
// # Configuration
//
// Logging is silent unless a level is given on the command line or through
// EARCTL_LOG_LEVEL:
//
//	if err := logging.Initialize(logLevel); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Logs go to stderr so that command output on stdout stays scriptable.
//
// # Frame Logging
//
//	logging.LogFrame(logging.DirectionOutgoing, frame)
//
// All logging functions are safe for concurrent use.
package logging
