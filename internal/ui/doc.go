// Package ui renders earctl's terminal output.
//
// Most commands run once and exit, so their output is plain strings built
// with Lipgloss: a Header naming the command and device, a Progress step
// list while the radio scans and the session connects, and a Result box
// with the outcome. Runner strings these together around one operation.
//
// RenderStatus draws a session snapshot as a panel with battery bars from
// the Bubbles progress component. `earctl watch` wraps the same panel in
// Monitor, a Bubble Tea model that applies session events as they arrive.
//
// # Logging Integration
//
// Logging is controlled by --log-level and EARCTL_LOG_LEVEL. When unset zap
// is silent so the curated output displays cleanly.
package ui
