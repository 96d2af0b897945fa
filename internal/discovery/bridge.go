package discovery

import (
	"fmt"
	"strings"
	"time"
)

// Bridge represents an earctl bridge found on the network
type Bridge struct {
	// Instance is the mDNS instance name (e.g., "earctl-desk")
	Instance string

	// Host is the host label taken from the instance name (e.g., "desk")
	Host string

	// Hostname is the mDNS hostname (e.g., "desk.local.")
	Hostname string

	// IP is the IPv4 address, or IPv6 when no IPv4 was announced
	IP string

	// Port is the HTTP port
	Port int

	// Metadata contains the TXT records
	Metadata map[string]string

	// DiscoveredAt is when the bridge answered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the bridge
func (b *Bridge) String() string {
	if model := b.Model(); model != "" {
		return fmt.Sprintf("earctl bridge %s (%s) at %s:%d", b.Host, model, b.IP, b.Port)
	}
	return fmt.Sprintf("earctl bridge %s at %s:%d", b.Host, b.IP, b.Port)
}

// BaseURL returns the HTTP base URL for the bridge API
func (b *Bridge) BaseURL() string {
	return fmt.Sprintf("http://%s%s", b.hostPort(), b.apiPath())
}

// EventsURL returns the websocket URL streaming session events
func (b *Bridge) EventsURL() string {
	return fmt.Sprintf("ws://%s%s/events", b.hostPort(), b.apiPath())
}

func (b *Bridge) hostPort() string {
	if isIPv6(b.IP) {
		return fmt.Sprintf("[%s]:%d", b.IP, b.Port)
	}
	return fmt.Sprintf("%s:%d", b.IP, b.Port)
}

func (b *Bridge) apiPath() string {
	if p := b.GetMetadata(txtPath); p != "" {
		return p
	}
	return DefaultAPIPath
}

// Peripheral is the address of the connected headset, empty when idle
func (b *Bridge) Peripheral() string { return b.GetMetadata(txtDevice) }

// Model is the resolved model of the connected headset
func (b *Bridge) Model() string { return b.GetMetadata(txtModel) }

// Version is the bridge's earctl version
func (b *Bridge) Version() string { return b.GetMetadata(txtVersion) }

// Matches reports whether key names this bridge by host label, instance
// name or connected headset address. Case is ignored.
func (b *Bridge) Matches(key string) bool {
	if key == "" {
		return false
	}
	for _, v := range []string{b.Host, b.Instance, b.Peripheral()} {
		if v != "" && strings.EqualFold(v, key) {
			return true
		}
	}
	return false
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}

func isIPv6(ip string) bool {
	for i := 0; i < len(ip); i++ {
		if ip[i] == ':' {
			return true
		}
	}
	return false
}
