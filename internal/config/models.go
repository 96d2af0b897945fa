package config

import (
	"sort"
	"time"

	"github.com/muurk/earctl/internal/device"
)

const registryVersion = 1

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by Bluetooth address
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device is what earctl remembers about one peripheral.
type Device struct {
	Name      string       `yaml:"name,omitempty"`     // Advertised name
	Nickname  string       `yaml:"nickname,omitempty"` // User-friendly name
	Model     device.Model `yaml:"model,omitempty"`    // Resolved model, e.g. "ear3/white"
	Serial    string       `yaml:"serial,omitempty"`
	Firmware  string       `yaml:"firmware,omitempty"`
	FirstSeen time.Time    `yaml:"first_seen,omitempty"`
	LastSeen  time.Time    `yaml:"last_seen,omitempty"`
}

// DisplayName prefers the nickname, then the advertised name.
func (d *Device) DisplayName() string {
	switch {
	case d.Nickname != "":
		return d.Nickname
	case d.Name != "":
		return d.Name
	case !d.Model.IsZero():
		return d.Model.DisplayName()
	default:
		return "unknown device"
	}
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultDevice    string        `yaml:"default_device,omitempty"` // Address connected to when none is given
	ScanTimeout      time.Duration `yaml:"scan_timeout"`             // How long scan and connect wait for an advertisement
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`        // Serial and firmware read deadline
	BridgeListen     string        `yaml:"bridge_listen"`            // Address for `earctl serve`
	LogLevel         string        `yaml:"log_level,omitempty"`      // Overridden by --log-level
	AdvertiseBridge  bool          `yaml:"advertise_bridge"`         // Announce the bridge over mDNS
}

func defaultPreferences() *Preferences {
	return &Preferences{
		ScanTimeout:      10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		BridgeListen:     ":8787",
		AdvertiseBridge:  true,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     registryVersion,
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

// GetDevice returns the entry for address, or nil.
func (r *Registry) GetDevice(address string) *Device {
	return r.Devices[address]
}

// EnsureDevice returns the entry for address, creating it if needed.
func (r *Registry) EnsureDevice(address string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	if d, ok := r.Devices[address]; ok {
		return d
	}
	d := &Device{FirstSeen: time.Now()}
	r.Devices[address] = d
	return d
}

// RecordConnection stores what a completed handshake reported. Empty
// values do not overwrite earlier ones.
func (r *Registry) RecordConnection(address, name string, model device.Model, serial, firmware string) {
	d := r.EnsureDevice(address)
	d.LastSeen = time.Now()
	if name != "" {
		d.Name = name
	}
	if !model.IsZero() {
		d.Model = model
	}
	if serial != "" {
		d.Serial = serial
	}
	if firmware != "" {
		d.Firmware = firmware
	}
	if r.Preferences != nil && r.Preferences.DefaultDevice == "" {
		r.Preferences.DefaultDevice = address
	}
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(address, nickname string) {
	r.EnsureDevice(address).Nickname = nickname
}

// Forget removes a device and clears it as the default.
func (r *Registry) Forget(address string) bool {
	if _, ok := r.Devices[address]; !ok {
		return false
	}
	delete(r.Devices, address)
	if r.Preferences != nil && r.Preferences.DefaultDevice == address {
		r.Preferences.DefaultDevice = ""
	}
	return true
}

// Entry pairs a stored device with its address.
type Entry struct {
	Address string
	*Device
}

// Entries lists devices, most recently seen first.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.Devices))
	for addr, d := range r.Devices {
		entries = append(entries, Entry{Address: addr, Device: d})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].LastSeen.Equal(entries[j].LastSeen) {
			return entries[i].LastSeen.After(entries[j].LastSeen)
		}
		return entries[i].Address < entries[j].Address
	})
	return entries
}

// Lookup finds a device by address, nickname or advertised name.
func (r *Registry) Lookup(key string) (Entry, bool) {
	if d, ok := r.Devices[key]; ok {
		return Entry{Address: key, Device: d}, true
	}
	for _, e := range r.Entries() {
		if e.Nickname == key || e.Name == key {
			return e, true
		}
	}
	return Entry{}, false
}
