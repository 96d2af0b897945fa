// Package config manages the earctl device registry and user preferences.
//
// The registry is a YAML file recording every headset earctl has connected
// to, keyed by Bluetooth address, along with preferences such as the
// default device and the bridge listen address. It follows OS-specific
// conventions for its location:
//   - Linux: $XDG_CONFIG_HOME/earctl/devices.yaml or $HOME/.config/earctl/devices.yaml
//   - macOS: $HOME/.config/earctl/devices.yaml
//   - Windows: %LOCALAPPDATA%\earctl\devices.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.RecordConnection(address, info)
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry is loaded once. File writes are serialised by a
// mutex and are atomic (temporary file plus rename).
package config
