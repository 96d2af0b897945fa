package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/earctl/internal/device"
)

var ear3 = device.Model{Line: device.LineEar3, Color: device.ColorWhite}

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "earctl") {
		t.Errorf("GetConfigDir() = %v, should contain 'earctl'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDirHonoursXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join("/tmp/xdg", "earctl") {
		t.Errorf("GetConfigDir() = %v, want /tmp/xdg/earctl", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "devices.yaml" {
		t.Errorf("GetConfigPath() should end with 'devices.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if reg.Preferences.HandshakeTimeout != 10*time.Second {
		t.Errorf("HandshakeTimeout = %v, want 10s", reg.Preferences.HandshakeTimeout)
	}
	if reg.Preferences.BridgeListen != ":8787" {
		t.Errorf("BridgeListen = %q, want :8787", reg.Preferences.BridgeListen)
	}
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := NewRegistry()

	d1 := reg.EnsureDevice("AA:BB")
	if d1 == nil {
		t.Fatal("EnsureDevice() returned nil")
	}
	if d1.FirstSeen.IsZero() {
		t.Error("EnsureDevice() should stamp FirstSeen")
	}
	if d2 := reg.EnsureDevice("AA:BB"); d1 != d2 {
		t.Error("EnsureDevice() should return same instance for same address")
	}
	if d3 := reg.EnsureDevice("CC:DD"); d1 == d3 {
		t.Error("EnsureDevice() should create new instance for different address")
	}
}

func TestRegistryRecordConnection(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.RecordConnection("AA:BB", "Nothing Ear (3)", ear3, "SH10252535010003", "1.0.0.100")
	after := time.Now()

	d := reg.GetDevice("AA:BB")
	if d == nil {
		t.Fatal("Device should exist after RecordConnection()")
	}
	if d.Model != ear3 {
		t.Errorf("Model = %v, want %v", d.Model, ear3)
	}
	if d.LastSeen.Before(before) || d.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", d.LastSeen, before, after)
	}
	if reg.Preferences.DefaultDevice != "AA:BB" {
		t.Errorf("DefaultDevice = %q, want first connected device", reg.Preferences.DefaultDevice)
	}

	// a partial handshake keeps what was learned before
	reg.RecordConnection("AA:BB", "", device.Model{}, "", "1.0.0.200")
	if d.Serial != "SH10252535010003" || d.Model != ear3 {
		t.Errorf("RecordConnection() overwrote known values: %+v", d)
	}
	if d.Firmware != "1.0.0.200" {
		t.Errorf("Firmware = %q, want 1.0.0.200", d.Firmware)
	}

	reg.RecordConnection("CC:DD", "CMF Buds", device.Model{}, "", "")
	if reg.Preferences.DefaultDevice != "AA:BB" {
		t.Errorf("DefaultDevice changed to %q", reg.Preferences.DefaultDevice)
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.RecordConnection("AA:BB", "Nothing Ear (3)", ear3, "", "")
	reg.SetDeviceNickname("AA:BB", "desk")

	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"AA:BB", "AA:BB", true},
		{"desk", "AA:BB", true},
		{"Nothing Ear (3)", "AA:BB", true},
		{"CMF Buds", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			e, ok := reg.Lookup(tt.key)
			if ok != tt.ok || e.Address != tt.want {
				t.Errorf("Lookup(%q) = %q, %t, want %q, %t", tt.key, e.Address, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRegistryEntriesOrder(t *testing.T) {
	reg := NewRegistry()
	now := time.Now()
	reg.EnsureDevice("old").LastSeen = now.Add(-time.Hour)
	reg.EnsureDevice("new").LastSeen = now
	reg.EnsureDevice("mid").LastSeen = now.Add(-time.Minute)

	var got []string
	for _, e := range reg.Entries() {
		got = append(got, e.Address)
	}
	if strings.Join(got, ",") != "new,mid,old" {
		t.Errorf("Entries() order = %v, want [new mid old]", got)
	}
}

func TestRegistryForget(t *testing.T) {
	reg := NewRegistry()
	reg.RecordConnection("AA:BB", "Nothing Ear (3)", ear3, "", "")

	if !reg.Forget("AA:BB") {
		t.Fatal("Forget() = false for a known device")
	}
	if reg.GetDevice("AA:BB") != nil {
		t.Error("device still present after Forget()")
	}
	if reg.Preferences.DefaultDevice != "" {
		t.Errorf("DefaultDevice = %q after forgetting it", reg.Preferences.DefaultDevice)
	}
	if reg.Forget("AA:BB") {
		t.Error("Forget() = true for an unknown device")
	}
}

func TestDeviceDisplayName(t *testing.T) {
	tests := []struct {
		d    Device
		want string
	}{
		{Device{Nickname: "desk", Name: "Nothing Ear (3)"}, "desk"},
		{Device{Name: "Nothing Ear (3)"}, "Nothing Ear (3)"},
		{Device{Model: ear3}, ear3.DisplayName()},
		{Device{}, "unknown device"},
	}
	for _, tt := range tests {
		if got := tt.d.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "devices.yaml")

	reg := NewRegistry()
	reg.RecordConnection("AA:BB", "Nothing Ear (3)", ear3, "SH10252535010003", "1.0.0.100")
	reg.SetDeviceNickname("AA:BB", "desk")
	reg.Preferences.ScanTimeout = 30 * time.Second

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# earctl device registry") {
		t.Error("saved file should start with the header comment")
	}
	if !strings.Contains(string(data), "scan_timeout: 30s") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	loaded, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	d := loaded.GetDevice("AA:BB")
	if d == nil {
		t.Fatal("Device should exist in loaded registry")
	}
	if d.Nickname != "desk" || d.Model != ear3 || d.Serial != "SH10252535010003" {
		t.Errorf("loaded device = %+v", d)
	}
	if loaded.Preferences.ScanTimeout != 30*time.Second {
		t.Errorf("ScanTimeout = %v, want 30s", loaded.Preferences.ScanTimeout)
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	reg, err := LoadRegistryFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if len(reg.Devices) != 0 || reg.Preferences == nil {
		t.Errorf("missing file should give a default registry, got %+v", reg)
	}
}

func TestLoadRegistryRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.yaml")
	if err := os.WriteFile(path, []byte("version: 2\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegistryFrom(path); err == nil {
		t.Error("LoadRegistryFrom() should reject version 2")
	}
}

func TestLoadRegistryFillsPreferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.yaml")
	content := "version: 1\ndevices:\n  \"AA:BB\":\n    name: CMF Buds\n    model: cmf-buds/orange\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if reg.Preferences == nil || reg.Preferences.BridgeListen != ":8787" {
		t.Errorf("Preferences = %+v, want defaults", reg.Preferences)
	}
	want := device.Model{Line: device.LineCMFBuds, Color: device.ColorOrange}
	if got := reg.GetDevice("AA:BB").Model; got != want {
		t.Errorf("Model = %v, want %v", got, want)
	}
}

func BenchmarkEnsureDevice(b *testing.B) {
	reg := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.EnsureDevice("AA:BB")
	}
}
