// Earctl controls Nothing and CMF earbuds and headphones over Bluetooth LE.
//
// It connects to a headset, reads its state (battery, noise control, EQ,
// spatial audio and the rest) and changes settings. `earctl serve` keeps a
// session open and bridges it to HTTP and websocket clients on the local
// network.
//
// Usage:
//
//	earctl [command] [flags]
//
// See 'earctl --help' for available commands.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/earctl/internal/config"
	"github.com/muurk/earctl/internal/logging"
	"github.com/muurk/earctl/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	deviceKey    string
	timeout      time.Duration
	logLevel     string
	configPath   string
	jsonOutput   bool
	useVirtual   bool
	virtualModel string
)

// registry is loaded before every command runs.
var registry *config.Registry

var rootCmd = &cobra.Command{
	Use:   "earctl",
	Short: "Control Nothing and CMF headsets over Bluetooth LE",
	Long: `A command line client for Nothing and CMF earbuds and headphones.

earctl talks to the headset directly over Bluetooth LE: no phone app and no
account. It reads battery levels and device information, and changes noise
control, EQ, spatial audio, gestures and the other settings the model
supports.

Headsets earctl has connected to are remembered in devices.yaml, so later
commands find them by nickname and skip the scan.`,
	Version:           version.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&deviceKey, "device", "d", "", "Device address, nickname or name (default: last used)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "How long to wait for the device (default from devices.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to devices.yaml (default: user config directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of styled output")
	rootCmd.PersistentFlags().BoolVar(&useVirtual, "virtual", false, "Use an emulated headset instead of Bluetooth")
	rootCmd.PersistentFlags().StringVar(&virtualModel, "virtual-model", "ear3/white", "Model the emulated headset reports")
}

// setup initializes logging and loads the device registry.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		registry, err = config.LoadRegistryFrom(configPath)
	} else {
		registry, err = config.LoadRegistry()
	}
	if err != nil {
		return fmt.Errorf("failed to load devices.yaml: %w", err)
	}

	level := logLevel
	if level == "" {
		level = registry.Preferences.LogLevel
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}

	if timeout <= 0 {
		timeout = registry.Preferences.ScanTimeout
	}
	return nil
}

// saveRegistry writes the registry back to where it was read from.
func saveRegistry() error {
	if configPath != "" {
		return registry.SaveTo(configPath)
	}
	return registry.Save()
}
