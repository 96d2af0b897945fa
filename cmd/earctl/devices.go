package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/earctl/internal/config"
	"github.com/muurk/earctl/internal/ui"
)

var forgetYes bool

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.AddCommand(devicesListCmd)
	devicesCmd.AddCommand(devicesNickCmd)
	devicesCmd.AddCommand(devicesForgetCmd)
	devicesCmd.AddCommand(devicesDefaultCmd)

	devicesForgetCmd.Flags().BoolVarP(&forgetYes, "yes", "y", false, "Do not ask for confirmation")
}

// devicesCmd manages the headsets remembered in devices.yaml
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage remembered headsets",
	Long: `Every headset earctl connects to is remembered in devices.yaml with its
model, serial number and firmware. Nicknames given here work anywhere a
--device is accepted.`,
	Args: cobra.NoArgs,
	RunE: runDevicesList,
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List remembered headsets",
	Args:  cobra.NoArgs,
	RunE:  runDevicesList,
}

type deviceEntry struct {
	Address  string    `json:"address"`
	Name     string    `json:"name,omitempty"`
	Nickname string    `json:"nickname,omitempty"`
	Model    string    `json:"model,omitempty"`
	Serial   string    `json:"serial,omitempty"`
	Firmware string    `json:"firmware,omitempty"`
	LastSeen time.Time `json:"last_seen"`
	Default  bool      `json:"default"`
}

func runDevicesList(cmd *cobra.Command, args []string) error {
	entries := registry.Entries()
	def := registry.Preferences.DefaultDevice

	if jsonOutput {
		list := make([]deviceEntry, 0, len(entries))
		for _, e := range entries {
			list = append(list, deviceEntry{
				Address:  e.Address,
				Name:     e.Name,
				Nickname: e.Nickname,
				Model:    modelText(e.Model),
				Serial:   e.Serial,
				Firmware: e.Firmware,
				LastSeen: e.LastSeen,
				Default:  e.Address == def,
			})
		}
		return printJSON(cmd, list)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No headsets remembered yet. Connect once with 'earctl status'.")
		return nil
	}
	for _, e := range entries {
		marker := " "
		if e.Address == def {
			marker = ui.SuccessMarker
		}
		fmt.Fprintf(out, "%s %s  %s\n", marker, ui.HeaderTitleStyle.Render(e.DisplayName()), e.Address)
		if !e.Model.IsZero() {
			fmt.Fprintf(out, "    Model:     %s\n", e.Model.DisplayName())
		}
		if e.Serial != "" {
			fmt.Fprintf(out, "    Serial:    %s\n", e.Serial)
		}
		if e.Firmware != "" {
			fmt.Fprintf(out, "    Firmware:  %s\n", e.Firmware)
		}
		if !e.LastSeen.IsZero() {
			fmt.Fprintf(out, "    Last seen: %s\n", e.LastSeen.Local().Format(time.DateTime))
		}
	}
	return nil
}

// lookupEntry finds a remembered headset or explains how to list them.
func lookupEntry(key string) (config.Entry, error) {
	e, ok := registry.Lookup(key)
	if !ok {
		return config.Entry{}, fmt.Errorf("no remembered headset %q (see 'earctl devices list')", key)
	}
	return e, nil
}

var devicesNickCmd = &cobra.Command{
	Use:     "nick <device> <nickname>",
	Short:   "Give a headset a nickname",
	Example: `  earctl devices nick "Nothing Ear (3)" work`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := lookupEntry(args[0])
		if err != nil {
			return err
		}
		registry.SetDeviceNickname(e.Address, args[1])
		if err := saveRegistry(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now %q\n", ui.SuccessMarker, e.Address, args[1])
		return nil
	},
}

var devicesForgetCmd = &cobra.Command{
	Use:   "forget <device>",
	Short: "Remove a headset from devices.yaml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := lookupEntry(args[0])
		if err != nil {
			return err
		}
		if !forgetYes {
			var warnings []string
			if e.Address == registry.Preferences.DefaultDevice {
				warnings = append(warnings, "This is the default headset")
			}
			if !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
				"Forget "+e.DisplayName(), warnings, "Remove it from devices.yaml?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		}
		registry.Forget(e.Address)
		if err := saveRegistry(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Forgot %s\n", ui.SuccessMarker, e.Address)
		return nil
	},
}

var devicesDefaultCmd = &cobra.Command{
	Use:   "default [device]",
	Short: "Show or set the headset used when --device is not given",
	Long: `With an argument, make that headset the default. Without one, print the
current default. "none" clears it so the first headset found is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			def := registry.Preferences.DefaultDevice
			if def == "" {
				fmt.Fprintln(out, "No default headset; the first one found is used.")
				return nil
			}
			if e, ok := registry.Lookup(def); ok {
				fmt.Fprintf(out, "%s (%s)\n", e.DisplayName(), e.Address)
				return nil
			}
			fmt.Fprintln(out, def)
			return nil
		}

		if args[0] == "none" {
			registry.Preferences.DefaultDevice = ""
		} else {
			e, err := lookupEntry(args[0])
			if err != nil {
				return err
			}
			registry.Preferences.DefaultDevice = e.Address
		}
		if err := saveRegistry(); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Default headset updated\n", ui.SuccessMarker)
		return nil
	},
}
