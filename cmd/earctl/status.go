package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/earctl/internal/device"
	"github.com/muurk/earctl/internal/session"
	"github.com/muurk/earctl/internal/ui"
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
}

// scanCmd lists headsets in range
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for Nothing and CMF headsets in range",
	Long: `Scan for Bluetooth LE advertisements from Nothing and CMF headsets.

Headsets already linked to this computer are listed first. Advertised names
are matched against known models; the exact model is only known after a
connection reads the serial number.`,
	Example: `  # Scan for the default time
  earctl scan

  # Quick 3 second scan
  earctl scan --timeout 3s`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

type scanResult struct {
	Peripheral session.Peripheral `json:"peripheral"`
	Model      string             `json:"model,omitempty"`
	Known      string             `json:"known_as,omitempty"`
	Connected  bool               `json:"connected"`
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := openClient()
	if err != nil {
		return err
	}
	defer c.Close()

	if !jsonOutput {
		fmt.Fprintf(cmd.OutOrStdout(), "Scanning for headsets (timeout: %s)...\n\n", timeout)
	}
	if err := c.session.StartScanning(ctx); err != nil {
		return err
	}

	var results []scanResult
	seen := make(map[string]bool)
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

collect:
	for {
		ev, err := c.next(scanCtx, "scan")
		if err != nil {
			break
		}
		switch e := ev.(type) {
		case session.DiscoveredEvent:
			if seen[e.Peripheral.ID] {
				continue
			}
			seen[e.Peripheral.ID] = true
			results = append(results, describePeripheral(e.Peripheral, false))
		case session.StateChangedEvent:
			if e.State == session.StateFoundConnected {
				// the session connects straight away; report it and stop
				p, perr := connectedPeripheral(scanCtx, c)
				if perr == nil && !seen[p.ID] {
					seen[p.ID] = true
					results = append(results, describePeripheral(p, true))
				}
				break collect
			}
		}
	}
	_ = c.session.StopScanning(context.Background())

	if jsonOutput {
		if results == nil {
			results = []scanResult{}
		}
		return printJSON(cmd, results)
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, ui.NewWarningResult("No headsets found").Render())
		fmt.Fprintln(out, "\nTroubleshooting:")
		for _, tip := range connectTroubleshooting {
			fmt.Fprintf(out, "  - %s\n", tip)
		}
		fmt.Fprintln(out, "  - Try increasing --timeout")
		return nil
	}

	fmt.Fprintf(out, "Found %d headset(s):\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(out, "[%d] %s\n", i+1, r.Peripheral.Name)
		fmt.Fprintf(out, "    Address:   %s\n", firstNonEmpty(r.Peripheral.Address, r.Peripheral.ID))
		if r.Connected {
			fmt.Fprintf(out, "    Status:    already connected\n")
		} else {
			fmt.Fprintf(out, "    Signal:    %d dBm\n", r.Peripheral.RSSI)
		}
		if r.Model != "" {
			fmt.Fprintf(out, "    Model:     %s\n", r.Model)
		}
		if r.Known != "" {
			fmt.Fprintf(out, "    Known as:  %s\n", r.Known)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func connectedPeripheral(ctx context.Context, c *client) (session.Peripheral, error) {
	snap, err := c.session.Snapshot(ctx)
	if err != nil {
		return session.Peripheral{}, err
	}
	if snap.Peripheral == nil {
		return session.Peripheral{}, fmt.Errorf("no peripheral")
	}
	return *snap.Peripheral, nil
}

func describePeripheral(p session.Peripheral, connected bool) scanResult {
	r := scanResult{Peripheral: p, Connected: connected}
	if m, ok := device.FromName(p.Name); ok {
		r.Model = m.DisplayName()
	}
	if e, ok := registry.Lookup(firstNonEmpty(p.Address, p.ID)); ok {
		r.Known = e.DisplayName()
		if !e.Model.IsZero() {
			r.Model = e.Model.DisplayName()
		}
	}
	return r
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// statusCmd prints everything the session reads after connecting
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show battery, audio settings and gestures",
	Long: `Connect to the headset and show its current state.

After the handshake earctl reads battery, noise control, EQ, spatial audio
and the remaining settings the model supports, then prints them together.`,
	Example: `  # Status of the last used headset
  earctl status

  # A specific headset, as JSON
  earctl status -d "Kitchen buds" --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withDevice(cmd, "Read status", settleStatus, func(ctx context.Context, cmd *cobra.Command, c *client) error {
		snap, err := c.session.Snapshot(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, snap)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderStatus(snap, ui.GetTerminalWidth()))
		return nil
	})
}

// settleStatus waits for the status reads that follow the handshake.
func settleStatus(ctx context.Context, c *client) ([]ui.Param, error) {
	settleCtx, cancel := context.WithTimeout(ctx, applyTimeout)
	defer cancel()
	c.settle(settleCtx, statusSettle)
	return nil, nil
}

// watchCmd keeps the connection open and shows changes as they happen
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the headset live",
	Long: `Connect and keep the connection open, showing a live status panel and
the events the headset sends: battery changes, settings changed from the
buds themselves and errors.

Press r to read everything again and q to quit. With --json every event is
printed as one JSON object per line instead.`,
	Example: `  # Live panel
  earctl watch

  # Event stream for scripts
  earctl watch --json | jq .`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	return withDevice(cmd, "Watch", nil, func(ctx context.Context, cmd *cobra.Command, c *client) error {
		if jsonOutput {
			return streamEvents(ctx, cmd, c)
		}
		snap, err := c.session.Snapshot(ctx)
		if err != nil {
			return err
		}
		m := ui.NewMonitor(snap, c.session.Events(), c.session.Refresh)
		return ui.RunMonitor(ctx, m)
	})
}

// streamEvents prints events as JSON lines until ctx ends or the device
// goes away.
func streamEvents(ctx context.Context, cmd *cobra.Command, c *client) error {
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-c.session.Events():
			if !ok {
				return nil
			}
			line, err := session.MarshalEvent(ev)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(line))
			if _, gone := ev.(session.DisconnectedEvent); gone {
				return nil
			}
		}
	}
}
