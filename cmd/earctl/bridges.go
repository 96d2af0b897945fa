package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/muurk/earctl/internal/discovery"
	"github.com/muurk/earctl/internal/ui"
)

var bridgeWait string

func init() {
	rootCmd.AddCommand(bridgesCmd)
	bridgesCmd.Flags().StringVar(&bridgeWait, "wait", "", "Wait for the bridge with this host, instance or headset address and print only it")
}

// bridgesCmd finds `earctl serve` instances on the local network
var bridgesCmd = &cobra.Command{
	Use:   "bridges",
	Short: "Find earctl bridges on the local network",
	Long: `Browse mDNS for bridges started with 'earctl serve' and list their
API and event stream URLs along with the headset each one is connected to.`,
	Example: `  earctl bridges --timeout 3s
  earctl bridges --wait desk --json`,
	Args:    cobra.NoArgs,
	RunE:    runBridges,
}

type bridgeResult struct {
	Instance   string `json:"instance"`
	Host       string `json:"host"`
	IP         string `json:"ip"`
	Port       int    `json:"port"`
	Version    string `json:"version,omitempty"`
	Peripheral string `json:"peripheral,omitempty"`
	Model      string `json:"model,omitempty"`
	API        string `json:"api"`
	Events     string `json:"events"`
}

func newBridgeResult(b *discovery.Bridge) bridgeResult {
	return bridgeResult{
		Instance:   b.Instance,
		Host:       b.Host,
		IP:         b.IP,
		Port:       b.Port,
		Version:    b.Version(),
		Peripheral: b.Peripheral(),
		Model:      b.Model(),
		API:        b.BaseURL(),
		Events:     b.EventsURL(),
	}
}

func runBridges(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	scanner := discovery.NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}

	if bridgeWait != "" {
		if !jsonOutput {
			fmt.Fprintf(out, "Waiting for bridge %s (timeout: %s)...\n\n", bridgeWait, scanner.Timeout)
		}
		b, err := scanner.WaitForBridge(cmd.Context(), bridgeWait)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, newBridgeResult(b))
		}
		printBridge(out, b)
		return nil
	}

	if !jsonOutput {
		fmt.Fprintf(out, "Browsing for bridges (timeout: %s)...\n\n", scanner.Timeout)
	}
	bridges, err := scanner.ScanForBridges(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if jsonOutput {
		results := make([]bridgeResult, 0, len(bridges))
		for _, b := range bridges {
			results = append(results, newBridgeResult(b))
		}
		return printJSON(cmd, results)
	}

	if len(bridges) == 0 {
		fmt.Fprintln(out, ui.NewWarningResult("No bridges found").Render())
		fmt.Fprintln(out, "\nTroubleshooting:")
		fmt.Fprintln(out, "  - Check 'earctl serve' is running without --no-mdns")
		fmt.Fprintln(out, "  - Multicast DNS must be allowed between the two machines")
		fmt.Fprintln(out, "  - Try increasing --timeout")
		return nil
	}

	fmt.Fprintf(out, "Found %d bridge(s):\n\n", len(bridges))
	for i, b := range bridges {
		fmt.Fprintf(out, "[%d] ", i+1)
		printBridge(out, b)
	}
	return nil
}

func printBridge(out io.Writer, b *discovery.Bridge) {
	fmt.Fprintf(out, "%s\n", b)
	fmt.Fprintf(out, "    API:       %s\n", b.BaseURL())
	fmt.Fprintf(out, "    Events:    %s\n", b.EventsURL())
	if v := b.Version(); v != "" {
		fmt.Fprintf(out, "    Version:   %s\n", v)
	}
	if p := b.Peripheral(); p != "" {
		fmt.Fprintf(out, "    Headset:   %s\n", p)
	}
	fmt.Fprintln(out)
}
