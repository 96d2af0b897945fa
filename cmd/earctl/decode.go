package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/earctl/internal/logging"
	"github.com/muurk/earctl/internal/protocol"
	"github.com/muurk/earctl/internal/ui"
	"github.com/muurk/earctl/internal/urls"
)

var decodeSingleBattery bool

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().BoolVar(&decodeSingleBattery, "single-battery", false, "Decode battery frames with the headphone layout")
}

// decodeCmd explains captured frames without a device
var decodeCmd = &cobra.Command{
	Use:   "decode [hex-frame...]",
	Short: "Decode captured protocol frames",
	Long: `Validate and decode response frames, for example from a Bluetooth capture.

Frames are hex strings; spaces, colons and a 0x prefix are ignored. With no
arguments one frame is read per line from stdin.

Frame format: ` + urls.ProtocolNotes,
	Example: `  earctl decode "55 20 01 03 E0 02 00 01 00 01 05 xx xx"
  tshark ... | earctl decode`,
	RunE: runDecode,
}

type decodedFrame struct {
	Frame     string `json:"frame"`
	Command   string `json:"command,omitempty"`
	Feature   string `json:"feature,omitempty"`
	Operation uint8  `json:"operation_id"`
	Value     any    `json:"value,omitempty"`
	Error     string `json:"error,omitempty"`
}

func runDecode(cmd *cobra.Command, args []string) error {
	frames := args
	if len(frames) == 0 {
		var err error
		if frames, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	var results []decodedFrame
	failed := 0
	for _, text := range frames {
		raw, err := parseHex(text)
		var d *protocol.Decoded
		if err == nil {
			logging.LogRawBytes("Decoding frame", raw)
			d, err = protocol.Decode(raw, decodeSingleBattery)
		}

		if err != nil {
			failed++
			results = append(results, decodedFrame{Frame: text, Error: err.Error()})
			if !jsonOutput {
				fmt.Fprintln(out, ui.NewFailureResult("Invalid frame", fmt.Errorf("%s: %w", text, err), nil).Render())
			}
			continue
		}

		results = append(results, decodedFrame{
			Frame:     hex.EncodeToString(raw),
			Command:   protocol.CommandName(d.Response.Command),
			Feature:   d.Feature.String(),
			Operation: d.Response.OperationID,
			Value:     d.Value,
		})
		if !jsonOutput {
			fmt.Fprintln(out, ui.NewFrameBox(raw, d).Render())
		}
	}

	if jsonOutput {
		if err := printJSON(cmd, results); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d frames failed to decode", failed, len(frames))
	}
	return nil
}

// parseHex accepts "55 20 01", "55:20:01", "0x552001" and similar.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer(" ", "", ":", "", "-", "", "\t", "").Replace(s)
	if s == "" {
		return nil, fmt.Errorf("empty frame")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return raw, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read frames: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no frames given")
	}
	return lines, nil
}
