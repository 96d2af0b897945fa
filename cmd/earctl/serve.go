package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/earctl/internal/device"
	"github.com/muurk/earctl/internal/discovery"
	"github.com/muurk/earctl/internal/logging"
	"github.com/muurk/earctl/internal/server"
	"github.com/muurk/earctl/internal/session"
	"github.com/muurk/earctl/internal/ui"
	"github.com/muurk/earctl/internal/urls"
)

// Serve command flags
var (
	serveListen    string
	serveCert      string
	serveKey       string
	serveNoConnect bool
	serveNoMDNS    bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from devices.yaml, \":8787\")")
	serveCmd.Flags().StringVar(&serveCert, "cert", "", "TLS certificate file")
	serveCmd.Flags().StringVar(&serveKey, "key", "", "TLS private key file")
	serveCmd.Flags().BoolVar(&serveNoConnect, "no-connect", false, "Start without connecting; clients use POST /api/scan and /api/connect")
	serveCmd.Flags().BoolVar(&serveNoMDNS, "no-mdns", false, "Do not advertise the bridge on the local network")
}

// serveCmd bridges one session to HTTP and websocket clients
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Bridge the headset to HTTP and websocket clients",
	Long: `Keep a session open and expose it on the local network.

The bridge serves a JSON API under /api (status, settings, scan and
connect) and streams every session event over a websocket at /api/events.
It is advertised over mDNS as _earctl._tcp so 'earctl bridges' and other
clients can find it.

API reference: ` + urls.BridgeAPI,
	Example: `  # Connect to the default headset and serve on :8787
  earctl serve

  # Serve an emulated headset for UI development
  earctl serve --virtual --listen 127.0.0.1:9000 --no-mdns`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Named("serve")
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listen := serveListen
	if listen == "" {
		listen = registry.Preferences.BridgeListen
	}
	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", listen, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", portStr, err)
	}

	c, err := openClient()
	if err != nil {
		return err
	}
	defer c.Close()

	if !serveNoConnect {
		runner := ui.NewRunner(ui.RunnerConfig{
			Title:           "Connect",
			Command:         commandLine(cmd),
			Steps:           connectSteps,
			Troubleshooting: connectTroubleshooting,
			TipsFor:         tipsFor,
			Output:          cmd.OutOrStdout(),
		})
		err := runner.Run(func(onStep ui.StepCallback) ([]ui.Param, error) {
			connectCtx, cancel := context.WithTimeout(ctx, timeout+registry.Preferences.HandshakeTimeout)
			defer cancel()
			if err := c.connect(connectCtx, onStep); err != nil {
				return nil, err
			}
			return c.deviceParams(), nil
		})
		if err != nil {
			return err
		}
	}

	srv, err := server.New(&server.Config{
		Host:     host,
		Port:     port,
		CertPath: serveCert,
		KeyPath:  serveKey,
		Version:  versionString(),
	}, c.session)
	if err != nil {
		return err
	}
	if err := srv.Listen(); err != nil {
		return err
	}

	if !serveNoMDNS && registry.Preferences.AdvertiseBridge {
		hostname, _ := os.Hostname()
		ann := discovery.Announcement{
			Host:       hostname,
			Port:       srv.Port(),
			Version:    versionString(),
			Peripheral: firstNonEmpty(c.peripheral.Address, c.peripheral.ID),
			Model:      modelText(c.info.Model),
		}
		adv, err := discovery.Advertise(ann)
		if err != nil {
			// the bridge still works by address
			log.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			defer adv.Shutdown()
			srv.OnEvent = func(ev session.Event) {
				switch e := ev.(type) {
				case session.ConnectedEvent:
					if e.Err != nil {
						return
					}
					ann.Model = modelText(e.Info.Model)
				case session.DisconnectedEvent:
					ann.Peripheral, ann.Model = "", ""
				default:
					return
				}
				if snap, err := c.session.Snapshot(ctx); err == nil && snap.Peripheral != nil {
					ann.Peripheral = firstNonEmpty(snap.Peripheral.Address, snap.Peripheral.ID)
				}
				if err := adv.Update(ann); err != nil {
					log.Warn("Failed to update mDNS records", zap.Error(err))
				}
			}
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nBridge listening on port %d. Press Ctrl+C to stop.\n", srv.Port())
	return srv.Serve(ctx)
}

// modelText is the "line/color" form, empty while unresolved.
func modelText(m device.Model) string {
	if m.IsZero() {
		return ""
	}
	return m.String()
}
