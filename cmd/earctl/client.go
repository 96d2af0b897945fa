package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/earctl/internal/device"
	"github.com/muurk/earctl/internal/logging"
	"github.com/muurk/earctl/internal/session"
	"github.com/muurk/earctl/internal/transport/ble"
	"github.com/muurk/earctl/internal/transport/virtual"
	"github.com/muurk/earctl/internal/ui"
	"github.com/muurk/earctl/internal/urls"
)

const (
	virtualID     = "EA:C7:00:00:00:01"
	virtualSerial = "SH10252535010003"

	// statusSettle is how long the event stream must stay quiet before the
	// post-handshake status reads are considered done.
	statusSettle = 400 * time.Millisecond
	// applyTimeout bounds waiting for a setting to be read back.
	applyTimeout = 5 * time.Second
)

// Connection steps shown while a command gets to its device.
const (
	stepRadio = iota + 1
	stepFind
	stepConnect
	stepHandshake
)

var connectSteps = []string{"Bluetooth", "Find device", "Connect", "Handshake"}

var connectTroubleshooting = []string{
	"Open the case or take the buds out so they advertise",
	"Make sure Bluetooth is on and earctl may use it",
	"Disconnect the headset from other phones or computers",
	"Run 'earctl scan' to check the device is visible",
	"Run with --log-level debug for protocol traces",
	"More help: " + urls.Troubleshooting,
}

var radioTroubleshooting = []string{
	"Turn Bluetooth on",
	"Allow your terminal to use Bluetooth",
	"Permissions: " + urls.BluetoothPermissions,
}

// tipsFor picks troubleshooting tips by error kind.
func tipsFor(err error) []string {
	switch {
	case errors.Is(err, session.ErrUnsupportedOperation):
		return unsupportedTips
	case errors.Is(err, session.ErrRadioPoweredOff),
		errors.Is(err, session.ErrRadioUnauthorized),
		errors.Is(err, session.ErrRadioUnavailable):
		return radioTroubleshooting
	}
	return nil
}

// transport is a session transport that owns OS resources.
type transport interface {
	session.Transport
	Close() error
}

func newTransport() (transport, error) {
	if !useVirtual {
		return ble.New(), nil
	}
	var model device.Model
	if err := model.UnmarshalText([]byte(virtualModel)); err != nil {
		return nil, fmt.Errorf("invalid --virtual-model: %w", err)
	}
	serial := "VIRTUAL00000001"
	if model == (device.Model{Line: device.LineEar3, Color: device.ColorWhite}) {
		serial = virtualSerial
	}
	return virtual.New(virtual.WithDevice(virtual.NewDevice(virtualID, model, serial))), nil
}

// client runs one session for the duration of a command.
type client struct {
	transport transport
	session   *session.Session
	cancel    context.CancelFunc
	done      chan error
	log       *zap.Logger

	peripheral session.Peripheral
	info       session.DeviceInfo
}

func openClient() (*client, error) {
	t, err := newTransport()
	if err != nil {
		return nil, err
	}
	s := session.New(t, session.WithHandshakeTimeout(registry.Preferences.HandshakeTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		transport: t,
		session:   s,
		cancel:    cancel,
		done:      make(chan error, 1),
		log:       logging.Named("cli"),
	}
	go func() { c.done <- s.Run(ctx) }()
	return c, nil
}

// Close stops the session, which disconnects, and releases the radio.
func (c *client) Close() error {
	c.cancel()
	<-c.done
	return c.transport.Close()
}

// timeoutError reports that ctx ran out while waiting for what.
func timeoutError(what string, err error) error {
	return &session.Error{Kind: session.KindTimeout, Message: what, Err: err}
}

// next returns the next session event or a timeout once ctx is done.
func (c *client) next(ctx context.Context, what string) (session.Event, error) {
	select {
	case ev, ok := <-c.session.Events():
		if !ok {
			return nil, session.ErrClosed
		}
		return ev, nil
	case <-ctx.Done():
		return nil, timeoutError(what, ctx.Err())
	}
}

// target decides which advertisement to connect to. An explicit --device
// must match; otherwise the default device does, or the first headset seen
// when there is none.
type target struct {
	key     string
	address string
}

func resolveTarget() target {
	if useVirtual {
		return target{key: deviceKey}
	}
	if deviceKey != "" {
		if e, ok := registry.Lookup(deviceKey); ok {
			return target{key: deviceKey, address: e.Address}
		}
		return target{key: deviceKey}
	}
	if def := registry.Preferences.DefaultDevice; def != "" {
		return target{key: def, address: def}
	}
	return target{}
}

func (t target) matches(p session.Peripheral) bool {
	if t.key == "" && t.address == "" {
		return true
	}
	for _, id := range []string{p.ID, p.Address} {
		if id == "" {
			continue
		}
		if strings.EqualFold(id, t.address) || strings.EqualFold(id, t.key) {
			return true
		}
	}
	return t.key != "" && strings.EqualFold(p.Name, t.key)
}

func (t target) String() string {
	if t.key == "" {
		return "any headset"
	}
	return t.key
}

// connect scans for the target, connects and waits for the handshake.
func (c *client) connect(ctx context.Context, onStep ui.StepCallback) error {
	tgt := resolveTarget()

	onStep(stepRadio, ui.StepRunning, "")
	if err := c.session.StartScanning(ctx); err != nil {
		onStep(stepRadio, ui.StepFailed, "")
		return err
	}
	onStep(stepRadio, ui.StepComplete, "")
	onStep(stepFind, ui.StepRunning, tgt.String())

	found := false
	for {
		ev, err := c.next(ctx, "looking for "+tgt.String())
		if err != nil {
			_ = c.session.StopScanning(context.Background())
			if found {
				onStep(stepHandshake, ui.StepFailed, "timed out")
				return err
			}
			onStep(stepFind, ui.StepFailed, "not found")
			return &session.Error{Kind: session.KindDeviceNotFound, Message: tgt.String(), Err: err}
		}

		switch e := ev.(type) {
		case session.DiscoveredEvent:
			if found {
				continue
			}
			if !tgt.matches(e.Peripheral) {
				c.log.Debug("Skipping peripheral", zap.Stringer("peripheral", e.Peripheral))
				continue
			}
			found = true
			c.peripheral = e.Peripheral
			onStep(stepFind, ui.StepComplete, fmt.Sprintf("%s, %d dBm", e.Peripheral.Name, e.Peripheral.RSSI))
			onStep(stepConnect, ui.StepRunning, "")
			if err := c.session.Connect(ctx, e.Peripheral); err != nil {
				onStep(stepConnect, ui.StepFailed, "")
				return err
			}

		case session.StateChangedEvent:
			switch e.State {
			case session.StateFoundConnected:
				found = true
				if p, err := connectedPeripheral(ctx, c); err == nil {
					c.peripheral = p
				}
				onStep(stepFind, ui.StepSkipped, "already connected")
				onStep(stepConnect, ui.StepRunning, "")
			case session.StateConnected:
				onStep(stepConnect, ui.StepComplete, "")
				onStep(stepHandshake, ui.StepRunning, "")
			}

		case session.ConnectedEvent:
			if e.Err != nil {
				onStep(stepHandshake, ui.StepFailed, "")
				return e.Err
			}
			c.info = e.Info
			onStep(stepHandshake, ui.StepComplete, e.Info.FirmwareVersion)
			c.remember()
			return nil

		case session.DisconnectedEvent:
			if e.Err != nil {
				return e.Err
			}
			return &session.Error{Kind: session.KindConnectionFailed, Message: "disconnected during connect"}
		}
	}
}

// remember records the connection in devices.yaml. Emulated devices are
// never stored.
func (c *client) remember() {
	if useVirtual {
		return
	}
	address := c.peripheral.Address
	if address == "" {
		address = c.peripheral.ID
	}
	if address == "" {
		return
	}
	registry.RecordConnection(address, c.info.Name, c.info.Model, c.info.SerialNumber, c.info.FirmwareVersion)
	if err := saveRegistry(); err != nil {
		c.log.Warn("Failed to save devices.yaml", zap.Error(err))
	}
}

// settle drains events until none arrive for quiet, so the status reads
// that follow the handshake have landed.
func (c *client) settle(ctx context.Context, quiet time.Duration) {
	timer := time.NewTimer(quiet)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-c.session.Events():
			if !ok {
				return
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(quiet)
		case <-timer.C:
			return
		case <-ctx.Done():
			return
		}
	}
}

// await waits for the first event match accepts. A disconnect ends the
// wait; other session errors are only logged since writes report their own
// failures synchronously.
func (c *client) await(ctx context.Context, what string, match func(session.Event) bool) (session.Event, error) {
	for {
		ev, err := c.next(ctx, what)
		if err != nil {
			return nil, err
		}
		switch e := ev.(type) {
		case session.DisconnectedEvent:
			if e.Err != nil {
				return nil, e.Err
			}
			return nil, &session.Error{Kind: session.KindConnectionFailed, Message: "disconnected"}
		case session.ErrorEvent:
			c.log.Debug("Session error while waiting", zap.String("what", what), zap.Error(e.Err))
			continue
		}
		if match(ev) {
			return ev, nil
		}
	}
}

func (c *client) deviceParams() []ui.Param {
	var ps []ui.Param
	if !c.info.Model.IsZero() {
		ps = append(ps, ui.Param{Key: "Model", Value: c.info.Model.DisplayName()})
	}
	if c.info.SerialNumber != "" {
		ps = append(ps, ui.Param{Key: "Serial", Value: c.info.SerialNumber})
	}
	if c.info.FirmwareVersion != "" {
		ps = append(ps, ui.Param{Key: "Firmware", Value: c.info.FirmwareVersion})
	}
	return ps
}

// deviceOp is the work a command does once connected.
type deviceOp func(ctx context.Context, c *client) ([]ui.Param, error)

// runOnDevice connects, runs op and prints the outcome. With --json the
// styled output is replaced by the final snapshot.
func runOnDevice(cmd *cobra.Command, title string, op deviceOp) error {
	return withDevice(cmd, title, op, printSnapshotJSON)
}

func printSnapshotJSON(ctx context.Context, cmd *cobra.Command, c *client) error {
	if !jsonOutput {
		return nil
	}
	snap, err := c.session.Snapshot(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd, snap)
}

// withDevice is runOnDevice with a custom step after the result box, which
// still has the connection open.
func withDevice(cmd *cobra.Command, title string, op deviceOp, after func(context.Context, *cobra.Command, *client) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := openClient()
	if err != nil {
		return err
	}
	defer c.Close()

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:           title,
		Command:         commandLine(cmd),
		Steps:           append(append([]string(nil), connectSteps...), title),
		Troubleshooting: connectTroubleshooting,
		TipsFor:         tipsFor,
		Quiet:           jsonOutput,
		Output:          cmd.OutOrStdout(),
	})

	err = runner.Run(func(onStep ui.StepCallback) ([]ui.Param, error) {
		connectCtx, cancel := context.WithTimeout(ctx, timeout+registry.Preferences.HandshakeTimeout)
		defer cancel()
		if err := c.connect(connectCtx, onStep); err != nil {
			return nil, err
		}

		step := len(connectSteps) + 1
		onStep(step, ui.StepRunning, "")
		if op == nil {
			onStep(step, ui.StepComplete, "")
			return c.deviceParams(), nil
		}
		details, err := op(ctx, c)
		if err != nil {
			onStep(step, ui.StepFailed, "")
			return nil, err
		}
		onStep(step, ui.StepComplete, "")
		return append(c.deviceParams(), details...), nil
	})
	if err != nil || after == nil {
		return err
	}
	return after(ctx, cmd, c)
}

func commandLine(cmd *cobra.Command) string {
	return strings.TrimSpace(cmd.CommandPath() + " " + strings.Join(cmd.Flags().Args(), " "))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
