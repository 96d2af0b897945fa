package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/earctl/internal/logging"
	"github.com/muurk/earctl/internal/protocol"
)

// Defaults
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultStagger          = 100 * time.Millisecond

	eventBufferSize = 128
	maxOperationID  = 250
)

// Option configures a Session.
type Option func(*Session)

// WithHandshakeTimeout sets how long the serial and firmware reads may take.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(s *Session) { s.handshakeTimeout = d }
}

// WithStagger sets the delay between consecutive status reads.
func WithStagger(d time.Duration) Option {
	return func(s *Session) { s.stagger = d }
}

// WithLogger replaces the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Session owns one logical connection. See the package documentation.
type Session struct {
	transport        Transport
	handshakeTimeout time.Duration
	stagger          time.Duration
	log              *zap.Logger

	cmds   chan func()
	events chan Event
	done   chan struct{}

	// Everything below is touched only by the Run goroutine.
	state      State
	peripheral *Peripheral
	channels   *channelPair
	writeMode  WriteMode
	generation uint64 // bumped on every teardown so stale timers can tell
	opID       uint8

	serialReceived   bool
	firmwareReceived bool
	connectEmitted   bool
	handshakeTimer   *time.Timer

	snapshot Snapshot
}

// New creates a session over t. Call Run to start it.
func New(t Transport, opts ...Option) *Session {
	s := &Session{
		transport:        t,
		handshakeTimeout: DefaultHandshakeTimeout,
		stagger:          DefaultStagger,
		log:              logging.Named("session"),
		cmds:             make(chan func()),
		events:           make(chan Event, eventBufferSize),
		done:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the event stream. It is closed when Run returns.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Run processes transport events, timers and caller requests until ctx is
// cancelled. A live connection is cancelled on the way out.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.events)
	defer close(s.done)

	transportEvents := s.transport.Events()
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case fn := <-s.cmds:
			fn()
		case ev, ok := <-transportEvents:
			if !ok {
				s.log.Warn("Transport event stream closed")
				s.shutdown()
				return nil
			}
			s.handleTransportEvent(ev)
		}
	}
}

func (s *Session) shutdown() {
	s.stopHandshakeTimer()
	if s.state == StateScanning {
		_ = s.transport.StopScan()
	}
	if s.peripheral != nil {
		if err := s.transport.CancelConnect(*s.peripheral); err != nil {
			s.log.Warn("Cancel connection on shutdown failed", zap.Error(err))
		}
	}
}

// call runs fn on the session goroutine and waits for its result.
func (s *Session) call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	select {
	case s.cmds <- func() { result <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// post schedules fn on the session goroutine without waiting.
func (s *Session) post(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.done:
	}
}

// after runs fn on the session goroutine once d has elapsed.
func (s *Session) after(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { s.post(fn) })
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.log.Warn("Event buffer full, dropping event", zap.String("event", ev.EventName()))
	}
}

func (s *Session) emitError(err *Error) {
	s.log.Warn("Session error", zap.Stringer("kind", err.Kind), zap.Error(err))
	s.emit(ErrorEvent{Err: err})
}

func (s *Session) setState(state State) {
	if s.state == state {
		return
	}
	s.log.Debug("State change", zap.Stringer("from", s.state), zap.Stringer("to", state))
	s.state = state
	s.snapshot.State = state
	s.emit(StateChangedEvent{State: state})
}

// nextOperationID returns 1, 2, ... 250, 1, ...
func (s *Session) nextOperationID() uint8 {
	if s.opID >= maxOperationID {
		s.opID = 0
	}
	s.opID++
	return s.opID
}

// isConnected requires both the session state and the transport link.
func (s *Session) isConnected() bool {
	return s.state == StateConnected && s.peripheral != nil && s.transport.IsConnected(*s.peripheral)
}

// send frames and writes a request on the selected write characteristic.
func (s *Session) send(req protocol.Request) error {
	if s.peripheral == nil || s.channels == nil {
		err := newError(KindConnectionFailed, "no write channel", nil)
		s.emitError(err)
		return err
	}

	frame, err := req.Encode()
	if err != nil {
		return err
	}
	logging.LogFrame(logging.DirectionOutgoing, frame)
	s.log.Debug("Sending request", zap.Stringer("request", req))

	if err := s.transport.Write(*s.peripheral, s.channels.write, frame, s.writeMode); err != nil {
		werr := newError(KindConnectionFailed, "write "+protocol.CommandName(req.Command), err)
		s.emitError(werr)
		return werr
	}
	return nil
}

func (s *Session) sendRead(cmd protocol.Command) error {
	return s.send(protocol.ReadRequest(cmd, s.nextOperationID()))
}

// schedule issues the reads one stagger apart, in order. Each read checks
// the connection is still the same one before sending; the rest are dropped
// once it is gone.
func (s *Session) schedule(cmds []protocol.Command) {
	if len(cmds) == 0 {
		return
	}
	gen := s.generation
	s.after(s.stagger, func() {
		if s.generation != gen || !s.isConnected() {
			return
		}
		_ = s.sendRead(cmds[0])
		s.schedule(cmds[1:])
	})
}
