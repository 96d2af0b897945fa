package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/muurk/earctl/internal/logging"
	"github.com/muurk/earctl/internal/protocol"
	"github.com/muurk/earctl/internal/session"
)

// Controller is the part of a session the bridge drives. *session.Session
// satisfies it.
type Controller interface {
	Events() <-chan session.Event
	Snapshot(ctx context.Context) (session.Snapshot, error)
	Refresh(ctx context.Context) error
	StartScanning(ctx context.Context) error
	StopScanning(ctx context.Context) error
	Connect(ctx context.Context, p session.Peripheral) error
	Disconnect(ctx context.Context) error
	SetNoiseControl(ctx context.Context, mode protocol.NoiseControlMode) error
	SetEnhancedBass(ctx context.Context, bass protocol.EnhancedBass) error
	SetEQPreset(ctx context.Context, preset protocol.EQPreset) error
	SetCustomEQ(ctx context.Context, eq protocol.CustomEQ) error
	SetInEarDetection(ctx context.Context, enabled bool) error
	SetLowLatency(ctx context.Context, enabled bool) error
	SetPersonalizedANC(ctx context.Context, enabled bool) error
	SetSpatialAudio(ctx context.Context, mode protocol.SpatialAudioMode) error
	SetGesture(ctx context.Context, g protocol.Gesture) error
	SetRingBuds(ctx context.Context, ring protocol.RingState) error
}

var _ Controller = (*session.Session)(nil)

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	CertPath string // Serve HTTPS when both CertPath and KeyPath are set
	KeyPath  string
	Version  string // Reported by /api/version
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// Server bridges one session to HTTP and websocket clients.
type Server struct {
	config    *Config
	ctl       Controller
	hub       *hub
	router    *mux.Router
	http      *http.Server
	tlsConfig *tls.Config
	listener  net.Listener
	log       *zap.Logger

	// OnEvent, when set, sees every session event after it is broadcast.
	OnEvent func(session.Event)
}

// New creates a Server for ctl.
func New(config *Config, ctl Controller) (*Server, error) {
	var tlsConfig *tls.Config
	if config.CertPath != "" || config.KeyPath != "" {
		var err error
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	s := &Server{
		config:    config,
		ctl:       ctl,
		hub:       newHub(),
		tlsConfig: tlsConfig,
		log:       logging.Named("server"),
	}
	s.router = s.routes()
	s.http = &http.Server{
		Handler:           s.router,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the configured address. Port 0 picks a free port; see Port.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
	}
	s.listener = ln
	return nil
}

// Port is the bound port after Listen.
func (s *Server) Port() int {
	if s.listener == nil {
		return s.config.Port
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return s.config.Port
}

// Serve pumps session events to websocket clients and serves HTTP until ctx
// is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	scheme := "http"
	if s.tlsConfig != nil {
		scheme = "https"
	}
	s.log.Info("Bridge listening",
		zap.String("addr", s.listener.Addr().String()),
		zap.String("scheme", scheme),
	)

	go s.pumpEvents(ctx)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.http.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Start serves until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

func (s *Server) pumpEvents(ctx context.Context) {
	events := s.ctl.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				s.log.Info("Session event stream closed")
				return
			}
			data, err := session.MarshalEvent(ev)
			if err != nil {
				s.log.Error("Failed to encode event", zap.String("event", ev.EventName()), zap.Error(err))
				continue
			}
			s.hub.broadcast(data)
			if s.OnEvent != nil {
				s.OnEvent(ev)
			}
		}
	}
}

// Shutdown closes websocket clients and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down bridge")
	s.hub.closeAll()
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Warn("Shutdown timeout, forcing close", zap.Error(err))
		return s.http.Close()
	}
	logging.Sync()
	return nil
}

// GetActiveConnections returns the number of websocket clients.
func (s *Server) GetActiveConnections() int {
	return s.hub.count()
}
