package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/muurk/earctl/internal/logging"
	"github.com/muurk/earctl/internal/protocol"
	"github.com/muurk/earctl/internal/session"
)

const requestTimeout = 5 * time.Second

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", s.getVersion).Methods("GET")
	api.HandleFunc("/status", s.getStatus).Methods("GET")
	api.HandleFunc("/refresh", s.postRefresh).Methods("POST")
	api.HandleFunc("/scan", s.postScan).Methods("POST")
	api.HandleFunc("/scan", s.deleteScan).Methods("DELETE")
	api.HandleFunc("/connect", s.postConnect).Methods("POST")
	api.HandleFunc("/disconnect", s.postDisconnect).Methods("POST")
	api.HandleFunc("/anc", s.putNoiseControl).Methods("PUT")
	api.HandleFunc("/eq", s.putEQ).Methods("PUT")
	api.HandleFunc("/custom-eq", s.putCustomEQ).Methods("PUT")
	api.HandleFunc("/bass", s.putEnhancedBass).Methods("PUT")
	api.HandleFunc("/settings/{name}", s.putSetting).Methods("PUT")
	api.HandleFunc("/spatial", s.putSpatial).Methods("PUT")
	api.HandleFunc("/gesture", s.putGesture).Methods("PUT")
	api.HandleFunc("/ring", s.postRing).Methods("POST")
	api.HandleFunc("/events", s.serveEvents).Methods("GET")
	return router
}

// statusRecorder remembers the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrade through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	_ = e.Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusFor maps session failures onto HTTP status codes.
func statusFor(err error) int {
	var serr *session.Error
	if !errors.As(err, &serr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		if errors.Is(err, session.ErrClosed) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}
	switch serr.Kind {
	case session.KindUnsupportedOperation:
		return http.StatusUnprocessableEntity
	case session.KindConnectionFailed, session.KindDeviceNotFound:
		return http.StatusConflict
	case session.KindTimeout:
		return http.StatusGatewayTimeout
	case session.KindRadioPoweredOff, session.KindRadioUnauthorized, session.KindRadioUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	var serr *session.Error
	if errors.As(err, &serr) {
		body.Kind = serr.Kind.String()
	}
	writeJSON(w, statusFor(err), body)
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// apply runs one session call with the request deadline and answers 202
// Accepted: the new value arrives as an event once the device confirms it.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.log.Debug("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.config.Version})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	snap, err := s.ctl.Snapshot(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) postRefresh(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, s.ctl.Refresh)
}

func (s *Server) postScan(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, s.ctl.StartScanning)
}

func (s *Server) deleteScan(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, s.ctl.StopScanning)
}

func (s *Server) postConnect(w http.ResponseWriter, r *http.Request) {
	var p session.Peripheral
	if err := decode(r, &p); err != nil {
		badRequest(w, err)
		return
	}
	if p.ID == "" {
		badRequest(w, errors.New("id is required"))
		return
	}
	s.apply(w, r, func(ctx context.Context) error { return s.ctl.Connect(ctx, p) })
}

func (s *Server) postDisconnect(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, s.ctl.Disconnect)
}

func (s *Server) putNoiseControl(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode protocol.NoiseControlMode `json:"mode"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	s.apply(w, r, func(ctx context.Context) error { return s.ctl.SetNoiseControl(ctx, body.Mode) })
}

func (s *Server) putEQ(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Preset protocol.EQPreset `json:"preset"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	s.apply(w, r, func(ctx context.Context) error { return s.ctl.SetEQPreset(ctx, body.Preset) })
}

func (s *Server) putCustomEQ(w http.ResponseWriter, r *http.Request) {
	var eq protocol.CustomEQ
	if err := decode(r, &eq); err != nil {
		badRequest(w, err)
		return
	}
	s.apply(w, r, func(ctx context.Context) error { return s.ctl.SetCustomEQ(ctx, eq) })
}

func (s *Server) putEnhancedBass(w http.ResponseWriter, r *http.Request) {
	var bass protocol.EnhancedBass
	if err := decode(r, &bass); err != nil {
		badRequest(w, err)
		return
	}
	s.apply(w, r, func(ctx context.Context) error { return s.ctl.SetEnhancedBass(ctx, bass) })
}

func (s *Server) putSetting(w http.ResponseWriter, r *http.Request) {
	var set func(context.Context, bool) error
	switch name := mux.Vars(r)["name"]; name {
	case "in-ear":
		set = s.ctl.SetInEarDetection
	case "low-latency":
		set = s.ctl.SetLowLatency
	case "personalized-anc":
		set = s.ctl.SetPersonalizedANC
	default:
		writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("no such setting %q", name)})
		return
	}

	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	if body.Enabled == nil {
		badRequest(w, errors.New("enabled is required"))
		return
	}
	s.apply(w, r, func(ctx context.Context) error { return set(ctx, *body.Enabled) })
}

func (s *Server) putSpatial(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode protocol.SpatialAudioMode `json:"mode"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	s.apply(w, r, func(ctx context.Context) error { return s.ctl.SetSpatialAudio(ctx, body.Mode) })
}

func (s *Server) putGesture(w http.ResponseWriter, r *http.Request) {
	var g protocol.Gesture
	if err := decode(r, &g); err != nil {
		badRequest(w, err)
		return
	}
	s.apply(w, r, func(ctx context.Context) error { return s.ctl.SetGesture(ctx, g) })
}

func (s *Server) postRing(w http.ResponseWriter, r *http.Request) {
	var ring protocol.RingState
	if err := decode(r, &ring); err != nil {
		badRequest(w, err)
		return
	}
	s.apply(w, r, func(ctx context.Context) error { return s.ctl.SetRingBuds(ctx, ring) })
}
