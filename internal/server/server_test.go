package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/muurk/earctl/internal/protocol"
	"github.com/muurk/earctl/internal/session"
)

type mockController struct {
	mock.Mock
	events chan session.Event
}

func newMockController() *mockController {
	return &mockController{events: make(chan session.Event, 8)}
}

func (m *mockController) Events() <-chan session.Event { return m.events }

func (m *mockController) Snapshot(ctx context.Context) (session.Snapshot, error) {
	ret := m.Called()
	return ret.Get(0).(session.Snapshot), ret.Error(1)
}

func (m *mockController) Refresh(ctx context.Context) error       { return m.Called().Error(0) }
func (m *mockController) StartScanning(ctx context.Context) error { return m.Called().Error(0) }
func (m *mockController) StopScanning(ctx context.Context) error  { return m.Called().Error(0) }
func (m *mockController) Disconnect(ctx context.Context) error    { return m.Called().Error(0) }

func (m *mockController) Connect(ctx context.Context, p session.Peripheral) error {
	return m.Called(p).Error(0)
}

func (m *mockController) SetNoiseControl(ctx context.Context, mode protocol.NoiseControlMode) error {
	return m.Called(mode).Error(0)
}

func (m *mockController) SetEnhancedBass(ctx context.Context, bass protocol.EnhancedBass) error {
	return m.Called(bass).Error(0)
}

func (m *mockController) SetEQPreset(ctx context.Context, preset protocol.EQPreset) error {
	return m.Called(preset).Error(0)
}

func (m *mockController) SetCustomEQ(ctx context.Context, eq protocol.CustomEQ) error {
	return m.Called(eq).Error(0)
}

func (m *mockController) SetInEarDetection(ctx context.Context, enabled bool) error {
	return m.Called("in-ear", enabled).Error(0)
}

func (m *mockController) SetLowLatency(ctx context.Context, enabled bool) error {
	return m.Called("low-latency", enabled).Error(0)
}

func (m *mockController) SetPersonalizedANC(ctx context.Context, enabled bool) error {
	return m.Called("personalized-anc", enabled).Error(0)
}

func (m *mockController) SetSpatialAudio(ctx context.Context, mode protocol.SpatialAudioMode) error {
	return m.Called(mode).Error(0)
}

func (m *mockController) SetGesture(ctx context.Context, g protocol.Gesture) error {
	return m.Called(g).Error(0)
}

func (m *mockController) SetRingBuds(ctx context.Context, ring protocol.RingState) error {
	return m.Called(ring).Error(0)
}

func newTestServer(t *testing.T, ctl Controller) *Server {
	t.Helper()
	s, err := New(&Config{Host: "127.0.0.1", Port: 0, Version: "1.2.3"}, ctl)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetVersion(t *testing.T) {
	s := newTestServer(t, newMockController())
	rec := do(t, s, http.MethodGet, "/api/version", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"version":"1.2.3"}`, rec.Body.String())
}

func TestGetStatus(t *testing.T) {
	ctl := newMockController()
	mode := protocol.NoiseControlAdaptive
	ctl.On("Snapshot").Return(session.Snapshot{State: session.StateConnected, NoiseControl: &mode}, nil)

	s := newTestServer(t, ctl)
	rec := do(t, s, http.MethodGet, "/api/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "connected", body["state"])
	assert.Equal(t, "adaptive", body["noise_control"])
}

func TestSetters(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		call   string
		args   []any
	}{
		{"anc", http.MethodPut, "/api/anc", `{"mode":"adaptive"}`, "SetNoiseControl", []any{protocol.NoiseControlAdaptive}},
		{"eq", http.MethodPut, "/api/eq", `{"preset":"voice"}`, "SetEQPreset", []any{protocol.EQVoice}},
		{"custom eq", http.MethodPut, "/api/custom-eq", `{"bass":2,"mid":0,"treble":-1}`, "SetCustomEQ",
			[]any{protocol.CustomEQ{Bass: 2, Mid: 0, Treble: -1}}},
		{"bass", http.MethodPut, "/api/bass", `{"enabled":true,"level":3}`, "SetEnhancedBass",
			[]any{protocol.EnhancedBass{Enabled: true, Level: 3}}},
		{"in-ear", http.MethodPut, "/api/settings/in-ear", `{"enabled":false}`, "SetInEarDetection", []any{"in-ear", false}},
		{"low latency", http.MethodPut, "/api/settings/low-latency", `{"enabled":true}`, "SetLowLatency", []any{"low-latency", true}},
		{"personalized anc", http.MethodPut, "/api/settings/personalized-anc", `{"enabled":true}`, "SetPersonalizedANC",
			[]any{"personalized-anc", true}},
		{"spatial", http.MethodPut, "/api/spatial", `{"mode":"head-tracking"}`, "SetSpatialAudio", []any{protocol.SpatialHeadTracking}},
		{"gesture", http.MethodPut, "/api/gesture", `{"device":"left","type":"double-tap","action":"next-track"}`, "SetGesture",
			[]any{protocol.Gesture{Device: protocol.GestureDeviceLeft, Type: protocol.GestureDoubleTap, Action: protocol.ActionNextTrack}}},
		{"ring", http.MethodPost, "/api/ring", `{"bud":"left","on":true}`, "SetRingBuds",
			[]any{protocol.RingState{Bud: protocol.BudLeft, On: true}}},
		{"connect", http.MethodPost, "/api/connect", `{"id":"AA:BB"}`, "Connect", []any{session.Peripheral{ID: "AA:BB"}}},
		{"disconnect", http.MethodPost, "/api/disconnect", "", "Disconnect", nil},
		{"refresh", http.MethodPost, "/api/refresh", "", "Refresh", nil},
		{"start scan", http.MethodPost, "/api/scan", "", "StartScanning", nil},
		{"stop scan", http.MethodDelete, "/api/scan", "", "StopScanning", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := newMockController()
			ctl.On(tt.call, tt.args...).Return(nil).Once()

			s := newTestServer(t, ctl)
			rec := do(t, s, tt.method, tt.path, tt.body)

			assert.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
			assert.JSONEq(t, `{"status":"accepted"}`, rec.Body.String())
			ctl.AssertExpectations(t)
		})
	}
}

func TestBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown mode", http.MethodPut, "/api/anc", `{"mode":"loud"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPut, "/api/eq", `{"preset":"voice","extra":1}`, http.StatusBadRequest},
		{"not json", http.MethodPut, "/api/bass", `enabled`, http.StatusBadRequest},
		{"missing enabled", http.MethodPut, "/api/settings/in-ear", `{}`, http.StatusBadRequest},
		{"unknown setting", http.MethodPut, "/api/settings/volume", `{"enabled":true}`, http.StatusNotFound},
		{"connect without id", http.MethodPost, "/api/connect", `{"name":"Ear"}`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/api/anc", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := newMockController()
			s := newTestServer(t, ctl)
			rec := do(t, s, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.want, rec.Code)
			ctl.AssertNotCalled(t, "SetNoiseControl", mock.Anything)
		})
	}
}

func TestSessionErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     int
		wantKind string
	}{
		{"unsupported", session.ErrUnsupportedOperation, http.StatusUnprocessableEntity, "Operation not supported by this device model"},
		{"not connected", session.ErrConnectionFailed, http.StatusConflict, "Failed to connect to device"},
		{"timeout", session.ErrTimeout, http.StatusGatewayTimeout, "Operation timed out"},
		{"radio off", session.ErrRadioPoweredOff, http.StatusServiceUnavailable, "Bluetooth is powered off"},
		{"invalid response", session.ErrInvalidResponse, http.StatusBadGateway, "Received invalid response from device"},
		{"closed", session.ErrClosed, http.StatusServiceUnavailable, ""},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := newMockController()
			ctl.On("SetLowLatency", "low-latency", true).Return(tt.err)

			s := newTestServer(t, ctl)
			rec := do(t, s, http.MethodPut, "/api/settings/low-latency", `{"enabled":true}`)

			assert.Equal(t, tt.want, rec.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body.Error)
			assert.Equal(t, tt.wantKind, body.Kind)
		})
	}
}

func TestEventStream(t *testing.T) {
	ctl := newMockController()
	ctl.On("Snapshot").Return(session.Snapshot{State: session.StateDisconnected}, nil)

	s := newTestServer(t, ctl)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	seen := make(chan session.Event, 1)
	s.OnEvent = func(ev session.Event) { seen <- ev }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.pumpEvents(ctx)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first struct {
		Type string `json:"type"`
		Data struct {
			State string `json:"state"`
		} `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "snapshot", first.Type)
	assert.Equal(t, "disconnected", first.Data.State)

	require.Eventually(t, func() bool { return s.GetActiveConnections() == 1 }, time.Second, 5*time.Millisecond)

	ctl.events <- session.NoiseControlEvent{Mode: protocol.NoiseControlHigh}

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"noise_control","data":{"mode":"high"}}`, string(data))

	select {
	case ev := <-seen:
		assert.Equal(t, "noise_control", ev.EventName())
	case <-time.After(time.Second):
		t.Fatal("OnEvent not called")
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	h := newHub()
	fast := &client{send: make(chan []byte, 2)}
	slow := &client{send: make(chan []byte)}
	h.add(fast)
	h.add(slow)

	h.broadcast([]byte("x"))

	assert.Equal(t, 1, h.count())
	assert.Equal(t, []byte("x"), <-fast.send)
	_, open := <-slow.send
	assert.False(t, open)

	h.closeAll()
	assert.Zero(t, h.count())
}

func TestNewRejectsPartialTLS(t *testing.T) {
	_, err := New(&Config{CertPath: "cert.pem"}, newMockController())
	assert.Error(t, err)
}

func TestConfigAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8787", (&Config{Host: "127.0.0.1", Port: 8787}).Addr())
	assert.Equal(t, "[::1]:80", (&Config{Host: "::1", Port: 80}).Addr())
}
