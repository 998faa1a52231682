package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"mixergy_bridge/internal/bus"
	"mixergy_bridge/internal/models"
	"mixergy_bridge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", defaultInterval},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20m", defaultInterval},
		{"interval_ms_too_large", "/ws?interval_ms=900000", defaultInterval},
		{"interval_invalid_string", "/ws?interval=bogus", defaultInterval},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", defaultInterval},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialWS(t *testing.T, h *Handler, query string) *websocket.Conn {
	t.Helper()
	r := gin.New()
	r.GET("/ws", h.wsConnect)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func readSnapshot(t *testing.T, conn *websocket.Conn) models.TankSnapshot {
	t.Helper()
	env := readEnvelope(t, conn)
	if env.Type != "state" || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var snap models.TankSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	return snap
}

func TestWebSocket_StateStream_InitialAndPeriodic(t *testing.T) {
	mon := &mockMonitoring{state: models.TankSnapshot{
		Info:  models.TankInfo{SerialNumber: "MX1"},
		State: models.TankState{Charge: 70, HotWaterTemperature: 55},
	}}
	h := NewHandler(&service.Service{Monitoring: mon}, nil)
	conn := dialWS(t, h, "interval_ms=20")

	snap := readSnapshot(t, conn)
	if snap.State.Charge != 70 || snap.Info.SerialNumber != "MX1" {
		t.Fatalf("unexpected state: %+v", snap)
	}

	// next periodic resend
	if env := readEnvelope(t, conn); env.Type != "state" {
		t.Fatalf("expected type=state, got %+v", env)
	}
}

func TestWebSocket_PushesOnUpdate(t *testing.T) {
	mon := &mockMonitoring{state: models.TankSnapshot{State: models.TankState{Charge: 10}}}
	n := &mockNotifier{}
	h := NewHandler(&service.Service{Monitoring: mon}, nil, WithUpdates(n))
	conn := dialWS(t, h, "interval=5m")

	if snap := readSnapshot(t, conn); snap.State.Charge != 10 {
		t.Fatalf("initial charge %v", snap.State.Charge)
	}

	mon.setCharge(35)
	n.fire()
	if snap := readSnapshot(t, conn); snap.State.Charge != 35 {
		t.Fatalf("charge after update %v", snap.State.Charge)
	}

	_ = conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for n.subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("observer not removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_ForwardsEvents(t *testing.T) {
	b := bus.New(nil)
	mon := &mockMonitoring{}
	h := NewHandler(&service.Service{Monitoring: mon}, nil, WithEvents(b))
	conn := dialWS(t, h, "interval=5m")

	readSnapshot(t, conn)

	// the subscription is made before the initial state is written
	_ = b.Publish(context.Background(), models.TankEvent{Type: models.EventChargeChange, DeviceID: "mx1"})

	env := readEnvelope(t, conn)
	if env.Type != "event" {
		t.Fatalf("expected event, got %+v", env)
	}
	var e models.TankEvent
	if err := json.Unmarshal(env.Data, &e); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if e.Type != models.EventChargeChange || e.DeviceID != "mx1" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestWebSocket_InitialGetStateError_Closes(t *testing.T) {
	mon := &mockMonitoring{err: errors.New("boom")}
	h := NewHandler(&service.Service{Monitoring: mon}, nil)
	conn := dialWS(t, h, "")

	// The server should close immediately after failing initial GetState/WriteJSON
	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected read error (closed), got message: %s", string(raw))
	}
}
