package tank

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mixergy_bridge/internal/logger"
	"mixergy_bridge/internal/models"
)

// ---- Test doubles ----

const (
	testSerial = "MX000123"
	testUUID   = "5d4c1f2a-9a31-4c7e-8f55-0b1d2c3e4f50"
)

type recordedPut struct {
	Path string
	Body map[string]any
}

// fakeAPI imitates the hypermedia API a tank is discovered through.
type fakeAPI struct {
	t   *testing.T
	srv *httptest.Server

	mu           sync.Mutex
	token        string
	loginStatus  int
	putStatus    int
	pvType       string
	serials      []string
	measurement  string
	measureCode  int
	settings     string
	schedule     string
	scheduleCode int
	calls        map[string]int
	puts         []recordedPut
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		t:            t,
		token:        "test-token",
		loginStatus:  http.StatusCreated,
		putStatus:    http.StatusOK,
		pvType:       "SOLAR_DIVERTER",
		serials:      []string{"MX000001", testSerial},
		measurement:  measurementJSON(42, `{"current":{"target":80,"heat_source":"Indirect","immersion":"Off"}}`),
		measureCode:  http.StatusOK,
		settings:     `{"max_temp":60,"dsr_enabled":true,"frost_protection_enabled":false,"distributed_computing_enabled":true,"cleansing_temperature":53,"divert_exported_enabled":true,"pv_charge_limit":90,"pv_cut_in_threshold":100,"pv_target_current":-0.5,"pv_over_temperature":50}`,
		schedule:     `{"dhw":{"enabled":true},"version":7}`,
		scheduleCode: http.StatusOK,
		calls:        make(map[string]int),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func measurementJSON(charge float64, state string) string {
	b, _ := json.Marshal(map[string]any{
		"topTemperature":    55.5,
		"bottomTemperature": 18.25,
		"charge":            charge,
		"pvEnergy":          120000,
		"clampPower":        350,
		"state":             state,
	})
	return string(b)
}

func (f *fakeAPI) rootURL() string { return f.srv.URL + "/api/v2" }

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

func (f *fakeAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeAPI) lastPut() recordedPut {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.puts) == 0 {
		f.t.Fatalf("no PUT recorded")
	}
	return f.puts[len(f.puts)-1]
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[r.Method+" "+r.URL.Path]++
	base := f.srv.URL + "/api/v2"

	authorized := r.Header.Get("Authorization") == "Bearer "+f.token
	writeJSON := func(code int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(v)
	}
	writeText := func(code int, s string) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, s)
	}
	href := func(p string) map[string]string { return map[string]string{"href": base + p} }

	switch r.Method + " " + r.URL.Path {
	case "GET /api/v2":
		writeJSON(http.StatusOK, map[string]any{"_links": map[string]any{
			"account": href("/account"),
			"tanks":   href("/tanks"),
		}})
		return
	case "GET /api/v2/account":
		writeJSON(http.StatusOK, map[string]any{"_links": map[string]any{"login": href("/account/login")}})
		return
	case "POST /api/v2/account/login":
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "user@example.com" || req.Password != "secret" {
			writeJSON(http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
			return
		}
		writeJSON(f.loginStatus, loginResponse{Token: f.token})
		return
	}

	if !authorized {
		writeJSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	switch r.Method + " " + r.URL.Path {
	case "GET /api/v2/tanks":
		list := make([]map[string]any, 0, len(f.serials))
		for i, s := range f.serials {
			list = append(list, map[string]any{
				"serialNumber":    s,
				"firmwareVersion": "3.1.4",
				"tankModelCode":   "MX-250",
				"_links":          map[string]any{"self": href("/tanks/" + string(rune('a'+i)))},
			})
		}
		writeJSON(http.StatusOK, map[string]any{"_embedded": map[string]any{"tankList": list}})
	case "GET /api/v2/tanks/a", "GET /api/v2/tanks/b":
		cfg := "{}"
		if f.pvType != "" {
			cfg = `{"mixergyPvType":"` + f.pvType + `"}`
		}
		writeJSON(http.StatusOK, map[string]any{
			"id":              testUUID,
			"tankModelCode":   "MX-250",
			"firmwareVersion": "3.1.4",
			"configuration":   cfg,
			"_links": map[string]any{
				"latest_measurement": href("/tank/measurement"),
				"control":            href("/tank/control"),
				"settings":           href("/tank/settings"),
				"schedule":           href("/tank/schedule"),
			},
		})
	case "GET /api/v2/tank/measurement":
		writeText(f.measureCode, f.measurement)
	case "GET /api/v2/tank/settings":
		writeText(http.StatusOK, f.settings)
	case "GET /api/v2/tank/schedule":
		writeText(f.scheduleCode, f.schedule)
	case "PUT /api/v2/tank/control", "PUT /api/v2/tank/settings", "PUT /api/v2/tank/schedule":
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		f.puts = append(f.puts, recordedPut{Path: r.URL.Path, Body: body})
		if f.putStatus == http.StatusOK && r.URL.Path == "/api/v2/tank/schedule" {
			f.schedule = string(raw)
		}
		writeText(f.putStatus, "")
	default:
		writeJSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

// recordingSink collects published tank events.
type recordingSink struct {
	mu     sync.Mutex
	events []models.TankEvent
}

func (s *recordingSink) Publish(_ context.Context, e models.TankEvent) error {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) all() []models.TankEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TankEvent, len(s.events))
	copy(out, s.events)
	return out
}

// fakeTimers replaces time.AfterFunc so reconnects can be observed and
// fired by hand.
type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (ft *fakeTimers) afterFunc(d time.Duration, fn func()) func() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	tm := &fakeTimer{delay: d, fn: fn}
	ft.timers = append(ft.timers, tm)
	return func() bool {
		ft.mu.Lock()
		defer ft.mu.Unlock()
		was := !tm.stopped
		tm.stopped = true
		return was
	}
}

func (ft *fakeTimers) snapshot() []fakeTimer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	out := make([]fakeTimer, len(ft.timers))
	for i, tm := range ft.timers {
		out[i] = *tm
	}
	return out
}

func newTestClient(t *testing.T, api *fakeAPI, sink EventSink) *Client {
	t.Helper()
	if sink == nil {
		sink = &recordingSink{}
	}
	return NewClient(Config{
		Username:     "user@example.com",
		Password:     "secret",
		SerialNumber: "mx000123",
		RootURL:      api.rootURL(),
		RetryDelay:   time.Second,
		Logger:       logger.Nop(),
		Events:       sink,
	})
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	s, err := tok.SignedString([]byte("upstream-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
