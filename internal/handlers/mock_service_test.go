package handlers

import (
	"context"
	"net/http"
	"sync"

	"mixergy_bridge/internal/models"
	"mixergy_bridge/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	genTokenToken string
	genTokenErr   error
	parseSubject  string
	parseErr      error

	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseSubject, m.parseErr
}

type mockControl struct {
	err error

	lastCharge   service.ChargeParams
	lastTemp     service.TemperatureParams
	lastSettings service.SettingsParams
	lastHoliday  service.HolidayParams
	lastSchedule map[string]any
	calls        []string
}

func (m *mockControl) SetCharge(_ context.Context, p service.ChargeParams) error {
	m.calls = append(m.calls, "SetCharge")
	m.lastCharge = p
	return m.err
}
func (m *mockControl) SetTargetTemperature(_ context.Context, p service.TemperatureParams) error {
	m.calls = append(m.calls, "SetTargetTemperature")
	m.lastTemp = p
	return m.err
}
func (m *mockControl) UpdateSettings(_ context.Context, p service.SettingsParams) error {
	m.calls = append(m.calls, "UpdateSettings")
	m.lastSettings = p
	return m.err
}
func (m *mockControl) SetHolidayDates(_ context.Context, p service.HolidayParams) error {
	m.calls = append(m.calls, "SetHolidayDates")
	m.lastHoliday = p
	return m.err
}
func (m *mockControl) ClearHolidayDates(context.Context) error {
	m.calls = append(m.calls, "ClearHolidayDates")
	return m.err
}
func (m *mockControl) SetSchedule(_ context.Context, doc map[string]any) error {
	m.calls = append(m.calls, "SetSchedule")
	m.lastSchedule = doc
	return m.err
}

type mockMonitoring struct {
	mu        sync.Mutex
	state     models.TankSnapshot
	err       error
	refreshes int
}

func (m *mockMonitoring) GetState(context.Context) (models.TankSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.err
}

func (m *mockMonitoring) Refresh(ctx context.Context) (models.TankSnapshot, error) {
	m.mu.Lock()
	m.refreshes++
	m.mu.Unlock()
	return m.GetState(ctx)
}

func (m *mockMonitoring) setCharge(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.State.Charge = v
}

// mockNotifier hands its callbacks to the test so it can fire them.
type mockNotifier struct {
	mu  sync.Mutex
	fns map[int]func()
	seq int
}

func (n *mockNotifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fns == nil {
		n.fns = make(map[int]func())
	}
	n.seq++
	id := n.seq
	n.fns[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.fns, id)
	}
}

func (n *mockNotifier) fire() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.fns))
	for _, fn := range n.fns {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (n *mockNotifier) subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.fns)
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	h := NewHandler(s, nil, opts...)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
