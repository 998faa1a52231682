package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"mixergy_bridge/internal/models"
)

// gaugeValue finds the sample of family name whose labels match want.
func gaugeValue(t *testing.T, r *Recorder, name string, want map[string]string) (float64, bool) {
	t.Helper()
	families, err := r.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, want) {
				if g := m.GetGauge(); g != nil {
					return g.GetValue(), true
				}
				return m.GetCounter().GetValue(), true
			}
		}
	}
	return 0, false
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	got := map[string]string{}
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

type stubSource struct{ st models.TankState }

func (stubSource) ID() string { return "mx1" }
func (s stubSource) State() models.TankState { return s.st }

func TestObserver_ExportsTankState(t *testing.T) {
	r := New()
	st := models.NewTankState()
	st.HotWaterTemperature = 55
	st.Charge = 64
	st.ElectricHeatSource = true
	st.UpdatedAt = time.Unix(1_700_000_000, 0)

	r.Observer(stubSource{st: st}).TankUpdated()

	if v, ok := gaugeValue(t, r, "mixergy_charge_percent", map[string]string{"tank": "mx1"}); !ok || v != 64 {
		t.Fatalf("charge = %v,%v", v, ok)
	}
	if v, _ := gaugeValue(t, r, "mixergy_water_temperature_celsius", map[string]string{"position": "top"}); v != 55 {
		t.Fatalf("top temperature = %v", v)
	}
	if _, ok := gaugeValue(t, r, "mixergy_water_temperature_celsius", map[string]string{"position": "bottom"}); ok {
		t.Fatalf("unknown bottom temperature exported")
	}
	if v, _ := gaugeValue(t, r, "mixergy_heat_source_active", map[string]string{"source": "electric"}); v != 1 {
		t.Fatalf("electric = %v", v)
	}
	if v, _ := gaugeValue(t, r, "mixergy_last_update_timestamp_seconds", nil); v != 1_700_000_000 {
		t.Fatalf("last update = %v", v)
	}
}

func TestRecorder_ClientCounters(t *testing.T) {
	r := New()
	r.RequestFailed("settings")
	r.RequestFailed("settings")
	r.PushMessage("state")
	r.PushReconnectScheduled()
	r.ChannelStateChanged("connected")

	if v, _ := gaugeValue(t, r, "mixergy_request_failures_total", map[string]string{"op": "settings"}); v != 2 {
		t.Fatalf("request failures = %v", v)
	}
	if v, _ := gaugeValue(t, r, "mixergy_push_reconnects_scheduled_total", nil); v != 1 {
		t.Fatalf("reconnects = %v", v)
	}
	if v, _ := gaugeValue(t, r, "mixergy_push_channel_state", map[string]string{"state": "connected"}); v != 1 {
		t.Fatalf("connected = %v", v)
	}
	if v, _ := gaugeValue(t, r, "mixergy_push_channel_state", map[string]string{"state": "disconnected"}); v != 0 {
		t.Fatalf("disconnected = %v", v)
	}
}

func TestHandler_ServesTextFormat(t *testing.T) {
	r := New()
	r.PushMessage("measurement")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `mixergy_push_messages_total{kind="measurement"} 1`) {
		t.Fatalf("metric missing from output:\n%s", body)
	}
}
