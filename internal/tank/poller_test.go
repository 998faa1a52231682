package tank

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"mixergy_bridge/internal/models"
)

func TestFetchAll_ChargeChangedScenario(t *testing.T) {
	api := newFakeAPI(t)
	sink := &recordingSink{}
	c := newTestClient(t, api, sink)
	ctx := context.Background()

	c.FetchAll(ctx)
	st := c.State()
	if st.Charge != 42 {
		t.Fatalf("charge = %v, want 42", st.Charge)
	}
	if n := len(sink.all()); n != 0 {
		t.Fatalf("first fetch emitted %d events", n)
	}

	api.set(func(f *fakeAPI) {
		f.measurement = measurementJSON(50, `{"current":{"heat_source":"Electric","immersion":"On"}}`)
	})
	c.FetchAll(ctx)

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Charge != 50 || events[0].DeviceID != "mx000123" || events[0].Type != models.EventChargeChange {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if st := c.State(); !st.ElectricHeatSource || st.IndirectHeatSource {
		t.Fatalf("heat source not reconciled: %+v", st)
	}
}

func TestFetchAll_PopulatesEveryResource(t *testing.T) {
	api := newFakeAPI(t)
	c := newTestClient(t, api, nil)
	c.FetchAll(context.Background())

	st := c.State()
	if st.HotWaterTemperature != 55.5 || st.ColdestWaterTemperature != 18.25 || st.TargetCharge != 80 || st.PVPower != 2 {
		t.Fatalf("measurement not applied: %+v", st)
	}
	if st.IndirectHeatSource || st.ElectricHeatSource || st.HeatpumpHeatSource {
		t.Fatalf("immersion off should leave every source off: %+v", st)
	}
	if st.TargetTemperature != 60 || st.PVChargeLimit != 90 {
		t.Fatalf("settings not applied: %+v", st)
	}
	if st.Schedule["version"] == nil {
		t.Fatalf("schedule not applied: %+v", st.Schedule)
	}
}

func TestFetchAll_FailedStepKeepsPreviousState(t *testing.T) {
	api := newFakeAPI(t)
	c := newTestClient(t, api, nil)
	ctx := context.Background()
	c.FetchAll(ctx)

	var published atomic.Int32
	c.Subscribe(func() { published.Add(1) })

	api.set(func(f *fakeAPI) {
		f.measureCode = http.StatusInternalServerError
		f.measurement = measurementJSON(10, `{"current":{}}`)
		f.settings = `{"max_temp":48,"dsr_enabled":false,"frost_protection_enabled":false,"distributed_computing_enabled":false,"cleansing_temperature":51}`
	})
	c.FetchAll(ctx)

	st := c.State()
	if st.Charge != 42 {
		t.Fatalf("charge = %v, want previous 42", st.Charge)
	}
	if st.TargetTemperature != 48 {
		t.Fatalf("settings step should still run, target temperature = %v", st.TargetTemperature)
	}
	if got := published.Load(); got != 1 {
		t.Fatalf("observers published %d times, want 1", got)
	}
}

func TestFetchAll_MalformedMeasurementLeavesNoPartialWrites(t *testing.T) {
	api := newFakeAPI(t)
	c := newTestClient(t, api, nil)
	ctx := context.Background()
	c.FetchAll(ctx)

	api.set(func(f *fakeAPI) {
		f.measurement = `{"topTemperature":99,"bottomTemperature":99,"state":"{\"current\":{}}"}`
	})
	c.FetchAll(ctx)
	if st := c.State(); st.HotWaterTemperature != 55.5 || st.Charge != 42 {
		t.Fatalf("partial measurement was applied: %+v", st)
	}
}

func TestFetchAll_AuthFailureStillPublishes(t *testing.T) {
	api := newFakeAPI(t)
	api.set(func(f *fakeAPI) { f.loginStatus = http.StatusForbidden })
	c := newTestClient(t, api, nil)

	var published atomic.Int32
	c.Subscribe(func() { published.Add(1) })
	c.FetchAll(context.Background())

	if published.Load() != 1 {
		t.Fatalf("observers not published")
	}
	if api.count("GET /api/v2/tanks") != 0 {
		t.Fatalf("resolve ran after failed authentication")
	}
	if st := c.State(); st.Charge != models.Unknown {
		t.Fatalf("state changed after failed authentication: %+v", st)
	}
}

func TestRunPoller_StopsOnCancel(t *testing.T) {
	api := newFakeAPI(t)
	c := newTestClient(t, api, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var cycles atomic.Int32
	c.Subscribe(func() { cycles.Add(1) })

	done := make(chan struct{})
	go func() {
		c.RunPoller(ctx, 20*time.Millisecond)
		close(done)
	}()
	waitFor(t, "two poll cycles", func() bool { return cycles.Load() >= 2 })
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("RunPoller did not return after cancel")
	}
}
