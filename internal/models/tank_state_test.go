package models

import "testing"

func TestNewTankState_UsesUnknownSentinels(t *testing.T) {
	st := NewTankState()
	if st.Charge != Unknown || st.HotWaterTemperature != Unknown || st.ColdestWaterTemperature != Unknown {
		t.Fatalf("expected unknown sentinels, got %+v", st)
	}
	if st.TargetCharge != 0 {
		t.Fatalf("target charge should default to 0, got %v", st.TargetCharge)
	}
	if st.Schedule != nil {
		t.Fatalf("schedule should be absent")
	}
}

func TestClone_DoesNotShareSchedule(t *testing.T) {
	st := NewTankState()
	st.Schedule = map[string]any{
		"holiday": map[string]any{"departDate": 1.0},
		"days":    []any{map[string]any{"on": true}},
	}

	cp := st.Clone()
	cp.Schedule["holiday"].(map[string]any)["departDate"] = 2.0
	cp.Schedule["days"].([]any)[0].(map[string]any)["on"] = false
	delete(cp.Schedule, "extra")

	if st.Schedule["holiday"].(map[string]any)["departDate"] != 1.0 {
		t.Fatalf("nested map mutated through clone")
	}
	if st.Schedule["days"].([]any)[0].(map[string]any)["on"] != true {
		t.Fatalf("nested slice mutated through clone")
	}
}
