package terneo

import (
	"testing"
	"time"

	"terneo_bridge/internal/models"
)

func baseSnapshot() Snapshot {
	return Snapshot{
		Identity:  models.DeviceIdentity{Serial: "SN1", Host: "192.168.1.23"},
		Reachable: true,
		UpdatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDerive_PowerFromParameter(t *testing.T) {
	t.Parallel()

	// The explicit power parameter wins over the telemetry flag.
	s := baseSnapshot()
	s.Parameters = map[int]any{ParamPowerToggle: true}
	s.Telemetry = Telemetry{"f.16": "1"} // flag says off

	st := Derive(s)
	if !st.Power {
		t.Fatalf("parameter 125=1 must mean powered on")
	}
}

func TestDerive_PowerFallsBackToFlag(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.Telemetry = Telemetry{"f.16": "1"}
	if st := Derive(s); st.Power {
		t.Fatalf("f.16=1 without parameter must mean powered off")
	}

	s.Telemetry = Telemetry{"f.16": "0"}
	if st := Derive(s); !st.Power {
		t.Fatalf("f.16=0 without parameter must mean powered on")
	}
}

func TestDerive_HeatingRequiresPower(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.Parameters = map[int]any{ParamPowerToggle: false}
	s.Telemetry = Telemetry{"f.0": "1"}

	if st := Derive(s); st.HeatingActive {
		t.Fatalf("a powered-off device cannot be heating")
	}
}

func TestDerive_ModesAndTemps(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.Parameters = map[int]any{ParamPowerToggle: true}
	s.Telemetry = Telemetry{
		"t.1": "352", // 22.0 °C floor
		"t.2": "368", // 23.0 °C air
		"t.5": "400", // 25.0 °C setpoint
		"m.0": "1",   // air control
		"m.1": "3",   // manual
		"f.0": "1",
		"o.0": "-55",
	}

	st := Derive(s)
	if st.ControlType != models.ControlAir {
		t.Fatalf("control type = %q; want air", st.ControlType)
	}
	if st.PresetMode != models.PresetManual {
		t.Fatalf("preset = %q; want manual", st.PresetMode)
	}
	if st.FloorTemp == nil || *st.FloorTemp != 22.0 {
		t.Fatalf("floor temp = %v; want 22.0", st.FloorTemp)
	}
	if st.Setpoint == nil || *st.Setpoint != 25.0 {
		t.Fatalf("setpoint = %v; want 25.0", st.Setpoint)
	}
	if !st.HeatingActive {
		t.Fatalf("powered on with f.0=1 must be heating")
	}
	if st.WifiSignal == nil || *st.WifiSignal != -55 {
		t.Fatalf("wifi = %v; want -55", st.WifiSignal)
	}
}

func TestDerive_PresetMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mgmt string
		want string
	}{
		{"0", models.PresetSchedule},
		{"3", models.PresetManual},
		{"4", models.PresetAway},
		{"5", models.PresetTemporary},
	}
	for _, tc := range tests {
		s := baseSnapshot()
		s.Telemetry = Telemetry{"m.1": tc.mgmt}
		if st := Derive(s); st.PresetMode != tc.want {
			t.Fatalf("m.1=%s => preset %q; want %q", tc.mgmt, st.PresetMode, tc.want)
		}
	}
}

func TestDerive_SetpointLimits(t *testing.T) {
	t.Parallel()

	// Floor control with device-reported limits, in temperature tenths.
	s := baseSnapshot()
	s.Telemetry = Telemetry{"m.0": "0"}
	s.Parameters = map[int]any{
		ParamLowerLimit: int64(100), // 10.0 °C
		ParamUpperLimit: int64(400), // 40.0 °C
	}
	st := Derive(s)
	if st.MinTemp != 10.0 || st.MaxTemp != 40.0 {
		t.Fatalf("limits = [%v, %v]; want [10, 40]", st.MinTemp, st.MaxTemp)
	}

	// Air control without limit params falls back to air defaults.
	s = baseSnapshot()
	s.Telemetry = Telemetry{"m.0": "1"}
	st = Derive(s)
	if st.MinTemp != 5.0 || st.MaxTemp != 35.0 {
		t.Fatalf("air defaults = [%v, %v]; want [5, 35]", st.MinTemp, st.MaxTemp)
	}
}

func TestDerive_BeaconMerges(t *testing.T) {
	t.Parallel()

	rssi := -60
	connected := true
	s := baseSnapshot()
	s.Beacon = &models.Beacon{
		Serial:          "SN1",
		CloudConnected:  &connected,
		ConnectionState: "wiFiCon",
		WifiRSSI:        &rssi,
	}

	st := Derive(s)
	if st.CloudConnected == nil || !*st.CloudConnected {
		t.Fatalf("cloud connected not carried from beacon")
	}
	if st.ConnectionState != "wiFiCon" {
		t.Fatalf("connection state = %q", st.ConnectionState)
	}
	if st.WifiSignal == nil || *st.WifiSignal != -60 {
		t.Fatalf("beacon RSSI fallback = %v; want -60", st.WifiSignal)
	}

	// Telemetry wifi wins over the beacon's.
	s.Telemetry = Telemetry{"o.0": "-40"}
	st = Derive(s)
	if st.WifiSignal == nil || *st.WifiSignal != -40 {
		t.Fatalf("telemetry RSSI = %v; want -40", st.WifiSignal)
	}
}

func TestDerive_UnreachableKeepsValues(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.Reachable = false
	s.Telemetry = Telemetry{"t.1": "352"}

	st := Derive(s)
	if st.Reachable {
		t.Fatalf("reachable must be false")
	}
	if st.FloorTemp == nil || *st.FloorTemp != 22.0 {
		t.Fatalf("last known temperature must survive unreachability")
	}
}
