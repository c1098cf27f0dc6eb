package terneo

import (
	"fmt"
	"strconv"
)

// Telemetry is the flat key→value map a device returns for cmd 4. Keys are
// "<group>.<index>" with groups t (temperatures), m (modes), f (flags) and
// o (other). Values arrive as strings or numbers depending on firmware.
type Telemetry map[string]any

// Telemetry groups.
const (
	telemetryTemps = "t"
	telemetryModes = "m"
	telemetryFlags = "f"
	telemetryOther = "o"
)

// Temperature indices.
const (
	TempOverheat = 0
	TempFloor    = 1
	TempAir      = 2
	TempSetpoint = 5
	TempMCU      = 7
)

// Mode indices.
const (
	ModeControlType    = 0
	ModeManagementType = 1
)

// Management types reported under m.1.
const (
	MgmtSchedule  = 0
	MgmtManual    = 3
	MgmtAway      = 4
	MgmtTemporary = 5
)

// Flag indices.
const (
	FlagHeating          = 0
	FlagFloorSensorBreak = 3
	FlagFloorSensorShort = 4
	FlagAirSensorBreak   = 5
	FlagAirSensorShort   = 6
	FlagWindowOpen       = 8
	FlagOverheat         = 9
	FlagPowerOff         = 16
)

// Other indices.
const OtherWifiSignal = 0

// Telemetry temperatures are sixteenths of a degree, unlike parameter
// temperatures which are tenths.
const telemetryTempDivisor = 16.0

// Int returns the integer at "<group>.<index>", tolerating both string and
// numeric JSON encodings.
func (t Telemetry) Int(group string, index int) (int, bool) {
	v, ok := t[fmt.Sprintf("%s.%d", group, index)]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// Temperature returns the temperature at index in °C, or nil when absent.
func (t Telemetry) Temperature(index int) *float64 {
	n, ok := t.Int(telemetryTemps, index)
	if !ok {
		return nil
	}
	c := float64(n) / telemetryTempDivisor
	return &c
}

// Flag returns the boolean flag at index; absent flags read as false.
func (t Telemetry) Flag(index int) bool {
	n, ok := t.Int(telemetryFlags, index)
	return ok && n != 0
}

// Mode returns the mode value at index.
func (t Telemetry) Mode(index int) (int, bool) {
	return t.Int(telemetryModes, index)
}

// WifiSignal returns the wifi RSSI in dBm, or nil when absent.
func (t Telemetry) WifiSignal() *int {
	n, ok := t.Int(telemetryOther, OtherWifiSignal)
	if !ok {
		return nil
	}
	return &n
}
