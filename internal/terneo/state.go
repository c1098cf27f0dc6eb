package terneo

import (
	"time"

	"terneo_bridge/internal/models"
)

// Default setpoint limits used until the device reports its own.
const (
	defaultMinFloorTemp = 5.0
	defaultMaxFloorTemp = 45.0
	defaultMinAirTemp   = 5.0
	defaultMaxAirTemp   = 35.0
)

// Snapshot bundles everything the derived view is computed from. The
// synchronizer replaces snapshot fields wholesale and re-derives; no derived
// field is ever mutated on its own.
type Snapshot struct {
	Identity   models.DeviceIdentity
	Parameters map[int]any
	Telemetry  Telemetry
	Beacon     *models.Beacon
	Reachable  bool
	UpdatedAt  time.Time
}

// Derive computes the semantic device state from a snapshot. It is a pure
// function: same snapshot in, same state out.
func Derive(s Snapshot) models.DeviceState {
	st := models.DeviceState{
		Serial:    s.Identity.Serial,
		Host:      s.Identity.Host,
		Reachable: s.Reachable,
		UpdatedAt: s.UpdatedAt,
	}

	// The state escapes to readers that hold no lock; never alias the
	// snapshot's map.
	if len(s.Parameters) > 0 {
		st.Parameters = make(map[int]any, len(s.Parameters))
		for id, v := range s.Parameters {
			st.Parameters[id] = v
		}
	}

	// Power: id 125 type 7, "1" means on. The vendor documentation names the
	// id with the opposite polarity; the display flag below still carries it.
	if v, ok := s.Parameters[ParamPowerToggle].(bool); ok {
		st.Power = v
	} else if _, ok := s.Telemetry.Int(telemetryFlags, FlagPowerOff); ok {
		st.Power = !s.Telemetry.Flag(FlagPowerOff)
	}

	st.HeatingActive = st.Power && s.Telemetry.Flag(FlagHeating)

	if ct, ok := s.Telemetry.Mode(ModeControlType); ok {
		switch ct {
		case ControlTypeAir:
			st.ControlType = models.ControlAir
		case ControlTypeExtended:
			st.ControlType = models.ControlExtended
		default:
			st.ControlType = models.ControlFloor
		}
	}

	if mt, ok := s.Telemetry.Mode(ModeManagementType); ok {
		switch mt {
		case MgmtSchedule:
			st.PresetMode = models.PresetSchedule
		case MgmtManual:
			st.PresetMode = models.PresetManual
		case MgmtAway:
			st.PresetMode = models.PresetAway
		case MgmtTemporary:
			st.PresetMode = models.PresetTemporary
		}
	}

	st.FloorTemp = s.Telemetry.Temperature(TempFloor)
	st.AirTemp = s.Telemetry.Temperature(TempAir)
	st.Setpoint = s.Telemetry.Temperature(TempSetpoint)
	st.MCUTemp = s.Telemetry.Temperature(TempMCU)
	st.OverheatTemp = s.Telemetry.Temperature(TempOverheat)

	st.MinTemp, st.MaxTemp = setpointLimits(st.ControlType, s.Parameters)

	st.FloorSensorBreak = s.Telemetry.Flag(FlagFloorSensorBreak)
	st.FloorSensorShort = s.Telemetry.Flag(FlagFloorSensorShort)
	st.AirSensorBreak = s.Telemetry.Flag(FlagAirSensorBreak)
	st.AirSensorShort = s.Telemetry.Flag(FlagAirSensorShort)
	st.Overheat = s.Telemetry.Flag(FlagOverheat)
	st.WindowOpen = s.Telemetry.Flag(FlagWindowOpen)

	st.WifiSignal = s.Telemetry.WifiSignal()
	if s.Beacon != nil {
		if st.WifiSignal == nil {
			st.WifiSignal = s.Beacon.WifiRSSI
		}
		st.CloudConnected = s.Beacon.CloudConnected
		st.ConnectionState = s.Beacon.ConnectionState
	}

	return st
}

// setpointLimits reads the device's own limit parameters for the active
// control type, falling back to conservative defaults.
func setpointLimits(controlType string, params map[int]any) (min, max float64) {
	lowerID, upperID := ParamLowerLimit, ParamUpperLimit
	min, max = defaultMinFloorTemp, defaultMaxFloorTemp
	if controlType == models.ControlAir {
		lowerID, upperID = ParamLowerAirLimit, ParamUpperAirLimit
		min, max = defaultMinAirTemp, defaultMaxAirTemp
	}
	if v, ok := params[lowerID].(int64); ok {
		min = float64(v) / temperatureScale
	}
	if v, ok := params[upperID].(int64); ok {
		max = float64(v) / temperatureScale
	}
	return min, max
}
