package models

import "time"

// Preset modes, i.e. which setpoint source the thermostat follows.
const (
	PresetSchedule  = "schedule"
	PresetManual    = "manual"
	PresetAway      = "away"
	PresetTemporary = "temporary"
)

// Control types, i.e. which sensor drives regulation.
const (
	ControlFloor    = "floor"
	ControlAir      = "air"
	ControlExtended = "extended"
)

// DeviceState is the authoritative snapshot the synchronizer keeps per
// device. Everything below Parameters is derived: it is recomputed wholesale
// from the raw parameter map, the telemetry map and the last beacon, never
// patched field by field.
type DeviceState struct {
	Serial    string    `json:"serial"`
	Host      string    `json:"host"`
	Reachable bool      `json:"reachable"`
	UpdatedAt time.Time `json:"updated_at"`

	Power         bool   `json:"power"`
	HeatingActive bool   `json:"heating_active"`
	PresetMode    string `json:"preset_mode,omitempty"` // schedule | manual | away | temporary
	ControlType   string `json:"control_type,omitempty"`

	FloorTemp    *float64 `json:"floor_temp_c,omitempty"`
	AirTemp      *float64 `json:"air_temp_c,omitempty"`
	Setpoint     *float64 `json:"setpoint_c,omitempty"`
	MCUTemp      *float64 `json:"mcu_temp_c,omitempty"`
	OverheatTemp *float64 `json:"overheat_temp_c,omitempty"`
	MinTemp      float64  `json:"min_temp_c"`
	MaxTemp      float64  `json:"max_temp_c"`

	FloorSensorBreak bool `json:"floor_sensor_break,omitempty"`
	FloorSensorShort bool `json:"floor_sensor_short,omitempty"`
	AirSensorBreak   bool `json:"air_sensor_break,omitempty"`
	AirSensorShort   bool `json:"air_sensor_short,omitempty"`
	Overheat         bool `json:"overheat,omitempty"`
	WindowOpen       bool `json:"window_open,omitempty"`

	WifiSignal      *int   `json:"wifi_signal_dbm,omitempty"`
	CloudConnected  *bool  `json:"cloud_connected,omitempty"`
	ConnectionState string `json:"connection_state,omitempty"`

	// Raw decoded parameter values keyed by parameter id.
	Parameters map[int]any `json:"parameters,omitempty"`
}
