package models

// SchedulePeriod is one entry of a weekday program: from StartMinute the
// device targets Temperature until the next period starts (or midnight
// wraps). The protocol encodes no explicit end times.
type SchedulePeriod struct {
	StartMinute int     `json:"start_minute"`  // 0..1439
	Temperature float64 `json:"temperature_c"` // °C
}

// AwayWindow is the interval during which away temperatures apply.
// Timestamps are device epoch seconds. A nil temperature means "leave the
// device parameter untouched".
type AwayWindow struct {
	Start     int64    `json:"start"`
	End       int64    `json:"end"`
	FloorTemp *float64 `json:"floor_temp_c,omitempty"`
	AirTemp   *float64 `json:"air_temp_c,omitempty"`
}
