package models

import "time"

// DeviceIdentity describes one configured thermostat. The serial number is
// the primary key everywhere; the host may change across device reboots and
// is only ever rewritten from discovery beacons.
type DeviceIdentity struct {
	Serial        string    `json:"serial"`
	HardwareClass string    `json:"hardware_class"` // e.g. "sx"
	Host          string    `json:"host"`
	Name          string    `json:"name,omitempty"`
	AddedAt       time.Time `json:"added_at"`
}

// Beacon is the payload of one UDP discovery broadcast. Beacons are
// transient; only the latest one per serial is retained.
type Beacon struct {
	Serial          string    `json:"serial"`
	HardwareClass   string    `json:"hardware_class"`
	CloudConnected  *bool     `json:"cloud_connected,omitempty"` // absent in the older beacon format
	ConnectionState string    `json:"connection_state"`          // wiFiCon | noCon | ...
	WifiRSSI        *int      `json:"wifi_rssi,omitempty"`       // dBm
	DisplayText     string    `json:"display_text,omitempty"`
	ReceivedAt      time.Time `json:"received_at"`
}
