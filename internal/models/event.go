package models

import "time"

// Event types emitted by the bridge.
const (
	EventDeviceSeen      = "DEVICE_SEEN"
	EventHostChanged     = "HOST_CHANGED"
	EventRegistered      = "REGISTERED"
	EventUnregistered    = "UNREGISTERED"
	EventStateChanged    = "STATE_CHANGE"
	EventScheduleChanged = "SCHEDULE_CHANGE"
	EventBeaconUpdated   = "BEACON"
	EventUnreachable     = "UNREACHABLE"
	EventReachable       = "REACHABLE"
	EventCorrection      = "CORRECTION"
)

// BridgeEvent is a single entry of the operational log and the payload of
// the websocket event stream.
type BridgeEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Serial      string    `json:"serial,omitempty"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
