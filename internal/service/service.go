package service

import (
	"context"
	"errors"
	"time"

	"terneo_bridge/internal/models"
	"terneo_bridge/internal/repository"
)

// Devices manages which thermostats the bridge talks to.
type Devices interface {
	Register(ctx context.Context, serial, host, name string) error
	Unregister(ctx context.Context, serial string) error
	List(ctx context.Context) ([]models.DeviceIdentity, error)
	Discovered(ctx context.Context) []models.Beacon
}

// Control exposes write operations. Every write is serialized per device,
// applied optimistically, and confirmed with a delayed re-read.
type Control interface {
	SetPower(ctx context.Context, serial string, on bool) error
	SetSetpoint(ctx context.Context, serial string, celsius float64) error
	SetPreset(ctx context.Context, serial, preset string) error
	SetScheduleDay(ctx context.Context, serial string, day time.Weekday, periods []models.SchedulePeriod) error
	SetWeeklySchedule(ctx context.Context, serial string, week map[time.Weekday][]models.SchedulePeriod) error
	SetAwayWindow(ctx context.Context, serial string, w models.AwayWindow) error
	SetRawParameter(ctx context.Context, serial string, id int, value string) error
}

// Monitoring exposes read-only derived state.
type Monitoring interface {
	GetState(ctx context.Context, serial string) (models.DeviceState, error)
	ListStates(ctx context.Context) ([]models.DeviceState, error)
	Refresh(ctx context.Context, serial string) (models.DeviceState, error)
	GetSchedule(ctx context.Context, serial string) (map[time.Weekday][]models.SchedulePeriod, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.BridgeEvent, error)
}

// Stream delivers live bridge events to subscribers.
type Stream interface {
	Subscribe() chan models.BridgeEvent
	Unsubscribe(ch chan models.BridgeEvent)
}

// LogFilter supports history filtering by time range, type and serial.
type LogFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Type   string    // "", "REGISTERED", "STATE_CHANGE", "CORRECTION", ...
	Serial string    // "" means all devices
}

// Service errors surfaced to the transport layer.
var (
	ErrDeviceNotFound   = errors.New("device is not registered")
	ErrInvalidPreset    = errors.New("preset cannot be set directly")
	ErrUnknownParameter = errors.New("unknown parameter id")
)

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Devices
	Control
	Monitoring
	EventLog
	Stream
}

// NewService wires the synchronizer, repositories and hub into the service
// facade the handlers depend on.
func NewService(sync *Synchronizer, repos *repository.Repository, hub *Hub) *Service {
	return &Service{
		Devices:    sync,
		Control:    sync,
		Monitoring: sync,
		EventLog:   NewEventLogService(repos.Events),
		Stream:     hub,
	}
}
