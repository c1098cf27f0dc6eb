package repository

import (
	"context"
	"database/sql"
	"time"

	"terneo_bridge/internal/models"
	"terneo_bridge/internal/repository/db"
)

// InitDB opens the SQLite file and applies the schema.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}

// DeviceRepo persists which devices are configured. The serial number is
// the primary key; the host column follows discovery beacons.
type DeviceRepo interface {
	Upsert(ctx context.Context, d models.DeviceIdentity) error
	UpdateHost(ctx context.Context, serial, host string) error
	Delete(ctx context.Context, serial string) error
	List(ctx context.Context) ([]models.DeviceIdentity, error)
}

// EventRepo is the append-only operational log with filtered access.
type EventRepo interface {
	Append(ctx context.Context, e models.BridgeEvent) error
	List(ctx context.Context, from, to time.Time, typ, serial string) ([]models.BridgeEvent, error)
}

type Repository struct {
	Devices DeviceRepo
	Events  EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Devices: NewDeviceSQLite(db),
		Events:  NewEventSQLite(db),
	}
}
