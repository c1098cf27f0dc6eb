package repository

import (
	"context"
	"database/sql"
	"time"

	"terneo_bridge/internal/models"
)

type DeviceSQLite struct {
	db *sql.DB
}

func NewDeviceSQLite(db *sql.DB) *DeviceSQLite {
	return &DeviceSQLite{db: db}
}

const (
	upsertDeviceSQL = `
		INSERT INTO devices (serial, hw, host, name, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(serial) DO UPDATE SET
			hw=excluded.hw,
			host=excluded.host,
			name=excluded.name
	`

	selectDevicesSQL = `
		SELECT serial, hw, host, name, added_at
		FROM devices ORDER BY added_at ASC
	`
)

// Upsert inserts or updates a device row keyed by serial.
func (r *DeviceSQLite) Upsert(ctx context.Context, d models.DeviceIdentity) error {
	added := d.AddedAt
	if added.IsZero() {
		added = time.Now().UTC()
	} else {
		added = added.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertDeviceSQL,
		d.Serial,
		d.HardwareClass,
		d.Host,
		d.Name,
		added.Format("2006-01-02 15:04:05"),
	)
	return err
}

// UpdateHost records a device's new address after it moved on the network.
func (r *DeviceSQLite) UpdateHost(ctx context.Context, serial, host string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE devices SET host=? WHERE serial=?`, host, serial)
	return err
}

// Delete removes a device row. Deleting an unknown serial is not an error.
func (r *DeviceSQLite) Delete(ctx context.Context, serial string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE serial=?`, serial)
	return err
}

// List returns all configured devices in registration order.
func (r *DeviceSQLite) List(ctx context.Context) ([]models.DeviceIdentity, error) {
	rows, err := r.db.QueryContext(ctx, selectDevicesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.DeviceIdentity, 0, 8)
	for rows.Next() {
		var d models.DeviceIdentity
		if err := rows.Scan(&d.Serial, &d.HardwareClass, &d.Host, &d.Name, &d.AddedAt); err != nil {
			return nil, err
		}
		d.AddedAt = d.AddedAt.UTC()
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
