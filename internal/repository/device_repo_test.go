package repository

import (
	"regexp"
	"testing"
	"time"

	"terneo_bridge/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDeviceUpsert(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewDeviceSQLite(db)

	added := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO devices (serial, hw, host, name, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(serial) DO UPDATE SET
			hw=excluded.hw,
			host=excluded.host,
			name=excluded.name
	`)).
		WithArgs("SN1", "sx", "192.168.1.23", "bathroom", "2026-08-01 12:00:00").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Upsert(ctx(t), models.DeviceIdentity{
		Serial:        "SN1",
		HardwareClass: "sx",
		Host:          "192.168.1.23",
		Name:          "bathroom",
		AddedAt:       added,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestDeviceUpdateHost(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewDeviceSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE devices SET host=? WHERE serial=?`)).
		WithArgs("192.168.1.99", "SN1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateHost(ctx(t), "SN1", "192.168.1.99"); err != nil {
		t.Fatalf("UpdateHost: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestDeviceDelete(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewDeviceSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM devices WHERE serial=?`)).
		WithArgs("SN1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(ctx(t), "SN1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestDeviceList(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewDeviceSQLite(db)

	first := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"serial", "hw", "host", "name", "added_at"}).
		AddRow("SN1", "sx", "192.168.1.23", "bathroom", first).
		AddRow("SN2", "sx", "192.168.1.24", "", first.Add(time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT serial, hw, host, name, added_at
		FROM devices ORDER BY added_at ASC
	`)).WillReturnRows(rows)

	out, err := repo.List(ctx(t))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d devices; want 2", len(out))
	}
	if out[0].Serial != "SN1" || out[0].Name != "bathroom" {
		t.Fatalf("first device = %+v", out[0])
	}
	if out[1].AddedAt.Location() != time.UTC {
		t.Fatalf("added_at must be normalized to UTC")
	}
}
