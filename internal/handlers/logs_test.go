package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"terneo_bridge/internal/models"
)

func TestGetLogs(t *testing.T) {
	t.Parallel()

	t.Run("passes filters through", func(t *testing.T) {
		t.Parallel()
		logs := &mockEventLog{resp: []models.BridgeEvent{{EventID: "e1", Type: "CORRECTION"}}}
		router := newTestRouter(testServices(nil, nil, nil, logs))

		w := doRequest(t, router, http.MethodGet,
			"/api/v1/logs/?from=2026-08-01&to=2026-08-31&type=correction&serial=SN1", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200; body %s", w.Code, w.Body.String())
		}

		f := logs.lastFilter
		if f.Type != "CORRECTION" {
			t.Fatalf("type = %q; want CORRECTION", f.Type)
		}
		if f.Serial != "SN1" {
			t.Fatalf("serial = %q; want SN1", f.Serial)
		}
		wantFrom := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		if !f.From.Equal(wantFrom) {
			t.Fatalf("from = %v; want %v", f.From, wantFrom)
		}
		// Date-only 'to' covers the whole day.
		if !f.To.After(time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)) {
			t.Fatalf("to = %v; want end of 2026-08-31", f.To)
		}

		if body := decodeBody(t, w); body["count"] != float64(1) {
			t.Fatalf("count = %v; want 1", body["count"])
		}
	})

	t.Run("no filters", func(t *testing.T) {
		t.Parallel()
		logs := &mockEventLog{}
		router := newTestRouter(testServices(nil, nil, nil, logs))

		w := doRequest(t, router, http.MethodGet, "/api/v1/logs/", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", w.Code)
		}
		f := logs.lastFilter
		if !f.From.IsZero() || !f.To.IsZero() || f.Type != "" || f.Serial != "" {
			t.Fatalf("filter must be empty, got %+v", f)
		}
	})

	t.Run("invalid from is a bad request", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(testServices(nil, nil, nil, &mockEventLog{}))

		w := doRequest(t, router, http.MethodGet, "/api/v1/logs/?from=notatime", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}
	})

	t.Run("inverted range is a bad request", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(testServices(nil, nil, nil, &mockEventLog{}))

		w := doRequest(t, router, http.MethodGet, "/api/v1/logs/?from=2026-08-31&to=2026-08-01", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}
	})

	t.Run("repository failure is a server error", func(t *testing.T) {
		t.Parallel()
		logs := &mockEventLog{err: errors.New("db down")}
		router := newTestRouter(testServices(nil, nil, nil, logs))

		w := doRequest(t, router, http.MethodGet, "/api/v1/logs/", "")
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d; want 500", w.Code)
		}
	})
}

func Test_parseQueryTime(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2026-08-27T15:04:05Z", want: time.Date(2026, 8, 27, 15, 4, 5, 0, time.UTC)},
		{in: "2026-08-27 15:04:05", want: time.Date(2026, 8, 27, 15, 4, 5, 0, time.UTC)},
		{in: "2026-08-27", want: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)},
		{in: "27/08/2026", wantErr: true},
		{in: "later", wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseQueryTime(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseQueryTime(%q): %v", tc.in, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("parseQueryTime(%q) = %v; want %v", tc.in, got, tc.want)
			}
		})
	}
}
