package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"terneo_bridge/internal/models"
)

// recordingEventRepo captures List arguments for filter assertions.
type recordingEventRepo struct {
	gotFrom   time.Time
	gotTo     time.Time
	gotType   string
	gotSerial string

	events []models.BridgeEvent
	err    error
	calls  int
}

func (f *recordingEventRepo) List(ctx context.Context, from, to time.Time, typ, serial string) ([]models.BridgeEvent, error) {
	f.calls++
	f.gotFrom = from
	f.gotTo = to
	f.gotType = typ
	f.gotSerial = serial
	return f.events, f.err
}

func (f *recordingEventRepo) Append(ctx context.Context, e models.BridgeEvent) error {
	return nil
}

func mustTimeIn(loc *time.Location, y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, loc)
}

func Test_normalizeToUTC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want func(time.Time) bool
	}{
		{
			name: "zero time remains zero",
			in:   time.Time{},
			want: func(out time.Time) bool { return out.IsZero() },
		},
		{
			name: "non-UTC converted to UTC preserving instant",
			in:   mustTimeIn(time.FixedZone("UTC+3", 3*3600), 2026, time.August, 1, 12, 34, 56),
			want: func(out time.Time) bool {
				exp := time.Date(2026, time.August, 1, 9, 34, 56, 0, time.UTC)
				return out.Location() == time.UTC && out.Equal(exp)
			},
		},
		{
			name: "already UTC stays UTC and same instant",
			in:   time.Date(2026, time.August, 2, 0, 0, 0, 0, time.UTC),
			want: func(out time.Time) bool {
				exp := time.Date(2026, time.August, 2, 0, 0, 0, 0, time.UTC)
				return out.Location() == time.UTC && out.Equal(exp)
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeToUTC(tc.in)
			if !tc.want(got) {
				t.Fatalf("unexpected normalizeToUTC result: %v (loc=%v)", got, got.Location())
			}
		})
	}
}

func Test_normalizeEventType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		exp  string
	}{
		{name: "empty stays empty", in: "", exp: ""},
		{name: "trim spaces", in: "  CORRECTION ", exp: "CORRECTION"},
		{name: "uppercase", in: "state_change", exp: "STATE_CHANGE"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeEventType(c.in)
			if got != c.exp {
				t.Fatalf("normalizeEventType(%q) = %q; want %q", c.in, got, c.exp)
			}
		})
	}
}

func TestEventLog_List_PassesNormalizedFilter(t *testing.T) {
	t.Parallel()

	repo := &recordingEventRepo{events: []models.BridgeEvent{{EventID: "e1"}}}
	svc := NewEventLogService(repo)

	from := mustTimeIn(time.FixedZone("UTC+2", 2*3600), 2026, time.August, 1, 10, 0, 0)
	to := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	out, err := svc.List(context.Background(), LogFilter{
		From:   from,
		To:     to,
		Type:   " correction ",
		Serial: " SN1 ",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || out[0].EventID != "e1" {
		t.Fatalf("unexpected events: %+v", out)
	}
	if repo.gotType != "CORRECTION" {
		t.Fatalf("type = %q; want CORRECTION", repo.gotType)
	}
	if repo.gotSerial != "SN1" {
		t.Fatalf("serial = %q; want SN1", repo.gotSerial)
	}
	if repo.gotFrom.Location() != time.UTC {
		t.Fatalf("from not normalized to UTC")
	}
}

func TestEventLog_List_RejectsInvertedRange(t *testing.T) {
	t.Parallel()

	repo := &recordingEventRepo{}
	svc := NewEventLogService(repo)

	_, err := svc.List(context.Background(), LogFilter{
		From: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("err = %v; want errInvalidTimeRange", err)
	}
	if repo.calls != 0 {
		t.Fatalf("repository must not be queried for an invalid range")
	}
}
