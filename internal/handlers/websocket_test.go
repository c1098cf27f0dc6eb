package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"terneo_bridge/internal/models"
	"terneo_bridge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestParseInterval(t *testing.T) {
	t.Parallel()

	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", defaultInterval},
		{"interval_duration", "/ws?interval=2s", 2 * time.Second},
		{"interval_ms", "/ws?interval_ms=1500", 1500 * time.Millisecond},
		{"interval_wins_over_ms", "/ws?interval=3s&interval_ms=1500", 3 * time.Second},
		{"zero_rejected", "/ws?interval=0s", defaultInterval},
		{"over_max_rejected", "/ws?interval=10m", defaultInterval},
		{"garbage_rejected", "/ws?interval=soon", defaultInterval},
	}

	gin.SetMode(gin.TestMode)
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tc.u, nil)
			if got := h.parseInterval(c); got != tc.want {
				t.Fatalf("parseInterval(%q) = %v; want %v", tc.u, got, tc.want)
			}
		})
	}
}

func dialWS(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	u.Scheme = "ws"
	u.Path = strings.SplitN(path, "?", 2)[0]
	if i := strings.Index(path, "?"); i >= 0 {
		u.RawQuery = path[i+1:]
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial %s: %v", u.String(), err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var env wsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("envelope is not JSON: %v\nraw: %s", err, data)
	}
	return env
}

func TestWS_SnapshotThenEvents(t *testing.T) {
	t.Parallel()

	mon := &mockMonitoring{states: []models.DeviceState{
		{Serial: "SN1", Reachable: true, Power: true},
	}}
	s := testServices(nil, nil, mon, nil)
	hub, ok := s.Stream.(*service.Hub)
	if !ok {
		t.Fatalf("stream is not a hub")
	}

	srv := httptest.NewServer(newTestRouter(s))
	defer srv.Close()

	conn := dialWS(t, srv, "/ws")

	// First frame is always the full snapshot.
	env := readEnvelope(t, conn)
	if env.Type != "snapshot" {
		t.Fatalf("first frame type = %q; want snapshot", env.Type)
	}
	states, ok := env.Data.([]any)
	if !ok || len(states) != 1 {
		t.Fatalf("snapshot data = %#v", env.Data)
	}

	// A published bridge event is forwarded as an event frame.
	hub.Publish(models.BridgeEvent{
		EventID:     "e1",
		OccurredAt:  time.Now().UTC(),
		Serial:      "SN1",
		Type:        models.EventStateChanged,
		Description: "device state changed",
	})

	env = readEnvelope(t, conn)
	if env.Type != "event" {
		t.Fatalf("second frame type = %q; want event", env.Type)
	}
	data, ok := env.Data.(map[string]any)
	if !ok || data["event_id"] != "e1" || data["serial"] != "SN1" {
		t.Fatalf("event data = %#v", env.Data)
	}
}

func TestWS_PeriodicSnapshots(t *testing.T) {
	t.Parallel()

	mon := &mockMonitoring{states: []models.DeviceState{{Serial: "SN1"}}}
	s := testServices(nil, nil, mon, nil)

	srv := httptest.NewServer(newTestRouter(s))
	defer srv.Close()

	conn := dialWS(t, srv, "/ws?interval_ms=50")

	// Initial snapshot plus at least one ticker-driven refresh.
	for i := 0; i < 2; i++ {
		env := readEnvelope(t, conn)
		if env.Type != "snapshot" {
			t.Fatalf("frame %d type = %q; want snapshot", i, env.Type)
		}
	}
}
