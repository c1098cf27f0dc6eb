package terneo

import (
	"context"
	"net"
	"testing"
	"time"

	"terneo_bridge/internal/logger"
)

func testListener(t *testing.T) *Listener {
	t.Helper()
	l, err := NewListener(0, logger.Get(logger.ErrorLevel))
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	t.Cleanup(func() { _ = l.conn.Close() })
	return l
}

func waitEvent(t *testing.T, l *Listener) DiscoveryEvent {
	t.Helper()
	select {
	case ev := <-l.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no discovery event arrived")
		return DiscoveryEvent{}
	}
}

func TestListener_ReceivesBeacon(t *testing.T) {
	t.Parallel()

	l := testListener(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	conn, err := net.Dial("udp", l.conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	beacon := `{"sn":"SN1","hw":"sx","cloud":"true","connection":"wiFiCon","wifi":"-55","display":" 22.0 "}`
	if _, err := conn.Write([]byte(beacon)); err != nil {
		t.Fatalf("write: %v", err)
	}

	ev := waitEvent(t, l)
	if ev.Kind != EventDeviceSeen {
		t.Fatalf("kind = %q; want %q", ev.Kind, EventDeviceSeen)
	}
	if ev.Serial != "SN1" || ev.Beacon.HardwareClass != "sx" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Beacon.CloudConnected == nil || !*ev.Beacon.CloudConnected {
		t.Fatalf("cloud flag not parsed")
	}
	if ev.Beacon.WifiRSSI == nil || *ev.Beacon.WifiRSSI != -55 {
		t.Fatalf("wifi = %v; want -55", ev.Beacon.WifiRSSI)
	}
	if ev.Beacon.DisplayText != "22.0" {
		t.Fatalf("display = %q; want trimmed", ev.Beacon.DisplayText)
	}

	if known := l.Known(); len(known) != 1 {
		t.Fatalf("Known() has %d entries; want 1", len(known))
	}
}

func TestListener_DedupeBySerial(t *testing.T) {
	t.Parallel()

	l := testListener(t)

	l.handleDatagram([]byte(`{"sn":"SN1","hw":"sx"}`), "192.168.1.23")
	if ev := waitEvent(t, l); ev.Kind != EventDeviceSeen {
		t.Fatalf("first beacon kind = %q; want seen", ev.Kind)
	}

	// Same serial, same host: just a refresh.
	l.handleDatagram([]byte(`{"sn":"SN1","hw":"sx"}`), "192.168.1.23")
	if ev := waitEvent(t, l); ev.Kind != EventBeaconUpdated {
		t.Fatalf("repeat beacon kind = %q; want beacon", ev.Kind)
	}

	// Same serial, new address: the device kept its identity but moved.
	l.handleDatagram([]byte(`{"sn":"SN1","hw":"sx"}`), "192.168.1.99")
	ev := waitEvent(t, l)
	if ev.Kind != EventDeviceSeen || ev.Host != "192.168.1.99" {
		t.Fatalf("moved beacon = %+v; want seen at new host", ev)
	}

	if known := l.Known(); len(known) != 1 {
		t.Fatalf("dedupe failed: %d entries", len(known))
	}
}

func TestListener_DropsMalformed(t *testing.T) {
	t.Parallel()

	l := testListener(t)

	l.handleDatagram([]byte(`not json at all`), "192.168.1.23")
	l.handleDatagram([]byte(`{"hw":"sx"}`), "192.168.1.23") // no serial

	select {
	case ev := <-l.Events():
		t.Fatalf("malformed beacons must not emit events, got %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
	if known := l.Known(); len(known) != 0 {
		t.Fatalf("malformed beacons must not be retained")
	}
}

func TestListener_StopsOnCancel(t *testing.T) {
	t.Parallel()

	l := testListener(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v; want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}
