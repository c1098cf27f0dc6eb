package terneo

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"terneo_bridge/internal/logger"
	"terneo_bridge/internal/models"
)

// DefaultDiscoveryPort is the well-known broadcast port devices beacon on.
const DefaultDiscoveryPort = 23500

// Discovery event kinds.
const (
	EventDeviceSeen    = "seen"   // new serial, or a known serial at a new host
	EventBeaconUpdated = "beacon" // refresh of an already-known device
)

// DiscoveryEvent is delivered to the synchronizer for every accepted beacon.
type DiscoveryEvent struct {
	Kind   string
	Serial string
	Host   string
	Beacon models.Beacon
}

// Listener owns the discovery socket. It is receive-only: no response is
// ever sent, entries never expire, and de-duplication is by serial number —
// a device keeps its identity across IP changes.
type Listener struct {
	conn   *net.UDPConn
	log    *logger.Logger
	events chan DiscoveryEvent

	mu   sync.RWMutex
	seen map[string]*seenDevice
}

type seenDevice struct {
	beacon   models.Beacon
	host     string
	lastSeen time.Time
}

// NewListener binds the discovery port.
func NewListener(port int, log *logger.Logger) (*Listener, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, err
	}
	return &Listener{
		conn:   conn,
		log:    log,
		events: make(chan DiscoveryEvent, 64),
		seen:   make(map[string]*seenDevice),
	}, nil
}

// Events returns the channel discovery events are delivered on.
func (l *Listener) Events() <-chan DiscoveryEvent {
	return l.events
}

// Run receives beacons until the context is canceled. Malformed datagrams
// are logged and dropped, never fatal.
func (l *Listener) Run(ctx context.Context) error {
	l.log.Infow("discovery listening", "addr", l.conn.LocalAddr().String())

	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			l.log.Errorw("discovery read failed", "err", err)
			continue
		}
		l.handleDatagram(buf[:n], addr.IP.String())
	}
}

// wireBeacon is the JSON shape of one broadcast datagram. All fields arrive
// as strings; cloud is absent in the older beacon format.
type wireBeacon struct {
	SN         string `json:"sn"`
	HW         string `json:"hw"`
	Cloud      string `json:"cloud"`
	Connection string `json:"connection"`
	Wifi       string `json:"wifi"`
	Display    string `json:"display"`
}

func (l *Listener) handleDatagram(data []byte, host string) {
	var wb wireBeacon
	if err := json.Unmarshal(data, &wb); err != nil {
		l.log.Debugw("dropping malformed beacon", "host", host, "err", err)
		return
	}
	if wb.SN == "" {
		l.log.Debugw("dropping beacon without serial", "host", host)
		return
	}

	beacon := models.Beacon{
		Serial:          wb.SN,
		HardwareClass:   wb.HW,
		ConnectionState: wb.Connection,
		DisplayText:     strings.TrimSpace(wb.Display),
		ReceivedAt:      time.Now().UTC(),
	}
	if wb.Cloud != "" {
		connected := wb.Cloud == "true"
		beacon.CloudConnected = &connected
	}
	if wb.Wifi != "" {
		if rssi, err := strconv.Atoi(wb.Wifi); err == nil {
			beacon.WifiRSSI = &rssi
		}
	}

	l.mu.Lock()
	entry, known := l.seen[wb.SN]
	newDevice := !known
	hostChanged := known && entry.host != host
	if !known {
		entry = &seenDevice{}
		l.seen[wb.SN] = entry
	}
	entry.beacon = beacon
	entry.host = host
	entry.lastSeen = beacon.ReceivedAt
	l.mu.Unlock()

	kind := EventBeaconUpdated
	if newDevice || hostChanged {
		kind = EventDeviceSeen
	}
	if newDevice {
		l.log.Infow("discovered device", "serial", wb.SN, "host", host, "hw", wb.HW)
	}

	l.emit(DiscoveryEvent{Kind: kind, Serial: wb.SN, Host: host, Beacon: beacon})
}

// emit never blocks the receive loop; a lagging consumer loses beacons.
func (l *Listener) emit(ev DiscoveryEvent) {
	select {
	case l.events <- ev:
	default:
		l.log.Warnw("discovery event dropped, consumer not keeping up", "serial", ev.Serial)
	}
}

// Known returns a snapshot of every device ever seen, keyed by serial.
func (l *Listener) Known() map[string]models.Beacon {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]models.Beacon, len(l.seen))
	for sn, entry := range l.seen {
		out[sn] = entry.beacon
	}
	return out
}
