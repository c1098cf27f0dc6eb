package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"terneo_bridge/internal/logger"
	"terneo_bridge/internal/models"
	"terneo_bridge/internal/repository"
	"terneo_bridge/internal/terneo"

	"github.com/google/uuid"
)

// deviceClient is the slice of the protocol client the synchronizer needs.
type deviceClient interface {
	GetParameters(ctx context.Context, host string) (terneo.ParameterMap, error)
	GetTelemetry(ctx context.Context, host string) (terneo.Telemetry, error)
	GetSchedule(ctx context.Context, host string) (map[string][][]int, error)
	SetParameters(ctx context.Context, host, serial string, params []terneo.Parameter) error
	SetSchedule(ctx context.Context, host, serial, dayKey string, periods [][]int) error
}

const (
	defaultPollInterval = 30 * time.Second
	defaultConfirmDelay = 2 * time.Second
	confirmTimeout      = 5 * time.Second
)

// SyncOptions tunes the synchronizer's background behaviour.
type SyncOptions struct {
	PollInterval time.Duration
	ConfirmDelay time.Duration
	AutoRegister bool // register every device discovery announces
}

// Synchronizer owns the authoritative in-memory state of every registered
// device. All device I/O funnels through it: polls, user writes and the
// confirming re-reads that follow writes are serialized per device, so a poll
// can never interleave with a write and report a half-applied state.
type Synchronizer struct {
	client    deviceClient
	devices   repository.DeviceRepo
	events    repository.EventRepo
	hub       *Hub
	log       *logger.Logger
	opts      SyncOptions
	discovery <-chan terneo.DiscoveryEvent

	dayKeys    terneo.DayKeyTable
	awayParams terneo.AwayParamTable

	mu      sync.RWMutex
	entries map[string]*deviceEntry
	beacons map[string]models.Beacon // every beacon ever seen, registered or not
}

// deviceEntry holds one device. The busy mutex serializes device I/O; the
// inner mutex guards the snapshot and derived state.
type deviceEntry struct {
	busy sync.Mutex

	mu       sync.RWMutex
	identity models.DeviceIdentity
	snapshot terneo.Snapshot
	state    models.DeviceState
	gone     bool // set on unregister; in-flight results are discarded
}

func newEntry(d models.DeviceIdentity) *deviceEntry {
	e := &deviceEntry{identity: d}
	e.snapshot = terneo.Snapshot{Identity: d}
	e.state = terneo.Derive(e.snapshot)
	return e
}

// NewSynchronizer wires the synchronizer. Pass the discovery listener's event
// channel, or nil to run without discovery.
func NewSynchronizer(client deviceClient, repos *repository.Repository, hub *Hub, discovery <-chan terneo.DiscoveryEvent, log *logger.Logger, opts SyncOptions) *Synchronizer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.ConfirmDelay <= 0 {
		opts.ConfirmDelay = defaultConfirmDelay
	}
	return &Synchronizer{
		client:     client,
		devices:    repos.Devices,
		events:     repos.Events,
		hub:        hub,
		log:        log,
		opts:       opts,
		discovery:  discovery,
		dayKeys:    terneo.DefaultDayKeys,
		awayParams: terneo.DefaultAwayParams,
		entries:    make(map[string]*deviceEntry),
		beacons:    make(map[string]models.Beacon),
	}
}

// Run restores persisted devices, then polls and consumes discovery events
// until the context is canceled.
func (s *Synchronizer) Run(ctx context.Context) error {
	if err := s.restore(ctx); err != nil {
		return err
	}

	t := time.NewTicker(s.opts.PollInterval)
	defer t.Stop()

	s.pollAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.discovery:
			if !ok {
				s.discovery = nil // a nil channel never fires again
				continue
			}
			s.handleDiscovery(ctx, ev)
		case <-t.C:
			s.pollAll(ctx)
		}
	}
}

// restore loads the configured devices so they are polled from the first
// tick. No events are emitted: nothing happened, the process just restarted.
func (s *Synchronizer) restore(ctx context.Context) error {
	list, err := s.devices.List(ctx)
	if err != nil {
		return fmt.Errorf("restore devices: %w", err)
	}
	s.mu.Lock()
	for _, d := range list {
		if _, ok := s.entries[d.Serial]; !ok {
			s.entries[d.Serial] = newEntry(d)
		}
	}
	s.mu.Unlock()
	s.log.Infow("restored devices", "count", len(list))
	return nil
}

// Register adds a device. Registering an already known serial is idempotent
// and only refreshes host and name.
func (s *Synchronizer) Register(ctx context.Context, serial, host, name string) error {
	if serial == "" || host == "" {
		return errors.New("serial and host are required")
	}

	s.mu.Lock()
	e, exists := s.entries[serial]
	if !exists {
		identity := models.DeviceIdentity{Serial: serial, Host: host, Name: name, AddedAt: time.Now().UTC()}
		var beacon *models.Beacon
		if b, ok := s.beacons[serial]; ok {
			identity.HardwareClass = b.HardwareClass
			bc := b
			beacon = &bc
		}
		e = newEntry(identity)
		e.snapshot.Beacon = beacon
		e.state = terneo.Derive(e.snapshot)
		s.entries[serial] = e
	}
	s.mu.Unlock()

	if exists {
		e.mu.Lock()
		e.identity.Host = host
		if name != "" {
			e.identity.Name = name
		}
		identity := e.identity
		e.mu.Unlock()
		return s.devices.Upsert(ctx, identity)
	}

	e.mu.RLock()
	identity := e.identity
	e.mu.RUnlock()
	if err := s.devices.Upsert(ctx, identity); err != nil {
		s.mu.Lock()
		delete(s.entries, serial)
		s.mu.Unlock()
		return err
	}
	s.record(ctx, serial, models.EventRegistered, "device registered", map[string]any{"host": host})

	// First read, so callers see real state without waiting for a poll tick.
	e.busy.Lock()
	defer e.busy.Unlock()
	if _, err := s.refreshLocked(ctx, e); err != nil {
		s.log.Warnw("initial read failed", "serial", serial, "err", err)
	}
	return nil
}

// Unregister removes a device. Any read or confirm still in flight for it is
// discarded when it completes.
func (s *Synchronizer) Unregister(ctx context.Context, serial string) error {
	s.mu.Lock()
	e, ok := s.entries[serial]
	if ok {
		delete(s.entries, serial)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, serial)
	}

	e.mu.Lock()
	e.gone = true
	e.mu.Unlock()

	if err := s.devices.Delete(ctx, serial); err != nil {
		return err
	}
	s.record(ctx, serial, models.EventUnregistered, "device unregistered", nil)
	return nil
}

// List returns the registered devices in registration order.
func (s *Synchronizer) List(ctx context.Context) ([]models.DeviceIdentity, error) {
	s.mu.RLock()
	out := make([]models.DeviceIdentity, 0, len(s.entries))
	for _, e := range s.entries {
		e.mu.RLock()
		out = append(out, e.identity)
		e.mu.RUnlock()
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].Serial < out[j].Serial
	})
	return out, nil
}

// Discovered returns beacons of devices that announced themselves but are not
// registered.
func (s *Synchronizer) Discovered(ctx context.Context) []models.Beacon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Beacon, 0, len(s.beacons))
	for sn, b := range s.beacons {
		if _, ok := s.entries[sn]; ok {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out
}

// pollAll kicks a background read for every device.
func (s *Synchronizer) pollAll(ctx context.Context) {
	for _, e := range s.allEntries() {
		go s.poll(ctx, e)
	}
}

// poll skips devices with a write in flight: the confirming re-read that
// follows every write supersedes the poll anyway.
func (s *Synchronizer) poll(ctx context.Context, e *deviceEntry) {
	if !e.busy.TryLock() {
		return
	}
	defer e.busy.Unlock()
	s.refreshLocked(ctx, e)
}

// refreshLocked reads parameters and telemetry and re-derives state. The
// caller must hold e.busy.
func (s *Synchronizer) refreshLocked(ctx context.Context, e *deviceEntry) (models.DeviceState, error) {
	e.mu.RLock()
	host := e.identity.Host
	serial := e.identity.Serial
	e.mu.RUnlock()

	params, err := s.client.GetParameters(ctx, host)
	if err != nil {
		return s.markUnreachable(ctx, e, err), err
	}
	telemetry, err := s.client.GetTelemetry(ctx, host)
	if err != nil {
		return s.markUnreachable(ctx, e, err), err
	}

	decoded, dropped := terneo.DecodeAll(params)
	if len(dropped) > 0 {
		s.log.Warnw("dropped undecodable parameters", "serial", serial, "ids", dropped)
	}

	st := s.apply(ctx, e, func(snap *terneo.Snapshot) {
		snap.Parameters = decoded
		snap.Telemetry = telemetry
		snap.Reachable = true
	})
	return st, nil
}

// markUnreachable flips reachability while keeping the last known values, so
// clients can still show what the device looked like.
func (s *Synchronizer) markUnreachable(ctx context.Context, e *deviceEntry, cause error) models.DeviceState {
	st := s.apply(ctx, e, func(snap *terneo.Snapshot) {
		snap.Reachable = false
	})
	s.log.Warnw("device unreachable", "serial", st.Serial, "err", cause)
	return st
}

// apply mutates the snapshot, re-derives state and emits change events. It is
// the only place derived state is written.
func (s *Synchronizer) apply(ctx context.Context, e *deviceEntry, mutate func(*terneo.Snapshot)) models.DeviceState {
	now := time.Now().UTC()

	e.mu.Lock()
	if e.gone {
		st := e.state
		e.mu.Unlock()
		return st
	}
	prev := e.state
	mutate(&e.snapshot)
	e.snapshot.Identity = e.identity
	e.snapshot.UpdatedAt = now
	next := terneo.Derive(e.snapshot)
	e.state = next
	e.mu.Unlock()

	if prev.Reachable && !next.Reachable {
		s.record(ctx, next.Serial, models.EventUnreachable, "device stopped answering", nil)
	}
	if !prev.Reachable && next.Reachable {
		s.record(ctx, next.Serial, models.EventReachable, "device is answering again", nil)
	}
	if !statesEqual(prev, next) {
		s.record(ctx, next.Serial, models.EventStateChanged, "device state changed", next)
	}
	return next
}

// handleDiscovery merges a beacon into the device it belongs to, follows host
// changes, and surfaces unknown devices.
func (s *Synchronizer) handleDiscovery(ctx context.Context, ev terneo.DiscoveryEvent) {
	s.mu.Lock()
	s.beacons[ev.Serial] = ev.Beacon
	e := s.entries[ev.Serial]
	s.mu.Unlock()

	if e == nil {
		if ev.Kind != terneo.EventDeviceSeen {
			return
		}
		if s.opts.AutoRegister {
			if err := s.Register(ctx, ev.Serial, ev.Host, ""); err != nil {
				s.log.Errorw("auto-register failed", "serial", ev.Serial, "err", err)
			}
			return
		}
		s.record(ctx, ev.Serial, models.EventDeviceSeen, "unregistered device announced itself",
			map[string]any{"host": ev.Host, "hw": ev.Beacon.HardwareClass})
		return
	}

	e.mu.Lock()
	oldHost := e.identity.Host
	if oldHost != ev.Host {
		e.identity.Host = ev.Host
	}
	e.mu.Unlock()

	if oldHost != ev.Host {
		if err := s.devices.UpdateHost(ctx, ev.Serial, ev.Host); err != nil {
			s.log.Errorw("persisting host change failed", "serial", ev.Serial, "err", err)
		}
		s.record(ctx, ev.Serial, models.EventHostChanged, "device moved to "+ev.Host,
			map[string]any{"from": oldHost, "to": ev.Host})
	}

	beacon := ev.Beacon
	s.apply(ctx, e, func(snap *terneo.Snapshot) {
		snap.Beacon = &beacon
	})
}

// entry looks a registered device up by serial.
func (s *Synchronizer) entry(serial string) (*deviceEntry, error) {
	s.mu.RLock()
	e := s.entries[serial]
	s.mu.RUnlock()
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, serial)
	}
	return e, nil
}

func (s *Synchronizer) allEntries() []*deviceEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*deviceEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// record appends to the event log and publishes to live subscribers.
func (s *Synchronizer) record(ctx context.Context, serial, typ, desc string, meta any) {
	ev := models.BridgeEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Serial:      serial,
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	}
	if err := s.events.Append(ctx, ev); err != nil {
		s.log.Errorw("appending event failed", "type", typ, "serial", serial, "err", err)
	}
	s.hub.Publish(ev)
}

// statesEqual ignores the update timestamp: a re-read that confirms the same
// values is not a change.
func statesEqual(a, b models.DeviceState) bool {
	a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	return reflect.DeepEqual(a, b)
}
