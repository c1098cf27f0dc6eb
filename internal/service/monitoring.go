package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"terneo_bridge/internal/models"
	"terneo_bridge/internal/terneo"
)

// GetState returns the latest derived state without touching the network.
func (s *Synchronizer) GetState(ctx context.Context, serial string) (models.DeviceState, error) {
	e, err := s.entry(serial)
	if err != nil {
		return models.DeviceState{}, err
	}
	e.mu.RLock()
	st := e.state
	e.mu.RUnlock()
	return st, nil
}

// ListStates returns the derived state of every registered device, ordered by
// serial.
func (s *Synchronizer) ListStates(ctx context.Context) ([]models.DeviceState, error) {
	entries := s.allEntries()
	out := make([]models.DeviceState, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		out = append(out, e.state)
		e.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out, nil
}

// Refresh reads the device now instead of waiting for the next poll tick. It
// queues behind any write in flight, so it never observes a half-applied
// change.
func (s *Synchronizer) Refresh(ctx context.Context, serial string) (models.DeviceState, error) {
	e, err := s.entry(serial)
	if err != nil {
		return models.DeviceState{}, err
	}
	e.busy.Lock()
	defer e.busy.Unlock()
	return s.refreshLocked(ctx, e)
}

// GetSchedule reads the whole weekly program from the device.
func (s *Synchronizer) GetSchedule(ctx context.Context, serial string) (map[time.Weekday][]models.SchedulePeriod, error) {
	e, err := s.entry(serial)
	if err != nil {
		return nil, err
	}
	e.busy.Lock()
	defer e.busy.Unlock()

	host, err := s.reachableHost(e, serial)
	if err != nil {
		return nil, err
	}
	tt, err := s.client.GetSchedule(ctx, host)
	if err != nil {
		if errors.Is(err, terneo.ErrUnreachable) {
			s.markUnreachable(ctx, e, err)
		}
		return nil, err
	}

	out := make(map[time.Weekday][]models.SchedulePeriod, len(tt))
	for day, key := range s.dayKeys {
		wire, ok := tt[key]
		if !ok {
			continue
		}
		periods, err := terneo.DecodeScheduleDay(wire)
		if err != nil {
			return nil, err
		}
		out[day] = periods
	}
	return out, nil
}
