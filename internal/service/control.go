package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"terneo_bridge/internal/models"
	"terneo_bridge/internal/terneo"
)

// weekOrder fixes the iteration order for whole-week writes.
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// SetPower turns the thermostat on or off.
func (s *Synchronizer) SetPower(ctx context.Context, serial string, on bool) error {
	desc := "power off"
	if on {
		desc = "power on"
	}
	p := terneo.Parameter{ID: terneo.ParamPowerToggle, Type: terneo.TypeBool, Raw: terneo.EncodeBool(on)}
	return s.writeParams(ctx, serial, []terneo.Parameter{p}, desc)
}

// SetSetpoint writes the target temperature into the parameter the device's
// current mode actually reads from, enforcing the device's own limits.
func (s *Synchronizer) SetSetpoint(ctx context.Context, serial string, celsius float64) error {
	st, err := s.GetState(ctx, serial)
	if err != nil {
		return err
	}
	id := setpointParamID(st)
	info := terneo.KnownParams[id]
	raw, err := terneo.EncodeTemperature(info.Type, celsius, st.MinTemp, st.MaxTemp)
	if err != nil {
		return err
	}
	p := terneo.Parameter{ID: id, Type: info.Type, Raw: raw}
	return s.writeParams(ctx, serial, []terneo.Parameter{p}, fmt.Sprintf("setpoint %.1f", celsius))
}

// setpointParamID picks the setpoint parameter for the active control type
// and preset.
func setpointParamID(st models.DeviceState) int {
	air := st.ControlType == models.ControlAir
	if st.PresetMode == models.PresetAway {
		if air {
			return terneo.ParamAwayAir
		}
		return terneo.ParamAwayFloor
	}
	if air {
		return terneo.ParamManualAir
	}
	return terneo.ParamManualFloor
}

// SetPreset switches between schedule and manual operation. Away and
// temporary are entered by the device itself (away window, manual override on
// the panel) and cannot be commanded.
func (s *Synchronizer) SetPreset(ctx context.Context, serial, preset string) error {
	var mode int64
	switch preset {
	case models.PresetSchedule:
		mode = terneo.ModeSchedule
	case models.PresetManual:
		mode = terneo.ModeManual
	case models.PresetAway, models.PresetTemporary:
		return fmt.Errorf("%w: %s is entered by the device, not commanded", ErrInvalidPreset, preset)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPreset, preset)
	}
	info := terneo.KnownParams[terneo.ParamMode]
	raw, err := terneo.EncodeInt(info.Type, mode)
	if err != nil {
		return err
	}
	p := terneo.Parameter{ID: terneo.ParamMode, Type: info.Type, Raw: raw}
	return s.writeParams(ctx, serial, []terneo.Parameter{p}, "preset "+preset)
}

// SetScheduleDay replaces the program of one weekday.
func (s *Synchronizer) SetScheduleDay(ctx context.Context, serial string, day time.Weekday, periods []models.SchedulePeriod) error {
	wire, err := terneo.EncodeScheduleDay(periods)
	if err != nil {
		return err
	}
	key, ok := s.dayKeys[day]
	if !ok {
		return fmt.Errorf("%w: no wire key for %s", terneo.ErrInvalidSchedule, day)
	}

	e, err := s.entry(serial)
	if err != nil {
		return err
	}
	e.busy.Lock()
	defer e.busy.Unlock()

	host, err := s.reachableHost(e, serial)
	if err != nil {
		return err
	}
	if err := s.client.SetSchedule(ctx, host, serial, key, wire); err != nil {
		if errors.Is(err, terneo.ErrUnreachable) {
			s.markUnreachable(ctx, e, err)
			return err
		}
		if _, rerr := s.refreshLocked(ctx, e); rerr != nil {
			s.log.Warnw("re-read after rejected write failed", "serial", serial, "err", rerr)
		}
		return err
	}
	s.record(ctx, serial, models.EventScheduleChanged, "schedule updated for "+day.String(),
		map[string]any{"day": day.String(), "periods": len(periods)})
	return nil
}

// SetWeeklySchedule replaces every day present in the map. All days are
// validated before the first write, so a bad Friday never leaves Monday
// half-written.
func (s *Synchronizer) SetWeeklySchedule(ctx context.Context, serial string, week map[time.Weekday][]models.SchedulePeriod) error {
	if len(week) == 0 {
		return fmt.Errorf("%w: empty week", terneo.ErrInvalidSchedule)
	}
	for day, periods := range week {
		if _, err := terneo.EncodeScheduleDay(periods); err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
	}
	for _, day := range weekOrder {
		periods, ok := week[day]
		if !ok {
			continue
		}
		if err := s.SetScheduleDay(ctx, serial, day, periods); err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
	}
	return nil
}

// SetAwayWindow programs the away period and its temperatures.
func (s *Synchronizer) SetAwayWindow(ctx context.Context, serial string, w models.AwayWindow) error {
	st, err := s.GetState(ctx, serial)
	if err != nil {
		return err
	}
	params, err := terneo.EncodeAwayWindow(w, s.awayParams, st.MinTemp, st.MaxTemp)
	if err != nil {
		return err
	}
	return s.writeParams(ctx, serial, params, "away window")
}

// SetRawParameter writes one parameter by id. Only ids with a known wire
// type are accepted; the value must decode cleanly for that type before
// anything is sent.
func (s *Synchronizer) SetRawParameter(ctx context.Context, serial string, id int, value string) error {
	info, ok := terneo.KnownParams[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownParameter, id)
	}
	if _, err := terneo.Decode(info.Type, value); err != nil {
		return err
	}
	p := terneo.Parameter{ID: id, Type: info.Type, Raw: value}
	return s.writeParams(ctx, serial, []terneo.Parameter{p}, fmt.Sprintf("parameter %d (%s)", id, info.Name))
}

// writeParams is the single write path: serialize on the device, fail fast
// when it is unreachable, merge the accepted values optimistically, then
// schedule a confirming re-read.
func (s *Synchronizer) writeParams(ctx context.Context, serial string, params []terneo.Parameter, desc string) error {
	e, err := s.entry(serial)
	if err != nil {
		return err
	}

	e.busy.Lock()
	defer e.busy.Unlock()

	host, err := s.reachableHost(e, serial)
	if err != nil {
		return err
	}

	if err := s.client.SetParameters(ctx, host, serial, params); err != nil {
		if errors.Is(err, terneo.ErrUnreachable) {
			s.markUnreachable(ctx, e, err)
			return err
		}
		// The device answered but refused the batch. What it actually kept is
		// ambiguous, so re-read before letting the cached state drift.
		if _, rerr := s.refreshLocked(ctx, e); rerr != nil {
			s.log.Warnw("re-read after rejected write failed", "serial", serial, "err", rerr)
		}
		return err
	}

	written := make(map[int]any, len(params))
	for _, p := range params {
		if v, derr := terneo.Decode(p.Type, p.Raw); derr == nil {
			written[p.ID] = v
		}
	}
	s.apply(ctx, e, func(snap *terneo.Snapshot) {
		// Fresh map: the previous one is still referenced by earlier states.
		merged := make(map[int]any, len(snap.Parameters)+len(written))
		for id, v := range snap.Parameters {
			merged[id] = v
		}
		for id, v := range written {
			merged[id] = v
		}
		snap.Parameters = merged
	})
	s.log.Infow("write accepted: "+desc, "serial", serial)

	time.AfterFunc(s.opts.ConfirmDelay, func() {
		s.confirm(e, written)
	})
	return nil
}

// reachableHost returns the device's host, or an error when the last poll
// found it dead. Commands fail fast instead of queueing behind a timeout the
// caller cannot see.
func (s *Synchronizer) reachableHost(e *deviceEntry, serial string) (string, error) {
	e.mu.RLock()
	host := e.identity.Host
	reachable := e.state.Reachable
	e.mu.RUnlock()
	if !reachable {
		return "", fmt.Errorf("%w: %s", terneo.ErrUnreachable, serial)
	}
	return host, nil
}

// confirm re-reads the device after a write settles and reports every value
// the firmware adjusted or silently refused.
func (s *Synchronizer) confirm(e *deviceEntry, written map[int]any) {
	ctx, cancel := context.WithTimeout(context.Background(), confirmTimeout)
	defer cancel()

	e.busy.Lock()
	defer e.busy.Unlock()

	e.mu.RLock()
	gone := e.gone
	serial := e.identity.Serial
	e.mu.RUnlock()
	if gone {
		return
	}

	st, err := s.refreshLocked(ctx, e)
	if err != nil {
		s.log.Warnw("confirming read failed", "serial", serial, "err", err)
		return
	}
	for id, want := range written {
		got, ok := st.Parameters[id]
		if ok && got == want {
			continue
		}
		s.record(ctx, serial, models.EventCorrection,
			fmt.Sprintf("device adjusted parameter %d", id),
			map[string]any{"id": id, "written": want, "device": got})
	}
}
