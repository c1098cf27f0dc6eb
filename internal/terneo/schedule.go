package terneo

import (
	"errors"
	"fmt"
	"math"
	"time"

	"terneo_bridge/internal/models"
)

// ErrInvalidSchedule rejects malformed weekly programs before any network
// call is made.
var ErrInvalidSchedule = errors.New("invalid schedule")

const minutesPerDay = 1440

// DayKeyTable maps weekdays to the wire keys of the schedule object. The
// exact keys are a firmware detail, so they are a table rather than being
// hardcoded at the call sites.
type DayKeyTable map[time.Weekday]string

// DefaultDayKeys is the documented mapping: Monday is "0".
var DefaultDayKeys = DayKeyTable{
	time.Monday:    "0",
	time.Tuesday:   "1",
	time.Wednesday: "2",
	time.Thursday:  "3",
	time.Friday:    "4",
	time.Saturday:  "5",
	time.Sunday:    "6",
}

// EncodeScheduleDay converts one weekday program into the wire period list
// [[start_minute, temperature_tenths], ...]. Periods must be strictly
// ascending by start minute and inside [0, 1440).
func EncodeScheduleDay(periods []models.SchedulePeriod) ([][]int, error) {
	if len(periods) == 0 {
		return nil, fmt.Errorf("%w: empty day", ErrInvalidSchedule)
	}
	out := make([][]int, 0, len(periods))
	prev := -1
	for i, p := range periods {
		if p.StartMinute < 0 || p.StartMinute >= minutesPerDay {
			return nil, fmt.Errorf("%w: period %d starts at minute %d", ErrInvalidSchedule, i, p.StartMinute)
		}
		if p.StartMinute <= prev {
			return nil, fmt.Errorf("%w: period %d overlaps the previous one", ErrInvalidSchedule, i)
		}
		prev = p.StartMinute
		tenths := int(math.Round(p.Temperature * temperatureScale))
		out = append(out, []int{p.StartMinute, tenths})
	}
	return out, nil
}

// DecodeScheduleDay is the inverse of EncodeScheduleDay and applies the same
// ordering checks to what the device reports.
func DecodeScheduleDay(wire [][]int) ([]models.SchedulePeriod, error) {
	periods := make([]models.SchedulePeriod, 0, len(wire))
	prev := -1
	for i, entry := range wire {
		if len(entry) < 2 {
			return nil, fmt.Errorf("%w: period %d has %d fields", ErrInvalidSchedule, i, len(entry))
		}
		start := entry[0]
		if start < 0 || start >= minutesPerDay {
			return nil, fmt.Errorf("%w: period %d starts at minute %d", ErrInvalidSchedule, i, start)
		}
		if start <= prev {
			return nil, fmt.Errorf("%w: period %d out of order", ErrInvalidSchedule, i)
		}
		prev = start
		periods = append(periods, models.SchedulePeriod{
			StartMinute: start,
			Temperature: float64(entry[1]) / temperatureScale,
		})
	}
	return periods, nil
}

// AwayParamTable holds the parameter ids of the away window. Like the day
// keys, these are firmware-dependent and therefore configurable.
type AwayParamTable struct {
	StartTime int
	EndTime   int
	AirTemp   int
	FloorTemp int
}

// DefaultAwayParams matches the vendor protocol documentation.
var DefaultAwayParams = AwayParamTable{
	StartTime: ParamStartAwayTime,
	EndTime:   ParamEndAwayTime,
	AirTemp:   ParamAwayAir,
	FloorTemp: ParamAwayFloor,
}

// EncodeAwayWindow builds the parameter delta for an away window. Omitted
// temperatures produce no parameter at all; writing a sentinel instead would
// overwrite whatever the device currently holds.
func EncodeAwayWindow(w models.AwayWindow, tbl AwayParamTable, minTemp, maxTemp float64) ([]Parameter, error) {
	if w.End < w.Start {
		return nil, fmt.Errorf("%w: away window ends before it starts", ErrOutOfRange)
	}
	start, err := EncodeInt(TypeUInt32, w.Start)
	if err != nil {
		return nil, err
	}
	end, err := EncodeInt(TypeUInt32, w.End)
	if err != nil {
		return nil, err
	}
	params := []Parameter{
		{ID: tbl.StartTime, Type: TypeUInt32, Raw: start},
		{ID: tbl.EndTime, Type: TypeUInt32, Raw: end},
	}
	if w.FloorTemp != nil {
		raw, err := EncodeTemperature(TypeInt16, *w.FloorTemp, minTemp, maxTemp)
		if err != nil {
			return nil, err
		}
		params = append(params, Parameter{ID: tbl.FloorTemp, Type: TypeInt16, Raw: raw})
	}
	if w.AirTemp != nil {
		raw, err := EncodeTemperature(TypeInt16, *w.AirTemp, minTemp, maxTemp)
		if err != nil {
			return nil, err
		}
		params = append(params, Parameter{ID: tbl.AirTemp, Type: TypeInt16, Raw: raw})
	}
	return params, nil
}
