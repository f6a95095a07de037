/*
Package factory provides JSON to Go conversion for directory records.

PURPOSE:
  Shift schedules and staff records arrive as loosely typed JSON from the
  admin UI, device importers and the HTTP API. The factory turns them into
  attendance.ShiftSchedule and attendance.Employee values, rejecting anything
  the engine cannot use instead of coercing it to zero.

SHIFT JSON:
  {
    "id": "day-shift",
    "name": "Day shift",
    "active": true,
    "defaultBreakMinutes": 30,
    "schedule": {
      "monday":   {"enabled": true, "startTime": "08:00", "endTime": "17:00", "breakMinutes": 60},
      "saturday": {"enabled": false}
    }
  }

  Older records spell the break as "breakDuration"/"defaultBreakDuration" and
  the name as "shiftName"; both are accepted on input.

USAGE:
  f := factory.NewShiftFactory()
  schedule, err := f.ParseShift(data)
  if errors.Is(err, attendance.ErrInvalidScheduleFormat) { ... }

SEE ALSO:
  - attendance/schedule.go: ShiftSchedule, NewDaySchedule
  - staff.go: Staff record conversion
  - store/sqlite: Stores ShiftJSON as the shift's config column
*/
package factory

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ShiftJSON is the JSON representation of a shift schedule.
type ShiftJSON struct {
	ID                  string             `json:"id" validate:"required,max=128"`
	Name                string             `json:"name" validate:"max=200"`
	Active              *bool              `json:"active,omitempty"`
	DefaultBreakMinutes *int               `json:"defaultBreakMinutes,omitempty" validate:"omitempty,min=0,max=1440"`
	Schedule            map[string]DayJSON `json:"schedule"`

	// Legacy spellings, folded into the fields above by normalize.
	ShiftName            string `json:"shiftName,omitempty"`
	DefaultBreakDuration *int   `json:"defaultBreakDuration,omitempty"`
}

// DayJSON is one weekday entry.
type DayJSON struct {
	Enabled       bool   `json:"enabled"`
	StartTime     string `json:"startTime,omitempty"`
	EndTime       string `json:"endTime,omitempty"`
	BreakMinutes  *int   `json:"breakMinutes,omitempty"`
	BreakDuration *int   `json:"breakDuration,omitempty"`
}

// IsActive reports whether the shift may be assigned. Missing means active.
func (s ShiftJSON) IsActive() bool {
	return s.Active == nil || *s.Active
}

func (s *ShiftJSON) normalize() {
	if s.Name == "" {
		s.Name = s.ShiftName
	}
	if s.DefaultBreakMinutes == nil {
		s.DefaultBreakMinutes = s.DefaultBreakDuration
	}
	s.ShiftName = ""
	s.DefaultBreakDuration = nil
	for key, d := range s.Schedule {
		if d.BreakMinutes == nil {
			d.BreakMinutes = d.BreakDuration
		}
		d.BreakDuration = nil
		s.Schedule[key] = d
	}
}

// =============================================================================
// SHIFT FACTORY
// =============================================================================

// ShiftFactory converts JSON shifts to attendance.ShiftSchedule.
type ShiftFactory struct {
	validate *validator.Validate
}

func NewShiftFactory() *ShiftFactory {
	return &ShiftFactory{validate: validator.New()}
}

// ParseShift parses raw JSON into a validated schedule.
func (f *ShiftFactory) ParseShift(data []byte) (*attendance.ShiftSchedule, error) {
	var sj ShiftJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return nil, fmt.Errorf("%w: failed to parse shift JSON: %v", attendance.ErrInvalidScheduleFormat, err)
	}
	return f.FromJSON(sj)
}

// FromJSON converts an already decoded ShiftJSON.
func (f *ShiftFactory) FromJSON(sj ShiftJSON) (*attendance.ShiftSchedule, error) {
	sj.Schedule = cloneDays(sj.Schedule)
	sj.normalize()

	if err := f.validate.Struct(sj); err != nil {
		return nil, shiftValidationError(sj.ID, err)
	}

	id := attendance.ShiftID(sj.ID)
	schedule := &attendance.ShiftSchedule{
		ID:                  id,
		Name:                sj.Name,
		Days:                make(map[time.Weekday]attendance.DaySchedule, len(sj.Schedule)),
		DefaultBreakMinutes: sj.DefaultBreakMinutes,
	}

	for key, d := range sj.Schedule {
		wd, ok := attendance.ParseWeekday(key)
		if !ok {
			return nil, &attendance.ScheduleFormatError{ShiftID: id, Day: key, Field: "weekday", Value: key, Reason: "unknown weekday"}
		}
		if _, dup := schedule.Days[wd]; dup {
			return nil, &attendance.ScheduleFormatError{ShiftID: id, Day: key, Field: "weekday", Value: key, Reason: "weekday listed twice"}
		}
		day, err := attendance.NewDaySchedule(id, wd, d.Enabled, d.StartTime, d.EndTime, d.BreakMinutes)
		if err != nil {
			return nil, err
		}
		schedule.Days[wd] = day
	}

	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return schedule, nil
}

// ToJSON renders a schedule back into its canonical JSON form.
func ToJSON(s *attendance.ShiftSchedule, active bool) ShiftJSON {
	sj := ShiftJSON{
		ID:                  string(s.ID),
		Name:                s.Name,
		Active:              &active,
		DefaultBreakMinutes: s.DefaultBreakMinutes,
		Schedule:            make(map[string]DayJSON, len(s.Days)),
	}

	days := make([]time.Weekday, 0, len(s.Days))
	for wd := range s.Days {
		days = append(days, wd)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	for _, wd := range days {
		d := s.Days[wd]
		dj := DayJSON{Enabled: d.Enabled, BreakMinutes: d.BreakMinutes}
		if d.Enabled {
			dj.StartTime = d.Start.String()
			dj.EndTime = d.End.String()
		}
		sj.Schedule[attendance.WeekdayName(wd)] = dj
	}
	return sj
}

func cloneDays(in map[string]DayJSON) map[string]DayJSON {
	out := make(map[string]DayJSON, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func shiftValidationError(id string, err error) error {
	if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
		fe := ves[0]
		if fe.Field() == "DefaultBreakMinutes" {
			return &attendance.ScheduleFormatError{
				ShiftID: attendance.ShiftID(id), Day: "default", Field: "defaultBreakMinutes",
				Value: fmt.Sprint(fe.Value()), Reason: "failed " + fe.Tag(),
			}
		}
		return fmt.Errorf("%w: shift %s failed %s", generic.ErrValidation, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", generic.ErrValidation, err)
}
