package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CLOCK TIME - Minutes since midnight
// =============================================================================

// ClockTime is a wall-clock time of day in minutes since midnight, [0, 1440).
type ClockTime int

const minutesPerDay = 24 * 60

// ParseClockTime parses a strict "HH:MM" (24h) string.
func ParseClockTime(s string) (ClockTime, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("hour out of range in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("minute out of range in %q", s)
	}
	return ClockTime(h*60 + m), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// =============================================================================
// SHIFT SCHEDULE
// =============================================================================

// DaySchedule is one weekday entry of a shift.
type DaySchedule struct {
	Enabled      bool
	Start        ClockTime
	End          ClockTime
	BreakMinutes *int // nil falls back to the shift default
}

// SpanMinutes is the scheduled presence for the day before breaks.
// An end earlier than the start wraps past midnight.
func (d DaySchedule) SpanMinutes() int {
	span := int(d.End) - int(d.Start)
	if span < 0 {
		span += minutesPerDay
	}
	return span
}

type ShiftSchedule struct {
	ID                  ShiftID
	Name                string
	Days                map[time.Weekday]DaySchedule
	DefaultBreakMinutes *int
}

// Entry returns the schedule for a weekday; ok is false when the day is absent.
func (s *ShiftSchedule) Entry(wd time.Weekday) (DaySchedule, bool) {
	d, ok := s.Days[wd]
	return d, ok
}

// BreakFor resolves entry break → shift default → 0.
func (s *ShiftSchedule) BreakFor(d DaySchedule) int {
	if d.BreakMinutes != nil {
		return *d.BreakMinutes
	}
	if s.DefaultBreakMinutes != nil {
		return *s.DefaultBreakMinutes
	}
	return 0
}

// ScheduledMinutes is the payable scheduled time for the weekday, never negative.
func (s *ShiftSchedule) ScheduledMinutes(wd time.Weekday) int {
	d, ok := s.Entry(wd)
	if !ok || !d.Enabled {
		return 0
	}
	return max(0, d.SpanMinutes()-s.BreakFor(d))
}

// Validate checks the invariants NewDaySchedule enforces, for schedules that
// were assembled by hand rather than parsed.
func (s *ShiftSchedule) Validate() error {
	if s.DefaultBreakMinutes != nil && *s.DefaultBreakMinutes < 0 {
		return &ScheduleFormatError{ShiftID: s.ID, Day: "default", Field: "breakMinutes",
			Value: strconv.Itoa(*s.DefaultBreakMinutes), Reason: "negative break"}
	}
	for wd, d := range s.Days {
		if wd < time.Sunday || wd > time.Saturday {
			return &ScheduleFormatError{ShiftID: s.ID, Day: strconv.Itoa(int(wd)), Field: "weekday",
				Value: strconv.Itoa(int(wd)), Reason: "not a weekday"}
		}
		if err := validateDay(s.ID, wd, d); err != nil {
			return err
		}
	}
	return nil
}

func validateDay(id ShiftID, wd time.Weekday, d DaySchedule) error {
	day := WeekdayName(wd)
	if d.Start < 0 || d.Start >= minutesPerDay {
		return &ScheduleFormatError{ShiftID: id, Day: day, Field: "startTime", Value: strconv.Itoa(int(d.Start)), Reason: "out of range"}
	}
	if d.End < 0 || d.End >= minutesPerDay {
		return &ScheduleFormatError{ShiftID: id, Day: day, Field: "endTime", Value: strconv.Itoa(int(d.End)), Reason: "out of range"}
	}
	if d.BreakMinutes != nil && *d.BreakMinutes < 0 {
		return &ScheduleFormatError{ShiftID: id, Day: day, Field: "breakMinutes", Value: strconv.Itoa(*d.BreakMinutes), Reason: "negative break"}
	}
	if d.Enabled && d.Start == d.End {
		return &ScheduleFormatError{ShiftID: id, Day: day, Field: "endTime", Value: d.End.String(), Reason: "end equals start"}
	}
	return nil
}

// NewDaySchedule parses a raw weekday entry. Times of disabled days are still
// parsed when present so that a later enable cannot resurrect garbage.
func NewDaySchedule(id ShiftID, wd time.Weekday, enabled bool, start, end string, breakMinutes *int) (DaySchedule, error) {
	d := DaySchedule{Enabled: enabled, BreakMinutes: breakMinutes}
	day := WeekdayName(wd)

	if start != "" || enabled {
		t, err := ParseClockTime(start)
		if err != nil {
			return DaySchedule{}, &ScheduleFormatError{ShiftID: id, Day: day, Field: "startTime", Value: start, Reason: err.Error()}
		}
		d.Start = t
	}
	if end != "" || enabled {
		t, err := ParseClockTime(end)
		if err != nil {
			return DaySchedule{}, &ScheduleFormatError{ShiftID: id, Day: day, Field: "endTime", Value: end, Reason: err.Error()}
		}
		d.End = t
	}
	if err := validateDay(id, wd, d); err != nil {
		return DaySchedule{}, err
	}
	return d, nil
}

// =============================================================================
// WEEKDAY NAMES
// =============================================================================

var weekdayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// WeekdayName returns the lowercase schedule key for wd.
func WeekdayName(wd time.Weekday) string {
	if wd < time.Sunday || wd > time.Saturday {
		return "invalid"
	}
	return weekdayNames[wd]
}

// ParseWeekday maps a schedule key ("monday", "Mon") to a weekday.
func ParseWeekday(s string) (time.Weekday, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range weekdayNames {
		if key == name || (len(key) == 3 && strings.HasPrefix(name, key)) {
			return time.Weekday(i), true
		}
	}
	return 0, false
}
