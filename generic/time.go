package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day without a time of day
// =============================================================================

// Date is a civil calendar day. It has no location; callers convert instants
// with DateIn using the business location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes its arguments the way time.Date does (Feb 30 → Mar 2).
func NewDate(year int, month time.Month, day int) Date {
	return dateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateIn returns the calendar day of t as observed in loc.
func DateIn(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return dateOf(t.In(loc))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return dateOf(t), nil
}

func dateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight of the day in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) utc() time.Time { return d.Time(time.UTC) }

// Comparison
func (d Date) Before(other Date) bool        { return d.utc().Before(other.utc()) }
func (d Date) After(other Date) bool         { return d.utc().After(other.utc()) }
func (d Date) Equal(other Date) bool         { return d == other }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return dateOf(d.utc().AddDate(0, 0, n)) }

// Properties
func (d Date) Weekday() time.Weekday { return d.utc().Weekday() }
func (d Date) IsZero() bool          { return d == Date{} }
func (d Date) YearMonth() Month      { return Month{Year: d.Year, Month: d.Month} }
func (d Date) String() string        { return d.utc().Format(time.DateOnly) }

// =============================================================================
// MONTH - Assessment key component
// =============================================================================

// Month identifies a calendar month, rendered as YYYY-MM.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MustParseMonth is ParseMonth for literals; it panics on malformed input.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MonthOf returns the month containing t as observed in loc.
func MonthOf(t time.Time, loc *time.Location) Month {
	return DateIn(t, loc).YearMonth()
}

func (m Month) First() Date { return NewDate(m.Year, m.Month, 1) }
func (m Month) Last() Date  { return NewDate(m.Year, m.Month+1, 1).AddDays(-1) }

// Period returns the inclusive range of days in the month.
func (m Month) Period() Period { return Period{Start: m.First(), End: m.Last()} }

// Bounds returns the half-open instant range [first midnight, next month's first midnight) in loc.
func (m Month) Bounds(loc *time.Location) (time.Time, time.Time) {
	start := m.First().Time(loc)
	return start, start.AddDate(0, 1, 0)
}

func (m Month) Next() Month    { return NewDate(m.Year, m.Month+1, 1).YearMonth() }
func (m Month) IsZero() bool   { return m == Month{} }
func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// MarshalText lets Month appear as "YYYY-MM" in JSON and YAML.
func (m Month) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// =============================================================================
// CLOCK - Injected time source
// =============================================================================

// Clock supplies "now". Production code uses SystemClock; tests pin a FixedClock.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
