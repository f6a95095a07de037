package generic

// =============================================================================
// PERIOD - Inclusive range of calendar days
// =============================================================================

// Period is the inclusive range [Start, End] of calendar days.
// A period whose End is before its Start is empty.
//
// Examples:
//   - Assessment month 2026-02: Feb 1 - Feb 28
//   - Elapsed part of the month on Feb 9: Feb 1 - Feb 8
type Period struct {
	Start Date
	End   Date
}

// IsEmpty reports whether the period contains no days.
func (p Period) IsEmpty() bool {
	return p.End.Before(p.Start)
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns all days in the period in ascending order.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Len returns the number of days in the period.
func (p Period) Len() int {
	if p.IsEmpty() {
		return 0
	}
	return int(p.End.utc().Sub(p.Start.utc()).Hours()/24) + 1
}

// Clip narrows the period so that it ends no later than end.
func (p Period) Clip(end Date) Period {
	if end.Before(p.End) {
		return Period{Start: p.Start, End: end}
	}
	return p
}

// Validate returns ErrInvalidPeriod when End is before Start.
func (p Period) Validate() error {
	if p.IsEmpty() {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
