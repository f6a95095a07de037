/*
pastdue.go - Scheduled hours already owed this month

PURPOSE:
  Gives an early "falling behind" signal before the month closes. For each
  fully elapsed day of the month the employee's weekly shift says how many
  hours they should have worked; the sum is their past-due hours.

ELAPSED DAYS:
  - The month's first day up to the day before "now", in the business location
  - Today is excluded; it is still in progress
  - A month that has not started yet has no elapsed days

PER DAY:
  - Absent or disabled weekday → 0
  - Otherwise span (end − start, wrapping past midnight) minus the break,
    clamped at 0. Break resolves entry → shift default → 0

FAILURES:
  - No schedule (unassigned or missing shift) → 0, the run continues
  - Malformed schedule → ErrInvalidScheduleFormat, never a silent 0

SEE ALSO:
  - schedule.go: Day entries and break resolution
  - engine.go: Shift resolution and the fail-open policy
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// PAST-DUE HOURS
// =============================================================================

// PastDueCalculator derives the hours an employee should already have worked
// this month according to their weekly shift. Only days strictly before the
// day of "now" count; today is still in progress.
type PastDueCalculator struct {
	Location  *time.Location
	Precision int32
}

// ElapsedPeriod returns the fully elapsed days of month as of now. The period
// is empty when the month has not started yet.
func (c PastDueCalculator) ElapsedPeriod(month generic.Month, now time.Time) generic.Period {
	cutoff := generic.DateIn(now, c.Location).AddDays(-1)
	return month.Period().Clip(cutoff)
}

// PastDueHours sums scheduled hours (span minus break, clamped at 0) over the
// elapsed days of month. A nil schedule yields 0. A schedule that fails
// validation yields ErrInvalidScheduleFormat instead of a silent 0.
func (c PastDueCalculator) PastDueHours(schedule *ShiftSchedule, month generic.Month, now time.Time) (decimal.Decimal, error) {
	if schedule == nil {
		return decimal.Zero, nil
	}
	if err := schedule.Validate(); err != nil {
		return decimal.Zero, err
	}

	elapsed := c.ElapsedPeriod(month, now)
	if elapsed.IsEmpty() {
		return decimal.Zero, nil
	}

	var minutes int64
	for _, day := range elapsed.Days() {
		minutes += int64(schedule.ScheduledMinutes(day.Weekday()))
	}

	hours := decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60))
	return hours.Round(c.Precision), nil
}
