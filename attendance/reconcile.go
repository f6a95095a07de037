/*
reconcile.go - Chronological pairing of punches

PURPOSE:
  Turns one employee's unordered punches into worked time. Each clock-in is
  matched with the next clock-out; everything that does not pair cleanly is
  recorded as an Anomaly and earns no credit.

ALGORITHM:
  1. Stable sort by timestamp (ties keep arrival order)
  2. Scan with a single open clock-in:
     - ClockIn while open   → overlapping_clock_in, previous session dropped
     - ClockOut while open  → interval, both dates become attendance dates
     - ClockOut while clear → orphan_clock_out, ignored
  3. Open clock-in at the end → incomplete_session, no credit

  Pairing state is sequential: one employee's stream is always processed as a
  single unit. Different employees are independent.

EXAMPLE:
  08:00 in, 12:00 out, 13:00 in, 17:00 out  → 480 minutes, 1 date
  08:00 in, 09:00 in, 17:00 out             → 480 minutes, 1 overlapping anomaly
*/
package attendance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// WORK ACCUMULATOR - Per-employee reconciliation result
// =============================================================================

// WorkAccumulator is the fixed-shape result of reconciling one employee.
type WorkAccumulator struct {
	EmployeeID EmployeeID
	Total      time.Duration
	Dates      map[generic.Date]struct{}
	Intervals  []WorkInterval
	Anomalies  []Anomaly
}

func newWorkAccumulator(id EmployeeID) *WorkAccumulator {
	return &WorkAccumulator{EmployeeID: id, Dates: make(map[generic.Date]struct{})}
}

// TotalMinutes is the credited time in (possibly fractional) minutes.
func (a *WorkAccumulator) TotalMinutes() decimal.Decimal {
	if a == nil {
		return decimal.Zero
	}
	return durationMinutes(a.Total)
}

// AttendanceDays counts distinct dates touched by at least one completed interval.
func (a *WorkAccumulator) AttendanceDays() int {
	if a == nil {
		return 0
	}
	return len(a.Dates)
}

// AttendanceDates returns the attendance dates in ascending order.
func (a *WorkAccumulator) AttendanceDates() []generic.Date {
	if a == nil {
		return nil
	}
	dates := make([]generic.Date, 0, len(a.Dates))
	for d := range a.Dates {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func (a *WorkAccumulator) anomaly(kind AnomalyKind, at time.Time) {
	a.Anomalies = append(a.Anomalies, Anomaly{EmployeeID: a.EmployeeID, Kind: kind, At: at})
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler pairs punches. Location decides which calendar day an instant
// belongs to; nil means UTC.
type Reconciler struct {
	Location *time.Location
}

// Reconcile pairs the events of a single employee. The input slice is not modified.
func (r Reconciler) Reconcile(employeeID EmployeeID, events []ClockEvent) *WorkAccumulator {
	acc := newWorkAccumulator(employeeID)

	ordered := make([]ClockEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].At.Before(ordered[j].At)
	})

	var open *time.Time
	for i := range ordered {
		ev := ordered[i]
		switch ev.Kind {
		case ClockIn:
			if open != nil {
				acc.anomaly(AnomalyOverlappingClockIn, *open)
			}
			at := ev.At
			open = &at

		case ClockOut:
			if open == nil {
				acc.anomaly(AnomalyOrphanClockOut, ev.At)
				continue
			}
			d := max(0, ev.At.Sub(*open))
			acc.Total += d
			acc.Intervals = append(acc.Intervals, WorkInterval{
				EmployeeID: employeeID,
				Start:      *open,
				End:        ev.At,
				Duration:   d,
			})
			acc.Dates[generic.DateIn(*open, r.Location)] = struct{}{}
			acc.Dates[generic.DateIn(ev.At, r.Location)] = struct{}{}
			open = nil
		}
	}

	if open != nil {
		acc.anomaly(AnomalyIncompleteSession, *open)
	}
	return acc
}

// =============================================================================
// GROUPING
// =============================================================================

// GroupByEmployee splits a business-wide event list per employee, keeping the
// arrival order inside each group so that tie-breaking stays stable.
func GroupByEmployee(events []ClockEvent) map[EmployeeID][]ClockEvent {
	grouped := make(map[EmployeeID][]ClockEvent)
	for _, ev := range events {
		grouped[ev.EmployeeID] = append(grouped[ev.EmployeeID], ev)
	}
	return grouped
}
