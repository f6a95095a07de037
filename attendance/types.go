/*
Package attendance implements the monthly attendance assessment engine.

PURPOSE:
  Turns raw clock-in/clock-out punches into worked hours per employee,
  compares them with a monthly quota, projects scheduled "past-due" hours
  from the employee's shift, and rolls everything up into per-employee
  records and a per-business summary.

COMPONENTS (leaves first):
  - Reconciler (reconcile.go):   Pairs one employee's punches into intervals
  - PastDueCalculator (pastdue.go): Expected hours for fully elapsed days
  - Aggregator (aggregate.go):   Pure roll-up into records + summary
  - Engine (engine.go):          Fetch, compute in memory, commit atomically

DATA FLOW:
  EmployeeDirectory ──► roster ─────────────────────────┐
  EventStore ──► punches ──► Reconciler ────────────────┼──► Aggregator ──► AssessmentStore
  ShiftDirectory ──► schedule ──► PastDueCalculator ────┘

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee, ShiftSchedule, ClockEvent: read-only inputs
  - WorkInterval, Anomaly: reconciliation output
  - AssessmentRecord, AssessmentSummary, Assessment: results

SEE ALSO:
  - generic/: Amount, Date, Month, Clock
  - store/sqlite: System-of-record implementation of the collaborators
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type ShiftID string

// =============================================================================
// EMPLOYEE - Directory entry (read-only to the engine)
// =============================================================================

type Employee struct {
	ID      EmployeeID
	Slot    int // display ordering only, never a partition key
	Name    string
	PayRate decimal.Decimal // currency per hour, >= 0
	ShiftID ShiftID         // empty when no shift is assigned
	Active  bool
}

func (e Employee) HasShift() bool { return e.ShiftID != "" }

// AttendanceStatus is the label reports show next to the employee.
func (e Employee) AttendanceStatus() string {
	if e.Active {
		return "active"
	}
	return "inactive"
}

// =============================================================================
// CLOCK EVENT - Single punch
// =============================================================================

// ClockEventKind is the strict two-valued punch kind. Raw device vocabulary is
// mapped onto it by NormalizeKind at the event store boundary.
type ClockEventKind int

const (
	ClockIn ClockEventKind = iota + 1
	ClockOut
)

func (k ClockEventKind) String() string {
	switch k {
	case ClockIn:
		return "clock-in"
	case ClockOut:
		return "clock-out"
	default:
		return "unknown"
	}
}

func (k ClockEventKind) Valid() bool { return k == ClockIn || k == ClockOut }

type ClockEvent struct {
	EmployeeID EmployeeID
	At         time.Time
	Kind       ClockEventKind
}

// =============================================================================
// RECONCILIATION OUTPUT
// =============================================================================

// WorkInterval is a matched clock-in/clock-out pair.
type WorkInterval struct {
	EmployeeID EmployeeID
	Start      time.Time
	End        time.Time
	Duration   time.Duration // never negative
}

// Minutes returns the interval length in (possibly fractional) minutes.
func (w WorkInterval) Minutes() decimal.Decimal {
	return durationMinutes(w.Duration)
}

type AnomalyKind string

const (
	AnomalyOverlappingClockIn AnomalyKind = "overlapping_clock_in"
	AnomalyOrphanClockOut     AnomalyKind = "orphan_clock_out"
	AnomalyIncompleteSession  AnomalyKind = "incomplete_session"
)

// Anomaly is a non-fatal pairing defect. It is reported next to the results
// and never blocks the computation.
type Anomaly struct {
	EmployeeID EmployeeID  `json:"employeeId"`
	Kind       AnomalyKind `json:"kind"`
	At         time.Time   `json:"at"`
}

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusOnTrack  Status = "on_track"
	StatusBehind   Status = "behind"
	StatusCritical Status = "critical"
)

// Label is the human-readable status shown on reports.
func (s Status) Label() string {
	switch s {
	case StatusBehind:
		return "Behind"
	case StatusCritical:
		return "Critical"
	default:
		return "On Track"
	}
}

// Color is the report colour associated with the status.
func (s Status) Color() string {
	switch s {
	case StatusBehind:
		return "#fd7e14"
	case StatusCritical:
		return "#dc3545"
	default:
		return "#28a745"
	}
}

// =============================================================================
// ASSESSMENT - Results for one (business, month)
// =============================================================================

type AssessmentRecord struct {
	EmployeeID       EmployeeID      `json:"employeeId"`
	EmployeeName     string          `json:"employeeName"`
	EmployeeIndex    int             `json:"employeeIndex"`
	Slot             int             `json:"slot"`
	Month            generic.Month   `json:"month"`
	RequiredHours    decimal.Decimal `json:"requiredHours"`
	CurrentHours     decimal.Decimal `json:"currentHours"`
	PastDueHours     decimal.Decimal `json:"pastDueHours"`
	HoursShort       decimal.Decimal `json:"hoursShort"`
	PayRate          decimal.Decimal `json:"payRate"`
	CurrentIncomeDue decimal.Decimal `json:"currentIncomeDue"`
	PotentialIncome  decimal.Decimal `json:"potentialIncome"`
	AttendanceDays   int             `json:"attendanceDays"`
	Status           Status          `json:"status"`
	Active           bool            `json:"active"`
	AttendanceStatus string          `json:"attendanceStatus"`
	Anomalies        int             `json:"anomalies"`
}

type AssessmentSummary struct {
	Month                 generic.Month   `json:"month"`
	TotalEmployees        int             `json:"totalEmployees"`
	TotalHoursWorked      decimal.Decimal `json:"totalHoursWorked"`
	TotalHoursShort       decimal.Decimal `json:"totalHoursShort"`
	TotalAmountDue        decimal.Decimal `json:"totalAmountDue"`
	TotalPotentialPayroll decimal.Decimal `json:"totalPotentialPayroll"`
	AverageAttendancePct  decimal.Decimal `json:"averageAttendancePct"`
	RequiredHoursPerMonth decimal.Decimal `json:"requiredHoursPerMonth"`
}

// CalculationVersion tags stored assessments so readers can detect old layouts.
const CalculationVersion = "2.0"

// Assessment is the unit of atomic replacement keyed by (BusinessID, Month).
type Assessment struct {
	BusinessID         generic.BusinessID `json:"businessId"`
	Month              generic.Month      `json:"month"`
	Summary            AssessmentSummary  `json:"summary"`
	Records            []AssessmentRecord `json:"employees"`
	Anomalies          []Anomaly          `json:"anomalies"`
	CalculatedAt       time.Time          `json:"calculatedAt"`
	CalculationVersion string             `json:"calculationVersion"`
}

// Key returns the replacement key of the assessment.
func (a *Assessment) Key() AssessmentKey {
	return AssessmentKey{BusinessID: a.BusinessID, Month: a.Month}
}

type AssessmentKey struct {
	BusinessID generic.BusinessID
	Month      generic.Month
}

func (k AssessmentKey) String() string { return string(k.BusinessID) + ":" + k.Month.String() }

// =============================================================================
// RECALCULATION RUN - Audit of each Recalculate call
// =============================================================================

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

type Run struct {
	ID          string
	BusinessID  generic.BusinessID
	Month       generic.Month
	Status      RunStatus
	Employees   int
	Anomalies   int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

func durationMinutes(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(decimal.NewFromInt(int64(time.Minute)))
}
