/*
aggregate.go - Per-employee records and per-business summary

PURPOSE:
  Combines reconciliation output, past-due hours, pay rates and the monthly
  quota into AssessmentRecords and one AssessmentSummary.

FORMULAS (all finalized values rounded to Config.Precision):
  currentHours     = round(totalMinutes / 60)
  hoursShort       = max(0, requiredHours - currentHours)
  currentIncomeDue = round(currentHours × payRate)
  potentialIncome  = round(requiredHours × payRate)
  averageAttendancePct = round(totalHoursWorked / (requiredHours × employees) × 100)
                         (0 when there are no employees)

PURITY:
  Aggregate has no side effects and does not read the clock. Identical inputs
  produce identical outputs, so a recalculation can always be repeated.
*/
package attendance

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

var hundred = decimal.NewFromInt(100)

// EmployeeInput bundles everything the aggregator needs for one employee.
// A nil Work means the employee has no punches this month.
type EmployeeInput struct {
	Employee     Employee
	Work         *WorkAccumulator
	PastDueHours decimal.Decimal
}

type Aggregator struct {
	Config Config
}

// Aggregate builds the ordered records and the summary for month.
// Records are ordered by slot ascending, ties by employee ID.
func (a Aggregator) Aggregate(month generic.Month, inputs []EmployeeInput) ([]AssessmentRecord, AssessmentSummary) {
	cfg := a.Config
	required := cfg.round(cfg.RequiredHoursPerMonth)

	ordered := make([]EmployeeInput, len(inputs))
	copy(ordered, inputs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Employee.Slot != ordered[j].Employee.Slot {
			return ordered[i].Employee.Slot < ordered[j].Employee.Slot
		}
		return ordered[i].Employee.ID < ordered[j].Employee.ID
	})

	records := make([]AssessmentRecord, 0, len(ordered))
	summary := AssessmentSummary{
		Month:                 month,
		TotalHoursWorked:      decimal.Zero,
		TotalHoursShort:       decimal.Zero,
		TotalAmountDue:        decimal.Zero,
		TotalPotentialPayroll: decimal.Zero,
		AverageAttendancePct:  decimal.Zero,
		RequiredHoursPerMonth: required,
	}

	for i, in := range ordered {
		rec := a.record(month, required, in)
		rec.EmployeeIndex = i + 1
		records = append(records, rec)

		summary.TotalEmployees++
		summary.TotalHoursWorked = summary.TotalHoursWorked.Add(rec.CurrentHours)
		summary.TotalHoursShort = summary.TotalHoursShort.Add(rec.HoursShort)
		summary.TotalAmountDue = summary.TotalAmountDue.Add(rec.CurrentIncomeDue)
		summary.TotalPotentialPayroll = summary.TotalPotentialPayroll.Add(rec.PotentialIncome)
	}

	summary.TotalHoursWorked = cfg.round(summary.TotalHoursWorked)
	summary.TotalHoursShort = cfg.round(summary.TotalHoursShort)
	summary.TotalAmountDue = cfg.round(summary.TotalAmountDue)
	summary.TotalPotentialPayroll = cfg.round(summary.TotalPotentialPayroll)

	capacity := required.Mul(decimal.NewFromInt(int64(summary.TotalEmployees)))
	if summary.TotalEmployees > 0 && capacity.IsPositive() {
		summary.AverageAttendancePct = cfg.round(summary.TotalHoursWorked.Div(capacity).Mul(hundred))
	}

	return records, summary
}

func (a Aggregator) record(month generic.Month, required decimal.Decimal, in EmployeeInput) AssessmentRecord {
	cfg := a.Config
	emp := in.Employee

	worked := generic.NewAmountFromDecimal(in.Work.TotalMinutes(), generic.UnitMinutes).ToHours().Round(cfg.Precision)
	quota := generic.NewAmountFromDecimal(required, generic.UnitHours)
	short := quota.Sub(worked).ClampZero().Round(cfg.Precision)
	due := worked.Mul(emp.PayRate).As(generic.UnitCurrency).Round(cfg.Precision)
	potential := quota.Mul(emp.PayRate).As(generic.UnitCurrency).Round(cfg.Precision)

	anomalies := 0
	if in.Work != nil {
		anomalies = len(in.Work.Anomalies)
	}

	return AssessmentRecord{
		EmployeeID:       emp.ID,
		EmployeeName:     emp.Name,
		Slot:             emp.Slot,
		Month:            month,
		RequiredHours:    required,
		CurrentHours:     worked.Value,
		PastDueHours:     cfg.round(in.PastDueHours),
		HoursShort:       short.Value,
		PayRate:          emp.PayRate,
		CurrentIncomeDue: due.Value,
		PotentialIncome:  potential.Value,
		AttendanceDays:   in.Work.AttendanceDays(),
		Status:           cfg.StatusFor(short.Value),
		Active:           emp.Active,
		AttendanceStatus: emp.AttendanceStatus(),
		Anomalies:        anomalies,
	}
}
