/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate one business with realistic
	data: a weekday shift, a small staff directory, and a month of punches.
	The month is recalculated right after seeding so the dashboard has
	something to show.

AVAILABLE SCENARIOS:

	full-attendance:  Four staff who clock every scheduled day
	mixed-attendance: Partial attendance, pairing anomalies, filtered punches,
	                  a placeholder entry and a staff member on an unknown shift

HOW SCENARIOS WORK:
 1. Reset the business (clear all of its rows)
 2. Create the weekday shift via factory.ShiftFactory
 3. Create staff via factory.StaffFactory
 4. Generate punches for every elapsed day of the month
 5. Recalculate the month

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mixed-attendance", "business_id": "demo-business", "month": "2026-03"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add a staff plan to scenarioPlans

NOTE:

	Scenarios wipe the target business. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Recalculate handler
  - factory/shift.go, factory/staff.go: Payload parsing
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store/sqlite"
)

// DemoBusinessID is seeded when a load request names no business.
const DemoBusinessID = "demo-business"

const (
	demoShiftID      = "weekday"
	demoMissingShift = "night-legacy"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "full-attendance",
		Name:        "Full Attendance",
		Description: "Four staff on a weekday 08:00-17:00 shift who clock every scheduled day",
	},
	{
		ID:          "mixed-attendance",
		Name:        "Mixed Attendance",
		Description: "Partial attendance, missed punches, test-mode and pending punches, a placeholder entry and an unknown shift",
	},
}

// pattern decides whether and how an employee worked on a given weekday
// (index counts elapsed weekdays from 0).
type pattern func(index int, d generic.Date, last bool) []punch

type punch struct {
	offset   time.Duration // from local midnight
	kind     string
	testMode bool
	pending  bool
}

type staffPlan struct {
	staff   factory.StaffJSON
	pattern pattern
	weekend pattern // optional, first elapsed Saturday only
}

var scenarioPlans = map[string][]staffPlan{
	"full-attendance": {
		{staff: staff("emp-001", 1, "Thandi Nkosi", `"25.50"`, demoShiftID), pattern: fullDay},
		{staff: staff("emp-002", 2, "Sipho Dlamini", `30`, demoShiftID), pattern: fullDay},
		{staff: staff("emp-003", 3, "Lerato Mokoena", `"18.75"`, demoShiftID), pattern: fullDay},
		{staff: staff("emp-004", 4, "Pieter van Wyk", `40`, demoShiftID), pattern: fullDay},
	},
	"mixed-attendance": {
		{staff: staff("emp-001", 1, "Thandi Nkosi", `"25.50"`, demoShiftID), pattern: fullDay, weekend: filteredPunches},
		{staff: staff("emp-002", 2, "Sipho Dlamini", `30`, demoShiftID), pattern: everyOtherDay},
		{staff: staff("emp-003", 3, "Lerato Mokoena", `"18.75"`, demoShiftID), pattern: shortDaysWithAnomalies, weekend: orphanClockOut},
		{staff: staff("emp-004", 4, "Pieter van Wyk", `40`, demoMissingShift), pattern: fullDay},
		{staff: staff("emp-005", 5, "Deleted - Former Staff", `20`, demoShiftID), pattern: fullDay},
	},
}

func staff(id string, slot int, name, rate, shiftID string) factory.StaffJSON {
	return factory.StaffJSON{ID: id, Slot: slot, EmployeeName: name, PayRate: json.RawMessage(rate), ShiftID: shiftID}
}

func fullDay(int, generic.Date, bool) []punch {
	return []punch{{offset: 8 * time.Hour, kind: "clock-in"}, {offset: 17 * time.Hour, kind: "clock-out"}}
}

func everyOtherDay(index int, d generic.Date, last bool) []punch {
	if index%2 == 1 {
		return nil
	}
	return fullDay(index, d, last)
}

// shortDaysWithAnomalies works 09:00-13:00, double-punches in on the first
// day and forgets to clock out on the last one.
func shortDaysWithAnomalies(index int, _ generic.Date, last bool) []punch {
	switch {
	case index == 0:
		return []punch{{offset: 8*time.Hour + 30*time.Minute, kind: "in"}, {offset: 9 * time.Hour, kind: "in"}, {offset: 13 * time.Hour, kind: "out"}}
	case last:
		return []punch{{offset: 9 * time.Hour, kind: "in"}}
	default:
		return []punch{{offset: 9 * time.Hour, kind: "check-in"}, {offset: 13 * time.Hour, kind: "check-out"}}
	}
}

// filteredPunches never count: one pair is a device test, the other is
// pending manual approval.
func filteredPunches(int, generic.Date, bool) []punch {
	return []punch{
		{offset: 9 * time.Hour, kind: "clock_in", testMode: true},
		{offset: 12 * time.Hour, kind: "clock_out", testMode: true},
		{offset: 13 * time.Hour, kind: "clock_in", pending: true},
		{offset: 15 * time.Hour, kind: "clock_out", pending: true},
	}
}

func orphanClockOut(int, generic.Date, bool) []punch {
	return []punch{{offset: 12 * time.Hour, kind: "clockout"}}
}

func demoShift() factory.ShiftJSON {
	breakMinutes := 60
	sj := factory.ShiftJSON{
		ID:                  demoShiftID,
		Name:                "Weekday 08:00-17:00",
		DefaultBreakMinutes: &breakMinutes,
		Schedule:            map[string]factory.DayJSON{},
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		day := factory.DayJSON{Enabled: false}
		if wd != time.Saturday && wd != time.Sunday {
			day = factory.DayJSON{Enabled: true, StartTime: "08:00", EndTime: "17:00"}
		}
		sj.Schedule[attendance.WeekdayName(wd)] = day
	}
	return sj
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario seeds a business with a scenario and recalculates the month.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scenario request", err)
		return
	}

	businessID := generic.BusinessID(req.BusinessID)
	if businessID == "" {
		businessID = DemoBusinessID
	}
	month := generic.MonthOf(h.Clock.Now(), h.location())
	if req.Month != "" {
		parsed, err := generic.ParseMonth(req.Month)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		month = parsed
	}

	resp, err := h.loadScenario(r.Context(), req.ScenarioID, businessID, month)
	if err != nil {
		writeError(w, statusFor(err), "Failed to load scenario", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID, "business_id", string(businessID),
		"month", month.String(), "employees", resp.Employees, "events", resp.Events)
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// SEEDING
// =============================================================================

func (h *Handler) loadScenario(ctx context.Context, scenarioID string, businessID generic.BusinessID, month generic.Month) (*LoadScenarioResponse, error) {
	plans, ok := scenarioPlans[scenarioID]
	if !ok {
		return nil, fmt.Errorf("scenario %q: %w", scenarioID, generic.ErrNotFound)
	}

	if err := h.Store.ResetBusiness(ctx, businessID); err != nil {
		return nil, fmt.Errorf("reset business: %w", err)
	}
	if err := h.Store.SaveShift(ctx, businessID, demoShift()); err != nil {
		return nil, fmt.Errorf("save shift: %w", err)
	}

	for _, plan := range plans {
		emp, err := h.Staff.FromJSON(plan.staff)
		if err != nil {
			return nil, err
		}
		if err := h.Store.SaveEmployee(ctx, businessID, emp); err != nil {
			return nil, fmt.Errorf("save employee %s: %w", emp.ID, err)
		}
	}

	events := h.scenarioEvents(scenarioID, businessID, month, plans)
	if len(events) > 0 {
		if _, err := h.Store.AppendEvents(ctx, businessID, events); err != nil {
			return nil, fmt.Errorf("append events: %w", err)
		}
	}

	assessment, err := h.Engine.Recalculate(ctx, businessID, month)
	if err != nil {
		return nil, err
	}

	return &LoadScenarioResponse{
		ScenarioID: scenarioID,
		BusinessID: string(businessID),
		Month:      month.String(),
		Employees:  len(plans),
		Events:     len(events),
		Assessment: assessment,
	}, nil
}

// scenarioEvents generates punches for the days of month before today.
func (h *Handler) scenarioEvents(scenarioID string, businessID generic.BusinessID, month generic.Month, plans []staffPlan) []sqlite.EventRecord {
	loc := h.location()
	today := generic.DateIn(h.Clock.Now(), loc)
	elapsed := month.Period().Clip(today.AddDays(-1))
	if elapsed.IsEmpty() {
		return nil
	}

	var weekdays []generic.Date
	var firstSaturday generic.Date
	for _, d := range elapsed.Days() {
		switch d.Weekday() {
		case time.Saturday:
			if firstSaturday.IsZero() {
				firstSaturday = d
			}
		case time.Sunday:
		default:
			weekdays = append(weekdays, d)
		}
	}

	var events []sqlite.EventRecord
	add := func(empID string, d generic.Date, seq int, p punch) {
		ev := sqlite.EventRecord{
			EmployeeID:     attendance.EmployeeID(empID),
			OccurredAt:     d.Time(loc).Add(p.offset),
			EventType:      p.kind,
			TestMode:       p.testMode,
			IdempotencyKey: fmt.Sprintf("%s:%s:%s:%s:%d", businessID, scenarioID, empID, d, seq),
		}
		if p.pending {
			ev.Status = "pending"
		}
		events = append(events, ev)
	}

	for _, plan := range plans {
		for i, d := range weekdays {
			for seq, p := range plan.pattern(i, d, i == len(weekdays)-1) {
				add(plan.staff.ID, d, seq, p)
			}
		}
		if plan.weekend != nil && !firstSaturday.IsZero() {
			for seq, p := range plan.weekend(0, firstSaturday, false) {
				add(plan.staff.ID, firstSaturday, seq, p)
			}
		}
	}
	return events
}

