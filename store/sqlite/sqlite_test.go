package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
)

const biz generic.BusinessID = "biz-1"

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func intPtr(n int) *int { return &n }

func dayShift() factory.ShiftJSON {
	return factory.ShiftJSON{
		ID:                  "day",
		Name:                "Day",
		DefaultBreakMinutes: intPtr(30),
		Schedule: map[string]factory.DayJSON{
			"monday": {Enabled: true, StartTime: "08:00", EndTime: "17:00", BreakMinutes: intPtr(60)},
		},
	}
}

func at(day, hour int) time.Time {
	return time.Date(2026, time.March, day, hour, 0, 0, 0, time.UTC)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_SaveAndList(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, biz, attendance.Employee{ID: "b", Slot: 2, Name: "Bo", PayRate: decimal.RequireFromString("12.5"), Active: true}))
	require.NoError(t, store.SaveEmployee(ctx, biz, attendance.Employee{ID: "a", Slot: 1, Name: "Ana", PayRate: decimal.NewFromInt(30), ShiftID: "day", Active: true}))
	require.NoError(t, store.SaveEmployee(ctx, biz, attendance.Employee{ID: "x", Slot: 3, Name: "Deleted - Xi", Active: true}))
	require.NoError(t, store.SaveEmployee(ctx, "other", attendance.Employee{ID: "z", Slot: 1, Name: "Zed", Active: true}))

	employees, err := store.ListEmployees(ctx, biz)
	require.NoError(t, err)

	require.Len(t, employees, 2)
	assert.Equal(t, attendance.EmployeeID("a"), employees[0].ID)
	assert.Equal(t, attendance.ShiftID("day"), employees[0].ShiftID)
	assert.True(t, decimal.RequireFromString("12.5").Equal(employees[1].PayRate))
	assert.False(t, employees[1].HasShift())

	all, err := store.ListAllEmployees(ctx, biz)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	businesses, err := store.ListBusinesses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []generic.BusinessID{"biz-1", "other"}, businesses)
}

func TestEmployees_UpsertKeepsOneRow(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, biz, attendance.Employee{ID: "a", Slot: 1, Name: "Ana", Active: true}))
	require.NoError(t, store.SaveEmployee(ctx, biz, attendance.Employee{ID: "a", Slot: 1, Name: "Ana", Active: false}))

	all, err := store.ListAllEmployees(ctx, biz)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)
}

func TestEmployees_CorruptPayRate_TypedError(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, err := store.db.Exec(`INSERT INTO employees (business_id, id, slot, name, pay_rate, active, created_at, updated_at)
		VALUES ('biz-1', 'a', 1, 'Ana', 'twenty', TRUE, '', '')`)
	require.NoError(t, err)

	_, err = store.ListEmployees(ctx, biz)

	assert.ErrorIs(t, err, attendance.ErrInvalidPayRate)
}

func TestEmployees_NegativePayRateRejected(t *testing.T) {
	store := newStore(t)

	err := store.SaveEmployee(context.Background(), biz, attendance.Employee{ID: "a", Name: "Ana", PayRate: decimal.NewFromInt(-1)})

	assert.ErrorIs(t, err, attendance.ErrInvalidPayRate)
}

// =============================================================================
// SHIFTS
// =============================================================================

func TestShifts_SaveAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveShift(ctx, biz, dayShift()))

	s, err := store.GetShift(ctx, biz, "day")
	require.NoError(t, err)

	assert.Equal(t, 480, s.ScheduledMinutes(time.Monday))
	require.NotNil(t, s.DefaultBreakMinutes)
	assert.Equal(t, 30, *s.DefaultBreakMinutes)

	shifts, err := store.ListShifts(ctx, biz)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.True(t, shifts[0].IsActive())
}

func TestShifts_Missing_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetShift(context.Background(), biz, "ghost")

	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestShifts_Inactive_Missing(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	sj := dayShift()
	inactive := false
	sj.Active = &inactive
	require.NoError(t, store.SaveShift(ctx, biz, sj))

	_, err := store.GetShift(ctx, biz, "day")

	assert.ErrorIs(t, err, attendance.ErrMissingShift)
}

func TestShifts_MalformedRejectedOnSave(t *testing.T) {
	store := newStore(t)
	sj := dayShift()
	sj.Schedule["tuesday"] = factory.DayJSON{Enabled: true, StartTime: "25:00", EndTime: "17:00"}

	err := store.SaveShift(context.Background(), biz, sj)

	assert.ErrorIs(t, err, attendance.ErrInvalidScheduleFormat)
}

func TestShifts_MalformedStoredConfig_ScheduleFormatError(t *testing.T) {
	// GIVEN: A row written by an older importer with a bad time
	store := newStore(t)
	_, err := store.db.Exec(`INSERT INTO shifts (business_id, id, name, active, config_json, updated_at)
		VALUES ('biz-1', 'old', 'Old', TRUE, '{"id":"old","schedule":{"monday":{"enabled":true,"startTime":"8h","endTime":"17:00"}}}', '')`)
	require.NoError(t, err)

	_, err = store.GetShift(context.Background(), biz, "old")

	assert.ErrorIs(t, err, attendance.ErrInvalidScheduleFormat)
}

// =============================================================================
// EVENTS
// =============================================================================

func TestEvents_AppendAndListMonth(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	res, err := store.AppendEvents(ctx, biz, []EventRecord{
		{EmployeeID: "a", OccurredAt: at(2, 17), EventType: "clock-out"},
		{EmployeeID: "a", OccurredAt: at(2, 8), EventType: "Clock In"},
		{EmployeeID: "a", OccurredAt: time.Date(2026, time.February, 28, 23, 0, 0, 0, time.UTC), EventType: "in"},
		{EmployeeID: "a", OccurredAt: time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), EventType: "in"},
		{EmployeeID: "a", OccurredAt: at(3, 8), AttendanceStatus: "in"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Inserted)

	from, to := generic.MustParseMonth("2026-03").Bounds(time.UTC)
	events, err := store.ListEvents(ctx, biz, from, to)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, at(2, 8), events[0].At)
	assert.Equal(t, attendance.ClockIn, events[0].Kind)
	assert.Equal(t, attendance.ClockOut, events[1].Kind)
	assert.Equal(t, attendance.ClockIn, events[2].Kind)
}

func TestEvents_IdempotencyKeyDeduplicates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	ev := EventRecord{EmployeeID: "a", OccurredAt: at(2, 8), EventType: "in", IdempotencyKey: "dev-1:42"}

	first, err := store.AppendEvents(ctx, biz, []EventRecord{ev})
	require.NoError(t, err)
	second, err := store.AppendEvents(ctx, biz, []EventRecord{ev, ev})
	require.NoError(t, err)

	assert.Equal(t, AppendResult{Inserted: 1}, first)
	assert.Equal(t, AppendResult{Duplicates: 2}, second)

	from, to := generic.MustParseMonth("2026-03").Bounds(time.UTC)
	events, err := store.ListEvents(ctx, biz, from, to)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEvents_RepeatedEventIDCountedAsDuplicate(t *testing.T) {
	// GIVEN: A device resends an event under the same ID but a new idempotency key
	// WHEN: Both batches are appended
	// THEN: The resend is counted as a duplicate instead of failing the batch
	store := newStore(t)
	ctx := context.Background()

	first, err := store.AppendEvents(ctx, biz, []EventRecord{
		{ID: "dev-1-evt-7", EmployeeID: "a", OccurredAt: at(2, 8), EventType: "in", IdempotencyKey: "k-1"},
	})
	require.NoError(t, err)
	second, err := store.AppendEvents(ctx, biz, []EventRecord{
		{ID: "dev-1-evt-7", EmployeeID: "a", OccurredAt: at(2, 8), EventType: "in", IdempotencyKey: "k-2"},
		{ID: "dev-1-evt-8", EmployeeID: "a", OccurredAt: at(2, 17), EventType: "out", IdempotencyKey: "k-3"},
	})
	require.NoError(t, err)

	assert.Equal(t, AppendResult{Inserted: 1}, first)
	assert.Equal(t, AppendResult{Inserted: 1, Duplicates: 1}, second)

	from, to := generic.MustParseMonth("2026-03").Bounds(time.UTC)
	events, err := store.ListEvents(ctx, biz, from, to)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestEvents_UnknownKindRejectsBatch(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.AppendEvents(ctx, biz, []EventRecord{
		{EmployeeID: "a", OccurredAt: at(2, 8), EventType: "in"},
		{EmployeeID: "a", OccurredAt: at(2, 12), EventType: "lunch"},
	})
	require.ErrorIs(t, err, attendance.ErrUnknownEventKind)

	from, to := generic.MustParseMonth("2026-03").Bounds(time.UTC)
	events, err := store.ListEvents(ctx, biz, from, to)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEvents_TestModeAndPendingFiltered(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.AppendEvents(ctx, biz, []EventRecord{
		{EmployeeID: "a", OccurredAt: at(2, 8), EventType: "in", TestMode: true},
		{EmployeeID: "a", OccurredAt: at(2, 9), EventType: "in", Status: "pending"},
		{EmployeeID: "a", OccurredAt: at(2, 10), EventType: "in", Status: "pending", ResolvedManually: true},
		{EmployeeID: "a", OccurredAt: at(2, 11), EventType: "out", Status: "confirmed"},
	})
	require.NoError(t, err)

	from, to := generic.MustParseMonth("2026-03").Bounds(time.UTC)
	events, err := store.ListEvents(ctx, biz, from, to)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, at(2, 10), events[0].At)
	assert.Equal(t, at(2, 11), events[1].At)
}

// =============================================================================
// ASSESSMENTS
// =============================================================================

func assessment(hours string, employees ...string) *attendance.Assessment {
	month := generic.MustParseMonth("2026-03")
	a := &attendance.Assessment{
		BusinessID: biz,
		Month:      month,
		Summary: attendance.AssessmentSummary{
			Month:            month,
			TotalEmployees:   len(employees),
			TotalHoursWorked: decimal.RequireFromString(hours),
		},
		Anomalies:          []attendance.Anomaly{{EmployeeID: "a", Kind: attendance.AnomalyOrphanClockOut, At: at(2, 7)}},
		CalculatedAt:       at(31, 10),
		CalculationVersion: attendance.CalculationVersion,
	}
	for i, id := range employees {
		a.Records = append(a.Records, attendance.AssessmentRecord{
			EmployeeID:    attendance.EmployeeID(id),
			EmployeeIndex: i + 1,
			Month:         month,
			CurrentHours:  decimal.RequireFromString(hours),
			Status:        attendance.StatusBehind,
		})
	}
	return a
}

func TestAssessments_ReplaceAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	want := assessment("120.5", "a", "b")

	require.NoError(t, store.ReplaceAssessment(ctx, want))
	got, err := store.GetAssessment(ctx, biz, want.Month)
	require.NoError(t, err)

	assert.Equal(t, want.CalculatedAt, got.CalculatedAt)
	assert.Equal(t, want.CalculationVersion, got.CalculationVersion)
	assert.True(t, want.Summary.TotalHoursWorked.Equal(got.Summary.TotalHoursWorked))
	require.Len(t, got.Records, 2)
	assert.Equal(t, attendance.EmployeeID("a"), got.Records[0].EmployeeID)
	assert.Equal(t, attendance.EmployeeID("b"), got.Records[1].EmployeeID)
	assert.Equal(t, want.Anomalies, got.Anomalies)
}

func TestAssessments_ReplaceNeverMerges(t *testing.T) {
	// GIVEN: A stored result with employees a, b, c
	// WHEN: A new result with only b is committed
	// THEN: a and c are gone
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.ReplaceAssessment(ctx, assessment("10", "a", "b", "c")))

	require.NoError(t, store.ReplaceAssessment(ctx, assessment("20", "b")))
	got, err := store.GetAssessment(ctx, biz, generic.MustParseMonth("2026-03"))
	require.NoError(t, err)

	require.Len(t, got.Records, 1)
	assert.Equal(t, attendance.EmployeeID("b"), got.Records[0].EmployeeID)
	assert.Equal(t, 1, got.Summary.TotalEmployees)
}

func TestAssessments_Missing_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetAssessment(context.Background(), biz, generic.MustParseMonth("2026-03"))

	assert.ErrorIs(t, err, attendance.ErrAssessmentNotFound)
}

// =============================================================================
// RUNS AND RESET
// =============================================================================

func TestRuns_UpsertAndList(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	run := attendance.Run{ID: "r1", BusinessID: biz, Month: generic.MustParseMonth("2026-03"), Status: attendance.RunRunning, StartedAt: at(31, 10)}
	require.NoError(t, store.SaveRun(ctx, run))

	done := at(31, 11)
	run.Status = attendance.RunCompleted
	run.Employees = 4
	run.CompletedAt = &done
	require.NoError(t, store.SaveRun(ctx, run))
	require.NoError(t, store.SaveRun(ctx, attendance.Run{ID: "r2", BusinessID: biz, Month: run.Month, Status: attendance.RunFailed, Error: "boom", StartedAt: at(31, 12)}))

	runs, err := store.ListRuns(ctx, biz, 10)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID)
	assert.Equal(t, "boom", runs[0].Error)
	assert.Nil(t, runs[0].CompletedAt)
	assert.Equal(t, attendance.RunCompleted, runs[1].Status)
	assert.Equal(t, 4, runs[1].Employees)
	require.NotNil(t, runs[1].CompletedAt)
	assert.Equal(t, done, *runs[1].CompletedAt)
}

func TestResetBusiness(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, biz, attendance.Employee{ID: "a", Name: "Ana", Active: true}))
	require.NoError(t, store.SaveEmployee(ctx, "keep", attendance.Employee{ID: "k", Name: "Kai", Active: true}))
	require.NoError(t, store.ReplaceAssessment(ctx, assessment("1", "a")))

	require.NoError(t, store.ResetBusiness(ctx, biz))

	employees, err := store.ListEmployees(ctx, biz)
	require.NoError(t, err)
	assert.Empty(t, employees)
	kept, err := store.ListEmployees(ctx, "keep")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
	_, err = store.GetAssessment(ctx, biz, generic.MustParseMonth("2026-03"))
	assert.ErrorIs(t, err, attendance.ErrAssessmentNotFound)
}

// =============================================================================
// END TO END WITH THE ENGINE
// =============================================================================

func TestEngineOverSQLite(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveShift(ctx, biz, dayShift()))
	require.NoError(t, store.SaveEmployee(ctx, biz, attendance.Employee{ID: "a", Slot: 1, Name: "Ana", PayRate: decimal.NewFromInt(30), ShiftID: "day", Active: true}))
	_, err := store.AppendEvents(ctx, biz, []EventRecord{
		{EmployeeID: "a", OccurredAt: at(2, 8), EventType: "in"},
		{EmployeeID: "a", OccurredAt: at(2, 17), EventType: "out"},
	})
	require.NoError(t, err)

	engine, err := attendance.NewEngine(attendance.Dependencies{
		Employees: store, Events: store, Shifts: store, Results: store, Runs: store,
		Clock: generic.FixedClock{At: at(31, 10)},
	}, attendance.DefaultConfig())
	require.NoError(t, err)

	result, err := engine.Recalculate(ctx, biz, generic.MustParseMonth("2026-03"))
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.True(t, decimal.NewFromInt(9).Equal(result.Records[0].CurrentHours))
	assert.True(t, decimal.NewFromInt(40).Equal(result.Records[0].PastDueHours))

	stored, err := store.GetAssessment(ctx, biz, generic.MustParseMonth("2026-03"))
	require.NoError(t, err)
	assert.Equal(t, result.Records[0].EmployeeID, stored.Records[0].EmployeeID)

	runs, err := store.ListRuns(ctx, biz, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, attendance.RunCompleted, runs[0].Status)
}
