/*
engine.go - Recalculation orchestration

PURPOSE:
  Runs one batch pass for a (business, month): read the roster, the punches
  and the shifts, compute everything in memory, then hand the finished
  Assessment to the AssessmentStore in a single replacement.

FAILURE POLICY:
  - Directory or event store read fails → run aborted, nothing written
  - Shift missing or lookup fails       → that employee gets 0 past-due, run continues
  - Shift schedule malformed            → run aborted, nothing written
  - Pairing anomalies                   → collected and returned, never fatal
  - Commit fails                        → run failed, previous result intact

CONCURRENCY:
  Distinct shift IDs are resolved concurrently (bounded by ShiftConcurrency).
  Each employee's punches are reconciled as one sequential unit. Two runs for
  the same key are not serialized here; the store's replace is last-write-wins.

SEE ALSO:
  - aggregate.go: Pure roll-up
  - api/handlers.go: Recalculate endpoint
  - api/scheduler.go: Periodic recalculation
*/
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
	"golang.org/x/sync/errgroup"
)

const defaultShiftConcurrency = 8

// Dependencies are the collaborators of an Engine. Runs and Observer are optional.
type Dependencies struct {
	Employees EmployeeDirectory
	Events    EventStore
	Shifts    ShiftDirectory
	Results   AssessmentStore
	Runs      RunLog
	Observer  Observer
	Clock     generic.Clock
	Logger    *slog.Logger

	ShiftConcurrency int
}

type Engine struct {
	deps Dependencies

	mu     sync.RWMutex
	config Config
}

func NewEngine(deps Dependencies, cfg Config) (*Engine, error) {
	if deps.Employees == nil || deps.Events == nil || deps.Shifts == nil || deps.Results == nil {
		return nil, errors.New("attendance engine: employees, events, shifts and results are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = generic.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.ShiftConcurrency <= 0 {
		deps.ShiftConcurrency = defaultShiftConcurrency
	}
	return &Engine{deps: deps, config: cfg}, nil
}

// Config returns the configuration the next run will use.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// SetConfig swaps the configuration (hot reload). Runs in flight keep the old one.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.config = cfg
	e.mu.Unlock()
	return nil
}

// =============================================================================
// COMPUTE - In-memory, no writes
// =============================================================================

// Compute builds the assessment without persisting it.
func (e *Engine) Compute(ctx context.Context, businessID generic.BusinessID, month generic.Month) (*Assessment, error) {
	cfg := e.Config()
	loc := cfg.location()
	now := e.deps.Clock.Now()
	log := e.deps.Logger.With("business_id", string(businessID), "month", month.String())

	fail := func(stage string, err error) error {
		return &RunError{BusinessID: businessID, Month: month, Stage: stage, Err: err}
	}

	listed, err := e.deps.Employees.ListEmployees(ctx, businessID)
	if err != nil {
		return nil, fail("employees", wrapUnavailable(ErrDirectoryUnavailable, err))
	}
	roster := Roster(listed)

	from, to := month.Bounds(loc)
	events, err := e.deps.Events.ListEvents(ctx, businessID, from, to)
	if err != nil {
		return nil, fail("events", wrapUnavailable(ErrEventStoreUnavailable, err))
	}

	schedules, err := e.resolveShifts(ctx, businessID, roster, log)
	if err != nil {
		return nil, fail("shifts", err)
	}

	reconciler := Reconciler{Location: loc}
	pastDue := PastDueCalculator{Location: loc, Precision: cfg.Precision}
	grouped := GroupByEmployee(events)

	inputs := make([]EmployeeInput, 0, len(roster))
	anomalies := []Anomaly{}
	for _, emp := range roster {
		work := reconciler.Reconcile(emp.ID, grouped[emp.ID])
		for _, a := range work.Anomalies {
			log.Debug("reconciliation anomaly", "employee_id", string(a.EmployeeID), "kind", string(a.Kind), "at", a.At)
			if e.deps.Observer != nil {
				e.deps.Observer.ObserveAnomaly(a.Kind)
			}
		}
		anomalies = append(anomalies, work.Anomalies...)

		hours := decimal.Zero
		if emp.HasShift() {
			hours, err = pastDue.PastDueHours(schedules[emp.ShiftID], month, now)
			if err != nil {
				return nil, fail("shifts", err)
			}
		}

		inputs = append(inputs, EmployeeInput{Employee: emp, Work: work, PastDueHours: hours})
	}

	if dropped := len(events) - countRostered(grouped, roster); dropped > 0 {
		log.Debug("events for employees outside the roster ignored", "count", dropped)
	}

	records, summary := Aggregator{Config: cfg}.Aggregate(month, inputs)

	return &Assessment{
		BusinessID:         businessID,
		Month:              month,
		Summary:            summary,
		Records:            records,
		Anomalies:          anomalies,
		CalculatedAt:       now.UTC(),
		CalculationVersion: CalculationVersion,
	}, nil
}

// resolveShifts looks up each distinct shift once. Missing or unreachable
// shifts resolve to nil; malformed ones abort.
func (e *Engine) resolveShifts(ctx context.Context, businessID generic.BusinessID, roster []Employee, log *slog.Logger) (map[ShiftID]*ShiftSchedule, error) {
	var ids []ShiftID
	seen := make(map[ShiftID]bool)
	for _, emp := range roster {
		if emp.HasShift() && !seen[emp.ShiftID] {
			seen[emp.ShiftID] = true
			ids = append(ids, emp.ShiftID)
		}
	}

	resolved := make([]*ShiftSchedule, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.deps.ShiftConcurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			schedule, err := e.deps.Shifts.GetShift(gctx, businessID, id)
			switch {
			case err == nil && schedule != nil:
				resolved[i] = schedule
			case errors.Is(err, ErrInvalidScheduleFormat):
				return err
			case gctx.Err() != nil:
				return gctx.Err()
			case err == nil || errors.Is(err, generic.ErrNotFound) || errors.Is(err, ErrMissingShift):
				log.Warn("shift not found, past-due hours default to 0", "shift_id", string(id))
				e.observeMissingShift()
			default:
				log.Warn("shift lookup failed, past-due hours default to 0",
					"shift_id", string(id), "error", wrapUnavailable(ErrShiftDirectoryUnavailable, err))
				e.observeMissingShift()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	schedules := make(map[ShiftID]*ShiftSchedule, len(ids))
	for i, id := range ids {
		schedules[id] = resolved[i]
	}
	return schedules, nil
}

func (e *Engine) observeMissingShift() {
	if e.deps.Observer != nil {
		e.deps.Observer.ObserveMissingShift()
	}
}

func countRostered(grouped map[EmployeeID][]ClockEvent, roster []Employee) int {
	n := 0
	for _, emp := range roster {
		n += len(grouped[emp.ID])
	}
	return n
}

// =============================================================================
// RECALCULATE - Compute, then commit on full success only
// =============================================================================

// Recalculate computes the assessment and replaces the stored one. On any
// failure the previously stored assessment is left untouched.
func (e *Engine) Recalculate(ctx context.Context, businessID generic.BusinessID, month generic.Month) (*Assessment, error) {
	started := time.Now()
	run := Run{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		Month:      month,
		Status:     RunRunning,
		StartedAt:  e.deps.Clock.Now().UTC(),
	}
	e.saveRun(ctx, run)

	assessment, err := e.Compute(ctx, businessID, month)
	if err == nil {
		if cerr := e.deps.Results.ReplaceAssessment(ctx, assessment); cerr != nil {
			err = &RunError{BusinessID: businessID, Month: month, Stage: "commit", Err: cerr}
		}
	}

	completed := e.deps.Clock.Now().UTC()
	run.CompletedAt = &completed
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
	} else {
		run.Status = RunCompleted
		run.Employees = len(assessment.Records)
		run.Anomalies = len(assessment.Anomalies)
	}
	e.saveRun(ctx, run)

	elapsed := time.Since(started)
	if e.deps.Observer != nil {
		e.deps.Observer.ObserveRun(run.Status, elapsed)
		if err == nil {
			e.deps.Observer.ObserveEmployees(run.Employees)
		}
	}

	log := e.deps.Logger.With("business_id", string(businessID), "month", month.String(), "run_id", run.ID)
	if err != nil {
		log.Error("recalculation failed", "error", err, "duration", elapsed)
		return nil, err
	}
	log.Info("recalculation completed",
		"employees", run.Employees,
		"anomalies", run.Anomalies,
		"hours_worked", assessment.Summary.TotalHoursWorked.String(),
		"duration", elapsed,
	)
	return assessment, nil
}

// Assessment returns the last committed result for (business, month).
func (e *Engine) Assessment(ctx context.Context, businessID generic.BusinessID, month generic.Month) (*Assessment, error) {
	a, err := e.deps.Results.GetAssessment(ctx, businessID, month)
	if err != nil {
		return nil, fmt.Errorf("load assessment %s %s: %w", businessID, month, err)
	}
	return a, nil
}

func (e *Engine) saveRun(ctx context.Context, run Run) {
	if e.deps.Runs == nil {
		return
	}
	if err := e.deps.Runs.SaveRun(ctx, run); err != nil {
		e.deps.Logger.Warn("failed to record recalculation run", "run_id", run.ID, "error", err)
	}
}
