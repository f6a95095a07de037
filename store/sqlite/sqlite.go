/*
Package sqlite provides a SQLite-backed implementation of the attendance collaborators.

PURPOSE:
  System of record for the attendance engine: the staff directory, shift
  schedules, the append-only punch log, committed assessments and the
  recalculation run log. One *Store satisfies every interface in
  attendance/store.go.

INTERFACES IMPLEMENTED:
  attendance.EmployeeDirectory: Directory without placeholder slots
  attendance.ShiftDirectory:    Shift schedules, parsed via factory
  attendance.EventStore:        Punches in [from, to)
  attendance.AssessmentStore:   Atomic replace of a (business, month) result
  attendance.RunLog:            Recalculation audit

APPEND-ONLY PUNCHES:
  clock_events is never updated or deleted by the engine. Device retries carry
  an idempotency key or a device event ID; a repeat is counted, not stored twice.

ASSESSMENT REPLACEMENT:
  ReplaceAssessment deletes the previous summary and per-employee rows and
  inserts the new ones inside one transaction. Readers see either the old
  result or the new one, never a mix.

KEY TABLES:
  employees:           Directory, keyed by (business_id, id)
  shifts:              Shift config JSON, keyed by (business_id, id)
  clock_events:        Punch log
  assessments:         Summary + anomalies per (business_id, month)
  assessment_records:  One row per employee per (business_id, month)
  recalculation_runs:  Run log

TIMESTAMPS:
  Stored as fixed-width UTC text so that string comparison is chronological.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - attendance/store.go: Interface definitions
  - store/memory: In-memory implementation for engine tests
  - store/redis: Cache in front of the assessment tables
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements all attendance collaborators using SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	shifts *factory.ShiftFactory
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every pooled connection to ":memory:" would be a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, shifts: factory.NewShiftFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Staff directory
	CREATE TABLE IF NOT EXISTS employees (
		business_id TEXT NOT NULL,
		id TEXT NOT NULL,
		slot INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL DEFAULT '',
		pay_rate TEXT NOT NULL DEFAULT '0',
		shift_id TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (business_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_employees_business_slot
		ON employees(business_id, slot);

	-- Shift schedules (config_json is factory.ShiftJSON)
	CREATE TABLE IF NOT EXISTS shifts (
		business_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (business_id, id)
	);

	-- Punch log (append-only)
	CREATE TABLE IF NOT EXISTS clock_events (
		id TEXT PRIMARY KEY,
		business_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		kind TEXT NOT NULL,
		raw_kind TEXT,
		status TEXT,
		resolved_manually BOOLEAN NOT NULL DEFAULT FALSE,
		test_mode BOOLEAN NOT NULL DEFAULT FALSE,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	-- Month range scan per business (hot path)
	CREATE INDEX IF NOT EXISTS idx_clock_events_business_time
		ON clock_events(business_id, occurred_at);

	-- Committed assessments
	CREATE TABLE IF NOT EXISTS assessments (
		business_id TEXT NOT NULL,
		month TEXT NOT NULL,
		summary_json TEXT NOT NULL,
		anomalies_json TEXT NOT NULL,
		calculated_at TEXT NOT NULL,
		calculation_version TEXT NOT NULL,
		PRIMARY KEY (business_id, month)
	);

	CREATE TABLE IF NOT EXISTS assessment_records (
		business_id TEXT NOT NULL,
		month TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		status TEXT NOT NULL,
		record_json TEXT NOT NULL,
		PRIMARY KEY (business_id, month, employee_id),
		FOREIGN KEY (business_id, month) REFERENCES assessments(business_id, month) ON DELETE CASCADE
	);

	-- Recalculation runs
	CREATE TABLE IF NOT EXISTS recalculation_runs (
		id TEXT PRIMARY KEY,
		business_id TEXT NOT NULL,
		month TEXT NOT NULL,
		status TEXT NOT NULL,
		employees INTEGER NOT NULL DEFAULT 0,
		anomalies INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_recalculation_runs_business
		ON recalculation_runs(business_id, started_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEE DIRECTORY (attendance.EmployeeDirectory)
// =============================================================================

// SaveEmployee inserts or updates a directory entry.
func (s *Store) SaveEmployee(ctx context.Context, businessID generic.BusinessID, emp attendance.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if emp.PayRate.IsNegative() {
		return &attendance.PayRateError{EmployeeID: emp.ID, Raw: emp.PayRate.String()}
	}

	now := formatTime(time.Now())
	query := `
		INSERT INTO employees (business_id, id, slot, name, pay_rate, shift_id, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(business_id, id) DO UPDATE SET
			slot = excluded.slot,
			name = excluded.name,
			pay_rate = excluded.pay_rate,
			shift_id = excluded.shift_id,
			active = excluded.active,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		businessID, emp.ID, emp.Slot, emp.Name, emp.PayRate.String(),
		nullString(string(emp.ShiftID)), emp.Active, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// ListEmployees returns the directory without placeholder slots, ordered by slot.
func (s *Store) ListEmployees(ctx context.Context, businessID generic.BusinessID) ([]attendance.Employee, error) {
	all, err := s.ListAllEmployees(ctx, businessID)
	if err != nil {
		return nil, err
	}
	employees := make([]attendance.Employee, 0, len(all))
	for _, e := range all {
		if !attendance.IsPlaceholder(e) {
			employees = append(employees, e)
		}
	}
	return employees, nil
}

// ListAllEmployees returns every directory row, placeholders included.
func (s *Store) ListAllEmployees(ctx context.Context, businessID generic.BusinessID) ([]attendance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slot, name, pay_rate, shift_id, active
		FROM employees
		WHERE business_id = ?
		ORDER BY slot ASC, id ASC
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []attendance.Employee
	for rows.Next() {
		var (
			emp     attendance.Employee
			payRate string
			shiftID sql.NullString
		)
		if err := rows.Scan(&emp.ID, &emp.Slot, &emp.Name, &payRate, &shiftID, &emp.Active); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		rate, err := decimal.NewFromString(payRate)
		if err != nil || rate.IsNegative() {
			return nil, &attendance.PayRateError{EmployeeID: emp.ID, Raw: payRate}
		}
		emp.PayRate = rate
		emp.ShiftID = attendance.ShiftID(shiftID.String)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// ListBusinesses returns every business with at least one directory entry.
func (s *Store) ListBusinesses(ctx context.Context) ([]generic.BusinessID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT business_id FROM employees ORDER BY business_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []generic.BusinessID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, generic.BusinessID(id))
	}
	return ids, rows.Err()
}

// =============================================================================
// SHIFT DIRECTORY (attendance.ShiftDirectory)
// =============================================================================

// SaveShift validates and stores a shift. Malformed schedules are rejected here
// so they never reach a run.
func (s *Store) SaveShift(ctx context.Context, businessID generic.BusinessID, sj factory.ShiftJSON) error {
	schedule, err := s.shifts.FromJSON(sj)
	if err != nil {
		return err
	}
	canonical, err := json.Marshal(factory.ToJSON(schedule, sj.IsActive()))
	if err != nil {
		return fmt.Errorf("failed to encode shift: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO shifts (business_id, id, name, active, config_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(business_id, id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active,
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		businessID, schedule.ID, schedule.Name, sj.IsActive(), string(canonical), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save shift: %w", err)
	}
	return nil
}

// GetShift returns the parsed schedule. Unknown and inactive shifts are
// reported as missing.
func (s *Store) GetShift(ctx context.Context, businessID generic.BusinessID, id attendance.ShiftID) (*attendance.ShiftSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		active bool
		config string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT active, config_json FROM shifts WHERE business_id = ? AND id = ?",
		businessID, id,
	).Scan(&active, &config)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shift %q: %w", id, generic.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shift %q: %w", id, err)
	}
	if !active {
		return nil, fmt.Errorf("shift %q is inactive: %w", id, attendance.ErrMissingShift)
	}

	return s.shifts.ParseShift([]byte(config))
}

// ListShifts returns every shift of a business in its JSON form.
func (s *Store) ListShifts(ctx context.Context, businessID generic.BusinessID) ([]factory.ShiftJSON, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT config_json FROM shifts WHERE business_id = ? ORDER BY id", businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []factory.ShiftJSON
	for rows.Next() {
		var config string
		if err := rows.Scan(&config); err != nil {
			return nil, err
		}
		var sj factory.ShiftJSON
		if err := json.Unmarshal([]byte(config), &sj); err != nil {
			return nil, fmt.Errorf("%w: stored shift: %v", attendance.ErrInvalidScheduleFormat, err)
		}
		shifts = append(shifts, sj)
	}
	return shifts, rows.Err()
}

// =============================================================================
// EVENT STORE (attendance.EventStore)
// =============================================================================

// EventRecord is a punch as received from a device or importer, before the
// kind is normalized.
type EventRecord struct {
	ID               string
	EmployeeID       attendance.EmployeeID
	OccurredAt       time.Time
	EventType        string
	AttendanceStatus string
	Status           string // "pending" punches wait for manual resolution
	ResolvedManually bool
	TestMode         bool
	IdempotencyKey   string
}

// AppendResult counts what AppendEvents did with a batch.
type AppendResult struct {
	Inserted   int
	Duplicates int
}

// AppendEvents normalizes and stores a batch of punches atomically. Punches
// whose idempotency key or event ID is already stored are skipped and counted
// as duplicates; an unknown kind rejects the whole batch.
func (s *Store) AppendEvents(ctx context.Context, businessID generic.BusinessID, events []EventRecord) (AppendResult, error) {
	var result AppendResult

	kinds := make([]attendance.ClockEventKind, len(events))
	for i, ev := range events {
		kind, err := attendance.ResolveKind(ev.EventType, ev.AttendanceStatus)
		if err != nil {
			return result, fmt.Errorf("event %d: %w", i, err)
		}
		if ev.EmployeeID == "" || ev.OccurredAt.IsZero() {
			return result, fmt.Errorf("%w: event %d needs an employee and a timestamp", generic.ErrValidation, i)
		}
		kinds[i] = kind
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO clock_events
		(id, business_id, employee_id, occurred_at, kind, raw_kind, status,
		 resolved_manually, test_mode, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`
	now := formatTime(time.Now())
	for i, ev := range events {
		id := ev.ID
		if id == "" {
			id = uuid.NewString()
		}
		raw := ev.EventType
		if raw == "" {
			raw = ev.AttendanceStatus
		}

		res, err := sqlTx.ExecContext(ctx, query,
			id, businessID, ev.EmployeeID, formatTime(ev.OccurredAt), kinds[i].String(), nullString(raw),
			nullString(ev.Status), ev.ResolvedManually, ev.TestMode, nullString(ev.IdempotencyKey), now,
		)
		if err != nil {
			return result, fmt.Errorf("failed to append event: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			result.Duplicates++
			continue
		}
		result.Inserted++
	}

	if err := sqlTx.Commit(); err != nil {
		return AppendResult{}, fmt.Errorf("failed to commit events: %w", err)
	}
	return result, nil
}

// ListEvents returns countable punches in [from, to) in chronological then
// arrival order. Test-mode punches and pending punches that were not resolved
// manually are left out.
func (s *Store) ListEvents(ctx context.Context, businessID generic.BusinessID, from, to time.Time) ([]attendance.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, occurred_at, kind
		FROM clock_events
		WHERE business_id = ?
		  AND occurred_at >= ? AND occurred_at < ?
		  AND test_mode = FALSE
		  AND (status IS NULL OR status != 'pending' OR resolved_manually = TRUE)
		ORDER BY occurred_at ASC, rowid ASC
	`, businessID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []attendance.ClockEvent
	for rows.Next() {
		var (
			ev         attendance.ClockEvent
			occurredAt string
			kind       string
		)
		if err := rows.Scan(&ev.EmployeeID, &occurredAt, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.At, err = parseTime(occurredAt)
		if err != nil {
			return nil, err
		}
		ev.Kind, err = attendance.NormalizeKind(kind)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// =============================================================================
// ASSESSMENT STORE (attendance.AssessmentStore)
// =============================================================================

// ReplaceAssessment swaps the stored result for the assessment's key.
func (s *Store) ReplaceAssessment(ctx context.Context, a *attendance.Assessment) error {
	summary, err := json.Marshal(a.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	anomalies := a.Anomalies
	if anomalies == nil {
		anomalies = []attendance.Anomaly{}
	}
	anomaliesJSON, err := json.Marshal(anomalies)
	if err != nil {
		return fmt.Errorf("failed to encode anomalies: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	month := a.Month.String()
	if _, err := sqlTx.ExecContext(ctx,
		"DELETE FROM assessment_records WHERE business_id = ? AND month = ?", a.BusinessID, month); err != nil {
		return fmt.Errorf("failed to clear assessment records: %w", err)
	}
	if _, err := sqlTx.ExecContext(ctx,
		"DELETE FROM assessments WHERE business_id = ? AND month = ?", a.BusinessID, month); err != nil {
		return fmt.Errorf("failed to clear assessment: %w", err)
	}

	if _, err := sqlTx.ExecContext(ctx, `
		INSERT INTO assessments (business_id, month, summary_json, anomalies_json, calculated_at, calculation_version)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.BusinessID, month, string(summary), string(anomaliesJSON), formatTime(a.CalculatedAt), a.CalculationVersion); err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}

	for i, r := range a.Records {
		record, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode record %s: %w", r.EmployeeID, err)
		}
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO assessment_records (business_id, month, employee_id, position, status, record_json)
			VALUES (?, ?, ?, ?, ?, ?)
		`, a.BusinessID, month, r.EmployeeID, i, r.Status, string(record)); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.EmployeeID, err)
		}
	}

	return sqlTx.Commit()
}

// GetAssessment loads the committed result for (business, month).
func (s *Store) GetAssessment(ctx context.Context, businessID generic.BusinessID, month generic.Month) (*attendance.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		summaryJSON, anomaliesJSON, calculatedAt string
		a                                        = attendance.Assessment{BusinessID: businessID, Month: month}
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT summary_json, anomalies_json, calculated_at, calculation_version
		FROM assessments WHERE business_id = ? AND month = ?
	`, businessID, month.String()).Scan(&summaryJSON, &anomaliesJSON, &calculatedAt, &a.CalculationVersion)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, attendance.ErrAssessmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}

	if err := json.Unmarshal([]byte(summaryJSON), &a.Summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	if err := json.Unmarshal([]byte(anomaliesJSON), &a.Anomalies); err != nil {
		return nil, fmt.Errorf("failed to decode anomalies: %w", err)
	}
	if a.CalculatedAt, err = parseTime(calculatedAt); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT record_json FROM assessment_records
		WHERE business_id = ? AND month = ?
		ORDER BY position ASC
	`, businessID, month.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	a.Records = []attendance.AssessmentRecord{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var r attendance.AssessmentRecord
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		a.Records = append(a.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &a, nil
}

// =============================================================================
// RUN LOG (attendance.RunLog)
// =============================================================================

// SaveRun upserts a run by ID.
func (s *Store) SaveRun(ctx context.Context, r attendance.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO recalculation_runs (id, business_id, month, status, employees, anomalies,
			error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			employees = excluded.employees,
			anomalies = excluded.anomalies,
			error = excluded.error,
			completed_at = excluded.completed_at
	`

	var completedAt *string
	if r.CompletedAt != nil {
		c := formatTime(*r.CompletedAt)
		completedAt = &c
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.BusinessID, r.Month.String(), r.Status, r.Employees, r.Anomalies,
		nullString(r.Error), formatTime(r.StartedAt), completedAt,
	)
	return err
}

// ListRuns returns the most recent runs of a business, newest first.
func (s *Store) ListRuns(ctx context.Context, businessID generic.BusinessID, limit int) ([]attendance.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_id, month, status, employees, anomalies, error, started_at, completed_at
		FROM recalculation_runs
		WHERE business_id = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, businessID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []attendance.Run
	for rows.Next() {
		var (
			r                   attendance.Run
			month, startedAt    string
			runErr, completedAt sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.BusinessID, &month, &r.Status, &r.Employees, &r.Anomalies,
			&runErr, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		if r.Month, err = generic.ParseMonth(month); err != nil {
			return nil, err
		}
		r.Error = runErr.String
		r.StartedAt, _ = parseTime(startedAt)
		if completedAt.Valid {
			t, _ := parseTime(completedAt.String)
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// ResetBusiness removes every row of one business (for demo scenarios).
func (s *Store) ResetBusiness(ctx context.Context, businessID generic.BusinessID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	tables := []string{"assessment_records", "assessments", "recalculation_runs", "clock_events", "shifts", "employees"}
	for _, table := range tables {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table+" WHERE business_id = ?", businessID); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
