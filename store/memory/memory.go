// Package memory provides an in-memory implementation of every attendance
// collaborator. Engine and cache tests use it with fault injection.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu          sync.RWMutex
	employees   map[generic.BusinessID][]attendance.Employee
	shifts      map[shiftKey]attendance.ShiftSchedule
	events      map[generic.BusinessID][]attendance.ClockEvent
	idempotency map[string]bool
	assessments map[attendance.AssessmentKey]attendance.Assessment
	runs        []attendance.Run

	// Fault injection for tests: a non-nil error is returned by the matching call.
	EmployeesErr error
	EventsErr    error
	ShiftErr     error
	ReplaceErr   error
}

type shiftKey struct {
	BusinessID generic.BusinessID
	ShiftID    attendance.ShiftID
}

func New() *Store {
	return &Store{
		employees:   make(map[generic.BusinessID][]attendance.Employee),
		shifts:      make(map[shiftKey]attendance.ShiftSchedule),
		events:      make(map[generic.BusinessID][]attendance.ClockEvent),
		idempotency: make(map[string]bool),
		assessments: make(map[attendance.AssessmentKey]attendance.Assessment),
	}
}

// =============================================================================
// EMPLOYEE DIRECTORY
// =============================================================================

// PutEmployee inserts or replaces an employee by ID.
func (m *Store) PutEmployee(businessID generic.BusinessID, emp attendance.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.employees[businessID]
	for i := range list {
		if list[i].ID == emp.ID {
			list[i] = emp
			return
		}
	}
	m.employees[businessID] = append(list, emp)
}

// ListEmployees returns the roster without placeholder slots.
func (m *Store) ListEmployees(_ context.Context, businessID generic.BusinessID) ([]attendance.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.EmployeesErr != nil {
		return nil, m.EmployeesErr
	}
	var result []attendance.Employee
	for _, e := range m.employees[businessID] {
		if !attendance.IsPlaceholder(e) {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Slot < result[j].Slot })
	return result, nil
}

// =============================================================================
// SHIFT DIRECTORY
// =============================================================================

func (m *Store) PutShift(businessID generic.BusinessID, s attendance.ShiftSchedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[shiftKey{BusinessID: businessID, ShiftID: s.ID}] = s
}

func (m *Store) GetShift(_ context.Context, businessID generic.BusinessID, id attendance.ShiftID) (*attendance.ShiftSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ShiftErr != nil {
		return nil, m.ShiftErr
	}
	s, ok := m.shifts[shiftKey{BusinessID: businessID, ShiftID: id}]
	if !ok {
		return nil, generic.ErrNotFound
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// =============================================================================
// EVENT STORE (append-only)
// =============================================================================

// AppendEvent adds a punch. A repeated non-empty idempotency key is rejected.
func (m *Store) AppendEvent(_ context.Context, businessID generic.BusinessID, ev attendance.ClockEvent, idempotencyKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idempotencyKey != "" {
		if m.idempotency[idempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		m.idempotency[idempotencyKey] = true
	}
	m.events[businessID] = append(m.events[businessID], ev)
	return nil
}

// ListEvents returns punches in [from, to) in arrival order.
func (m *Store) ListEvents(_ context.Context, businessID generic.BusinessID, from, to time.Time) ([]attendance.ClockEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.EventsErr != nil {
		return nil, m.EventsErr
	}
	var result []attendance.ClockEvent
	for _, ev := range m.events[businessID] {
		if !ev.At.Before(from) && ev.At.Before(to) {
			result = append(result, ev)
		}
	}
	return result, nil
}

// =============================================================================
// ASSESSMENT STORE
// =============================================================================

// ReplaceAssessment stores a deep copy, replacing any previous result for the key.
func (m *Store) ReplaceAssessment(_ context.Context, a *attendance.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	m.assessments[a.Key()] = clone(a)
	return nil
}

func (m *Store) GetAssessment(_ context.Context, businessID generic.BusinessID, month generic.Month) (*attendance.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.assessments[attendance.AssessmentKey{BusinessID: businessID, Month: month}]
	if !ok {
		return nil, attendance.ErrAssessmentNotFound
	}
	c := clone(&a)
	return &c, nil
}

func clone(a *attendance.Assessment) attendance.Assessment {
	c := *a
	c.Records = append([]attendance.AssessmentRecord(nil), a.Records...)
	c.Anomalies = append([]attendance.Anomaly(nil), a.Anomalies...)
	return c
}

// =============================================================================
// RUN LOG
// =============================================================================

// SaveRun upserts a run by ID.
func (m *Store) SaveRun(_ context.Context, run attendance.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i] = run
			return nil
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

// Runs returns recorded runs, oldest first.
func (m *Store) Runs() []attendance.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]attendance.Run(nil), m.runs...)
}
