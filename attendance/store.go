/*
store.go - Collaborator interfaces

PURPOSE:
  The engine only computes. Everything it reads or writes goes through these
  interfaces so that the SQLite store, the Redis cache and the in-memory test
  store are interchangeable.

CONTRACTS:
  EmployeeDirectory: placeholder and soft-deleted entries already removed,
                     pay rates already validated (PayRateError otherwise).
  EventStore:        punches in [from, to), kind already normalized, test and
                     unresolved pending punches already filtered out.
  ShiftDirectory:    generic.ErrNotFound for unknown IDs, ScheduleFormatError
                     for schedules that cannot be parsed.
  AssessmentStore:   ReplaceAssessment swaps the whole (business, month) result
                     atomically. It never merges with the previous one.

SEE ALSO:
  - store/sqlite/sqlite.go: System of record
  - store/memory/memory.go: Test double
  - store/redis/cache.go: Read-through cache in front of AssessmentStore
*/
package attendance

import (
	"context"
	"time"

	"github.com/warp/attendance-engine/generic"
)

type EmployeeDirectory interface {
	ListEmployees(ctx context.Context, businessID generic.BusinessID) ([]Employee, error)
}

type EventStore interface {
	ListEvents(ctx context.Context, businessID generic.BusinessID, from, to time.Time) ([]ClockEvent, error)
}

type ShiftDirectory interface {
	GetShift(ctx context.Context, businessID generic.BusinessID, id ShiftID) (*ShiftSchedule, error)
}

type AssessmentStore interface {
	ReplaceAssessment(ctx context.Context, a *Assessment) error
	GetAssessment(ctx context.Context, businessID generic.BusinessID, month generic.Month) (*Assessment, error)
}

// RunLog records recalculation attempts. Optional.
type RunLog interface {
	SaveRun(ctx context.Context, run Run) error
}

// Observer receives engine measurements. Optional; see the metrics package.
type Observer interface {
	ObserveRun(status RunStatus, d time.Duration)
	ObserveAnomaly(kind AnomalyKind)
	ObserveMissingShift()
	ObserveEmployees(n int)
}
