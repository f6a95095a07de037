/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Employees:   EmployeeDTO (requests use factory.StaffJSON)
  Shifts:      factory.ShiftJSON in both directions
  Events:      IngestEventsRequest, RawEventDTO, IngestEventsResponse, ClockEventDTO
  Runs:        RunDTO
  Scenarios:   ScenarioDTO, LoadScenarioRequest, LoadScenarioResponse

VALIDATION:
  Request types carry go-playground/validator tags. Handlers call
  Handler.validateRequest after decoding; failures map to 400.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/staff.go, factory/shift.go: Payloads shared with importers
*/
package api

import (
	"time"

	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents a directory entry in API responses.
type EmployeeDTO struct {
	ID          string `json:"id"`
	Slot        int    `json:"slot"`
	Name        string `json:"name"`
	PayRate     string `json:"payRate"`
	ShiftID     string `json:"shiftId,omitempty"`
	Active      bool   `json:"active"`
	Placeholder bool   `json:"placeholder"`
}

func toEmployeeDTO(e attendance.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:          string(e.ID),
		Slot:        e.Slot,
		Name:        e.Name,
		PayRate:     e.PayRate.StringFixed(2),
		ShiftID:     string(e.ShiftID),
		Active:      e.Active,
		Placeholder: attendance.IsPlaceholder(e),
	}
}

// =============================================================================
// CLOCK EVENTS
// =============================================================================

// RawEventDTO is one punch as sent by a device. Either Type or
// AttendanceStatus names the kind.
type RawEventDTO struct {
	ID               string    `json:"id,omitempty" validate:"omitempty,max=128"`
	EmployeeID       string    `json:"employeeId" validate:"required,max=128"`
	Timestamp        time.Time `json:"timestamp" validate:"required"`
	Type             string    `json:"type,omitempty" validate:"required_without=AttendanceStatus"`
	AttendanceStatus string    `json:"attendanceStatus,omitempty"`
	Status           string    `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected"`
	ResolvedManually bool      `json:"resolvedManually,omitempty"`
	TestMode         bool      `json:"testMode,omitempty"`
	IdempotencyKey   string    `json:"idempotencyKey,omitempty" validate:"omitempty,max=256"`
}

// IngestEventsRequest is a batch of raw punches.
type IngestEventsRequest struct {
	Events []RawEventDTO `json:"events" validate:"required,min=1,max=5000,dive"`
}

// IngestEventsResponse reports what was stored. Duplicates are re-sent
// punches whose idempotency key was already known.
type IngestEventsResponse struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
}

// ClockEventDTO is a normalized punch.
type ClockEventDTO struct {
	EmployeeID string    `json:"employeeId"`
	At         time.Time `json:"at"`
	Kind       string    `json:"kind"`
}

// =============================================================================
// RECALCULATION RUNS
// =============================================================================

// RunDTO represents one recalculation attempt.
type RunDTO struct {
	ID          string     `json:"id"`
	BusinessID  string     `json:"businessId"`
	Month       string     `json:"month"`
	Status      string     `json:"status"`
	Employees   int        `json:"employees"`
	Anomalies   int        `json:"anomalies"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func toRunDTO(r attendance.Run) RunDTO {
	return RunDTO{
		ID:          r.ID,
		BusinessID:  string(r.BusinessID),
		Month:       r.Month.String(),
		Status:      string(r.Status),
		Employees:   r.Employees,
		Anomalies:   r.Anomalies,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario. BusinessID and Month default to
// the demo business and the current month.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
	BusinessID string `json:"business_id,omitempty" validate:"omitempty,max=128"`
	Month      string `json:"month,omitempty"`
}

// LoadScenarioResponse is returned after seeding and recalculating.
type LoadScenarioResponse struct {
	ScenarioID string                 `json:"scenario_id"`
	BusinessID string                 `json:"business_id"`
	Month      string                 `json:"month"`
	Employees  int                    `json:"employees"`
	Events     int                    `json:"events"`
	Assessment *attendance.Assessment `json:"assessment"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
