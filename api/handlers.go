/*
handlers.go - HTTP API handlers for the attendance assessment engine

PURPOSE:
  Exposes the directory, the punch store and the assessment engine via REST.
  Handles HTTP request/response, JSON serialization, and delegates to the
  store and attendance.Engine.

ENDPOINTS:
  Employees:
    GET    /api/businesses/{businessID}/employees     Directory (placeholders flagged)
    POST   /api/businesses/{businessID}/employees     Create or update one staff record

  Shifts:
    GET    /api/businesses/{businessID}/shifts        All shift schedules
    POST   /api/businesses/{businessID}/shifts        Create or update a shift

  Events:
    POST   /api/businesses/{businessID}/events        Batch of raw punches
    GET    /api/businesses/{businessID}/events?month= Countable punches of a month

  Assessments:
    POST   /api/businesses/{businessID}/assessments/{month}/recalculate
    GET    /api/businesses/{businessID}/assessments/{month}
    GET    /api/businesses/{businessID}/runs          Recalculation run log

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (validator tags on DTOs, factories for payloads)
  3. Call the store or the engine
  4. Serialize response
  5. Map errors to statuses (statusFor)

ERROR HANDLING:
  - 400: Validation errors, malformed schedules, unknown punch kinds
  - 404: Unknown record, no assessment computed yet
  - 409: Duplicate idempotency key
  - 503: Employee directory or event store unreachable
  - 500: Internal errors

  A failed recalculation leaves the previously stored assessment in place.

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store/sqlite"
)

const maxBodyBytes = 4 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HealthChecker is an optional dependency probed by /health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *attendance.Engine
	Staff  *factory.StaffFactory
	Shifts *factory.ShiftFactory
	Cache  HealthChecker
	Clock  generic.Clock
	Logger *slog.Logger

	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store and engine.
func NewHandler(store *sqlite.Store, engine *attendance.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:    store,
		Engine:   engine,
		Staff:    factory.NewStaffFactory(),
		Shifts:   factory.NewShiftFactory(),
		Clock:    generic.SystemClock{},
		Logger:   logger,
		validate: validator.New(),
	}
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the store (and the cache, when configured) respond.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"store": "ok"}
	status := http.StatusOK
	if err := h.Store.Ping(ctx); err != nil {
		checks["store"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if h.Cache != nil {
		checks["cache"] = "ok"
		if err := h.Cache.Health(ctx); err != nil {
			// The cache is optional; reads fall back to the store.
			checks["cache"] = err.Error()
		}
	}
	writeJSON(w, status, checks)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns every directory entry of a business, placeholders included.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	businessID := businessIDParam(r)

	employees, err := h.Store.ListAllEmployees(r.Context(), businessID)
	if err != nil {
		writeError(w, statusFor(err), "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates or replaces a staff record.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	businessID := businessIDParam(r)

	var req factory.StaffJSON
	if !h.decode(w, r, &req) {
		return
	}

	emp, err := h.Staff.FromJSON(req)
	if err != nil {
		writeError(w, statusFor(err), "Invalid staff record", err)
		return
	}
	if err := h.Store.SaveEmployee(r.Context(), businessID, emp); err != nil {
		writeError(w, statusFor(err), "Failed to save employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// ListShifts returns every shift of a business in canonical form.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.Store.ListShifts(r.Context(), businessIDParam(r))
	if err != nil {
		writeError(w, statusFor(err), "Failed to list shifts", err)
		return
	}
	if shifts == nil {
		shifts = []factory.ShiftJSON{}
	}
	writeJSON(w, http.StatusOK, shifts)
}

// CreateShift validates and stores a shift schedule. Malformed times are
// rejected here so that they never reach a recalculation.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	businessID := businessIDParam(r)

	var req factory.ShiftJSON
	if !h.decode(w, r, &req) {
		return
	}

	schedule, err := h.Shifts.FromJSON(req)
	if err != nil {
		writeError(w, statusFor(err), "Invalid shift schedule", err)
		return
	}
	if err := h.Store.SaveShift(r.Context(), businessID, req); err != nil {
		writeError(w, statusFor(err), "Failed to save shift", err)
		return
	}

	writeJSON(w, http.StatusCreated, factory.ToJSON(schedule, req.IsActive()))
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

// IngestEvents stores a batch of raw punches. Re-sent punches are counted as
// duplicates; an unknown kind rejects the whole batch.
func (h *Handler) IngestEvents(w http.ResponseWriter, r *http.Request) {
	businessID := businessIDParam(r)

	var req IngestEventsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid events", err)
		return
	}

	records := make([]sqlite.EventRecord, len(req.Events))
	for i, ev := range req.Events {
		records[i] = sqlite.EventRecord{
			ID:               ev.ID,
			EmployeeID:       attendance.EmployeeID(ev.EmployeeID),
			OccurredAt:       ev.Timestamp,
			EventType:        ev.Type,
			AttendanceStatus: ev.AttendanceStatus,
			Status:           ev.Status,
			ResolvedManually: ev.ResolvedManually,
			TestMode:         ev.TestMode,
			IdempotencyKey:   ev.IdempotencyKey,
		}
	}

	result, err := h.Store.AppendEvents(r.Context(), businessID, records)
	if err != nil {
		writeError(w, statusFor(err), "Failed to store events", err)
		return
	}

	h.Logger.Info("events ingested",
		"business_id", string(businessID), "inserted", result.Inserted, "duplicates", result.Duplicates)
	writeJSON(w, http.StatusOK, IngestEventsResponse{Inserted: result.Inserted, Duplicates: result.Duplicates})
}

// ListEvents returns the countable punches of one month.
// GET /api/businesses/{businessID}/events?month=YYYY-MM
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	month, err := generic.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	from, to := month.Bounds(h.location())
	events, err := h.Store.ListEvents(r.Context(), businessIDParam(r), from, to)
	if err != nil {
		writeError(w, statusFor(err), "Failed to list events", err)
		return
	}

	dtos := make([]ClockEventDTO, len(events))
	for i, ev := range events {
		dtos[i] = ClockEventDTO{EmployeeID: string(ev.EmployeeID), At: ev.At, Kind: ev.Kind.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ASSESSMENT HANDLERS
// =============================================================================

// Recalculate recomputes and commits the assessment for (business, month).
// On failure the previously stored assessment is untouched.
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}

	assessment, err := h.Engine.Recalculate(r.Context(), businessIDParam(r), month)
	if err != nil {
		writeError(w, statusFor(err), "Recalculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

// GetAssessment returns the last committed assessment.
func (h *Handler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}

	assessment, err := h.Engine.Assessment(r.Context(), businessIDParam(r), month)
	if err != nil {
		writeError(w, statusFor(err), "Failed to load assessment", err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

// ListRuns returns the recalculation log of a business, newest first.
// GET /api/businesses/{businessID}/runs?limit=N
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "Invalid limit", fmt.Errorf("limit must be within [1, 500], got %q", raw))
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), businessIDParam(r), limit)
	if err != nil {
		writeError(w, statusFor(err), "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func businessIDParam(r *http.Request) generic.BusinessID {
	return generic.BusinessID(chi.URLParam(r, "businessID"))
}

func monthParam(w http.ResponseWriter, r *http.Request) (generic.Month, bool) {
	month, err := generic.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return generic.Month{}, false
	}
	return month, true
}

func (h *Handler) location() *time.Location {
	if loc := h.Engine.Config().Location; loc != nil {
		return loc
	}
	return time.UTC
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func (h *Handler) validateRequest(req any) error {
	if err := h.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", generic.ErrValidation, err)
	}
	return nil
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		return http.StatusConflict
	case attendance.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case attendance.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
