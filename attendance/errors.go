package attendance

import (
	"errors"
	"fmt"

	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrMissingShift: the employee references a shift that cannot be resolved.
	// Fail-open: the employee gets 0 past-due hours and the run continues.
	ErrMissingShift = errors.New("shift not found")

	// ErrInvalidScheduleFormat: a schedule entry is not a usable HH:MM pair.
	ErrInvalidScheduleFormat = errors.New("invalid schedule format")

	// ErrDirectoryUnavailable: the employee directory could not be read. Fatal for a run.
	ErrDirectoryUnavailable = errors.New("employee directory unavailable")

	// ErrEventStoreUnavailable: clock events could not be read. Fatal for a run.
	ErrEventStoreUnavailable = errors.New("event store unavailable")

	// ErrShiftDirectoryUnavailable: a shift lookup failed for a reason other
	// than the shift not existing. Treated like ErrMissingShift.
	ErrShiftDirectoryUnavailable = errors.New("shift directory unavailable")

	// ErrInvalidPayRate: a directory entry carries a pay rate that is not a
	// non-negative number.
	ErrInvalidPayRate = errors.New("invalid pay rate")

	// ErrUnknownEventKind: a raw punch kind outside the known vocabulary.
	ErrUnknownEventKind = errors.New("unknown event kind")

	// ErrAssessmentNotFound: nothing has been computed yet for (business, month).
	ErrAssessmentNotFound = fmt.Errorf("assessment %w", generic.ErrNotFound)

	ErrInvalidConfig = errors.New("invalid assessment config")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ScheduleFormatError pinpoints the offending field of a shift schedule.
type ScheduleFormatError struct {
	ShiftID ShiftID
	Day     string
	Field   string
	Value   string
	Reason  string
}

func (e *ScheduleFormatError) Error() string {
	return fmt.Sprintf("invalid schedule format: shift %q %s.%s=%q: %s",
		e.ShiftID, e.Day, e.Field, e.Value, e.Reason)
}

func (e *ScheduleFormatError) Unwrap() error { return ErrInvalidScheduleFormat }

// PayRateError is produced by the directory adapter instead of coercing to 0.
type PayRateError struct {
	EmployeeID EmployeeID
	Raw        string
}

func (e *PayRateError) Error() string {
	return fmt.Sprintf("invalid pay rate for employee %q: %q", e.EmployeeID, e.Raw)
}

func (e *PayRateError) Unwrap() error { return ErrInvalidPayRate }

// UnknownKindError carries the raw vocabulary that could not be normalized.
type UnknownKindError struct {
	Raw string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown event kind %q", e.Raw)
}

func (e *UnknownKindError) Unwrap() error { return ErrUnknownEventKind }

// RunError reports which stage of a recalculation failed.
type RunError struct {
	BusinessID generic.BusinessID
	Month      generic.Month
	Stage      string // employees, events, shifts, commit
	Err        error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("recalculate %s %s: %s: %v", e.BusinessID, e.Month, e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsFatal returns true for errors that must abort a whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDirectoryUnavailable) ||
		errors.Is(err, ErrEventStoreUnavailable) ||
		errors.Is(err, ErrInvalidScheduleFormat)
}

// IsClientError extends generic.IsClientError with domain input errors.
func IsClientError(err error) bool {
	return generic.IsClientError(err) ||
		errors.Is(err, ErrInvalidScheduleFormat) ||
		errors.Is(err, ErrInvalidPayRate) ||
		errors.Is(err, ErrUnknownEventKind) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsUnavailable returns true when a collaborator could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrDirectoryUnavailable) ||
		errors.Is(err, ErrEventStoreUnavailable) ||
		errors.Is(err, ErrShiftDirectoryUnavailable) ||
		generic.IsRetryable(err)
}

// wrapUnavailable tags err with sentinel unless it already carries it.
func wrapUnavailable(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
