package attendance

import "strings"

// Device and import tools spell punches in many ways. The mapping happens once
// here, at the event store boundary; the Reconciler never sees raw strings.
var kindVocabulary = map[string]ClockEventKind{
	"in":        ClockIn,
	"clock-in":  ClockIn,
	"clock_in":  ClockIn,
	"clockin":   ClockIn,
	"clock in":  ClockIn,
	"check-in":  ClockIn,
	"checkin":   ClockIn,
	"out":       ClockOut,
	"clock-out": ClockOut,
	"clock_out": ClockOut,
	"clockout":  ClockOut,
	"clock out": ClockOut,
	"check-out": ClockOut,
	"checkout":  ClockOut,
}

// NormalizeKind maps a raw kind onto ClockIn/ClockOut, case-insensitively.
func NormalizeKind(raw string) (ClockEventKind, error) {
	if k, ok := kindVocabulary[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return k, nil
	}
	return 0, &UnknownKindError{Raw: raw}
}

// ResolveKind prefers the explicit type and falls back to the attendance
// status flag some devices send instead ("in"/"out").
func ResolveKind(eventType, attendanceStatus string) (ClockEventKind, error) {
	if strings.TrimSpace(eventType) != "" {
		return NormalizeKind(eventType)
	}
	return NormalizeKind(attendanceStatus)
}
