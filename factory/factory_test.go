package factory_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// SHIFTS
// =============================================================================

func TestParseShift_Valid(t *testing.T) {
	data := `{
		"id": "day",
		"name": "Day shift",
		"defaultBreakMinutes": 30,
		"schedule": {
			"monday":   {"enabled": true, "startTime": "08:00", "endTime": "17:00", "breakMinutes": 60},
			"tuesday":  {"enabled": true, "startTime": "09:00", "endTime": "17:00"},
			"saturday": {"enabled": false}
		}
	}`

	s, err := factory.NewShiftFactory().ParseShift([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, attendance.ShiftID("day"), s.ID)
	assert.Equal(t, "Day shift", s.Name)
	assert.Equal(t, 480, s.ScheduledMinutes(time.Monday))
	assert.Equal(t, 450, s.ScheduledMinutes(time.Tuesday))
	assert.Equal(t, 0, s.ScheduledMinutes(time.Saturday))
	assert.Equal(t, 0, s.ScheduledMinutes(time.Sunday))
}

func TestParseShift_LegacySpellings(t *testing.T) {
	data := `{
		"id": "legacy",
		"shiftName": "Old shift",
		"defaultBreakDuration": 15,
		"schedule": {"friday": {"enabled": true, "startTime": "10:00", "endTime": "14:00", "breakDuration": 0}}
	}`

	s, err := factory.NewShiftFactory().ParseShift([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "Old shift", s.Name)
	require.NotNil(t, s.DefaultBreakMinutes)
	assert.Equal(t, 15, *s.DefaultBreakMinutes)
	assert.Equal(t, 240, s.ScheduledMinutes(time.Friday))
}

func TestParseShift_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		sentinel error
	}{
		{"not json", `{`, attendance.ErrInvalidScheduleFormat},
		{"missing id", `{"schedule": {}}`, generic.ErrValidation},
		{"bad time", `{"id": "x", "schedule": {"monday": {"enabled": true, "startTime": "8am", "endTime": "17:00"}}}`, attendance.ErrInvalidScheduleFormat},
		{"missing end", `{"id": "x", "schedule": {"monday": {"enabled": true, "startTime": "08:00"}}}`, attendance.ErrInvalidScheduleFormat},
		{"unknown weekday", `{"id": "x", "schedule": {"someday": {"enabled": false}}}`, attendance.ErrInvalidScheduleFormat},
		{"duplicate weekday", `{"id": "x", "schedule": {"monday": {"enabled": false}, "mon": {"enabled": false}}}`, attendance.ErrInvalidScheduleFormat},
		{"negative default break", `{"id": "x", "defaultBreakMinutes": -5, "schedule": {}}`, attendance.ErrInvalidScheduleFormat},
		{"negative day break", `{"id": "x", "schedule": {"monday": {"enabled": true, "startTime": "08:00", "endTime": "17:00", "breakMinutes": -1}}}`, attendance.ErrInvalidScheduleFormat},
	}

	f := factory.NewShiftFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseShift([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.True(t, attendance.IsClientError(err))
		})
	}
}

func TestShiftJSON_RoundTrip(t *testing.T) {
	data := `{"id": "night", "name": "Night", "schedule": {"wednesday": {"enabled": true, "startTime": "22:00", "endTime": "06:00", "breakMinutes": 30}}}`
	f := factory.NewShiftFactory()

	s, err := f.ParseShift([]byte(data))
	require.NoError(t, err)

	sj := factory.ToJSON(s, false)
	assert.False(t, sj.IsActive())
	assert.Equal(t, "22:00", sj.Schedule["wednesday"].StartTime)

	encoded, err := json.Marshal(sj)
	require.NoError(t, err)
	again, err := f.ParseShift(encoded)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestShiftJSON_ActiveDefault(t *testing.T) {
	assert.True(t, factory.ShiftJSON{}.IsActive())
}

// =============================================================================
// STAFF
// =============================================================================

func TestParseStaff(t *testing.T) {
	data := `[
		{"id": "e1", "slot": 1, "employeeName": "Ana", "payRate": "25.50", "shiftId": "day"},
		{"id": "e2", "slot": 2, "name": "Bo", "payRate": 30, "active": false},
		{"id": "e3", "slot": 3, "empName": "Cy"}
	]`

	employees, err := factory.NewStaffFactory().ParseStaff([]byte(data))
	require.NoError(t, err)
	require.Len(t, employees, 3)

	assert.Equal(t, "Ana", employees[0].Name)
	assert.True(t, decimal.RequireFromString("25.5").Equal(employees[0].PayRate))
	assert.Equal(t, attendance.ShiftID("day"), employees[0].ShiftID)
	assert.True(t, employees[0].Active)

	assert.Equal(t, "Bo", employees[1].Name)
	assert.True(t, decimal.NewFromInt(30).Equal(employees[1].PayRate))
	assert.False(t, employees[1].Active)

	assert.Equal(t, "Cy", employees[2].Name)
	assert.True(t, employees[2].PayRate.IsZero())
	assert.False(t, employees[2].HasShift())
}

func TestParsePayRate(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{``, "0", false},
		{`null`, "0", false},
		{`""`, "0", false},
		{`12.75`, "12.75", false},
		{`"12.75"`, "12.75", false},
		{`" 8 "`, "8", false},
		{`"abc"`, "", true},
		{`-1`, "", true},
		{`"-0.5"`, "", true},
		{`true`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := factory.ParsePayRate("e1", json.RawMessage(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, attendance.ErrInvalidPayRate)
				var pre *attendance.PayRateError
				require.ErrorAs(t, err, &pre)
				assert.Equal(t, attendance.EmployeeID("e1"), pre.EmployeeID)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseStaff_InvalidRecord(t *testing.T) {
	_, err := factory.NewStaffFactory().ParseStaff([]byte(`[{"slot": 1, "name": "No ID"}]`))
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = factory.NewStaffFactory().ParseStaff([]byte(`[{"id": "e1", "payRate": "lots"}]`))
	assert.ErrorIs(t, err, attendance.ErrInvalidPayRate)
}
