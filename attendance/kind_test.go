package attendance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
)

func TestNormalizeKind(t *testing.T) {
	tests := []struct {
		raw  string
		want attendance.ClockEventKind
	}{
		{"clock-in", attendance.ClockIn},
		{"Clock_In", attendance.ClockIn},
		{" IN ", attendance.ClockIn},
		{"checkin", attendance.ClockIn},
		{"clock-out", attendance.ClockOut},
		{"OUT", attendance.ClockOut},
		{"check-out", attendance.ClockOut},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := attendance.NormalizeKind(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeKind_Unknown(t *testing.T) {
	_, err := attendance.NormalizeKind("lunch")

	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrUnknownEventKind)
	var uke *attendance.UnknownKindError
	require.ErrorAs(t, err, &uke)
	assert.Equal(t, "lunch", uke.Raw)
	assert.True(t, attendance.IsClientError(err))
}

func TestResolveKind_FallsBackToAttendanceStatus(t *testing.T) {
	k, err := attendance.ResolveKind("", "out")
	require.NoError(t, err)
	assert.Equal(t, attendance.ClockOut, k)

	k, err = attendance.ResolveKind("clock-in", "out")
	require.NoError(t, err)
	assert.Equal(t, attendance.ClockIn, k, "explicit type wins")

	_, err = attendance.ResolveKind("", "")
	assert.ErrorIs(t, err, attendance.ErrUnknownEventKind)
}
