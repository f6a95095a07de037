package generic_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// AMOUNT
// =============================================================================

func TestAmount_MinutesToHoursAndPay(t *testing.T) {
	// GIVEN: 545 worked minutes at 30 per hour
	worked := generic.NewAmountFromInt(545, generic.UnitMinutes).ToHours().Round(generic.DefaultPrecision)

	// WHEN: Converting to pay
	pay := worked.Mul(decimal.NewFromInt(30)).As(generic.UnitCurrency).Round(generic.DefaultPrecision)

	// THEN: Hours are rounded once, then multiplied
	assert.Equal(t, "9.08 hours", worked.String())
	assert.Equal(t, "272.40 currency", pay.String())
}

func TestAmount_ClampZero(t *testing.T) {
	short := generic.Hours(176).Sub(generic.Hours(180))

	assert.True(t, short.IsNegative())
	assert.True(t, short.ClampZero().IsZero())
	assert.True(t, generic.Hours(3).ClampZero().Equal(generic.Hours(3)))
}

func TestAmount_Comparisons(t *testing.T) {
	a, b := generic.Hours(1.5), generic.Hours(2)

	assert.True(t, a.LessThan(b))
	assert.True(t, b.GreaterThan(a))
	assert.True(t, b.Div(decimal.NewFromInt(4)).Add(generic.Hours(1)).Equal(a))
	assert.False(t, generic.Hours(1).Equal(generic.Currency(1)), "units differ")
	assert.Equal(t, 1.5, a.Float())
	assert.True(t, a.IsPositive())
	assert.True(t, generic.NewAmountFromDecimal(decimal.RequireFromString("0.00"), generic.UnitHours).IsZero())
}

func TestParseDecimal(t *testing.T) {
	d, err := generic.ParseDecimal("25.50")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.5").Equal(d))

	_, err = generic.ParseDecimal("abc")
	assert.Error(t, err)
}

// =============================================================================
// DATE & MONTH
// =============================================================================

func TestDateIn_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	instant := time.Date(2026, time.March, 31, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, generic.NewDate(2026, time.March, 31), generic.DateIn(instant, nil))
	assert.Equal(t, generic.NewDate(2026, time.April, 1), generic.DateIn(instant, loc))
	assert.Equal(t, generic.MustParseMonth("2026-04"), generic.MonthOf(instant, loc))
}

func TestDate_Arithmetic(t *testing.T) {
	d := generic.NewDate(2026, time.February, 28)

	assert.Equal(t, generic.NewDate(2026, time.March, 1), d.AddDays(1))
	assert.Equal(t, time.Saturday, d.Weekday())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.BeforeOrEqual(d))
	assert.Equal(t, "2026-02-28", d.String())
	assert.Equal(t, generic.NewDate(2026, time.March, 2), generic.NewDate(2026, time.February, 30))

	parsed, err := generic.ParseDate("2026-02-28")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(d))
	_, err = generic.ParseDate("28/02/2026")
	assert.Error(t, err)
}

func TestParseMonth(t *testing.T) {
	m, err := generic.ParseMonth("2026-02")
	require.NoError(t, err)
	assert.Equal(t, generic.NewDate(2026, time.February, 1), m.First())
	assert.Equal(t, generic.NewDate(2026, time.February, 28), m.Last())
	assert.Equal(t, 28, m.Period().Len())
	assert.Equal(t, "2026-03", m.Next().String())

	for _, bad := range []string{"", "2026-13", "2026-2-1", "Feb 2026"} {
		_, err := generic.ParseMonth(bad)
		assert.ErrorIs(t, err, generic.ErrInvalidMonth, bad)
		assert.True(t, generic.IsClientError(err))
	}
}

func TestMonth_BoundsAreHalfOpen(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	from, to := generic.MustParseMonth("2026-12").Bounds(loc)

	assert.Equal(t, time.Date(2026, time.December, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, loc), to)
}

func TestMonth_JSON(t *testing.T) {
	type wrapper struct {
		Month generic.Month `json:"month"`
	}

	raw, err := json.Marshal(wrapper{Month: generic.MustParseMonth("2026-03")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"month":"2026-03"}`, string(raw))

	var w wrapper
	assert.Error(t, json.Unmarshal([]byte(`{"month":"March"}`), &w))
}

// =============================================================================
// PERIOD
// =============================================================================

func TestPeriod_ClipAndEmpty(t *testing.T) {
	march := generic.MustParseMonth("2026-03").Period()

	// WHEN: Clipping to the day before "now"
	elapsed := march.Clip(generic.NewDate(2026, time.March, 9).AddDays(-1))

	// THEN: Only fully elapsed days remain
	assert.Equal(t, 8, elapsed.Len())
	assert.Len(t, elapsed.Days(), 8)
	assert.True(t, elapsed.Contains(generic.NewDate(2026, time.March, 8)))
	assert.False(t, elapsed.Contains(generic.NewDate(2026, time.March, 9)))

	// Clipping past the end keeps the whole month
	assert.Equal(t, march, march.Clip(generic.NewDate(2026, time.May, 1)))

	// Clipping before the start empties it
	empty := march.Clip(generic.NewDate(2026, time.February, 28))
	assert.True(t, empty.IsEmpty())
	assert.Zero(t, empty.Len())
	assert.Empty(t, empty.Days())
	assert.ErrorIs(t, empty.Validate(), generic.ErrInvalidPeriod)
	assert.NoError(t, march.Validate())
	assert.Equal(t, "[2026-03-01, 2026-03-31]", march.String())
}

// =============================================================================
// CLOCK & ERRORS
// =============================================================================

func TestClocks(t *testing.T) {
	at := time.Date(2026, time.March, 31, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, at, generic.FixedClock{At: at}.Now())
	assert.Equal(t, at, generic.ClockFunc(func() time.Time { return at }).Now())
	assert.WithinDuration(t, time.Now(), generic.SystemClock{}.Now(), time.Minute)
}

func TestErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("load shift s1: %w", generic.ErrNotFound)

	assert.True(t, generic.IsNotFound(wrapped))
	assert.False(t, generic.IsClientError(wrapped))
	assert.True(t, generic.IsClientError(fmt.Errorf("x: %w", generic.ErrDuplicateIdempotencyKey)))
	assert.True(t, generic.IsRetryable(fmt.Errorf("x: %w", generic.ErrUnavailable)))
	assert.False(t, generic.IsRetryable(errors.New("boom")))
}
