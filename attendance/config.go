package attendance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// Defaults used when a business does not override them.
var (
	DefaultRequiredHoursPerMonth = decimal.NewFromInt(176)
	DefaultBehindThreshold       = decimal.Zero
	DefaultCriticalThreshold     = decimal.NewFromInt(40)
)

// Config holds every tunable of an assessment run.
//
// Status rules compare hoursShort strictly:
//   - hoursShort > CriticalThreshold → Critical
//   - hoursShort > BehindThreshold   → Behind
//   - otherwise                      → OnTrack
type Config struct {
	RequiredHoursPerMonth decimal.Decimal
	BehindThreshold       decimal.Decimal
	CriticalThreshold     decimal.Decimal
	Precision             int32
	Location              *time.Location
}

func DefaultConfig() Config {
	return Config{
		RequiredHoursPerMonth: DefaultRequiredHoursPerMonth,
		BehindThreshold:       DefaultBehindThreshold,
		CriticalThreshold:     DefaultCriticalThreshold,
		Precision:             generic.DefaultPrecision,
		Location:              time.UTC,
	}
}

// Validate rejects configurations that would make status classification ambiguous.
func (c Config) Validate() error {
	if c.RequiredHoursPerMonth.IsNegative() {
		return fmt.Errorf("%w: required hours per month must be >= 0, got %s", ErrInvalidConfig, c.RequiredHoursPerMonth)
	}
	if c.BehindThreshold.IsNegative() {
		return fmt.Errorf("%w: behind threshold must be >= 0, got %s", ErrInvalidConfig, c.BehindThreshold)
	}
	if c.CriticalThreshold.LessThan(c.BehindThreshold) {
		return fmt.Errorf("%w: critical threshold %s below behind threshold %s",
			ErrInvalidConfig, c.CriticalThreshold, c.BehindThreshold)
	}
	if c.Precision < 0 || c.Precision > 6 {
		return fmt.Errorf("%w: precision must be within [0, 6], got %d", ErrInvalidConfig, c.Precision)
	}
	return nil
}

// StatusFor classifies a shortfall.
func (c Config) StatusFor(hoursShort decimal.Decimal) Status {
	switch {
	case hoursShort.GreaterThan(c.CriticalThreshold):
		return StatusCritical
	case hoursShort.GreaterThan(c.BehindThreshold):
		return StatusBehind
	default:
		return StatusOnTrack
	}
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Config) round(d decimal.Decimal) decimal.Decimal {
	return d.Round(c.Precision)
}
