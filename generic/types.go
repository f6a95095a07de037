/*
Package generic provides the domain-agnostic building blocks of the engine.

PURPOSE:
  This package contains the small value types every other package leans on:
  decimal quantities with units, calendar dates and months, periods, an
  injectable clock, and the sentinel errors shared across stores. Nothing in
  here knows what an employee or a punch is.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 9.5 hours, 540 minutes, 3600.00 currency)
  - Precision: How many decimals a finalized value keeps
  - Identifiers: Type-safe business identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift in sums
  2. Explicit rounding: Values are rounded once, at the point they are finalized
  3. Type Safety: Strong typing for IDs prevents mixing business and employee IDs

USAGE:
  worked := generic.NewAmountFromInt(540, generic.UnitMinutes).ToHours()
  pay := worked.Mul(rate).Round(generic.DefaultPrecision)

SEE ALSO:
  - time.go: Date, Month and Clock
  - period.go: Inclusive date ranges
  - errors.go: Sentinel errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitHours    Unit = "hours"
	UnitMinutes  Unit = "minutes"
	UnitCurrency Unit = "currency"
)

// DefaultPrecision is the number of decimals kept by finalized hour and money values.
const DefaultPrecision int32 = 2

var minutesPerHour = decimal.NewFromInt(60)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(value), Unit: unit}
}

func NewAmountFromDecimal(value decimal.Decimal, unit Unit) Amount {
	return Amount{Value: value, Unit: unit}
}

func Hours(value float64) Amount    { return NewAmount(value, UnitHours) }
func Currency(value float64) Amount { return NewAmount(value, UnitCurrency) }

// ParseDecimal parses s, returning an error rather than a silent zero.
func ParseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

func (a Amount) Zero() Amount                    { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount             { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount             { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount    { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Div(s decimal.Decimal) Amount    { return Amount{Value: a.Value.Div(s), Unit: a.Unit} }
func (a Amount) Round(places int32) Amount       { return Amount{Value: a.Value.Round(places), Unit: a.Unit} }
func (a Amount) IsNegative() bool                { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                    { return a.Value.IsZero() }
func (a Amount) IsPositive() bool                { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool       { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool          { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool             { return a.Value.Equal(b.Value) && a.Unit == b.Unit }
func (a Amount) Float() float64                  { f, _ := a.Value.Float64(); return f }
func (a Amount) String() string                  { return a.Value.StringFixed(DefaultPrecision) + " " + string(a.Unit) }

// ClampZero returns a, or zero when a is negative.
func (a Amount) ClampZero() Amount {
	if a.IsNegative() {
		return a.Zero()
	}
	return a
}

// ToHours converts a minute amount into hours. Hour amounts are returned as is.
func (a Amount) ToHours() Amount {
	if a.Unit == UnitMinutes {
		return Amount{Value: a.Value.Div(minutesPerHour), Unit: UnitHours}
	}
	return a
}

// As relabels the amount with another unit (hours × rate → currency).
func (a Amount) As(unit Unit) Amount { return Amount{Value: a.Value, Unit: unit} }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type BusinessID string

func (b BusinessID) String() string { return string(b) }
