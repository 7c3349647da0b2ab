package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Minor is an amount in the smallest currency unit (cents, ngwee).
// Every amount inside the till and on the wire is a Minor.
type Minor int64

var hundred = decimal.NewFromInt(100)

// legacyThreshold separates "already minor" from "major" values in untagged upstream data.
var legacyThreshold = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit value, rounding half away from zero at the minor unit.
func ToMinorUnits(v decimal.Decimal) Minor {
	return Minor(v.Mul(hundred).Round(0).IntPart())
}

// ToMinorUnitsPtr treats a missing value as zero.
func ToMinorUnitsPtr(v *decimal.Decimal) Minor {
	if v == nil {
		return 0
	}
	return ToMinorUnits(*v)
}

// ToMajorUnits renders m as a major-unit string fixed to 2 places.
func ToMajorUnits(m Minor) string {
	return m.Decimal().StringFixed(2)
}

// Decimal returns m in major units.
func (m Minor) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Minor) String() string { return ToMajorUnits(m) }

// Percent returns round(m * pct / 100).
func (m Minor) Percent(pct decimal.Decimal) Minor {
	return Minor(decimal.NewFromInt(int64(m)).Mul(pct).Div(hundred).Round(0).IntPart())
}

// MulRate returns round(m * rate), e.g. rate 0.16 for 16% VAT.
func (m Minor) MulRate(rate decimal.Decimal) Minor {
	return Minor(decimal.NewFromInt(int64(m)).Mul(rate).Round(0).IntPart())
}

// Unit says how a raw upstream number is denominated.
type Unit string

const (
	UnitMinor Unit = "minor"
	UnitMajor Unit = "major"
	// UnitAuto applies the legacy magnitude rule; only for sources that never declare a unit.
	UnitAuto Unit = "auto"
)

func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(s))); u {
	case UnitMinor, UnitMajor, UnitAuto:
		return u, nil
	default:
		return "", fmt.Errorf("invalid money unit %q (allowed: minor, major, auto)", s)
	}
}

// Amount is a raw number tagged with its unit at the point it entered the system.
type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

func Tag(v decimal.Decimal, unit Unit) Amount { return Amount{Value: v, Unit: unit} }

func (a Amount) Minor() Minor {
	switch a.Unit {
	case UnitMinor:
		return Minor(a.Value.Round(0).IntPart())
	case UnitAuto:
		return Legacy(a.Value)
	default:
		return ToMinorUnits(a.Value)
	}
}

// Legacy normalizes an untagged price: values above 100 are taken as minor units,
// everything else as major units. A 0.50 item and a 150.00 item are both misread
// by this rule, so it is only applied where the source cannot say what it sends.
func Legacy(v decimal.Decimal) Minor {
	if v.GreaterThan(legacyThreshold) {
		return Minor(v.Round(0).IntPart())
	}
	return ToMinorUnits(v)
}
