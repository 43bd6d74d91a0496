package utils

import (
	"github.com/shopspring/decimal"
)

// Minor-unit money arithmetic.
//
// Every remaining-amount computation in the codebase must go through
// RemainingAmount. Independent re-derivations of `total - paid` caused the
// precision drift bugs this package exists to prevent: callers that held
// float-derived decimals disagreed with the stored paid amount by fractions
// of a paisa and flipped statuses back and forth.

// MinorUnitPlaces is the currency precision (paisa = 2 decimal places).
const MinorUnitPlaces = 2

// Tolerance is one minor unit. Differences at or below this are treated as
// settled. Do NOT widen this: anything beyond one minor unit lets genuine
// overpayments through.
var Tolerance = decimal.New(1, -MinorUnitPlaces)

// ToMinorUnits converts an amount to integer minor units, rounding half away
// from zero. decimal.Round uses half-away-from-zero, which matches how the
// payment terminals round display values upstream.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(MinorUnitPlaces).Shift(MinorUnitPlaces).IntPart()
}

// FromMinorUnits converts integer minor units back to a currency amount.
func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.New(units, -MinorUnitPlaces)
}

// Round2 rounds an amount to minor-unit precision.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MinorUnitPlaces)
}

// RemainingAmount returns the unsettled portion of an obligation.
// The subtraction happens in integer minor units, the result is clamped to
// zero when within Tolerance of completion and never reported negative
// (a historically over-paid obligation reports zero remaining).
func RemainingAmount(total, paid decimal.Decimal) decimal.Decimal {
	remaining := ToMinorUnits(total) - ToMinorUnits(paid)
	if remaining <= 1 && remaining >= -1 {
		return decimal.Zero
	}
	if remaining < 0 {
		return decimal.Zero
	}
	return FromMinorUnits(remaining)
}

// AmountsEqual reports whether two amounts are equal within Tolerance.
func AmountsEqual(a, b decimal.Decimal) bool {
	diff := ToMinorUnits(a) - ToMinorUnits(b)
	return diff <= 1 && diff >= -1
}

// ExceedsRemaining reports whether a settlement amount does not fit the
// remaining balance. One minor unit of slack absorbs rounding noise from
// callers that compute the amount from an unrounded display value.
func ExceedsRemaining(amount, remaining decimal.Decimal) bool {
	return ToMinorUnits(amount) > ToMinorUnits(remaining)+1
}

// ParseDecimal parses a user-supplied decimal string. Empty input is zero.
func ParseDecimal(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}
