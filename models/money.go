package models

import (
	"fmt"
	"math"
)

// Cents is a monetary amount in integer cents. Prices are never stored as
// binary floating point.
type Cents int64

// roundingEpsilon absorbs float representation error so that values such as
// 2.675 dollars land on the half-up side.
const roundingEpsilon = 1e-9

// RoundHalfUp rounds x to the nearest integer, ties away from negative infinity.
func RoundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5 + roundingEpsilon))
}

// CentsFromDollars converts a decimal dollar amount to cents, rounding half up.
func CentsFromDollars(dollars float64) Cents {
	return Cents(RoundHalfUp(dollars * 100))
}

// Dollars returns the amount as a float for display only.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

// String renders the amount as "$12.34".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}
