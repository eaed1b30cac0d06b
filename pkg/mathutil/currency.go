// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/household-budget/pkg/constants"
)

// Round rounds a value to whole cents for display.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// NonNegative clamps negative values to zero.
func NonNegative(val float64) float64 {
	return Max(val, 0)
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * (percentage / constants.PercentageMultiplier)
}

// GrossUp adds a percentage on top of a value, e.g. a purchase price plus its
// transaction costs.
func GrossUp(value, percentage float64) float64 {
	return value * (1 + percentage/constants.PercentageMultiplier)
}

// NetOf is the inverse of GrossUp: the value that, grossed up by percentage,
// equals total.
func NetOf(total, percentage float64) float64 {
	return total / (1 + percentage/constants.PercentageMultiplier)
}
