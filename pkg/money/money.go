package money

import (
	"fmt"
	"math"
)

// Round2 rounds an amount to two decimal places, half away from zero.
// All monetary amounts in the platform are normalised through this one
// function so rounding stays deterministic across code paths.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Minor converts an amount to integer minor units (cents).
func Minor(v float64) int64 {
	return int64(math.Round(v * 100))
}

// Format renders an amount for human-readable descriptions.
func Format(v float64, currency string) string {
	return fmt.Sprintf("%.2f %s", Round2(v), currency)
}
