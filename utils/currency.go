package utils

import "math"

// ToMinorUnits converts a decimal amount into the processor's integer
// minor-unit representation (e.g. dollars to cents), rounding to the
// nearest unit.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
