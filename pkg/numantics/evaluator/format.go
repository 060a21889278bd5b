package evaluator

import (
	"math"
	"strconv"
)

// ResultPlaces is the number of decimal places a final result is rounded to.
const ResultPlaces = 7

// RoundAwayFromZero rounds v to the given number of decimal places,
// with halves rounded away from zero (2.5 -> 3, -2.5 -> -3).
func RoundAwayFromZero(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	if places <= 0 {
		return math.Round(v)
	}

	p := math.Pow10(places)
	scaled := v * p
	// Past 2^53 a float64 carries no fractional digits at this scale.
	if math.IsInf(scaled, 0) || math.Abs(scaled) >= 1<<53 {
		return v
	}
	return math.Round(scaled) / p
}

// FormatNumber renders v in plain notation: '.' as the decimal
// separator, no grouping, no exponent, and no trailing zeros.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0" // also covers -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatResult rounds v to ResultPlaces (or to an integer) and formats it.
func FormatResult(v float64, roundToInteger bool) string {
	v = RoundAwayFromZero(v, ResultPlaces)
	if roundToInteger {
		v = RoundAwayFromZero(v, 0)
	}
	return FormatNumber(v)
}
