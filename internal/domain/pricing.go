package domain

import (
	"math"
	"strconv"
	"strings"
)

// RoundTo rounds v half away from zero to the given number of decimals.
func RoundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// Quote prices qty units at ratePer1K, rounded to cents.
func Quote(ratePer1K float64, qty int64) float64 {
	return RoundTo(ratePer1K*float64(qty)/1000, 2)
}

// Clamp bounds v to [lo, hi]. When lo > hi the lower bound wins.
func Clamp(v, lo, hi int64) int64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// ClampInput parses a loosely typed quantity and clamps it. Anything that is
// not a finite number yields lo.
func ClampInput(raw string, lo, hi int64) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return lo
	}
	switch {
	case f >= float64(hi):
		return Clamp(hi, lo, hi)
	case f <= float64(lo):
		return lo
	}
	return Clamp(int64(math.Round(f)), lo, hi)
}
