// Package units converts values between metric-prefixed units that share a
// base unit (e.g. "keV" -> "MeV", "mm" -> "cm").
//
// All arithmetic is done on *big.Rat so every 10^±24 scale factor is exact.
// There is no package-level precision setting; callers that only need an
// approximation use the Float helpers.
package units

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrUnknownPrefix is returned when a prefix symbol has no scale factor.
	ErrUnknownPrefix = errors.New("unknown metric prefix")
	// ErrUnitMismatch is returned when a unit's base differs from the expected base.
	ErrUnitMismatch = errors.New("base unit mismatch")
	// ErrNotFinite is returned by the Float helpers for NaN and ±Inf inputs.
	ErrNotFinite = errors.New("value is not finite")
)

// metricPrefixes maps prefix symbols to their decimal exponent.
var metricPrefixes = map[string]int{
	"Y":  24, // yotta
	"Z":  21, // zetta
	"E":  18, // exa
	"P":  15, // peta
	"T":  12, // tera
	"G":  9,  // giga
	"M":  6,  // mega
	"k":  3,  // kilo
	"h":  2,  // hecto
	"da": 1,  // deca
	"":   0,
	"d":  -1,  // deci
	"c":  -2,  // centi
	"m":  -3,  // milli
	"u":  -6,  // micro, ASCII spelling
	"µ":  -6,  // micro sign U+00B5
	"μ":  -6,  // greek mu U+03BC
	"n":  -9,  // nano
	"p":  -12, // pico
	"f":  -15, // femto
	"a":  -18, // atto
	"z":  -21, // zepto
	"y":  -24, // yocto
}

// Prefixes returns every supported prefix symbol, including the empty prefix.
func Prefixes() []string {
	out := make([]string, 0, len(metricPrefixes))
	for p := range metricPrefixes {
		out = append(out, p)
	}
	return out
}

// Factor returns the scale factor of a prefix as an exact rational.
func Factor(prefix string) (*big.Rat, error) {
	exp, ok := metricPrefixes[prefix]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrefix, prefix)
	}
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(exp))), nil)
	if exp < 0 {
		return new(big.Rat).SetFrac(big.NewInt(1), pow), nil
	}
	return new(big.Rat).SetInt(pow), nil
}

// ParseUnit splits a unit string into its prefix and base unit.
//
// Matching is greedy: a known two-character prefix wins when something is left
// after it, then a known one-character prefix under the same rule. Otherwise
// the whole string is the base unit. Characters are counted as runes so "µm"
// parses as ("µ", "m").
//
// A base unit that is itself a prefix symbol is ambiguous: "mm" is
// milli-metre, but "m" alone is the metre.
func ParseUnit(unit string) (prefix, base string) {
	r := []rune(unit)
	if len(r) > 2 {
		if _, ok := metricPrefixes[string(r[:2])]; ok {
			return string(r[:2]), string(r[2:])
		}
	}
	if len(r) > 1 {
		if _, ok := metricPrefixes[string(r[:1])]; ok {
			return string(r[:1]), string(r[1:])
		}
	}
	return "", unit
}

// ConvertUnit converts value from current to target. Both units must parse
// to the expected base.
func ConvertUnit(value *big.Rat, current, target, base string) (*big.Rat, error) {
	currentPrefix, currentBase := ParseUnit(current)
	targetPrefix, targetBase := ParseUnit(target)
	if currentBase != base || targetBase != base {
		return nil, fmt.Errorf("%w: expected base %q, got %q and %q", ErrUnitMismatch, base, currentBase, targetBase)
	}
	currentFactor, err := Factor(currentPrefix)
	if err != nil {
		return nil, err
	}
	targetFactor, err := Factor(targetPrefix)
	if err != nil {
		return nil, err
	}
	out := new(big.Rat).Mul(value, currentFactor)
	return out.Quo(out, targetFactor), nil
}

// ConvertToBaseUnit scales value from unit to unit's base unit.
func ConvertToBaseUnit(value *big.Rat, unit string) (*big.Rat, error) {
	prefix, _ := ParseUnit(unit)
	factor, err := Factor(prefix)
	if err != nil {
		return nil, err
	}
	return new(big.Rat).Mul(value, factor), nil
}

// ConvertFromBaseUnit scales value from the base unit of unit to unit.
func ConvertFromBaseUnit(value *big.Rat, unit string) (*big.Rat, error) {
	prefix, _ := ParseUnit(unit)
	factor, err := Factor(prefix)
	if err != nil {
		return nil, err
	}
	return new(big.Rat).Quo(value, factor), nil
}

// ConvertFloat is ConvertUnit for float64 values. The conversion itself is
// exact; only the final rounding to float64 loses precision.
func ConvertFloat(value float64, current, target, base string) (float64, error) {
	r, err := ratFromFloat(value)
	if err != nil {
		return 0, err
	}
	out, err := ConvertUnit(r, current, target, base)
	if err != nil {
		return 0, err
	}
	f, _ := out.Float64()
	return f, nil
}

// ToBaseFloat is ConvertToBaseUnit for float64 values.
func ToBaseFloat(value float64, unit string) (float64, error) {
	r, err := ratFromFloat(value)
	if err != nil {
		return 0, err
	}
	out, err := ConvertToBaseUnit(r, unit)
	if err != nil {
		return 0, err
	}
	f, _ := out.Float64()
	return f, nil
}

// FromBaseFloat is ConvertFromBaseUnit for float64 values.
func FromBaseFloat(value float64, unit string) (float64, error) {
	r, err := ratFromFloat(value)
	if err != nil {
		return 0, err
	}
	out, err := ConvertFromBaseUnit(r, unit)
	if err != nil {
		return 0, err
	}
	f, _ := out.Float64()
	return f, nil
}

func ratFromFloat(v float64) (*big.Rat, error) {
	r := new(big.Rat)
	if r.SetFloat64(v) == nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFinite, v)
	}
	return r, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
