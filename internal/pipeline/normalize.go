package pipeline

import (
	"fmt"
	"math"
	"sort"

	"salaryprep/internal"
	"salaryprep/internal/frame"
)

// DefaultWinsorLimit is the fraction clamped from each tail of salary_in_usd.
const DefaultWinsorLimit = 0.01

// Bounds is the closed interval salaries are clamped into.
type Bounds struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// Contains reports whether v already lies inside b.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

type NormalizeStats struct {
	Bounds      Bounds
	ClampedLow  int
	ClampedHigh int
}

func validateLimits(lower, upper float64) error {
	if lower < 0 || lower >= 0.5 || upper < 0 || upper >= 0.5 {
		return fmt.Errorf("winsor limits %g/%g: each must be within [0, 0.5)", lower, upper)
	}
	return nil
}

// WinsorBounds returns the values a two-sided winsorization would clamp to.
// With n values sorted ascending, the floor(lower*n) lowest are raised to the
// next value and the floor(upper*n) highest are lowered to the one below them.
func WinsorBounds(values []float64, lower, upper float64) (Bounds, error) {
	if err := validateLimits(lower, upper); err != nil {
		return Bounds{}, err
	}
	n := len(values)
	if n == 0 {
		return Bounds{Lower: math.Inf(-1), Upper: math.Inf(1)}, nil
	}
	sorted := append([]float64(nil), values...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	lo := int(lower * float64(n))
	hi := int(upper * float64(n))
	return Bounds{Lower: sorted[lo], Upper: sorted[n-hi-1]}, nil
}

// Clamp moves every value outside b onto the nearer bound, in place. It
// returns how many values were raised and lowered.
func Clamp(values []float64, b Bounds) (low, high int) {
	for i, v := range values {
		if b.Contains(v) {
			continue
		}
		switch {
		case v < b.Lower:
			values[i] = b.Lower
			low++
		case v > b.Upper:
			values[i] = b.Upper
			high++
		}
	}
	return low, high
}

// Winsorize returns a clamped copy of values together with the bounds used.
func Winsorize(values []float64, lower, upper float64) ([]float64, NormalizeStats, error) {
	b, err := WinsorBounds(values, lower, upper)
	if err != nil {
		return nil, NormalizeStats{}, err
	}
	out := append([]float64(nil), values...)
	low, high := Clamp(out, b)
	return out, NormalizeStats{Bounds: b, ClampedLow: low, ClampedHigh: high}, nil
}

// Normalize coerces work_year to an integer and winsorizes salary_in_usd at
// the default 1%/1% limits.
func Normalize(f *frame.Frame) (*frame.Frame, NormalizeStats, error) {
	return NormalizeWithLimits(f, DefaultWinsorLimit, DefaultWinsorLimit)
}

// NormalizeWithLimits is Normalize with explicit tail fractions.
func NormalizeWithLimits(f *frame.Frame, lower, upper float64) (*frame.Frame, NormalizeStats, error) {
	return normalize(f, func(salaries []float64) (Bounds, error) {
		return WinsorBounds(salaries, lower, upper)
	})
}

// NormalizeWithBounds clamps salary_in_usd to previously fitted bounds.
func NormalizeWithBounds(f *frame.Frame, b Bounds) (*frame.Frame, NormalizeStats, error) {
	return normalize(f, func([]float64) (Bounds, error) { return b, nil })
}

func normalize(f *frame.Frame, bounds func([]float64) (Bounds, error)) (*frame.Frame, NormalizeStats, error) {
	yearCol, err := numberOrTextColumn(f, internal.ColWorkYear)
	if err != nil {
		return nil, NormalizeStats{}, err
	}
	years, err := parseYears(f, yearCol)
	if err != nil {
		return nil, NormalizeStats{}, err
	}

	salaryCol, err := numberOrTextColumn(f, internal.ColSalaryInUSD)
	if err != nil {
		return nil, NormalizeStats{}, err
	}
	salaries, err := parseNumbers(f, salaryCol)
	if err != nil {
		return nil, NormalizeStats{}, err
	}

	b, err := bounds(salaries)
	if err != nil {
		return nil, NormalizeStats{}, err
	}
	low, high := Clamp(salaries, b)

	out := f.Clone()
	yearValues := make([]float64, len(years))
	for i, y := range years {
		yearValues[i] = float64(y)
	}
	if err := out.SetNumber(internal.ColWorkYear, yearValues); err != nil {
		return nil, NormalizeStats{}, err
	}
	if err := out.SetNumber(internal.ColSalaryInUSD, salaries); err != nil {
		return nil, NormalizeStats{}, err
	}
	return out, NormalizeStats{Bounds: b, ClampedLow: low, ClampedHigh: high}, nil
}
