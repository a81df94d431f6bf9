// Package interp provides the interpolation kernels used to resample station
// series in time and to blend stations in space.
package interp

import (
	"fmt"
	"math"
	"sort"
)

// Validate checks that an axis is usable for interpolation.
func Validate(xs []float64) error {
	if len(xs) == 0 {
		return fmt.Errorf("axis is empty")
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return fmt.Errorf("axis must be strictly increasing (index %d)", i)
		}
	}
	return nil
}

// Bracket locates x on the strictly increasing axis xs.
// It returns the lower index j and fraction f such that
//
//	v(x) ≈ (1-f)*v[j] + f*v[j+1]
//
// Outside the axis the first or last segment is extended, so f may be
// negative or greater than one. An axis of length one only accepts x == xs[0]
// and returns j=0, f=0.
func Bracket(xs []float64, x float64) (int, float64, error) {
	if err := Validate(xs); err != nil {
		return 0, 0, err
	}
	if math.IsNaN(x) {
		return 0, 0, fmt.Errorf("cannot interpolate at NaN")
	}
	n := len(xs)
	if n == 1 {
		if x == xs[0] {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("cannot extrapolate from a single sample at %v to %v", xs[0], x)
	}

	// First index with xs[i] >= x.
	i := sort.SearchFloat64s(xs, x)
	switch {
	case i < n && xs[i] == x:
		if i == n-1 {
			return n - 2, 1, nil
		}
		return i, 0, nil
	case i == 0:
		i = 1
	case i == n:
		i = n - 1
	}
	j := i - 1
	f := (x - xs[j]) / (xs[i] - xs[j])
	return j, f, nil
}

// Linear interpolates ys defined on xs at x, extrapolating linearly beyond
// the axis ends.
func Linear(xs, ys []float64, x float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("axis has %d points but %d values", len(xs), len(ys))
	}
	j, f, err := Bracket(xs, x)
	if err != nil {
		return 0, err
	}
	if f == 0 {
		return ys[j], nil
	}
	if f == 1 {
		return ys[j+1], nil
	}
	return (1-f)*ys[j] + f*ys[j+1], nil
}
