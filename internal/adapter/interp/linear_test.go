package interp

import (
	"math"
	"testing"
)

func TestLinear_InsideAndExact(t *testing.T) {
	xs := []float64{0, 10, 20}
	ys := []float64{1, 3, 7}

	tests := []struct {
		x, want float64
	}{
		{0, 1},
		{5, 2},
		{10, 3},
		{15, 5},
		{20, 7},
	}
	for _, tt := range tests {
		got, err := Linear(xs, ys, tt.x)
		if err != nil {
			t.Fatalf("Linear(%v): %v", tt.x, err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Linear(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestLinear_Extrapolates(t *testing.T) {
	xs := []float64{0, 10}
	ys := []float64{0, 10}
	for _, x := range []float64{-5, 15} {
		got, err := Linear(xs, ys, x)
		if err != nil {
			t.Fatalf("Linear(%v): %v", x, err)
		}
		if math.Abs(got-x) > 1e-12 {
			t.Errorf("Linear(%v) = %v", x, got)
		}
	}
}

func TestBracket_Errors(t *testing.T) {
	if _, _, err := Bracket(nil, 1); err == nil {
		t.Error("expected error for empty axis")
	}
	if _, _, err := Bracket([]float64{0, 0, 1}, 0.5); err == nil {
		t.Error("expected error for non increasing axis")
	}
	if _, _, err := Bracket([]float64{3}, 4); err == nil {
		t.Error("expected error extrapolating a single sample")
	}
	if j, f, err := Bracket([]float64{3}, 3); err != nil || j != 0 || f != 0 {
		t.Errorf("single sample exact hit: j=%d f=%v err=%v", j, f, err)
	}
}

func TestLinear_LengthMismatch(t *testing.T) {
	if _, err := Linear([]float64{0, 1}, []float64{0}, 0.5); err == nil {
		t.Error("expected length mismatch error")
	}
}
