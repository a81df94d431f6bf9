package interp

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Neighbour is a candidate site and its distance from the target point.
type Neighbour struct {
	Index int
	Dist  float64
}

// Nearest returns up to n candidates ordered by increasing distance, keeping
// only those within tolerance. A tolerance <= 0 or +Inf disables the cut.
// Candidates with a NaN distance are ignored.
func Nearest(dists []float64, n int, tolerance float64) []Neighbour {
	out := make([]Neighbour, 0, len(dists))
	for i, d := range dists {
		if math.IsNaN(d) {
			continue
		}
		if tolerance > 0 && d > tolerance {
			continue
		}
		out = append(out, Neighbour{Index: i, Dist: d})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Dist < out[b].Dist })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// IDWWeights returns normalised inverse distance weights 1/d^power.
// A zero distance gets the full weight.
func IDWWeights(dists []float64, power float64) ([]float64, error) {
	if len(dists) == 0 {
		return nil, fmt.Errorf("no distances to weight")
	}
	if power <= 0 {
		return nil, fmt.Errorf("idw power must be positive, got %v", power)
	}
	w := make([]float64, len(dists))
	for i, d := range dists {
		if d < 0 || math.IsNaN(d) {
			return nil, fmt.Errorf("invalid distance %v", d)
		}
		if d == 0 {
			// Exact hit.
			for k := range w {
				w[k] = 0
			}
			w[i] = 1
			return w, nil
		}
		w[i] = 1 / math.Pow(d, power)
	}
	floats.Scale(1/floats.Sum(w), w)
	return w, nil
}
