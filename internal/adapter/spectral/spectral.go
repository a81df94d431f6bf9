// Package spectral computes bulk wave statistics from directional spectra.
package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"go.ngs.io/wave-boundary/internal/dataset"
)

// Spectrum is a directional wave spectrum E(f, θ) in m²/Hz/deg.
type Spectrum struct {
	Freq []float64   // Frequencies [Hz], increasing.
	Dir  []float64   // Directions [deg], uniformly spaced.
	Efth [][]float64 // Efth[i][j] is the density at Freq[i], Dir[j].
}

// Stats are the bulk parameters of one spectrum.
type Stats struct {
	Hs    float64 // Significant wave height [m].
	Tp    float64 // Peak period [s].
	Dpm   float64 // Mean direction at the spectral peak [deg].
	Gamma float64 // JONSWAP peak enhancement factor.
	Dspr  float64 // Directional spread [deg].
}

// Calculator computes bulk statistics from a spectrum.
type Calculator interface {
	Stats(spec Spectrum) (Stats, error)
}

// Names identifies the spectral variables in a dataset.
type Names struct {
	Efth string `json:"efth" mapstructure:"efth"`
	Freq string `json:"freq" mapstructure:"freq"`
	Dir  string `json:"dir" mapstructure:"dir"`
}

// DefaultNames returns the wavespectra naming convention.
func DefaultNames() Names {
	return Names{Efth: "efth", Freq: "freq", Dir: "dir"}
}

// Moments is the default Calculator. It integrates the spectrum with the
// trapezoidal rule in frequency and a rectangle rule in direction.
//
// Gamma is estimated as the ratio of the spectral peak to the peak of a
// Pierson-Moskowitz spectrum with the same Hs and Tp.
type Moments struct{}

// Stats implements Calculator.
func (Moments) Stats(spec Spectrum) (Stats, error) {
	nf, nd := len(spec.Freq), len(spec.Dir)
	if nf < 2 {
		return Stats{}, fmt.Errorf("spectrum needs at least 2 frequencies, got %d", nf)
	}
	if nd < 1 {
		return Stats{}, fmt.Errorf("spectrum has no directions")
	}
	if len(spec.Efth) != nf {
		return Stats{}, fmt.Errorf("spectrum has %d frequency rows, expected %d", len(spec.Efth), nf)
	}

	dd := 1.0
	if nd > 1 {
		dd = math.Abs(spec.Dir[1] - spec.Dir[0])
	}
	cosd := make([]float64, nd)
	sind := make([]float64, nd)
	for j, d := range spec.Dir {
		r := d * math.Pi / 180
		cosd[j] = math.Cos(r)
		sind[j] = math.Sin(r)
	}

	ef := make([]float64, nf)
	ea := make([]float64, nf)
	eb := make([]float64, nf)
	for i, row := range spec.Efth {
		if len(row) != nd {
			return Stats{}, fmt.Errorf("spectrum row %d has %d directions, expected %d", i, len(row), nd)
		}
		ef[i] = floats.Sum(row) * dd
		ea[i] = floats.Dot(row, cosd) * dd
		eb[i] = floats.Dot(row, sind) * dd
	}

	m0 := integrate.Trapezoidal(spec.Freq, ef)
	hs := 4 * math.Sqrt(m0)

	ipeak := floats.MaxIdx(ef)
	fp := spec.Freq[ipeak]
	tp := math.NaN()
	if ef[ipeak] > 0 && fp > 0 {
		tp = 1 / fp
	}

	dpm := math.NaN()
	if ef[ipeak] > 0 {
		pa := floats.Dot(spec.Efth[ipeak], cosd)
		pb := floats.Dot(spec.Efth[ipeak], sind)
		dpm = math.Mod(math.Atan2(pb, pa)*180/math.Pi+360, 360)
	}

	dspr := math.NaN()
	if m0 > 0 {
		a := integrate.Trapezoidal(spec.Freq, ea) / m0
		b := integrate.Trapezoidal(spec.Freq, eb) / m0
		m1 := math.Min(1, math.Hypot(a, b))
		dspr = math.Sqrt(2*(1-m1)) * 180 / math.Pi
	}

	gamma := math.NaN()
	if hs > 0 && fp > 0 {
		pm := 5.0 / 16.0 * hs * hs / fp * math.Exp(-1.25)
		gamma = ef[ipeak] / pm
	}

	return Stats{Hs: hs, Tp: tp, Dpm: dpm, Gamma: gamma, Dspr: dspr}, nil
}

// Validate checks that a dataset carries the spectral variables.
func Validate(ds *dataset.Dataset, names Names) error {
	for _, coord := range []string{names.Freq, names.Dir} {
		if !ds.HasDim(coord) {
			return fmt.Errorf("spectral coordinate %q not a dimension, available dimensions are %v", coord, ds.Sizes())
		}
		if !ds.HasVar(coord) {
			return fmt.Errorf("spectral coordinate %q has no values", coord)
		}
	}
	v, ok := ds.Var(names.Efth)
	if !ok {
		return fmt.Errorf("spectral variable %q not in dataset, available variables are %v", names.Efth, ds.VarNames())
	}
	n := len(v.Dims)
	if n < 2 || v.Dims[n-2] != names.Freq || v.Dims[n-1] != names.Dir {
		return fmt.Errorf("spectral variable %q must end with dimensions (%s, %s), got %v",
			names.Efth, names.Freq, names.Dir, v.Dims)
	}
	return nil
}

// Spectra splits a single-site dataset into one Spectrum per instant.
func Spectra(ds *dataset.Dataset, names Names) ([]Spectrum, error) {
	if err := Validate(ds, names); err != nil {
		return nil, err
	}
	freqVar, _ := ds.Var(names.Freq)
	dirVar, _ := ds.Var(names.Dir)
	efth, _ := ds.Var(names.Efth)
	freq := append([]float64(nil), freqVar.Data...)
	dir := append([]float64(nil), dirVar.Data...)

	nt := len(ds.Times)
	block := len(freq) * len(dir)
	if len(efth.Data) != nt*block {
		return nil, fmt.Errorf("spectral variable %q has %d values, expected %d for %d times of a single site",
			names.Efth, len(efth.Data), nt*block, nt)
	}
	if len(efth.Dims) == 0 || efth.Dims[0] != ds.TimeName() {
		return nil, fmt.Errorf("spectral variable %q must lead with the time dimension, got %v", names.Efth, efth.Dims)
	}

	out := make([]Spectrum, nt)
	for t := 0; t < nt; t++ {
		rows := make([][]float64, len(freq))
		for i := range freq {
			start := t*block + i*len(dir)
			rows[i] = append([]float64(nil), efth.Data[start:start+len(dir)]...)
		}
		out[t] = Spectrum{Freq: freq, Dir: dir, Efth: rows}
	}
	return out, nil
}
