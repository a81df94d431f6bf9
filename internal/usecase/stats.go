package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.ngs.io/wave-boundary/internal/adapter/spectral"
	"go.ngs.io/wave-boundary/internal/dataset"
	"go.ngs.io/wave-boundary/internal/domain"
)

// StatsCalculator derives the boundary parameters of a single-site series.
type StatsCalculator interface {
	CalculateStats(ds *dataset.Dataset) (*domain.StatsTable, error)
}

// Validator is implemented by calculators that can check a source dataset
// before any extraction.
type Validator interface {
	Validate(ds *dataset.Dataset) error
}

// SpectralStats derives the parameters from directional spectra.
type SpectralStats struct {
	Names      spectral.Names
	Calculator spectral.Calculator
}

// NewSpectralStats returns a spectral deriver using the moment calculator.
func NewSpectralStats(names spectral.Names) *SpectralStats {
	d := spectral.DefaultNames()
	if names.Efth == "" {
		names.Efth = d.Efth
	}
	if names.Freq == "" {
		names.Freq = d.Freq
	}
	if names.Dir == "" {
		names.Dir = d.Dir
	}
	return &SpectralStats{Names: names, Calculator: spectral.Moments{}}
}

// Validate checks that ds carries the spectral variables.
func (s *SpectralStats) Validate(ds *dataset.Dataset) error {
	if err := spectral.Validate(ds, s.Names); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	return nil
}

// CalculateStats implements StatsCalculator.
func (s *SpectralStats) CalculateStats(ds *dataset.Dataset) (*domain.StatsTable, error) {
	if err := s.Validate(ds); err != nil {
		return nil, err
	}
	specs, err := spectral.Spectra(ds, s.Names)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	calc := s.Calculator
	if calc == nil {
		calc = spectral.Moments{}
	}

	n := len(specs)
	cols := map[string][]float64{
		domain.ParamHm0:      make([]float64, n),
		domain.ParamTp:       make([]float64, n),
		domain.ParamMainAng:  make([]float64, n),
		domain.ParamGammaJsp: make([]float64, n),
		domain.ParamS:        make([]float64, n),
	}
	for i, spec := range specs {
		st, err := calc.Stats(spec)
		if err != nil {
			return nil, fmt.Errorf("%w: spectral statistics at %s: %v",
				domain.ErrDataQuality, ds.Times[i].Format(time.RFC3339), err)
		}
		for name, v := range map[string]float64{"hs": st.Hs, "tp": st.Tp, "dpm": st.Dpm, "gamma": st.Gamma} {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("%w: spectral %s is NaN at %s",
					domain.ErrDataQuality, name, ds.Times[i].Format(time.RFC3339))
			}
		}
		sv, err := domain.DsprToS(st.Dspr)
		if err != nil {
			return nil, fmt.Errorf("at %s: %w", ds.Times[i].Format(time.RFC3339), err)
		}
		cols[domain.ParamHm0][i] = st.Hs
		cols[domain.ParamTp][i] = st.Tp
		cols[domain.ParamMainAng][i] = st.Dpm
		cols[domain.ParamGammaJsp][i] = st.Gamma
		cols[domain.ParamS][i] = sv
	}
	return newTable(ds.Times, cols)
}

// ParamSource resolves one parameter from a named variable or a constant.
// The zero value is unset.
type ParamSource struct {
	Var   string
	Value *float64
}

// FromVar returns a source reading the named variable.
func FromVar(name string) ParamSource { return ParamSource{Var: name} }

// FromValue returns a constant source.
func FromValue(v float64) ParamSource { return ParamSource{Value: &v} }

// IsSet reports whether the source is configured.
func (p ParamSource) IsSet() bool { return p.Var != "" || p.Value != nil }

func (p ParamSource) String() string {
	switch {
	case p.Var != "":
		return p.Var
	case p.Value != nil:
		return strconv.FormatFloat(*p.Value, 'g', -1, 64)
	default:
		return "<unset>"
	}
}

// ParseParamSource converts a decoded config value: a string names a
// variable, a number is a constant and nil is unset.
func ParseParamSource(v any) (ParamSource, error) {
	switch x := v.(type) {
	case nil:
		return ParamSource{}, nil
	case string:
		if x == "" {
			return ParamSource{}, nil
		}
		return FromVar(x), nil
	case ParamSource:
		return x, nil
	default:
		f, err := toFloat(v)
		if err != nil {
			return ParamSource{}, fmt.Errorf("%w: parameter must be a variable name or a number, got %T", domain.ErrConfig, v)
		}
		return FromValue(f), nil
	}
}

// UnmarshalJSON accepts a string or a number.
func (p *ParamSource) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	src, err := ParseParamSource(raw)
	if err != nil {
		return err
	}
	*p = src
	return nil
}

// MarshalJSON writes the variable name or the constant.
func (p ParamSource) MarshalJSON() ([]byte, error) {
	switch {
	case p.Var != "":
		return json.Marshal(p.Var)
	case p.Value != nil:
		return json.Marshal(*p.Value)
	default:
		return []byte("null"), nil
	}
}

// ParamStats derives the parameters from bulk variables or constants.
type ParamStats struct {
	Hm0      ParamSource `json:"hm0"`
	Tp       ParamSource `json:"tp"`
	MainAng  ParamSource `json:"mainang"`
	GammaJsp ParamSource `json:"gammajsp"`
	Dspr     ParamSource `json:"dspr"`
}

// DefaultParamStats reads hs, tp and dpm; gammajsp and dspr are unset.
func DefaultParamStats() ParamStats {
	return ParamStats{
		Hm0:     FromVar("hs"),
		Tp:      FromVar("tp"),
		MainAng: FromVar("dpm"),
	}
}

func (p ParamStats) sources() []struct {
	name string
	src  ParamSource
} {
	return []struct {
		name string
		src  ParamSource
	}{
		{domain.ParamHm0, p.Hm0},
		{domain.ParamTp, p.Tp},
		{domain.ParamMainAng, p.MainAng},
		{domain.ParamGammaJsp, p.GammaJsp},
		{"dspr", p.Dspr},
	}
}

// Validate checks that every configured variable exists in ds.
func (p ParamStats) Validate(ds *dataset.Dataset) error {
	for _, ps := range p.sources() {
		if ps.src.Var != "" && !ds.HasVar(ps.src.Var) {
			return fmt.Errorf("%w: variable %q for %s not in source dataset, available variables are %v",
				domain.ErrConfig, ps.src.Var, ps.name, ds.VarNames())
		}
	}
	return nil
}

// CalculateStats implements StatsCalculator. A NaN at any instant, from a
// variable or a constant, is a data quality error.
func (p ParamStats) CalculateStats(ds *dataset.Dataset) (*domain.StatsTable, error) {
	if err := p.Validate(ds); err != nil {
		return nil, err
	}
	n := len(ds.Times)
	cols := make(map[string][]float64)
	for _, ps := range p.sources() {
		if !ps.src.IsSet() {
			continue
		}
		values, err := p.resolve(ds, ps.name, ps.src, n)
		if err != nil {
			return nil, err
		}
		if ps.name != "dspr" {
			cols[ps.name] = values
			continue
		}
		s := make([]float64, n)
		for i, d := range values {
			if s[i], err = domain.DsprToS(d); err != nil {
				return nil, fmt.Errorf("at %s: %w", ds.Times[i].Format(time.RFC3339), err)
			}
		}
		cols[domain.ParamS] = s
	}
	return newTable(ds.Times, cols)
}

func (p ParamStats) resolve(ds *dataset.Dataset, name string, src ParamSource, n int) ([]float64, error) {
	if src.Value != nil {
		if math.IsNaN(*src.Value) {
			return nil, fmt.Errorf("%w: parameter %s is configured as NaN", domain.ErrDataQuality, name)
		}
		values := make([]float64, n)
		for i := range values {
			values[i] = *src.Value
		}
		return values, nil
	}
	values, err := ds.Series(src.Var)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: parameter %s (%s) is NaN at %s",
				domain.ErrDataQuality, name, src.Var, ds.Times[i].Format(time.RFC3339))
		}
	}
	return values, nil
}

func newTable(times []time.Time, cols map[string][]float64) (*domain.StatsTable, error) {
	table := domain.NewStatsTable(times)
	for name, col := range cols {
		if err := table.Set(name, col); err != nil {
			return nil, err
		}
	}
	return table, nil
}
