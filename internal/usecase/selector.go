package usecase

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"go.ngs.io/wave-boundary/internal/adapter/geo"
	"go.ngs.io/wave-boundary/internal/adapter/interp"
	"go.ngs.io/wave-boundary/internal/dataset"
	"go.ngs.io/wave-boundary/internal/domain"
)

// Site selection methods.
const (
	MethodNearest = "nearest"
	MethodIDW     = "idw"
)

// Selection defaults.
const (
	DefaultMaxSites = 4
	DefaultPower    = 1.0
)

// SelectOptions tune site selection.
type SelectOptions struct {
	Tolerance float64 // Maximum site distance in source CRS units, 0 for none.
	MaxSites  int     // IDW only: number of nearest sites blended.
	Power     float64 // IDW only: distance exponent.
}

// ParseSelectOptions reads method keyword options. Recognised keys are
// tolerance (both methods), max_sites and power (idw only).
func ParseSelectOptions(method string, kwargs map[string]any) (SelectOptions, error) {
	opts := SelectOptions{MaxSites: DefaultMaxSites, Power: DefaultPower}
	allowed := map[string]bool{"tolerance": true}
	if method == MethodIDW {
		allowed["max_sites"] = true
		allowed["power"] = true
	}
	keys := make([]string, 0, len(kwargs))
	for k := range kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !allowed[strings.ToLower(k)] {
			return opts, fmt.Errorf("%w: unknown %s option %q", domain.ErrConfig, method, k)
		}
		v, err := toFloat(kwargs[k])
		if err != nil {
			return opts, fmt.Errorf("%w: option %s: %v", domain.ErrConfig, k, err)
		}
		switch strings.ToLower(k) {
		case "tolerance":
			if v < 0 {
				return opts, fmt.Errorf("%w: tolerance must not be negative, got %v", domain.ErrConfig, v)
			}
			opts.Tolerance = v
		case "max_sites":
			if v < 1 || v != math.Trunc(v) {
				return opts, fmt.Errorf("%w: max_sites must be a positive integer, got %v", domain.ErrConfig, v)
			}
			opts.MaxSites = int(v)
		case "power":
			if v <= 0 {
				return opts, fmt.Errorf("%w: power must be positive, got %v", domain.ErrConfig, v)
			}
			opts.Power = v
		}
	}
	return opts, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

// Selector extracts the series at one point from a station dataset.
type Selector struct {
	Coords  dataset.Coords
	Method  string
	Options SelectOptions
	Log     logrus.FieldLogger
}

// NewSelector builds a selector. An empty method selects idw.
func NewSelector(coords dataset.Coords, method string, kwargs map[string]any) (*Selector, error) {
	method = strings.ToLower(method)
	if method == "" {
		method = MethodIDW
	}
	if method != MethodNearest && method != MethodIDW {
		return nil, fmt.Errorf("%w: unknown selection method %q (expected %s or %s)",
			domain.ErrConfig, method, MethodNearest, MethodIDW)
	}
	opts, err := ParseSelectOptions(method, kwargs)
	if err != nil {
		return nil, err
	}
	return &Selector{
		Coords:  coords.WithDefaults(),
		Method:  method,
		Options: opts,
		Log:     logrus.StandardLogger(),
	}, nil
}

// Validate checks that ds is station data: time and site are dimensions,
// and the site coordinates are variables rather than dimensions.
func (s *Selector) Validate(ds *dataset.Dataset) error {
	c := s.Coords
	for _, dim := range []string{c.T, c.S} {
		if !ds.HasDim(dim) {
			return fmt.Errorf("%w: coordinate %q not in source dataset, available coordinates are %v",
				domain.ErrConfig, dim, ds.Sizes())
		}
	}
	if ds.TimeName() != c.T {
		return fmt.Errorf("%w: %q is not the time axis of the source dataset", domain.ErrConfig, c.T)
	}
	for _, coord := range []string{c.X, c.Y} {
		if ds.HasDim(coord) {
			return fmt.Errorf("%w: %q must not be a dimension in the stations source dataset, but it is: %v - is this a gridded source?",
				domain.ErrConfig, coord, ds.Sizes())
		}
		v, ok := ds.Var(coord)
		if !ok {
			return fmt.Errorf("%w: %q must be a variable in the stations source dataset but available variables are %v",
				domain.ErrConfig, coord, ds.VarNames())
		}
		if len(v.Dims) != 1 || v.Dims[0] != c.S {
			return fmt.Errorf("%w: %q must be defined over %q only, got %v", domain.ErrConfig, coord, c.S, v.Dims)
		}
	}
	return nil
}

// Select returns the series at pt, which must be expressed in the source
// CRS. The result has a single site.
func (s *Selector) Select(ds *dataset.Dataset, pt geo.Point) (*dataset.Dataset, error) {
	if err := s.Validate(ds); err != nil {
		return nil, err
	}
	dists := s.distances(ds, pt)

	switch s.Method {
	case MethodNearest:
		near := interp.Nearest(dists, 1, s.Options.Tolerance)
		if len(near) == 0 {
			return nil, fmt.Errorf("%w: no site within tolerance %g of (%g, %g)",
				domain.ErrRange, s.Options.Tolerance, pt.X, pt.Y)
		}
		s.log().WithFields(logrus.Fields{
			"site":     near[0].Index,
			"distance": near[0].Dist,
		}).Debug("selected nearest site")
		return ds.ISel(s.Coords.S, []int{near[0].Index})

	case MethodIDW:
		near := interp.Nearest(dists, s.Options.MaxSites, s.Options.Tolerance)
		if len(near) == 0 {
			return nil, fmt.Errorf("%w: no site within tolerance %g of (%g, %g)",
				domain.ErrRange, s.Options.Tolerance, pt.X, pt.Y)
		}
		nd := make([]float64, len(near))
		for i, n := range near {
			nd[i] = n.Dist
		}
		w, err := interp.IDWWeights(nd, s.Options.Power)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
		}
		weights := make([]float64, len(dists))
		for i, n := range near {
			weights[n.Index] = w[i]
		}
		s.log().WithFields(logrus.Fields{
			"sites":   len(near),
			"weights": w,
		}).Debug("blending sites")
		out, err := ds.Weighted(s.Coords.S, weights)
		if err != nil {
			return nil, err
		}
		// The blended site sits at the requested point.
		if err := out.AddVar(s.Coords.X, []string{s.Coords.S}, []float64{pt.X}); err != nil {
			return nil, err
		}
		if err := out.AddVar(s.Coords.Y, []string{s.Coords.S}, []float64{pt.Y}); err != nil {
			return nil, err
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unknown selection method %q", domain.ErrConfig, s.Method)
	}
}

// distances returns the planar distance from pt to every site. Longitude
// differences are wrapped to [-180, 180] in geographic CRSs.
func (s *Selector) distances(ds *dataset.Dataset, pt geo.Point) []float64 {
	xs, _ := ds.Var(s.Coords.X)
	ys, _ := ds.Var(s.Coords.Y)
	wrap := geo.IsGeographic(pt.CRS)
	out := make([]float64, len(xs.Data))
	for i := range out {
		dx := xs.Data[i] - pt.X
		if wrap {
			dx = math.Mod(dx+540, 360) - 180
		}
		out[i] = math.Hypot(dx, ys.Data[i]-pt.Y)
	}
	return out
}

func (s *Selector) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
