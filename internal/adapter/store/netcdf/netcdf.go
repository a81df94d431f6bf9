// Package netcdf reads station wave datasets from NetCDF files.
package netcdf

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/wave-boundary/internal/dataset"
)

// Source reads a station NetCDF file. The file is read once and cached;
// every Open returns a fresh copy.
type Source struct {
	path     string
	crs      string
	timeName string

	cache *dataset.Dataset
	mu    sync.Mutex
}

// NewSource creates a NetCDF source. timeName names the CF time variable.
func NewSource(path, crs, timeName string) *Source {
	if timeName == "" {
		timeName = "time"
	}
	return &Source{path: path, crs: crs, timeName: timeName}
}

// CRS returns the CRS of the site coordinates.
func (s *Source) CRS() string { return s.crs }

// Open reads the file and returns a copy of the dataset.
func (s *Source) Open() (*dataset.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		ds, err := ReadFile(s.path, s.timeName)
		if err != nil {
			return nil, err
		}
		s.cache = ds
	}
	return s.cache.Clone(), nil
}

// ReadFile loads every numeric variable of a NetCDF file. The variable named
// timeName is decoded from its CF units into the dataset time axis. Fill
// values become NaN and scale_factor/add_offset are applied.
func ReadFile(path, timeName string) (*dataset.Dataset, error) {
	//nolint:gosec // G304: path comes from configuration.
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}
	defer func() { _ = nc.Close() }()

	nvars, err := nc.NVars()
	if err != nil {
		return nil, fmt.Errorf("failed to count variables: %w", err)
	}

	ds := dataset.New()

	// Time axis first, so variables can reference it.
	if tv, err := nc.Var(timeName); err == nil {
		times, err := readTimes(tv)
		if err != nil {
			return nil, fmt.Errorf("failed to decode time variable %s: %w", timeName, err)
		}
		if err := ds.SetTimes(timeName, times); err != nil {
			return nil, err
		}
	}

	for i := 0; i < nvars; i++ {
		v := nc.VarN(i)
		name, err := v.Name()
		if err != nil {
			return nil, fmt.Errorf("failed to read variable name: %w", err)
		}
		if name == timeName {
			continue
		}
		t, err := v.Type()
		if err != nil {
			return nil, fmt.Errorf("failed to get type of %s: %w", name, err)
		}
		if !numeric(t) {
			// Site names and other text variables are not needed.
			continue
		}

		dimNames, shape, err := varDims(v)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		for k, dim := range dimNames {
			if err := ds.AddDim(dim, shape[k]); err != nil {
				return nil, err
			}
		}

		data, err := readFlatFloat64Var(v, product(shape))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		applyPacking(v, data)
		if err := ds.AddVar(name, dimNames, data); err != nil {
			return nil, err
		}
		if units, ok := stringAttr(v, "units"); ok {
			_ = ds.SetVarAttr(name, "units", units)
		}
	}
	ds.Attrs["source"] = path
	return ds, nil
}

func numeric(t netcdf.Type) bool {
	switch t {
	case netcdf.DOUBLE, netcdf.FLOAT, netcdf.INT, netcdf.SHORT:
		return true
	default:
		return false
	}
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// varDims returns the dimension names and lengths of a variable.
func varDims(v netcdf.Var) ([]string, []int, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	names := make([]string, len(dims))
	shape := make([]int, len(dims))
	for i, d := range dims {
		name, err := d.Name()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get dimension name: %w", err)
		}
		n, err := d.Len()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get dimension length: %w", err)
		}
		names[i] = name
		shape[i] = int(n)
	}
	return names, shape, nil
}

// readTimes decodes a CF time variable ("<unit> since <reference>").
func readTimes(v netcdf.Var) ([]time.Time, error) {
	units, ok := stringAttr(v, "units")
	if !ok {
		return nil, fmt.Errorf("time variable has no units attribute")
	}
	step, ref, err := ParseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	_, shape, err := varDims(v)
	if err != nil {
		return nil, err
	}
	if len(shape) != 1 {
		return nil, fmt.Errorf("expected 1D time variable, got %dD", len(shape))
	}
	values, err := readFlatFloat64Var(v, shape[0])
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, len(values))
	for i, val := range values {
		if math.IsNaN(val) {
			return nil, fmt.Errorf("time value %d is missing", i)
		}
		times[i] = ref.Add(time.Duration(math.Round(val * float64(step))))
	}
	return times, nil
}

// ParseTimeUnits parses CF time units such as "hours since 1970-01-01 00:00:00".
func ParseTimeUnits(units string) (time.Duration, time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("invalid time units %q", units)
	}
	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "seconds", "second", "secs", "sec", "s":
		step = time.Second
	case "minutes", "minute", "mins", "min":
		step = time.Minute
	case "hours", "hour", "hrs", "hr", "h":
		step = time.Hour
	case "days", "day", "d":
		step = 24 * time.Hour
	default:
		return 0, time.Time{}, fmt.Errorf("unsupported time unit %q", parts[0])
	}

	refStr := strings.TrimSpace(parts[1])
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05Z",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if ref, err := time.Parse(layout, refStr); err == nil {
			return step, ref.UTC(), nil
		}
	}
	// Some writers append a UTC offset after a space, e.g. "2000-01-01 00:00:00 +00:00".
	if i := strings.LastIndex(refStr, " "); i > 0 {
		if ref, err := time.Parse("2006-01-02 15:04:05", refStr[:i]); err == nil {
			if off := strings.TrimSpace(refStr[i+1:]); off == "+00:00" || off == "UTC" || off == "0" {
				return step, ref.UTC(), nil
			}
		}
	}
	return 0, time.Time{}, fmt.Errorf("invalid reference time %q", refStr)
}

// stringAttr reads a text attribute.
func stringAttr(v netcdf.Var, name string) (string, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return "", false
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", false
	}
	return strings.TrimRight(string(buf), "\x00"), true
}

// floatAttr returns a numeric attribute as float64.
func floatAttr(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	if n, err := a.Len(); err != nil || n == 0 {
		return 0, false
	}
	buf64 := make([]float64, 1)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, 1)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi := make([]int32, 1)
	if err := a.ReadInt32s(bufi); err == nil {
		return float64(bufi[0]), true
	}
	return 0, false
}

// applyPacking masks fill values and unpacks scaled data in place.
func applyPacking(v netcdf.Var, data []float64) {
	var fills []float64
	for _, name := range []string{"_FillValue", "missing_value"} {
		if f, ok := floatAttr(v, name); ok {
			fills = append(fills, f)
		}
	}
	scale, hasScale := floatAttr(v, "scale_factor")
	offset, hasOffset := floatAttr(v, "add_offset")
	for i, val := range data {
		for _, f := range fills {
			if val == f || (f != 0 && math.Abs(val-f) <= math.Abs(f)*1e-6) {
				val = math.NaN()
				break
			}
		}
		if hasScale {
			val *= scale
		}
		if hasOffset {
			val += offset
		}
		data[i] = val
	}
}

// readFlatFloat64Var reads a whole numeric variable as float64.
func readFlatFloat64Var(v netcdf.Var, total int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	out := make([]float64, total)
	switch t {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
	return out, nil
}
