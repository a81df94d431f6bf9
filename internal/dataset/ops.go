package dataset

import (
	"fmt"
	"time"

	"go.ngs.io/wave-boundary/internal/adapter/interp"
)

// ISel returns a copy holding only the given indices along dim.
func (d *Dataset) ISel(dim string, idx []int) (*Dataset, error) {
	size, ok := d.DimSize(dim)
	if !ok {
		return nil, fmt.Errorf("dimension %s not in dataset, available dimensions are %v", dim, d.Sizes())
	}
	for _, i := range idx {
		if i < 0 || i >= size {
			return nil, fmt.Errorf("index %d out of range for dimension %s of size %d", i, dim, size)
		}
	}

	out := d.Clone()
	out.resize(dim, len(idx))
	if dim == d.timeName {
		out.Times = make([]time.Time, len(idx))
		for k, i := range idx {
			out.Times[k] = d.Times[i]
		}
	}
	for name, v := range d.vars {
		axis := v.axis(dim)
		if axis < 0 {
			continue
		}
		outer, n, inner := v.strides(axis)
		data := make([]float64, outer*len(idx)*inner)
		for o := 0; o < outer; o++ {
			for k, i := range idx {
				src := v.Data[(o*n+i)*inner : (o*n+i+1)*inner]
				copy(data[(o*len(idx)+k)*inner:], src)
			}
		}
		nv := out.vars[name]
		nv.Shape[axis] = len(idx)
		nv.Data = data
	}
	return out, nil
}

// Weighted collapses dim to size one, replacing every variable along dim by
// the weighted sum of its slices. NaN values propagate.
func (d *Dataset) Weighted(dim string, weights []float64) (*Dataset, error) {
	size, ok := d.DimSize(dim)
	if !ok {
		return nil, fmt.Errorf("dimension %s not in dataset, available dimensions are %v", dim, d.Sizes())
	}
	if len(weights) != size {
		return nil, fmt.Errorf("got %d weights for dimension %s of size %d", len(weights), dim, size)
	}
	if dim == d.timeName {
		return nil, fmt.Errorf("cannot collapse the time dimension %s", dim)
	}

	out := d.Clone()
	out.resize(dim, 1)
	for name, v := range d.vars {
		axis := v.axis(dim)
		if axis < 0 {
			continue
		}
		outer, n, inner := v.strides(axis)
		data := make([]float64, outer*inner)
		for o := 0; o < outer; o++ {
			for k := 0; k < n; k++ {
				w := weights[k]
				if w == 0 {
					continue
				}
				src := v.Data[(o*n+k)*inner : (o*n+k+1)*inner]
				dst := data[o*inner : (o+1)*inner]
				for i := range dst {
					dst[i] += w * src[i]
				}
			}
		}
		nv := out.vars[name]
		nv.Shape[axis] = 1
		nv.Data = data
	}
	return out, nil
}

// SliceTime returns the instants within the closed interval [start, end].
func (d *Dataset) SliceTime(start, end time.Time) (*Dataset, error) {
	if d.timeName == "" {
		return nil, fmt.Errorf("dataset has no time dimension")
	}
	idx := make([]int, 0, len(d.Times))
	for i, t := range d.Times {
		if !t.Before(start) && !t.After(end) {
			idx = append(idx, i)
		}
	}
	return d.ISel(d.timeName, idx)
}

// InterpTime linearly interpolates every time-dependent variable at the
// target instants. Targets outside the time axis are extrapolated from the
// end segments.
func (d *Dataset) InterpTime(targets []time.Time) (*Dataset, error) {
	if d.timeName == "" {
		return nil, fmt.Errorf("dataset has no time dimension")
	}
	if len(d.Times) == 0 {
		return nil, fmt.Errorf("cannot interpolate an empty time axis")
	}
	xs := timeAxis(d.Times, d.Times[0])

	type bracket struct {
		j int
		f float64
	}
	brackets := make([]bracket, len(targets))
	for k, t := range targets {
		j, f, err := interp.Bracket(xs, t.Sub(d.Times[0]).Seconds())
		if err != nil {
			return nil, fmt.Errorf("interpolating at %s: %w", t.Format(time.RFC3339), err)
		}
		brackets[k] = bracket{j: j, f: f}
	}

	out := d.Clone()
	out.resize(d.timeName, len(targets))
	out.Times = append([]time.Time(nil), targets...)
	for name, v := range d.vars {
		axis := v.axis(d.timeName)
		if axis < 0 {
			continue
		}
		outer, n, inner := v.strides(axis)
		data := make([]float64, outer*len(targets)*inner)
		for o := 0; o < outer; o++ {
			for k, b := range brackets {
				dst := data[(o*len(targets)+k)*inner : (o*len(targets)+k+1)*inner]
				lo := v.Data[(o*n+b.j)*inner : (o*n+b.j+1)*inner]
				switch {
				case b.f == 0:
					copy(dst, lo)
				case b.f == 1:
					copy(dst, v.Data[(o*n+b.j+1)*inner:(o*n+b.j+2)*inner])
				default:
					hi := v.Data[(o*n+b.j+1)*inner : (o*n+b.j+2)*inner]
					for i := range dst {
						dst[i] = (1-b.f)*lo[i] + b.f*hi[i]
					}
				}
			}
		}
		nv := out.vars[name]
		nv.Shape[axis] = len(targets)
		nv.Data = data
	}
	return out, nil
}

// ConcatTime joins datasets along the time dimension. All parts must share
// the same variables and non-time shapes, and the joined axis must stay
// strictly increasing.
func ConcatTime(parts ...*Dataset) (*Dataset, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("nothing to concatenate")
	}
	first := parts[0]
	tname := first.timeName
	if tname == "" {
		return nil, fmt.Errorf("dataset has no time dimension")
	}

	var times []time.Time
	for _, p := range parts {
		if p.timeName != tname {
			return nil, fmt.Errorf("time dimension mismatch: %s vs %s", p.timeName, tname)
		}
		times = append(times, p.Times...)
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return nil, fmt.Errorf("concatenated time axis is not strictly increasing at %s", times[i].Format(time.RFC3339))
		}
	}

	out := first.Clone()
	out.resize(tname, len(times))
	out.Times = times
	for name, v := range first.vars {
		axis := v.axis(tname)
		if axis < 0 {
			continue
		}
		outer, _, inner := v.strides(axis)
		data := make([]float64, 0, outer*len(times)*inner)
		for o := 0; o < outer; o++ {
			for _, p := range parts {
				pv, ok := p.vars[name]
				if !ok {
					return nil, fmt.Errorf("variable %s missing from a concatenated part", name)
				}
				po, pn, pi := pv.strides(axis)
				if po != outer || pi != inner {
					return nil, fmt.Errorf("variable %s has mismatched shape %v", name, pv.Shape)
				}
				data = append(data, pv.Data[o*pn*pi:(o+1)*pn*pi]...)
			}
		}
		nv := out.vars[name]
		nv.Shape[axis] = len(times)
		nv.Data = data
	}
	return out, nil
}

// resize updates a dimension size in place.
func (d *Dataset) resize(dim string, size int) {
	for i := range d.dims {
		if d.dims[i].Name == dim {
			d.dims[i].Size = size
		}
	}
}

// timeAxis converts instants to seconds relative to ref.
func timeAxis(times []time.Time, ref time.Time) []float64 {
	xs := make([]float64, len(times))
	for i, t := range times {
		xs[i] = t.Sub(ref).Seconds()
	}
	return xs
}
