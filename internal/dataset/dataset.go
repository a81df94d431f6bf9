// Package dataset holds the in-memory station dataset model shared by the
// source readers and the boundary pipeline.
//
// A Dataset is a set of named dimensions and variables, each variable
// stored row-major over its dimensions. One dimension may be designated as
// the time axis, with its instants held in Times.
package dataset

import (
	"fmt"
	"sort"
	"time"
)

// Dim is a named dimension.
type Dim struct {
	Name string
	Size int
}

// Variable is an N-dimensional float64 array.
type Variable struct {
	Dims  []string
	Shape []int
	Data  []float64
	Attrs map[string]string
}

// Dataset is a collection of variables over shared dimensions.
type Dataset struct {
	dims     []Dim
	vars     map[string]*Variable
	timeName string
	Times    []time.Time
	Attrs    map[string]string
}

// New creates an empty dataset.
func New() *Dataset {
	return &Dataset{
		vars:  make(map[string]*Variable),
		Attrs: make(map[string]string),
	}
}

// AddDim declares a dimension. Redeclaring with the same size is a no-op.
func (d *Dataset) AddDim(name string, size int) error {
	if size < 0 {
		return fmt.Errorf("dimension %s has negative size %d", name, size)
	}
	if n, ok := d.DimSize(name); ok {
		if n != size {
			return fmt.Errorf("dimension %s already has size %d, not %d", name, n, size)
		}
		return nil
	}
	d.dims = append(d.dims, Dim{Name: name, Size: size})
	return nil
}

// SetTimes declares name as the time dimension with the given instants.
func (d *Dataset) SetTimes(name string, times []time.Time) error {
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return fmt.Errorf("time axis %s must be strictly increasing at index %d", name, i)
		}
	}
	if err := d.AddDim(name, len(times)); err != nil {
		return err
	}
	d.timeName = name
	d.Times = append([]time.Time(nil), times...)
	return nil
}

// AddVar stores a variable over declared dimensions. The data is copied.
func (d *Dataset) AddVar(name string, dims []string, data []float64) error {
	shape := make([]int, len(dims))
	total := 1
	for i, dim := range dims {
		n, ok := d.DimSize(dim)
		if !ok {
			return fmt.Errorf("variable %s uses undeclared dimension %s", name, dim)
		}
		shape[i] = n
		total *= n
	}
	if len(data) != total {
		return fmt.Errorf("variable %s has %d values, dimensions %v need %d", name, len(data), dims, total)
	}
	d.vars[name] = &Variable{
		Dims:  append([]string(nil), dims...),
		Shape: shape,
		Data:  append([]float64(nil), data...),
		Attrs: make(map[string]string),
	}
	return nil
}

// SetVarAttr sets a string attribute on a variable.
func (d *Dataset) SetVarAttr(name, key, value string) error {
	v, ok := d.vars[name]
	if !ok {
		return fmt.Errorf("variable %s not in dataset", name)
	}
	v.Attrs[key] = value
	return nil
}

// TimeName returns the name of the time dimension, or "" if unset.
func (d *Dataset) TimeName() string { return d.timeName }

// Dims returns the dimensions in declaration order.
func (d *Dataset) Dims() []Dim {
	return append([]Dim(nil), d.dims...)
}

// HasDim reports whether name is a dimension.
func (d *Dataset) HasDim(name string) bool {
	_, ok := d.DimSize(name)
	return ok
}

// DimSize returns the size of a dimension.
func (d *Dataset) DimSize(name string) (int, bool) {
	for _, dim := range d.dims {
		if dim.Name == name {
			return dim.Size, true
		}
	}
	return 0, false
}

// Sizes returns a name->size map, handy for error messages.
func (d *Dataset) Sizes() map[string]int {
	out := make(map[string]int, len(d.dims))
	for _, dim := range d.dims {
		out[dim.Name] = dim.Size
	}
	return out
}

// HasVar reports whether name is a data variable.
func (d *Dataset) HasVar(name string) bool {
	_, ok := d.vars[name]
	return ok
}

// Var returns a variable by name. The returned value must not be modified.
func (d *Dataset) Var(name string) (*Variable, bool) {
	v, ok := d.vars[name]
	return v, ok
}

// VarNames returns the variable names, sorted.
func (d *Dataset) VarNames() []string {
	names := make([]string, 0, len(d.vars))
	for name := range d.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := New()
	out.dims = append([]Dim(nil), d.dims...)
	out.timeName = d.timeName
	out.Times = append([]time.Time(nil), d.Times...)
	for k, v := range d.Attrs {
		out.Attrs[k] = v
	}
	for name, v := range d.vars {
		out.vars[name] = v.clone()
	}
	return out
}

// Series returns the values of a variable along the time dimension. Every
// other dimension of the variable must have size one.
func (d *Dataset) Series(name string) ([]float64, error) {
	v, ok := d.vars[name]
	if !ok {
		return nil, fmt.Errorf("variable %s not in dataset, available variables are %v", name, d.VarNames())
	}
	axis := v.axis(d.timeName)
	if axis < 0 {
		return nil, fmt.Errorf("variable %s has no %s dimension", name, d.timeName)
	}
	for i, n := range v.Shape {
		if i != axis && n != 1 {
			return nil, fmt.Errorf("variable %s has size %d along %s, expected a single site", name, n, v.Dims[i])
		}
	}
	return append([]float64(nil), v.Data...), nil
}

func (v *Variable) clone() *Variable {
	out := &Variable{
		Dims:  append([]string(nil), v.Dims...),
		Shape: append([]int(nil), v.Shape...),
		Data:  append([]float64(nil), v.Data...),
		Attrs: make(map[string]string, len(v.Attrs)),
	}
	for k, a := range v.Attrs {
		out.Attrs[k] = a
	}
	return out
}

// axis returns the index of dim in the variable's dimensions, or -1.
func (v *Variable) axis(dim string) int {
	for i, name := range v.Dims {
		if name == dim {
			return i
		}
	}
	return -1
}

// strides splits the shape around axis into outer, axis length and inner sizes.
func (v *Variable) strides(axis int) (outer, n, inner int) {
	outer, inner = 1, 1
	for i, s := range v.Shape {
		switch {
		case i < axis:
			outer *= s
		case i > axis:
			inner *= s
		}
	}
	return outer, v.Shape[axis], inner
}

// Coords names the coordinates of a station dataset.
type Coords struct {
	X string `json:"x" mapstructure:"x"` // Site x/longitude variable.
	Y string `json:"y" mapstructure:"y"` // Site y/latitude variable.
	T string `json:"t" mapstructure:"t"` // Time dimension.
	S string `json:"s" mapstructure:"s"` // Site dimension.
}

// DefaultCoords returns the conventional station coordinate names.
func DefaultCoords() Coords {
	return Coords{X: "lon", Y: "lat", T: "time", S: "site"}
}

// WithDefaults fills unset names from DefaultCoords.
func (c Coords) WithDefaults() Coords {
	d := DefaultCoords()
	if c.X == "" {
		c.X = d.X
	}
	if c.Y == "" {
		c.Y = d.Y
	}
	if c.T == "" {
		c.T = d.T
	}
	if c.S == "" {
		c.S = d.S
	}
	return c
}
