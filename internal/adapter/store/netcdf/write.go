package netcdf

import (
	"fmt"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/wave-boundary/internal/dataset"
)

// TimeUnits is the CF units string used when writing the time axis.
const TimeUnits = "seconds since 1970-01-01 00:00:00"

// WriteFile writes a dataset to a NetCDF file, overwriting it. All variables
// are stored as doubles; the time axis is stored in TimeUnits.
func WriteFile(path string, ds *dataset.Dataset) (err error) {
	nc, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("failed to create NetCDF file %s: %w", path, err)
	}
	defer func() {
		if cerr := nc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close NetCDF file %s: %w", path, cerr)
		}
	}()

	dims := make(map[string]netcdf.Dim)
	for _, d := range ds.Dims() {
		nd, err := nc.AddDim(d.Name, uint64(d.Size))
		if err != nil {
			return fmt.Errorf("failed to add dimension %s: %w", d.Name, err)
		}
		dims[d.Name] = nd
	}

	var timeVar netcdf.Var
	tname := ds.TimeName()
	if tname != "" {
		timeVar, err = nc.AddVar(tname, netcdf.DOUBLE, []netcdf.Dim{dims[tname]})
		if err != nil {
			return fmt.Errorf("failed to add time variable: %w", err)
		}
		if err := timeVar.Attr("units").WriteBytes([]byte(TimeUnits)); err != nil {
			return fmt.Errorf("failed to write time units: %w", err)
		}
	}

	names := ds.VarNames()
	vars := make([]netcdf.Var, len(names))
	for i, name := range names {
		if name == tname {
			return fmt.Errorf("variable %s clashes with the time axis", name)
		}
		v, _ := ds.Var(name)
		vdims := make([]netcdf.Dim, len(v.Dims))
		for k, dn := range v.Dims {
			vdims[k] = dims[dn]
		}
		nv, err := nc.AddVar(name, netcdf.DOUBLE, vdims)
		if err != nil {
			return fmt.Errorf("failed to add variable %s: %w", name, err)
		}
		if units, ok := v.Attrs["units"]; ok {
			if err := nv.Attr("units").WriteBytes([]byte(units)); err != nil {
				return fmt.Errorf("failed to write units of %s: %w", name, err)
			}
		}
		vars[i] = nv
	}

	if err := nc.EndDef(); err != nil {
		return fmt.Errorf("failed to end define mode: %w", err)
	}

	if tname != "" && len(ds.Times) > 0 {
		secs := make([]float64, len(ds.Times))
		for i, t := range ds.Times {
			secs[i] = float64(t.UnixNano()) / 1e9
		}
		if err := timeVar.WriteFloat64s(secs); err != nil {
			return fmt.Errorf("failed to write time values: %w", err)
		}
	}
	for i, name := range names {
		v, _ := ds.Var(name)
		if len(v.Data) == 0 {
			continue
		}
		if err := vars[i].WriteFloat64s(v.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
