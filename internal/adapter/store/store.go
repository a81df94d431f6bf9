// Package store defines the station data sources the boundary pipeline reads.
package store

import (
	"fmt"
	"strings"

	"go.ngs.io/wave-boundary/internal/adapter/store/csv"
	"go.ngs.io/wave-boundary/internal/adapter/store/netcdf"
	"go.ngs.io/wave-boundary/internal/dataset"
)

// Source is a reprojectable time/site-indexed dataset.
type Source interface {
	// Open returns a copy of the dataset. Callers may modify the copy.
	Open() (*dataset.Dataset, error)

	// CRS returns the coordinate reference system of the site coordinates.
	CRS() string
}

// Source types.
const (
	TypeNetCDF = "netcdf"
	TypeCSV    = "csv"
)

// Config selects and configures a file source.
type Config struct {
	Type string `json:"type" mapstructure:"type"` // "netcdf" or "csv".
	Path string `json:"path" mapstructure:"path"`
	CRS  string `json:"crs" mapstructure:"crs"`
}

// New builds the source described by cfg. Coordinate names are used by
// readers that need them to assemble the dataset.
func New(cfg Config, coords dataset.Coords) (Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("source path must be set")
	}
	if cfg.CRS == "" {
		return nil, fmt.Errorf("source crs must be set")
	}
	coords = coords.WithDefaults()
	switch strings.ToLower(cfg.Type) {
	case TypeNetCDF, "nc":
		return netcdf.NewSource(cfg.Path, cfg.CRS, coords.T), nil
	case TypeCSV:
		return csv.NewStationStore(cfg.Path, cfg.CRS, coords), nil
	case "":
		return nil, fmt.Errorf("source type must be set (one of %s, %s)", TypeNetCDF, TypeCSV)
	default:
		return nil, fmt.Errorf("unknown source type %q (expected %s or %s)", cfg.Type, TypeNetCDF, TypeCSV)
	}
}

// DatasetSource serves an in-memory dataset.
type DatasetSource struct {
	Data *dataset.Dataset
	Crs  string
}

// NewDatasetSource wraps ds. The dataset is copied on every Open.
func NewDatasetSource(ds *dataset.Dataset, crs string) *DatasetSource {
	return &DatasetSource{Data: ds, Crs: crs}
}

// Open implements Source.
func (s *DatasetSource) Open() (*dataset.Dataset, error) {
	if s.Data == nil {
		return nil, fmt.Errorf("dataset source is empty")
	}
	return s.Data.Clone(), nil
}

// CRS implements Source.
func (s *DatasetSource) CRS() string { return s.Crs }
