// Package csv provides CSV-based station data loading.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.ngs.io/wave-boundary/internal/dataset"
)

// StationStore reads a long-format station table:
//
//	time,site,lon,lat,hs,tp,dpm
//	2024-01-01T00:00:00Z,0,115.0,-32.0,1.2,9.5,250
//
// The coordinate column names follow the configured Coords. Every column
// after them is read as a variable over (time, site). Missing rows and
// empty cells become NaN.
type StationStore struct {
	path   string
	crs    string
	coords dataset.Coords
}

// NewStationStore creates a new CSV-based station store.
func NewStationStore(path, crs string, coords dataset.Coords) *StationStore {
	return &StationStore{
		path:   path,
		crs:    crs,
		coords: coords.WithDefaults(),
	}
}

// CRS returns the CRS of the site coordinates.
func (s *StationStore) CRS() string { return s.crs }

type row struct {
	time   time.Time
	site   int
	values []float64
}

// Open reads the CSV file into a dataset.
func (s *StationStore) Open() (*dataset.Dataset, error) {
	//nolint:gosec // G304: File path comes from configuration.
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file %s: %w", s.path, err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	// Read header.
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	// Validate header.
	expected := []string{s.coords.T, s.coords.S, s.coords.X, s.coords.Y}
	if len(header) <= len(expected) {
		return nil, fmt.Errorf("invalid CSV header: expected %v followed by variables, got %v", expected, header)
	}
	for i, h := range expected {
		if header[i] != h {
			return nil, fmt.Errorf("invalid CSV header: expected column %d to be %s, got %s", i, h, header[i])
		}
	}
	varNames := header[len(expected):]

	siteIndex := make(map[string]int)
	var siteX, siteY []float64
	timeSet := make(map[time.Time]struct{})
	rows := make([]row, 0)

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, len(header), len(record))
		}

		t, err := time.Parse(time.RFC3339, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid time: %w", line, err)
		}
		t = t.UTC()

		x, err := parseValue(record[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid %s: %w", line, s.coords.X, err)
		}
		y, err := parseValue(record[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid %s: %w", line, s.coords.Y, err)
		}

		site := strings.TrimSpace(record[1])
		idx, ok := siteIndex[site]
		if !ok {
			idx = len(siteX)
			siteIndex[site] = idx
			siteX = append(siteX, x)
			siteY = append(siteY, y)
		} else if siteX[idx] != x || siteY[idx] != y {
			return nil, fmt.Errorf("line %d: site %s moved from (%v, %v) to (%v, %v)", line, site, siteX[idx], siteY[idx], x, y)
		}

		values := make([]float64, len(varNames))
		for k := range varNames {
			v, err := parseValue(record[len(expected)+k])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s: %w", line, varNames[k], err)
			}
			values[k] = v
		}
		timeSet[t] = struct{}{}
		rows = append(rows, row{time: t, site: idx, values: values})
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows found in CSV %s", s.path)
	}

	times := make([]time.Time, 0, len(timeSet))
	for t := range timeSet {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	timeIndex := make(map[time.Time]int, len(times))
	for i, t := range times {
		timeIndex[t] = i
	}

	nt, ns := len(times), len(siteX)
	data := make([][]float64, len(varNames))
	seen := make([]bool, nt*ns)
	for k := range data {
		data[k] = make([]float64, nt*ns)
		for i := range data[k] {
			data[k][i] = math.NaN()
		}
	}
	for _, r := range rows {
		cell := timeIndex[r.time]*ns + r.site
		if seen[cell] {
			return nil, fmt.Errorf("duplicate row for time %s and site %d", r.time.Format(time.RFC3339), r.site)
		}
		seen[cell] = true
		for k, v := range r.values {
			data[k][cell] = v
		}
	}

	ds := dataset.New()
	if err := ds.SetTimes(s.coords.T, times); err != nil {
		return nil, err
	}
	if err := ds.AddDim(s.coords.S, ns); err != nil {
		return nil, err
	}
	if err := ds.AddVar(s.coords.X, []string{s.coords.S}, siteX); err != nil {
		return nil, err
	}
	if err := ds.AddVar(s.coords.Y, []string{s.coords.S}, siteY); err != nil {
		return nil, err
	}
	for k, name := range varNames {
		if err := ds.AddVar(name, []string{s.coords.T, s.coords.S}, data[k]); err != nil {
			return nil, err
		}
	}
	ds.Attrs["source"] = s.path
	return ds, nil
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
