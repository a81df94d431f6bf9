package domain

import (
	"fmt"
	"time"
)

// Recognised boundary parameter names, in the order they are written.
const (
	ParamHm0      = "hm0"
	ParamTp       = "tp"
	ParamMainAng  = "mainang"
	ParamGammaJsp = "gammajsp"
	ParamS        = "s"
)

// RecordParams lists the parameters a boundary record can carry.
var RecordParams = []string{ParamHm0, ParamTp, ParamMainAng, ParamGammaJsp, ParamS}

// StatsTable holds per-instant bulk wave parameters indexed by time.
type StatsTable struct {
	Times   []time.Time
	columns map[string][]float64
}

// Row is one instant of a StatsTable.
type Row struct {
	Time   time.Time
	Values map[string]float64
}

// NewStatsTable creates an empty table over the given instants.
func NewStatsTable(times []time.Time) *StatsTable {
	return &StatsTable{
		Times:   append([]time.Time(nil), times...),
		columns: make(map[string][]float64),
	}
}

// Len returns the number of instants.
func (t *StatsTable) Len() int {
	return len(t.Times)
}

// Set stores a column. The slice is copied.
func (t *StatsTable) Set(name string, values []float64) error {
	if len(values) != len(t.Times) {
		return fmt.Errorf("column %s has %d values, expected %d", name, len(values), len(t.Times))
	}
	t.columns[name] = append([]float64(nil), values...)
	return nil
}

// Fill stores a column holding the same value at every instant.
func (t *StatsTable) Fill(name string, value float64) {
	col := make([]float64, len(t.Times))
	for i := range col {
		col[i] = value
	}
	t.columns[name] = col
}

// Column returns a column by name.
func (t *StatsTable) Column(name string) ([]float64, bool) {
	col, ok := t.columns[name]
	return col, ok
}

// Names returns the recognised parameters present, in write order.
func (t *StatsTable) Names() []string {
	names := make([]string, 0, len(RecordParams))
	for _, name := range RecordParams {
		if _, ok := t.columns[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Row returns instant i.
func (t *StatsTable) Row(i int) Row {
	row := Row{Time: t.Times[i], Values: make(map[string]float64, len(t.columns))}
	for name, col := range t.columns {
		row.Values[name] = col[i]
	}
	return row
}
