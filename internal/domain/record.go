package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// XBeach JONSWAP limits.
const (
	DefaultFnyq = 0.3
	MinFnyq     = 0.2
	MaxFnyq     = 1.0
)

// JonswapOptions are the spectrum construction settings written with every record.
type JonswapOptions struct {
	Fnyq *float64 // Highest frequency used to create the spectrum [Hz].
	Dfj  *float64 // Frequency step [Hz], within fnyq/1000 - fnyq/20.
}

// Validate checks the options against the XBeach ranges.
func (o JonswapOptions) Validate() error {
	fnyq := DefaultFnyq
	if o.Fnyq != nil {
		fnyq = *o.Fnyq
		if math.IsNaN(fnyq) || fnyq < MinFnyq || fnyq > MaxFnyq {
			return fmt.Errorf("%w: fnyq %v outside [%g, %g]", ErrConfig, fnyq, MinFnyq, MaxFnyq)
		}
	}
	if o.Dfj != nil {
		lo, hi := fnyq/1000, fnyq/20
		if math.IsNaN(*o.Dfj) || *o.Dfj < lo || *o.Dfj > hi {
			return fmt.Errorf("%w: dfj %v outside [%g, %g] for fnyq %g", ErrConfig, *o.Dfj, lo, hi, fnyq)
		}
	}
	return nil
}

// Param is a named scalar value.
type Param struct {
	Name  string
	Value float64
}

// Record is a validated set of JONSWAP parameters for one instant.
// Records are only built by NewRecord and are never modified.
type Record struct {
	time     time.Time
	params   []Param
	filename string
	opts     JonswapOptions
}

// NewRecord builds the record for one row of a StatsTable. Recognised
// parameters present in the row are kept; a NaN or infinite value fails.
func NewRecord(row Row, opts JonswapOptions) (*Record, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	params := make([]Param, 0, len(RecordParams))
	for _, name := range RecordParams {
		v, ok := row.Values[name]
		if !ok {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: parameter %s is %v at %s",
				ErrDataQuality, name, v, row.Time.Format(time.RFC3339Nano))
		}
		params = append(params, Param{Name: name, Value: v})
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: no boundary parameters at %s", ErrDataQuality, row.Time.Format(time.RFC3339Nano))
	}
	return &Record{
		time:     row.Time,
		params:   params,
		filename: RecordFileName(row.Time),
		opts:     copyOptions(opts),
	}, nil
}

// RecordFileName returns the bcfile name for an instant, e.g.
// jons-20240101T003000.txt. Sub-second instants keep their fraction.
func RecordFileName(t time.Time) string {
	t = t.UTC()
	name := "jons-" + t.Format("20060102T150405")
	if ns := t.Nanosecond(); ns != 0 {
		name += "." + strings.TrimRight(fmt.Sprintf("%09d", ns), "0")
	}
	return name + ".txt"
}

func copyOptions(o JonswapOptions) JonswapOptions {
	var out JonswapOptions
	if o.Fnyq != nil {
		v := *o.Fnyq
		out.Fnyq = &v
	}
	if o.Dfj != nil {
		v := *o.Dfj
		out.Dfj = &v
	}
	return out
}

// Time returns the instant the record applies from.
func (r *Record) Time() time.Time { return r.time }

// FileName returns the generated bcfile name.
func (r *Record) FileName() string { return r.filename }

// Options returns the spectrum construction settings.
func (r *Record) Options() JonswapOptions { return copyOptions(r.opts) }

// Params returns the parameters in write order.
func (r *Record) Params() []Param {
	return append([]Param(nil), r.params...)
}

// Value returns a parameter by name.
func (r *Record) Value(name string) (float64, bool) {
	for _, p := range r.params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return 0, false
}
