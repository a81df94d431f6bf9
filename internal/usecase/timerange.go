package usecase

import (
	"fmt"
	"time"

	"go.ngs.io/wave-boundary/internal/dataset"
	"go.ngs.io/wave-boundary/internal/domain"
)

// DefaultTimeBuffer is the number of source timesteps kept either side of
// the requested window when cropping.
var DefaultTimeBuffer = [2]int{1, 1}

// ValidateTime checks that tr lies within the time span of ds.
func ValidateTime(ds *dataset.Dataset, tr domain.TimeRange) error {
	if err := tr.Validate(); err != nil {
		return err
	}
	if ds.TimeName() == "" || len(ds.Times) == 0 {
		return fmt.Errorf("%w: source dataset has no time axis", domain.ErrConfig)
	}
	t0, t1 := ds.Times[0], ds.Times[len(ds.Times)-1]
	if tr.Start.Before(t0) || tr.End.After(t1) {
		return fmt.Errorf("%w: time range %s outside of source time range %s",
			domain.ErrRange, tr, domain.TimeRange{Start: t0, End: t1})
	}
	return nil
}

// AdjustTime returns the part of ds within tr whose first and last instants
// are exactly tr.Start and tr.End. Missing endpoints are linearly
// interpolated from the full series.
func AdjustTime(ds *dataset.Dataset, tr domain.TimeRange) (*dataset.Dataset, error) {
	if err := ValidateTime(ds, tr); err != nil {
		return nil, err
	}
	sliced, err := ds.SliceTime(tr.Start, tr.End)
	if err != nil {
		return nil, err
	}

	parts := make([]*dataset.Dataset, 0, 3)
	if !hasInstant(ds.Times, tr.Start) {
		head, err := ds.InterpTime([]time.Time{tr.Start})
		if err != nil {
			return nil, fmt.Errorf("interpolating start: %w", err)
		}
		parts = append(parts, head)
	}
	if len(sliced.Times) > 0 {
		parts = append(parts, sliced)
	}
	if !hasInstant(ds.Times, tr.End) && !tr.End.Equal(tr.Start) {
		tail, err := ds.InterpTime([]time.Time{tr.End})
		if err != nil {
			return nil, fmt.Errorf("interpolating end: %w", err)
		}
		parts = append(parts, tail)
	}
	return dataset.ConcatTime(parts...)
}

// FilterTime crops ds to tr widened by buffer[0] source timesteps before
// the start and buffer[1] after the end.
func FilterTime(ds *dataset.Dataset, tr domain.TimeRange, buffer [2]int) (*dataset.Dataset, error) {
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	if buffer[0] < 0 || buffer[1] < 0 {
		return nil, fmt.Errorf("%w: time buffer must not be negative, got %v", domain.ErrConfig, buffer)
	}
	n := len(ds.Times)
	if n == 0 {
		return nil, fmt.Errorf("%w: source dataset has no time axis", domain.ErrConfig)
	}
	// lo is the last instant at or before start, hi the first at or after end.
	lo := 0
	for i, t := range ds.Times {
		if !t.After(tr.Start) {
			lo = i
		}
	}
	hi := n - 1
	for i := n - 1; i >= 0; i-- {
		if !ds.Times[i].Before(tr.End) {
			hi = i
		}
	}
	lo = max(lo-buffer[0], 0)
	hi = min(hi+buffer[1], n-1)

	idx := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		idx = append(idx, i)
	}
	return ds.ISel(ds.TimeName(), idx)
}

func hasInstant(times []time.Time, t time.Time) bool {
	for _, x := range times {
		if x.Equal(t) {
			return true
		}
	}
	return false
}
