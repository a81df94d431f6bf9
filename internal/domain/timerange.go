package domain

import (
	"fmt"
	"time"
)

// TimeRange is a closed [Start, End] interval of instants.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Validate checks that the range is ordered.
func (r TimeRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: time range start and end must both be set", ErrConfig)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: time range end %s is before start %s",
			ErrConfig, r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t lies inside the closed interval.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// String formats the range for error messages.
func (r TimeRange) String() string {
	return fmt.Sprintf("%s - %s", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}
