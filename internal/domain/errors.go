package domain

import "errors"

// Error kinds surfaced by a boundary extraction. Callers match them with errors.Is.
var (
	// ErrConfig reports a bad field combination, a missing coordinate or a source
	// of the wrong shape. Raised before any data is processed.
	ErrConfig = errors.New("configuration error")

	// ErrRange reports a requested time interval outside the source coverage.
	ErrRange = errors.New("range error")

	// ErrDataQuality reports a parameter resolving to NaN or a non-finite value.
	ErrDataQuality = errors.New("data quality error")
)
