package domain

import (
	"fmt"
	"math"
)

// DsprToS converts a directional spread in degrees to the JONSWAP cos^2s
// spreading coefficient:
//
//	s = 2 / radians(dspr)^2 - 1
//
// A zero spread is singular and is reported as ErrDataQuality.
func DsprToS(dspr float64) (float64, error) {
	if math.IsNaN(dspr) || math.IsInf(dspr, 0) {
		return math.NaN(), fmt.Errorf("%w: directional spread %v is not finite", ErrDataQuality, dspr)
	}
	rad := dspr * math.Pi / 180.0
	s := 2.0/(rad*rad) - 1.0
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return math.NaN(), fmt.Errorf("%w: directional spread %v gives a non-finite spreading coefficient", ErrDataQuality, dspr)
	}
	return s, nil
}

// SToDspr is the inverse of DsprToS, returning the spread in degrees:
//
//	dspr = degrees(sqrt(2 / (s + 1)))
func SToDspr(s float64) (float64, error) {
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= -1 {
		return math.NaN(), fmt.Errorf("%w: spreading coefficient %v has no directional spread", ErrDataQuality, s)
	}
	return math.Sqrt(2.0/(s+1.0)) * 180.0 / math.Pi, nil
}
