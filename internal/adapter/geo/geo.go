// Package geo reprojects points between coordinate reference systems.
//
// A CRS is given as a PROJ.4 string, a WKT definition or an EPSG code of the
// form "EPSG:4326" (geographic WGS84 and the WGS84 UTM zones are recognised).
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
)

// WGS84 is the geographic longitude/latitude CRS.
const WGS84 = "+proj=longlat +datum=WGS84 +no_defs"

// Point is a location in a named CRS.
type Point struct {
	X   float64
	Y   float64
	CRS string
}

// Definition expands EPSG shorthands into a PROJ.4 string. Other
// definitions are returned unchanged.
func Definition(crs string) (string, error) {
	c := strings.TrimSpace(crs)
	if c == "" {
		return "", fmt.Errorf("empty CRS")
	}
	upper := strings.ToUpper(c)
	if !strings.HasPrefix(upper, "EPSG:") {
		if _, err := strconv.Atoi(c); err != nil {
			return c, nil
		}
		upper = "EPSG:" + c
	}
	code, err := strconv.Atoi(strings.TrimPrefix(upper, "EPSG:"))
	if err != nil {
		return "", fmt.Errorf("invalid EPSG code %q", crs)
	}
	switch {
	case code == 4326:
		return WGS84, nil
	case code > 32600 && code <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", code-32600), nil
	case code > 32700 && code <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", code-32700), nil
	}
	return "", fmt.Errorf("unsupported EPSG code %d, give a PROJ.4 or WKT definition instead", code)
}

// Parse parses a CRS definition.
func Parse(crs string) (*proj.SR, error) {
	def, err := Definition(crs)
	if err != nil {
		return nil, err
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CRS %q: %w", crs, err)
	}
	return sr, nil
}

// IsGeographic reports whether the CRS uses longitude/latitude degrees.
func IsGeographic(crs string) bool {
	sr, err := Parse(crs)
	if err != nil {
		return false
	}
	return sr.Name == "longlat"
}

// Reproject returns p expressed in the target CRS.
func (p Point) Reproject(target string) (Point, error) {
	if p.CRS == target {
		return p, nil
	}
	src, err := Parse(p.CRS)
	if err != nil {
		return Point{}, err
	}
	dst, err := Parse(target)
	if err != nil {
		return Point{}, err
	}
	trans, err := src.NewTransform(dst)
	if err != nil {
		return Point{}, fmt.Errorf("failed to create transform %q -> %q: %w", p.CRS, target, err)
	}
	x, y, err := trans(p.X, p.Y)
	if err != nil {
		return Point{}, fmt.Errorf("failed to reproject (%.6f, %.6f): %w", p.X, p.Y, err)
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		return Point{}, fmt.Errorf("reprojection of (%.6f, %.6f) to %q is undefined", p.X, p.Y, target)
	}
	return Point{X: x, Y: y, CRS: target}, nil
}
