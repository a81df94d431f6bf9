// Package grid describes the model grid the boundary is prepared for.
package grid

import (
	"fmt"
	"math"

	"go.ngs.io/wave-boundary/internal/adapter/geo"
)

// RegularGrid is a rectilinear grid rotated about its origin. The offshore
// boundary is the edge at local x = 0, running along the local y axis.
type RegularGrid struct {
	X0  float64 `json:"x0" mapstructure:"x0"`   // Origin x in CRS units.
	Y0  float64 `json:"y0" mapstructure:"y0"`   // Origin y in CRS units.
	Dx  float64 `json:"dx" mapstructure:"dx"`   // Cell size along local x.
	Dy  float64 `json:"dy" mapstructure:"dy"`   // Cell size along local y.
	Nx  int     `json:"nx" mapstructure:"nx"`   // Number of nodes along local x.
	Ny  int     `json:"ny" mapstructure:"ny"`   // Number of nodes along local y.
	Rot float64 `json:"rot" mapstructure:"rot"` // Rotation, degrees counterclockwise from east.
	CRS string  `json:"crs" mapstructure:"crs"`
}

// Validate checks the grid definition.
func (g RegularGrid) Validate() error {
	if g.Nx < 1 || g.Ny < 1 {
		return fmt.Errorf("grid must have at least one node in each direction, got nx=%d ny=%d", g.Nx, g.Ny)
	}
	if g.Dx <= 0 || g.Dy <= 0 {
		return fmt.Errorf("grid cell sizes must be positive, got dx=%v dy=%v", g.Dx, g.Dy)
	}
	if g.CRS == "" {
		return fmt.Errorf("grid crs must be set")
	}
	if _, err := geo.Parse(g.CRS); err != nil {
		return fmt.Errorf("grid crs: %w", err)
	}
	return nil
}

// Offshore returns the midpoint of the offshore boundary in the grid CRS.
func (g RegularGrid) Offshore() (float64, float64) {
	ly := float64(g.Ny-1) * g.Dy / 2
	rot := g.Rot * math.Pi / 180
	x := g.X0 - ly*math.Sin(rot)
	y := g.Y0 + ly*math.Cos(rot)
	return x, y
}

// OffshorePoint returns the offshore midpoint tagged with the grid CRS.
func (g RegularGrid) OffshorePoint() geo.Point {
	x, y := g.Offshore()
	return geo.Point{X: x, Y: y, CRS: g.CRS}
}
