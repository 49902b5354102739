// Package kernel defines the abstract geometry kernel interface.
// Implementations (facet, sdfx) build solids behind this interface so the
// tessellator can swap backends without changing the rest of the system.
//
// Frame conventions shared by every implementation: Y is up; plan
// coordinates are (X, Z); a positive Y rotation turns +X toward +Z, the same
// sense as ellipse.Point.Rotate.
package kernel

import (
	"errors"

	"github.com/chazu/helix/pkg/ellipse"
)

// ErrDegenerate is returned when a primitive's parameters do not describe
// a solid.
var ErrDegenerate = errors.New("kernel: degenerate primitive")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Bevel rounds or chamfers the cap edges of an extrusion. The solid grows
// by Thickness below y=0 and above y=depth, and its walls move outward by
// Size.
type Bevel struct {
	Thickness float64
	Size      float64
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Name identifies the backend ("facet", "sdfx").
	Name() string

	// Primitives
	Extrude(outline []ellipse.Point, depth float64, bevel *Bevel) (Solid, error) // plan outline, y from 0 to depth
	Cylinder(height, radius float64, segments int) (Solid, error)                // along Y, centered
	Box(x, y, z float64) (Solid, error)                                          // centered

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees, X then Y then Z

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
