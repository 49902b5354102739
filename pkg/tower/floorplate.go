// Package tower builds the scene graph of the twisted elliptical tower from
// a building.Config. Every builder is a pure function of the config; the
// assembler rebuilds the whole graph on each change.
//
// The builders do not validate their input. Configs are expected to have
// passed building.Validate or building.Clamp.
package tower

import (
	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/ellipse"
	"github.com/chazu/helix/pkg/graph"
)

// PlateThickness is the vertical thickness of every floor plate.
const PlateThickness = 0.4

// Plate describes one floor slab.
type Plate struct {
	Floor     int
	Elevation float64         // y of the underside
	Rotation  float64         // degrees about Y
	Outline   []ellipse.Point // unrotated plan outline
	Thickness float64
	Material  graph.MaterialSpec
}

// FloorPlate returns the slab of floor f.
func FloorPlate(c building.Config, f int) Plate {
	outline, _ := ellipse.Outline(c.MajorAxis, c.MinorAxis, ellipse.DefaultSegments)
	return Plate{
		Floor:     f,
		Elevation: c.FloorElevation(f),
		Rotation:  c.FloorRotation(f),
		Outline:   outline,
		Thickness: PlateThickness,
		Material:  graph.Opaque(c.FacadeColor),
	}
}

// FloorPlates returns the slabs of every floor, bottom to top.
func FloorPlates(c building.Config) []Plate {
	plates := make([]Plate, c.Floors)
	for f := range plates {
		plates[f] = FloorPlate(c, f)
	}
	return plates
}

// WorldOutline returns the outline rotated into place at the plate's
// underside.
func (p Plate) WorldOutline() []graph.Vec3 {
	r := ellipse.Radians(p.Rotation)
	out := make([]graph.Vec3, len(p.Outline))
	for i, pt := range p.Outline {
		q := pt.Rotate(r)
		out[i] = graph.Vec3{X: q.X, Y: p.Elevation, Z: q.Z}
	}
	return out
}
