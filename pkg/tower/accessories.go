package tower

import (
	"math"

	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/ellipse"
	"github.com/chazu/helix/pkg/graph"
)

// Accessory dimensions. Scales are relative to the floor ellipse.
const (
	CrownScale          = 0.95
	CrownDepth          = 3.0
	CrownBevelThickness = 0.8
	CrownBevelSize      = 0.3

	CoreRadiusFactor = 0.15 // of the smaller axis
	CoreSegments     = 8
	CoreColor        = "#555555"
	CoreOpacity      = 0.4

	BaseScale          = 1.1
	BaseDepth          = 2.0
	BaseBevelThickness = 0.3
	BaseBevelSize      = 0.2
	BaseColor          = "#777777"
	BaseElevation      = -1.0
)

// Slab is a beveled extruded accessory (crown or base).
type Slab struct {
	Outline   []ellipse.Point
	Elevation float64 // y of the extrusion start, bevel excluded
	Rotation  float64 // degrees about Y
	Depth     float64
	Bevel     graph.Bevel
	Material  graph.MaterialSpec
}

// Crown caps the tower with a slightly narrower slab turned like the top
// floor.
func Crown(c building.Config) Slab {
	outline, _ := ellipse.Outline(c.MajorAxis*CrownScale, c.MinorAxis*CrownScale, ellipse.DefaultSegments)
	return Slab{
		Outline:   outline,
		Elevation: c.Height,
		Rotation:  c.FloorRotation(c.Floors - 1),
		Depth:     CrownDepth,
		Bevel:     graph.Bevel{Thickness: CrownBevelThickness, Size: CrownBevelSize},
		Material:  graph.Opaque(c.FacadeColor),
	}
}

// Base is the foundation slab, wider than the floors and sunk below grade.
func Base(c building.Config) Slab {
	outline, _ := ellipse.Outline(c.MajorAxis*BaseScale, c.MinorAxis*BaseScale, ellipse.DefaultSegments)
	return Slab{
		Outline:   outline,
		Elevation: BaseElevation,
		Depth:     BaseDepth,
		Bevel:     graph.Bevel{Thickness: BaseBevelThickness, Size: BaseBevelSize},
		Material:  graph.Opaque(BaseColor),
	}
}

// CoreSpec is the translucent circulation core running the full height.
type CoreSpec struct {
	Radius   float64
	Height   float64
	Center   graph.Vec3
	Segments int
	Material graph.MaterialSpec
}

// Core returns the core cylinder. Its radius follows the smaller axis only.
func Core(c building.Config) CoreSpec {
	return CoreSpec{
		Radius:   math.Min(c.MajorAxis, c.MinorAxis) * CoreRadiusFactor,
		Height:   c.Height,
		Center:   graph.Vec3{Y: c.Height / 2},
		Segments: CoreSegments,
		Material: graph.MaterialSpec{Color: CoreColor, Opacity: CoreOpacity},
	}
}
