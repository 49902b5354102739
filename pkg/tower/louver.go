package tower

import (
	"math"

	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/ellipse"
	"github.com/chazu/helix/pkg/graph"
)

const (
	// LouverMargin is the clearance between the envelope and the inner
	// edge of every louver.
	LouverMargin = 0.5

	// LouverThickness is the tangential thickness of a louver blade.
	LouverThickness = 0.15
)

// Louver is one full-height vertical blade.
type Louver struct {
	Index    int
	Segment  int     // angular segment the blade sits on
	Angle    float64 // radians
	Position graph.Vec3
	Rotation float64    // degrees about Y
	Size     graph.Vec3 // thickness × height × depth before rotation
}

// LouverCount returns the number of blades: zero when louvers are disabled,
// otherwise one per LouverSpacing segments, rounded down.
func LouverCount(c building.Config) int {
	if !c.EnableLouvers || c.LouverSpacing < 1 {
		return 0
	}
	return GlazingSegments / c.LouverSpacing
}

// LouverRadius returns the distance of every blade's center from the axis.
// The circle encloses the ellipse, so blades never cut the glazing.
func LouverRadius(c building.Config) float64 {
	return math.Max(c.MajorAxis, c.MinorAxis)/2 + c.LouverDepth/2 + LouverMargin
}

// Louvers places the blades on segments 0, s, 2s, … where s is
// LouverSpacing. Each blade is turned by angle+90° so its thin side follows
// the tangent and its depth points outward.
func Louvers(c building.Config) []Louver {
	n := LouverCount(c)
	if n == 0 {
		return nil
	}
	r := LouverRadius(c)
	out := make([]Louver, n)
	for k := range out {
		seg := k * c.LouverSpacing
		a := ellipse.SegmentAngle(seg, GlazingSegments)
		sin, cos := math.Sincos(a)
		out[k] = Louver{
			Index:    k,
			Segment:  seg,
			Angle:    a,
			Position: graph.Vec3{X: r * cos, Y: c.Height / 2, Z: r * sin},
			Rotation: ellipse.Degrees(a + math.Pi/2),
			Size:     graph.Vec3{X: LouverThickness, Y: c.Height, Z: c.LouverDepth},
		}
	}
	return out
}

// LouverMaterial is the opaque material shared by every blade.
func LouverMaterial(c building.Config) graph.MaterialSpec {
	return graph.Opaque(c.LouverColor)
}
