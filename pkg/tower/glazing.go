package tower

import (
	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/ellipse"
	"github.com/chazu/helix/pkg/graph"
)

const (
	// GlazingSegments is the angular resolution of the skin.
	GlazingSegments = ellipse.DefaultSegments

	// GlazingOffset lifts the skin off the plates to keep the two surfaces
	// apart.
	GlazingOffset = 0.2
)

// PanelTriangles triangulates a panel along the diagonal from corner 0 to
// corner 2, wound so that face normals point away from the core.
var PanelTriangles = [2][3]uint32{{0, 2, 1}, {0, 3, 2}}

// Panel is one quad of the glazing skin. Corners run bottom(i),
// bottom(i+1), top(i+1), top(i). Panels between differently rotated rings
// are not planar.
type Panel struct {
	Floor   int
	Segment int
	Corners [4]graph.Vec3
	UVs     [4]graph.UV
}

// RingElevation returns the height of skin ring k. Ring k is the top of
// floor k-1's skin and the bottom of floor k's.
func RingElevation(c building.Config, k int) float64 {
	return float64(k)*c.FloorHeight() + GlazingOffset
}

// GlazingRing returns the GlazingSegments+1 points of ring k, rotated by
// k·RotationPerFloor. The last point repeats the first.
func GlazingRing(c building.Config, k int) []graph.Vec3 {
	y := RingElevation(c, k)
	plan := ellipse.Ring(c.MajorAxis, c.MinorAxis, GlazingSegments, c.FloorRotationRad(k))
	ring := make([]graph.Vec3, len(plan))
	for i, p := range plan {
		ring[i] = graph.Vec3{X: p.X, Y: y, Z: p.Z}
	}
	return ring
}

// FloorPanels returns the GlazingSegments panels between ring f and ring f+1.
func FloorPanels(c building.Config, f int) []Panel {
	bottom := GlazingRing(c, f)
	top := GlazingRing(c, f+1)

	panels := make([]Panel, GlazingSegments)
	for i := range panels {
		u0 := float64(i) / GlazingSegments
		u1 := float64(i+1) / GlazingSegments
		panels[i] = Panel{
			Floor:   f,
			Segment: i,
			Corners: [4]graph.Vec3{bottom[i], bottom[i+1], top[i+1], top[i]},
			UVs:     [4]graph.UV{{U: u0, V: 0}, {U: u1, V: 0}, {U: u1, V: 1}, {U: u0, V: 1}},
		}
	}
	return panels
}

// GlazingPanels returns every panel of the skin, floor by floor.
func GlazingPanels(c building.Config) []Panel {
	panels := make([]Panel, 0, c.Floors*GlazingSegments)
	for f := 0; f < c.Floors; f++ {
		panels = append(panels, FloorPanels(c, f)...)
	}
	return panels
}

// GlassMaterial is the translucent double-sided material shared by every
// panel.
func GlassMaterial(c building.Config) graph.MaterialSpec {
	return graph.MaterialSpec{Color: c.GlassColor, Opacity: c.GlassOpacity, DoubleSided: true}
}

// FloorSkin batches floor f's panels into one surface. Each panel keeps its
// own four vertices so UVs stay per panel.
func FloorSkin(c building.Config, f int) graph.SurfaceData {
	panels := FloorPanels(c, f)
	s := graph.SurfaceData{
		Vertices:  make([]graph.Vec3, 0, 4*len(panels)),
		UVs:       make([]graph.UV, 0, 4*len(panels)),
		Triangles: make([][3]uint32, 0, 2*len(panels)),
		Material:  GlassMaterial(c),
	}
	for _, p := range panels {
		base := uint32(len(s.Vertices))
		s.Vertices = append(s.Vertices, p.Corners[:]...)
		s.UVs = append(s.UVs, p.UVs[:]...)
		for _, tri := range PanelTriangles {
			s.Triangles = append(s.Triangles, [3]uint32{base + tri[0], base + tri[1], base + tri[2]})
		}
	}
	return s
}
