package viewport

import (
	"math"

	"github.com/chazu/helix/pkg/camera"
	"github.com/chazu/helix/pkg/graph"
)

// nearPlane is the closest depth a vertex may have and still be drawn.
const nearPlane = 0.1

// projector maps world points to pixel coordinates for one camera.
type projector struct {
	eye                graph.Vec3
	right, up, forward graph.Vec3
	focal              float64
	cx, cy             float64
}

func newProjector(st camera.State, width, height int, fovDeg float64) projector {
	forward := st.Target.Sub(st.Position).Normalize()
	worldUp := graph.Vec3{Y: 1}
	right := forward.Cross(worldUp)
	if right.Len() < 1e-9 {
		// Looking straight down: screen up follows -Z.
		right = forward.Cross(graph.Vec3{Z: -1})
	}
	right = right.Normalize()
	return projector{
		eye:     st.Position,
		right:   right,
		up:      right.Cross(forward),
		forward: forward,
		focal:   float64(height) / 2 / math.Tan(fovDeg*math.Pi/360),
		cx:      float64(width) / 2,
		cy:      float64(height) / 2,
	}
}

// project returns the pixel position and view depth of p. ok is false when
// p lies behind the near plane.
func (pr projector) project(p graph.Vec3) (x, y, depth float64, ok bool) {
	d := p.Sub(pr.eye)
	depth = d.Dot(pr.forward)
	if depth < nearPlane {
		return 0, 0, depth, false
	}
	x = pr.cx + d.Dot(pr.right)*pr.focal/depth
	y = pr.cy - d.Dot(pr.up)*pr.focal/depth
	return x, y, depth, true
}
