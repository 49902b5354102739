package viewport

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"strconv"

	"github.com/llgcode/draw2d/draw2dimg"

	"github.com/chazu/helix/pkg/camera"
	"github.com/chazu/helix/pkg/graph"
	"github.com/chazu/helix/pkg/scene"
)

// Lighting matches the editor's canvas: a dim ambient term plus one key
// light above and to the side of the tower.
const (
	ambient   = 0.3
	keyWeight = 0.7
)

var keyLight = graph.Vec3{X: 50, Y: 100, Z: 30}.Normalize()

// Ground grid drawn under the tower.
const (
	gridExtent  = 100.0
	gridCell    = 5.0
	gridSection = 25.0
)

var (
	gridCellColor    = color.NRGBA{0x6e, 0x6e, 0x6e, 0x60}
	gridSectionColor = color.NRGBA{0x3e, 0x3e, 0x3e, 0xa0}
)

// face is one projected triangle waiting to be painted.
type face struct {
	pts   [3][2]float64
	depth float64
	fill  color.NRGBA
}

// render paints s as seen from st. Triangles are painted far to near with
// flat Lambert shading; transparent materials blend over what is behind.
func render(s *scene.Scene, st camera.State, opts Options) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	pr := newProjector(st, opts.Width, opts.Height, opts.FOV)
	gc := draw2dimg.NewGraphicContext(canvas)

	drawGrid(gc, pr)

	faces := collectFaces(s, pr)
	sort.SliceStable(faces, func(i, j int) bool { return faces[i].depth > faces[j].depth })
	for _, f := range faces {
		gc.BeginPath()
		gc.MoveTo(f.pts[0][0], f.pts[0][1])
		gc.LineTo(f.pts[1][0], f.pts[1][1])
		gc.LineTo(f.pts[2][0], f.pts[2][1])
		gc.Close()
		gc.SetFillColor(f.fill)
		gc.Fill()
	}
	return canvas
}

func collectFaces(s *scene.Scene, pr projector) []face {
	var faces []face
	for _, m := range s.Meshes {
		base, ok := ParseColor(m.Color)
		if !ok {
			base = color.NRGBA{0x80, 0x80, 0x80, 0xff}
		}
		alpha := uint8(math.Round(float64(clamp01(m.Opacity)) * 255))

		for t := 0; t+2 < len(m.Indices); t += 3 {
			var world [3]graph.Vec3
			for k := 0; k < 3; k++ {
				v := m.Vertex(int(m.Indices[t+k]))
				world[k] = graph.Vec3{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
			}
			n := world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
			if n.Len() == 0 {
				continue
			}
			n = n.Normalize()

			facing := n.Dot(pr.eye.Sub(world[0]))
			if facing <= 0 && !m.DoubleSided {
				continue
			}
			if facing < 0 {
				n = n.Scale(-1)
			}

			var f face
			visible := true
			for k := 0; k < 3; k++ {
				x, y, d, ok := pr.project(world[k])
				if !ok {
					visible = false
					break
				}
				f.pts[k] = [2]float64{x, y}
				f.depth += d / 3
			}
			if !visible {
				continue
			}

			light := ambient + keyWeight*math.Max(0, n.Dot(keyLight))
			f.fill = shade(base, light, alpha)
			faces = append(faces, f)
		}
	}
	return faces
}

func drawGrid(gc *draw2dimg.GraphicContext, pr projector) {
	gc.SetLineWidth(1)
	for v := -gridExtent; v <= gridExtent; v += gridCell {
		c := gridCellColor
		if math.Mod(math.Abs(v), gridSection) == 0 {
			c = gridSectionColor
		}
		gc.SetStrokeColor(c)
		strokeSegment(gc, pr, graph.Vec3{X: v, Z: -gridExtent}, graph.Vec3{X: v, Z: gridExtent})
		strokeSegment(gc, pr, graph.Vec3{X: -gridExtent, Z: v}, graph.Vec3{X: gridExtent, Z: v})
	}
}

// strokeSegment draws a to b, trimmed to the part in front of the camera.
func strokeSegment(gc *draw2dimg.GraphicContext, pr projector, a, b graph.Vec3) {
	da := a.Sub(pr.eye).Dot(pr.forward)
	db := b.Sub(pr.eye).Dot(pr.forward)
	if da < 2*nearPlane && db < 2*nearPlane {
		return
	}
	clip := 2 * nearPlane
	if da < clip {
		a = a.Add(b.Sub(a).Scale((clip - da) / (db - da)))
	} else if db < clip {
		b = b.Add(a.Sub(b).Scale((clip - db) / (da - db)))
	}
	ax, ay, _, okA := pr.project(a)
	bx, by, _, okB := pr.project(b)
	if !okA || !okB {
		return
	}
	gc.BeginPath()
	gc.MoveTo(ax, ay)
	gc.LineTo(bx, by)
	gc.Stroke()
}

func shade(c color.NRGBA, light float64, alpha uint8) color.NRGBA {
	scale := func(v uint8) uint8 {
		return uint8(math.Min(255, math.Round(float64(v)*light)))
	}
	return color.NRGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: alpha}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ParseColor parses a #RRGGBB color.
func ParseColor(s string) (color.NRGBA, bool) {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}
