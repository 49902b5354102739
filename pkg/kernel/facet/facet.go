// Package facet implements kernel.Kernel with exact polyhedral meshes.
// Every primitive is built directly from its outline, so plates, louvers
// and the core come out with the vertex counts their segment settings ask
// for and no sampling error.
package facet

import (
	"fmt"
	"math"

	"github.com/chazu/helix/pkg/ellipse"
	"github.com/chazu/helix/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

type vec = [3]float64

type vertex struct {
	p, n vec
}

// solid is an indexed triangle mesh in float64.
type solid struct {
	verts []vertex
	tris  [][3]uint32
}

// BoundingBox returns the axis-aligned bounding box.
func (s *solid) BoundingBox() (min, max [3]float64) {
	if len(s.verts) == 0 {
		return min, max
	}
	min, max = s.verts[0].p, s.verts[0].p
	for _, v := range s.verts[1:] {
		for k := 0; k < 3; k++ {
			min[k] = math.Min(min[k], v.p[k])
			max[k] = math.Max(max[k], v.p[k])
		}
	}
	return min, max
}

// Kernel implements kernel.Kernel with polyhedral meshes.
type Kernel struct{}

// New returns a new facet kernel.
func New() *Kernel {
	return &Kernel{}
}

// Name returns "facet".
func (k *Kernel) Name() string { return "facet" }

func unwrap(s kernel.Solid) *solid {
	return s.(*solid)
}

// ring is one horizontal slice of an extrusion: the outline pushed outward
// by offset at height y.
type ring struct {
	offset, y float64
}

// Extrude builds a prism over a convex plan outline from y=0 to y=depth.
// Side walls get smooth normals; caps are flat. With a bevel the caps keep
// the original outline and the walls between them are pushed out by
// bevel.Size, joined by chamfers.
func (k *Kernel) Extrude(outline []ellipse.Point, depth float64, bevel *kernel.Bevel) (kernel.Solid, error) {
	if len(outline) < 3 {
		return nil, fmt.Errorf("%w: extrusion outline has %d points", kernel.ErrDegenerate, len(outline))
	}
	if !(depth > 0) {
		return nil, fmt.Errorf("%w: extrusion depth %g", kernel.ErrDegenerate, depth)
	}

	rings := []ring{{0, 0}, {0, depth}}
	if bevel != nil && (bevel.Thickness > 0 || bevel.Size > 0) {
		t, s := bevel.Thickness, bevel.Size
		rings = []ring{{0, -t}, {s, 0}, {s, depth}, {0, depth + t}}
	}
	return prism(outline, rings, true), nil
}

// Cylinder builds a vertical cylinder with the given number of radial facets,
// centered on the origin.
func (k *Kernel) Cylinder(height, radius float64, segments int) (kernel.Solid, error) {
	if !(radius > 0) || !(height > 0) {
		return nil, fmt.Errorf("%w: cylinder r=%g h=%g", kernel.ErrDegenerate, radius, height)
	}
	outline, err := ellipse.Outline(2*radius, 2*radius, segments)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kernel.ErrDegenerate, err)
	}
	s := prism(outline, []ring{{0, -height / 2}, {0, height / 2}}, true)
	return s, nil
}

// Box builds a block centered on the origin.
func (k *Kernel) Box(x, y, z float64) (kernel.Solid, error) {
	if !(x > 0) || !(y > 0) || !(z > 0) {
		return nil, fmt.Errorf("%w: box %gx%gx%g", kernel.ErrDegenerate, x, y, z)
	}
	hx, hz := x/2, z/2
	outline := []ellipse.Point{{X: -hx, Z: -hz}, {X: hx, Z: -hz}, {X: hx, Z: hz}, {X: -hx, Z: hz}}
	return prism(outline, []ring{{0, -y / 2}, {0, y / 2}}, false), nil
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	src := unwrap(s)
	out := &solid{verts: make([]vertex, len(src.verts)), tris: src.tris}
	for i, v := range src.verts {
		out.verts[i] = vertex{p: vec{v.p[0] + x, v.p[1] + y, v.p[2] + z}, n: v.n}
	}
	return out
}

// Rotate rotates a solid by Euler angles in degrees.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := kernel.EulerRotation(x, y, z)
	src := unwrap(s)
	out := &solid{verts: make([]vertex, len(src.verts)), tris: src.tris}
	for i, v := range src.verts {
		out.verts[i] = vertex{p: m.Apply(v.p), n: m.Apply(v.n)}
	}
	return out
}

// ToMesh flattens the solid into a render mesh.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	src := unwrap(s)
	if len(src.tris) == 0 {
		return nil, fmt.Errorf("%w: solid has no triangles", kernel.ErrDegenerate)
	}
	m := &kernel.Mesh{
		Vertices: make([]float32, 0, 3*len(src.verts)),
		Normals:  make([]float32, 0, 3*len(src.verts)),
		Indices:  make([]uint32, 0, 3*len(src.tris)),
	}
	for _, v := range src.verts {
		m.Vertices = append(m.Vertices, float32(v.p[0]), float32(v.p[1]), float32(v.p[2]))
		m.Normals = append(m.Normals, float32(v.n[0]), float32(v.n[1]), float32(v.n[2]))
	}
	for _, t := range src.tris {
		m.Indices = append(m.Indices, t[0], t[1], t[2])
	}
	return m, nil
}
