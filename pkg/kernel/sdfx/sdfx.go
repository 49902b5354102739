// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Meshes come from marching
// cubes, so their resolution is set by the cell count rather than by the
// segment counts of the primitives.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/helix/pkg/ellipse"
	"github.com/chazu/helix/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution along the
// longest bounding box axis.
const DefaultMeshCells = 200

// MaxMeshCells caps the resolution chosen for thin solids.
const MaxMeshCells = 4000

// cellsAcross is the minimum number of cells spanning the shortest bounding
// box axis. Fewer and a thin blade can fall between samples.
const cellsAcross = 3

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a new SdfxKernel rendering with the given number of marching
// cubes cells. Non-positive values select DefaultMeshCells.
func New(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// Name returns "sdfx".
func (k *SdfxKernel) Name() string { return "sdfx" }

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// upright turns an SDF built along +Z into one built along +Y, mapping the
// 2D Y axis onto world Z.
func upright(s sdf.SDF3) sdf.SDF3 {
	return sdf.Transform3D(s, sdf.RotateX(math.Pi/2))
}

// Extrude sweeps the plan outline from y=0 to y=depth. A bevel is rendered
// as a rounded extrusion of the outline grown by bevel.Size.
func (k *SdfxKernel) Extrude(outline []ellipse.Point, depth float64, bevel *kernel.Bevel) (kernel.Solid, error) {
	if len(outline) < 3 || !(depth > 0) {
		return nil, fmt.Errorf("%w: extrusion of %d points, depth %g", kernel.ErrDegenerate, len(outline), depth)
	}
	pts := make([]v2.Vec, len(outline))
	for i, p := range outline {
		pts[i] = v2.Vec{X: p.X, Y: p.Z}
	}
	poly, err := sdf.Polygon2D(pts)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Polygon2D: %w", err)
	}

	var s3 sdf.SDF3
	bottom, top := 0.0, depth
	if bevel != nil && (bevel.Thickness > 0 || bevel.Size > 0) {
		grown := sdf.Offset2D(poly, bevel.Size)
		bottom, top = -bevel.Thickness, depth+bevel.Thickness
		round := math.Min(bevel.Thickness, bevel.Size)
		s3, err = sdf.ExtrudeRounded3D(grown, top-bottom, round)
		if err != nil {
			return nil, fmt.Errorf("sdfx.ExtrudeRounded3D: %w", err)
		}
	} else {
		s3 = sdf.Extrude3D(poly, depth)
	}

	// Extrusions are centered on z=0; lift them so they span [bottom, top].
	m := sdf.Translate3d(v3.Vec{Y: (bottom + top) / 2})
	return wrap(sdf.Transform3D(upright(s3), m)), nil
}

// Cylinder creates a vertical cylinder centered on the origin.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) (kernel.Solid, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: sdfx.Cylinder3D: %v", kernel.ErrDegenerate, err)
	}
	return wrap(upright(s)), nil
}

// Box creates a box centered on the origin.
func (k *SdfxKernel) Box(x, y, z float64) (kernel.Solid, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: sdfx.Box3D: %v", kernel.ErrDegenerate, err)
	}
	return wrap(s), nil
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
// sdf.RotateY turns +Z toward +X, so the plan sense needs the negated angle.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(-yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	cells := k.cellsFor(sdf3)
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(sdf3, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("%w: marching cubes produced no triangles at %d cells", kernel.ErrDegenerate, cells)
	}

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// cellsFor returns the grid resolution along the longest axis of s: the
// configured cell count, raised until cellsAcross cells span the shortest
// axis, and capped at MaxMeshCells.
func (k *SdfxKernel) cellsFor(s sdf.SDF3) int {
	size := s.BoundingBox().Size()
	longest, shortest := size.MaxComponent(), size.MinComponent()
	cells := k.cells
	if shortest > 0 {
		cells = max(cells, int(math.Ceil(cellsAcross*longest/shortest)))
	}
	return min(cells, MaxMeshCells)
}
