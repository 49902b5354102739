// Package tessellate walks a scene graph and produces triangle meshes.
// Primitives go through a geometry kernel; surfaces are converted directly.
// One mesh is produced per primitive or surface node, in graph order.
package tessellate

import (
	"fmt"

	"github.com/chazu/helix/pkg/graph"
	"github.com/chazu/helix/pkg/kernel"
)

// transformStack accumulates spatial transforms during graph traversal.
// Rotations compose by summing Euler angles, which is exact for rotations
// about a common axis; child translations are turned by the rotation
// already on the stack.
type transformStack struct {
	translations []graph.Vec3
	rotations    []graph.Vec3
}

func newTransformStack() *transformStack {
	return &transformStack{}
}

func (ts *transformStack) push(translation, rotation graph.Vec3) {
	if !translation.IsZero() {
		if r := ts.accumulatedRotation(); !r.IsZero() {
			translation = rotate(kernel.EulerRotation(r.X, r.Y, r.Z), translation)
		}
	}
	ts.translations = append(ts.translations, translation)
	ts.rotations = append(ts.rotations, rotation)
}

func (ts *transformStack) pop() {
	if len(ts.translations) > 0 {
		ts.translations = ts.translations[:len(ts.translations)-1]
	}
	if len(ts.rotations) > 0 {
		ts.rotations = ts.rotations[:len(ts.rotations)-1]
	}
}

// accumulatedTranslation returns the sum of all translations on the stack.
func (ts *transformStack) accumulatedTranslation() graph.Vec3 {
	var sum graph.Vec3
	for _, t := range ts.translations {
		sum = sum.Add(t)
	}
	return sum
}

// accumulatedRotation returns the sum of all rotations on the stack.
func (ts *transformStack) accumulatedRotation() graph.Vec3 {
	var sum graph.Vec3
	for _, r := range ts.rotations {
		sum = sum.Add(r)
	}
	return sum
}

func rotate(m kernel.Matrix3, v graph.Vec3) graph.Vec3 {
	r := m.Apply([3]float64{v.X, v.Y, v.Z})
	return graph.Vec3{X: r[0], Y: r[1], Z: r[2]}
}

// Tessellate walks the scene graph and produces one triangle mesh per
// primitive or surface node. The tessellator is read-only and never mutates
// the graph.
func Tessellate(g *graph.SceneGraph, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	ts := newTransformStack()

	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := walkNode(g, k, root, ts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
		meshes = append(meshes, collected...)
	}

	return meshes, nil
}

// walkNode recursively traverses a node and its children, collecting meshes.
func walkNode(g *graph.SceneGraph, k kernel.Kernel, n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	switch n.Kind {
	case graph.NodePrimitive:
		return handlePrimitive(k, n, ts)

	case graph.NodeSurface:
		return handleSurface(n, ts)

	case graph.NodeTransform:
		return handleTransform(g, k, n, ts)

	case graph.NodeGroup:
		return handleGroup(g, k, n, ts)

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// handlePrimitive creates geometry for a primitive node.
func handlePrimitive(k kernel.Kernel, n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	var (
		solid kernel.Solid
		mat   graph.MaterialSpec
		err   error
	)

	switch data := n.Data.(type) {
	case graph.ExtrusionData:
		var bevel *kernel.Bevel
		if data.Bevel != nil {
			bevel = &kernel.Bevel{Thickness: data.Bevel.Thickness, Size: data.Bevel.Size}
		}
		solid, err = k.Extrude(data.Outline, data.Depth, bevel)
		mat = data.Material
	case graph.CylinderData:
		solid, err = k.Cylinder(data.Height, data.Radius, data.Segments)
		mat = data.Material
	case graph.BoxData:
		solid, err = k.Box(data.Dimensions.X, data.Dimensions.Y, data.Dimensions.Z)
		mat = data.Material
	default:
		return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}
	if err != nil {
		return nil, fmt.Errorf("tessellate: primitive %s: %w", partName(n), err)
	}

	// Apply accumulated rotation first, then translation.
	if rot := ts.accumulatedRotation(); !rot.IsZero() {
		solid = k.Rotate(solid, rot.X, rot.Y, rot.Z)
	}
	if trans := ts.accumulatedTranslation(); !trans.IsZero() {
		solid = k.Translate(solid, trans.X, trans.Y, trans.Z)
	}

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for node %s: %w", n.ID.Short(), err)
	}
	stamp(mesh, n, mat)
	return []*kernel.Mesh{mesh}, nil
}

// handleSurface converts an explicit surface without the kernel.
func handleSurface(n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	data, ok := n.Data.(graph.SurfaceData)
	if !ok {
		return nil, fmt.Errorf("surface node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	rot := ts.accumulatedRotation()
	trans := ts.accumulatedTranslation()
	m := kernel.EulerRotation(rot.X, rot.Y, rot.Z)

	mesh := &kernel.Mesh{
		Vertices: make([]float32, 0, 3*len(data.Vertices)),
		UVs:      make([]float32, 0, 2*len(data.UVs)),
		Indices:  make([]uint32, 0, 3*len(data.Triangles)),
	}
	for _, v := range data.Vertices {
		if !rot.IsZero() {
			v = rotate(m, v)
		}
		v = v.Add(trans)
		mesh.Vertices = append(mesh.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
	}
	for _, uv := range data.UVs {
		mesh.UVs = append(mesh.UVs, float32(uv.U), float32(uv.V))
	}
	for _, tri := range data.Triangles {
		mesh.Indices = append(mesh.Indices, tri[0], tri[1], tri[2])
	}
	mesh.ComputeNormals()
	stamp(mesh, n, data.Material)
	return []*kernel.Mesh{mesh}, nil
}

// handleTransform pushes the transform, recurses into children, then pops.
func handleTransform(g *graph.SceneGraph, k kernel.Kernel, n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	translation := graph.Vec3{}
	rotation := graph.Vec3{}
	if td.Translation != nil {
		translation = *td.Translation
	}
	if td.Rotation != nil {
		rotation = *td.Rotation
	}
	ts.push(translation, rotation)
	defer ts.pop()

	return handleGroup(g, k, n, ts)
}

// handleGroup recurses into children transparently.
func handleGroup(g *graph.SceneGraph, k kernel.Kernel, n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, child := range g.Children(n) {
		collected, err := walkNode(g, k, child, ts)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// stamp copies identity and material onto a mesh.
func stamp(mesh *kernel.Mesh, n *graph.Node, mat graph.MaterialSpec) {
	mesh.PartName = partName(n)
	mesh.Role = string(n.Role)
	mesh.Color = mat.Color
	mesh.Opacity = float32(mat.Opacity)
	mesh.DoubleSided = mat.DoubleSided
}

// partName prefers the node's Name, falling back to its short ID.
func partName(n *graph.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}
