package tessellate_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/graph"
	"github.com/chazu/helix/pkg/kernel"
	"github.com/chazu/helix/pkg/kernel/facet"
	"github.com/chazu/helix/pkg/tessellate"
	"github.com/chazu/helix/pkg/tower"
)

// newKernel returns the exact kernel so counts and positions are stable.
func newKernel() kernel.Kernel {
	return facet.New()
}

// makeBox creates a box primitive node with the given name and dimensions.
func makeBox(name string, x, y, z float64) *graph.Node {
	return &graph.Node{
		ID:   graph.NewNodeID(name),
		Kind: graph.NodePrimitive,
		Name: name,
		Role: graph.RoleLouver,
		Data: graph.BoxData{
			PrimKind:   graph.PrimBox,
			Dimensions: graph.Vec3{X: x, Y: y, Z: z},
			Material:   graph.Opaque("#A0A0A0"),
		},
	}
}

// makeTransform creates a transform node; nil vectors are left unset.
func makeTransform(name string, translation, rotation *graph.Vec3, children ...graph.NodeID) *graph.Node {
	return &graph.Node{
		ID:       graph.NewNodeID(name),
		Kind:     graph.NodeTransform,
		Name:     name,
		Children: children,
		Data:     graph.TransformData{Translation: translation, Rotation: rotation},
	}
}

func makeGroup(name string, children ...graph.NodeID) *graph.Node {
	return &graph.Node{
		ID:       graph.NewNodeID(name),
		Kind:     graph.NodeGroup,
		Name:     name,
		Children: children,
		Data:     graph.GroupData{Description: name},
	}
}

func center(m *kernel.Mesh) [3]float64 {
	min, max := m.Bounds()
	return [3]float64{
		float64(min[0]+max[0]) / 2,
		float64(min[1]+max[1]) / 2,
		float64(min[2]+max[2]) / 2,
	}
}

func near(a, b [3]float64, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestSingleBox(t *testing.T) {
	g := graph.New()
	box := makeBox("blade", 0.15, 120, 0.5)
	g.AddNode(box)
	g.AddRoot(box.ID)

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if m.IsEmpty() || m.TriangleCount() == 0 {
		t.Fatal("mesh should not be empty")
	}
	if m.PartName != "blade" || m.Role != "louver" {
		t.Errorf("identity = %q/%q", m.PartName, m.Role)
	}
	if m.Color != "#A0A0A0" || m.Opacity != 1 || m.DoubleSided {
		t.Errorf("material = %s %f %v", m.Color, m.Opacity, m.DoubleSided)
	}
}

func TestPartWithTransform(t *testing.T) {
	g := graph.New()
	box := makeBox("block", 2, 2, 2)
	xf := makeTransform("place", &graph.Vec3{X: 10, Y: 20, Z: 30}, nil, box.ID)
	g.AddNode(box)
	g.AddNode(xf)
	g.AddRoot(xf.ID)

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if c := center(meshes[0]); !near(c, [3]float64{10, 20, 30}, 1e-5) {
		t.Errorf("center = %v, want (10, 20, 30)", c)
	}
}

func TestRotationThenTranslation(t *testing.T) {
	g := graph.New()
	box := makeBox("blade", 0.2, 1, 4)
	xf := makeTransform("place", &graph.Vec3{X: 5}, &graph.Vec3{Y: 90}, box.ID)
	g.AddNode(box)
	g.AddNode(xf)
	g.AddRoot(xf.ID)

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	min, max := meshes[0].Bounds()
	// The long Z side turns onto X; the box is then moved to x=5.
	if dx := max[0] - min[0]; math.Abs(float64(dx)-4) > 1e-5 {
		t.Errorf("x extent = %f, want 4", dx)
	}
	if c := center(meshes[0]); !near(c, [3]float64{5, 0, 0}, 1e-5) {
		t.Errorf("center = %v, want (5, 0, 0)", c)
	}
}

func TestNestedTransformsRotateChildTranslation(t *testing.T) {
	g := graph.New()
	box := makeBox("block", 1, 1, 1)
	inner := makeTransform("inner", &graph.Vec3{X: 10}, nil, box.ID)
	outer := makeTransform("outer", nil, &graph.Vec3{Y: 90}, inner.ID)
	for _, n := range []*graph.Node{box, inner, outer} {
		g.AddNode(n)
	}
	g.AddRoot(outer.ID)

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if c := center(meshes[0]); !near(c, [3]float64{0, 0, 10}, 1e-5) {
		t.Errorf("center = %v, want (0, 0, 10)", c)
	}
}

func TestSurfaceBypassesKernel(t *testing.T) {
	g := graph.New()
	s := &graph.Node{
		ID: graph.NewNodeID("pane"), Kind: graph.NodeSurface, Name: "pane", Role: graph.RoleGlazing,
		Data: graph.SurfaceData{
			Vertices:  []graph.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0}},
			UVs:       []graph.UV{{U: 0, V: 0}, {U: 1, V: 0}, {U: 1, V: 1}, {U: 0, V: 1}},
			Triangles: [][3]uint32{{0, 1, 2}, {0, 2, 3}},
			Material:  graph.MaterialSpec{Color: "#87CEEB", Opacity: 0.7, DoubleSided: true},
		},
	}
	xf := makeTransform("lift", &graph.Vec3{Y: 3}, nil, s.ID)
	g.AddNode(s)
	g.AddNode(xf)
	g.AddRoot(xf.ID)

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	m := meshes[0]
	if m.VertexCount() != 4 || m.TriangleCount() != 2 || len(m.UVs) != 8 {
		t.Fatalf("surface mesh: %d vertices, %d triangles, %d uvs", m.VertexCount(), m.TriangleCount(), len(m.UVs))
	}
	if m.Vertices[1] != 3 {
		t.Errorf("surface not lifted: y = %f", m.Vertices[1])
	}
	if m.Normals[2] != 1 {
		t.Errorf("normal z = %f, want 1", m.Normals[2])
	}
	if !m.DoubleSided || !m.Transparent() || m.Role != "glazing" {
		t.Errorf("material/role not stamped: %+v", m)
	}
}

func TestEmptyGraph(t *testing.T) {
	meshes, err := tessellate.Tessellate(graph.New(), newKernel())
	if err != nil || len(meshes) != 0 {
		t.Errorf("empty graph: %d meshes, %v", len(meshes), err)
	}
	if meshes, err := tessellate.Tessellate(nil, newKernel()); meshes != nil || err != nil {
		t.Errorf("nil graph: %v, %v", meshes, err)
	}
}

func TestErrors(t *testing.T) {
	t.Run("degenerate primitive", func(t *testing.T) {
		g := graph.New()
		box := makeBox("flat", 1, 0, 1)
		g.AddNode(box)
		g.AddRoot(box.ID)
		if _, err := tessellate.Tessellate(g, newKernel()); !errors.Is(err, kernel.ErrDegenerate) {
			t.Errorf("error = %v, want ErrDegenerate", err)
		}
	})
	t.Run("wrong payload", func(t *testing.T) {
		g := graph.New()
		n := &graph.Node{ID: graph.NewNodeID("odd"), Kind: graph.NodePrimitive, Data: graph.GroupData{}}
		g.AddNode(n)
		g.AddRoot(n.ID)
		if _, err := tessellate.Tessellate(g, newKernel()); err == nil {
			t.Error("expected error for group data on a primitive")
		}
	})
}

func TestTower(t *testing.T) {
	c := building.Default()
	g := tower.Build(c)

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}

	byRole := map[string]int{}
	glazingTriangles := 0
	for _, m := range meshes {
		byRole[m.Role]++
		if m.Role == string(graph.RoleGlazing) {
			glazingTriangles += m.TriangleCount()
		}
	}
	want := map[string]int{"plate": 30, "glazing": 30, "louver": 32, "crown": 1, "core": 1, "base": 1}
	if !reflect.DeepEqual(byRole, want) {
		t.Errorf("meshes by role = %v, want %v", byRole, want)
	}
	if glazingTriangles != 30*64*2 {
		t.Errorf("glazing triangles = %d, want %d", glazingTriangles, 30*64*2)
	}

	// Graph order: plates first, base last.
	if meshes[0].PartName != tower.PlateName(0) || meshes[len(meshes)-1].PartName != tower.NameBase {
		t.Errorf("first/last mesh = %q/%q", meshes[0].PartName, meshes[len(meshes)-1].PartName)
	}

	// The top plate sits at 29 × 4 m.
	for _, m := range meshes {
		if m.PartName == tower.PlateName(29) {
			min, max := m.Bounds()
			if math.Abs(float64(min[1])-116) > 1e-4 || math.Abs(float64(max[1])-116.4) > 1e-4 {
				t.Errorf("plate-29 spans y %f..%f", min[1], max[1])
			}
		}
	}
}

func TestTowerIdempotent(t *testing.T) {
	c := building.Default()
	a, err := tessellate.Tessellate(tower.Build(c), newKernel())
	if err != nil {
		t.Fatal(err)
	}
	b, err := tessellate.Tessellate(tower.Build(c), newKernel())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("tessellating the same config twice gave different meshes")
	}
}
