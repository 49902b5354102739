package kernel

import (
	"math"
	"testing"

	"github.com/chazu/helix/pkg/ellipse"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 0, 2, 3}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	if !(&Mesh{}).IsEmpty() {
		t.Error("IsEmpty() = false for empty mesh, want true")
	}
	if (&Mesh{Vertices: []float32{1, 2, 3}}).IsEmpty() {
		t.Error("IsEmpty() = true for non-empty mesh, want false")
	}
}

// quad is a unit square in the XY plane facing +Z.
func quad() *Mesh {
	return &Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		UVs:      []float32{0, 0, 1, 0, 1, 1, 0, 1},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestComputeNormals(t *testing.T) {
	m := quad()
	m.ComputeNormals()
	if len(m.Normals) != len(m.Vertices) {
		t.Fatalf("normals length %d != vertices length %d", len(m.Normals), len(m.Vertices))
	}
	for i := 0; i < m.VertexCount(); i++ {
		nx, ny, nz := m.Normals[3*i], m.Normals[3*i+1], m.Normals[3*i+2]
		if math.Abs(float64(nx)) > 1e-6 || math.Abs(float64(ny)) > 1e-6 || math.Abs(float64(nz)-1) > 1e-6 {
			t.Errorf("normal %d = (%f, %f, %f), want (0, 0, 1)", i, nx, ny, nz)
		}
	}
}

func TestBounds(t *testing.T) {
	a := quad()
	for i := 2; i < len(a.Vertices); i += 6 {
		a.Vertices[i] = 5
	}
	min, max := a.Bounds()
	if min != [3]float32{0, 0, 0} || max != [3]float32{1, 1, 5} {
		t.Errorf("Bounds = %v %v", min, max)
	}
}

func TestTransparent(t *testing.T) {
	if (&Mesh{Opacity: 1}).Transparent() {
		t.Error("opaque mesh reported transparent")
	}
	if !(&Mesh{Opacity: 0.4}).Transparent() {
		t.Error("0.4 opacity mesh should be transparent")
	}
}

// --- Compile-time interface check with a stub kernel ---

type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// stubKernel proves the interface is satisfiable.
type stubKernel struct{}

func (k *stubKernel) Name() string { return "stub" }

func (k *stubKernel) Extrude(outline []ellipse.Point, depth float64, _ *Bevel) (Solid, error) {
	if len(outline) < 3 {
		return nil, ErrDegenerate
	}
	return &stubSolid{maxBB: [3]float64{0, depth, 0}}, nil
}

func (k *stubKernel) Cylinder(height, radius float64, _ int) (Solid, error) {
	return &stubSolid{
		minBB: [3]float64{-radius, -height / 2, -radius},
		maxBB: [3]float64{radius, height / 2, radius},
	}, nil
}

func (k *stubKernel) Box(x, y, z float64) (Solid, error) {
	return &stubSolid{
		minBB: [3]float64{-x / 2, -y / 2, -z / 2},
		maxBB: [3]float64{x / 2, y / 2, z / 2},
	}, nil
}

func (k *stubKernel) Translate(s Solid, _, _, _ float64) Solid { return s }
func (k *stubKernel) Rotate(s Solid, _, _, _ float64) Solid    { return s }

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s, err := k.Box(10, 20, 30)
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	min, max := s.BoundingBox()
	if min != [3]float64{-5, -10, -15} || max != [3]float64{5, 10, 15} {
		t.Errorf("Box bounds = %v %v", min, max)
	}
}
