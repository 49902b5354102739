package facet

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/helix/pkg/ellipse"
	"github.com/chazu/helix/pkg/kernel"
)

// signedVolume integrates over the mesh with the divergence theorem. It is
// positive only when every triangle is wound to face outward.
func signedVolume(m *kernel.Mesh) float64 {
	var vol float64
	for t := 0; t < len(m.Indices); t += 3 {
		a, b, c := m.Vertex(int(m.Indices[t])), m.Vertex(int(m.Indices[t+1])), m.Vertex(int(m.Indices[t+2]))
		ax, ay, az := float64(a[0]), float64(a[1]), float64(a[2])
		bx, by, bz := float64(b[0]), float64(b[1]), float64(b[2])
		cx, cy, cz := float64(c[0]), float64(c[1]), float64(c[2])
		vol += ax*(by*cz-bz*cy) - ay*(bx*cz-bz*cx) + az*(bx*cy-by*cx)
	}
	return vol / 6
}

func mustMesh(t *testing.T, k *Kernel, s kernel.Solid, err error) *kernel.Mesh {
	t.Helper()
	if err != nil {
		t.Fatalf("primitive failed: %v", err)
	}
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	return m
}

func TestBox(t *testing.T) {
	k := New()
	s, err := k.Box(2, 4, 6)
	m := mustMesh(t, k, s, err)

	// Four walls of two triangles, two fans of four.
	if m.TriangleCount() != 16 {
		t.Errorf("box triangle count = %d, want 16", m.TriangleCount())
	}
	if len(m.Vertices) != len(m.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(m.Vertices), len(m.Normals))
	}
	if v := signedVolume(m); math.Abs(v-48) > 1e-4 {
		t.Errorf("box volume = %f, want 48", v)
	}

	min, max := s.BoundingBox()
	if min != [3]float64{-1, -2, -3} || max != [3]float64{1, 2, 3} {
		t.Errorf("box bounds = %v %v", min, max)
	}
}

func TestExtrudeEllipsePlate(t *testing.T) {
	k := New()
	outline, _ := ellipse.Outline(20, 15, 64)
	s, err := k.Extrude(outline, 0.4, nil)
	m := mustMesh(t, k, s, err)

	if m.TriangleCount() != 64*2+64*2 {
		t.Errorf("plate triangle count = %d, want 256", m.TriangleCount())
	}
	want := ellipse.PolygonArea(outline) * 0.4
	if v := signedVolume(m); math.Abs(v-want) > want*1e-5 {
		t.Errorf("plate volume = %f, want %f", v, want)
	}

	min, max := s.BoundingBox()
	if min[1] != 0 || max[1] != 0.4 {
		t.Errorf("plate spans y %f..%f, want 0..0.4", min[1], max[1])
	}
	if math.Abs(max[0]-10) > 1e-9 || math.Abs(max[2]-7.5) > 0.01 {
		t.Errorf("plate half extents = %f, %f", max[0], max[2])
	}
}

func TestExtrudeClockwiseOutline(t *testing.T) {
	k := New()
	outline, _ := ellipse.Outline(10, 10, 12)
	for i, j := 0, len(outline)-1; i < j; i, j = i+1, j-1 {
		outline[i], outline[j] = outline[j], outline[i]
	}
	s, err := k.Extrude(outline, 1, nil)
	m := mustMesh(t, k, s, err)
	if signedVolume(m) <= 0 {
		t.Error("reversed outline produced an inward-facing solid")
	}
}

func TestExtrudeBevel(t *testing.T) {
	k := New()
	outline, _ := ellipse.Outline(19, 14.25, 64)
	s, err := k.Extrude(outline, 3, &kernel.Bevel{Thickness: 0.8, Size: 0.3})
	m := mustMesh(t, k, s, err)

	min, max := s.BoundingBox()
	if math.Abs(min[1]+0.8) > 1e-9 || math.Abs(max[1]-3.8) > 1e-9 {
		t.Errorf("beveled crown spans y %f..%f, want -0.8..3.8", min[1], max[1])
	}
	if math.Abs(max[0]-9.8) > 1e-6 {
		t.Errorf("beveled crown half width = %f, want 9.8", max[0])
	}
	if signedVolume(m) <= 0 {
		t.Error("beveled solid is inside out")
	}
	// Four rings: three wall bands plus two caps.
	if m.TriangleCount() != 3*64*2+2*64 {
		t.Errorf("beveled triangle count = %d", m.TriangleCount())
	}
}

func TestCylinder(t *testing.T) {
	k := New()
	s, err := k.Cylinder(120, 1.5, 8)
	m := mustMesh(t, k, s, err)

	min, max := s.BoundingBox()
	if min[1] != -60 || max[1] != 60 {
		t.Errorf("cylinder spans y %f..%f, want -60..60", min[1], max[1])
	}
	if m.TriangleCount() != 8*2+8*2 {
		t.Errorf("cylinder triangle count = %d, want 32", m.TriangleCount())
	}

	// A centered convex solid has every normal pointing away from the origin.
	for i := 0; i < m.VertexCount(); i++ {
		p := m.Vertex(i)
		n := [3]float32{m.Normals[3*i], m.Normals[3*i+1], m.Normals[3*i+2]}
		if p[0]*n[0]+p[1]*n[1]+p[2]*n[2] <= 0 {
			t.Fatalf("vertex %d normal %v points inward at %v", i, n, p)
		}
	}
}

func TestRotatePlanSense(t *testing.T) {
	k := New()
	s, _ := k.Box(10, 1, 1)
	r := k.Rotate(s, 0, 90, 0)
	min, max := r.BoundingBox()
	if math.Abs(max[0]-min[0]-1) > 1e-9 || math.Abs(max[2]-min[2]-10) > 1e-9 {
		t.Errorf("rotated extents x=%f z=%f, want 1 and 10", max[0]-min[0], max[2]-min[2])
	}

	// Rotation leaves the original untouched.
	min, max = s.BoundingBox()
	if max[0] != 5 {
		t.Errorf("original box changed: %v %v", min, max)
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	s, _ := k.Box(10, 10, 10)
	min, max := k.Translate(s, 100, 200, 300).BoundingBox()
	if min != [3]float64{95, 195, 295} || max != [3]float64{105, 205, 305} {
		t.Errorf("translated bounds = %v %v", min, max)
	}
}

func TestDegeneratePrimitives(t *testing.T) {
	k := New()
	tests := []struct {
		name string
		fn   func() (kernel.Solid, error)
	}{
		{"flat box", func() (kernel.Solid, error) { return k.Box(1, 0, 1) }},
		{"zero radius", func() (kernel.Solid, error) { return k.Cylinder(1, 0, 8) }},
		{"two segments", func() (kernel.Solid, error) { return k.Cylinder(1, 1, 2) }},
		{"short outline", func() (kernel.Solid, error) {
			return k.Extrude([]ellipse.Point{{X: 1}, {Z: 1}}, 1, nil)
		}},
		{"zero depth", func() (kernel.Solid, error) {
			o, _ := ellipse.Outline(2, 2, 8)
			return k.Extrude(o, 0, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fn(); !errors.Is(err, kernel.ErrDegenerate) {
				t.Errorf("error = %v, want ErrDegenerate", err)
			}
		})
	}
}
