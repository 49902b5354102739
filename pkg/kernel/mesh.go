package kernel

import "github.com/chewxy/math32"

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, uvs has 2 floats per vertex when present,
// indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`      // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`       // [nx0,ny0,nz0, ...]
	UVs      []float32 `json:"uvs,omitempty"` // [u0,v0, u1,v1, ...]
	Indices  []uint32  `json:"indices"`       // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"`      // which scene node this came from
	Role     string    `json:"role,omitempty"`

	Color       string  `json:"color"`
	Opacity     float32 `json:"opacity"`
	DoubleSided bool    `json:"doubleSided,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Transparent reports whether the mesh needs blending.
func (m *Mesh) Transparent() bool {
	return m.Opacity < 1
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) [3]float32 {
	return [3]float32{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
}

// Bounds returns the axis-aligned bounding box of the vertices. An empty
// mesh returns zero bounds.
func (m *Mesh) Bounds() (min, max [3]float32) {
	if m.IsEmpty() {
		return min, max
	}
	min = m.Vertex(0)
	max = min
	for i := 1; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		for k := 0; k < 3; k++ {
			min[k] = math32.Min(min[k], v[k])
			max[k] = math32.Max(max[k], v[k])
		}
	}
	return min, max
}

// ComputeNormals replaces Normals with area-weighted vertex normals derived
// from the triangles. Vertices not used by any triangle get a zero normal.
func (m *Mesh) ComputeNormals() {
	n := make([]float32, len(m.Vertices))
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := m.Vertex(int(m.Indices[t])), m.Vertex(int(m.Indices[t+1])), m.Vertex(int(m.Indices[t+2]))
		e1 := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		e2 := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		// Cross product length is twice the triangle area.
		fx := e1[1]*e2[2] - e1[2]*e2[1]
		fy := e1[2]*e2[0] - e1[0]*e2[2]
		fz := e1[0]*e2[1] - e1[1]*e2[0]
		for _, idx := range m.Indices[t : t+3] {
			n[3*idx] += fx
			n[3*idx+1] += fy
			n[3*idx+2] += fz
		}
	}
	for i := 0; i+2 < len(n); i += 3 {
		l := math32.Sqrt(n[i]*n[i] + n[i+1]*n[i+1] + n[i+2]*n[i+2])
		if l > 0 {
			n[i] /= l
			n[i+1] /= l
			n[i+2] /= l
		}
	}
	m.Normals = n
}
