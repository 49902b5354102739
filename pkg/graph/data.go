package graph

import "github.com/chazu/helix/pkg/ellipse"

// ---------------------------------------------------------------------------
// Material
// ---------------------------------------------------------------------------

// MaterialSpec describes how a part is shaded.
type MaterialSpec struct {
	Color       string  `json:"color"`   // #RRGGBB
	Opacity     float64 `json:"opacity"` // 1 = opaque
	DoubleSided bool    `json:"doubleSided,omitempty"`
}

// Opaque returns an opaque single-sided material.
func Opaque(color string) MaterialSpec {
	return MaterialSpec{Color: color, Opacity: 1}
}

// Transparent reports whether the material needs blending.
func (m MaterialSpec) Transparent() bool {
	return m.Opacity < 1
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// PrimitiveKind distinguishes between primitive shapes.
type PrimitiveKind int

const (
	PrimExtrusion PrimitiveKind = iota // plan outline extruded upward
	PrimCylinder                       // vertical cylinder
	PrimBox                            // rectangular block
)

// Bevel rounds the top and bottom edges of an extrusion. Thickness is the
// vertical extent added above and below, Size the horizontal outset.
type Bevel struct {
	Thickness float64 `json:"thickness"`
	Size      float64 `json:"size"`
}

// ExtrusionData is a closed plan outline extruded from y=0 to y=Depth.
type ExtrusionData struct {
	PrimKind PrimitiveKind   `json:"prim_kind"`
	Outline  []ellipse.Point `json:"outline"`
	Depth    float64         `json:"depth"`
	Bevel    *Bevel          `json:"bevel,omitempty"`
	Material MaterialSpec    `json:"material"`
}

func (ExtrusionData) nodeData() {}

// CylinderData is a vertical cylinder centered on the origin.
type CylinderData struct {
	PrimKind PrimitiveKind `json:"prim_kind"`
	Radius   float64       `json:"radius"`
	Height   float64       `json:"height"`
	Segments int           `json:"segments"` // radial facets
	Material MaterialSpec  `json:"material"`
}

func (CylinderData) nodeData() {}

// BoxData is a rectangular block centered on the origin.
type BoxData struct {
	PrimKind   PrimitiveKind `json:"prim_kind"`
	Dimensions Vec3          `json:"dimensions"`
	Material   MaterialSpec  `json:"material"`
}

func (BoxData) nodeData() {}

// ---------------------------------------------------------------------------
// Surface
// ---------------------------------------------------------------------------

// UV is a texture coordinate.
type UV struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

// SurfaceData is an explicit indexed triangle surface in world space.
// It is emitted as-is; no kernel is involved.
type SurfaceData struct {
	Vertices  []Vec3       `json:"vertices"`
	UVs       []UV         `json:"uvs"`
	Triangles [][3]uint32  `json:"triangles"`
	Material  MaterialSpec `json:"material"`
}

func (SurfaceData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData is a spatial transformation applied to child nodes:
// rotation first, then translation.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData is a logical grouping (the tower, one floor, the louver array).
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
