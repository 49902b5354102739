package tower

import (
	"fmt"

	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/graph"
)

// Names of the fixed nodes in every tower graph.
const (
	NameTower   = "tower"
	NameFloors  = "floors"
	NameGlazing = "glazing"
	NameLouvers = "louvers"
	NameCrown   = "crown"
	NameCore    = "core"
	NameBase    = "base"
)

// PlateName returns the node name of floor f's plate.
func PlateName(f int) string { return fmt.Sprintf("plate-%02d", f) }

// SkinName returns the node name of floor f's glazing surface.
func SkinName(f int) string { return fmt.Sprintf("glazing-%02d", f) }

// LouverName returns the node name of blade k.
func LouverName(k int) string { return fmt.Sprintf("louver-%02d", k) }

// builder accumulates nodes under path-derived IDs.
type builder struct {
	g *graph.SceneGraph
}

func (b *builder) add(path, name string, kind graph.NodeKind, role graph.Role, data graph.NodeData, children ...graph.NodeID) graph.NodeID {
	id := graph.NewNodeID(path)
	b.g.AddNode(&graph.Node{ID: id, Kind: kind, Name: name, Role: role, Children: children, Data: data})
	return id
}

// place wraps child in a transform node.
func (b *builder) place(path string, translation, rotation graph.Vec3, child graph.NodeID) graph.NodeID {
	td := graph.TransformData{}
	if !translation.IsZero() {
		t := translation
		td.Translation = &t
	}
	if !rotation.IsZero() {
		r := rotation
		td.Rotation = &r
	}
	return b.add(path, "", graph.NodeTransform, graph.RoleNone, td, child)
}

// Build assembles the full scene graph for c: plates, glazing, louvers (when
// enabled), crown, core and base, in that order under a single root.
func Build(c building.Config) *graph.SceneGraph {
	b := &builder{g: graph.New()}

	var parts []graph.NodeID
	parts = append(parts, b.plates(c))
	parts = append(parts, b.glazing(c))
	if LouverCount(c) > 0 {
		parts = append(parts, b.louvers(c))
	}
	parts = append(parts, b.slab("tower/crown", NameCrown, graph.RoleCrown, Crown(c)))
	parts = append(parts, b.core(c))
	parts = append(parts, b.slab("tower/base", NameBase, graph.RoleBase, Base(c)))

	root := b.add("tower", NameTower, graph.NodeGroup, graph.RoleNone,
		graph.GroupData{Description: fmt.Sprintf("%d floors, %g° per floor", c.Floors, c.RotationPerFloor)}, parts...)
	b.g.AddRoot(root)
	return b.g
}

func (b *builder) plates(c building.Config) graph.NodeID {
	kids := make([]graph.NodeID, 0, c.Floors)
	for _, p := range FloorPlates(c) {
		path := fmt.Sprintf("tower/floors/%d", p.Floor)
		plate := b.add(path+"/plate", PlateName(p.Floor), graph.NodePrimitive, graph.RolePlate, graph.ExtrusionData{
			PrimKind: graph.PrimExtrusion,
			Outline:  p.Outline,
			Depth:    p.Thickness,
			Material: p.Material,
		})
		kids = append(kids, b.place(path, graph.Vec3{Y: p.Elevation}, graph.Vec3{Y: p.Rotation}, plate))
	}
	return b.add("tower/floors", NameFloors, graph.NodeGroup, graph.RoleNone, graph.GroupData{Description: "floor plates"}, kids...)
}

func (b *builder) glazing(c building.Config) graph.NodeID {
	kids := make([]graph.NodeID, 0, c.Floors)
	for f := 0; f < c.Floors; f++ {
		kids = append(kids, b.add(fmt.Sprintf("tower/glazing/%d", f), SkinName(f), graph.NodeSurface, graph.RoleGlazing, FloorSkin(c, f)))
	}
	return b.add("tower/glazing", NameGlazing, graph.NodeGroup, graph.RoleNone, graph.GroupData{Description: "glazing skin"}, kids...)
}

func (b *builder) louvers(c building.Config) graph.NodeID {
	mat := LouverMaterial(c)
	louvers := Louvers(c)
	kids := make([]graph.NodeID, 0, len(louvers))
	for _, l := range louvers {
		path := fmt.Sprintf("tower/louvers/%d", l.Index)
		blade := b.add(path+"/blade", LouverName(l.Index), graph.NodePrimitive, graph.RoleLouver, graph.BoxData{
			PrimKind:   graph.PrimBox,
			Dimensions: l.Size,
			Material:   mat,
		})
		kids = append(kids, b.place(path, l.Position, graph.Vec3{Y: l.Rotation}, blade))
	}
	return b.add("tower/louvers", NameLouvers, graph.NodeGroup, graph.RoleNone, graph.GroupData{Description: "louver array"}, kids...)
}

func (b *builder) slab(path, name string, role graph.Role, s Slab) graph.NodeID {
	bevel := s.Bevel
	prim := b.add(path+"/solid", name, graph.NodePrimitive, role, graph.ExtrusionData{
		PrimKind: graph.PrimExtrusion,
		Outline:  s.Outline,
		Depth:    s.Depth,
		Bevel:    &bevel,
		Material: s.Material,
	})
	return b.place(path, graph.Vec3{Y: s.Elevation}, graph.Vec3{Y: s.Rotation}, prim)
}

func (b *builder) core(c building.Config) graph.NodeID {
	cs := Core(c)
	prim := b.add("tower/core/solid", NameCore, graph.NodePrimitive, graph.RoleCore, graph.CylinderData{
		PrimKind: graph.PrimCylinder,
		Radius:   cs.Radius,
		Height:   cs.Height,
		Segments: cs.Segments,
		Material: cs.Material,
	})
	return b.place("tower/core", cs.Center, graph.Vec3{}, prim)
}
