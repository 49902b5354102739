package graph

// NodeKind enumerates the types of nodes in the scene graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // kernel solid (extrusion, cylinder, box)
	NodeTransform                 // rotation + translation applied to children
	NodeGroup                     // logical grouping
	NodeSurface                   // explicit triangle surface, bypasses the kernel
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeTransform:
		return "transform"
	case NodeGroup:
		return "group"
	case NodeSurface:
		return "surface"
	default:
		return "unknown"
	}
}

// Role tags what part of the building a node represents.
type Role string

const (
	RoleNone    Role = ""
	RolePlate   Role = "plate"
	RoleGlazing Role = "glazing"
	RoleLouver  Role = "louver"
	RoleCrown   Role = "crown"
	RoleCore    Role = "core"
	RoleBase    Role = "base"
)

// Node is the fundamental element of the scene graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Role     Role     `json:"role,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
