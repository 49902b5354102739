package graph

import (
	"fmt"
	"regexp"
)

// ValidationSeverity indicates whether a validation finding blocks
// tessellation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks tessellation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// Validate runs the structural and geometric checks on the scene graph and
// returns every finding. An empty slice means the graph is valid. It never
// mutates the graph.
func Validate(g *SceneGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validatePayloads(g)...)
	return errs
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White = unvisited, gray = on the current path, black = fully explored.
func validateDAG(g *SceneGraph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool // true if a cycle was found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		node, ok := g.Nodes[id]
		if !ok {
			// Dangling; reported by validateReferences.
			color[id] = black
			return false
		}
		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for id := range g.Nodes {
		if color[id] == white {
			if visit(id) {
				break
			}
		}
	}
	return errs
}

// validateReferences checks that every child reference exists.
func validateReferences(g *SceneGraph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
		if node.Kind == NodePrimitive || node.Kind == NodeSurface {
			if len(node.Children) > 0 {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("%s node cannot have children", node.Kind),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateNames checks that names are unique and that the NameIndex only
// points at existing nodes.
func validateNames(g *SceneGraph) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range g.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateRoots checks that roots exist and warns about nodes unreachable
// from any root.
func validateRoots(g *SceneGraph) []ValidationError {
	var errs []ValidationError

	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		}
	}
	if len(g.Nodes) == 0 {
		return errs
	}

	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(g.Roots))
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; ok && !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}
	for len(queue) > 0 {
		node := g.Nodes[queue[0]]
		queue = queue[1:]
		if node == nil {
			continue
		}
		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	for id, node := range g.Nodes {
		if !reachable[id] {
			name := node.Name
			if name == "" {
				name = id.Short()
			}
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", name),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

var materialColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// validatePayloads checks that each node's data matches its kind and
// describes buildable geometry.
func validatePayloads(g *SceneGraph) []ValidationError {
	var errs []ValidationError
	fail := func(n *Node, format string, args ...any) {
		errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	}

	for _, n := range g.Nodes {
		var mat *MaterialSpec
		switch d := n.Data.(type) {
		case ExtrusionData:
			if n.Kind != NodePrimitive {
				fail(n, "extrusion data on %s node", n.Kind)
			}
			if len(d.Outline) < 3 {
				fail(n, "extrusion outline has %d points, need at least 3", len(d.Outline))
			}
			if !(d.Depth > 0) {
				fail(n, "extrusion depth must be positive, got %g", d.Depth)
			}
			if d.Bevel != nil && (d.Bevel.Thickness < 0 || d.Bevel.Size < 0) {
				fail(n, "bevel must not be negative")
			}
			mat = &d.Material
		case CylinderData:
			if n.Kind != NodePrimitive {
				fail(n, "cylinder data on %s node", n.Kind)
			}
			if !(d.Radius > 0) || !(d.Height > 0) {
				fail(n, "cylinder radius and height must be positive, got r=%g h=%g", d.Radius, d.Height)
			}
			if d.Segments < 3 {
				fail(n, "cylinder needs at least 3 segments, got %d", d.Segments)
			}
			mat = &d.Material
		case BoxData:
			if n.Kind != NodePrimitive {
				fail(n, "box data on %s node", n.Kind)
			}
			if !(d.Dimensions.X > 0) || !(d.Dimensions.Y > 0) || !(d.Dimensions.Z > 0) {
				fail(n, "box dimensions must be positive, got %+v", d.Dimensions)
			}
			mat = &d.Material
		case SurfaceData:
			if n.Kind != NodeSurface {
				fail(n, "surface data on %s node", n.Kind)
			}
			if len(d.UVs) != 0 && len(d.UVs) != len(d.Vertices) {
				fail(n, "surface has %d UVs for %d vertices", len(d.UVs), len(d.Vertices))
			}
			for i, tri := range d.Triangles {
				for _, idx := range tri {
					if int(idx) >= len(d.Vertices) {
						fail(n, "triangle %d index %d out of range (%d vertices)", i, idx, len(d.Vertices))
					}
				}
			}
			mat = &d.Material
		case TransformData:
			if n.Kind != NodeTransform {
				fail(n, "transform data on %s node", n.Kind)
			}
		case GroupData:
			if n.Kind != NodeGroup {
				fail(n, "group data on %s node", n.Kind)
			}
		case nil:
			fail(n, "%s node has no data", n.Kind)
		}

		if mat != nil {
			if !materialColor.MatchString(mat.Color) {
				fail(n, "material color %q is not #RRGGBB", mat.Color)
			}
			if mat.Opacity < 0 || mat.Opacity > 1 {
				errs = append(errs, ValidationError{
					NodeID:   n.ID,
					Message:  fmt.Sprintf("material opacity %g outside [0, 1]", mat.Opacity),
					Severity: SeverityWarning,
				})
			}
		}
	}
	return errs
}
