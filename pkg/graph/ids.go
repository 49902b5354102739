package graph

import "github.com/google/uuid"

// NodeID identifies a node. IDs are derived from the node's path in the
// scene, so rebuilding the same config yields the same IDs.
type NodeID string

// ZeroID is the empty NodeID.
const ZeroID NodeID = ""

// nodeNamespace scopes path-derived IDs.
var nodeNamespace = uuid.MustParse("5f0c3a52-6a7e-4d0f-9a43-2d61f3f1b7c4")

// NewNodeID returns the deterministic ID for a scene path such as
// "tower/floor-12/plate".
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(nodeNamespace, []byte(path)).String())
}

// Short returns the first 8 characters, for messages.
func (id NodeID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}
