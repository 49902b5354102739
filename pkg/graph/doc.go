// Package graph defines the scene graph for the tower model.
// The scene graph is an immutable DAG of groups, transforms, solid
// primitives and explicit surfaces. Each rebuild produces a new graph.
package graph
