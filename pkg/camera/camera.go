// Package camera resolves named viewpoints. Presets are fixed and do not
// depend on the model.
package camera

import "github.com/chazu/helix/pkg/graph"

// Default is the preset unknown names fall back to.
const Default = "perspective"

// State is a camera placement: where it is and what it looks at.
type State struct {
	Position graph.Vec3 `json:"position"`
	Target   graph.Vec3 `json:"target"`
}

// Preset is a named camera placement with a display label.
type Preset struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	State
}

// presets lists every preset in display order.
var presets = []Preset{
	{"perspective", "Perspective", State{graph.Vec3{X: 50, Y: 80, Z: 50}, graph.Vec3{Y: 60}}},
	{"front", "Front", State{graph.Vec3{Y: 60, Z: 80}, graph.Vec3{Y: 60}}},
	{"back", "Back", State{graph.Vec3{Y: 60, Z: -80}, graph.Vec3{Y: 60}}},
	{"left", "Left", State{graph.Vec3{X: -80, Y: 60}, graph.Vec3{Y: 60}}},
	{"right", "Right", State{graph.Vec3{X: 80, Y: 60}, graph.Vec3{Y: 60}}},
	{"top", "Top View", State{graph.Vec3{Y: 200}, graph.Vec3{}}},
	{"isometric", "Isometric", State{graph.Vec3{X: 60, Y: 80, Z: 60}, graph.Vec3{Y: 60}}},
	{"ground", "Ground Level", State{graph.Vec3{X: 40, Y: 5, Z: 40}, graph.Vec3{Y: 20}}},
	{"aerial", "Aerial View", State{graph.Vec3{X: 100, Y: 150, Z: 100}, graph.Vec3{Y: 60}}},
}

// Resolve returns the preset called name, or the perspective preset when
// the name is unknown.
func Resolve(name string) Preset {
	p, ok := Lookup(name)
	if !ok {
		p, _ = Lookup(Default)
	}
	return p
}

// Lookup returns the preset called name and whether it exists.
func Lookup(name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Presets returns every preset in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// Names returns the preset names in display order.
func Names() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}
