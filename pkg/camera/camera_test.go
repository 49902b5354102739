package camera

import (
	"testing"

	"github.com/chazu/helix/pkg/graph"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		position graph.Vec3
		target   graph.Vec3
	}{
		{"front", graph.Vec3{X: 0, Y: 60, Z: 80}, graph.Vec3{X: 0, Y: 60, Z: 0}},
		{"back", graph.Vec3{X: 0, Y: 60, Z: -80}, graph.Vec3{X: 0, Y: 60, Z: 0}},
		{"left", graph.Vec3{X: -80, Y: 60, Z: 0}, graph.Vec3{X: 0, Y: 60, Z: 0}},
		{"right", graph.Vec3{X: 80, Y: 60, Z: 0}, graph.Vec3{X: 0, Y: 60, Z: 0}},
		{"top", graph.Vec3{X: 0, Y: 200, Z: 0}, graph.Vec3{X: 0, Y: 0, Z: 0}},
		{"isometric", graph.Vec3{X: 60, Y: 80, Z: 60}, graph.Vec3{X: 0, Y: 60, Z: 0}},
		{"ground", graph.Vec3{X: 40, Y: 5, Z: 40}, graph.Vec3{X: 0, Y: 20, Z: 0}},
		{"aerial", graph.Vec3{X: 100, Y: 150, Z: 100}, graph.Vec3{X: 0, Y: 60, Z: 0}},
		{"perspective", graph.Vec3{X: 50, Y: 80, Z: 50}, graph.Vec3{X: 0, Y: 60, Z: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Resolve(tt.name)
			if p.Name != tt.name || p.Position != tt.position || p.Target != tt.target {
				t.Errorf("Resolve(%q) = %+v", tt.name, p)
			}
			// Resolving twice gives the same answer.
			if Resolve(tt.name) != p {
				t.Error("Resolve is not deterministic")
			}
		})
	}
}

func TestResolveFallsBack(t *testing.T) {
	want := Resolve(Default)
	for _, name := range []string{"", "birdseye", "FRONT", "top "} {
		if got := Resolve(name); got != want {
			t.Errorf("Resolve(%q) = %+v, want perspective", name, got)
		}
	}
	if _, ok := Lookup("birdseye"); ok {
		t.Error("Lookup should report unknown names")
	}
}

func TestPresetsAreCopies(t *testing.T) {
	ps := Presets()
	if len(ps) != 9 || len(Names()) != 9 {
		t.Fatalf("expected 9 presets, got %d", len(ps))
	}
	if Names()[0] != Default {
		t.Errorf("first preset = %q, want %q", Names()[0], Default)
	}
	ps[0].Position.X = 999
	if Resolve(Default).Position.X == 999 {
		t.Error("Presets exposed the internal table")
	}
}
