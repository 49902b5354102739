// Package scene owns the renderable scene. The Assembler rebuilds the whole
// scene from a building.Config on every change and swaps it in as a single
// value; callers holding an older *Scene keep a consistent snapshot.
package scene

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/graph"
	"github.com/chazu/helix/pkg/kernel"
	"github.com/chazu/helix/pkg/kernel/facet"
	"github.com/chazu/helix/pkg/kernel/sdfx"
	"github.com/chazu/helix/pkg/tessellate"
	"github.com/chazu/helix/pkg/tower"
	"github.com/sirupsen/logrus"
)

// ErrUnknownKernel is returned by NewKernel for an unrecognized backend name.
var ErrUnknownKernel = errors.New("scene: unknown kernel")

// NewKernel returns the kernel backend called name. cells only applies to
// sdfx.
func NewKernel(name string, cells int) (kernel.Kernel, error) {
	switch name {
	case "", "facet":
		return facet.New(), nil
	case "sdfx":
		return sdfx.New(cells), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKernel, name)
}

// Scene is one arena: the config it was built from, the scene graph and its
// meshes. It is never modified after Rebuild returns it.
type Scene struct {
	Generation uint64
	Config     building.Config
	Graph      *graph.SceneGraph
	Meshes     []*kernel.Mesh
	BuildTime  time.Duration
}

// ByRole returns the meshes tagged with role, in graph order.
func (s *Scene) ByRole(role graph.Role) []*kernel.Mesh {
	var out []*kernel.Mesh
	for _, m := range s.Meshes {
		if m.Role == string(role) {
			out = append(out, m)
		}
	}
	return out
}

// TriangleCount returns the total number of triangles.
func (s *Scene) TriangleCount() int {
	n := 0
	for _, m := range s.Meshes {
		n += m.TriangleCount()
	}
	return n
}

// Bounds returns the bounding box of every mesh.
func (s *Scene) Bounds() (min, max [3]float32) {
	first := true
	for _, m := range s.Meshes {
		if m.IsEmpty() {
			continue
		}
		lo, hi := m.Bounds()
		if first {
			min, max, first = lo, hi, false
			continue
		}
		for k := 0; k < 3; k++ {
			if lo[k] < min[k] {
				min[k] = lo[k]
			}
			if hi[k] > max[k] {
				max[k] = hi[k]
			}
		}
	}
	return min, max
}

// Summary is the JSON-friendly description of a scene.
type Summary struct {
	Generation uint64         `json:"generation"`
	Kernel     string         `json:"kernel"`
	Meshes     int            `json:"meshes"`
	Triangles  int            `json:"triangles"`
	ByRole     map[string]int `json:"byRole"`
	BuildMs    float64        `json:"buildMs"`
}

// Summarize counts the scene's meshes by role.
func (s *Scene) Summarize(kernelName string) Summary {
	sum := Summary{
		Generation: s.Generation,
		Kernel:     kernelName,
		Meshes:     len(s.Meshes),
		Triangles:  s.TriangleCount(),
		ByRole:     make(map[string]int),
		BuildMs:    float64(s.BuildTime.Microseconds()) / 1000,
	}
	for _, m := range s.Meshes {
		sum.ByRole[m.Role]++
	}
	return sum
}

// Observer is called after every successful rebuild.
type Observer func(s *Scene)

// Assembler rebuilds scenes with one kernel and holds the current one.
// It is safe for concurrent use; rebuilds are serialized.
type Assembler struct {
	kernel kernel.Kernel

	buildMu sync.Mutex // serializes rebuilds

	mu         sync.RWMutex
	current    *Scene
	generation uint64
	observers  []Observer
}

// NewAssembler returns an Assembler with no current scene.
func NewAssembler(k kernel.Kernel) *Assembler {
	return &Assembler{kernel: k}
}

// Kernel returns the kernel used for primitives.
func (a *Assembler) Kernel() kernel.Kernel {
	return a.kernel
}

// Observe registers fn to run after each rebuild.
func (a *Assembler) Observe(fn Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// Current returns the most recently built scene, or nil.
func (a *Assembler) Current() *Scene {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// Rebuild discards the current scene and builds a new one from c. The
// config is not validated here; callers clamp it first. On error the
// previous scene stays current.
func (a *Assembler) Rebuild(c building.Config) (*Scene, error) {
	a.buildMu.Lock()
	defer a.buildMu.Unlock()

	start := time.Now()
	g := tower.Build(c)
	if errs := graph.Validate(g); graph.HasErrors(errs) {
		return nil, fmt.Errorf("scene: invalid scene graph: %w", errs[0])
	}
	meshes, err := tessellate.Tessellate(g, a.kernel)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	a.mu.Lock()
	a.generation++
	s := &Scene{
		Generation: a.generation,
		Config:     c,
		Graph:      g,
		Meshes:     meshes,
		BuildTime:  time.Since(start),
	}
	a.current = s
	observers := append([]Observer(nil), a.observers...)
	a.mu.Unlock()

	logrus.Debugf("scene %d: %d meshes, %d triangles in %v (%s)",
		s.Generation, len(meshes), s.TriangleCount(), s.BuildTime, a.kernel.Name())
	for _, fn := range observers {
		fn(s)
	}
	return s, nil
}
