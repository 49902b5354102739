// Package export writes the tessellated tower to interchange formats.
package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chewxy/math32"

	"github.com/chazu/helix/pkg/kernel"
	"github.com/chazu/helix/pkg/scene"
)

// DefaultHeader is written into the 80-byte STL header.
const DefaultHeader = "helix twisted elliptical tower"

// STLOptions control STL output.
type STLOptions struct {
	// ZUp rotates the Y-up model so +Y becomes +Z, the convention most
	// slicers and CAD tools expect.
	ZUp bool

	Header string
}

// stlTriangle is the on-disk layout of one binary STL triangle (50 bytes).
type stlTriangle struct {
	Normal [3]float32
	Vertex [3][3]float32
	Attr   uint16
}

// le is the STL byte order.
var le = binary.LittleEndian

// STL writes meshes as a binary STL file and returns the number of
// triangles written. Facet normals are recomputed from the winding;
// degenerate triangles are skipped.
func STL(w io.Writer, meshes []*kernel.Mesh, opts STLOptions) (int, error) {
	var facets []stlTriangle
	for _, m := range meshes {
		for t := 0; t+2 < len(m.Indices); t += 3 {
			var f stlTriangle
			for k := 0; k < 3; k++ {
				v := m.Vertex(int(m.Indices[t+k]))
				if opts.ZUp {
					v = [3]float32{v[0], -v[2], v[1]}
				}
				f.Vertex[k] = v
			}
			n, ok := facetNormal(f.Vertex)
			if !ok {
				continue
			}
			f.Normal = n
			facets = append(facets, f)
		}
	}

	var header [80]byte
	h := opts.Header
	if h == "" {
		h = DefaultHeader
	}
	copy(header[:], h)

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(header[:]); err != nil {
		return 0, fmt.Errorf("export: write header: %w", err)
	}
	if err := binary.Write(bw, le, uint32(len(facets))); err != nil {
		return 0, fmt.Errorf("export: write count: %w", err)
	}
	for i := range facets {
		if err := binary.Write(bw, le, &facets[i]); err != nil {
			return i, fmt.Errorf("export: write facet %d: %w", i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("export: flush: %w", err)
	}
	return len(facets), nil
}

// SceneSTL writes every mesh of s.
func SceneSTL(w io.Writer, s *scene.Scene, opts STLOptions) (int, error) {
	return STL(w, s.Meshes, opts)
}

func facetNormal(v [3][3]float32) ([3]float32, bool) {
	ax, ay, az := v[1][0]-v[0][0], v[1][1]-v[0][1], v[1][2]-v[0][2]
	bx, by, bz := v[2][0]-v[0][0], v[2][1]-v[0][1], v[2][2]-v[0][2]
	nx := ay*bz - az*by
	ny := az*bx - ax*bz
	nz := ax*by - ay*bx
	l := math32.Sqrt(nx*nx + ny*ny + nz*nz)
	if l == 0 {
		return [3]float32{}, false
	}
	return [3]float32{nx / l, ny / l, nz / l}, true
}
