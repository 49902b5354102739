package facet

import (
	"math"

	"github.com/chazu/helix/pkg/ellipse"
)

// prism sweeps a convex outline through rings and closes both ends.
// The outline is reoriented so that its shoelace area in (X, Z) is positive;
// wall triangles are then wound to face outward.
func prism(outline []ellipse.Point, rings []ring, smooth bool) *solid {
	pts := make([]ellipse.Point, len(outline))
	copy(pts, outline)
	if ellipse.PolygonArea(pts) < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	n := len(pts)

	// Outward edge normals, then vertex normals as their bisectors.
	edgeN := make([]ellipse.Point, n)
	for i := range pts {
		j := (i + 1) % n
		d := ellipse.Point{X: pts[j].X - pts[i].X, Z: pts[j].Z - pts[i].Z}
		edgeN[i] = unit(ellipse.Point{X: d.Z, Z: -d.X})
	}
	vertN := make([]ellipse.Point, n)
	for i := range pts {
		prev := edgeN[(i+n-1)%n]
		vertN[i] = unit(ellipse.Point{X: prev.X + edgeN[i].X, Z: prev.Z + edgeN[i].Z})
	}

	at := func(i int, r ring) vec {
		return vec{pts[i].X + vertN[i].X*r.offset, r.y, pts[i].Z + vertN[i].Z*r.offset}
	}

	s := &solid{}
	add := func(p, nrm vec) uint32 {
		s.verts = append(s.verts, vertex{p: p, n: nrm})
		return uint32(len(s.verts) - 1)
	}

	for b := 0; b+1 < len(rings); b++ {
		lo, hi := rings[b], rings[b+1]
		// Wall normal in the (radial, up) plane.
		nr, ny := hi.y-lo.y, -(hi.offset - lo.offset)
		if l := math.Hypot(nr, ny); l > 0 {
			nr, ny = nr/l, ny/l
		}
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ni, nj := vertN[i], vertN[j]
			if !smooth {
				ni, nj = edgeN[i], edgeN[i]
			}
			normI := vec{ni.X * nr, ny, ni.Z * nr}
			normJ := vec{nj.X * nr, ny, nj.Z * nr}

			a0 := add(at(i, lo), normI)
			a1 := add(at(j, lo), normJ)
			b1 := add(at(j, hi), normJ)
			b0 := add(at(i, hi), normI)
			s.tris = append(s.tris, [3]uint32{a0, b0, b1}, [3]uint32{a0, b1, a1})
		}
	}

	closeRing := func(r ring, up bool) {
		var cx, cz float64
		for i := range pts {
			p := at(i, r)
			cx += p[0]
			cz += p[2]
		}
		nrm := vec{0, -1, 0}
		if up {
			nrm = vec{0, 1, 0}
		}
		c := add(vec{cx / float64(n), r.y, cz / float64(n)}, nrm)
		base := uint32(len(s.verts))
		for i := range pts {
			add(at(i, r), nrm)
		}
		for i := 0; i < n; i++ {
			pi, pj := base+uint32(i), base+uint32((i+1)%n)
			if up {
				s.tris = append(s.tris, [3]uint32{c, pj, pi})
			} else {
				s.tris = append(s.tris, [3]uint32{c, pi, pj})
			}
		}
	}
	closeRing(rings[0], false)
	closeRing(rings[len(rings)-1], true)
	return s
}

func unit(p ellipse.Point) ellipse.Point {
	l := p.Len()
	if l == 0 {
		return p
	}
	return p.Scale(1 / l)
}
