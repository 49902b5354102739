// Package ellipse samples points and outlines on a plan ellipse centered at
// the origin. Plan coordinates are (X, Z): X runs along the major axis and Z
// along the minor axis, matching the world frame where Y is up.
package ellipse

import (
	"errors"
	"fmt"
	"math"
)

// DefaultSegments is the angular resolution used for outlines and the
// glazing skin.
const DefaultSegments = 64

// ErrTooFewSegments is returned when an outline would not form a polygon.
var ErrTooFewSegments = errors.New("ellipse: at least 3 segments required")

// Point is a position in the horizontal plane.
type Point struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Rotate rotates p about the vertical axis by r radians:
//
//	x' = x·cos(r) − z·sin(r)
//	z' = x·sin(r) + z·cos(r)
func (p Point) Rotate(r float64) Point {
	if r == 0 {
		return p
	}
	sin, cos := math.Sincos(r)
	return Point{
		X: p.X*cos - p.Z*sin,
		Z: p.X*sin + p.Z*cos,
	}
}

// Scale returns p scaled uniformly by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Z: p.Z * s}
}

// Len returns the distance of p from the origin.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Z)
}

// PointAt returns the point on the ellipse with full axes major and minor at
// parametric angle (radians, 0 on the major axis), rotated by rotation radians.
// Zero axes yield a degenerate point; callers are expected to avoid them.
func PointAt(major, minor, angle, rotation float64) Point {
	sin, cos := math.Sincos(angle)
	p := Point{
		X: major / 2 * cos,
		Z: minor / 2 * sin,
	}
	return p.Rotate(rotation)
}

// SegmentAngle returns the parametric angle of segment boundary i when the
// full turn is divided into segments parts.
func SegmentAngle(i, segments int) float64 {
	return float64(i) / float64(segments) * 2 * math.Pi
}

// Outline samples segments equally spaced points over [0, 2π) in
// counter-clockwise order. The polygon is implicitly closed: the last point
// connects back to the first.
func Outline(major, minor float64, segments int) ([]Point, error) {
	return RotatedOutline(major, minor, segments, 0)
}

// RotatedOutline is Outline with every point rotated by rotation radians.
func RotatedOutline(major, minor float64, segments int, rotation float64) ([]Point, error) {
	if segments < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewSegments, segments)
	}
	pts := make([]Point, segments)
	for i := range pts {
		pts[i] = PointAt(major, minor, SegmentAngle(i, segments), rotation)
	}
	return pts, nil
}

// Ring samples segments+1 points so that the last point repeats the first.
// The glazing skin walks rings pairwise, so the closing point is explicit.
func Ring(major, minor float64, segments int, rotation float64) []Point {
	pts := make([]Point, segments+1)
	for i := 0; i < segments; i++ {
		pts[i] = PointAt(major, minor, SegmentAngle(i, segments), rotation)
	}
	pts[segments] = pts[0]
	return pts
}

// Area returns the exact area of the ellipse with full axes major and minor.
func Area(major, minor float64) float64 {
	return math.Pi * (major / 2) * (minor / 2)
}

// PolygonArea returns the signed shoelace area of a closed outline in the
// (X, Z) plane. Counter-clockwise outlines are positive.
func PolygonArea(pts []Point) float64 {
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Z - pts[j].X*pts[i].Z
	}
	return sum / 2
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
