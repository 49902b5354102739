package kernel

import "math"

// Matrix3 is a row-major 3×3 rotation matrix.
type Matrix3 [3][3]float64

// Identity3 is the identity rotation.
var Identity3 = Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// EulerRotation returns the rotation for Euler angles in degrees, applied
// X first, then Y, then Z. The Y rotation turns +X toward +Z.
func EulerRotation(x, y, z float64) Matrix3 {
	sx, cx := math.Sincos(x * math.Pi / 180)
	sy, cy := math.Sincos(y * math.Pi / 180)
	sz, cz := math.Sincos(z * math.Pi / 180)

	rx := Matrix3{{1, 0, 0}, {0, cx, -sx}, {0, sx, cx}}
	ry := Matrix3{{cy, 0, -sy}, {0, 1, 0}, {sy, 0, cy}}
	rz := Matrix3{{cz, -sz, 0}, {sz, cz, 0}, {0, 0, 1}}
	return rz.Mul(ry).Mul(rx)
}

// Mul returns m·o.
func (m Matrix3) Mul(o Matrix3) Matrix3 {
	var r Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return r
}

// Apply returns m·v.
func (m Matrix3) Apply(v [3]float64) [3]float64 {
	return [3]float64{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}
