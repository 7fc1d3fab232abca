package mathutil

import "github.com/go-gl/mathgl/mgl64"

// Mat4 is a 4×4 column-major matrix. Used for bone world transforms.
type Mat4 = mgl64.Mat4

// Compose builds the affine matrix T(t) · R(q).
func Compose(t Vec3, q Quat) Mat4 {
	m := q.Mat4()
	m[12], m[13], m[14] = t[0], t[1], t[2]
	return m
}

// Translation returns T(t).
func Translation(t Vec3) Mat4 {
	return mgl64.Translate3D(t[0], t[1], t[2])
}

// MulPoint transforms a 3D point (w=1).
func MulPoint(m Mat4, v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[4]*v[1] + m[8]*v[2] + m[12],
		m[1]*v[0] + m[5]*v[1] + m[9]*v[2] + m[13],
		m[2]*v[0] + m[6]*v[1] + m[10]*v[2] + m[14],
	}
}

// MulDir transforms a direction by the upper 3×3 block only.
func MulDir(m Mat4, v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[4]*v[1] + m[8]*v[2],
		m[1]*v[0] + m[5]*v[1] + m[9]*v[2],
		m[2]*v[0] + m[6]*v[1] + m[10]*v[2],
	}
}

// Position returns the translation column.
func Position(m Mat4) Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// IsIdentity reports whether m is exactly the identity matrix.
func IsIdentity(m Mat4) bool {
	return m == mgl64.Ident4()
}

// RigidInverse inverts a rotation+translation matrix without a general
// 4×4 inverse.
func RigidInverse(m Mat4) Mat4 {
	var inv Mat4
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			inv[c*4+r] = m[r*4+c]
		}
	}
	t := Position(m)
	inv[12] = -(inv[0]*t[0] + inv[4]*t[1] + inv[8]*t[2])
	inv[13] = -(inv[1]*t[0] + inv[5]*t[1] + inv[9]*t[2])
	inv[14] = -(inv[2]*t[0] + inv[6]*t[1] + inv[10]*t[2])
	inv[15] = 1
	return inv
}
