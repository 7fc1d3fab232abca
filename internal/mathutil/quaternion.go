package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quat represents a rotation quaternion (W, V).
type Quat = mgl64.Quat

// QuatIdent is the identity rotation.
func QuatIdent() Quat {
	return mgl64.QuatIdent()
}

// QuatFromXYZW builds a quaternion from the x, y, z, w order used by VMD and PMX.
func QuatFromXYZW(x, y, z, w float64) Quat {
	return Quat{W: w, V: Vec3{x, y, z}}
}

// Slerp interpolates along the shorter arc between a and b.
func Slerp(a, b Quat, t float64) Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, t)
}

// Scaled returns the rotation q applied by fraction w (slerp from identity).
func Scaled(q Quat, w float64) Quat {
	if w == 1 {
		return q
	}
	return Slerp(QuatIdent(), q, w)
}

// QuatFromEulerXYZ builds Rx(a) · Ry(b) · Rz(c).
func QuatFromEulerXYZ(e Vec3) Quat {
	qx := mgl64.QuatRotate(e[0], Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(e[1], Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(e[2], Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz)
}

// EulerXYZ decomposes q into the angles accepted by QuatFromEulerXYZ.
func EulerXYZ(q Quat) Vec3 {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W
	r00 := 1 - 2*(y*y+z*z)
	r01 := 2 * (x*y - w*z)
	r02 := 2 * (x*z + w*y)
	r11 := 1 - 2*(x*x+z*z)
	r12 := 2 * (y*z - w*x)
	r21 := 2 * (y*z + w*x)
	r22 := 1 - 2*(x*x+y*y)

	b := math.Asin(mgl64.Clamp(r02, -1, 1))
	if math.Abs(r02) > 0.9999999 {
		// gimbal lock: fold Z into X
		return Vec3{math.Atan2(r21, r11), b, 0}
	}
	return Vec3{math.Atan2(-r12, r22), b, math.Atan2(-r01, r00)}
}
