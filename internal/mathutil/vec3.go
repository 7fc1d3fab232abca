package mathutil

import "github.com/go-gl/mathgl/mgl64"

// Vec3 is a 3-component vector (value type, stack-allocated).
type Vec3 = mgl64.Vec3

// Normalize returns v scaled to unit length, or the zero vector when v is
// too short to carry a direction.
func Normalize(v Vec3) Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return Vec3{}
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// FromFloat32 widens a file-format vector, scaling it by s.
func FromFloat32(f [3]float32, s float64) Vec3 {
	return Vec3{float64(f[0]) * s, float64(f[1]) * s, float64(f[2]) * s}
}

// ToFloat32 narrows v for GPU/export buffers.
func ToFloat32(v Vec3) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}
