package mathutil

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func nearQuat(a, b Quat) bool { return math.Abs(a.Dot(b)) > 1-1e-12 }

func TestEulerRoundTrip(t *testing.T) {
	tests := []Vec3{
		{0, 0, 0},
		{0.3, -0.2, 0.1},
		{-1.2, 0.7, 2.5},
		{0.5, math.Pi / 2, 0}, // gimbal lock
	}
	for _, e := range tests {
		q := QuatFromEulerXYZ(e)
		back := QuatFromEulerXYZ(EulerXYZ(q))
		if !nearQuat(back, q) {
			t.Errorf("euler %v: %v round trips to %v", e, q, back)
		}
	}
}

func TestSlerpShortestPath(t *testing.T) {
	a := QuatIdent()
	b := mgl64.QuatRotate(math.Pi/2, Vec3{0, 1, 0})
	want := Slerp(a, b, 0.5)
	got := Slerp(a, b.Scale(-1), 0.5)
	if !nearQuat(got, want) {
		t.Fatalf("slerp to -q = %v, want %v", got, want)
	}
}

func TestComposeAndRigidInverse(t *testing.T) {
	m := Compose(Vec3{1, 2, 3}, mgl64.QuatRotate(0.7, Normalize(Vec3{1, 1, 0})))
	p := Vec3{-4, 5, 0.5}
	back := MulPoint(RigidInverse(m), MulPoint(m, p))
	if back.Sub(p).Len() > 1e-12 {
		t.Fatalf("inverse round trip %v, want %v", back, p)
	}
	if got := MulDir(m, Vec3{}); got != (Vec3{}) {
		t.Fatalf("MulDir ignores translation, got %v", got)
	}
	if !IsIdentity(Compose(Vec3{}, QuatIdent())) {
		t.Fatalf("identity compose is not identity")
	}
}

func TestViewRotationMirrorsZ(t *testing.T) {
	r := ViewRotation(0, 0)
	if got := r.Mul3x1(Vec3{1, 2, 3}); got != (Vec3{1, 2, -3}) {
		t.Fatalf("ViewRotation(0,0) = %v", got)
	}
}

func TestNormalizeZero(t *testing.T) {
	if got := Normalize(Vec3{}); got != (Vec3{}) {
		t.Fatalf("Normalize(0) = %v", got)
	}
}
