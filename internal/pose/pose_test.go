package pose

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"mmd-pose-renderer/internal/mathutil"
)

func TestResetRestoresIdentity(t *testing.T) {
	p := New(2, 2)
	p.SetBoneLocal(1, BoneTransform{
		Translation: mathutil.Vec3{1, 2, 3},
		Rotation:    mgl64.QuatRotate(1, mathutil.Vec3{0, 1, 0}),
	})
	p.SetMorphWeight(0, 0.5)
	p.Reset()
	if p.BoneLocal(1) != Identity() || p.MorphWeight(0) != 0 {
		t.Fatalf("after reset: %+v %g", p.BoneLocal(1), p.MorphWeight(0))
	}
}

func TestMorphWeightClamps(t *testing.T) {
	p := New(0, 1)
	for _, tc := range []struct{ in, want float64 }{{-0.5, 0}, {0.25, 0.25}, {3, 1}} {
		p.SetMorphWeight(0, tc.in)
		if got := p.MorphWeight(0); got != tc.want {
			t.Fatalf("SetMorphWeight(%g) stored %g", tc.in, got)
		}
	}
}

func TestOutOfRangeIgnored(t *testing.T) {
	p := New(1, 1)
	p.SetBoneLocal(5, BoneTransform{Translation: mathutil.Vec3{1, 0, 0}})
	p.SetMorphWeight(-1, 1)
	if p.BoneLocal(0) != Identity() || p.MorphWeight(0) != 0 {
		t.Fatalf("out-of-range write leaked")
	}
	if p.BoneLocal(9) != Identity() || p.MorphWeight(9) != 0 {
		t.Fatalf("out-of-range read not neutral")
	}
}
