package skeleton

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"mmd-pose-renderer/internal/mathutil"
)

const (
	ikTolerance = 1e-6
	minIKAngle  = 1e-6
)

// solveIK runs cyclic coordinate descent so that the IK bone's target
// reaches the IK bone's position. Link corrections go into ikRot, so the
// animated rotation stays intact for the next frame.
func (s *Skeleton) solveIK(ikBone int) {
	ik := s.bones[ikBone].IK
	if len(ik.Links) == 0 {
		return
	}
	goal := mathutil.Position(s.World[ikBone])

	first := ik.Target
	for _, l := range ik.Links {
		first = min(first, l.Bone)
	}

	for iter := 0; iter < ik.Loop; iter++ {
		for _, link := range ik.Links {
			if link.Bone == ik.Target {
				continue
			}
			target := mathutil.Position(s.World[ik.Target])
			inv := mathutil.RigidInverse(s.World[link.Bone])
			toTarget := mathutil.Normalize(mathutil.MulPoint(inv, target))
			toGoal := mathutil.Normalize(mathutil.MulPoint(inv, goal))
			if toTarget == (mathutil.Vec3{}) || toGoal == (mathutil.Vec3{}) {
				continue
			}

			angle := math.Acos(mgl64.Clamp(toTarget.Dot(toGoal), -1, 1))
			if angle < minIKAngle {
				continue
			}
			if ik.LimitAngle > 0 {
				angle = min(angle, ik.LimitAngle)
			}
			axis := mathutil.Normalize(toTarget.Cross(toGoal))
			if axis == (mathutil.Vec3{}) {
				continue
			}

			i := link.Bone
			next := s.rot[i].Mul(mgl64.QuatRotate(angle, axis))
			if link.Limited {
				next = clampEuler(next, link.Min, link.Max)
			}
			s.ikRot[i] = s.baseRot[i].Inverse().Mul(next).Normalize()
			s.updateRange(i, max(ik.Target, i))
		}
		if mathutil.Position(s.World[ik.Target]).Sub(goal).Len() < ikTolerance {
			break
		}
	}
	s.updateRange(first, len(s.bones)-1)
}

// updateRange re-resolves bones lo..hi inclusive that belong to the same
// phase as bone lo.
func (s *Skeleton) updateRange(lo, hi int) {
	phase := s.bones[lo].AfterPhysics
	for i := lo; i <= hi; i++ {
		if s.bones[i].AfterPhysics == phase {
			s.update(i)
		}
	}
}

func clampEuler(q mathutil.Quat, lo, hi mathutil.Vec3) mathutil.Quat {
	e := mathutil.EulerXYZ(q)
	for k := 0; k < 3; k++ {
		e[k] = mgl64.Clamp(e[k], min(lo[k], hi[k]), max(lo[k], hi[k]))
	}
	return mathutil.QuatFromEulerXYZ(e)
}
