// Package skeleton resolves a model's bone hierarchy into world and
// skinning matrices. Bones are processed in index order, which the model
// guarantees is parents-first.
package skeleton

import (
	"mmd-pose-renderer/internal/mathutil"
	"mmd-pose-renderer/internal/model"
)

// Skeleton is the mutable working state of one model's bones. Not safe for
// concurrent use.
type Skeleton struct {
	bones []model.Bone

	animTrans []mathutil.Vec3
	animRot   []mathutil.Quat
	ikRot     []mathutil.Quat

	baseRot []mathutil.Quat // inherited · animated, before IK
	rot     []mathutil.Quat // baseRot · ikRot
	trans   []mathutil.Vec3

	World []mathutil.Mat4
	Skin  []mathutil.Mat4
}

// New allocates working state for bones, which must be parents-first.
func New(bones []model.Bone) *Skeleton {
	n := len(bones)
	s := &Skeleton{
		bones:     bones,
		animTrans: make([]mathutil.Vec3, n),
		animRot:   make([]mathutil.Quat, n),
		ikRot:     make([]mathutil.Quat, n),
		baseRot:   make([]mathutil.Quat, n),
		rot:       make([]mathutil.Quat, n),
		trans:     make([]mathutil.Vec3, n),
		World:     make([]mathutil.Mat4, n),
		Skin:      make([]mathutil.Mat4, n),
	}
	s.Reset()
	return s
}

// Len is the number of bones.
func (s *Skeleton) Len() int { return len(s.bones) }

// Reset puts every bone at its bind pose and resolves the bind-pose world
// and skinning matrices.
func (s *Skeleton) Reset() {
	for i := range s.bones {
		s.animTrans[i] = mathutil.Vec3{}
		s.animRot[i] = mathutil.QuatIdent()
		s.ikRot[i] = mathutil.QuatIdent()
	}
	for i := range s.bones {
		s.update(i)
	}
	s.UpdateSkin()
}

// SetLocal sets a bone's animated translation and rotation. IK corrections
// from the previous solve are cleared.
func (s *Skeleton) SetLocal(i int, t mathutil.Vec3, q mathutil.Quat) {
	s.animTrans[i] = t
	s.animRot[i] = q
	s.ikRot[i] = mathutil.QuatIdent()
}

// Animated returns the translation and rotation last given to SetLocal.
func (s *Skeleton) Animated(i int) (mathutil.Vec3, mathutil.Quat) {
	return s.animTrans[i], s.animRot[i]
}

// Local returns the resolved local translation and rotation of bone i,
// including inherit and IK.
func (s *Skeleton) Local(i int) (mathutil.Vec3, mathutil.Quat) {
	return s.trans[i], s.rot[i]
}

// update resolves bone i from its parent's world matrix and its inherit
// parent's resolved transform.
func (s *Skeleton) update(i int) {
	b := &s.bones[i]
	base := s.animRot[i]
	t := s.animTrans[i]
	if in := b.Inherit; in != nil {
		if in.Rotation {
			base = mathutil.Scaled(s.rot[in.Parent], in.Weight).Mul(base)
		}
		if in.Translation {
			t = t.Add(s.trans[in.Parent].Mul(in.Weight))
		}
	}
	s.baseRot[i] = base
	s.rot[i] = base.Mul(s.ikRot[i])
	s.trans[i] = t

	local := mathutil.Compose(b.Offset.Add(t), s.rot[i])
	if b.Parent >= 0 {
		s.World[i] = s.World[b.Parent].Mul4(local)
	} else {
		s.World[i] = local
	}
}

// UpdatePhase resolves every bone whose AfterPhysics flag matches
// afterPhysics, then runs that phase's IK solvers. In the after-physics
// phase, descendants of re-resolved bones are resolved again as well.
func (s *Skeleton) UpdatePhase(afterPhysics bool) {
	dirty := make([]bool, len(s.bones))
	for i := range s.bones {
		b := &s.bones[i]
		if b.AfterPhysics != afterPhysics && !(afterPhysics && s.dependsOnDirty(i, dirty)) {
			continue
		}
		s.update(i)
		dirty[i] = true
	}
	for i := range s.bones {
		b := &s.bones[i]
		if b.IK == nil || b.AfterPhysics != afterPhysics {
			continue
		}
		s.solveIK(i)
	}
}

func (s *Skeleton) dependsOnDirty(i int, dirty []bool) bool {
	b := &s.bones[i]
	if b.Parent >= 0 && dirty[b.Parent] {
		return true
	}
	return b.Inherit != nil && dirty[b.Inherit.Parent]
}

// UpdateSkin computes Skin = World · BindInverse for every bone. A bone at
// its bind pose gets an exact identity.
func (s *Skeleton) UpdateSkin() {
	for i := range s.bones {
		if s.atBind(i) {
			s.Skin[i] = identity
			continue
		}
		s.Skin[i] = s.World[i].Mul4(s.bones[i].BindInverse)
	}
}

// atBind reports whether bone i and all its ancestors are unposed.
func (s *Skeleton) atBind(i int) bool {
	for ; i >= 0; i = s.bones[i].Parent {
		if s.trans[i] != (mathutil.Vec3{}) || s.rot[i] != mathutil.QuatIdent() {
			return false
		}
	}
	return true
}

var identity = mathutil.Translation(mathutil.Vec3{})
