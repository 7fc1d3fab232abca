// Package pose holds the per-frame local pose: one transform per bone and
// one weight per morph, relative to the bind pose.
package pose

import "mmd-pose-renderer/internal/mathutil"

// BoneTransform is a bone's animated translation and rotation on top of
// its bind offset.
type BoneTransform struct {
	Translation mathutil.Vec3
	Rotation    mathutil.Quat
}

// Identity leaves a bone at its bind pose.
func Identity() BoneTransform {
	return BoneTransform{Rotation: mathutil.QuatIdent()}
}

// Pose is sized for one model. Mutators ignore out-of-range indices.
type Pose struct {
	bones  []BoneTransform
	morphs []float64
}

// New returns a pose at identity for a model with the given counts.
func New(boneCount, morphCount int) *Pose {
	p := &Pose{
		bones:  make([]BoneTransform, boneCount),
		morphs: make([]float64, morphCount),
	}
	p.Reset()
	return p
}

// Reset returns every bone to identity and every morph weight to zero.
func (p *Pose) Reset() {
	for i := range p.bones {
		p.bones[i] = Identity()
	}
	clear(p.morphs)
}

// BoneCount and MorphCount report the sizes the pose was built for.
func (p *Pose) BoneCount() int  { return len(p.bones) }
func (p *Pose) MorphCount() int { return len(p.morphs) }

// SetBoneLocal stores bone's animated transform relative to its bind offset.
func (p *Pose) SetBoneLocal(bone int, t BoneTransform) {
	if bone < 0 || bone >= len(p.bones) {
		return
	}
	p.bones[bone] = t
}

// SetMorphWeight stores weight clamped to [0,1].
func (p *Pose) SetMorphWeight(morph int, weight float64) {
	if morph < 0 || morph >= len(p.morphs) {
		return
	}
	p.morphs[morph] = min(max(weight, 0), 1)
}

// BoneLocal returns bone's transform, identity when out of range.
func (p *Pose) BoneLocal(bone int) BoneTransform {
	if bone < 0 || bone >= len(p.bones) {
		return Identity()
	}
	return p.bones[bone]
}

// MorphWeight returns morph's weight, 0 when out of range.
func (p *Pose) MorphWeight(morph int) float64 {
	if morph < 0 || morph >= len(p.morphs) {
		return 0
	}
	return p.morphs[morph]
}
