package motion

import (
	"sort"

	"mmd-pose-renderer/internal/mathutil"
)

// Curve slots of a bone keyframe.
const (
	CurveX = iota
	CurveY
	CurveZ
	CurveRotation
)

// BoneKeyframe is a bone's local transform at Frame. Curves govern the
// segment that ends at this key.
type BoneKeyframe struct {
	Frame       uint32
	Translation mathutil.Vec3
	Rotation    mathutil.Quat
	Curves      [4]Curve
}

// BoneSample is an evaluated bone transform, relative to the bind pose.
type BoneSample struct {
	Translation mathutil.Vec3
	Rotation    mathutil.Quat
}

// IdentitySample is the bind pose.
func IdentitySample() BoneSample {
	return BoneSample{Rotation: mathutil.QuatIdent()}
}

// BoneTrack is a frame-sorted, duplicate-free keyframe list for one bone.
type BoneTrack struct {
	Name string
	Keys []BoneKeyframe
}

// Evaluate returns the track's value at frame. Frames outside the keyed
// range clamp to the nearest key; an empty track is the identity.
func (t *BoneTrack) Evaluate(frame float64) BoneSample {
	n := len(t.Keys)
	switch {
	case n == 0:
		return IdentitySample()
	case frame <= float64(t.Keys[0].Frame):
		return t.Keys[0].sample()
	case frame >= float64(t.Keys[n-1].Frame):
		return t.Keys[n-1].sample()
	}

	// first key strictly after frame
	i := sort.Search(n, func(i int) bool { return float64(t.Keys[i].Frame) > frame })
	k0, k1 := &t.Keys[i-1], &t.Keys[i]
	u := (frame - float64(k0.Frame)) / float64(k1.Frame-k0.Frame)

	var out BoneSample
	for axis := 0; axis < 3; axis++ {
		e := k1.Curves[CurveX+axis].Ease(u)
		out.Translation[axis] = k0.Translation[axis] + (k1.Translation[axis]-k0.Translation[axis])*e
	}
	out.Rotation = mathutil.Slerp(k0.Rotation, k1.Rotation, k1.Curves[CurveRotation].Ease(u))
	return out
}

func (k *BoneKeyframe) sample() BoneSample {
	return BoneSample{Translation: k.Translation, Rotation: k.Rotation}
}

// MorphKeyframe is a morph weight at one frame, interpolated linearly.
type MorphKeyframe struct {
	Frame  uint32
	Weight float64
}

// MorphTrack is a frame-sorted, duplicate-free keyframe list for one morph.
type MorphTrack struct {
	Name string
	Keys []MorphKeyframe
}

// Evaluate interpolates linearly and clamps outside the keyed range. An
// empty track evaluates to zero.
func (t *MorphTrack) Evaluate(frame float64) float64 {
	n := len(t.Keys)
	switch {
	case n == 0:
		return 0
	case frame <= float64(t.Keys[0].Frame):
		return t.Keys[0].Weight
	case frame >= float64(t.Keys[n-1].Frame):
		return t.Keys[n-1].Weight
	}
	i := sort.Search(n, func(i int) bool { return float64(t.Keys[i].Frame) > frame })
	k0, k1 := t.Keys[i-1], t.Keys[i]
	u := (frame - float64(k0.Frame)) / float64(k1.Frame-k0.Frame)
	return k0.Weight + (k1.Weight-k0.Weight)*u
}

// Length is the last keyed frame.
func (t *BoneTrack) Length() uint32 {
	if len(t.Keys) == 0 {
		return 0
	}
	return t.Keys[len(t.Keys)-1].Frame
}

// Length is the frame of the last key.
func (t *MorphTrack) Length() uint32 {
	if len(t.Keys) == 0 {
		return 0
	}
	return t.Keys[len(t.Keys)-1].Frame
}
