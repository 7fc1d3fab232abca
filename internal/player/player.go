// Package player binds a Motion's tracks to a model's bones and morphs and
// writes evaluated samples into a Poser's pose.
package player

import (
	"mmd-pose-renderer/internal/motion"
	"mmd-pose-renderer/internal/pose"
	"mmd-pose-renderer/internal/poser"
)

type boneBinding struct {
	track *motion.BoneTrack
	bone  int
}

type morphBinding struct {
	track *motion.MorphTrack
	morph int
}

// Player is bound to one (Motion, Poser) pair. Not safe for concurrent use.
type Player struct {
	motion *motion.Motion
	poser  *poser.Poser

	bones   []boneBinding
	morphs  []morphBinding
	unbound []string

	frame        float64
	cached       bool
	boneSamples  []motion.BoneSample
	morphSamples []float64
}

// New binds every track whose name matches a bone or morph of the poser's
// model. Tracks without a target are reported by Unbound.
func New(m *motion.Motion, p *poser.Poser) *Player {
	pl := &Player{motion: m, poser: p}
	mdl := p.Model()
	for _, t := range m.Bones {
		if i, ok := mdl.BoneIndex(t.Name); ok {
			pl.bones = append(pl.bones, boneBinding{track: t, bone: i})
		} else {
			pl.unbound = append(pl.unbound, t.Name)
		}
	}
	for _, t := range m.Morphs {
		if i, ok := mdl.MorphIndex(t.Name); ok {
			pl.morphs = append(pl.morphs, morphBinding{track: t, morph: i})
		} else {
			pl.unbound = append(pl.unbound, t.Name)
		}
	}
	pl.boneSamples = make([]motion.BoneSample, len(pl.bones))
	pl.morphSamples = make([]float64, len(pl.morphs))
	return pl
}

// Motion and Poser are the pair the player was bound to.
func (pl *Player) Motion() *motion.Motion { return pl.motion }
func (pl *Player) Poser() *poser.Poser    { return pl.poser }

// Unbound lists track names that matched no bone or morph.
func (pl *Player) Unbound() []string { return pl.unbound }

// BoundCount is the number of tracks driving the model.
func (pl *Player) BoundCount() int { return len(pl.bones) + len(pl.morphs) }

// SeekFrame evaluates every bound track at frame and writes the samples
// into the poser's pose. Bones and morphs without a track are not touched.
// Seeking the previous frame again reuses the evaluated samples.
func (pl *Player) SeekFrame(frame float64) {
	if frame < 0 {
		frame = 0
	}
	if !pl.cached || frame != pl.frame {
		for i, b := range pl.bones {
			pl.boneSamples[i] = b.track.Evaluate(frame)
		}
		for i, m := range pl.morphs {
			pl.morphSamples[i] = m.track.Evaluate(frame)
		}
		pl.frame = frame
		pl.cached = true
	}

	ps := pl.poser.Pose()
	for i, b := range pl.bones {
		s := pl.boneSamples[i]
		ps.SetBoneLocal(b.bone, pose.BoneTransform{Translation: s.Translation, Rotation: s.Rotation})
	}
	for i, m := range pl.morphs {
		ps.SetMorphWeight(m.morph, pl.morphSamples[i])
	}
}

// Frame is the last sought frame.
func (pl *Player) Frame() float64 { return pl.frame }
