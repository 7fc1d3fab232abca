// Package poser turns a pose into deformed vertices: it resolves morphs
// and bone transforms, then skins every vertex (linear blend).
package poser

import (
	"errors"
	"fmt"

	"mmd-pose-renderer/internal/mathutil"
	"mmd-pose-renderer/internal/model"
	"mmd-pose-renderer/internal/pose"
	"mmd-pose-renderer/internal/skeleton"
)

var (
	ErrNoVertices   = errors.New("poser: model has no vertices")
	ErrInconsistent = errors.New("poser: pose does not match model")
)

// Poser owns the mutable per-frame state of one model. A frame runs
// ResetPosing, then motion writes into Pose, then PrePhysicsPosing,
// PostPhysicsPosing and Deform. Not safe for concurrent use; give every
// goroutine its own Poser over the shared Model.
type Poser struct {
	model *model.Model
	pose  *pose.Pose
	skel  *skeleton.Skeleton

	morphWeights []float64 // direct weights plus group contributions
	positions    []mathutil.Vec3
	normals      []mathutil.Vec3
	uvs          [][2]float64
	skinIdentity []bool
	image        PoseImage
}

// New creates a poser with its own pose and skeleton state for m.
func New(m *model.Model) *Poser {
	p := &Poser{
		model:        m,
		pose:         pose.New(len(m.Bones), len(m.Morphs)),
		skel:         skeleton.New(m.Bones),
		morphWeights: make([]float64, len(m.Morphs)),
		positions:    make([]mathutil.Vec3, len(m.Vertices)),
		normals:      make([]mathutil.Vec3, len(m.Vertices)),
		uvs:          make([][2]float64, len(m.Vertices)),
		skinIdentity: make([]bool, len(m.Bones)),
		image:        PoseImage{verts: make([]RenderVertex, len(m.Vertices))},
	}
	return p
}

// Model is the shared model the poser deforms.
func (p *Poser) Model() *model.Model { return p.model }

// Pose is the accumulator the motion player writes into.
func (p *Poser) Pose() *pose.Pose { return p.pose }

// SetPose replaces the accumulator. Deform rejects a pose sized for a
// different model.
func (p *Poser) SetPose(ps *pose.Pose) { p.pose = ps }

// Image is the buffer Deform writes.
func (p *Poser) Image() *PoseImage { return &p.image }

// BoneWorld returns bone i's current world matrix.
func (p *Poser) BoneWorld(i int) mathutil.Mat4 { return p.skel.World[i] }

// ResetPosing clears the pose and morph state and resolves the bind pose.
func (p *Poser) ResetPosing() {
	p.pose.Reset()
	clear(p.morphWeights)
	p.skel.Reset()
	p.PrePhysicsPosing()
	p.PostPhysicsPosing()
}

// PrePhysicsPosing resolves morph weights, applies bone morphs to the
// pose's local transforms and resolves world matrices and IK for bones
// evaluated before physics.
func (p *Poser) PrePhysicsPosing() {
	p.resolveMorphWeights()

	for i := range p.model.Bones {
		bt := p.pose.BoneLocal(i)
		p.skel.SetLocal(i, bt.Translation, bt.Rotation)
	}
	for mi := range p.model.Morphs {
		mo := &p.model.Morphs[mi]
		w := p.morphWeights[mi]
		if mo.Kind != model.MorphBone || w == 0 {
			continue
		}
		for _, o := range mo.Bone {
			t, q := p.skel.Animated(o.Bone)
			t = t.Add(o.Translation.Mul(w))
			q = q.Mul(mathutil.Scaled(o.Rotation, w))
			p.skel.SetLocal(o.Bone, t, q)
		}
	}
	p.skel.UpdatePhase(false)
}

// PostPhysicsPosing resolves after-physics bones and their descendants and
// computes the skinning matrices. No physics runs in between, so physics
// bones keep their animated transforms.
func (p *Poser) PostPhysicsPosing() {
	p.skel.UpdatePhase(true)
	p.skel.UpdateSkin()
}

func (p *Poser) resolveMorphWeights() {
	n := min(len(p.morphWeights), p.pose.MorphCount())
	clear(p.morphWeights)
	for i := 0; i < n; i++ {
		p.morphWeights[i] += p.pose.MorphWeight(i)
	}
	for i := 0; i < n; i++ {
		mo := &p.model.Morphs[i]
		w := p.pose.MorphWeight(i)
		if mo.Kind != model.MorphGroup || w == 0 {
			continue
		}
		for _, g := range mo.Group {
			// one level only: nested groups are not expanded
			if p.model.Morphs[g.Morph].Kind == model.MorphGroup {
				continue
			}
			p.morphWeights[g.Morph] += w * g.Weight
		}
	}
}

// MorphWeight is the effective weight of morph i after group expansion,
// 0 for an index outside the model.
func (p *Poser) MorphWeight(i int) float64 {
	if i < 0 || i >= len(p.morphWeights) {
		return 0
	}
	return p.morphWeights[i]
}

func (p *Poser) check() error {
	m := p.model
	if len(m.Vertices) == 0 {
		return ErrNoVertices
	}
	if p.pose.BoneCount() != len(m.Bones) || p.pose.MorphCount() != len(m.Morphs) {
		return fmt.Errorf("%w: pose has %d bones and %d morphs, model has %d and %d",
			ErrInconsistent, p.pose.BoneCount(), p.pose.MorphCount(), len(m.Bones), len(m.Morphs))
	}
	if p.skel.Len() != len(m.Bones) || p.image.Len() != len(m.Vertices) {
		return fmt.Errorf("%w: buffers sized for %d bones and %d vertices, model has %d and %d",
			ErrInconsistent, p.skel.Len(), p.image.Len(), len(m.Bones), len(m.Vertices))
	}
	return nil
}

// Deform applies vertex and UV morphs to the bind mesh, skins it with the
// current skinning matrices and writes the result into Image.
func (p *Poser) Deform() error {
	if err := p.check(); err != nil {
		return err
	}
	m := p.model
	for i := range m.Vertices {
		v := &m.Vertices[i]
		p.positions[i] = v.Position
		p.normals[i] = v.Normal
		p.uvs[i] = v.UV
	}
	for mi := range m.Morphs {
		mo := &m.Morphs[mi]
		w := p.morphWeights[mi]
		if w == 0 {
			continue
		}
		switch mo.Kind {
		case model.MorphVertex:
			for _, o := range mo.Vertex {
				p.positions[o.Vertex] = p.positions[o.Vertex].Add(o.Offset.Mul(w))
			}
		case model.MorphUV:
			for _, o := range mo.UV {
				uv := &p.uvs[o.Vertex]
				uv[0] += o.Offset[0] * w
				uv[1] += o.Offset[1] * w
			}
		}
	}

	skin := p.skel.Skin
	for b := range skin {
		p.skinIdentity[b] = mathutil.IsIdentity(skin[b])
	}
	for i := range m.Vertices {
		v := &m.Vertices[i]
		pos, nrm := p.positions[i], p.normals[i]

		rigid := true
		for k := 0; k < v.Count; k++ {
			if !p.skinIdentity[v.Bones[k]] {
				rigid = false
				break
			}
		}
		if !rigid {
			var sp, sn mathutil.Vec3
			for k := 0; k < v.Count; k++ {
				mat := skin[v.Bones[k]]
				w := v.Weights[k]
				sp = sp.Add(mathutil.MulPoint(mat, pos).Mul(w))
				sn = sn.Add(mathutil.MulDir(mat, nrm).Mul(w))
			}
			pos, nrm = sp, mathutil.Normalize(sn)
		}

		out := &p.image.verts[i]
		out.Pos = mathutil.ToFloat32(pos)
		out.Normal = mathutil.ToFloat32(nrm)
		out.UV = [2]float32{float32(p.uvs[i][0]), float32(p.uvs[i][1])}
	}
	return nil
}
