package model

import (
	"path/filepath"
	"strings"

	"mmd-pose-renderer/internal/loaderr"
	"mmd-pose-renderer/internal/mathutil"
	"mmd-pose-renderer/internal/pmx"
)

// Options control the PMX conversion.
type Options struct {
	UnitScale float64 // 0 means mathutil.DefaultUnitScale
}

func inconsistent(reason string, args ...any) error {
	return loaderr.New("model", loaderr.KindInconsistent, reason, args...)
}

// Load parses a PMX file and builds a Model whose Dir is the file's
// directory.
func Load(path string, opts Options) (*Model, error) {
	doc, err := pmx.Parse(path)
	if err != nil {
		return nil, err
	}
	m, err := FromPMX(doc, opts)
	if err != nil {
		return nil, loaderr.WithPath(err, path)
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

// FromPMX validates doc and converts it. Positions and offsets are scaled
// by opts.UnitScale. SDEF vertices skin as BDEF2 and QDEF as BDEF4.
func FromPMX(doc *pmx.Document, opts Options) (*Model, error) {
	scale := opts.UnitScale
	if scale == 0 {
		scale = mathutil.DefaultUnitScale
	}
	if err := validate(doc); err != nil {
		return nil, err
	}
	order, err := boneOrder(doc.Bones)
	if err != nil {
		return nil, err
	}
	// remap[file index] = model index
	remap := make([]int, len(order))
	for to, from := range order {
		remap[from] = to
	}
	bone := func(i int32) int {
		if i < 0 {
			return -1
		}
		return remap[i]
	}

	m := &Model{
		Name:    doc.Name,
		Indices: append([]uint32(nil), doc.Indices...),
	}
	m.Bones = buildBones(doc.Bones, order, bone, scale)
	m.Vertices = buildVertices(doc.Vertices, len(doc.Bones), bone, scale)
	m.Morphs = buildMorphs(doc.Morphs, bone, scale)
	m.parts = buildParts(doc)
	m.buildNameIndex()
	return m, nil
}

func validate(doc *pmx.Document) error {
	nv, nb, nm := int32(len(doc.Vertices)), int32(len(doc.Bones)), int32(len(doc.Morphs))
	inRange := func(i, n int32) bool { return i >= -1 && i < n }

	if len(doc.Indices)%3 != 0 {
		return inconsistent("index count %d is not a multiple of 3", len(doc.Indices))
	}
	for i, idx := range doc.Indices {
		if int64(idx) >= int64(nv) {
			return inconsistent("face index %d refers to vertex %d of %d", i, idx, nv)
		}
	}
	for i, v := range doc.Vertices {
		for j := 0; j < pmx.MaxBones(v.Weight); j++ {
			if !inRange(v.Bones[j], nb) {
				return inconsistent("vertex %d refers to bone %d of %d", i, v.Bones[j], nb)
			}
		}
	}

	total := 0
	for i, mat := range doc.Materials {
		total += int(mat.IndexCount)
		if total > len(doc.Indices) {
			return inconsistent("material %d ends at index %d of %d", i, total, len(doc.Indices))
		}
	}

	for i, b := range doc.Bones {
		if !inRange(b.Parent, nb) || b.Parent == int32(i) {
			return inconsistent("bone %d has parent %d", i, b.Parent)
		}
		if b.Flags&(pmx.BoneInheritRotation|pmx.BoneInheritTranslation) != 0 {
			if !inRange(b.InheritParent, nb) || b.InheritParent == int32(i) {
				return inconsistent("bone %d inherits from bone %d", i, b.InheritParent)
			}
		}
		if b.IK != nil {
			if b.IK.Target < 0 || b.IK.Target >= nb {
				return inconsistent("ik bone %d targets bone %d", i, b.IK.Target)
			}
			for _, l := range b.IK.Links {
				if l.Bone < 0 || l.Bone >= nb {
					return inconsistent("ik bone %d links bone %d", i, l.Bone)
				}
			}
		}
	}

	for i, mo := range doc.Morphs {
		for _, o := range mo.Vertex {
			if o.Vertex < 0 || o.Vertex >= nv {
				return inconsistent("morph %d offsets vertex %d of %d", i, o.Vertex, nv)
			}
		}
		for _, o := range mo.UV {
			if o.Vertex < 0 || o.Vertex >= nv {
				return inconsistent("morph %d offsets vertex %d of %d", i, o.Vertex, nv)
			}
		}
		for _, o := range mo.Bone {
			if o.Bone < 0 || o.Bone >= nb {
				return inconsistent("morph %d offsets bone %d of %d", i, o.Bone, nb)
			}
		}
		for _, o := range mo.Group {
			if o.Morph < 0 || o.Morph >= nm {
				return inconsistent("morph %d groups morph %d of %d", i, o.Morph, nm)
			}
		}
	}
	return nil
}

func buildBones(src []pmx.Bone, order []int, bone func(int32) int, scale float64) []Bone {
	bones := make([]Bone, len(order))
	for to, from := range order {
		b := &src[from]
		out := &bones[to]
		*out = Bone{
			Name:         b.Name,
			NameEn:       b.NameEn,
			SourceIndex:  from,
			Parent:       bone(b.Parent),
			Position:     mathutil.FromFloat32(b.Position, scale),
			Layer:        int(b.Layer),
			AfterPhysics: b.Flags&pmx.BoneAfterPhysics != 0,
		}
		out.Offset = out.Position
		if out.Parent >= 0 {
			out.Offset = out.Position.Sub(bones[out.Parent].Position)
		}
		out.BindInverse = mathutil.Translation(out.Position.Mul(-1))

		if b.Flags&(pmx.BoneInheritRotation|pmx.BoneInheritTranslation) != 0 && b.InheritParent >= 0 {
			out.Inherit = &Inherit{
				Parent:      bone(b.InheritParent),
				Weight:      float64(b.InheritWeight),
				Rotation:    b.Flags&pmx.BoneInheritRotation != 0,
				Translation: b.Flags&pmx.BoneInheritTranslation != 0,
			}
		}
		if b.IK != nil {
			ik := &IK{
				Target:     bone(b.IK.Target),
				Loop:       int(b.IK.Loop),
				LimitAngle: float64(b.IK.LimitAngle),
				Links:      make([]IKLink, len(b.IK.Links)),
			}
			for j, l := range b.IK.Links {
				ik.Links[j] = IKLink{
					Bone:    bone(l.Bone),
					Limited: l.Limited,
					Min:     mathutil.FromFloat32(l.Min, 1),
					Max:     mathutil.FromFloat32(l.Max, 1),
				}
			}
			out.IK = ik
		}
	}
	return bones
}

// buildVertices keeps only influences with a bone and a positive weight and
// renormalizes them. A vertex left with none follows its first listed
// bone, or the first bone of the model.
func buildVertices(src []pmx.Vertex, numBones int, bone func(int32) int, scale float64) []Vertex {
	out := make([]Vertex, len(src))
	for i := range src {
		v := &src[i]
		dst := &out[i]
		dst.Position = mathutil.FromFloat32(v.Position, scale)
		dst.Normal = mathutil.Normalize(mathutil.FromFloat32(v.Normal, 1))
		dst.UV = [2]float64{float64(v.UV[0]), float64(v.UV[1])}

		sum := 0.0
		for j := 0; j < pmx.MaxBones(v.Weight); j++ {
			w := float64(v.Weights[j])
			if v.Bones[j] < 0 || w <= 0 {
				continue
			}
			b := bone(v.Bones[j])
			merged := false
			for k := 0; k < dst.Count; k++ {
				if dst.Bones[k] == b {
					dst.Weights[k] += w
					merged = true
				}
			}
			if !merged {
				dst.Bones[dst.Count] = b
				dst.Weights[dst.Count] = w
				dst.Count++
			}
			sum += w
		}
		if dst.Count == 0 {
			b := bone(v.Bones[0])
			if b < 0 && numBones > 0 {
				b = 0
			}
			if b >= 0 {
				dst.Bones[0], dst.Weights[0], dst.Count = b, 1, 1
			}
			continue
		}
		for k := 0; k < dst.Count; k++ {
			dst.Weights[k] /= sum
		}
	}
	return out
}

func buildMorphs(src []pmx.Morph, bone func(int32) int, scale float64) []Morph {
	out := make([]Morph, len(src))
	for i := range src {
		mo := &src[i]
		dst := &out[i]
		dst.Name = mo.Name
		dst.NameEn = mo.NameEn
		dst.Panel = int(mo.Panel)
		switch mo.Kind {
		case pmx.MorphGroup:
			dst.Kind = MorphGroup
		case pmx.MorphVertex:
			dst.Kind = MorphVertex
		case pmx.MorphBone:
			dst.Kind = MorphBone
		case pmx.MorphUV:
			dst.Kind = MorphUV
		case pmx.MorphUV1, pmx.MorphUV2, pmx.MorphUV3, pmx.MorphUV4:
			dst.Kind = MorphExtraUV
		case pmx.MorphMaterial:
			dst.Kind = MorphMaterial
		case pmx.MorphFlip:
			dst.Kind = MorphFlip
		case pmx.MorphImpulse:
			dst.Kind = MorphImpulse
		}

		switch dst.Kind {
		case MorphGroup:
			dst.Group = make([]GroupMember, len(mo.Group))
			for j, g := range mo.Group {
				dst.Group[j] = GroupMember{Morph: int(g.Morph), Weight: float64(g.Weight)}
			}
		case MorphVertex:
			dst.Vertex = make([]VertexOffset, len(mo.Vertex))
			for j, o := range mo.Vertex {
				dst.Vertex[j] = VertexOffset{Vertex: int(o.Vertex), Offset: mathutil.FromFloat32(o.Offset, scale)}
			}
		case MorphUV:
			dst.UV = make([]UVOffset, len(mo.UV))
			for j, o := range mo.UV {
				dst.UV[j] = UVOffset{Vertex: int(o.Vertex), Offset: [2]float64{float64(o.Offset[0]), float64(o.Offset[1])}}
			}
		case MorphBone:
			dst.Bone = make([]BoneOffset, len(mo.Bone))
			for j, o := range mo.Bone {
				q := mathutil.QuatFromXYZW(float64(o.Rotation[0]), float64(o.Rotation[1]),
					float64(o.Rotation[2]), float64(o.Rotation[3]))
				if q.Len() < 1e-9 {
					q = mathutil.QuatIdent()
				}
				dst.Bone[j] = BoneOffset{
					Bone:        bone(o.Bone),
					Translation: mathutil.FromFloat32(o.Translation, scale),
					Rotation:    q.Normalize(),
				}
			}
		}
	}
	return out
}

func buildParts(doc *pmx.Document) []Part {
	parts := make([]Part, len(doc.Materials))
	start := 0
	for i, mat := range doc.Materials {
		p := Part{
			Name:        mat.Name,
			Start:       start,
			Count:       int(mat.IndexCount),
			Diffuse:     mat.Diffuse,
			DoubleSided: mat.Flags&pmx.MaterialDoubleSided != 0,
		}
		if mat.Texture >= 0 && int(mat.Texture) < len(doc.Textures) {
			p.Texture = normalizeTexturePath(doc.Textures[mat.Texture])
		}
		parts[i] = p
		start += p.Count
	}
	return parts
}

// normalizeTexturePath turns the Windows separators PMX files use into
// slash form.
func normalizeTexturePath(p string) string {
	return filepath.ToSlash(strings.ReplaceAll(p, `\`, "/"))
}
