package pmx

import (
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"mmd-pose-renderer/internal/binio"
	"mmd-pose-renderer/internal/loaderr"
)

var magic = [4]byte{'P', 'M', 'X', ' '}

// Parse reads and decodes the PMX file at path.
func Parse(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &loaderr.Error{Format: "pmx", Path: path, Kind: loaderr.KindIO, Err: err}
	}
	doc, err := Decode(raw)
	if err != nil {
		return nil, loaderr.WithPath(err, path)
	}
	return doc, nil
}

// Decode decodes an in-memory PMX file. Version 2.0 and 2.1 are accepted.
func Decode(data []byte) (*Document, error) {
	p := &parser{r: binio.NewReader(data)}
	return p.parse()
}

type parser struct {
	r    *binio.Reader
	h    Header
	text *encoding.Decoder
}

func malformed(reason string, args ...any) error {
	return loaderr.New("pmx", loaderr.KindMalformed, reason, args...)
}

func truncated(section string) error {
	return loaderr.New("pmx", loaderr.KindTruncated, "file ends inside %s", section)
}

func (p *parser) parse() (*Document, error) {
	if err := p.header(); err != nil {
		return nil, err
	}
	doc := &Document{Header: p.h}

	var err error
	if doc.Name, err = p.textField("model name"); err != nil {
		return nil, err
	}
	if doc.NameEn, err = p.textField("model name"); err != nil {
		return nil, err
	}
	if doc.Comment, err = p.textField("comment"); err != nil {
		return nil, err
	}
	if doc.CommentEn, err = p.textField("comment"); err != nil {
		return nil, err
	}

	steps := []func(*Document) error{
		p.vertices,
		p.faces,
		p.textures,
		p.materials,
		p.bones,
		p.morphs,
	}
	for _, step := range steps {
		if err := step(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (p *parser) header() error {
	r := p.r
	m := r.Bytes(4)
	if r.Short() {
		return truncated("header")
	}
	if [4]byte(m) != magic {
		return malformed("bad magic %q", m)
	}
	p.h.Version = r.F32()
	if r.Short() {
		return truncated("header")
	}
	if p.h.Version != 2.0 && p.h.Version != 2.1 {
		return loaderr.New("pmx", loaderr.KindUnsupportedVersion, "version %g", p.h.Version)
	}

	n := int(r.U8())
	globals := r.Bytes(n)
	if r.Short() {
		return truncated("header")
	}
	if n < 8 {
		return malformed("header declares %d globals, need 8", n)
	}
	p.h.Encoding = globals[0]
	p.h.AdditionalUVs = int(globals[1])
	p.h.VertexIndexSize = globals[2]
	p.h.TextureIndexSize = globals[3]
	p.h.MaterialIndexSize = globals[4]
	p.h.BoneIndexSize = globals[5]
	p.h.MorphIndexSize = globals[6]
	p.h.RigidBodyIndexSize = globals[7]

	switch p.h.Encoding {
	case EncodingUTF16:
		p.text = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	case EncodingUTF8:
		p.text = unicode.UTF8.NewDecoder()
	default:
		return malformed("text encoding %d", p.h.Encoding)
	}
	if p.h.AdditionalUVs > 4 {
		return malformed("%d additional UVs, max 4", p.h.AdditionalUVs)
	}
	sizes := map[string]uint8{
		"vertex":     p.h.VertexIndexSize,
		"texture":    p.h.TextureIndexSize,
		"material":   p.h.MaterialIndexSize,
		"bone":       p.h.BoneIndexSize,
		"morph":      p.h.MorphIndexSize,
		"rigid body": p.h.RigidBodyIndexSize,
	}
	for what, s := range sizes {
		if s != 1 && s != 2 && s != 4 {
			return malformed("%s index size %d", what, s)
		}
	}
	return nil
}

func (p *parser) textField(section string) (string, error) {
	n := p.r.I32()
	if p.r.Short() {
		return "", truncated(section)
	}
	if n < 0 {
		return "", malformed("negative text length %d in %s", n, section)
	}
	b := p.r.Bytes(int(n))
	if p.r.Short() {
		return "", truncated(section)
	}
	out, err := p.text.Bytes(b)
	if err != nil {
		return "", malformed("text in %s: %v", section, err)
	}
	return string(out), nil
}

// count reads an i32 record count and rejects counts that cannot fit in
// the remaining data given the smallest possible record size.
func (p *parser) count(section string, minRecord int) (int, error) {
	n := p.r.I32()
	if p.r.Short() {
		return 0, truncated(section)
	}
	if n < 0 {
		return 0, malformed("negative %s count %d", section, n)
	}
	if int64(n)*int64(minRecord) > int64(p.r.Remaining()) {
		return 0, truncated(section)
	}
	return int(n), nil
}

// index reads a signed index of the given width; -1 means none.
func (p *parser) index(size uint8) int32 {
	switch size {
	case 1:
		return int32(p.r.I8())
	case 2:
		return int32(p.r.I16())
	}
	return p.r.I32()
}

// vertexIndex widths 1 and 2 are unsigned, 4 is signed.
func (p *parser) vertexIndex() int32 {
	switch p.h.VertexIndexSize {
	case 1:
		return int32(p.r.U8())
	case 2:
		return int32(p.r.U16())
	}
	return p.r.I32()
}

func (p *parser) vertices(doc *Document) error {
	minRecord := 4*(3+3+2+4*p.h.AdditionalUVs) + 1 + int(p.h.BoneIndexSize) + 4
	n, err := p.count("vertices", minRecord)
	if err != nil {
		return err
	}
	r := p.r
	bi := p.h.BoneIndexSize
	doc.Vertices = make([]Vertex, n)
	for i := range doc.Vertices {
		v := &doc.Vertices[i]
		v.Position = r.Vec3()
		v.Normal = r.Vec3()
		v.UV = r.Vec2()
		if p.h.AdditionalUVs > 0 {
			v.ExtraUVs = make([][4]float32, p.h.AdditionalUVs)
			for j := range v.ExtraUVs {
				v.ExtraUVs[j] = r.Vec4()
			}
		}
		v.Bones = [4]int32{-1, -1, -1, -1}
		v.Weight = WeightType(r.U8())
		switch v.Weight {
		case BDEF1:
			v.Bones[0] = p.index(bi)
			v.Weights[0] = 1
		case BDEF2:
			v.Bones[0] = p.index(bi)
			v.Bones[1] = p.index(bi)
			v.Weights[0] = r.F32()
			v.Weights[1] = 1 - v.Weights[0]
		case BDEF4, QDEF:
			for j := 0; j < 4; j++ {
				v.Bones[j] = p.index(bi)
			}
			for j := 0; j < 4; j++ {
				v.Weights[j] = r.F32()
			}
		case SDEF:
			v.Bones[0] = p.index(bi)
			v.Bones[1] = p.index(bi)
			v.Weights[0] = r.F32()
			v.Weights[1] = 1 - v.Weights[0]
			v.SDEFC = r.Vec3()
			v.SDEFR0 = r.Vec3()
			v.SDEFR1 = r.Vec3()
		default:
			if r.Short() {
				return truncated("vertices")
			}
			return malformed("vertex %d has weight type %d", i, v.Weight)
		}
		v.EdgeScale = r.F32()
		if r.Short() {
			return truncated("vertices")
		}
	}
	return nil
}

func (p *parser) faces(doc *Document) error {
	n, err := p.count("faces", int(p.h.VertexIndexSize))
	if err != nil {
		return err
	}
	if n%3 != 0 {
		return malformed("face index count %d is not a multiple of 3", n)
	}
	doc.Indices = make([]uint32, n)
	for i := range doc.Indices {
		idx := p.vertexIndex()
		if idx < 0 {
			return malformed("negative vertex index %d in faces", idx)
		}
		doc.Indices[i] = uint32(idx)
	}
	if p.r.Short() {
		return truncated("faces")
	}
	return nil
}

func (p *parser) textures(doc *Document) error {
	n, err := p.count("textures", 4)
	if err != nil {
		return err
	}
	doc.Textures = make([]string, n)
	for i := range doc.Textures {
		if doc.Textures[i], err = p.textField("textures"); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) materials(doc *Document) error {
	n, err := p.count("materials", 8+4*16+1+2*int(p.h.TextureIndexSize)+3+4+4)
	if err != nil {
		return err
	}
	r := p.r
	ti := p.h.TextureIndexSize
	doc.Materials = make([]Material, n)
	for i := range doc.Materials {
		m := &doc.Materials[i]
		if m.Name, err = p.textField("materials"); err != nil {
			return err
		}
		if m.NameEn, err = p.textField("materials"); err != nil {
			return err
		}
		m.Diffuse = r.Vec4()
		m.Specular = r.Vec3()
		m.Specularity = r.F32()
		m.Ambient = r.Vec3()
		m.Flags = r.U8()
		m.EdgeColor = r.Vec4()
		m.EdgeSize = r.F32()
		m.Texture = p.index(ti)
		m.Sphere = p.index(ti)
		m.SphereMode = r.U8()
		m.SharedToon = r.U8() != 0
		if m.SharedToon {
			m.Toon = int32(r.U8())
		} else {
			m.Toon = p.index(ti)
		}
		if m.Memo, err = p.textField("materials"); err != nil {
			return err
		}
		m.IndexCount = r.I32()
		if r.Short() {
			return truncated("materials")
		}
		if m.IndexCount < 0 || m.IndexCount%3 != 0 {
			return malformed("material %d covers %d indices", i, m.IndexCount)
		}
	}
	return nil
}

func (p *parser) bones(doc *Document) error {
	bi := p.h.BoneIndexSize
	n, err := p.count("bones", 8+12+int(bi)+4+2+int(bi))
	if err != nil {
		return err
	}
	r := p.r
	doc.Bones = make([]Bone, n)
	for i := range doc.Bones {
		b := &doc.Bones[i]
		if b.Name, err = p.textField("bones"); err != nil {
			return err
		}
		if b.NameEn, err = p.textField("bones"); err != nil {
			return err
		}
		b.Position = r.Vec3()
		b.Parent = p.index(bi)
		b.Layer = r.I32()
		b.Flags = r.U16()
		b.TailBone = -1
		b.InheritParent = -1
		b.ExternalKey = -1

		if b.Flags&BoneTailIsBone != 0 {
			b.TailBone = p.index(bi)
		} else {
			b.TailOffset = r.Vec3()
		}
		if b.Flags&(BoneInheritRotation|BoneInheritTranslation) != 0 {
			b.InheritParent = p.index(bi)
			b.InheritWeight = r.F32()
		}
		if b.Flags&BoneFixedAxis != 0 {
			b.FixedAxis = r.Vec3()
		}
		if b.Flags&BoneLocalAxis != 0 {
			b.LocalX = r.Vec3()
			b.LocalZ = r.Vec3()
		}
		if b.Flags&BoneExternalParent != 0 {
			b.ExternalKey = r.I32()
		}
		if b.Flags&BoneIK != 0 {
			ik := &IK{
				Target:     p.index(bi),
				Loop:       r.I32(),
				LimitAngle: r.F32(),
			}
			links, err := p.count("bones", int(bi)+1)
			if err != nil {
				return err
			}
			ik.Links = make([]IKLink, links)
			for j := range ik.Links {
				l := &ik.Links[j]
				l.Bone = p.index(bi)
				l.Limited = r.U8() != 0
				if l.Limited {
					l.Min = r.Vec3()
					l.Max = r.Vec3()
				}
			}
			b.IK = ik
		}
		if r.Short() {
			return truncated("bones")
		}
	}
	return nil
}

func (p *parser) morphs(doc *Document) error {
	n, err := p.count("morphs", 8+1+1+4)
	if err != nil {
		return err
	}
	r := p.r
	h := p.h
	doc.Morphs = make([]Morph, n)
	for i := range doc.Morphs {
		m := &doc.Morphs[i]
		if m.Name, err = p.textField("morphs"); err != nil {
			return err
		}
		if m.NameEn, err = p.textField("morphs"); err != nil {
			return err
		}
		m.Panel = r.U8()
		m.Kind = MorphKind(r.U8())

		var size int
		switch m.Kind {
		case MorphGroup, MorphFlip:
			size = int(h.MorphIndexSize) + 4
		case MorphVertex:
			size = int(h.VertexIndexSize) + 12
		case MorphBone:
			size = int(h.BoneIndexSize) + 28
		case MorphUV, MorphUV1, MorphUV2, MorphUV3, MorphUV4:
			size = int(h.VertexIndexSize) + 16
		case MorphMaterial:
			size = int(h.MaterialIndexSize) + 1 + 4*28
		case MorphImpulse:
			size = int(h.RigidBodyIndexSize) + 1 + 24
		default:
			if r.Short() {
				return truncated("morphs")
			}
			return malformed("morph %d has type %d", i, m.Kind)
		}
		count, err := p.count("morphs", size)
		if err != nil {
			return err
		}

		switch m.Kind {
		case MorphGroup, MorphFlip:
			m.Group = make([]GroupOffset, count)
			for j := range m.Group {
				m.Group[j] = GroupOffset{Morph: p.index(h.MorphIndexSize), Weight: r.F32()}
			}
		case MorphVertex:
			m.Vertex = make([]VertexOffset, count)
			for j := range m.Vertex {
				m.Vertex[j] = VertexOffset{Vertex: p.vertexIndex(), Offset: r.Vec3()}
			}
		case MorphBone:
			m.Bone = make([]BoneOffset, count)
			for j := range m.Bone {
				m.Bone[j] = BoneOffset{Bone: p.index(h.BoneIndexSize), Translation: r.Vec3(), Rotation: r.Vec4()}
			}
		case MorphUV, MorphUV1, MorphUV2, MorphUV3, MorphUV4:
			m.UV = make([]UVOffset, count)
			for j := range m.UV {
				m.UV[j] = UVOffset{Vertex: p.vertexIndex(), Offset: r.Vec4()}
			}
		case MorphMaterial:
			m.Material = make([]MaterialOffset, count)
			for j := range m.Material {
				m.Material[j] = MaterialOffset{
					Material:    p.index(h.MaterialIndexSize),
					Op:          r.U8(),
					Diffuse:     r.Vec4(),
					Specular:    r.Vec3(),
					Specularity: r.F32(),
					Ambient:     r.Vec3(),
					EdgeColor:   r.Vec4(),
					EdgeSize:    r.F32(),
					TextureTint: r.Vec4(),
					SphereTint:  r.Vec4(),
					ToonTint:    r.Vec4(),
				}
			}
		case MorphImpulse:
			m.Impulse = make([]ImpulseOffset, count)
			for j := range m.Impulse {
				m.Impulse[j] = ImpulseOffset{
					RigidBody: p.index(h.RigidBodyIndexSize),
					Local:     r.U8(),
					Velocity:  r.Vec3(),
					Torque:    r.Vec3(),
				}
			}
		}
		if r.Short() {
			return truncated("morphs")
		}
	}
	return nil
}
