package pmx

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"mmd-pose-renderer/internal/binio"
)

// Encode serializes doc using the sizes and encoding in doc.Header.
// A zero index size is written as 4.
func Encode(doc *Document) ([]byte, error) {
	h := doc.Header
	if h.Version == 0 {
		h.Version = 2.0
	}
	for _, s := range []*uint8{&h.VertexIndexSize, &h.TextureIndexSize, &h.MaterialIndexSize,
		&h.BoneIndexSize, &h.MorphIndexSize, &h.RigidBodyIndexSize} {
		if *s == 0 {
			*s = 4
		}
	}
	e := &encoder{h: h}
	if h.Encoding == EncodingUTF8 {
		e.text = unicode.UTF8.NewEncoder()
	} else {
		e.text = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	}
	if err := e.encode(doc); err != nil {
		return nil, err
	}
	return e.w.Bytes(), nil
}

type encoder struct {
	w    binio.Writer
	h    Header
	text *encoding.Encoder
}

func (e *encoder) str(s string) error {
	b, err := e.text.Bytes([]byte(s))
	if err != nil {
		return err
	}
	e.w.I32(int32(len(b)))
	e.w.Raw(b)
	return nil
}

func (e *encoder) index(size uint8, v int32) {
	switch size {
	case 1:
		e.w.I8(int8(v))
	case 2:
		e.w.I16(int16(v))
	default:
		e.w.I32(v)
	}
}

func (e *encoder) vertexIndex(v int32) {
	switch e.h.VertexIndexSize {
	case 1:
		e.w.U8(uint8(v))
	case 2:
		e.w.U16(uint16(v))
	default:
		e.w.I32(v)
	}
}

func (e *encoder) encode(doc *Document) error {
	w := &e.w
	h := e.h
	w.Raw(magic[:])
	w.F32(h.Version)
	w.U8(8)
	w.Raw([]byte{h.Encoding, uint8(h.AdditionalUVs), h.VertexIndexSize, h.TextureIndexSize,
		h.MaterialIndexSize, h.BoneIndexSize, h.MorphIndexSize, h.RigidBodyIndexSize})
	for _, s := range []string{doc.Name, doc.NameEn, doc.Comment, doc.CommentEn} {
		if err := e.str(s); err != nil {
			return err
		}
	}

	w.I32(int32(len(doc.Vertices)))
	for _, v := range doc.Vertices {
		w.Vec3(v.Position)
		w.Vec3(v.Normal)
		w.Vec2(v.UV)
		for j := 0; j < h.AdditionalUVs; j++ {
			var uv [4]float32
			if j < len(v.ExtraUVs) {
				uv = v.ExtraUVs[j]
			}
			w.Vec4(uv)
		}
		w.U8(uint8(v.Weight))
		switch v.Weight {
		case BDEF1:
			e.index(h.BoneIndexSize, v.Bones[0])
		case BDEF2:
			e.index(h.BoneIndexSize, v.Bones[0])
			e.index(h.BoneIndexSize, v.Bones[1])
			w.F32(v.Weights[0])
		case BDEF4, QDEF:
			for j := 0; j < 4; j++ {
				e.index(h.BoneIndexSize, v.Bones[j])
			}
			for j := 0; j < 4; j++ {
				w.F32(v.Weights[j])
			}
		case SDEF:
			e.index(h.BoneIndexSize, v.Bones[0])
			e.index(h.BoneIndexSize, v.Bones[1])
			w.F32(v.Weights[0])
			w.Vec3(v.SDEFC)
			w.Vec3(v.SDEFR0)
			w.Vec3(v.SDEFR1)
		}
		w.F32(v.EdgeScale)
	}

	w.I32(int32(len(doc.Indices)))
	for _, idx := range doc.Indices {
		e.vertexIndex(int32(idx))
	}

	w.I32(int32(len(doc.Textures)))
	for _, t := range doc.Textures {
		if err := e.str(t); err != nil {
			return err
		}
	}

	w.I32(int32(len(doc.Materials)))
	for _, m := range doc.Materials {
		if err := e.str(m.Name); err != nil {
			return err
		}
		if err := e.str(m.NameEn); err != nil {
			return err
		}
		w.Vec4(m.Diffuse)
		w.Vec3(m.Specular)
		w.F32(m.Specularity)
		w.Vec3(m.Ambient)
		w.U8(m.Flags)
		w.Vec4(m.EdgeColor)
		w.F32(m.EdgeSize)
		e.index(h.TextureIndexSize, m.Texture)
		e.index(h.TextureIndexSize, m.Sphere)
		w.U8(m.SphereMode)
		if m.SharedToon {
			w.U8(1)
			w.U8(uint8(m.Toon))
		} else {
			w.U8(0)
			e.index(h.TextureIndexSize, m.Toon)
		}
		if err := e.str(m.Memo); err != nil {
			return err
		}
		w.I32(m.IndexCount)
	}

	w.I32(int32(len(doc.Bones)))
	for _, b := range doc.Bones {
		if err := e.str(b.Name); err != nil {
			return err
		}
		if err := e.str(b.NameEn); err != nil {
			return err
		}
		flags := b.Flags
		if b.IK != nil {
			flags |= BoneIK
		} else {
			flags &^= BoneIK
		}
		w.Vec3(b.Position)
		e.index(h.BoneIndexSize, b.Parent)
		w.I32(b.Layer)
		w.U16(flags)
		if flags&BoneTailIsBone != 0 {
			e.index(h.BoneIndexSize, b.TailBone)
		} else {
			w.Vec3(b.TailOffset)
		}
		if flags&(BoneInheritRotation|BoneInheritTranslation) != 0 {
			e.index(h.BoneIndexSize, b.InheritParent)
			w.F32(b.InheritWeight)
		}
		if flags&BoneFixedAxis != 0 {
			w.Vec3(b.FixedAxis)
		}
		if flags&BoneLocalAxis != 0 {
			w.Vec3(b.LocalX)
			w.Vec3(b.LocalZ)
		}
		if flags&BoneExternalParent != 0 {
			w.I32(b.ExternalKey)
		}
		if b.IK != nil {
			e.index(h.BoneIndexSize, b.IK.Target)
			w.I32(b.IK.Loop)
			w.F32(b.IK.LimitAngle)
			w.I32(int32(len(b.IK.Links)))
			for _, l := range b.IK.Links {
				e.index(h.BoneIndexSize, l.Bone)
				if l.Limited {
					w.U8(1)
					w.Vec3(l.Min)
					w.Vec3(l.Max)
				} else {
					w.U8(0)
				}
			}
		}
	}

	w.I32(int32(len(doc.Morphs)))
	for _, m := range doc.Morphs {
		if err := e.str(m.Name); err != nil {
			return err
		}
		if err := e.str(m.NameEn); err != nil {
			return err
		}
		w.U8(m.Panel)
		w.U8(uint8(m.Kind))
		switch m.Kind {
		case MorphGroup, MorphFlip:
			w.I32(int32(len(m.Group)))
			for _, o := range m.Group {
				e.index(h.MorphIndexSize, o.Morph)
				w.F32(o.Weight)
			}
		case MorphVertex:
			w.I32(int32(len(m.Vertex)))
			for _, o := range m.Vertex {
				e.vertexIndex(o.Vertex)
				w.Vec3(o.Offset)
			}
		case MorphBone:
			w.I32(int32(len(m.Bone)))
			for _, o := range m.Bone {
				e.index(h.BoneIndexSize, o.Bone)
				w.Vec3(o.Translation)
				w.Vec4(o.Rotation)
			}
		case MorphUV, MorphUV1, MorphUV2, MorphUV3, MorphUV4:
			w.I32(int32(len(m.UV)))
			for _, o := range m.UV {
				e.vertexIndex(o.Vertex)
				w.Vec4(o.Offset)
			}
		case MorphMaterial:
			w.I32(int32(len(m.Material)))
			for _, o := range m.Material {
				e.index(h.MaterialIndexSize, o.Material)
				w.U8(o.Op)
				w.Vec4(o.Diffuse)
				w.Vec3(o.Specular)
				w.F32(o.Specularity)
				w.Vec3(o.Ambient)
				w.Vec4(o.EdgeColor)
				w.F32(o.EdgeSize)
				w.Vec4(o.TextureTint)
				w.Vec4(o.SphereTint)
				w.Vec4(o.ToonTint)
			}
		case MorphImpulse:
			w.I32(int32(len(m.Impulse)))
			for _, o := range m.Impulse {
				e.index(h.RigidBodyIndexSize, o.RigidBody)
				w.U8(o.Local)
				w.Vec3(o.Velocity)
				w.Vec3(o.Torque)
			}
		default:
			w.I32(0)
		}
	}
	return nil
}
