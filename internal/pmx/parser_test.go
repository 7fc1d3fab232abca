package pmx

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mmd-pose-renderer/internal/loaderr"
)

func sampleDocument(enc uint8) *Document {
	return &Document{
		Header: Header{
			Version:          2.0,
			Encoding:         enc,
			AdditionalUVs:    1,
			VertexIndexSize:  2,
			TextureIndexSize: 1,
			BoneIndexSize:    2,
		},
		Name:    "テスト",
		Comment: "fixture",
		Vertices: []Vertex{
			{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 0, -1}, Weight: BDEF1, Bones: [4]int32{0, -1, -1, -1}, Weights: [4]float32{1}, ExtraUVs: [][4]float32{{1, 2, 3, 4}}},
			{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 0, -1}, Weight: BDEF2, Bones: [4]int32{0, 1, -1, -1}, Weights: [4]float32{0.25, 0.75}, ExtraUVs: [][4]float32{{}}},
			{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, -1}, Weight: SDEF, Bones: [4]int32{1, 0, -1, -1}, Weights: [4]float32{0.5, 0.5}, SDEFC: [3]float32{0, 0.5, 0}, ExtraUVs: [][4]float32{{}}},
		},
		Indices:  []uint32{0, 1, 2},
		Textures: []string{"tex/body.png"},
		Materials: []Material{
			{Name: "体", Diffuse: [4]float32{1, 1, 1, 1}, Texture: 0, Sphere: -1, SharedToon: true, Toon: 3, IndexCount: 3},
		},
		Bones: []Bone{
			{Name: "センター", Parent: -1, Flags: BoneRotatable | BoneTranslatable, TailBone: -1, InheritParent: -1, ExternalKey: -1},
			{Name: "右足ＩＫ", Position: [3]float32{1, 0, 0}, Parent: 0, Layer: 1,
				Flags: BoneRotatable | BoneInheritRotation, TailBone: -1, InheritParent: 0, InheritWeight: 0.5, ExternalKey: -1,
				IK: &IK{Target: 0, Loop: 40, LimitAngle: 2, Links: []IKLink{{Bone: 0, Limited: true, Min: [3]float32{-3, 0, 0}, Max: [3]float32{-0.01, 0, 0}}}}},
		},
		Morphs: []Morph{
			{Name: "あ", Panel: 3, Kind: MorphVertex, Vertex: []VertexOffset{{Vertex: 1, Offset: [3]float32{0, 1, 0}}}},
			{Name: "grp", Kind: MorphGroup, Group: []GroupOffset{{Morph: 0, Weight: 0.5}}},
			{Name: "bone", Kind: MorphBone, Bone: []BoneOffset{{Bone: 1, Translation: [3]float32{0, 0, 1}, Rotation: [4]float32{0, 0, 0, 1}}}},
			{Name: "mat", Kind: MorphMaterial, Material: []MaterialOffset{{Material: -1, Op: 1}}},
		},
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, enc := range []uint8{EncodingUTF16, EncodingUTF8} {
		data, err := Encode(sampleDocument(enc))
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		doc, err := Decode(data)
		if err != nil {
			t.Fatalf("encoding %d: Decode: %v", enc, err)
		}
		if doc.Name != "テスト" || doc.Bones[1].Name != "右足ＩＫ" || doc.Materials[0].Name != "体" {
			t.Fatalf("encoding %d: names decoded as %q %q %q", enc, doc.Name, doc.Bones[1].Name, doc.Materials[0].Name)
		}
		if len(doc.Vertices) != 3 || doc.Vertices[1].Weights[1] != 0.75 || doc.Vertices[2].Weight != SDEF {
			t.Fatalf("vertices decoded as %+v", doc.Vertices)
		}
		if doc.Vertices[0].ExtraUVs[0] != [4]float32{1, 2, 3, 4} {
			t.Fatalf("extra uv = %v", doc.Vertices[0].ExtraUVs)
		}
		if m := doc.Materials[0]; !m.SharedToon || m.Toon != 3 || m.Sphere != -1 || m.IndexCount != 3 {
			t.Fatalf("material decoded as %+v", m)
		}
		ik := doc.Bones[1].IK
		if ik == nil || ik.Loop != 40 || len(ik.Links) != 1 || !ik.Links[0].Limited || ik.Links[0].Max[0] != -0.01 {
			t.Fatalf("ik decoded as %+v", ik)
		}
		if b := doc.Bones[1]; b.InheritParent != 0 || b.InheritWeight != 0.5 || b.Layer != 1 {
			t.Fatalf("bone decoded as %+v", b)
		}
		if len(doc.Morphs) != 4 || doc.Morphs[0].Vertex[0].Vertex != 1 || doc.Morphs[2].Bone[0].Rotation[3] != 1 {
			t.Fatalf("morphs decoded as %+v", doc.Morphs)
		}
		if doc.Morphs[3].Material[0].Material != -1 {
			t.Fatalf("material morph target = %d", doc.Morphs[3].Material[0].Material)
		}
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	data, _ := Encode(sampleDocument(EncodingUTF8))
	copy(data, "PMD ")
	_, err := Decode(data)
	if !errors.Is(err, loaderr.ErrMalformed) {
		t.Fatalf("err = %v, want malformed", err)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	doc := sampleDocument(EncodingUTF8)
	doc.Header.Version = 3.0
	data, _ := Encode(doc)
	_, err := Decode(data)
	if !errors.Is(err, loaderr.ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want unsupported version", err)
	}
}

func TestDecodeRejectsBadIndexSize(t *testing.T) {
	data, _ := Encode(sampleDocument(EncodingUTF8))
	data[9+2] = 3 // vertex index size
	_, err := Decode(data)
	if !errors.Is(err, loaderr.ErrMalformed) {
		t.Fatalf("err = %v, want malformed", err)
	}
}

func TestDecodeEveryPrefixIsTruncated(t *testing.T) {
	data, _ := Encode(sampleDocument(EncodingUTF16))
	for n := 0; n < len(data); n++ {
		_, err := Decode(data[:n])
		if !errors.Is(err, loaderr.ErrTruncated) {
			t.Fatalf("prefix %d/%d: err = %v, want truncated", n, len(data), err)
		}
	}
}

func TestDecodeRejectsHugeCount(t *testing.T) {
	doc := sampleDocument(EncodingUTF8)
	doc.Vertices = nil
	doc.Indices = nil
	data, _ := Encode(doc)
	// vertex count follows the header and the four text fields
	off := 4 + 4 + 1 + 8
	for _, s := range []string{doc.Name, doc.NameEn, doc.Comment, doc.CommentEn} {
		off += 4 + len(s)
	}
	data[off], data[off+1], data[off+2], data[off+3] = 0xff, 0xff, 0xff, 0x0f
	_, err := Decode(data)
	if !errors.Is(err, loaderr.ErrTruncated) {
		t.Fatalf("err = %v, want truncated", err)
	}
}

func TestParseReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pmx")
	if err := os.WriteFile(path, []byte("PMX "), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Parse(path)
	var le *loaderr.Error
	if !errors.As(err, &le) || le.Path != path || le.Kind != loaderr.KindTruncated {
		t.Fatalf("err = %v", err)
	}

	_, err = Parse(filepath.Join(t.TempDir(), "missing.pmx"))
	if !errors.Is(err, loaderr.ErrIO) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v", err)
	}
}
