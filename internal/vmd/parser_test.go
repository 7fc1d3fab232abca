package vmd

import (
	"errors"
	"testing"

	"mmd-pose-renderer/internal/loaderr"
)

func sampleDocument() *Document {
	f := BoneFrame{Name: "センター", Frame: 10, Position: [3]float32{1, 2, 3}, Rotation: [4]float32{0, 0, 0, 1}}
	f.SetCurve(ChannelX, [4]uint8{20, 20, 107, 107})
	f.SetCurve(ChannelRotation, [4]uint8{64, 0, 64, 127})
	return &Document{
		Version:   2,
		ModelName: "初音ミク",
		BoneFrames: []BoneFrame{
			f,
			{Name: "右足ＩＫ", Frame: 0, Rotation: [4]float32{0, 0, 0, 1}},
		},
		MorphFrames: []MorphFrame{{Name: "あ", Frame: 5, Weight: 0.5}},
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	doc, err := Decode(Encode(sampleDocument()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Version != 2 || doc.ModelName != "初音ミク" {
		t.Fatalf("header = %d %q", doc.Version, doc.ModelName)
	}
	if len(doc.BoneFrames) != 2 || len(doc.MorphFrames) != 1 {
		t.Fatalf("frames = %d bone, %d morph", len(doc.BoneFrames), len(doc.MorphFrames))
	}
	f := doc.BoneFrames[0]
	if f.Name != "センター" || f.Frame != 10 || f.Position != [3]float32{1, 2, 3} {
		t.Fatalf("bone frame = %+v", f)
	}
	if got := f.Curve(ChannelX); got != [4]uint8{20, 20, 107, 107} {
		t.Fatalf("x curve = %v", got)
	}
	if got := f.Curve(ChannelRotation); got != [4]uint8{64, 0, 64, 127} {
		t.Fatalf("rotation curve = %v", got)
	}
	if got := f.Curve(ChannelY); got != [4]uint8{} {
		t.Fatalf("y curve = %v", got)
	}
	if m := doc.MorphFrames[0]; m.Name != "あ" || m.Frame != 5 || m.Weight != 0.5 {
		t.Fatalf("morph frame = %+v", m)
	}
}

func TestDecodeVersion1Header(t *testing.T) {
	data := Encode(&Document{ModelName: "x"})
	copy(data, headerV1)
	// v1 has a 10-byte model name; drop the extra 10 bytes
	data = append(data[:headerSize+10], data[headerSize+20:]...)
	doc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Version != 1 || doc.ModelName != "x" {
		t.Fatalf("header = %d %q", doc.Version, doc.ModelName)
	}
}

func TestDecodeRejectsBadSignature(t *testing.T) {
	data := Encode(sampleDocument())
	copy(data, "Vocaloid Motion Data 0003")
	if _, err := Decode(data); !errors.Is(err, loaderr.ErrMalformed) {
		t.Fatalf("err = %v, want malformed", err)
	}
	if _, err := Decode(data[:12]); !errors.Is(err, loaderr.ErrTruncated) {
		t.Fatalf("short header err = %v, want truncated", err)
	}
}

func TestDecodeTruncatedFrames(t *testing.T) {
	data := Encode(sampleDocument())
	bonesEnd := headerSize + 20 + 4 + 2*boneFrameSize

	for _, n := range []int{headerSize + 20 + 2, headerSize + 20 + 4 + boneFrameSize, bonesEnd + 2, bonesEnd + 4 + 10} {
		if _, err := Decode(data[:n]); !errors.Is(err, loaderr.ErrTruncated) {
			t.Fatalf("prefix %d: err = %v, want truncated", n, err)
		}
	}

	doc, err := Decode(data[:bonesEnd])
	if err != nil {
		t.Fatalf("file without morph section: %v", err)
	}
	if len(doc.BoneFrames) != 2 || len(doc.MorphFrames) != 0 {
		t.Fatalf("frames = %d bone, %d morph", len(doc.BoneFrames), len(doc.MorphFrames))
	}
}

func TestFitNameMatchesStoredName(t *testing.T) {
	long := "左足首ＩＫ先端テスト用"
	doc, err := Decode(Encode(&Document{BoneFrames: []BoneFrame{{Name: long}}}))
	if err != nil {
		t.Fatal(err)
	}
	stored := doc.BoneFrames[0].Name
	if stored == long {
		t.Fatalf("name was not cut: %q", stored)
	}
	if got := FitName(long); got != stored {
		t.Fatalf("FitName = %q, stored %q", got, stored)
	}
	if got := FitName("センター"); got != "センター" {
		t.Fatalf("short name changed to %q", got)
	}
}
