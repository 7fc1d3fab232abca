package vmd

import (
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"

	"mmd-pose-renderer/internal/binio"
	"mmd-pose-renderer/internal/loaderr"
)

// Parse reads and decodes the VMD file at path.
func Parse(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &loaderr.Error{Format: "vmd", Path: path, Kind: loaderr.KindIO, Err: err}
	}
	doc, err := Decode(raw)
	if err != nil {
		return nil, loaderr.WithPath(err, path)
	}
	return doc, nil
}

// Decode decodes an in-memory VMD file. A file that ends right after its
// bone frames has no morph frames.
func Decode(data []byte) (*Document, error) {
	r := binio.NewReader(data)
	sig := string(r.FixedString(headerSize))
	if r.Short() {
		return nil, loaderr.New("vmd", loaderr.KindTruncated, "file ends inside header")
	}

	doc := &Document{}
	var modelNameSize int
	switch sig {
	case headerV2:
		doc.Version, modelNameSize = 2, 20
	case headerV1:
		doc.Version, modelNameSize = 1, 10
	default:
		return nil, loaderr.New("vmd", loaderr.KindMalformed, "bad signature %q", sig)
	}
	doc.ModelName = decodeName(r.FixedString(modelNameSize))

	n, err := count(r, "bone frames", boneFrameSize)
	if err != nil {
		return nil, err
	}
	doc.BoneFrames = make([]BoneFrame, n)
	for i := range doc.BoneFrames {
		f := &doc.BoneFrames[i]
		f.Name = decodeName(r.FixedString(nameSize))
		f.Frame = r.U32()
		f.Position = r.Vec3()
		f.Rotation = r.Vec4()
		copy(f.Interp[:], r.Bytes(len(f.Interp)))
	}

	if r.Remaining() == 0 {
		return doc, nil
	}
	n, err = count(r, "morph frames", morphFrameSize)
	if err != nil {
		return nil, err
	}
	doc.MorphFrames = make([]MorphFrame, n)
	for i := range doc.MorphFrames {
		f := &doc.MorphFrames[i]
		f.Name = decodeName(r.FixedString(nameSize))
		f.Frame = r.U32()
		f.Weight = r.F32()
	}
	if r.Short() {
		return nil, loaderr.New("vmd", loaderr.KindTruncated, "file ends inside morph frames")
	}
	return doc, nil
}

func count(r *binio.Reader, section string, record int) (int, error) {
	n := r.U32()
	if r.Short() {
		return 0, loaderr.New("vmd", loaderr.KindTruncated, "file ends before %s count", section)
	}
	if int64(n)*int64(record) > int64(r.Remaining()) {
		return 0, loaderr.New("vmd", loaderr.KindTruncated, "%d %s need %d bytes, %d left",
			n, section, int64(n)*int64(record), r.Remaining())
	}
	return int(n), nil
}

func decodeName(b []byte) string {
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

func encodeName(s string) []byte {
	out, err := encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

// FitName returns name as it reads back from a VMD name field: encoded to
// Shift-JIS, cut to 15 bytes and decoded again.
func FitName(name string) string {
	b := encodeName(name)
	if len(b) <= nameSize {
		return name
	}
	return decodeName(b[:nameSize])
}
