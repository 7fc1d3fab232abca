package vmd

import "mmd-pose-renderer/internal/binio"

// Encode serializes doc as a version 2 file. Names longer than their field
// are cut the way MMD cuts them.
func Encode(doc *Document) []byte {
	var w binio.Writer
	w.FixedString([]byte(headerV2), headerSize)
	w.FixedString(encodeName(doc.ModelName), 20)

	w.U32(uint32(len(doc.BoneFrames)))
	for _, f := range doc.BoneFrames {
		w.FixedString(encodeName(f.Name), nameSize)
		w.U32(f.Frame)
		w.Vec3(f.Position)
		w.Vec4(f.Rotation)
		w.Raw(f.Interp[:])
	}

	w.U32(uint32(len(doc.MorphFrames)))
	for _, f := range doc.MorphFrames {
		w.FixedString(encodeName(f.Name), nameSize)
		w.U32(f.Frame)
		w.F32(f.Weight)
	}

	// empty camera, light and self-shadow sections
	w.U32(0)
	w.U32(0)
	w.U32(0)
	return w.Bytes()
}
