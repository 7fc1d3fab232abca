// Package vmd decodes VMD motion files: bone and morph keyframes addressed
// by Shift-JIS bone and morph names.
package vmd

const (
	headerV1 = "Vocaloid Motion Data file"
	headerV2 = "Vocaloid Motion Data 0002"

	headerSize = 30
	nameSize   = 15 // bone and morph name field

	boneFrameSize  = nameSize + 4 + 12 + 16 + 64
	morphFrameSize = nameSize + 4 + 4
)

// Document is a decoded VMD file. Camera, light and shadow sections that
// may follow the morph frames are not decoded.
type Document struct {
	Version     int // 1 or 2
	ModelName   string
	BoneFrames  []BoneFrame
	MorphFrames []MorphFrame
}

// BoneFrame is one 111-byte bone key.
type BoneFrame struct {
	Name     string
	Frame    uint32
	Position [3]float32
	Rotation [4]float32 // x, y, z, w
	Interp   [64]byte
}

// Channels of a bone keyframe's easing curves.
const (
	ChannelX = iota
	ChannelY
	ChannelZ
	ChannelRotation
)

// Curve returns the raw control points x1, y1, x2, y2 (0..127) of one
// channel. The first 16 interpolation bytes interleave the four channels.
func (f *BoneFrame) Curve(channel int) [4]uint8 {
	b := &f.Interp
	return [4]uint8{b[channel], b[channel+4], b[channel+8], b[channel+12]}
}

// SetCurve writes one channel's control points into the first
// interpolation row, the only row readers use.
func (f *BoneFrame) SetCurve(channel int, c [4]uint8) {
	for i := 0; i < 4; i++ {
		f.Interp[channel+4*i] = c[i]
	}
}

// MorphFrame is one 23-byte morph key.
type MorphFrame struct {
	Name   string
	Frame  uint32
	Weight float32
}
