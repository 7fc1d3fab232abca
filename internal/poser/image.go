package poser

import "math"

// RenderVertex is one deformed vertex as a renderer uploads it.
type RenderVertex struct {
	Pos    [3]float32
	Normal [3]float32
	UV     [2]float32
}

// PoseImage is the deformed vertex buffer of one frame, in model vertex
// order. It is overwritten by every Deform.
// PoseImage is the deformed mesh of one frame, indexed like the model's vertices.
type PoseImage struct {
	verts []RenderVertex
}

// Vertices aliases the image's storage; the next Deform overwrites it.
func (im *PoseImage) Vertices() []RenderVertex { return im.verts }

func (im *PoseImage) Len() int { return len(im.verts) }

// Bounds returns the axis-aligned box around all positions.
func (im *PoseImage) Bounds() (lo, hi [3]float32) {
	if len(im.verts) == 0 {
		return
	}
	for k := 0; k < 3; k++ {
		lo[k] = math.MaxFloat32
		hi[k] = -math.MaxFloat32
	}
	for _, v := range im.verts {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v.Pos[k])
			hi[k] = max(hi[k], v.Pos[k])
		}
	}
	return lo, hi
}

// Clone copies the image so it can outlive the next Deform.
func (im *PoseImage) Clone() *PoseImage {
	return &PoseImage{verts: append([]RenderVertex(nil), im.verts...)}
}
