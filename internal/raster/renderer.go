// Package raster is a CPU triangle rasterizer for deformed PMX meshes.
package raster

import (
	"image"

	"mmd-pose-renderer/internal/model"
	"mmd-pose-renderer/internal/poser"
	"mmd-pose-renderer/internal/texture"
	"mmd-pose-renderer/internal/viewmatrix"
)

// Renderer draws pose images into a reusable frame buffer. A Renderer is
// not safe for concurrent use; give each worker its own.
type Renderer struct {
	fb    *FrameBuffer
	lc    LightConfig
	tex   texture.Resolver
	px    []float64
	py    []float64
	pz    []float64
	shade []float64
}

// NewRenderer creates a size×size renderer. tex may be nil, in which case
// every part is drawn in its diffuse color.
func NewRenderer(size int, tex texture.Resolver) *Renderer {
	return &Renderer{
		fb:  NewFrameBuffer(size, size),
		lc:  DefaultLightConfig(),
		tex: tex,
	}
}

// Size returns the edge length of the frame buffer in pixels.
func (r *Renderer) Size() int { return r.fb.Width }

// Render draws img, whose vertices are in m's vertex order, through view
// and returns a new image. Parts are drawn in material order; invisible
// parts are skipped.
func (r *Renderer) Render(img *poser.PoseImage, m *model.Model, view *viewmatrix.View) *image.NRGBA {
	r.fb.Clear()
	verts := img.Vertices()
	if len(verts) == 0 {
		return r.fb.Image()
	}

	r.px, r.py, r.pz = view.Project(verts, r.px, r.py, r.pz)
	if cap(r.shade) < len(verts) {
		r.shade = make([]float64, len(verts))
	}
	r.shade = r.shade[:len(verts)]
	for i := range verts {
		r.shade[i] = r.lc.ComputeShade(view.Normal(verts[i].Normal))
	}

	var tri [3]ScreenVertex
	for _, part := range m.Parts() {
		if !part.Visible() {
			continue
		}
		var tex *image.NRGBA
		if r.tex != nil && part.Texture != "" {
			tex = r.tex.Resolve(part.Texture)
		}
		base := [3]uint8{
			clamp255(float64(part.Diffuse[0]) * 255),
			clamp255(float64(part.Diffuse[1]) * 255),
			clamp255(float64(part.Diffuse[2]) * 255),
		}
		opacity := float64(part.Diffuse[3])

		idx := m.Indices[part.Start : part.Start+part.Count]
		for t := 0; t+2 < len(idx); t += 3 {
			for k := 0; k < 3; k++ {
				vi := idx[t+k]
				tri[k] = ScreenVertex{
					X:     r.px[vi],
					Y:     r.py[vi],
					Z:     r.pz[vi],
					U:     float64(verts[vi].UV[0]),
					V:     float64(verts[vi].UV[1]),
					Shade: r.shade[vi],
				}
			}
			RasterizeTriangle(r.fb, &tri, tex, base, opacity, &r.lc)
		}
	}
	return r.fb.Image()
}
