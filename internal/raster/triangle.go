package raster

import (
	"image"
	"math"
)

// ScreenVertex is a projected vertex with its lighting already evaluated.
type ScreenVertex struct {
	X, Y, Z float64
	U, V    float64
	Shade   float64
}

// RasterizeTriangle fills one triangle with z-buffering and Gouraud
// shading. Color comes from tex when present, otherwise from base; alpha
// is scaled by opacity. Runs without allocating.
func RasterizeTriangle(fb *FrameBuffer, tri *[3]ScreenVertex, tex *image.NRGBA, base [3]uint8, opacity float64, lc *LightConfig) {
	a, b, c := &tri[0], &tri[1], &tri[2]

	w, h := fb.Width, fb.Height
	minX := max(int(math.Floor(min(a.X, b.X, c.X))), 0)
	maxX := min(int(math.Ceil(max(a.X, b.X, c.X))), w-1)
	minY := max(int(math.Floor(min(a.Y, b.Y, c.Y))), 0)
	maxY := min(int(math.Ceil(max(a.Y, b.Y, c.Y))), h-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if math.Abs(det) < 1e-12 {
		return
	}
	invDet := 1.0 / det

	dy12 := b.Y - c.Y
	dx21 := c.X - b.X
	dy20 := c.Y - a.Y
	dx02 := a.X - c.X

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - c.Y
		rowOff := sy * w
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - c.X
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -1e-6 || w1 < -1e-6 || w2 < -1e-6 {
				continue
			}

			z := w0*a.Z + w1*b.Z + w2*c.Z
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			cr, cg, cb, ca := base[0], base[1], base[2], uint8(255)
			if tex != nil {
				cr, cg, cb, ca = SampleTexture(tex,
					w0*a.U+w1*b.U+w2*c.U,
					w0*a.V+w1*b.V+w2*c.V)
			}
			alpha := float64(ca) * opacity
			if alpha < 8 {
				continue
			}
			fb.ZBuf[zIdx] = z

			shade := (w0*a.Shade + w1*b.Shade + w2*c.Shade) * lc.Exposure
			px := fb.Color[zIdx*4 : zIdx*4+4 : zIdx*4+4]
			px[0] = encode(srgbToLinear[cr]*shade, lc.InvGamma)
			px[1] = encode(srgbToLinear[cg]*shade, lc.InvGamma)
			px[2] = encode(srgbToLinear[cb]*shade, lc.InvGamma)
			px[3] = clamp255(alpha)
		}
	}
}

// encode tone maps a linear value and returns it as sRGB.
func encode(linear, invGamma float64) uint8 {
	return clamp255(math.Pow(ACESTonemap(linear), invGamma) * 255)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
