package raster

import (
	"image"
	"math"
)

// SampleTexture filters tex bilinearly at (u, v) with repeat wrapping.
// V grows downward, row 0 is v = 0.
func SampleTexture(tex *image.NRGBA, u, v float64) (r, g, b, a uint8) {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()
	if w == 0 || h == 0 {
		return 0, 0, 0, 0
	}

	fx := (u - math.Floor(u)) * float64(w-1)
	fy := (v - math.Floor(v)) * float64(h-1)
	x0, y0 := int(fx), int(fy)
	x1, y1 := (x0+1)%w, (y0+1)%h
	dx, dy := fx-float64(x0), fy-float64(y0)

	row0 := tex.Pix[y0*tex.Stride:]
	row1 := tex.Pix[y1*tex.Stride:]
	var out [4]float64
	for c := 0; c < 4; c++ {
		top := float64(row0[x0*4+c])*(1-dx) + float64(row0[x1*4+c])*dx
		bot := float64(row1[x0*4+c])*(1-dx) + float64(row1[x1*4+c])*dx
		out[c] = top*(1-dy) + bot*dy + 0.5
	}
	return uint8(out[0]), uint8(out[1]), uint8(out[2]), uint8(out[3])
}
