// Package postprocess resolves supersampled frames to their output size.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img to size×size with Catmull-Rom filtering in
// premultiplied alpha, so transparent edges do not bleed dark halos. An
// image already at or below size is returned unchanged.
func Downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}

	// NRGBA to RGBA premultiplies; the reverse draw divides it back out.
	premul := image.NewRGBA(b)
	draw.Draw(premul, b, img, b.Min, draw.Src)

	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), premul, b, draw.Src, nil)

	out := image.NewNRGBA(scaled.Bounds())
	draw.Draw(out, out.Bounds(), scaled, image.Point{}, draw.Src)
	return out
}

// AlphaBounds returns the smallest rectangle holding every pixel with
// nonzero alpha, or the empty rectangle for a fully transparent image.
func AlphaBounds(img *image.NRGBA) image.Rectangle {
	b := img.Bounds()
	r := image.Rectangle{Min: b.Max, Max: b.Min}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x*4+3] == 0 {
				continue
			}
			r.Min.X = min(r.Min.X, b.Min.X+x)
			r.Min.Y = min(r.Min.Y, y)
			r.Max.X = max(r.Max.X, b.Min.X+x+1)
			r.Max.Y = max(r.Max.Y, y+1)
		}
	}
	if r.Empty() {
		return image.Rectangle{}
	}
	return r
}
