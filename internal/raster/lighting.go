package raster

import (
	"math"

	"mmd-pose-renderer/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters. Directions are in
// view space.
type LightConfig struct {
	LightDir mathutil.Vec3
	RimDir   mathutil.Vec3
	HalfMain mathutil.Vec3 // Blinn-Phong half-vector
	Ambient  float64
	Hemi     float64
	Direct   float64
	Rim      float64
	SpecInt  float64
	SpecPow  float64
	Exposure float64
	InvGamma float64
}

// DefaultLightConfig is a key light above right of the camera with a cool
// rim from behind left.
func DefaultLightConfig() LightConfig {
	lightDir := mathutil.Normalize(mathutil.Vec3{180, 260, 140})
	rimDir := mathutil.Normalize(mathutil.Vec3{-160, 130, -210})
	toViewer := mathutil.Vec3{0, 0, 1}

	return LightConfig{
		LightDir: lightDir,
		RimDir:   rimDir,
		HalfMain: mathutil.Normalize(lightDir.Add(toViewer)),
		Ambient:  0.45,
		Hemi:     0.35,
		Direct:   0.90,
		Rim:      0.30,
		SpecInt:  0.20,
		SpecPow:  16.0,
		Exposure: 1.0,
		InvGamma: 1.0 / 2.2,
	}
}

// ComputeShade returns the combined lighting scalar for a view-space
// normal. Lambert terms use |n·l| so back faces of double-sided parts
// light the same as front faces.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	ndlMain := math.Abs(normal.Dot(lc.LightDir))
	ndlRim := math.Abs(normal.Dot(lc.RimDir))

	hemi := (1.0-math.Abs(normal[1]))*0.5 + 0.5

	ndh := math.Abs(normal.Dot(lc.HalfMain))
	spec := math.Pow(ndh, lc.SpecPow) * lc.SpecInt

	return lc.Ambient + hemi*lc.Hemi + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}
