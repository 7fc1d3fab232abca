// Package viewmatrix fits a camera around a model and projects deformed
// vertices to screen space.
package viewmatrix

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"mmd-pose-renderer/internal/mathutil"
	"mmd-pose-renderer/internal/poser"
)

// Camera orbits the model: yaw about Y, then pitch about X, in degrees.
// FOV 0 projects orthographically.
type Camera struct {
	Yaw   float64
	Pitch float64
	FOV   float64
}

// View maps model space to a square render target. In view space larger Z
// is nearer the camera.
type View struct {
	R      mathutil.Mat3
	Center mathutil.Vec3
	Scale  float64 // pixels per unit at the center depth
	Size   int

	perspective bool
	camDist     float64
	zCenter     float64
}

// Fit frames the box lo..hi for a size×size target with margin pixels on
// each side. The margin never takes more than half the target. Every
// frame rendered with the same View shares one camera, so fit to a box
// that covers the whole animation.
func Fit(lo, hi [3]float32, cam Camera, size, margin int) View {
	v := View{R: mathutil.ViewRotation(cam.Yaw, cam.Pitch), Size: size}

	minV := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	maxV := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for c := 0; c < 8; c++ {
		corner := mathutil.Vec3{
			float64(pick(c&1 != 0, lo[0], hi[0])),
			float64(pick(c&2 != 0, lo[1], hi[1])),
			float64(pick(c&4 != 0, lo[2], hi[2])),
		}
		t := v.R.Mul3x1(corner)
		for k := 0; k < 3; k++ {
			minV[k] = math.Min(minV[k], t[k])
			maxV[k] = math.Max(maxV[k], t[k])
		}
	}
	v.Center = minV.Add(maxV).Mul(0.5)

	span := math.Max(maxV[0]-minV[0], maxV[1]-minV[1])
	if span < 0.001 {
		span = 0.001
	}
	usable := max(size-2*margin, size/2)
	v.Scale = float64(usable) / span

	if cam.FOV > 0 {
		halfFOV := mgl64.DegToRad(cam.FOV / 2)
		v.perspective = true
		v.zCenter = v.Center[2]
		// far enough that the near face of the box stays in front
		v.camDist = span/2/math.Tan(halfFOV) + (maxV[2]-minV[2])/2
	}
	return v
}

func pick(first bool, a, b float32) float32 {
	if first {
		return a
	}
	return b
}

// Project writes screen X, Y and view depth for every vertex into px, py
// and pz, growing them as needed, and returns them.
func (v *View) Project(verts []poser.RenderVertex, px, py, pz []float64) ([]float64, []float64, []float64) {
	n := len(verts)
	px, py, pz = grow(px, n), grow(py, n), grow(pz, n)
	half := float64(v.Size) / 2

	for i := range verts {
		p := verts[i].Pos
		t := v.R.Mul3x1(mathutil.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}).Sub(v.Center)

		if v.perspective {
			depth := math.Max(v.camDist-t[2], 0.01)
			factor := v.camDist / depth
			t[0] *= factor
			t[1] *= factor
		}

		px[i] = t[0]*v.Scale + half
		py[i] = -t[1]*v.Scale + half
		pz[i] = t[2]
	}
	return px, py, pz
}

// Normal rotates a model-space normal into view space.
func (v *View) Normal(n [3]float32) mathutil.Vec3 {
	return mathutil.Normalize(v.R.Mul3x1(mathutil.Vec3{float64(n[0]), float64(n[1]), float64(n[2])}))
}

func grow(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}
