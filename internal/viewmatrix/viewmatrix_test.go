package viewmatrix

import (
	"math"
	"testing"

	"mmd-pose-renderer/internal/poser"
)

func TestFitCentersBox(t *testing.T) {
	v := Fit([3]float32{-1, 0, -1}, [3]float32{1, 2, 1}, Camera{}, 100, 10)
	verts := []poser.RenderVertex{
		{Pos: [3]float32{0, 1, 0}},
		{Pos: [3]float32{-1, 2, 0}},
		{Pos: [3]float32{1, 0, 0}},
	}
	px, py, _ := v.Project(verts, nil, nil, nil)
	if math.Abs(px[0]-50) > 1e-9 || math.Abs(py[0]-50) > 1e-9 {
		t.Fatalf("center projects to %g,%g", px[0], py[0])
	}
	// span 2 over 80 pixels; +Y is up on screen
	if math.Abs(px[1]-10) > 1e-9 || math.Abs(py[1]-10) > 1e-9 {
		t.Fatalf("top-left corner projects to %g,%g", px[1], py[1])
	}
	if math.Abs(px[2]-90) > 1e-9 || math.Abs(py[2]-90) > 1e-9 {
		t.Fatalf("bottom-right corner projects to %g,%g", px[2], py[2])
	}
}

func TestFrontIsNearer(t *testing.T) {
	v := Fit([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}, Camera{}, 64, 0)
	// MMD models face -Z
	_, _, pz := v.Project([]poser.RenderVertex{{Pos: [3]float32{0, 0, -1}}, {Pos: [3]float32{0, 0, 1}}}, nil, nil, nil)
	if pz[0] <= pz[1] {
		t.Fatalf("front depth %g not nearer than back %g", pz[0], pz[1])
	}
}

func TestPerspectiveShrinksFarPoints(t *testing.T) {
	v := Fit([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}, Camera{FOV: 30}, 64, 0)
	px, _, _ := v.Project([]poser.RenderVertex{
		{Pos: [3]float32{1, 0, -1}},
		{Pos: [3]float32{1, 0, 1}},
	}, nil, nil, nil)
	if near, far := px[0]-32, px[1]-32; near <= far {
		t.Fatalf("near offset %g, far offset %g", near, far)
	}
}

func TestProjectReusesBuffers(t *testing.T) {
	v := Fit([3]float32{}, [3]float32{1, 1, 1}, Camera{Yaw: 45}, 32, 2)
	buf := make([]float64, 0, 8)
	px, _, _ := v.Project(make([]poser.RenderVertex, 3), buf, nil, nil)
	if len(px) != 3 || &px[:1][0] != &buf[:1][0] {
		t.Fatalf("buffer not reused")
	}
}
