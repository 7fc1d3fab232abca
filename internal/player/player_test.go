package player

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"mmd-pose-renderer/internal/mathutil"
	"mmd-pose-renderer/internal/model"
	"mmd-pose-renderer/internal/motion"
	"mmd-pose-renderer/internal/pmx"
	"mmd-pose-renderer/internal/pose"
	"mmd-pose-renderer/internal/poser"
	"mmd-pose-renderer/internal/vmd"
)

func pmxBone(name string, pos [3]float32, parent int32) pmx.Bone {
	return pmx.Bone{Name: name, Position: pos, Parent: parent, TailBone: -1, InheritParent: -1, ExternalKey: -1}
}

func chainModel(t *testing.T) *model.Model {
	t.Helper()
	doc := &pmx.Document{
		Vertices: []pmx.Vertex{{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, -1},
			Weight: pmx.BDEF1, Bones: [4]int32{1, -1, -1, -1}, Weights: [4]float32{1}}},
		Bones: []pmx.Bone{
			pmxBone("root", [3]float32{0, 0, 0}, -1),
			pmxBone("child", [3]float32{0, 1, 0}, 0),
			pmxBone("左足首ＩＫ先端テスト用", [3]float32{0, 2, 0}, 1),
		},
		Morphs: []pmx.Morph{{Name: "あ", Kind: pmx.MorphVertex}},
	}
	m, err := model.FromPMX(doc, model.Options{UnitScale: 1})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func rootTurn() *motion.Motion {
	key := func(frame uint32, deg float64) motion.BoneKeyframe {
		k := motion.BoneKeyframe{Frame: frame, Rotation: mgl64.QuatRotate(mgl64.DegToRad(deg), mathutil.Vec3{0, 0, 1})}
		for c := range k.Curves {
			k.Curves[c] = motion.Linear
		}
		return k
	}
	return motion.New("turn",
		[]*motion.BoneTrack{
			{Name: "root", Keys: []motion.BoneKeyframe{key(10, 90)}},
			{Name: "tail", Keys: []motion.BoneKeyframe{key(0, 0)}},
		},
		[]*motion.MorphTrack{{Name: "あ", Keys: []motion.MorphKeyframe{{Frame: 0, Weight: 0}, {Frame: 20, Weight: 1}}}},
	)
}

func TestSeekThenDeformRotatesChild(t *testing.T) {
	p := poser.New(chainModel(t))
	pl := New(rootTurn(), p)

	p.ResetPosing()
	pl.SeekFrame(10)
	p.PrePhysicsPosing()
	p.PostPhysicsPosing()
	if err := p.Deform(); err != nil {
		t.Fatal(err)
	}
	got := p.Image().Vertices()[0].Pos
	want := [3]float32{-1, 0, 0}
	for k := range got {
		if math.Abs(float64(got[k]-want[k])) > 1e-6 {
			t.Fatalf("vertex at %v, want %v", got, want)
		}
	}
}

func TestBonesWithoutTrackStayAtIdentity(t *testing.T) {
	p := poser.New(chainModel(t))
	pl := New(rootTurn(), p)
	for _, f := range []float64{0, 3.5, 10, 500} {
		p.ResetPosing()
		pl.SeekFrame(f)
		for _, name := range []string{"child", "左足首ＩＫ先端テスト用"} {
			i, _ := p.Model().BoneIndex(name)
			if got := p.Pose().BoneLocal(i); got != pose.Identity() {
				t.Fatalf("frame %g: %s = %+v", f, name, got)
			}
		}
	}
}

func TestUnboundTracksReported(t *testing.T) {
	pl := New(rootTurn(), poser.New(chainModel(t)))
	if u := pl.Unbound(); len(u) != 1 || u[0] != "tail" {
		t.Fatalf("unbound = %v", u)
	}
	if pl.BoundCount() != 2 {
		t.Fatalf("bound = %d", pl.BoundCount())
	}
}

func TestSeekRewritesPoseAfterReset(t *testing.T) {
	p := poser.New(chainModel(t))
	pl := New(rootTurn(), p)
	pl.SeekFrame(10)
	p.ResetPosing()
	pl.SeekFrame(10)
	if got := p.Pose().MorphWeight(0); got != 0.5 {
		t.Fatalf("morph weight after cached seek = %g", got)
	}
	pl.SeekFrame(-4)
	if pl.Frame() != 0 || p.Pose().MorphWeight(0) != 0 {
		t.Fatalf("negative seek: frame %g weight %g", pl.Frame(), p.Pose().MorphWeight(0))
	}
}

func TestTruncatedTrackNameBinds(t *testing.T) {
	m := motion.New("", []*motion.BoneTrack{{Name: vmd.FitName("左足首ＩＫ先端テスト用")}}, nil)
	pl := New(m, poser.New(chainModel(t)))
	if len(pl.Unbound()) != 0 || pl.BoundCount() != 1 {
		t.Fatalf("cut name not bound: unbound %v", pl.Unbound())
	}
}
