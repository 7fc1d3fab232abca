package session

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mmd-pose-renderer/internal/loaderr"
	"mmd-pose-renderer/internal/model"
	"mmd-pose-renderer/internal/motion"
	"mmd-pose-renderer/internal/pmx"
	"mmd-pose-renderer/internal/vmd"
)

func pmxBone(name string, pos [3]float32, parent int32) pmx.Bone {
	return pmx.Bone{Name: name, Position: pos, Parent: parent, TailBone: -1, InheritParent: -1, ExternalKey: -1}
}

// stripDoc is a model with n vertices on one bone.
func stripDoc(n int) *pmx.Document {
	doc := &pmx.Document{
		Header: pmx.Header{Version: 2.0, Encoding: pmx.EncodingUTF8},
		Bones:  []pmx.Bone{pmxBone("センター", [3]float32{}, -1), pmxBone("頭", [3]float32{0, 10, 0}, 0)},
	}
	for i := 0; i < n; i++ {
		doc.Vertices = append(doc.Vertices, pmx.Vertex{
			Position: [3]float32{float32(i), 0, 0}, Normal: [3]float32{0, 0, -1},
			Weight: pmx.BDEF1, Bones: [4]int32{0, -1, -1, -1}, Weights: [4]float32{1},
		})
	}
	return doc
}

func writeModel(t *testing.T, doc *pmx.Document) string {
	t.Helper()
	data, err := pmx.Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "m.pmx")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeMotion(t *testing.T, doc *vmd.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "m.vmd")
	if err := os.WriteFile(path, vmd.Encode(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func walk() *vmd.Document {
	return &vmd.Document{
		BoneFrames: []vmd.BoneFrame{
			{Name: "センター", Frame: 0, Rotation: [4]float32{0, 0, 0, 1}},
			{Name: "センター", Frame: 60, Position: [3]float32{0, 0, 10}, Rotation: [4]float32{0, 0, 0, 1}},
			{Name: "右足", Frame: 30, Rotation: [4]float32{0, 0, 0, 1}},
		},
		MorphFrames: []vmd.MorphFrame{{Name: "あ", Frame: 15, Weight: 1}},
	}
}

func TestFrameWithoutModel(t *testing.T) {
	s := New(Options{})
	if _, err := s.Frame(); !errors.Is(err, ErrNoModel) {
		t.Fatalf("err = %v", err)
	}
}

func TestModelSwapReplacesPoser(t *testing.T) {
	var buf bytes.Buffer
	s := New(Options{Logger: log.New(&buf, "", 0)})
	if err := s.LoadModel(writeModel(t, stripDoc(3))); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadMotion(writeMotion(t, walk())); err != nil {
		t.Fatal(err)
	}
	old := s.Poser()
	img, err := s.Frame()
	if err != nil || img.Len() != 3 {
		t.Fatalf("first model frame: %v, %d vertices", err, img.Len())
	}

	m, err := model.FromPMX(stripDoc(5), model.Options{})
	if err != nil {
		t.Fatal(err)
	}
	s.SetModel(m)
	if s.Poser() == old || s.Poser().Model() != m {
		t.Fatalf("poser not replaced with the model")
	}
	if s.Player() == nil || s.Player().Poser() != s.Poser() {
		t.Fatalf("motion not rebound to the new poser")
	}
	img, err = s.Frame()
	if err != nil || img.Len() != 5 {
		t.Fatalf("second model frame: %v, %d vertices", err, img.Len())
	}
	if !strings.Contains(buf.String(), "[session] model") {
		t.Fatalf("log = %q", buf.String())
	}
}

func TestFailedLoadKeepsScene(t *testing.T) {
	s := New(Options{})
	if err := s.LoadModel(writeModel(t, stripDoc(3))); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadMotion(writeMotion(t, walk())); err != nil {
		t.Fatal(err)
	}
	m, mo, p := s.Model(), s.Motion(), s.Poser()

	bad := filepath.Join(t.TempDir(), "bad.pmx")
	if err := os.WriteFile(bad, []byte("PMX \x00\x00\x40\x40"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadModel(bad); !errors.Is(err, loaderr.ErrUnsupportedVersion) {
		t.Fatalf("bad model err = %v", err)
	}
	if err := s.LoadMotion(filepath.Join(t.TempDir(), "none.vmd")); !errors.Is(err, loaderr.ErrIO) {
		t.Fatalf("missing motion err = %v", err)
	}
	if s.Model() != m || s.Motion() != mo || s.Poser() != p {
		t.Fatalf("failed load changed the scene")
	}
	if _, err := s.Frame(); err != nil {
		t.Fatalf("frame after failed load: %v", err)
	}
}

func TestPlaybackAdvanceLoopAndScrub(t *testing.T) {
	s := New(Options{Loop: true})
	s.SetModel(mustModel(t))
	s.SetMotion(motion.FromVMD(walk(), motion.Options{}))
	if s.Length() != 60 {
		t.Fatalf("length = %g", s.Length())
	}

	s.Advance(1)
	if s.CurrentFrame() != 0 {
		t.Fatalf("advanced while stopped")
	}
	s.Play()
	s.Advance(1)
	if s.CurrentFrame() != 30 || s.State() != Playing {
		t.Fatalf("after 1s: frame %g, %v", s.CurrentFrame(), s.State())
	}
	s.Advance(1.5)
	if s.CurrentFrame() != 15 {
		t.Fatalf("loop wrap: frame %g", s.CurrentFrame())
	}

	s.Timeline().OnScrub(45)
	if s.CurrentFrame() != 45 || s.State() != Playing {
		t.Fatalf("scrub: frame %g, %v", s.CurrentFrame(), s.State())
	}
	s.Pause()
	s.Advance(1)
	if s.CurrentFrame() != 45 || s.State() != Paused {
		t.Fatalf("paused advance: frame %g, %v", s.CurrentFrame(), s.State())
	}
	s.SeekFrame(1000)
	if s.CurrentFrame() != 60 {
		t.Fatalf("seek clamp: %g", s.CurrentFrame())
	}
	s.Stop()
	if s.CurrentFrame() != 0 || s.State() != Stopped {
		t.Fatalf("stop: frame %g, %v", s.CurrentFrame(), s.State())
	}
}

func TestAdvanceWithoutLoopPausesAtEnd(t *testing.T) {
	s := New(Options{})
	s.SetModel(mustModel(t))
	s.SetMotion(motion.FromVMD(walk(), motion.Options{}))
	s.Play()
	s.Advance(5)
	if s.CurrentFrame() != 60 || s.State() != Paused {
		t.Fatalf("frame %g, %v", s.CurrentFrame(), s.State())
	}
}

func TestTimelineEntries(t *testing.T) {
	s := New(Options{})
	tl := s.Timeline()
	if first, last := tl.FrameRange(); first != 0 || last != EmptyRange {
		t.Fatalf("empty range = %d..%d", first, last)
	}
	if tl.EntryCount() != 1 {
		t.Fatalf("empty entries = %d", tl.EntryCount())
	}

	s.SetModel(mustModel(t))
	s.SetMotion(motion.FromVMD(walk(), motion.Options{}))
	if _, last := tl.FrameRange(); last != 60 {
		t.Fatalf("range end = %d", last)
	}
	if tl.EntryCount() != 4 {
		t.Fatalf("entries = %d", tl.EntryCount())
	}
	want := []Entry{
		{Label: "motion", End: 60},
		{Label: "センター", End: 60},
		{Label: "右足", Start: 30, End: 30},
		{Label: "あ", Start: 15, End: 15},
	}
	for i, w := range want {
		if got := tl.Entry(i); got != w {
			t.Fatalf("entry %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestScrubWithoutMotionCoversEmptyRange(t *testing.T) {
	s := New(Options{})
	s.SetModel(mustModel(t))
	tl := s.Timeline()

	tl.OnScrub(500)
	if s.CurrentFrame() != 500 {
		t.Fatalf("scrub to 500 left frame %g", s.CurrentFrame())
	}
	tl.OnScrub(EmptyRange + 50)
	if s.CurrentFrame() != EmptyRange {
		t.Fatalf("scrub past range: frame %g", s.CurrentFrame())
	}
	tl.OnScrub(-5)
	if s.CurrentFrame() != 0 {
		t.Fatalf("scrub before range: frame %g", s.CurrentFrame())
	}
	if _, err := s.Frame(); err != nil {
		t.Fatalf("bind-pose frame after scrub: %v", err)
	}
}

func TestSetModelNilKeepsScene(t *testing.T) {
	s := New(Options{})
	m := mustModel(t)
	s.SetModel(m)
	p := s.Poser()

	s.SetModel(nil)
	if s.Model() != m || s.Poser() != p {
		t.Fatalf("nil model replaced the scene")
	}
}

func TestFrameFollowsMotion(t *testing.T) {
	s := New(Options{})
	s.SetModel(mustModel(t))
	s.SetMotion(motion.FromVMD(walk(), motion.Options{}))
	s.SeekFrame(60)
	img, err := s.Frame()
	if err != nil {
		t.Fatal(err)
	}
	// センター moves 10 MMD units along Z, 1 m after scaling
	if z := img.Vertices()[0].Pos[2]; z < 0.999 || z > 1.001 {
		t.Fatalf("z = %g", z)
	}
}

func mustModel(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.FromPMX(stripDoc(2), model.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return m
}
