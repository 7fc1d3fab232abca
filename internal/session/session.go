// Package session owns a loaded model and motion together with their
// poser, player and playback state. Loading replaces the whole scene at
// once, so a frame never mixes two models.
package session

import (
	"errors"
	"io"
	"log"
	"math"

	"mmd-pose-renderer/internal/mathutil"
	"mmd-pose-renderer/internal/model"
	"mmd-pose-renderer/internal/motion"
	"mmd-pose-renderer/internal/player"
	"mmd-pose-renderer/internal/poser"
)

// DefaultFPS is MMD's frame rate.
const DefaultFPS = 30

// ErrNoModel is returned by Frame before a model is set.
var ErrNoModel = errors.New("session: no model loaded")

// State is the playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "stopped"
}

// Options configures a Session.
type Options struct {
	UnitScale float64     // 0 means mathutil.DefaultUnitScale
	FPS       float64     // 0 means DefaultFPS
	Loop      bool        // wrap to frame 0 at the end of the motion
	Logger    *log.Logger // nil discards
}

// scene is immutable once built; the session swaps it whole.
type scene struct {
	model  *model.Model
	motion *motion.Motion
	poser  *poser.Poser
	player *player.Player
}

// Session is not safe for concurrent use.
type Session struct {
	opts  Options
	log   *log.Logger
	scene *scene
	state State
	frame float64
}

// New creates an empty session stopped at frame 0.
func New(opts Options) *Session {
	if opts.UnitScale == 0 {
		opts.UnitScale = mathutil.DefaultUnitScale
	}
	if opts.FPS == 0 {
		opts.FPS = DefaultFPS
	}
	s := &Session{opts: opts, log: opts.Logger, scene: &scene{}}
	if s.log == nil {
		s.log = log.New(io.Discard, "", 0)
	}
	return s
}

func (s *Session) logf(format string, args ...any) {
	s.log.Printf("[session] "+format, args...)
}

// LoadModel reads a PMX file. On failure the current scene is kept.
func (s *Session) LoadModel(path string) error {
	m, err := model.Load(path, model.Options{UnitScale: s.opts.UnitScale})
	if err != nil {
		s.logf("load model %s: %v", path, err)
		return err
	}
	s.SetModel(m)
	return nil
}

// SetModel replaces the model. A fresh poser is built for it and the
// current motion is rebound to that poser. A nil model is ignored.
func (s *Session) SetModel(m *model.Model) {
	if m == nil {
		return
	}
	next := &scene{model: m, motion: s.scene.motion, poser: poser.New(m)}
	if next.motion != nil {
		next.player = player.New(next.motion, next.poser)
	}
	s.scene = next
	s.logf("model %q: %d vertices, %d bones, %d morphs", m.Name, len(m.Vertices), len(m.Bones), len(m.Morphs))
	s.logBinding()
}

// LoadMotion reads a VMD file. On failure the current scene is kept.
func (s *Session) LoadMotion(path string) error {
	mo, err := motion.Load(path, motion.Options{UnitScale: s.opts.UnitScale})
	if err != nil {
		s.logf("load motion %s: %v", path, err)
		return err
	}
	s.SetMotion(mo)
	return nil
}

// SetMotion replaces the motion and rewinds playback. A nil motion leaves
// the model in its bind pose.
func (s *Session) SetMotion(mo *motion.Motion) {
	next := &scene{model: s.scene.model, motion: mo, poser: s.scene.poser}
	if mo != nil && next.poser != nil {
		next.player = player.New(mo, next.poser)
	}
	s.scene = next
	s.frame = 0
	if mo != nil {
		s.logf("motion %q: %d tracks, %d frames", mo.Name, mo.TrackCount(), mo.Length())
	}
	s.logBinding()
}

func (s *Session) logBinding() {
	if pl := s.scene.player; pl != nil && len(pl.Unbound()) > 0 {
		s.logf("%d of %d tracks match nothing in the model", len(pl.Unbound()), s.scene.motion.TrackCount())
	}
}

// Model, Motion, Poser and Player expose the current scene; each may be nil.
func (s *Session) Model() *model.Model    { return s.scene.model }
func (s *Session) Motion() *motion.Motion { return s.scene.motion }
func (s *Session) Poser() *poser.Poser    { return s.scene.poser }
func (s *Session) Player() *player.Player { return s.scene.player }

// Frame poses the model at the current frame and returns the deformed
// vertices. The image is reused by the next call.
func (s *Session) Frame() (*poser.PoseImage, error) {
	sc := s.scene
	if sc.poser == nil {
		return nil, ErrNoModel
	}
	sc.poser.ResetPosing()
	if sc.player != nil {
		sc.player.SeekFrame(s.frame)
	}
	sc.poser.PrePhysicsPosing()
	sc.poser.PostPhysicsPosing()
	if err := sc.poser.Deform(); err != nil {
		return nil, err
	}
	return sc.poser.Image(), nil
}

// Play starts or resumes playback from the current frame.
func (s *Session) Play() { s.state = Playing }

// Pause holds the current frame; it has no effect unless playing.
func (s *Session) Pause() {
	if s.state == Playing {
		s.state = Paused
	}
}

// Stop halts playback and rewinds to frame 0.
func (s *Session) Stop() {
	s.state = Stopped
	s.frame = 0
}

// State reports the playback state.
func (s *Session) State() State { return s.state }

// CurrentFrame is the playhead position in frames.
func (s *Session) CurrentFrame() float64 { return s.frame }

// Length is the last keyed frame of the motion, 0 without one.
func (s *Session) Length() float64 {
	if s.scene.motion == nil {
		return 0
	}
	return float64(s.scene.motion.Length())
}

// SeekFrame moves the playhead, clamped to [0, Length]. The play state is
// unchanged, so a scrub during playback continues from the new frame.
func (s *Session) SeekFrame(frame float64) {
	s.frame = min(max(frame, 0), s.Length())
}

// Advance moves the playhead by dt seconds when playing. At the end of
// the motion it wraps when looping and pauses otherwise.
func (s *Session) Advance(dt float64) {
	if s.state != Playing {
		return
	}
	length := s.Length()
	f := s.frame + dt*s.opts.FPS
	switch {
	case length <= 0:
		f = 0
	case f > length && s.opts.Loop:
		f = math.Mod(f, length)
	case f > length:
		f = length
		s.state = Paused
	}
	s.frame = f
}
