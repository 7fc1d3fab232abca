// Package batch renders a range of motion frames to WebP files in parallel.
package batch

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"mmd-pose-renderer/internal/model"
	"mmd-pose-renderer/internal/motion"
	"mmd-pose-renderer/internal/player"
	"mmd-pose-renderer/internal/poser"
	"mmd-pose-renderer/internal/postprocess"
	"mmd-pose-renderer/internal/raster"
	"mmd-pose-renderer/internal/texture"
	"mmd-pose-renderer/internal/viewmatrix"
)

// Config holds all shared resources for a batch run. Model and Motion are
// read-only and shared by every worker.
type Config struct {
	Model       *model.Model
	Motion      *motion.Motion // nil renders the bind pose
	Textures    texture.Resolver
	OutputDir   string
	RenderSize  int
	Supersample int
	Workers     int
	Camera      viewmatrix.Camera
	Progress    io.Writer // nil disables progress lines
}

// Result holds the outcome of rendering one frame.
type Result struct {
	Frame   int
	Image   string // relative to OutputDir
	Bounds  image.Rectangle
	Success bool
	Error   string
}

// Frames lists start, start+step, ... up to and including end.
func Frames(start, end, step int) []int {
	if step < 1 {
		step = 1
	}
	var out []int
	for f := start; f <= end; f += step {
		out = append(out, f)
	}
	return out
}

// FramePath is the output file of frame f relative to the output directory.
func FramePath(f int) string {
	return filepath.ToSlash(filepath.Join("frames", fmt.Sprintf("%05d.webp", f)))
}

// Run renders every frame using a worker pool. All frames share one camera
// fitted to the union of their deformed bounds.
func Run(cfg Config, frames []int) ([]Result, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("batch: no model")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Supersample < 1 {
		cfg.Supersample = 1
	}
	if err := os.MkdirAll(filepath.Join(cfg.OutputDir, "frames"), 0755); err != nil {
		return nil, fmt.Errorf("batch: create output: %w", err)
	}

	view, err := fitView(cfg, frames)
	if err != nil {
		return nil, err
	}

	total := len(frames)
	results := make([]Result, total)
	var processed atomic.Int64
	start := time.Now()

	done := make(chan struct{})
	if cfg.Progress != nil {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if p := processed.Load(); p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						fmt.Fprintf(cfg.Progress, "  [%d/%d] %.1f frames/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	frameChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wk := newWorker(cfg)
			for idx := range frameChan {
				results[idx] = wk.render(frames[idx], &view)
				processed.Add(1)
			}
		}()
	}

	for i := range frames {
		frameChan <- i
	}
	close(frameChan)

	wg.Wait()
	close(done)

	return results, nil
}

// worker owns the per-goroutine posing state over the shared model.
type worker struct {
	cfg      Config
	poser    *poser.Poser
	player   *player.Player
	renderer *raster.Renderer
}

func newWorker(cfg Config) *worker {
	p := poser.New(cfg.Model)
	w := &worker{
		cfg:      cfg,
		poser:    p,
		renderer: raster.NewRenderer(cfg.RenderSize*cfg.Supersample, cfg.Textures),
	}
	if cfg.Motion != nil {
		w.player = player.New(cfg.Motion, p)
	}
	return w
}

func (w *worker) pose(frame int) (*poser.PoseImage, error) {
	w.poser.ResetPosing()
	if w.player != nil {
		w.player.SeekFrame(float64(frame))
	}
	w.poser.PrePhysicsPosing()
	w.poser.PostPhysicsPosing()
	if err := w.poser.Deform(); err != nil {
		return nil, err
	}
	return w.poser.Image(), nil
}

func (w *worker) render(frame int, view *viewmatrix.View) Result {
	res := Result{Frame: frame, Image: FramePath(frame)}

	pi, err := w.pose(frame)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	img := w.renderer.Render(pi, w.cfg.Model, view)
	if w.cfg.Supersample > 1 {
		img = postprocess.Downsample(img, w.cfg.RenderSize)
	}
	res.Bounds = postprocess.AlphaBounds(img)

	if err := writeWebP(filepath.Join(w.cfg.OutputDir, filepath.FromSlash(res.Image)), img); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

// fitView poses every frame once and fits the camera to the union of the
// deformed bounds, so the model does not jump between frames.
func fitView(cfg Config, frames []int) (viewmatrix.View, error) {
	w := newWorker(cfg)
	lo := [3]float32{1e30, 1e30, 1e30}
	hi := [3]float32{-1e30, -1e30, -1e30}
	for _, f := range frames {
		pi, err := w.pose(f)
		if err != nil {
			return viewmatrix.View{}, fmt.Errorf("batch: pose frame %d: %w", f, err)
		}
		flo, fhi := pi.Bounds()
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], flo[k])
			hi[k] = max(hi[k], fhi[k])
		}
	}
	if len(frames) == 0 {
		lo, hi = [3]float32{}, [3]float32{}
	}
	size := cfg.RenderSize * cfg.Supersample
	return viewmatrix.Fit(lo, hi, cfg.Camera, size, 16*cfg.Supersample), nil
}

func writeWebP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("webp encode: %w", err)
	}
	return f.Close()
}
