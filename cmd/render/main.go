package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mmd-pose-renderer/internal/batch"
	"mmd-pose-renderer/internal/config"
	"mmd-pose-renderer/internal/model"
	"mmd-pose-renderer/internal/motion"
	"mmd-pose-renderer/internal/player"
	"mmd-pose-renderer/internal/poser"
	"mmd-pose-renderer/internal/texture"
	"mmd-pose-renderer/internal/viewmatrix"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config .json or .toml file")
	modelPath := flag.String("model", "", "PMX model file")
	motionPath := flag.String("motion", "", "VMD motion file (default: bind pose only)")
	outputDir := flag.String("output", "", "Output directory (default: <model>-renders next to the model)")
	size := flag.Int("size", 0, "Output image size in pixels (default: 512)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	step := flag.Int("step", 0, "Render every Nth frame (default: 1)")
	startFrame := flag.Int("start", 0, "First frame to render")
	endFrame := flag.Int("end", 0, "Last frame to render (default: motion length)")
	yaw := flag.Float64("yaw", 0, "Camera yaw in degrees")
	pitch := flag.Float64("pitch", 0, "Camera pitch in degrees")
	testN := flag.Int("test", 0, "Render only the first N frames for testing")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Model:     *modelPath,
		Motion:    *motionPath,
		OutputDir: *outputDir,
		Size:      *size,
		Workers:   *workers,
		Step:      *step,
		Start:     *startFrame,
		End:       *endFrame,
		Yaw:       *yaw,
		Pitch:     *pitch,
	})

	if cfg.Model == "" {
		fmt.Fprintln(os.Stderr, "Error: no model. Use -model or set model in the config file.")
		os.Exit(1)
	}

	mdl, err := model.Load(cfg.Model, model.Options{UnitScale: cfg.UnitScale})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading model: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Model: %s (%d vertices, %d triangles, %d bones, %d morphs)\n",
		mdl.Name, len(mdl.Vertices), mdl.TriangleCount(), len(mdl.Bones), len(mdl.Morphs))

	var mot *motion.Motion
	end := cfg.EndFrame
	if cfg.Motion != "" {
		mot, err = motion.Load(cfg.Motion, motion.Options{UnitScale: cfg.UnitScale})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading motion: %v\n", err)
			os.Exit(1)
		}
		pl := player.New(mot, poser.New(mdl))
		fmt.Printf("Motion: %s (%d frames, %d/%d tracks bound)\n",
			filepath.Base(cfg.Motion), mot.Length(), pl.BoundCount(), mot.TrackCount())
		if end == 0 {
			end = int(mot.Length())
		}
	}
	frames := batch.Frames(cfg.StartFrame, max(end, cfg.StartFrame), cfg.FrameStep)

	// Limit for testing
	if *testN > 0 && *testN < len(frames) {
		frames = frames[:*testN]
	}

	// Build texture index
	texIndex := texture.BuildIndex(mdl.Dir)
	texCache := texture.NewCache(texIndex)
	fmt.Printf("Textures: %d indexed\n", texIndex.Len())

	fmt.Printf("MMD pose renderer → WebP\n")
	fmt.Printf("Frames: %d, Workers: %d, Size: %d (x%d supersample)\n",
		len(frames), cfg.Workers, cfg.RenderSize, cfg.Supersample)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	results, err := batch.Run(batch.Config{
		Model:       mdl,
		Motion:      mot,
		Textures:    texCache,
		OutputDir:   cfg.OutputDir,
		RenderSize:  cfg.RenderSize,
		Supersample: cfg.Supersample,
		Workers:     cfg.Workers,
		Camera:      viewmatrix.Camera{Yaw: cfg.Yaw, Pitch: cfg.Pitch, FOV: cfg.FOV},
		Progress:    os.Stdout,
	}, frames)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	var failures []batch.Result
	for _, r := range results {
		if !r.Success {
			failures = append(failures, r)
		}
	}
	fmt.Printf("Rendered: %d/%d\n", len(results)-len(failures), len(results))

	if len(failures) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failures))
		for _, f := range failures[:min(len(failures), 20)] {
			fmt.Printf("  frame %d: %s\n", f.Frame, f.Error)
		}
	}
	for _, err := range texCache.Failures() {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	manifest := batch.NewManifest(cfg.Model, cfg.Motion, cfg.FPS, cfg.RenderSize, results)
	if err := batch.WriteManifest(manifestPath, manifest); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if len(failures) > 0 {
		os.Exit(1)
	}
}
