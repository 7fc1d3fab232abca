package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"mmd-pose-renderer/internal/mathutil"
)

// Config holds the input paths, render settings and camera of a render job.
type Config struct {
	// Paths
	BaseDir   string `json:"base_dir" toml:"base_dir"`
	Model     string `json:"model" toml:"model"`
	Motion    string `json:"motion" toml:"motion"`
	OutputDir string `json:"output_dir" toml:"output_dir"`

	// Render settings
	RenderSize  int `json:"render_size" toml:"render_size"`
	Supersample int `json:"supersample" toml:"supersample"`
	Workers     int `json:"workers" toml:"workers"`

	// Timeline
	FPS        float64 `json:"fps" toml:"fps"`
	StartFrame int     `json:"start_frame" toml:"start_frame"`
	EndFrame   int     `json:"end_frame" toml:"end_frame"` // 0 = motion length
	FrameStep  int     `json:"frame_step" toml:"frame_step"`

	// Units and camera
	UnitScale float64 `json:"unit_scale" toml:"unit_scale"`
	Yaw       float64 `json:"yaw" toml:"yaw"`
	Pitch     float64 `json:"pitch" toml:"pitch"`
	FOV       float64 `json:"fov" toml:"fov"` // degrees, 0 = orthographic
}

// Load reads a JSON or TOML (by .toml extension) config file. Fields not
// set in the file keep their zero values. A BaseDir left empty becomes the
// file's directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Dir(path)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Model     string
	Motion    string
	OutputDir string
	Size      int
	Workers   int
	Step      int
	Start     int
	End       int
	Yaw       float64
	Pitch     float64
}

// Resolve applies flags and fills in defaults. CLI flags take priority
// when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.Model != "" {
		c.Model = flags.Model
	}
	if flags.Motion != "" {
		c.Motion = flags.Motion
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Size > 0 {
		c.RenderSize = flags.Size
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Step > 0 {
		c.FrameStep = flags.Step
	}
	if flags.Start > 0 {
		c.StartFrame = flags.Start
	}
	if flags.End > 0 {
		c.EndFrame = flags.End
	}
	if flags.Yaw != 0 {
		c.Yaw = flags.Yaw
	}
	if flags.Pitch != 0 {
		c.Pitch = flags.Pitch
	}

	// Resolve relative paths against base dir
	if c.BaseDir != "" {
		for _, p := range []*string{&c.Model, &c.Motion, &c.OutputDir} {
			if *p != "" && !filepath.IsAbs(*p) {
				*p = filepath.Join(c.BaseDir, *p)
			}
		}
	}
	if c.OutputDir == "" {
		c.OutputDir = "renders"
		if c.Model != "" {
			stem := strings.TrimSuffix(filepath.Base(c.Model), filepath.Ext(c.Model))
			c.OutputDir = filepath.Join(filepath.Dir(c.Model), stem+"-renders")
		}
	}

	// Defaults for render settings
	if c.RenderSize <= 0 {
		c.RenderSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.FrameStep <= 0 {
		c.FrameStep = 1
	}
	if c.StartFrame < 0 {
		c.StartFrame = 0
	}
	if c.UnitScale <= 0 {
		c.UnitScale = mathutil.DefaultUnitScale
	}
	if c.FOV < 0 {
		c.FOV = 0
	} else if c.FOV == 0 {
		c.FOV = 30
	}
}
