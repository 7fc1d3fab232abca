package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadTOMLAndResolveRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.toml")
	body := `
model = "miku/miku.pmx"
motion = "dance.vmd"
render_size = 256
frame_step = 2
yaw = 30.0
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Resolve(Flags{Size: 128})

	if cfg.Model != filepath.Join(dir, "miku", "miku.pmx") || cfg.Motion != filepath.Join(dir, "dance.vmd") {
		t.Fatalf("paths = %q %q", cfg.Model, cfg.Motion)
	}
	if cfg.OutputDir != filepath.Join(dir, "miku", "miku-renders") {
		t.Fatalf("output dir = %q", cfg.OutputDir)
	}
	if cfg.RenderSize != 128 || cfg.FrameStep != 2 || cfg.Yaw != 30 {
		t.Fatalf("settings = %+v", cfg)
	}
}

func TestLoadJSONDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.json")
	if err := os.WriteFile(path, []byte(`{"model": "/abs/m.pmx", "fov": -1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Resolve(Flags{})
	if cfg.Model != "/abs/m.pmx" {
		t.Fatalf("absolute path rewritten: %q", cfg.Model)
	}
	if cfg.RenderSize != 512 || cfg.Supersample != 2 || cfg.FPS != 30 || cfg.FrameStep != 1 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Workers != runtime.NumCPU() || cfg.UnitScale != 0.1 || cfg.FOV != 0 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadReportsParseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("model = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("bad toml accepted")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("missing file accepted")
	}
}
