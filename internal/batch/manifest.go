package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Manifest describes a rendered frame sequence.
type Manifest struct {
	Model  string          `json:"model"`
	Motion string          `json:"motion,omitempty"`
	FPS    float64         `json:"fps"`
	Size   int             `json:"size"`
	Frames []ManifestEntry `json:"frames"`
}

// ManifestEntry represents one successfully rendered frame.
type ManifestEntry struct {
	Frame int     `json:"frame"`
	Time  float64 `json:"time"` // seconds
	Image string  `json:"image"`
	BBox  [4]int  `json:"bbox"` // x0, y0, x1, y1 of non-transparent pixels
}

// NewManifest collects the successful results in frame order.
func NewManifest(modelPath, motionPath string, fps float64, size int, results []Result) Manifest {
	m := Manifest{
		Model:  filepath.Base(modelPath),
		FPS:    fps,
		Size:   size,
		Frames: []ManifestEntry{},
	}
	if motionPath != "" {
		m.Motion = filepath.Base(motionPath)
	}
	for _, r := range results {
		if !r.Success {
			continue
		}
		e := ManifestEntry{
			Frame: r.Frame,
			Image: r.Image,
			BBox:  [4]int{r.Bounds.Min.X, r.Bounds.Min.Y, r.Bounds.Max.X, r.Bounds.Max.Y},
		}
		if fps > 0 {
			e.Time = float64(r.Frame) / fps
		}
		m.Frames = append(m.Frames, e)
	}
	return m
}

// WriteManifest writes m as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
