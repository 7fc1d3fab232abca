package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"mmd-pose-renderer/internal/gltfexport"
	"mmd-pose-renderer/internal/session"
)

func main() {
	motionPath := flag.String("motion", "", "VMD motion to pose the model with")
	frame := flag.Float64("frame", 0, "Motion frame to export")
	out := flag.String("out", "", "Output .glb path (default: <model>.glb next to the model)")
	skeleton := flag.Bool("skeleton", false, "Also export the posed bones as nodes")
	unit := flag.Float64("unit", 0, "MMD unit to meter scale (default: 0.1)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: exportglb [-motion file.vmd] [-frame N] [-out file.glb] model.pmx")
		os.Exit(2)
	}
	modelPath := flag.Arg(0)

	s := session.New(session.Options{
		UnitScale: *unit,
		Logger:    log.New(os.Stderr, "", 0),
	})
	if err := s.LoadModel(modelPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *motionPath != "" {
		if err := s.LoadMotion(*motionPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	s.SeekFrame(*frame)
	if _, err := s.Frame(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: pose frame %.0f: %v\n", *frame, err)
		os.Exit(1)
	}

	if *out == "" {
		*out = strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".glb"
	}
	if err := gltfexport.Save(*out, s.Poser(), gltfexport.Options{Skeleton: *skeleton}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (frame %.0f)\n", *out, s.CurrentFrame())
}
