package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"mmd-pose-renderer/internal/model"
	"mmd-pose-renderer/internal/motion"
	"mmd-pose-renderer/internal/player"
	"mmd-pose-renderer/internal/poser"
)

func main() {
	motionPath := flag.String("motion", "", "VMD motion to bind against the model")
	unit := flag.Float64("unit", 0, "MMD unit to meter scale (default: 0.1)")
	verbose := flag.Bool("v", false, "List every bone, morph and part")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: inspect [-motion file.vmd] [-v] model.pmx")
		os.Exit(2)
	}

	m, err := model.Load(flag.Arg(0), model.Options{UnitScale: *unit})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded PMX model: %s\n", m.Name)
	fmt.Printf("  Vertices: %d, Triangles: %d, Bones: %d, Morphs: %d, Parts: %d\n",
		len(m.Vertices), m.TriangleCount(), len(m.Bones), len(m.Morphs), len(m.Parts()))

	p := poser.New(m)
	p.ResetPosing()
	if err := p.Deform(); err == nil {
		lo, hi := p.Image().Bounds()
		fmt.Printf("  BBox: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n", lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
	}

	ik, inherit, after := 0, 0, 0
	for _, b := range m.Bones {
		if b.IK != nil {
			ik++
		}
		if b.Inherit != nil {
			inherit++
		}
		if b.AfterPhysics {
			after++
		}
	}
	fmt.Printf("  IK bones: %d, Inherit bones: %d, After-physics bones: %d\n", ik, inherit, after)

	kinds := map[model.MorphKind]int{}
	for _, mo := range m.Morphs {
		kinds[mo.Kind]++
	}
	for k := model.MorphGroup; k <= model.MorphImpulse; k++ {
		if kinds[k] > 0 {
			fmt.Printf("  %s morphs: %d\n", k, kinds[k])
		}
	}

	hidden := 0
	for _, part := range m.Parts() {
		if !part.Visible() {
			hidden++
		}
	}
	if hidden > 0 {
		fmt.Printf("  Hidden parts: %d\n", hidden)
	}

	if *verbose {
		for i, b := range m.Bones {
			parent := "-"
			if b.Parent >= 0 {
				parent = m.Bones[b.Parent].Name
			}
			fmt.Printf("  Bone[%d] %q parent=%q layer=%d\n", i, b.Name, parent, b.Layer)
		}
		for i, mo := range m.Morphs {
			fmt.Printf("  Morph[%d] %q kind=%s\n", i, mo.Name, mo.Kind)
		}
		for i, part := range m.Parts() {
			fmt.Printf("  Part[%d] %q tris=%d texture=%q alpha=%.2f\n", i, part.Name, part.Count/3, part.Texture, part.Diffuse[3])
		}
	}

	if *motionPath == "" {
		return
	}
	mot, err := motion.Load(*motionPath, motion.Options{UnitScale: *unit})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	pl := player.New(mot, p)
	fmt.Printf("Loaded VMD motion: %s\n", filepath.Base(*motionPath))
	fmt.Printf("  Length: %d frames, Bone tracks: %d, Morph tracks: %d\n", mot.Length(), len(mot.Bones), len(mot.Morphs))
	fmt.Printf("  Bound: %d/%d\n", pl.BoundCount(), mot.TrackCount())
	if unbound := pl.Unbound(); len(unbound) > 0 {
		fmt.Printf("  Unbound tracks (%d):\n", len(unbound))
		for _, name := range unbound {
			fmt.Printf("    %s\n", name)
		}
	}
}
