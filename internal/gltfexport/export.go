// Package gltfexport writes a posed frame as a binary glTF file.
package gltfexport

import (
	"fmt"
	"path"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"mmd-pose-renderer/internal/mathutil"
	"mmd-pose-renderer/internal/poser"
)

// Options controls what goes into the exported document.
type Options struct {
	Name     string // mesh and scene name; defaults to the model name
	Skeleton bool   // add one node per bone at its posed position
}

// Build converts the poser's last deformed frame to a glTF document.
// MMD is left-handed, so Z is negated and triangle winding reversed.
// Textures are referenced by their model-relative path, not embedded.
func Build(p *poser.Poser, opts Options) (*gltf.Document, error) {
	m := p.Model()
	verts := p.Image().Vertices()
	if len(verts) == 0 {
		return nil, fmt.Errorf("gltfexport: %w", poser.ErrNoVertices)
	}
	name := opts.Name
	if name == "" {
		name = m.Name
	}

	positions := make([][3]float32, len(verts))
	normals := make([][3]float32, len(verts))
	uvs := make([][2]float32, len(verts))
	for i, v := range verts {
		positions[i] = [3]float32{v.Pos[0], v.Pos[1], -v.Pos[2]}
		n := [3]float32{v.Normal[0], v.Normal[1], -v.Normal[2]}
		if n == ([3]float32{}) {
			n[1] = 1
		}
		normals[i] = n
		uvs[i] = v.UV
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "mmd-pose-renderer"
	posAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, normals)
	uvAccessor := modeler.WriteTextureCoord(doc, uvs)

	textures := map[string]uint32{}
	mesh := &gltf.Mesh{Name: name}
	for _, part := range m.Parts() {
		if !part.Visible() {
			continue
		}
		src := m.Indices[part.Start : part.Start+part.Count]
		indices := make([]uint32, 0, len(src))
		for t := 0; t+2 < len(src); t += 3 {
			indices = append(indices, src[t+2], src[t+1], src[t])
		}

		mat := &gltf.Material{
			Name:        part.Name,
			DoubleSided: part.DoubleSided,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{part.Diffuse[0], part.Diffuse[1], part.Diffuse[2], part.Diffuse[3]},
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
			AlphaMode: gltf.AlphaOpaque,
		}
		if part.Diffuse[3] < 1 {
			mat.AlphaMode = gltf.AlphaBlend
		}
		if part.Texture != "" {
			tex, ok := textures[part.Texture]
			if !ok {
				tex = addTexture(doc, part.Texture)
				textures[part.Texture] = tex
			}
			mat.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: tex}
		}
		doc.Materials = append(doc.Materials, mat)

		mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
			Attributes: map[string]uint32{
				gltf.POSITION:   posAccessor,
				gltf.NORMAL:     normalAccessor,
				gltf.TEXCOORD_0: uvAccessor,
			},
			Indices:  gltf.Index(modeler.WriteIndices(doc, indices)),
			Material: gltf.Index(uint32(len(doc.Materials) - 1)),
		})
	}
	if len(mesh.Primitives) == 0 {
		return nil, fmt.Errorf("gltfexport: model %q has no visible parts", m.Name)
	}

	doc.Meshes = []*gltf.Mesh{mesh}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Name = name
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	if len(doc.Textures) > 0 {
		doc.Samplers = []*gltf.Sampler{{
			MagFilter: gltf.MagLinear,
			MinFilter: gltf.MinLinear,
			WrapS:     gltf.WrapRepeat,
			WrapT:     gltf.WrapRepeat,
		}}
	}
	if opts.Skeleton {
		addSkeleton(doc, p)
	}
	return doc, nil
}

func addTexture(doc *gltf.Document, texPath string) uint32 {
	doc.Images = append(doc.Images, &gltf.Image{Name: path.Base(texPath), URI: texPath})
	doc.Textures = append(doc.Textures, &gltf.Texture{
		Sampler: gltf.Index(0),
		Source:  gltf.Index(uint32(len(doc.Images) - 1)),
	})
	return uint32(len(doc.Textures) - 1)
}

// addSkeleton appends the posed bones as a node tree under a "skeleton"
// root. Bones are already parent-first, so children always follow their
// parent node.
func addSkeleton(doc *gltf.Document, p *poser.Poser) {
	bones := p.Model().Bones
	root := uint32(len(doc.Nodes))
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "skeleton"})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, root)

	world := make([]mathutil.Vec3, len(bones))
	for i, b := range bones {
		world[i] = mathutil.Position(p.BoneWorld(i))
		rel := world[i]
		parent := root
		if b.Parent >= 0 {
			rel = rel.Sub(world[b.Parent])
			parent = root + 1 + uint32(b.Parent)
		}
		idx := uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        b.Name,
			Translation: [3]float32{float32(rel[0]), float32(rel[1]), float32(-rel[2])},
		})
		doc.Nodes[parent].Children = append(doc.Nodes[parent].Children, idx)
	}
}

// Save writes the poser's last deformed frame to path as GLB.
func Save(outPath string, p *poser.Poser, opts Options) error {
	doc, err := Build(p, opts)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, outPath); err != nil {
		return fmt.Errorf("gltfexport: write %s: %w", outPath, err)
	}
	return nil
}
