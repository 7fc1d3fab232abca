// Package model builds the immutable, validated skinned mesh the poser
// works on. Bones are stored parents-first; every index in a Model is
// range-checked at construction.
package model

import (
	"mmd-pose-renderer/internal/mathutil"
	"mmd-pose-renderer/internal/vmd"
)

// MaxInfluences is the number of bone weights a vertex carries.
const MaxInfluences = 4

// Vertex is a bind-pose vertex with up to MaxInfluences bone weights.
type Vertex struct {
	Position mathutil.Vec3
	Normal   mathutil.Vec3
	UV       [2]float64
	Bones    [MaxInfluences]int
	Weights  [MaxInfluences]float64 // sum to 1 over the first Count slots
	Count    int                    // 0 for a vertex no bone moves
}

// Inherit copies a fraction of another bone's animated rotation and/or
// translation (PMX "append" bones).
type Inherit struct {
	Parent      int
	Weight      float64
	Rotation    bool
	Translation bool
}

// IKLink is one joint the solver may rotate, optionally limited per axis.
type IKLink struct {
	Bone    int
	Limited bool
	Min     mathutil.Vec3 // Euler XYZ, radians
	Max     mathutil.Vec3
}

// IK is a CCD chain that rotates Links to bring Target onto the IK bone.
type IK struct {
	Target     int
	Loop       int
	LimitAngle float64
	Links      []IKLink
}

// Bone is one joint of the skeleton in bind pose.
type Bone struct {
	Name         string
	NameEn       string
	SourceIndex  int // index in the PMX file
	Parent       int // -1 for a root; always less than the bone's own index
	Position     mathutil.Vec3
	Offset       mathutil.Vec3 // Position relative to the parent
	BindInverse  mathutil.Mat4
	Layer        int
	AfterPhysics bool
	Inherit      *Inherit
	IK           *IK
}

// MorphKind selects which offsets a Morph carries.
type MorphKind int

const (
	MorphGroup MorphKind = iota
	MorphVertex
	MorphBone
	MorphUV
	MorphExtraUV
	MorphMaterial
	MorphFlip
	MorphImpulse
)

func (k MorphKind) String() string {
	return [...]string{"group", "vertex", "bone", "uv", "extra-uv", "material", "flip", "impulse"}[k]
}

// VertexOffset moves one vertex by Offset at full weight.
type VertexOffset struct {
	Vertex int
	Offset mathutil.Vec3
}

// UVOffset shifts one vertex's UV at full weight.
type UVOffset struct {
	Vertex int
	Offset [2]float64
}

// BoneOffset adds a translation and rotation to a bone at full weight.
type BoneOffset struct {
	Bone        int
	Translation mathutil.Vec3
	Rotation    mathutil.Quat
}

// GroupMember drives another morph with a scaled weight.
type GroupMember struct {
	Morph  int
	Weight float64
}

// Morph is a named blend target. Only the slice matching Kind is set;
// material, flip and impulse morphs carry no offsets.
type Morph struct {
	Name   string
	NameEn string
	Panel  int
	Kind   MorphKind
	Vertex []VertexOffset
	UV     []UVOffset
	Bone   []BoneOffset
	Group  []GroupMember
}

// Part is one material's run of triangle indices.
type Part struct {
	Name        string
	Start       int // first entry in Model.Indices
	Count       int // multiple of 3
	Texture     string
	Diffuse     [4]float32
	DoubleSided bool
}

// Visible reports whether the part has any opacity.
func (p Part) Visible() bool { return p.Diffuse[3] > 0 && p.Count > 0 }

// Model is immutable after construction and safe to share between posers.
type Model struct {
	Name     string
	Dir      string // directory texture paths are relative to
	Vertices []Vertex
	Indices  []uint32
	Bones    []Bone
	Morphs   []Morph
	parts    []Part

	boneIndex  map[string]int
	morphIndex map[string]int
	boneFit    map[string]int
	morphFit   map[string]int
}

// Parts returns the per-material index ranges in draw order.
func (m *Model) Parts() []Part { return m.parts }

// TriangleCount is the number of triangles across all parts.
func (m *Model) TriangleCount() int { return len(m.Indices) / 3 }

// BoneIndex resolves a bone by exact name, then by the 15-byte Shift-JIS
// cut VMD files store.
func (m *Model) BoneIndex(name string) (int, bool) {
	if i, ok := m.boneIndex[name]; ok {
		return i, true
	}
	i, ok := m.boneFit[name]
	return i, ok
}

// MorphIndex resolves a morph the same way as BoneIndex.
func (m *Model) MorphIndex(name string) (int, bool) {
	if i, ok := m.morphIndex[name]; ok {
		return i, true
	}
	i, ok := m.morphFit[name]
	return i, ok
}

func (m *Model) buildNameIndex() {
	m.boneIndex = make(map[string]int, len(m.Bones))
	m.boneFit = make(map[string]int, len(m.Bones))
	for i, b := range m.Bones {
		addName(m.boneIndex, m.boneFit, b.Name, i)
	}
	m.morphIndex = make(map[string]int, len(m.Morphs))
	m.morphFit = make(map[string]int, len(m.Morphs))
	for i, mo := range m.Morphs {
		addName(m.morphIndex, m.morphFit, mo.Name, i)
	}
}

// addName keeps the first index for duplicate names.
func addName(exact, fit map[string]int, name string, i int) {
	if _, dup := exact[name]; !dup {
		exact[name] = i
	}
	f := vmd.FitName(name)
	if _, dup := fit[f]; !dup {
		fit[f] = i
	}
}
