// Package pmx decodes PMX 2.0/2.1 model files into their raw record form.
package pmx

// Text encodings declared in the header.
const (
	EncodingUTF16 uint8 = 0
	EncodingUTF8  uint8 = 1
)

// Header holds the globals block that sizes every later record.
type Header struct {
	Version            float32
	Encoding           uint8
	AdditionalUVs      int
	VertexIndexSize    uint8
	TextureIndexSize   uint8
	MaterialIndexSize  uint8
	BoneIndexSize      uint8
	MorphIndexSize     uint8
	RigidBodyIndexSize uint8
}

// Document is a decoded PMX file. Display frames, rigid bodies and joints
// follow the morphs in the file and are not decoded.
type Document struct {
	Header    Header
	Name      string
	NameEn    string
	Comment   string
	CommentEn string
	Vertices  []Vertex
	Indices   []uint32 // three per triangle
	Textures  []string
	Materials []Material
	Bones     []Bone
	Morphs    []Morph
}

// WeightType is the vertex deform kind.
type WeightType uint8

const (
	BDEF1 WeightType = iota
	BDEF2
	BDEF4
	SDEF
	QDEF
)

func (w WeightType) String() string {
	switch w {
	case BDEF1:
		return "BDEF1"
	case BDEF2:
		return "BDEF2"
	case BDEF4:
		return "BDEF4"
	case SDEF:
		return "SDEF"
	case QDEF:
		return "QDEF"
	}
	return "unknown"
}

// Vertex is one vertex record. Bones/Weights are filled per Weight:
// BDEF1 uses slot 0, BDEF2 and SDEF slots 0-1 (Weights[1] = 1-Weights[0]),
// BDEF4 and QDEF all four.
type Vertex struct {
	Position  [3]float32
	Normal    [3]float32
	UV        [2]float32
	ExtraUVs  [][4]float32
	Weight    WeightType
	Bones     [4]int32
	Weights   [4]float32
	SDEFC     [3]float32
	SDEFR0    [3]float32
	SDEFR1    [3]float32
	EdgeScale float32
}

// Material flags.
const (
	MaterialDoubleSided  uint8 = 0x01
	MaterialGroundShadow uint8 = 0x02
	MaterialCastShadow   uint8 = 0x04
	MaterialSelfShadow   uint8 = 0x08
	MaterialEdge         uint8 = 0x10
)

// Material covers IndexCount consecutive entries of Document.Indices.
type Material struct {
	Name        string
	NameEn      string
	Diffuse     [4]float32
	Specular    [3]float32
	Specularity float32
	Ambient     [3]float32
	Flags       uint8
	EdgeColor   [4]float32
	EdgeSize    float32
	Texture     int32
	Sphere      int32
	SphereMode  uint8
	SharedToon  bool
	Toon        int32
	Memo        string
	IndexCount  int32
}

// Bone flags.
const (
	BoneTailIsBone         uint16 = 0x0001
	BoneRotatable          uint16 = 0x0002
	BoneTranslatable       uint16 = 0x0004
	BoneVisible            uint16 = 0x0008
	BoneEnabled            uint16 = 0x0010
	BoneIK                 uint16 = 0x0020
	BoneInheritRotation    uint16 = 0x0100
	BoneInheritTranslation uint16 = 0x0200
	BoneFixedAxis          uint16 = 0x0400
	BoneLocalAxis          uint16 = 0x0800
	BoneAfterPhysics       uint16 = 0x1000
	BoneExternalParent     uint16 = 0x2000
)

// Bone is a bone record; flag-dependent fields are zero when absent.
type Bone struct {
	Name          string
	NameEn        string
	Position      [3]float32
	Parent        int32
	Layer         int32
	Flags         uint16
	TailBone      int32
	TailOffset    [3]float32
	InheritParent int32
	InheritWeight float32
	FixedAxis     [3]float32
	LocalX        [3]float32
	LocalZ        [3]float32
	ExternalKey   int32
	IK            *IK
}

// IK is the IK block of a bone with the IK flag.
type IK struct {
	Target     int32
	Loop       int32
	LimitAngle float32 // radians per iteration
	Links      []IKLink
}

// IKLink is one chain joint; Min and Max apply when Limited is set.
type IKLink struct {
	Bone    int32
	Limited bool
	Min     [3]float32 // radians, Euler XYZ
	Max     [3]float32
}

// MorphKind is the morph offset type.
type MorphKind uint8

const (
	MorphGroup MorphKind = iota
	MorphVertex
	MorphBone
	MorphUV
	MorphUV1
	MorphUV2
	MorphUV3
	MorphUV4
	MorphMaterial
	MorphFlip
	MorphImpulse
)

// Morph holds the offsets of its Kind; the other slices stay empty.
// Flip morphs use Group.
type Morph struct {
	Name     string
	NameEn   string
	Panel    uint8
	Kind     MorphKind
	Group    []GroupOffset
	Vertex   []VertexOffset
	Bone     []BoneOffset
	UV       []UVOffset
	Material []MaterialOffset
	Impulse  []ImpulseOffset
}

// GroupOffset is a group morph member.
type GroupOffset struct {
	Morph  int32
	Weight float32
}

// VertexOffset is a vertex morph entry.
type VertexOffset struct {
	Vertex int32
	Offset [3]float32
}

// BoneOffset is a bone morph entry.
type BoneOffset struct {
	Bone        int32
	Translation [3]float32
	Rotation    [4]float32 // x, y, z, w
}

// UVOffset is a UV or additional-UV morph entry.
type UVOffset struct {
	Vertex int32
	Offset [4]float32
}

// MaterialOffset is a material morph entry.
type MaterialOffset struct {
	Material    int32 // -1 = all materials
	Op          uint8 // 0 multiply, 1 add
	Diffuse     [4]float32
	Specular    [3]float32
	Specularity float32
	Ambient     [3]float32
	EdgeColor   [4]float32
	EdgeSize    float32
	TextureTint [4]float32
	SphereTint  [4]float32
	ToonTint    [4]float32
}

// ImpulseOffset is an impulse morph entry.
type ImpulseOffset struct {
	RigidBody int32
	Local     uint8
	Velocity  [3]float32
	Torque    [3]float32
}

// MaxBones is the number of bone slots a weight type fills.
func MaxBones(w WeightType) int {
	switch w {
	case BDEF1:
		return 1
	case BDEF2, SDEF:
		return 2
	}
	return 4
}
