package mathutil

import "github.com/go-gl/mathgl/mgl64"

// MirrorZ converts MMD's left-handed space (camera on -Z looking +Z) to a
// view space where larger Z is nearer the viewer: diag(1, 1, -1).
var MirrorZ = mgl64.Diag3(mgl64.Vec3{1, 1, -1})

// DefaultUnitScale converts MMD units to meters at the load boundary.
const DefaultUnitScale = 0.1
