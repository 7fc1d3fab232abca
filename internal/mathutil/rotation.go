package mathutil

import "github.com/go-gl/mathgl/mgl64"

// Mat3 is a 3×3 column-major matrix used for view rotations.
type Mat3 = mgl64.Mat3

// ViewRotation orbits the camera: yaw about Y, then pitch about X, both
// in degrees, applied after the handedness flip.
func ViewRotation(yawDeg, pitchDeg float64) Mat3 {
	yaw := mgl64.Rotate3DY(mgl64.DegToRad(yawDeg))
	pitch := mgl64.Rotate3DX(mgl64.DegToRad(pitchDeg))
	return pitch.Mul3(yaw).Mul3(MirrorZ)
}
