package motion

// Curve is a cubic Bezier easing curve through (0,0) and (1,1) with control
// points (X1,Y1) and (X2,Y2) in [0,1].
type Curve struct {
	X1, Y1, X2, Y2 float64
}

// Linear is the identity easing.
var Linear = Curve{X1: 20.0 / 127, Y1: 20.0 / 127, X2: 107.0 / 127, Y2: 107.0 / 127}

// CurveFromBytes converts VMD control points (0..127).
func CurveFromBytes(b [4]uint8) Curve {
	return Curve{
		X1: float64(b[0]) / 127,
		Y1: float64(b[1]) / 127,
		X2: float64(b[2]) / 127,
		Y2: float64(b[3]) / 127,
	}
}

// IsLinear reports whether both control points lie on the diagonal, which
// includes the all-zero curve some exporters write.
func (c Curve) IsLinear() bool {
	return c.X1 == c.Y1 && c.X2 == c.Y2
}

const easeIterations = 32

// Ease maps a linear segment fraction t to the eased fraction. x(s) is
// monotonic for control points in [0,1], so s is found by bisection.
func (c Curve) Ease(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	if c.IsLinear() {
		return t
	}
	lo, hi := 0.0, 1.0
	s := t
	for i := 0; i < easeIterations; i++ {
		x := bezier(c.X1, c.X2, s)
		if x < t {
			lo = s
		} else {
			hi = s
		}
		s = (lo + hi) / 2
	}
	return bezier(c.Y1, c.Y2, s)
}

func bezier(p1, p2, s float64) float64 {
	u := 1 - s
	return 3*u*u*s*p1 + 3*u*s*s*p2 + s*s*s
}
