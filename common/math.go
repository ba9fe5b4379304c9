package common

import (
	"math"

	"github.com/jakecoffman/cp"
)

const TwoPi = 2 * math.Pi

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180
}

func Rad2Deg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// WrapAngle maps an angle in radians to [0, 2π).
func WrapAngle(a float64) float64 {
	a = math.Mod(a, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	if a >= TwoPi {
		a = 0
	}
	return a
}

// DeltaAngle returns the shortest signed difference target-current in (-π, π].
func DeltaAngle(current, target float64) float64 {
	d := math.Mod(target-current, TwoPi)
	if d > math.Pi {
		d -= TwoPi
	} else if d <= -math.Pi {
		d += TwoPi
	}
	return d
}

// MoveTowardsAngle turns current toward target by at most maxDelta radians
// along the shorter arc. The result is wrapped to [0, 2π).
func MoveTowardsAngle(current, target, maxDelta float64) float64 {
	d := DeltaAngle(current, target)
	if math.Abs(d) <= maxDelta {
		return WrapAngle(target)
	}
	if d > 0 {
		return WrapAngle(current + maxDelta)
	}
	return WrapAngle(current - maxDelta)
}

// AngleOf returns the heading of v in [0, 2π).
func AngleOf(v cp.Vector) float64 {
	return WrapAngle(math.Atan2(v.Y, v.X))
}

// MoveTowards steps from toward to by at most maxStep without overshooting.
func MoveTowards(from, to cp.Vector, maxStep float64) cp.Vector {
	d := to.Sub(from)
	dist := d.Length()
	if dist <= maxStep || dist == 0 {
		return to
	}
	return from.Add(d.Mult(maxStep / dist))
}
