package guard

import "github.com/jakecoffman/cp"

// BacktrackTracker keeps a trail of last-known-good positions for guards that
// wander out of straight-line reach of their patrol route.
type BacktrackTracker struct {
	collider Collider
	probe    float64
	points   []cp.Vector
	lost     bool
}

func NewBacktrackTracker(collider Collider, probeRadius float64) *BacktrackTracker {
	return &BacktrackTracker{collider: collider, probe: probeRadius}
}

// Reachable reports whether a probe circle can travel in a straight line
// from one point to the other without touching a wall.
func (b *BacktrackTracker) Reachable(from, to cp.Vector) bool {
	if b == nil || b.collider == nil {
		return true
	}
	d := to.Sub(from)
	dist := d.Length()
	if dist < 1e-6 {
		return true
	}
	_, hit := b.collider.SweptCircleCast(from, b.probe, d.Mult(1/dist), dist, LayerWalls)
	return !hit
}

// FirstReachablePatrol returns the first patrol point in route order that
// can be reached from pos.
func (b *BacktrackTracker) FirstReachablePatrol(pos cp.Vector, patrol []PatrolPoint) (int, bool) {
	for i, p := range patrol {
		if b.Reachable(pos, p.Position) {
			return i, true
		}
	}
	return 0, false
}

// FirstReachablePoint returns the oldest recorded point reachable from pos.
func (b *BacktrackTracker) FirstReachablePoint(pos cp.Vector) (int, bool) {
	if b == nil {
		return 0, false
	}
	for i, p := range b.points {
		if b.Reachable(pos, p) {
			return i, true
		}
	}
	return 0, false
}

// Observe records prev when neither a patrol point nor a recorded point is
// reachable from pos. Only the tick that enters that condition records; it
// returns true when a point was appended.
func (b *BacktrackTracker) Observe(pos, prev cp.Vector, patrol []PatrolPoint) bool {
	if b == nil {
		return false
	}
	if _, ok := b.FirstReachablePatrol(pos, patrol); ok {
		b.lost = false
		return false
	}
	if _, ok := b.FirstReachablePoint(pos); ok {
		b.lost = false
		return false
	}
	if b.lost {
		return false
	}
	b.lost = true
	b.points = append(b.points, prev)
	return true
}

// Point returns the recorded point at index i.
func (b *BacktrackTracker) Point(i int) cp.Vector {
	return b.points[i]
}

// ConsumeFrom drops the point at index i and every point recorded after it.
func (b *BacktrackTracker) ConsumeFrom(i int) {
	if b == nil || i < 0 || i >= len(b.points) {
		return
	}
	b.points = b.points[:i]
}

func (b *BacktrackTracker) Clear() {
	if b == nil {
		return
	}
	b.points = b.points[:0]
	b.lost = false
}

func (b *BacktrackTracker) Len() int {
	if b == nil {
		return 0
	}
	return len(b.points)
}

// Points returns a copy of the trail, oldest first.
func (b *BacktrackTracker) Points() []cp.Vector {
	if b == nil {
		return nil
	}
	return append([]cp.Vector(nil), b.points...)
}
