package physics

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/harvest/guard"
)

var ErrGridSize = errors.New("physics: tile grid size mismatch")

// World owns the Chipmunk space holding the static walls and the player
// circle, and answers the guard's collision queries against it.
type World struct {
	space *cp.Space

	shapeLayers map[*cp.Shape]guard.Layer
	walls       []cp.BB
	segments    [][2]cp.Vector

	playerBody   *cp.Body
	playerShape  *cp.Shape
	playerRadius float64
}

// NewWorld creates an empty world. There is no gravity; the space is only
// ever queried, never stepped.
func NewWorld() *World {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})
	return &World{
		space:       space,
		shapeLayers: make(map[*cp.Shape]guard.Layer),
	}
}

// Space returns the underlying Chipmunk space.
func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

// AddBox adds a static wall rectangle.
func (w *World) AddBox(bb cp.BB) {
	if w == nil || w.space == nil {
		return
	}
	shape := cp.NewBox2(w.space.StaticBody, bb, 0)
	w.addStatic(shape)
	w.walls = append(w.walls, bb)
}

// AddSegment adds a static wall segment with the given thickness radius.
func (w *World) AddSegment(a, b cp.Vector, radius float64) {
	if w == nil || w.space == nil {
		return
	}
	shape := cp.NewSegment(w.space.StaticBody, a, b, radius)
	w.addStatic(shape)
	w.segments = append(w.segments, [2]cp.Vector{a, b})
}

// AddBounds encloses the rectangle [0,width]x[0,height] with wall segments.
func (w *World) AddBounds(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	segments := []struct {
		a cp.Vector
		b cp.Vector
	}{
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: width, Y: 0}},
		{a: cp.Vector{X: 0, Y: height}, b: cp.Vector{X: width, Y: height}},
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: 0, Y: height}},
		{a: cp.Vector{X: width, Y: 0}, b: cp.Vector{X: width, Y: height}},
	}
	for _, seg := range segments {
		w.AddSegment(seg.a, seg.b, 0)
	}
}

// AddTiles turns a row-major tile grid into wall boxes. Any non-zero tile is
// solid; neighbouring solid tiles are merged into as few rectangles as the
// greedy row-then-column sweep finds.
func (w *World) AddTiles(tiles []int, width, height int, tileSize float64) error {
	if width <= 0 || height <= 0 || len(tiles) != width*height {
		return fmt.Errorf("%w: %d tiles for %dx%d", ErrGridSize, len(tiles), width, height)
	}
	processed := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if processed[idx] {
				continue
			}
			if tiles[idx] == 0 {
				processed[idx] = true
				continue
			}

			wd := 1
			for x+wd < width {
				idx2 := y*width + (x + wd)
				if processed[idx2] || tiles[idx2] == 0 {
					break
				}
				wd++
			}

			ht := 1
		heightLoop:
			for y+ht < height {
				for xi := x; xi < x+wd; xi++ {
					idx2 := (y+ht)*width + xi
					if processed[idx2] || tiles[idx2] == 0 {
						break heightLoop
					}
				}
				ht++
			}

			x0 := float64(x) * tileSize
			y0 := float64(y) * tileSize
			w.AddBox(cp.BB{L: x0, B: y0, R: x0 + float64(wd)*tileSize, T: y0 + float64(ht)*tileSize})

			for yy := y; yy < y+ht; yy++ {
				for xx := x; xx < x+wd; xx++ {
					processed[yy*width+xx] = true
				}
			}
		}
	}
	return nil
}

func (w *World) addStatic(shape *cp.Shape) {
	shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, uint(guard.LayerWalls), cp.ALL_CATEGORIES))
	w.space.AddShape(shape)
	w.shapeLayers[shape] = guard.LayerWalls
}

// SetPlayer places the player circle, creating it on first use.
func (w *World) SetPlayer(pos cp.Vector, radius float64) {
	if w == nil || w.space == nil {
		return
	}
	if w.playerBody != nil && w.playerRadius == radius {
		w.MovePlayer(pos)
		return
	}
	w.RemovePlayer()

	body := cp.NewKinematicBody()
	body.SetPosition(pos)
	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, uint(guard.LayerPlayer), cp.ALL_CATEGORIES))
	w.space.AddBody(body)
	w.space.AddShape(shape)

	w.playerBody = body
	w.playerShape = shape
	w.playerRadius = radius
	w.shapeLayers[shape] = guard.LayerPlayer
}

// MovePlayer commits a new player position so later queries see it.
func (w *World) MovePlayer(pos cp.Vector) {
	if w == nil || w.playerBody == nil {
		return
	}
	w.playerBody.SetPosition(pos)
	// Re-adding the shape recaches its bounds; the space is never stepped.
	w.space.RemoveShape(w.playerShape)
	w.space.AddShape(w.playerShape)
}

// RemovePlayer takes the player out of the space.
func (w *World) RemovePlayer() {
	if w == nil || w.playerBody == nil {
		return
	}
	delete(w.shapeLayers, w.playerShape)
	w.space.RemoveShape(w.playerShape)
	w.space.RemoveBody(w.playerBody)
	w.playerBody = nil
	w.playerShape = nil
	w.playerRadius = 0
}

// PlayerPosition reports the committed player position.
func (w *World) PlayerPosition() (cp.Vector, bool) {
	if w == nil || w.playerBody == nil {
		return cp.Vector{}, false
	}
	return w.playerBody.Position(), true
}

// RayCast implements guard.Collider.
func (w *World) RayCast(origin, dir cp.Vector, maxDist float64, mask guard.Layer) (guard.RayHit, bool) {
	info, ok := w.query(origin, dir, maxDist, 0, mask)
	if !ok {
		return guard.RayHit{}, false
	}
	return guard.RayHit{
		Distance: info.Alpha * maxDist,
		Point:    info.Point,
		Normal:   info.Normal,
		Layer:    w.shapeLayers[info.Shape],
	}, true
}

// SweptCircleCast implements guard.Collider.
func (w *World) SweptCircleCast(origin cp.Vector, radius float64, dir cp.Vector, maxDist float64, mask guard.Layer) (guard.CircleHit, bool) {
	info, ok := w.query(origin, dir, maxDist, radius, mask)
	if !ok {
		return guard.CircleHit{}, false
	}
	end := origin.Add(dir.Mult(maxDist))
	return guard.CircleHit{
		Centroid: origin.Lerp(end, info.Alpha),
		Normal:   info.Normal,
		Distance: info.Alpha * maxDist,
	}, true
}

// query finds the first shape the segment, swept by radius, touches.
// Candidates come from the swept bounds: Space.SegmentQueryFirst prunes by
// the bare segment and misses shapes only the swept circle reaches.
func (w *World) query(origin, dir cp.Vector, maxDist, radius float64, mask guard.Layer) (cp.SegmentQueryInfo, bool) {
	if w == nil || w.space == nil || maxDist <= 0 || mask == 0 {
		return cp.SegmentQueryInfo{}, false
	}
	end := origin.Add(dir.Mult(maxDist))
	filter := cp.NewShapeFilter(cp.NO_GROUP, cp.ALL_CATEGORIES, uint(mask))
	bb := cp.NewBBForCircle(origin, radius).Merge(cp.NewBBForCircle(end, radius))

	best := cp.SegmentQueryInfo{Point: end, Alpha: 1}
	w.space.BBQuery(bb, filter, func(shape *cp.Shape, _ interface{}) {
		var info cp.SegmentQueryInfo
		if shape.SegmentQuery(origin, end, radius, &info) && info.Alpha < best.Alpha {
			best = info
		}
	}, nil)
	if best.Shape == nil {
		return best, false
	}
	return best, true
}

// Boxes returns the wall rectangles added so far.
func (w *World) Boxes() []cp.BB {
	if w == nil {
		return nil
	}
	return append([]cp.BB(nil), w.walls...)
}

// Segments returns the wall segments added so far.
func (w *World) Segments() [][2]cp.Vector {
	if w == nil {
		return nil
	}
	return append([][2]cp.Vector(nil), w.segments...)
}
