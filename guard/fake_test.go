package guard

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDT = 0.125

// fakeWorld is an axis-aligned box world with an optional circular player.
type fakeWorld struct {
	walls        []cp.BB
	player       *fakePlayer
	playerRadius float64
}

func (w *fakeWorld) RayCast(origin, dir cp.Vector, maxDist float64, mask Layer) (RayHit, bool) {
	d := dir.Mult(maxDist)
	best := math.Inf(1)
	var layer Layer
	var normal cp.Vector

	if mask&LayerWalls != 0 {
		for _, b := range w.walls {
			if t, n, ok := segmentBoxHit(origin, d, b, 0); ok && t < best {
				best, normal, layer = t, n, LayerWalls
			}
		}
	}
	if mask&LayerPlayer != 0 && w.player != nil {
		if t, ok := segmentCircleHit(origin, d, w.player.pos, w.playerRadius); ok && t < best {
			best, layer = t, LayerPlayer
			normal = origin.Add(d.Mult(t)).Sub(w.player.pos).Normalize()
		}
	}
	if math.IsInf(best, 1) {
		return RayHit{}, false
	}
	return RayHit{
		Distance: best * maxDist,
		Point:    origin.Add(d.Mult(best)),
		Normal:   normal,
		Layer:    layer,
	}, true
}

func (w *fakeWorld) SweptCircleCast(origin cp.Vector, radius float64, dir cp.Vector, maxDist float64, mask Layer) (CircleHit, bool) {
	if mask&LayerWalls == 0 {
		return CircleHit{}, false
	}
	d := dir.Mult(maxDist)
	best := math.Inf(1)
	var normal cp.Vector
	for _, b := range w.walls {
		if t, n, ok := segmentBoxHit(origin, d, b, radius); ok && t < best {
			best, normal = t, n
		}
	}
	if math.IsInf(best, 1) {
		return CircleHit{}, false
	}
	if normal.LengthSq() == 0 {
		normal = dir.Neg()
	}
	return CircleHit{
		Centroid: origin.Add(d.Mult(best)),
		Normal:   normal,
		Distance: best * maxDist,
	}, true
}

// segmentBoxHit clips the segment origin→origin+d against b grown by pad and
// returns the entry parameter and the normal of the face entered.
func segmentBoxHit(origin, d cp.Vector, b cp.BB, pad float64) (float64, cp.Vector, bool) {
	minX, minY, maxX, maxY := b.L-pad, b.B-pad, b.R+pad, b.T+pad
	tmin, tmax := 0.0, 1.0
	var normal cp.Vector

	if d.X != 0 {
		inv := 1 / d.X
		t1 := (minX - origin.X) * inv
		t2 := (maxX - origin.X) * inv
		n := cp.Vector{X: -1}
		if t1 > t2 {
			t1, t2 = t2, t1
			n = cp.Vector{X: 1}
		}
		if t1 > tmin {
			tmin, normal = t1, n
		}
		tmax = math.Min(tmax, t2)
	} else if origin.X < minX || origin.X > maxX {
		return 0, cp.Vector{}, false
	}

	if d.Y != 0 {
		inv := 1 / d.Y
		t1 := (minY - origin.Y) * inv
		t2 := (maxY - origin.Y) * inv
		n := cp.Vector{Y: -1}
		if t1 > t2 {
			t1, t2 = t2, t1
			n = cp.Vector{Y: 1}
		}
		if t1 > tmin {
			tmin, normal = t1, n
		}
		tmax = math.Min(tmax, t2)
	} else if origin.Y < minY || origin.Y > maxY {
		return 0, cp.Vector{}, false
	}

	if tmax >= tmin {
		return tmin, normal, true
	}
	return 0, cp.Vector{}, false
}

func segmentCircleHit(origin, d, center cp.Vector, r float64) (float64, bool) {
	f := origin.Sub(center)
	a := d.Dot(d)
	b := 2 * f.Dot(d)
	c := f.Dot(f) - r*r
	disc := b*b - 4*a*c
	if disc < 0 || a == 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)
	switch {
	case t1 >= 0 && t1 <= 1:
		return t1, true
	case t2 >= 0 && t2 <= 1:
		return t2, true
	}
	return 0, false
}

type fakePlayer struct {
	pos    cp.Vector
	caught int
}

func (p *fakePlayer) Position() cp.Vector { return p.pos }

func (p *fakePlayer) NotifyCaught() { p.caught++ }

type corpseList []CorpseRef

func (c corpseList) LiveCorpses() []CorpseRef { return c }

type cueLog struct {
	names []string
}

func (c *cueLog) PlayCue(name string) { c.names = append(c.names, name) }

func (c *cueLog) count(name string) int {
	n := 0
	for _, got := range c.names {
		if got == name {
			n++
		}
	}
	return n
}

// farAway is outside every vision cone used in tests.
var farAway = cp.Vector{X: -100, Y: -100}

type testGuard struct {
	*Guard
	world  *fakeWorld
	player *fakePlayer
	cues   *cueLog
}

func newTestGuard(t *testing.T, p Params, corpses CorpseProvider) *testGuard {
	t.Helper()
	player := &fakePlayer{pos: farAway}
	world := &fakeWorld{player: player, playerRadius: 0.5}
	cues := &cueLog{}
	if p.Config.RayCount == 0 {
		p.Config = DefaultConfig()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Rand == nil {
		p.Rand = rand.New(rand.NewPCG(7, 7))
	}
	p.Collider = world
	p.Cues = cues

	g, err := New(p)
	require.NoError(t, err)
	if corpses == nil {
		corpses = corpseList(nil)
	}
	g.Init(player, corpses)
	return &testGuard{Guard: g, world: world, player: player, cues: cues}
}

func (tg *testGuard) tickN(n int) {
	for i := 0; i < n; i++ {
		tg.Tick(testDT)
	}
}

// tickUntil ticks until the guard is in s or max ticks have run, and returns
// the number of ticks taken.
func (tg *testGuard) tickUntil(s State, max int) int {
	for i := 1; i <= max; i++ {
		tg.Tick(testDT)
		if tg.State() == s {
			return i
		}
	}
	return -1
}
