package guard

import "github.com/jakecoffman/cp"

// Layer is a collision category bitmask understood by a Collider.
type Layer uint

const (
	LayerWalls Layer = 1 << iota
	LayerPlayer
)

const LayerAll = LayerWalls | LayerPlayer

// RayHit describes the first shape hit by a ray.
type RayHit struct {
	Distance float64
	Point    cp.Vector
	Normal   cp.Vector
	Layer    Layer
}

// CircleHit describes where a swept circle first touches a shape.
type CircleHit struct {
	Centroid cp.Vector
	Normal   cp.Vector
	Distance float64
}

// Collider answers geometry queries against the static walls and the
// player. A miss is the common case and is reported with ok == false.
type Collider interface {
	RayCast(origin, dir cp.Vector, maxDist float64, mask Layer) (RayHit, bool)
	SweptCircleCast(origin cp.Vector, radius float64, dir cp.Vector, maxDist float64, mask Layer) (CircleHit, bool)
}

// CorpseRef is a discoverable corpse with a stable identity.
type CorpseRef struct {
	ID       string
	Position cp.Vector
}

// CorpseProvider lists the corpses currently in the level. The order is
// stable between calls and owned by the provider.
type CorpseProvider interface {
	LiveCorpses() []CorpseRef
}

// Player is the guard's view of the player.
type Player interface {
	Position() cp.Vector
	NotifyCaught()
}

// CuePlayer receives fire-and-forget audio cues.
type CuePlayer interface {
	PlayCue(name string)
}

// Rand is the random source used for look-around velocities.
type Rand interface {
	Float64() float64
}

const (
	CueSuspicious  = "suspicious"
	CueAlert       = "alert"
	CueCorpseFound = "corpse_found"
	CueLostPlayer  = "lost_player"
	CueGiveUp      = "give_up"
	CueAttack      = "attack"
)
