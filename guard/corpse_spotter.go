package guard

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/harvest/common"
)

// CorpseSpotter finds corpses a guard has not investigated yet.
type CorpseSpotter struct {
	collider  Collider
	length    float64
	halfAngle float64
	seen      map[string]struct{}
}

func NewCorpseSpotter(collider Collider, cfg Config) *CorpseSpotter {
	return &CorpseSpotter{
		collider:  collider,
		length:    cfg.VisionLength,
		halfAngle: cfg.visionAngleRad() / 2,
		seen:      make(map[string]struct{}),
	}
}

// Spot returns the first unseen corpse in iteration order that is inside the
// vision cone with a clear line of sight, and marks it seen. Walls are the
// only occluders, so a corpse behind the player is still visible.
func (s *CorpseSpotter) Spot(pos cp.Vector, facing float64, corpses []CorpseRef) (CorpseRef, bool) {
	if s == nil {
		return CorpseRef{}, false
	}
	for _, c := range corpses {
		if _, ok := s.seen[c.ID]; ok {
			continue
		}
		if !s.visible(pos, facing, c.Position) {
			continue
		}
		s.seen[c.ID] = struct{}{}
		return c, true
	}
	return CorpseRef{}, false
}

// Seen reports whether the corpse was already reported by Spot.
func (s *CorpseSpotter) Seen(id string) bool {
	_, ok := s.seen[id]
	return ok
}

func (s *CorpseSpotter) visible(pos cp.Vector, facing float64, target cp.Vector) bool {
	to := target.Sub(pos)
	dist := to.Length()
	if dist > s.length {
		return false
	}
	if dist < 1e-6 {
		return true
	}
	if math.Abs(common.DeltaAngle(facing, common.AngleOf(to))) > s.halfAngle {
		return false
	}
	if s.collider == nil {
		return true
	}
	_, blocked := s.collider.RayCast(pos, to.Mult(1/dist), dist, LayerWalls)
	return !blocked
}
