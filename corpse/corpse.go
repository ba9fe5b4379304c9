package corpse

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/harvest/guard"
	"go.uber.org/zap"
)

var (
	ErrAlreadyCarried = errors.New("corpse: already carried")
	ErrNotCarried     = errors.New("corpse: not carried")
	ErrNoCarrier      = errors.New("corpse: nil carrier")
	ErrNoContainer    = errors.New("corpse: nil container")
)

// Carrier is anything that can hold a corpse while it moves.
type Carrier interface {
	Position() cp.Vector
}

// Corpse is a guard body left behind after a harvest. It is listed by
// exactly one Container, and while carried it follows its carrier.
type Corpse struct {
	id        string
	pos       cp.Vector
	dir       cp.Vector
	container *Container
	carrier   Carrier
}

func (c *Corpse) ID() string { return c.id }

// Position is the resting position, or the carrier's while carried.
func (c *Corpse) Position() cp.Vector {
	if c.carrier != nil {
		return c.carrier.Position()
	}
	return c.pos
}

// Dir is the facing the guard had when it died.
func (c *Corpse) Dir() cp.Vector { return c.dir }

func (c *Corpse) Carried() bool { return c.carrier != nil }

func (c *Corpse) Container() *Container { return c.container }

// Attach hands the corpse to a carrier.
func (c *Corpse) Attach(carrier Carrier) error {
	if carrier == nil {
		return ErrNoCarrier
	}
	if c.carrier != nil {
		return ErrAlreadyCarried
	}
	c.carrier = carrier
	return nil
}

// Detach drops the corpse at the carrier's position into container, moving
// it out of the container that listed it before.
func (c *Corpse) Detach(container *Container) error {
	if container == nil {
		return ErrNoContainer
	}
	if c.carrier == nil {
		return ErrNotCarried
	}
	c.pos = c.carrier.Position()
	c.carrier = nil
	if c.container != container {
		if c.container != nil {
			c.container.unlist(c)
		}
		container.list(c)
	}
	return nil
}

// Container lists the corpses of a level in spawn order.
type Container struct {
	corpses []*Corpse
	log     *zap.Logger
}

func NewContainer(logger *zap.Logger) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Container{log: logger}
}

// Spawn leaves a new corpse at pos facing dir.
func (ct *Container) Spawn(pos, dir cp.Vector) *Corpse {
	c := &Corpse{id: uuid.New().String(), pos: pos, dir: dir}
	ct.list(c)
	ct.log.Debug("corpse spawned",
		zap.String("corpse", c.id),
		zap.Float64("x", pos.X),
		zap.Float64("y", pos.Y),
	)
	return c
}

// Remove drops the corpse with the given id and reports whether it existed.
func (ct *Container) Remove(id string) bool {
	for _, c := range ct.corpses {
		if c.id == id {
			ct.unlist(c)
			return true
		}
	}
	return false
}

func (ct *Container) Clear() {
	for _, c := range ct.corpses {
		c.container = nil
		c.carrier = nil
	}
	ct.corpses = nil
}

func (ct *Container) Len() int { return len(ct.corpses) }

func (ct *Container) Get(id string) (*Corpse, bool) {
	for _, c := range ct.corpses {
		if c.id == id {
			return c, true
		}
	}
	return nil, false
}

// All returns the listed corpses in spawn order.
func (ct *Container) All() []*Corpse {
	return append([]*Corpse(nil), ct.corpses...)
}

// Nearest returns the closest resting corpse strictly within radius of pos.
func (ct *Container) Nearest(pos cp.Vector, radius float64) (*Corpse, bool) {
	var best *Corpse
	bestDist := radius * radius
	for _, c := range ct.corpses {
		if c.carrier != nil {
			continue
		}
		if d := c.pos.DistanceSq(pos); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != nil
}

// LiveCorpses implements guard.CorpseProvider. Carried corpses are included
// at their carrier's position.
func (ct *Container) LiveCorpses() []guard.CorpseRef {
	out := make([]guard.CorpseRef, 0, len(ct.corpses))
	for _, c := range ct.corpses {
		out = append(out, guard.CorpseRef{ID: c.id, Position: c.Position()})
	}
	return out
}

func (ct *Container) list(c *Corpse) {
	c.container = ct
	ct.corpses = append(ct.corpses, c)
}

func (ct *Container) unlist(c *Corpse) {
	for i, other := range ct.corpses {
		if other == c {
			ct.corpses = append(ct.corpses[:i], ct.corpses[i+1:]...)
			break
		}
	}
	c.container = nil
}
