package sim

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/harvest/common"
	"github.com/milk9111/harvest/corpse"
	"github.com/milk9111/harvest/guard"
	"github.com/milk9111/harvest/prefabs"
	"go.uber.org/zap"
)

// Input is the player's intent for one tick. MoveX and MoveY are read by
// sign only; positive Y points down the map.
type Input struct {
	MoveX float64
	MoveY float64
	Kill  bool
	Grab  bool
}

// playerState is implemented by each concrete player state.
type playerState interface {
	Name() string
	Enter(p *Player)
	Update(p *Player, w *World, dt float64)
}

const (
	// collisionSkin is the shortest distance ahead of the player that walls
	// are probed; wallGap is how far the player is kept off them.
	collisionSkin = 0.1
	wallGap       = 0.01
	// pullRate is the fraction of the gap to the action anchor closed each
	// tick while killing or picking up.
	pullRate = 0.1
)

type freeState struct{}

func (freeState) Name() string    { return "free" }
func (freeState) Enter(p *Player) {}
func (freeState) Update(p *Player, w *World, dt float64) {
	p.steer(dt)
	pos := p.pos.Add(p.vel.Mult(dt))
	pos = p.handleCollision(w, pos)
	pos = p.checkGuards(w, pos)
	p.pos = pos

	if w.checkGoal() {
		return
	}

	if p.carried != nil {
		p.corpseTarget = nil
		if p.input.Grab {
			if err := w.DropCorpse(); err != nil {
				w.log.Debug("drop refused", zap.Error(err))
			}
		}
		return
	}

	if p.input.Kill && p.killTarget != nil {
		if err := w.BeginHarvest(p.killTarget); err != nil {
			w.log.Debug("harvest refused", zap.String("guard", p.killTarget.Name()), zap.Error(err))
		}
		return
	}

	p.corpseTarget, _ = w.corpses.Nearest(p.pos, p.spec.PickupRadius)
	if p.input.Grab && p.corpseTarget != nil {
		if err := w.PickUpCorpse(); err != nil {
			w.log.Debug("pick up refused", zap.Error(err))
		}
	}
}

type killingState struct{}

func (killingState) Name() string { return "killing" }
func (killingState) Enter(p *Player) {
	p.vel = cp.Vector{}
}
func (killingState) Update(p *Player, w *World, dt float64) {
	target := p.harvesting
	if target == nil {
		p.setState(stateFree)
		return
	}
	p.pullTowards(target.Position(), p.spec.Radius+target.Radius())
	if p.stateTimer >= p.spec.HarvestDuration {
		w.finishHarvest(target)
		p.harvesting = nil
		p.setState(stateFree)
	}
}

type pickingUpState struct{}

func (pickingUpState) Name() string { return "picking_up" }
func (pickingUpState) Enter(p *Player) {
	p.vel = cp.Vector{}
}
func (pickingUpState) Update(p *Player, w *World, dt float64) {
	c := p.corpseTarget
	if c == nil || c.Carried() {
		p.corpseTarget = nil
		p.setState(stateFree)
		return
	}
	p.pullTowards(c.Position(), p.spec.PickupRadius)
	if p.stateTimer >= p.spec.PickupDuration {
		if err := c.Attach(p); err == nil {
			p.carried = c
			w.log.Debug("corpse picked up", zap.String("corpse", c.ID()))
		}
		p.corpseTarget = nil
		p.setState(stateFree)
	}
}

type droppingState struct{}

func (droppingState) Name() string { return "dropping" }
func (droppingState) Enter(p *Player) {
	p.vel = cp.Vector{}
}
func (droppingState) Update(p *Player, w *World, dt float64) {
	if p.stateTimer >= p.spec.PickupDuration {
		w.completeDrop()
	}
}

// doneState holds the player once the level is won or lost.
type doneState struct{}

func (doneState) Name() string                           { return "done" }
func (doneState) Enter(p *Player)                        { p.vel = cp.Vector{} }
func (doneState) Update(p *Player, w *World, dt float64) {}

var (
	stateFree      playerState = &freeState{}
	stateKilling   playerState = &killingState{}
	statePickingUp playerState = &pickingUpState{}
	stateDropping  playerState = &droppingState{}
	stateDone      playerState = &doneState{}
)

// Player is the intruder the guards hunt. It satisfies guard.Player and
// corpse.Carrier.
type Player struct {
	spec prefabs.PlayerSpec

	pos       cp.Vector
	vel       cp.Vector
	facing    float64
	targetRot float64

	state      playerState
	stateTimer float64
	input      Input

	killTarget   *guard.Guard
	harvesting   *guard.Guard
	corpseTarget *corpse.Corpse
	carried      *corpse.Corpse
	caught       bool
}

func newPlayer(spec prefabs.PlayerSpec, spawn cp.Vector) *Player {
	p := &Player{spec: spec, pos: spawn, state: stateFree}
	p.state.Enter(p)
	return p
}

func (p *Player) setState(s playerState) {
	p.state = s
	p.stateTimer = 0
	p.state.Enter(p)
}

func (p *Player) update(w *World, dt float64) {
	p.stateTimer += dt
	p.state.Update(p, w, dt)
	p.facing = common.MoveTowardsAngle(p.facing, p.targetRot, common.Deg2Rad(p.spec.RotateSpeed)*dt)
}

// steer integrates the held movement keys: accelerate on a pressed axis,
// brake on a released one, then clamp to the current top speed.
func (p *Player) steer(dt float64) {
	p.vel.X = steerAxis(p.vel.X, p.input.MoveX, p.spec.Accel, p.spec.Decel, dt)
	p.vel.Y = steerAxis(p.vel.Y, p.input.MoveY, p.spec.Accel, p.spec.Decel, dt)
	p.vel = p.vel.Clamp(p.maxSpeed())
	if p.vel.LengthSq() > 0 {
		p.targetRot = common.AngleOf(p.vel)
	}
}

func steerAxis(v, in, accel, decel, dt float64) float64 {
	switch {
	case in < 0:
		return v - accel*dt
	case in > 0:
		return v + accel*dt
	default:
		return v - math.Min(math.Abs(v), decel*dt)*sign(v)
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func (p *Player) maxSpeed() float64 {
	if p.carried != nil {
		return p.spec.MaxSpeedWithCorpse
	}
	return p.spec.MaxSpeed
}

// handleCollision stops the player just short of a wall in the direction of
// travel and drops the velocity into it.
func (p *Player) handleCollision(w *World, next cp.Vector) cp.Vector {
	delta := next.Sub(p.pos)
	length := delta.Length()
	if length == 0 {
		return next
	}
	hit, ok := w.physics.SweptCircleCast(p.pos, p.spec.Radius, delta.Mult(1/length), math.Max(collisionSkin, length), guard.LayerWalls)
	if !ok {
		return next
	}
	if into := p.vel.Dot(hit.Normal); into < 0 {
		p.vel = p.vel.Sub(hit.Normal.Mult(into))
	}
	return hit.Centroid.Add(hit.Normal.Mult(wallGap))
}

// checkGuards pushes the player out of any guard it overlaps and picks the
// nearest guard that can be killed from here.
func (p *Player) checkGuards(w *World, pos cp.Vector) cp.Vector {
	p.killTarget = nil
	best := math.Inf(1)
	for _, g := range w.guards {
		if g == p.harvesting {
			continue
		}
		toGuard := g.Position().Sub(pos)
		dist := toGuard.Length()
		touch := p.spec.Radius + g.Radius()
		if dist < touch && dist > 0 {
			pos = g.Position().Sub(toGuard.Mult(touch / dist))
		}
		if p.carried != nil || dist >= best {
			continue
		}
		if w.killable(pos, g) {
			p.killTarget = g
			best = dist
		}
	}
	return pos
}

func (p *Player) pullTowards(target cp.Vector, standoff float64) {
	to := target.Sub(p.pos)
	if to.LengthSq() == 0 {
		return
	}
	dir := to.Normalize()
	anchor := target.Sub(dir.Mult(standoff))
	p.pos = p.pos.Add(anchor.Sub(p.pos).Mult(pullRate))
	p.targetRot = common.AngleOf(dir)
}

// Position implements guard.Player and corpse.Carrier.
func (p *Player) Position() cp.Vector { return p.pos }

// NotifyCaught implements guard.Player.
func (p *Player) NotifyCaught() { p.caught = true }

func (p *Player) Caught() bool { return p.caught }

func (p *Player) Velocity() cp.Vector { return p.vel }

func (p *Player) Facing() float64 { return p.facing }

func (p *Player) Radius() float64 { return p.spec.Radius }

// StateName names the player's current action.
func (p *Player) StateName() string { return p.state.Name() }

// KillTarget is the guard a kill would start on this tick, if any.
func (p *Player) KillTarget() *guard.Guard { return p.killTarget }

// CorpseTarget is the corpse a grab would pick up, if any.
func (p *Player) CorpseTarget() *corpse.Corpse { return p.corpseTarget }

func (p *Player) Carried() *corpse.Corpse { return p.carried }

// Harvesting is the guard currently being harvested, if any.
func (p *Player) Harvesting() *guard.Guard { return p.harvesting }
