package guard

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/harvest/common"
	"go.uber.org/zap"
)

// timerSlack absorbs the rounding left by summing fixed steps, so a 2s dwell
// at 60 ticks per second ends on tick 120.
const timerSlack = 1e-9

// elapsed reports whether timer has reached d.
func elapsed(timer, d float64) bool {
	return timer >= d-timerSlack
}

func (g *Guard) idle(dt float64) {
	g.stateTimer += dt
	if g.actOnPlayerVision() {
		g.setState(Chasing)
	}
}

func (g *Guard) standingAtPoint(dt float64) {
	g.stateTimer += dt
	p := g.patrol[g.currentPoint]
	if p.LookDir.LengthSq() > 0 {
		g.targetRot = common.WrapAngle(common.AngleOf(p.LookDir))
	}

	if g.actOnPlayerVision() {
		g.setState(Chasing)
		return
	}
	if g.checkCorpses() {
		return
	}

	if !elapsed(g.stateTimer, p.Dwell) {
		return
	}
	if len(g.patrol) > 1 {
		g.currentPoint = (g.currentPoint + 1) % len(g.patrol)
		g.setState(WalkingToPoint)
		return
	}
	g.stateTimer = 0
}

func (g *Guard) walkingToPoint(dt float64) {
	g.stateTimer += dt
	if g.actOnPlayerVision() {
		g.setState(Chasing)
		return
	}
	if g.checkCorpses() {
		return
	}
	if g.moveTowards(g.patrol[g.currentPoint].Position, g.cfg.WalkSpeed, dt) {
		g.setState(StandingAtPoint)
	}
}

func (g *Guard) chasing(dt float64) {
	g.stateTimer += dt
	g.actOnPlayerVision()

	if g.playerInAttackRange() {
		g.setState(Attacking)
		return
	}
	if g.approach(g.pointToInvestigate, g.cfg.RunSpeed, dt) {
		g.setState(LookingForPlayer)
	}
}

func (g *Guard) investigating(dt float64) {
	g.stateTimer += dt
	if g.actOnPlayerVision() {
		g.setState(Chasing)
		return
	}
	g.faceTowards(g.pointToInvestigate)
	if !elapsed(g.stateTimer, g.cfg.InvestigateDelay) {
		return
	}
	if g.approach(g.pointToInvestigate, g.cfg.WalkSpeed, dt) {
		g.setState(LookingAround)
	}
}

func (g *Guard) attacking(dt float64) {
	g.stateTimer += dt
	g.faceTowards(g.player.Position())
	g.vision.Turn(g.targetRot, dt)

	if g.attackFired || !elapsed(g.stateTimer, g.cfg.AttackDelay) {
		return
	}
	g.attackFired = true
	g.log.Info("player caught", zap.Uint64("tick", g.ticks))
	g.player.NotifyCaught()
}

func (g *Guard) backtracking(dt float64) {
	g.stateTimer += dt
	if g.actOnPlayerVision() {
		g.setState(Chasing)
		return
	}

	if i, ok := g.backtrack.FirstReachablePatrol(g.pos, g.patrol); ok {
		g.currentPoint = i
		g.setState(WalkingToPoint)
		return
	}

	if i, ok := g.backtrack.FirstReachablePoint(g.pos); ok {
		g.stuck = false
		if g.moveTowards(g.backtrack.Point(i), g.cfg.WalkSpeed, dt) {
			g.backtrack.ConsumeFrom(i)
		}
		return
	}

	if !g.stuck {
		g.stuck = true
		g.log.Warn("no reachable patrol or backtrack point",
			zap.Float64("x", g.pos.X),
			zap.Float64("y", g.pos.Y),
			zap.Int("backtrack_points", g.backtrack.Len()),
		)
	}
}

func (g *Guard) faceTowards(target cp.Vector) {
	to := target.Sub(g.pos)
	if to.LengthSq() > 0 {
		g.targetRot = common.WrapAngle(common.AngleOf(to))
	}
}

// moveTowards steps straight at target without overshooting and reports
// arrival.
func (g *Guard) moveTowards(target cp.Vector, speed, dt float64) bool {
	g.faceTowards(target)
	g.pos = common.MoveTowards(g.pos, target, speed*dt)
	return g.pos.DistanceSq(target) < g.cfg.ArriveEpsilon
}

// approach moves toward dest, sliding the target off the first wall in the
// way. It reports true on arrival, or when the redirect leaves nowhere to go.
func (g *Guard) approach(dest cp.Vector, speed, dt float64) bool {
	to := dest.Sub(g.pos)
	if to.LengthSq() < g.cfg.ArriveEpsilon {
		return true
	}
	target := dest
	if g.collider != nil {
		dist := to.Length()
		if hit, ok := g.collider.SweptCircleCast(g.pos, g.cfg.Radius, to.Mult(1/dist), dist, LayerWalls); ok {
			target = hit.Centroid.Add(hit.Normal.Mult(g.cfg.AvoidOffset))
			if g.pos.DistanceSq(target) < g.cfg.ArriveEpsilon {
				return true
			}
		}
	}
	g.moveTowards(target, speed, dt)
	return g.pos.DistanceSq(dest) < g.cfg.ArriveEpsilon
}

func (g *Guard) playerInAttackRange() bool {
	to := g.player.Position().Sub(g.pos)
	dist := to.Length()
	if dist >= g.cfg.AttackRange {
		return false
	}
	if dist < 1e-6 || g.collider == nil {
		return true
	}
	_, blocked := g.collider.RayCast(g.pos, to.Mult(1/dist), dist, LayerWalls)
	return !blocked
}
