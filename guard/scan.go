package guard

import "github.com/milk9111/harvest/common"

// scanMode parameterizes the randomized look shared by LookingAround and
// LookingForPlayer.
type scanMode struct {
	abortAfter   float64
	checkCorpses bool
}

func lookingAroundMode(cfg Config) scanMode {
	return scanMode{abortAfter: cfg.LookAroundAbort, checkCorpses: true}
}

func lookingForPlayerMode(cfg Config) scanMode {
	return scanMode{abortAfter: cfg.LookForPlayerAbort, checkCorpses: cfg.LookForPlayerCorpses}
}

func (g *Guard) scan(dt float64, mode scanMode) {
	g.stateTimer += dt
	if g.actOnPlayerVision() {
		g.setState(Chasing)
		return
	}
	if mode.checkCorpses && g.checkCorpses() {
		return
	}
	if elapsed(g.stateTimer, mode.abortAfter) {
		g.setState(Backtrack)
		return
	}

	if g.lookTimer <= 0 {
		g.pickLookVelocity()
		g.lookTimer = g.cfg.LookInterval
	}
	g.lookTimer -= dt
	g.targetRot = common.WrapAngle(g.targetRot + g.lookVel*dt)
}

// pickLookVelocity draws a new angular velocity in radians per second with
// a random sign.
func (g *Guard) pickLookVelocity() {
	speed := g.cfg.LookSpeedMin + g.rng.Float64()*(g.cfg.LookSpeedMax-g.cfg.LookSpeedMin)
	if g.rng.Float64() < 0.5 {
		speed = -speed
	}
	g.lookVel = common.Deg2Rad(speed)
}
