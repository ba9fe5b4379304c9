package guard

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/harvest/common"
	"go.uber.org/zap"
)

// Params are the construction-time inputs of a guard. Facing is in radians.
type Params struct {
	Name     string
	Position cp.Vector
	Facing   float64
	Patrol   []PatrolPoint
	Config   Config
	Collider Collider
	Cues     CuePlayer
	Rand     Rand
	Logger   *zap.Logger
}

// Guard is a patrolling agent driven by Tick.
type Guard struct {
	id   string
	name string
	cfg  Config
	log  *zap.Logger

	collider Collider
	cues     CuePlayer
	rng      Rand
	player   Player
	corpses  CorpseProvider

	vision    *VisionSensor
	spotter   *CorpseSpotter
	backtrack *BacktrackTracker

	pos       cp.Vector
	targetRot float64

	patrol       []PatrolPoint
	currentPoint int

	state      State
	stateTimer float64
	lookTimer  float64
	lookVel    float64

	pointToInvestigate cp.Vector
	suspicious         bool
	attackFired        bool
	stuck              bool
	ticks              uint64
}

func New(p Params) (*Guard, error) {
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	patrol, err := normalizePatrol(p.Patrol, p.Position, p.Facing, cfg.DefaultDwell)
	if err != nil {
		return nil, err
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := p.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}
	name := p.Name
	if name == "" {
		name = "guard"
	}

	g := &Guard{
		id:        uuid.New().String(),
		name:      name,
		cfg:       cfg,
		collider:  p.Collider,
		cues:      p.Cues,
		rng:       rng,
		vision:    NewVisionSensor(p.Collider, cfg, p.Facing),
		spotter:   NewCorpseSpotter(p.Collider, cfg),
		backtrack: NewBacktrackTracker(p.Collider, cfg.ProbeRadius),
		pos:       p.Position,
		targetRot: common.WrapAngle(p.Facing),
		patrol:    patrol,
	}
	g.log = logger.With(zap.String("guard", name), zap.String("id", g.id))

	if g.pos.DistanceSq(patrol[0].Position) < cfg.ArriveEpsilon {
		g.state = StandingAtPoint
	} else {
		g.state = WalkingToPoint
	}
	return g, nil
}

// Init hands the guard its collaborators. Ticks before both are set do
// nothing.
func (g *Guard) Init(player Player, corpses CorpseProvider) {
	if g == nil {
		return
	}
	g.player = player
	g.corpses = corpses
}

func (g *Guard) ready() bool {
	return g != nil && g.player != nil && g.corpses != nil
}

// Tick advances the guard by one fixed step of dt seconds.
func (g *Guard) Tick(dt float64) {
	if !g.ready() || dt <= 0 {
		return
	}
	g.ticks++
	prev := g.pos

	if g.state != Attacking && g.state != BeingHarvested {
		g.vision.Update(g.pos, g.targetRot, dt)
	}

	switch g.state {
	case Idle:
		g.idle(dt)
	case StandingAtPoint:
		g.standingAtPoint(dt)
	case WalkingToPoint:
		g.walkingToPoint(dt)
	case LookingAround:
		g.scan(dt, lookingAroundMode(g.cfg))
	case LookingForPlayer:
		g.scan(dt, lookingForPlayerMode(g.cfg))
	case Chasing:
		g.chasing(dt)
	case Attacking:
		g.attacking(dt)
	case Investigating:
		g.investigating(dt)
	case BeingHarvested:
		g.stateTimer += dt
	case Backtrack:
		g.backtracking(dt)
	}

	if g.state != Backtrack && g.state != BeingHarvested {
		g.backtrack.Observe(g.pos, prev, g.patrol)
	}
}

func (g *Guard) setState(s State) {
	if g.state == s {
		return
	}
	from := g.state
	g.state = s
	g.stateTimer = 0
	g.lookTimer = 0
	g.attackFired = false
	g.stuck = false

	switch s {
	case StandingAtPoint, WalkingToPoint:
		g.backtrack.Clear()
		g.suspicious = false
	case Chasing:
		if from != Attacking {
			g.playCue(CueAlert)
		}
	case Attacking:
		g.playCue(CueAttack)
	case Investigating:
		g.playCue(CueCorpseFound)
	case LookingForPlayer:
		g.playCue(CueLostPlayer)
	case Backtrack:
		g.suspicious = false
		g.playCue(CueGiveUp)
	}

	g.log.Debug("state change",
		zap.Stringer("from", from),
		zap.Stringer("to", s),
		zap.Uint64("tick", g.ticks),
	)
}

// actOnPlayerVision applies the shared sighting rule and reports whether
// the guard should start chasing.
func (g *Guard) actOnPlayerVision() bool {
	if g.vision.PlayerInVision() {
		g.pointToInvestigate = g.player.Position()
		if !g.suspicious {
			g.suspicious = true
			g.playCue(CueSuspicious)
		}
		return g.vision.PlayerInAlertVision()
	}
	if g.state != Investigating && g.state != LookingAround {
		g.suspicious = false
	}
	return false
}

// checkCorpses reports whether a newly spotted corpse sent the guard to
// investigate.
func (g *Guard) checkCorpses() bool {
	c, ok := g.spotter.Spot(g.pos, g.vision.Facing(), g.corpses.LiveCorpses())
	if !ok {
		return false
	}
	g.pointToInvestigate = c.Position
	g.suspicious = true
	g.log.Debug("corpse spotted", zap.String("corpse", c.ID))
	g.setState(Investigating)
	return true
}

func (g *Guard) playCue(name string) {
	if g.cues == nil {
		return
	}
	g.cues.PlayCue(name)
}

// IsAlert reports whether the guard is chasing or attacking.
func (g *Guard) IsAlert() bool {
	return g.state == Chasing || g.state == Attacking
}

// CanBeKilled reports whether the player may start a kill on this guard.
func (g *Guard) CanBeKilled() bool {
	return !g.IsAlert()
}

// ForceState overrides the current state. Entering the current state again
// keeps its timer.
func (g *Guard) ForceState(s State) error {
	if g == nil {
		return nil
	}
	if s < Idle || s > Backtrack {
		return fmt.Errorf("%w: %d", ErrUnknownState, int(s))
	}
	g.setState(s)
	return nil
}

// ResumePatrol sends a released guard back toward its route.
func (g *Guard) ResumePatrol() {
	if g == nil {
		return
	}
	g.setState(Backtrack)
}

func (g *Guard) ID() string { return g.id }

func (g *Guard) Name() string { return g.name }

func (g *Guard) Position() cp.Vector { return g.pos }

func (g *Guard) Radius() float64 { return g.cfg.Radius }

func (g *Guard) Facing() float64 { return g.vision.Facing() }

func (g *Guard) State() State { return g.state }

func (g *Guard) Config() Config { return g.cfg }

// Indicator is the icon the guard shows above its head.
func (g *Guard) Indicator() Indicator {
	switch {
	case g.IsAlert():
		return IndicatorAlerted
	case g.state == LookingForPlayer:
		return IndicatorSuspicious
	case g.suspicious && g.state != BeingHarvested:
		return IndicatorSuspicious
	default:
		return IndicatorNone
	}
}

// Diagnostics is a read-only snapshot of a guard's internals.
type Diagnostics struct {
	State               State
	StateTimer          float64
	LookTimer           float64
	Position            cp.Vector
	Facing              float64
	TargetRot           float64
	CurrentPoint        int
	PointToInvestigate  cp.Vector
	AlertLength         float64
	PlayerInVision      bool
	PlayerInAlertVision bool
	Indicator           Indicator
	BacktrackPoints     []cp.Vector
}

func (g *Guard) Diagnostics() Diagnostics {
	return Diagnostics{
		State:               g.state,
		StateTimer:          g.stateTimer,
		LookTimer:           g.lookTimer,
		Position:            g.pos,
		Facing:              g.vision.Facing(),
		TargetRot:           g.targetRot,
		CurrentPoint:        g.currentPoint,
		PointToInvestigate:  g.pointToInvestigate,
		AlertLength:         g.vision.AlertLength(),
		PlayerInVision:      g.vision.PlayerInVision(),
		PlayerInAlertVision: g.vision.PlayerInAlertVision(),
		Indicator:           g.Indicator(),
		BacktrackPoints:     g.backtrack.Points(),
	}
}

// VisionCone returns the base and alert cone boundaries from the last tick.
func (g *Guard) VisionCone() (base, alert []cp.Vector) {
	return g.vision.Endpoints()
}
