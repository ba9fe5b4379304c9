package sim

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/harvest/corpse"
	"github.com/milk9111/harvest/guard"
	"github.com/milk9111/harvest/levels"
	"github.com/milk9111/harvest/physics"
	"github.com/milk9111/harvest/prefabs"
	"go.uber.org/zap"
)

var (
	ErrLevelOver      = errors.New("sim: level is over")
	ErrBusy           = errors.New("sim: player is busy")
	ErrUnknownGuard   = errors.New("sim: guard is not in this level")
	ErrNotKillable    = errors.New("sim: guard cannot be killed")
	ErrOutOfRange     = errors.New("sim: target out of range")
	ErrNothingInReach = errors.New("sim: no corpse in reach")
)

type Outcome int

const (
	Running Outcome = iota
	Caught
	Won
)

func (o Outcome) String() string {
	switch o {
	case Caught:
		return "caught"
	case Won:
		return "won"
	default:
		return "running"
	}
}

// Options are the prefabs and collaborators a level is built with.
type Options struct {
	Guard  prefabs.GuardSpec
	Player prefabs.PlayerSpec
	Cues   guard.CuePlayer
	// Seed feeds each guard its own look-around generator.
	Seed   uint64
	Logger *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		Guard:  prefabs.GuardSpec{Name: "guard", Config: guard.DefaultConfig()},
		Player: prefabs.DefaultPlayerSpec(),
		Seed:   1,
	}
}

// World is one running level: walls, guards, corpses and the player,
// advanced together by Step.
type World struct {
	name string
	log  *zap.Logger

	physics *physics.World
	grid    levels.Grid
	guards  []*guard.Guard
	corpses *corpse.Container
	player  *Player

	outcome Outcome
	ticks   uint64
	elapsed float64
}

func NewWorld(lvl *levels.Level, opts Options) (*World, error) {
	if lvl == nil {
		return nil, errors.New("sim: nil level")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	grid, err := lvl.Grid()
	if err != nil {
		return nil, fmt.Errorf("sim: level %s: %w", lvl.Name, err)
	}

	w := &World{
		name:    lvl.Name,
		log:     logger.With(zap.String("level", lvl.Name)),
		physics: physics.NewWorld(),
		grid:    grid,
	}
	if err := w.physics.AddTiles(grid.Tiles, grid.Width, grid.Height, grid.TileSize); err != nil {
		return nil, fmt.Errorf("sim: level %s: %w", lvl.Name, err)
	}
	width, height := grid.Bounds()
	w.physics.AddBounds(width, height)

	w.player = newPlayer(opts.Player, grid.Spawn)
	w.physics.SetPlayer(grid.Spawn, opts.Player.Radius)

	w.corpses = corpse.NewContainer(w.log)
	for _, c := range lvl.Corpses {
		w.corpses.Spawn(c.Vec(), cp.Vector{X: 1})
	}

	for i, entry := range lvl.Guards {
		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", opts.Guard.Name, i)
		}
		cfg, err := entry.ApplyConfig(opts.Guard.Config)
		if err != nil {
			return nil, fmt.Errorf("sim: %w", err)
		}
		g, err := guard.New(guard.Params{
			Name:     name,
			Position: entry.Position(),
			Facing:   entry.FacingRad(),
			Patrol:   entry.PatrolPoints(cfg.DefaultDwell),
			Config:   cfg,
			Collider: w.physics,
			Cues:     opts.Cues,
			Rand:     rand.New(rand.NewPCG(opts.Seed, uint64(i)+1)),
			Logger:   w.log,
		})
		if err != nil {
			return nil, fmt.Errorf("sim: guard %s: %w", name, err)
		}
		g.Init(w.player, w.corpses)
		w.guards = append(w.guards, g)
	}

	w.log.Info("level loaded",
		zap.Int("guards", len(w.guards)),
		zap.Int("corpses", w.corpses.Len()),
	)
	return w, nil
}

// Step advances the level by one fixed step. The player moves first and is
// committed to the collision world before any guard looks.
func (w *World) Step(dt float64, in Input) Outcome {
	if w.outcome != Running || dt <= 0 {
		return w.outcome
	}
	w.ticks++
	w.elapsed += dt

	w.player.input = in
	w.player.update(w, dt)
	if w.outcome != Running {
		return w.outcome
	}
	w.physics.MovePlayer(w.player.pos)

	for _, g := range w.guards {
		g.Tick(dt)
	}

	if w.player.caught {
		w.end(Caught)
	}
	return w.outcome
}

func (w *World) end(o Outcome) {
	w.outcome = o
	w.player.setState(stateDone)
	w.log.Info("level over",
		zap.Stringer("outcome", o),
		zap.Uint64("tick", w.ticks),
		zap.Float64("elapsed", w.elapsed),
	)
}

func (w *World) checkGoal() bool {
	if !w.grid.HasGoal {
		return false
	}
	if w.player.pos.DistanceSq(w.grid.Goal) >= w.player.spec.GoalDistanceSq {
		return false
	}
	w.end(Won)
	return true
}

// killable reports whether a player standing at from could start a kill on
// g: close enough, g not alert, and no wall in the way.
func (w *World) killable(from cp.Vector, g *guard.Guard) bool {
	if !g.CanBeKilled() {
		return false
	}
	r := w.player.spec.Radius
	to := g.Position().Sub(from)
	dist := to.Length()
	if dist >= w.player.spec.KillRange+r+g.Radius() {
		return false
	}
	if dist == 0 {
		return true
	}
	_, blocked := w.physics.SweptCircleCast(from, r, to.Mult(1/dist), dist, guard.LayerWalls)
	return !blocked
}

// BeginHarvest starts killing g. The guard is frozen in BeingHarvested and
// becomes a corpse once the harvest has run its full duration.
func (w *World) BeginHarvest(g *guard.Guard) error {
	if w.outcome != Running {
		return ErrLevelOver
	}
	p := w.player
	if p.state != stateFree || p.carried != nil {
		return ErrBusy
	}
	if !w.hasGuard(g) {
		return ErrUnknownGuard
	}
	if !g.CanBeKilled() {
		return ErrNotKillable
	}
	if !w.killable(p.pos, g) {
		return ErrOutOfRange
	}
	if err := g.ForceState(guard.BeingHarvested); err != nil {
		return err
	}
	p.harvesting = g
	p.killTarget = nil
	p.setState(stateKilling)
	w.log.Info("harvest started", zap.String("guard", g.Name()))
	return nil
}

// CancelHarvest releases the guard being harvested back to its patrol and
// reports whether there was one.
func (w *World) CancelHarvest() bool {
	p := w.player
	if p.harvesting == nil {
		return false
	}
	g := p.harvesting
	p.harvesting = nil
	g.ResumePatrol()
	if p.state == stateKilling {
		p.setState(stateFree)
	}
	w.log.Info("harvest cancelled", zap.String("guard", g.Name()))
	return true
}

func (w *World) finishHarvest(g *guard.Guard) {
	c := w.corpses.Spawn(g.Position(), cp.ForAngle(g.Facing()))
	w.removeGuard(g)
	w.log.Info("guard harvested",
		zap.String("guard", g.Name()),
		zap.String("corpse", c.ID()),
	)
}

// PickUpCorpse starts lifting the nearest resting corpse in reach.
func (w *World) PickUpCorpse() error {
	if w.outcome != Running {
		return ErrLevelOver
	}
	p := w.player
	if p.state != stateFree || p.carried != nil {
		return ErrBusy
	}
	c, ok := w.corpses.Nearest(p.pos, p.spec.PickupRadius)
	if !ok {
		return ErrNothingInReach
	}
	p.corpseTarget = c
	p.setState(statePickingUp)
	return nil
}

// DropCorpse starts putting down the carried corpse.
func (w *World) DropCorpse() error {
	if w.outcome != Running {
		return ErrLevelOver
	}
	p := w.player
	if p.carried == nil {
		return corpse.ErrNotCarried
	}
	if p.state != stateFree {
		return ErrBusy
	}
	p.setState(stateDropping)
	return nil
}

func (w *World) completeDrop() {
	p := w.player
	if p.carried != nil {
		c := p.carried
		if err := c.Detach(w.corpses); err != nil {
			w.log.Warn("corpse drop failed", zap.String("corpse", c.ID()), zap.Error(err))
		} else {
			w.log.Debug("corpse dropped", zap.String("corpse", c.ID()))
		}
		p.carried = nil
	}
	p.setState(stateFree)
}

func (w *World) hasGuard(g *guard.Guard) bool {
	for _, other := range w.guards {
		if other == g {
			return true
		}
	}
	return false
}

func (w *World) removeGuard(g *guard.Guard) {
	out := w.guards[:0]
	for _, other := range w.guards {
		if other != g {
			out = append(out, other)
		}
	}
	w.guards = out
}

func (w *World) Name() string { return w.name }

// Guards returns the guards still in the level in spawn order.
func (w *World) Guards() []*guard.Guard {
	return append([]*guard.Guard(nil), w.guards...)
}

func (w *World) Guard(name string) (*guard.Guard, bool) {
	for _, g := range w.guards {
		if g.Name() == name {
			return g, true
		}
	}
	return nil, false
}

func (w *World) Corpses() *corpse.Container { return w.corpses }

func (w *World) Player() *Player { return w.player }

func (w *World) Physics() *physics.World { return w.physics }

func (w *World) Grid() levels.Grid { return w.grid }

func (w *World) Outcome() Outcome { return w.outcome }

func (w *World) Ticks() uint64 { return w.ticks }

func (w *World) Elapsed() float64 { return w.elapsed }
