package main

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/harvest/config"
	"github.com/milk9111/harvest/cue"
	"github.com/milk9111/harvest/guard"
	"github.com/milk9111/harvest/levels"
	"github.com/milk9111/harvest/prefabs"
	"github.com/milk9111/harvest/sim"
	"go.uber.org/zap"
	"golang.org/x/image/colornames"
)

const hudHeight = 64

type Game struct {
	cfg   *config.Config
	log   *zap.Logger
	level string

	world   *sim.World
	sink    *toneSink
	script  *cue.ScriptPlayer
	cues    cue.Player
	lastCue string

	watcher *prefabs.Watcher

	paused    bool
	pauseUI   *ebitenui.UI
	showCones bool
}

func NewGame(cfg *config.Config, logger *zap.Logger) (*Game, error) {
	g := &Game{
		cfg:       cfg,
		log:       logger,
		level:     cfg.Sim.Level,
		sink:      newToneSink(cfg.Audio, logger),
		showCones: true,
	}
	g.loadScript()
	g.cues = cue.Multi(cue.Func(g.playCue), cue.Func(func(name string) { g.lastCue = name }))

	if err := g.load(); err != nil {
		return nil, err
	}

	if cfg.Viewer.Watch {
		dirs := []string{prefabs.Dir, filepath.Join(prefabs.Dir, "scripts"), levels.Dir}
		w, err := prefabs.NewWatcher(logger, dirs...)
		if err != nil {
			logger.Warn("hot reload disabled", zap.Error(err))
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func (g *Game) playCue(name string) {
	if g.script != nil {
		g.script.PlayCue(name)
	}
}

func (g *Game) loadScript() {
	script, err := cue.LoadScriptPlayer(g.cfg.Audio.Script, g.sink, g.log)
	if err != nil {
		g.log.Warn("cue script not loaded", zap.String("script", g.cfg.Audio.Script), zap.Error(err))
		return
	}
	g.script = script
}

func (g *Game) load() error {
	lvl, err := levels.Load(g.level)
	if err != nil {
		return err
	}
	guardSpec, err := prefabs.LoadGuardSpec()
	if err != nil {
		return err
	}
	playerSpec, err := prefabs.LoadPlayerSpec()
	if err != nil {
		return err
	}
	world, err := sim.NewWorld(lvl, sim.Options{
		Guard:  guardSpec,
		Player: playerSpec,
		Cues:   g.cues,
		Seed:   g.cfg.Sim.Seed,
		Logger: g.log,
	})
	if err != nil {
		return err
	}
	g.world = world
	g.lastCue = ""
	return nil
}

func (g *Game) restart() {
	if err := g.load(); err != nil {
		g.log.Error("reload level", zap.String("level", g.level), zap.Error(err))
		return
	}
	g.setPaused(false)
}

func (g *Game) setPaused(paused bool) {
	g.paused = paused
	g.pauseUI = nil
	if paused {
		g.pauseUI = NewPauseUI(g, "Paused", true)
	}
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-g.watcher.Changes:
			if !ok {
				g.watcher = nil
				return
			}
			g.log.Info("reloading", zap.String("path", change.Path), zap.Stringer("kind", change.Kind))
			if change.Kind == prefabs.ChangeScript {
				g.loadScript()
				continue
			}
			g.restart()
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			g.log.Warn("watcher", zap.Error(err))
		default:
			return
		}
	}
}

func (g *Game) Update() error {
	g.pollWatcher()

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.restart()
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.showCones = !g.showCones
	}

	if g.world.Outcome() != sim.Running {
		if g.pauseUI == nil {
			title := "Caught"
			if g.world.Outcome() == sim.Won {
				title = "Escaped"
			}
			g.pauseUI = NewPauseUI(g, title, false)
		}
		g.pauseUI.Update()
		return nil
	}

	if pausePressed() {
		g.setPaused(!g.paused)
	}
	if g.paused {
		g.pauseUI.Update()
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.world.CancelHarvest()
	}
	g.world.Step(g.cfg.TickSeconds(), readInput())
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Black)
	scale := g.cfg.Viewer.Scale

	drawSpace(g.world.Physics().Space(), screen, scale, hudHeight)

	grid := g.world.Grid()
	if grid.HasGoal {
		g.fillCircle(screen, grid.Goal, 0.4, colornames.Gold)
	}

	for _, c := range g.world.Corpses().All() {
		clr := colornames.Darkred
		if c.Carried() {
			clr = colornames.Indianred
		}
		g.fillCircle(screen, c.Position(), 0.35, clr)
	}

	for _, gd := range g.world.Guards() {
		g.drawGuard(screen, gd)
	}

	p := g.world.Player()
	g.fillCircle(screen, p.Position(), p.Radius(), colornames.Deepskyblue)
	g.line(screen, p.Position(), p.Position().Add(cp.ForAngle(p.Facing()).Mult(p.Radius())), colornames.White)
	if t := p.KillTarget(); t != nil {
		g.label(screen, t.Position(), "J")
	}
	if c := p.CorpseTarget(); c != nil {
		g.label(screen, c.Position(), "K")
	}

	g.drawHUD(screen)

	if g.pauseUI != nil && (g.paused || g.world.Outcome() != sim.Running) {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) drawGuard(screen *ebiten.Image, gd *guard.Guard) {
	d := gd.Diagnostics()
	if g.showCones {
		base, alert := gd.VisionCone()
		for _, end := range base {
			g.line(screen, d.Position, end, color.NRGBA{R: 0xff, G: 0xff, B: 0x80, A: 0x30})
		}
		for _, end := range alert {
			g.line(screen, d.Position, end, color.NRGBA{R: 0xff, G: 0x40, B: 0x20, A: 0x60})
		}
		for _, pt := range d.BacktrackPoints {
			g.fillCircle(screen, pt, 0.08, colornames.Orange)
		}
	}

	clr := colornames.Seagreen
	switch {
	case gd.IsAlert():
		clr = colornames.Crimson
	case d.State == guard.BeingHarvested:
		clr = colornames.Gray
	}
	g.fillCircle(screen, d.Position, gd.Radius(), clr)
	g.line(screen, d.Position, d.Position.Add(cp.ForAngle(d.Facing).Mult(gd.Radius())), colornames.White)

	text := d.State.String()
	if mark := d.Indicator.String(); mark != "" {
		text = mark + " " + text
	}
	g.label(screen, d.Position, text)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	p := g.world.Player()
	status := fmt.Sprintf("%s  t=%.1fs  FPS %.0f  player: %s", g.world.Name(), g.world.Elapsed(), ebiten.ActualFPS(), p.StateName())
	if p.Carried() != nil {
		status += " (carrying)"
	}
	ebitenutil.DebugPrintAt(screen, status, 4, 4)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("guards %d  corpses %d  last cue: %s", len(g.world.Guards()), g.world.Corpses().Len(), g.lastCue), 4, 20)
	ebitenutil.DebugPrintAt(screen, "WASD move  J kill  K grab/drop  C cancel  V cones  R restart  Esc pause", 4, 36)
}

func (g *Game) toScreen(v cp.Vector) (float32, float32) {
	s := g.cfg.Viewer.Scale
	return float32(v.X * s), float32(v.Y*s + hudHeight)
}

func (g *Game) line(screen *ebiten.Image, a, b cp.Vector, clr color.Color) {
	strokeWorldLine(screen, a, b, g.cfg.Viewer.Scale, hudHeight, clr)
}

func (g *Game) fillCircle(screen *ebiten.Image, center cp.Vector, radius float64, clr color.Color) {
	x, y := g.toScreen(center)
	vector.FillCircle(screen, x, y, float32(radius*g.cfg.Viewer.Scale), clr, true)
}

func (g *Game) label(screen *ebiten.Image, at cp.Vector, text string) {
	x, y := g.toScreen(at)
	r := float32(0.6 * g.cfg.Viewer.Scale)
	ebitenutil.DebugPrintAt(screen, text, int(x-r), int(y-r-16))
}

func (g *Game) screenSize() (int, int) {
	w, h := g.world.Grid().Bounds()
	s := g.cfg.Viewer.Scale
	return int(math.Ceil(w * s)), int(math.Ceil(h*s)) + hudHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.screenSize()
}

func (g *Game) Close() error {
	if g.watcher != nil {
		return g.watcher.Close()
	}
	return nil
}
