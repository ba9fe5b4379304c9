package main

import (
	"flag"
	"log"
	"os"

	"github.com/milk9111/harvest/config"
	"github.com/milk9111/harvest/cue"
	"github.com/milk9111/harvest/levels"
	"github.com/milk9111/harvest/prefabs"
	"github.com/milk9111/harvest/sim"
	"go.uber.org/zap"
)

// guardsim runs a level headless with an idle player and reports how it
// ended. Cues go through the cue script into the log.
func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file")
	levelName := flag.String("level", "", "level name in levels/ (overrides sim.level)")
	ticks := flag.Int("ticks", -1, "ticks to run (overrides sim.ticks; 0 runs until the level ends)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *levelName != "" {
		cfg.Sim.Level = *levelName
	}
	if *ticks >= 0 {
		cfg.Sim.Ticks = *ticks
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	outcome, err := run(cfg, logger)
	if err != nil {
		logger.Error("guardsim failed", zap.Error(err))
		os.Exit(1)
	}
	if outcome == sim.Caught {
		os.Exit(2)
	}
}

// maxUnboundedSeconds caps a run with sim.ticks 0.
const maxUnboundedSeconds = 600

func run(cfg *config.Config, logger *zap.Logger) (sim.Outcome, error) {
	lvl, err := levels.Load(cfg.Sim.Level)
	if err != nil {
		return sim.Running, err
	}
	guardSpec, err := prefabs.LoadGuardSpec()
	if err != nil {
		return sim.Running, err
	}
	playerSpec, err := prefabs.LoadPlayerSpec()
	if err != nil {
		return sim.Running, err
	}

	sink := cue.SinkFunc(func(sound string, volume float64) {
		logger.Info("sound", zap.String("sound", sound), zap.Float64("volume", volume))
	})
	var cues cue.Player = &cue.Recorder{}
	if script, err := cue.LoadScriptPlayer(cfg.Audio.Script, sink, logger); err != nil {
		logger.Warn("cue script not loaded", zap.Error(err))
	} else {
		cues = script
	}

	world, err := sim.NewWorld(lvl, sim.Options{
		Guard:  guardSpec,
		Player: playerSpec,
		Cues:   cues,
		Seed:   cfg.Sim.Seed,
		Logger: logger,
	})
	if err != nil {
		return sim.Running, err
	}

	limit := cfg.Sim.Ticks
	if limit == 0 {
		limit = maxUnboundedSeconds * cfg.Sim.TickRate
	}
	dt := cfg.TickSeconds()
	for i := 0; i < limit && world.Outcome() == sim.Running; i++ {
		world.Step(dt, sim.Input{})
	}

	for _, g := range world.Guards() {
		d := g.Diagnostics()
		logger.Info("guard",
			zap.String("guard", g.Name()),
			zap.Stringer("state", d.State),
			zap.Float64("x", d.Position.X),
			zap.Float64("y", d.Position.Y),
		)
	}
	logger.Info("run finished",
		zap.String("level", world.Name()),
		zap.Stringer("outcome", world.Outcome()),
		zap.Uint64("ticks", world.Ticks()),
	)
	return world.Outcome(), nil
}
