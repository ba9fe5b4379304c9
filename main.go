package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/harvest/config"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file")
	levelName := flag.String("level", "", "level name in levels/ (basename, .yaml optional)")
	debug := flag.Bool("debug", false, "log at debug level with a development logger")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *levelName != "" {
		cfg.Sim.Level = *levelName
	}
	if *debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	game, err := NewGame(cfg, logger)
	if err != nil {
		logger.Fatal("start viewer", zap.Error(err))
	}
	defer game.Close()

	ebiten.SetTPS(cfg.Sim.TickRate)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	w, h := game.screenSize()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("harvest: " + cfg.Sim.Level)

	if err := ebiten.RunGame(game); err != nil {
		logger.Error("viewer stopped", zap.Error(err))
	}
}
