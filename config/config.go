package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Sim    SimConfig    `mapstructure:"sim"`
	Log    LogConfig    `mapstructure:"log"`
	Audio  AudioConfig  `mapstructure:"audio"`
	Viewer ViewerConfig `mapstructure:"viewer"`
}

type SimConfig struct {
	TickRate int    `mapstructure:"tick_rate"`
	Seed     uint64 `mapstructure:"seed"`
	Level    string `mapstructure:"level"`
	Ticks    int    `mapstructure:"ticks"` // headless run length; 0 runs until the level ends
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type AudioConfig struct {
	Script string  `mapstructure:"script"`
	Volume float64 `mapstructure:"volume"`
	Mute   bool    `mapstructure:"mute"`
}

type ViewerConfig struct {
	Scale float64 `mapstructure:"scale"`
	Watch bool    `mapstructure:"watch"`
}

// EnvPrefix prefixes environment overrides, e.g. HARVEST_SIM_LEVEL.
const EnvPrefix = "HARVEST"

// Load reads config from the given YAML file path. An empty path uses the
// defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("sim.tick_rate", 60)
	v.SetDefault("sim.seed", 1)
	v.SetDefault("sim.level", "warehouse")
	v.SetDefault("sim.ticks", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("audio.script", "cues.tengo")
	v.SetDefault("audio.volume", 0.5)
	v.SetDefault("audio.mute", false)
	v.SetDefault("viewer.scale", 32)
	v.SetDefault("viewer.watch", true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Sim.TickRate <= 0 {
		return fmt.Errorf("config: sim.tick_rate must be positive, got %d", c.Sim.TickRate)
	}
	if c.Sim.Ticks < 0 {
		return fmt.Errorf("config: sim.ticks must not be negative, got %d", c.Sim.Ticks)
	}
	if c.Sim.Level == "" {
		return fmt.Errorf("config: sim.level is empty")
	}
	if c.Viewer.Scale <= 0 {
		return fmt.Errorf("config: viewer.scale must be positive, got %g", c.Viewer.Scale)
	}
	return nil
}

// TickSeconds is the fixed step length.
func (c *Config) TickSeconds() float64 {
	return 1 / float64(c.Sim.TickRate)
}

// NewLogger builds a production logger, or a development one when
// log.development is set, at the configured level.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log.level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
