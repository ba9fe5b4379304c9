package guard

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/harvest/common"
)

var ErrInvalidConfig = errors.New("guard: invalid config")

// Config holds the tunables of a guard. Angles are authored in degrees and
// speeds in world units per second.
type Config struct {
	WalkSpeed    float64 `yaml:"walk_speed"`
	RunSpeed     float64 `yaml:"run_speed"`
	Radius       float64 `yaml:"radius"`
	RotateSpeed  float64 `yaml:"rotate_speed"`
	VisionAngle  float64 `yaml:"vision_angle"`
	VisionLength float64 `yaml:"vision_length"`
	RayCount     int     `yaml:"ray_count"`

	AlertGrowthRate float64 `yaml:"alert_growth_rate"`
	AlertDecayRate  float64 `yaml:"alert_decay_rate"`

	AttackRange float64 `yaml:"attack_range"`
	AttackDelay float64 `yaml:"attack_delay"`

	InvestigateDelay float64 `yaml:"investigate_delay"`

	LookInterval       float64 `yaml:"look_interval"`
	LookSpeedMin       float64 `yaml:"look_speed_min"`
	LookSpeedMax       float64 `yaml:"look_speed_max"`
	LookAroundAbort    float64 `yaml:"look_around_abort"`
	LookForPlayerAbort float64 `yaml:"look_for_player_abort"`
	// LookForPlayerCorpses lets a guard searching for the player notice
	// corpses the same way it does while looking around.
	LookForPlayerCorpses bool `yaml:"look_for_player_corpses"`

	ProbeRadius   float64 `yaml:"probe_radius"`
	AvoidOffset   float64 `yaml:"avoid_offset"`
	ArriveEpsilon float64 `yaml:"arrive_epsilon"`
	DefaultDwell  float64 `yaml:"default_dwell"`
}

func DefaultConfig() Config {
	return Config{
		WalkSpeed:            2,
		RunSpeed:             4,
		Radius:               0.5,
		RotateSpeed:          720,
		VisionAngle:          70,
		VisionLength:         8,
		RayCount:             15,
		AlertGrowthRate:      6,
		AlertDecayRate:       2,
		AttackRange:          1.2,
		AttackDelay:          0.5,
		InvestigateDelay:     0.75,
		LookInterval:         1,
		LookSpeedMin:         60,
		LookSpeedMax:         180,
		LookAroundAbort:      4,
		LookForPlayerAbort:   6,
		LookForPlayerCorpses: true,
		ProbeRadius:          0.2,
		AvoidOffset:          0.55,
		ArriveEpsilon:        0.01,
		DefaultDwell:         10,
	}
}

func (c Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"walk_speed", c.WalkSpeed},
		{"run_speed", c.RunSpeed},
		{"radius", c.Radius},
		{"rotate_speed", c.RotateSpeed},
		{"vision_angle", c.VisionAngle},
		{"vision_length", c.VisionLength},
		{"alert_growth_rate", c.AlertGrowthRate},
		{"alert_decay_rate", c.AlertDecayRate},
		{"attack_range", c.AttackRange},
		{"look_interval", c.LookInterval},
		{"probe_radius", c.ProbeRadius},
		{"arrive_epsilon", c.ArriveEpsilon},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidConfig, p.name, p.v)
		}
	}
	if c.RayCount < 1 {
		return fmt.Errorf("%w: ray_count must be at least 1, got %d", ErrInvalidConfig, c.RayCount)
	}
	if c.VisionAngle > 360 {
		return fmt.Errorf("%w: vision_angle above 360", ErrInvalidConfig)
	}
	if c.LookSpeedMin < 0 || c.LookSpeedMax < c.LookSpeedMin {
		return fmt.Errorf("%w: look speed range [%g, %g]", ErrInvalidConfig, c.LookSpeedMin, c.LookSpeedMax)
	}
	nonNegative := map[string]float64{
		"attack_delay":          c.AttackDelay,
		"investigate_delay":     c.InvestigateDelay,
		"look_around_abort":     c.LookAroundAbort,
		"look_for_player_abort": c.LookForPlayerAbort,
		"avoid_offset":          c.AvoidOffset,
		"default_dwell":         c.DefaultDwell,
	}
	for name, v := range nonNegative {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %g", ErrInvalidConfig, name, v)
		}
	}
	return nil
}

// PatrolPoint is a level-authored stop on a guard's route.
type PatrolPoint struct {
	Position cp.Vector
	LookDir  cp.Vector
	Dwell    float64
}

func normalizePatrol(points []PatrolPoint, spawn cp.Vector, facing float64, dwell float64) ([]PatrolPoint, error) {
	if len(points) == 0 {
		return []PatrolPoint{{Position: spawn, LookDir: cp.ForAngle(facing), Dwell: dwell}}, nil
	}
	out := make([]PatrolPoint, len(points))
	for i, p := range points {
		if p.Dwell < 0 {
			return nil, fmt.Errorf("%w: patrol point %d has negative dwell %g", ErrInvalidConfig, i, p.Dwell)
		}
		out[i] = p
	}
	return out, nil
}

func (c Config) visionAngleRad() float64 { return common.Deg2Rad(c.VisionAngle) }
func (c Config) rotateSpeedRad() float64 { return common.Deg2Rad(c.RotateSpeed) }
