package prefabs

import (
	"fmt"

	"github.com/milk9111/harvest/guard"
	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var spec T
	if err := LoadInto(filename, &spec); err != nil {
		var zero T
		return zero, err
	}
	return spec, nil
}

// LoadInto decodes a prefab over out. Keys missing from the file keep the
// values out already holds.
func LoadInto[T any](filename string, out *T) error {
	data, err := Load(filename)
	if err != nil {
		return fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}
	return nil
}

// GuardSpec is the guard prefab.
type GuardSpec struct {
	Name   string       `yaml:"name"`
	Config guard.Config `yaml:"config"`
}

// LoadGuardSpec reads guard.yaml over guard.DefaultConfig.
func LoadGuardSpec() (GuardSpec, error) {
	spec := GuardSpec{Name: "guard", Config: guard.DefaultConfig()}
	if err := LoadInto("guard.yaml", &spec); err != nil {
		return GuardSpec{}, err
	}
	if err := spec.Config.Validate(); err != nil {
		return GuardSpec{}, fmt.Errorf("prefabs: guard.yaml: %w", err)
	}
	return spec, nil
}

// PlayerSpec holds the player's movement and interaction tunables.
type PlayerSpec struct {
	Name               string  `yaml:"name"`
	Radius             float64 `yaml:"radius"`
	MaxSpeed           float64 `yaml:"max_speed"`
	MaxSpeedWithCorpse float64 `yaml:"max_speed_with_corpse"`
	Accel              float64 `yaml:"accel"`
	Decel              float64 `yaml:"decel"`
	RotateSpeed        float64 `yaml:"rotate_speed"`
	KillRange          float64 `yaml:"kill_range"`
	HarvestDuration    float64 `yaml:"harvest_duration"`
	PickupRadius       float64 `yaml:"pickup_radius"`
	PickupDuration     float64 `yaml:"pickup_duration"`
	GoalDistanceSq     float64 `yaml:"goal_distance_sq"`
}

func DefaultPlayerSpec() PlayerSpec {
	return PlayerSpec{
		Name:               "player",
		Radius:             0.5,
		MaxSpeed:           4.5,
		MaxSpeedWithCorpse: 2.5,
		Accel:              20,
		Decel:              25,
		RotateSpeed:        720,
		KillRange:          0.8,
		HarvestDuration:    1.167,
		PickupRadius:       1.1,
		PickupDuration:     0.5,
		GoalDistanceSq:     2,
	}
}

// LoadPlayerSpec reads player.yaml over DefaultPlayerSpec.
func LoadPlayerSpec() (PlayerSpec, error) {
	spec := DefaultPlayerSpec()
	if err := LoadInto("player.yaml", &spec); err != nil {
		return PlayerSpec{}, err
	}
	return spec, nil
}
