package levels

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/harvest/common"
	"github.com/milk9111/harvest/guard"
	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var LevelsFS embed.FS

// Dir is the on-disk level directory checked before the embedded levels.
var Dir = "levels"

var (
	ErrUnknownLevel = errors.New("levels: unknown level")
	ErrBadMap       = errors.New("levels: bad map")
)

// Level is a level file. Coordinates are world units with the origin at the
// top-left corner of the map and y growing downward.
type Level struct {
	Name     string       `yaml:"name"`
	TileSize float64      `yaml:"tile_size"`
	Map      []string     `yaml:"map"`
	Guards   []GuardEntry `yaml:"guards"`
	Corpses  []Point      `yaml:"corpses"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p Point) Vec() cp.Vector { return cp.Vector{X: p.X, Y: p.Y} }

type GuardEntry struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	// Facing is in degrees.
	Facing float64       `yaml:"facing"`
	Patrol []PatrolEntry `yaml:"patrol"`
	// Config overrides keys of the guard prefab config.
	Config yaml.Node `yaml:"config"`
}

type PatrolEntry struct {
	X     float64  `yaml:"x"`
	Y     float64  `yaml:"y"`
	Look  float64  `yaml:"look"`
	Dwell *float64 `yaml:"dwell"`
}

// Load reads a level by file name, preferring the copy on disk.
func Load(name string) (*Level, error) {
	clean := filepath.ToSlash(name)
	if after, ok := strings.CutPrefix(clean, "levels/"); ok {
		clean = after
	}
	if !strings.HasSuffix(clean, ".yaml") {
		clean += ".yaml"
	}
	data, err := os.ReadFile(filepath.Join(Dir, filepath.FromSlash(clean)))
	if err != nil {
		data, err = fs.ReadFile(LevelsFS, clean)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLevel, name)
		}
		return nil, fmt.Errorf("levels: read %s: %w", name, err)
	}
	lvl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("levels: %s: %w", name, err)
	}
	return lvl, nil
}

func Parse(data []byte) (*Level, error) {
	var lvl Level
	if err := yaml.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("unmarshal level: %w", err)
	}
	if lvl.TileSize <= 0 {
		lvl.TileSize = 1
	}
	return &lvl, nil
}

// Names lists the embedded levels.
func Names() []string {
	entries, err := fs.ReadDir(LevelsFS, ".")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Grid is the tile layer of a level: '#' is a wall, 'P' the player spawn
// and 'G' the goal. Any other rune is floor.
type Grid struct {
	Tiles    []int
	Width    int
	Height   int
	TileSize float64
	Spawn    cp.Vector
	Goal     cp.Vector
	HasGoal  bool
}

func (l *Level) Grid() (Grid, error) {
	g := Grid{Height: len(l.Map), TileSize: l.TileSize}
	if g.Height == 0 {
		return Grid{}, fmt.Errorf("%w: empty map", ErrBadMap)
	}
	g.Width = len(l.Map[0])
	g.Tiles = make([]int, 0, g.Width*g.Height)
	spawn := false
	for y, row := range l.Map {
		if len(row) != g.Width {
			return Grid{}, fmt.Errorf("%w: row %d has %d tiles, want %d", ErrBadMap, y, len(row), g.Width)
		}
		for x, r := range row {
			tile := 0
			centre := cp.Vector{X: (float64(x) + 0.5) * l.TileSize, Y: (float64(y) + 0.5) * l.TileSize}
			switch r {
			case '#':
				tile = 1
			case 'P':
				g.Spawn = centre
				spawn = true
			case 'G':
				g.Goal = centre
				g.HasGoal = true
			}
			g.Tiles = append(g.Tiles, tile)
		}
	}
	if !spawn {
		return Grid{}, fmt.Errorf("%w: no player spawn", ErrBadMap)
	}
	return g, nil
}

// Bounds is the size of the map in world units.
func (g Grid) Bounds() (float64, float64) {
	return float64(g.Width) * g.TileSize, float64(g.Height) * g.TileSize
}

// ApplyConfig overlays the entry's config overrides on base.
func (e GuardEntry) ApplyConfig(base guard.Config) (guard.Config, error) {
	if e.Config.Kind == 0 {
		return base, nil
	}
	cfg := base
	if err := e.Config.Decode(&cfg); err != nil {
		return guard.Config{}, fmt.Errorf("levels: guard %s config: %w", e.Name, err)
	}
	return cfg, nil
}

// PatrolPoints converts the authored route. Points without a dwell use
// defaultDwell.
func (e GuardEntry) PatrolPoints(defaultDwell float64) []guard.PatrolPoint {
	out := make([]guard.PatrolPoint, 0, len(e.Patrol))
	for _, p := range e.Patrol {
		dwell := defaultDwell
		if p.Dwell != nil {
			dwell = *p.Dwell
		}
		out = append(out, guard.PatrolPoint{
			Position: cp.Vector{X: p.X, Y: p.Y},
			LookDir:  cp.ForAngle(common.Deg2Rad(p.Look)),
			Dwell:    dwell,
		})
	}
	return out
}

func (e GuardEntry) Position() cp.Vector { return cp.Vector{X: e.X, Y: e.Y} }

func (e GuardEntry) FacingRad() float64 { return common.Deg2Rad(e.Facing) }
