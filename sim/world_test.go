package sim

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/harvest/corpse"
	"github.com/milk9111/harvest/cue"
	"github.com/milk9111/harvest/guard"
	"github.com/milk9111/harvest/levels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testDT = 1.0 / 60

func newTestWorld(t *testing.T, src string, opts Options) *World {
	t.Helper()
	lvl, err := levels.Parse([]byte(src))
	require.NoError(t, err)
	w, err := NewWorld(lvl, opts)
	require.NoError(t, err)
	return w
}

func stepN(w *World, n int, in Input) {
	for i := 0; i < n; i++ {
		w.Step(testDT, in)
	}
}

const corridor = `
name: corridor
map:
  - "#######"
  - "#.....#"
  - "#P....#"
  - "#.....#"
  - "#######"
`

func TestNewWorldFromEmbeddedLevel(t *testing.T) {
	lvl, err := levels.Load("warehouse")
	require.NoError(t, err)

	w, err := NewWorld(lvl, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, w.Guards(), 3)
	assert.Equal(t, Running, w.Outcome())
	assert.Equal(t, w.Grid().Spawn, w.Player().Position())
	assert.NotEmpty(t, w.Physics().Boxes())

	g, ok := w.Guard("storeroom")
	require.True(t, ok)
	assert.Equal(t, 1.5, g.Config().WalkSpeed)
}

func TestNewWorldRejectsBadLevels(t *testing.T) {
	_, err := NewWorld(nil, DefaultOptions())
	assert.Error(t, err)

	lvl, err := levels.Parse([]byte("map: [\"###\"]"))
	require.NoError(t, err)
	_, err = NewWorld(lvl, DefaultOptions())
	assert.ErrorIs(t, err, levels.ErrBadMap)

	lvl, err = levels.Parse([]byte(`
map: ["P.."]
guards:
  - {name: bad, x: 1, y: 0, config: {ray_count: 0}}
`))
	require.NoError(t, err)
	_, err = NewWorld(lvl, DefaultOptions())
	assert.ErrorIs(t, err, guard.ErrInvalidConfig)
}

func TestPlayerStopsAtWall(t *testing.T) {
	w := newTestWorld(t, corridor, DefaultOptions())

	stepN(w, 120, Input{MoveX: 1})

	pos := w.Player().Position()
	assert.InDelta(t, 6-0.5-wallGap, pos.X, 0.02)
	assert.InDelta(t, 2.5, pos.Y, 1e-9)
	assert.InDelta(t, 0, w.Player().Velocity().X, 0.5)
}

func TestPlayerAcceleratesAndBrakes(t *testing.T) {
	w := newTestWorld(t, corridor, DefaultOptions())

	w.Step(testDT, Input{MoveY: -1})
	assert.InDelta(t, -20*testDT, w.Player().Velocity().Y, 1e-9)

	stepN(w, 5, Input{})
	assert.Equal(t, cp.Vector{}, w.Player().Velocity())
}

func TestReachingGoalWins(t *testing.T) {
	w := newTestWorld(t, `
map:
  - "########"
  - "#......#"
  - "#P...G.#"
  - "#......#"
  - "########"
`, DefaultOptions())

	for i := 0; i < 240 && w.Outcome() == Running; i++ {
		w.Step(testDT, Input{MoveX: 1})
	}
	assert.Equal(t, Won, w.Outcome())
	assert.Equal(t, "done", w.Player().StateName())

	ticks := w.Ticks()
	w.Step(testDT, Input{MoveX: 1})
	assert.Equal(t, ticks, w.Ticks())
	assert.ErrorIs(t, w.PickUpCorpse(), ErrLevelOver)
}

const guardRoom = `
map:
  - "#########"
  - "#.......#"
  - "#..P....#"
  - "#.......#"
  - "#########"
guards:
  - {name: mark, x: 4.5, y: 2.5, facing: 0}
`

func TestHarvestLeavesCorpse(t *testing.T) {
	w := newTestWorld(t, guardRoom, DefaultOptions())
	g, ok := w.Guard("mark")
	require.True(t, ok)

	w.Step(testDT, Input{Kill: true})
	require.Equal(t, g, w.Player().Harvesting())
	assert.Equal(t, "killing", w.Player().StateName())
	assert.Equal(t, guard.BeingHarvested, g.State())

	stepN(w, 80, Input{})

	assert.Empty(t, w.Guards())
	assert.Equal(t, "free", w.Player().StateName())
	assert.Nil(t, w.Player().Harvesting())
	require.Equal(t, 1, w.Corpses().Len())
	c := w.Corpses().All()[0]
	assert.Equal(t, cp.Vector{X: 4.5, Y: 2.5}, c.Position())
	assert.Equal(t, Running, w.Outcome())
}

func TestKillTargetAndHarvestErrors(t *testing.T) {
	w := newTestWorld(t, guardRoom, DefaultOptions())
	g, _ := w.Guard("mark")

	w.Step(testDT, Input{})
	assert.Equal(t, g, w.Player().KillTarget())

	other := newTestWorld(t, guardRoom, DefaultOptions())
	og, _ := other.Guard("mark")
	assert.ErrorIs(t, w.BeginHarvest(og), ErrUnknownGuard)

	require.NoError(t, g.ForceState(guard.Chasing))
	assert.ErrorIs(t, w.BeginHarvest(g), ErrNotKillable)
	require.NoError(t, g.ForceState(guard.StandingAtPoint))

	require.NoError(t, w.BeginHarvest(g))
	assert.ErrorIs(t, w.BeginHarvest(g), ErrBusy)
}

func TestHarvestOutOfRange(t *testing.T) {
	w := newTestWorld(t, `
map:
  - "#########"
  - "#.......#"
  - "#P......#"
  - "#.......#"
  - "#########"
guards:
  - {name: far, x: 6.5, y: 2.5, facing: 0}
`, DefaultOptions())
	g, _ := w.Guard("far")

	w.Step(testDT, Input{Kill: true})
	assert.Nil(t, w.Player().KillTarget())
	assert.Equal(t, "free", w.Player().StateName())
	assert.ErrorIs(t, w.BeginHarvest(g), ErrOutOfRange)
}

func TestCancelHarvestResumesPatrol(t *testing.T) {
	w := newTestWorld(t, guardRoom, DefaultOptions())
	g, _ := w.Guard("mark")
	require.NoError(t, w.BeginHarvest(g))

	stepN(w, 10, Input{})
	assert.True(t, w.CancelHarvest())
	assert.False(t, w.CancelHarvest())
	assert.Equal(t, guard.Backtrack, g.State())
	assert.Equal(t, "free", w.Player().StateName())
	assert.Len(t, w.Guards(), 1)
}

func TestCarryCorpse(t *testing.T) {
	w := newTestWorld(t, `
map:
  - "############"
  - "#..........#"
  - "#..P.......#"
  - "#..........#"
  - "############"
corpses:
  - {x: 4.5, y: 2.5}
`, DefaultOptions())
	c := w.Corpses().All()[0]
	assert.ErrorIs(t, w.DropCorpse(), corpse.ErrNotCarried)

	w.Step(testDT, Input{Grab: true})
	assert.Equal(t, "picking_up", w.Player().StateName())
	assert.ErrorIs(t, w.PickUpCorpse(), ErrBusy)

	stepN(w, 40, Input{})
	require.Equal(t, c, w.Player().Carried())
	assert.True(t, c.Carried())

	stepN(w, 90, Input{MoveX: 1})
	spec := DefaultOptions().Player
	assert.LessOrEqual(t, w.Player().Velocity().Length(), spec.MaxSpeedWithCorpse+1e-9)
	assert.Equal(t, w.Player().Position(), c.Position())
	refs := w.Corpses().LiveCorpses()
	require.Len(t, refs, 1)
	assert.Equal(t, w.Player().Position(), refs[0].Position)

	w.Step(testDT, Input{Grab: true})
	assert.Equal(t, "dropping", w.Player().StateName())
	dropAt := w.Player().Position()

	stepN(w, 40, Input{})
	assert.Nil(t, w.Player().Carried())
	assert.False(t, c.Carried())
	assert.Equal(t, dropAt, c.Position())
	assert.Equal(t, "free", w.Player().StateName())
}

func TestRefusedDropIsLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	opts := DefaultOptions()
	opts.Logger = zap.New(core)
	w := newTestWorld(t, corridor, opts)

	p := w.Player()
	c := w.Corpses().Spawn(p.Position(), cp.Vector{X: 1})
	require.NoError(t, c.Attach(p))
	p.carried = c
	p.setState(stateDropping)
	p.input = Input{Grab: true}

	stateFree.Update(p, w, testDT)

	entries := logs.FilterMessage("drop refused").All()
	require.Len(t, entries, 1)
	assert.Equal(t, ErrBusy.Error(), entries[0].ContextMap()["error"])
}

func TestGuardCatchesPlayer(t *testing.T) {
	cues := &cue.Recorder{}
	opts := DefaultOptions()
	opts.Cues = cues
	w := newTestWorld(t, `
map:
  - "##########"
  - "#........#"
  - "#P.......#"
  - "#........#"
  - "##########"
guards:
  - {name: hawk, x: 6.5, y: 2.5, facing: 180}
`, opts)

	for i := 0; i < 600 && w.Outcome() == Running; i++ {
		w.Step(testDT, Input{})
	}
	assert.Equal(t, Caught, w.Outcome())
	assert.True(t, w.Player().Caught())
	assert.Equal(t, "done", w.Player().StateName())

	g, _ := w.Guard("hawk")
	assert.Equal(t, guard.Attacking, g.State())
	assert.Equal(t, []string{guard.CueSuspicious, guard.CueAlert, guard.CueAttack}, cues.Names())
}

func TestSeededRunsAreDeterministic(t *testing.T) {
	run := func() []cp.Vector {
		lvl, err := levels.Load("warehouse")
		require.NoError(t, err)
		opts := DefaultOptions()
		opts.Seed = 7
		w, err := NewWorld(lvl, opts)
		require.NoError(t, err)
		stepN(w, 900, Input{})
		var out []cp.Vector
		for _, g := range w.Guards() {
			out = append(out, g.Position(), cp.ForAngle(g.Facing()))
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "caught", Caught.String())
	assert.Equal(t, "won", Won.String())
}
