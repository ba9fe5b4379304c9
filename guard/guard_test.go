package guard

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func standAt(pos cp.Vector, dwell float64) []PatrolPoint {
	return []PatrolPoint{{Position: pos, LookDir: cp.Vector{X: 1}, Dwell: dwell}}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RayCount = 0
	_, err := New(Params{Config: cfg})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Params{
		Config: DefaultConfig(),
		Patrol: []PatrolPoint{{Dwell: -1}},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewSynthesizesPatrolPoint(t *testing.T) {
	g := newTestGuard(t, Params{Position: cp.Vector{X: 3, Y: 4}}, nil)

	require.Len(t, g.patrol, 1)
	assert.Equal(t, cp.Vector{X: 3, Y: 4}, g.patrol[0].Position)
	assert.Equal(t, DefaultConfig().DefaultDwell, g.patrol[0].Dwell)
	assert.Equal(t, StandingAtPoint, g.State())
	assert.NotEmpty(t, g.ID())
}

func TestNewStartsWalkingWhenAwayFromRoute(t *testing.T) {
	g := newTestGuard(t, Params{
		Position: cp.Vector{X: 5},
		Patrol:   standAt(cp.Vector{}, 1),
	}, nil)
	assert.Equal(t, WalkingToPoint, g.State())
}

func TestTickBeforeInitIsNoop(t *testing.T) {
	g, err := New(Params{
		Position: cp.Vector{X: 5},
		Patrol:   standAt(cp.Vector{}, 1),
		Config:   DefaultConfig(),
		Collider: &fakeWorld{},
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		g.Tick(testDT)
	}
	d := g.Diagnostics()
	assert.Equal(t, cp.Vector{X: 5}, d.Position)
	assert.Equal(t, 0.0, d.StateTimer)
	assert.Equal(t, WalkingToPoint, d.State)

	g.Init(&fakePlayer{pos: farAway}, nil)
	g.Tick(testDT)
	assert.Equal(t, cp.Vector{X: 5}, g.Position())
}

func TestPatrolBetweenTwoPoints(t *testing.T) {
	g := newTestGuard(t, Params{
		Patrol: []PatrolPoint{
			{Position: cp.Vector{}, LookDir: cp.Vector{X: 1}, Dwell: 2},
			{Position: cp.Vector{X: 10}, LookDir: cp.Vector{X: -1}, Dwell: 2},
		},
	}, nil)
	require.Equal(t, StandingAtPoint, g.State())

	g.tickN(15)
	assert.Equal(t, StandingAtPoint, g.State())
	g.tickN(1)
	assert.Equal(t, WalkingToPoint, g.State())
	assert.Equal(t, 1, g.Diagnostics().CurrentPoint)

	// 10 units at walk speed 2 is 5s.
	g.tickN(39)
	assert.Equal(t, WalkingToPoint, g.State())
	g.tickN(1)
	assert.Equal(t, StandingAtPoint, g.State())
	assert.InDelta(t, 10.0, g.Position().X, 0.1)
	assert.InDelta(t, 0.0, g.Position().Y, 1e-9)
}

func TestDwellEndsOnTimeAtSixtyHertz(t *testing.T) {
	g := newTestGuard(t, Params{
		Patrol: []PatrolPoint{
			{Position: cp.Vector{}, LookDir: cp.Vector{X: 1}, Dwell: 2},
			{Position: cp.Vector{X: 10}, LookDir: cp.Vector{X: -1}, Dwell: 2},
		},
	}, nil)

	const dt = 1.0 / 60
	for i := 0; i < 119; i++ {
		g.Tick(dt)
	}
	assert.Equal(t, StandingAtPoint, g.State())
	g.Tick(dt)
	assert.Equal(t, WalkingToPoint, g.State())
}

func TestSinglePointNeverAdvances(t *testing.T) {
	g := newTestGuard(t, Params{Patrol: standAt(cp.Vector{}, 1)}, nil)

	g.tickN(8)
	d := g.Diagnostics()
	assert.Equal(t, StandingAtPoint, d.State)
	assert.Equal(t, 0, d.CurrentPoint)
	assert.Equal(t, 0.0, d.StateTimer)

	g.tickN(1)
	assert.Equal(t, testDT, g.Diagnostics().StateTimer)

	g.tickN(200)
	assert.Equal(t, StandingAtPoint, g.State())
	assert.Equal(t, 0, g.Diagnostics().CurrentPoint)
}

func TestStateEntryResetsTimer(t *testing.T) {
	g := newTestGuard(t, Params{Patrol: standAt(cp.Vector{}, 10)}, nil)

	g.tickN(4)
	assert.Equal(t, 0.5, g.Diagnostics().StateTimer)

	require.NoError(t, g.ForceState(StandingAtPoint))
	assert.Equal(t, 0.5, g.Diagnostics().StateTimer)

	require.NoError(t, g.ForceState(Idle))
	assert.Equal(t, 0.0, g.Diagnostics().StateTimer)

	g.tickN(2)
	require.NoError(t, g.ForceState(Idle))
	assert.Equal(t, 0.25, g.Diagnostics().StateTimer)
	assert.Equal(t, Idle, g.State())
}

func TestForceStateRejectsUnknown(t *testing.T) {
	g := newTestGuard(t, Params{}, nil)
	assert.ErrorIs(t, g.ForceState(State(42)), ErrUnknownState)
	assert.Equal(t, StandingAtPoint, g.State())
}

func TestAlertAndKillEligibility(t *testing.T) {
	for s := Idle; s <= Backtrack; s++ {
		t.Run(s.String(), func(t *testing.T) {
			g := newTestGuard(t, Params{}, nil)
			require.NoError(t, g.ForceState(s))
			alert := s == Chasing || s == Attacking
			assert.Equal(t, alert, g.IsAlert())
			assert.Equal(t, !alert, g.CanBeKilled())
		})
	}
}

func TestAlertVisionStartsChaseSameTick(t *testing.T) {
	g := newTestGuard(t, Params{Patrol: standAt(cp.Vector{}, 100)}, nil)
	g.player.pos = cp.Vector{X: 5}

	n := g.tickUntil(Chasing, 20)
	require.Equal(t, 8, n)

	d := g.Diagnostics()
	assert.Equal(t, cp.Vector{X: 5}, d.PointToInvestigate)
	assert.True(t, d.PlayerInAlertVision)
	assert.Equal(t, IndicatorAlerted, d.Indicator)
	assert.Equal(t, []string{CueSuspicious, CueAlert}, g.cues.names)
}

func TestSuspiciousWithoutAlert(t *testing.T) {
	g := newTestGuard(t, Params{Patrol: standAt(cp.Vector{}, 100)}, nil)
	g.player.pos = cp.Vector{X: 5}

	g.tickN(3)
	d := g.Diagnostics()
	assert.Equal(t, StandingAtPoint, d.State)
	assert.True(t, d.PlayerInVision)
	assert.False(t, d.PlayerInAlertVision)
	assert.Equal(t, IndicatorSuspicious, d.Indicator)

	g.player.pos = farAway
	g.tickN(1)
	assert.Equal(t, IndicatorNone, g.Indicator())
	assert.Equal(t, cp.Vector{X: 5}, g.Diagnostics().PointToInvestigate)
}

func TestChaseLostFallsBackToPatrol(t *testing.T) {
	g := newTestGuard(t, Params{Patrol: standAt(cp.Vector{}, 100)}, nil)
	g.player.pos = cp.Vector{X: 5}
	require.Equal(t, 8, g.tickUntil(Chasing, 20))

	g.player.pos = cp.Vector{X: 5, Y: 50}
	n := g.tickUntil(LookingForPlayer, 100)
	require.Positive(t, n)
	assert.InDelta(t, 5.0, g.Position().X, 0.1)
	assert.Equal(t, 0, g.player.caught)

	for i := 1; i < 48; i++ {
		g.Tick(testDT)
		require.Equal(t, LookingForPlayer, g.State(), "tick %d", i)
	}
	g.Tick(testDT)
	assert.Equal(t, Backtrack, g.State())

	g.Tick(testDT)
	assert.Equal(t, WalkingToPoint, g.State())
	assert.Equal(t, 0, g.Diagnostics().CurrentPoint)

	require.Positive(t, g.tickUntil(StandingAtPoint, 200))
	assert.InDelta(t, 0.0, g.Position().Length(), 0.1)
	assert.Equal(t, []string{CueSuspicious, CueAlert, CueLostPlayer, CueGiveUp}, g.cues.names)
}

func TestChaseEntersAttackInRange(t *testing.T) {
	g := newTestGuard(t, Params{Patrol: standAt(cp.Vector{}, 100)}, nil)
	g.player.pos = cp.Vector{X: 1}
	require.NoError(t, g.ForceState(Chasing))

	g.Tick(testDT)
	assert.Equal(t, Attacking, g.State())
}

func TestChaseDoesNotAttackThroughWall(t *testing.T) {
	g := newTestGuard(t, Params{Patrol: standAt(cp.Vector{}, 100)}, nil)
	g.world.walls = []cp.BB{{L: 0.55, B: -2, R: 0.65, T: 2}}
	g.player.pos = cp.Vector{X: 1}
	require.NoError(t, g.ForceState(Chasing))

	g.Tick(testDT)
	assert.NotEqual(t, Attacking, g.State())
}

func TestAttackFiresOncePerEntry(t *testing.T) {
	g := newTestGuard(t, Params{Patrol: standAt(cp.Vector{}, 100)}, nil)
	g.player.pos = cp.Vector{X: 1}
	require.NoError(t, g.ForceState(Attacking))

	g.tickN(3)
	assert.Equal(t, 0, g.player.caught)
	g.tickN(1)
	assert.Equal(t, 1, g.player.caught)
	g.tickN(20)
	assert.Equal(t, 1, g.player.caught)
	assert.Equal(t, Attacking, g.State())

	require.NoError(t, g.ForceState(Chasing))
	require.NoError(t, g.ForceState(Attacking))
	g.tickN(4)
	assert.Equal(t, 2, g.player.caught)
}

func TestAttackingSkipsVision(t *testing.T) {
	g := newTestGuard(t, Params{Patrol: standAt(cp.Vector{}, 100)}, nil)
	g.player.pos = cp.Vector{X: 5}
	g.tickN(4)
	alert := g.Diagnostics().AlertLength
	require.Positive(t, alert)

	require.NoError(t, g.ForceState(Attacking))
	g.tickN(4)
	assert.Equal(t, alert, g.Diagnostics().AlertLength)
}

func TestBeingHarvestedIsSuspended(t *testing.T) {
	g := newTestGuard(t, Params{
		Position: cp.Vector{X: 5},
		Patrol:   standAt(cp.Vector{}, 1),
	}, nil)
	require.NoError(t, g.ForceState(BeingHarvested))
	g.player.pos = cp.Vector{X: 7}

	g.tickN(40)
	d := g.Diagnostics()
	assert.Equal(t, BeingHarvested, d.State)
	assert.Equal(t, cp.Vector{X: 5}, d.Position)
	assert.Equal(t, 0.0, d.AlertLength)
	assert.Equal(t, 5.0, d.StateTimer)

	g.ResumePatrol()
	assert.Equal(t, Backtrack, g.State())
	g.Tick(testDT)
	assert.Equal(t, WalkingToPoint, g.State())
}

func TestCorpseInvestigatedOnce(t *testing.T) {
	corpses := corpseList{{ID: "c1", Position: cp.Vector{X: 3}}}
	g := newTestGuard(t, Params{Patrol: standAt(cp.Vector{}, 100)}, corpses)

	g.Tick(testDT)
	require.Equal(t, Investigating, g.State())
	assert.Equal(t, cp.Vector{X: 3}, g.Diagnostics().PointToInvestigate)

	// looks first, then walks over
	g.tickN(5)
	assert.Equal(t, cp.Vector{}, g.Position())

	require.Positive(t, g.tickUntil(LookingAround, 100))
	assert.InDelta(t, 3.0, g.Position().X, 0.1)

	n := g.tickUntil(Backtrack, 100)
	assert.Equal(t, 32, n)

	require.Positive(t, g.tickUntil(StandingAtPoint, 200))
	g.tickN(100)
	assert.Equal(t, StandingAtPoint, g.State())
	assert.Equal(t, 1, g.cues.count(CueCorpseFound))
}

func TestAlertInterruptsInvestigation(t *testing.T) {
	corpses := corpseList{{ID: "c1", Position: cp.Vector{X: 3}}}
	g := newTestGuard(t, Params{Patrol: standAt(cp.Vector{}, 100)}, corpses)
	g.Tick(testDT)
	require.Equal(t, Investigating, g.State())

	g.player.pos = cp.Vector{X: 5}
	require.Positive(t, g.tickUntil(Chasing, 40))
}

func TestBacktrackFollowsTrail(t *testing.T) {
	g := newTestGuard(t, Params{
		Position: cp.Vector{X: 8},
		Patrol:   standAt(cp.Vector{Y: 12}, 100),
	}, nil)
	// A wall at x in [4,5] with a slot around y=12: the patrol point only
	// comes into reach once the guard is level with it.
	g.world.walls = []cp.BB{
		{L: 4, B: -10, R: 5, T: 11.7},
		{L: 4, B: 12.3, R: 5, T: 20},
	}
	g.backtrack.points = append(g.backtrack.points, cp.Vector{X: 8, Y: 12})
	require.NoError(t, g.ForceState(Backtrack))

	g.Tick(testDT)
	assert.Equal(t, Backtrack, g.State())
	assert.InDelta(t, 0.25, g.Position().Y, 1e-9)

	require.Positive(t, g.tickUntil(WalkingToPoint, 100))
	assert.Equal(t, 0, g.backtrack.Len())
	assert.InDelta(t, 12.0, g.Position().Y, 0.1)

	require.Positive(t, g.tickUntil(StandingAtPoint, 100))
	assert.InDelta(t, 0.0, g.Position().X, 0.1)
}

func TestBacktrackStuckWarnsOnce(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	g := newTestGuard(t, Params{
		Patrol: standAt(cp.Vector{X: 10}, 1),
		Logger: zap.New(core),
	}, nil)
	g.world.walls = []cp.BB{divider}
	require.NoError(t, g.ForceState(Backtrack))

	g.tickN(10)
	assert.Equal(t, Backtrack, g.State())
	assert.Equal(t, cp.Vector{}, g.Position())
	assert.Equal(t, 1, logs.FilterMessage("no reachable patrol or backtrack point").Len())
}

func TestLookAroundIsDeterministic(t *testing.T) {
	run := func() []float64 {
		g := newTestGuard(t, Params{Patrol: standAt(cp.Vector{}, 100)}, nil)
		require.NoError(t, g.ForceState(LookingAround))
		var rots []float64
		for i := 0; i < 24; i++ {
			g.Tick(testDT)
			rots = append(rots, g.Diagnostics().TargetRot)
		}
		return rots
	}
	a, b := run(), run()
	assert.Equal(t, a, b)
	for _, r := range a {
		assert.GreaterOrEqual(t, r, 0.0)
		assert.Less(t, r, 2*math.Pi)
	}
}
