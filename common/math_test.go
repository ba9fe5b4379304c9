package common

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
)

func TestWrapAngle(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"negative", -math.Pi / 2, 3 * math.Pi / 2},
		{"full_turn", TwoPi, 0},
		{"over_two_turns", 5 * math.Pi, math.Pi},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := WrapAngle(c.in)
			assert.InDelta(t, c.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, TwoPi)
		})
	}
}

func TestMoveTowardsAngle(t *testing.T) {
	t.Run("snaps_when_within_step", func(t *testing.T) {
		assert.InDelta(t, 0.5, MoveTowardsAngle(0.4, 0.5, 0.2), 1e-9)
	})
	t.Run("takes_shorter_arc_across_zero", func(t *testing.T) {
		got := MoveTowardsAngle(Deg2Rad(350), Deg2Rad(10), Deg2Rad(5))
		assert.InDelta(t, Deg2Rad(355), got, 1e-9)
	})
	t.Run("caps_step", func(t *testing.T) {
		got := MoveTowardsAngle(0, math.Pi/2, 0.1)
		assert.InDelta(t, 0.1, got, 1e-9)
	})
}

func TestMoveTowardsDoesNotOvershoot(t *testing.T) {
	got := MoveTowards(cp.Vector{}, cp.Vector{X: 1}, 5)
	assert.Equal(t, cp.Vector{X: 1}, got)

	got = MoveTowards(cp.Vector{}, cp.Vector{X: 10}, 0.25)
	assert.InDelta(t, 0.25, got.X, 1e-12)
	assert.InDelta(t, 0, got.Y, 1e-12)
}
