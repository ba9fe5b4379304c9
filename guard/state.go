package guard

import "errors"

var ErrUnknownState = errors.New("guard: unknown state")

// State is the behavioural state of a guard.
type State int

const (
	Idle State = iota
	StandingAtPoint
	WalkingToPoint
	LookingAround
	LookingForPlayer
	Chasing
	Attacking
	Investigating
	BeingHarvested
	Backtrack
)

var stateNames = [...]string{
	Idle:             "idle",
	StandingAtPoint:  "standing_at_point",
	WalkingToPoint:   "walking_to_point",
	LookingAround:    "looking_around",
	LookingForPlayer: "looking_for_player",
	Chasing:          "chasing",
	Attacking:        "attacking",
	Investigating:    "investigating",
	BeingHarvested:   "being_harvested",
	Backtrack:        "backtrack",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ParseState resolves a state from its String form.
func ParseState(name string) (State, bool) {
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return Idle, false
}

// Indicator is the icon shown above a guard.
type Indicator int

const (
	IndicatorNone Indicator = iota
	IndicatorSuspicious
	IndicatorAlerted
)

func (i Indicator) String() string {
	switch i {
	case IndicatorSuspicious:
		return "?"
	case IndicatorAlerted:
		return "!"
	default:
		return ""
	}
}
