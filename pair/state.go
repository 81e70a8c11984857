package pair

import "fmt"

// State is the lifecycle phase of a paired-order run.
type State string

const (
	StateIdle          State = "idle"
	StateLegsSubmitted State = "legs_submitted"
	StateMonitoring    State = "monitoring"
	StateResolved      State = "resolved"
	StateCleaned       State = "cleaned"
)

// Resolution is the terminal outcome of a run.
type Resolution string

const (
	ResolutionPending    Resolution = "pending"
	ResolutionOneFilled  Resolution = "one_filled"
	ResolutionBothFilled Resolution = "both_filled"
	ResolutionTimedOut   Resolution = "timed_out"
	ResolutionFailed     Resolution = "failed"
)

// validTransitions is the full lifecycle graph. Every state change goes
// through transition, so an impossible hop is a bug surfaced loudly.
var validTransitions = map[State][]State{
	StateIdle:          {StateLegsSubmitted, StateResolved},
	StateLegsSubmitted: {StateMonitoring, StateResolved},
	StateMonitoring:    {StateResolved},
	StateResolved:      {StateCleaned},
	StateCleaned:       {},
}

func canTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (p *Pair) transition(to State) {
	if !canTransition(p.state, to) {
		panic(fmt.Sprintf("pair: invalid transition %s -> %s", p.state, to))
	}
	p.log.WithField("from", string(p.state)).WithField("to", string(to)).Debug("state transition")
	p.state = to
}
