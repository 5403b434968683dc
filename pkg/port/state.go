package port

import (
	"fmt"
)

// State is the lifecycle state of a port
type State string

const (
	StateUnconfigured State = "unconfigured"
	StateConfigured   State = "configured"
	StateStarted      State = "started"
	StateStopped      State = "stopped"
	StateClosed       State = "closed"
)

// transitions lists the states a port may move to from a given state
var transitions = map[State][]State{
	StateUnconfigured: {StateConfigured},
	StateConfigured:   {StateStarted, StateClosed},
	StateStarted:      {StateStopped},
	StateStopped:      {StateStarted, StateClosed},
	StateClosed:       {},
}

// CanTransition returns true if a port in state s may move to state next
func (s State) CanTransition(next State) bool {
	for _, st := range transitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

// TransitionError is returned when an operation is not allowed in the current state of a port
type TransitionError struct {
	Port uint16
	From State
	To   State
}

// Error implements error interface
func (e *TransitionError) Error() string {
	return fmt.Sprintf("port %d cannot move from %s to %s", e.Port, e.From, e.To)
}
