package pipeline

// State is a step of a pipeline run
type State string

const (
	StateStart           State = "start"
	StateAuthorizing     State = "authorizing"
	StateInputFiltering  State = "input_filtering"
	StateGenerating      State = "generating"
	StateOutputFiltering State = "output_filtering"
	StateDone            State = "done"

	// Absorbing states
	StateRejected State = "rejected"
	StateFailed   State = "failed"
)

// transitions lists the legal successors of each state
var transitions = map[State][]State{
	StateStart:           {StateAuthorizing},
	StateAuthorizing:     {StateInputFiltering, StateRejected},
	StateInputFiltering:  {StateGenerating, StateRejected},
	StateGenerating:      {StateOutputFiltering, StateFailed},
	StateOutputFiltering: {StateDone},
}

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool {
	return s == StateDone || s == StateRejected || s == StateFailed
}

// CanTransition reports whether the pipeline may move from s to next
func (s State) CanTransition(next State) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}
