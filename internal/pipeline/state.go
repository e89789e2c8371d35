package pipeline

// State is a step of the review state machine.
type State string

const (
	StateAssembling State = "assembling"
	StateCompleting State = "completing"
	StateExtracting State = "extracting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
