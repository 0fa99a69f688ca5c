package core

import (
	"io"

	"github.com/renproject/surge"
)

// Step is the phase within the current round. See
// https://arxiv.org/pdf/1807.04938.pdf for more information.
type Step uint8

// Define all Steps, ordered as the algorithm progresses through them
// within a round.
const (
	StepPropose Step = iota
	StepPrevote
	StepPrecommit
	StepCommitted
)

// String implements fmt.Stringer.
func (step Step) String() string {
	switch step {
	case StepPropose:
		return "Propose"
	case StepPrevote:
		return "Prevote"
	case StepPrecommit:
		return "Precommit"
	case StepCommitted:
		return "Committed"
	default:
		return "Unknown"
	}
}

// SizeHint implements surge.SizeHinter.
func (Step) SizeHint() int {
	return 1
}

// Marshal implements surge.Marshaler.
func (step Step) Marshal(w io.Writer, m int) (int, error) {
	return surge.Marshal(w, uint8(step), m)
}

// Unmarshal implements surge.Unmarshaler.
func (step *Step) Unmarshal(r io.Reader, m int) (int, error) {
	return surge.Unmarshal(r, (*uint8)(step), m)
}
