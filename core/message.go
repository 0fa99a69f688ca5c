package core

import (
	"fmt"

	"github.com/tendercore/tendercore/value"
)

// Message is the tagged union of every output the core produces. Apply
// returns these in emission order; the consumer is responsible for
// broadcasting votes, scheduling timeouts, and surfacing the decision.
type Message interface {
	fmt.Stringer
	isMessage()
}

// BroadcastProposal asks the consumer to broadcast a Proposal for Value
// at Round. ValidRound is value.InvalidRound for a fresh proposal, or
// the round of the polka being re-offered.
type BroadcastProposal struct {
	Value      value.Value
	Round      value.Round
	ValidRound value.Round
}

func (BroadcastProposal) isMessage() {}
func (m BroadcastProposal) String() string {
	return fmt.Sprintf("BroadcastProposal(value=%v, round=%v, validRound=%v)", m.Value, m.Round, m.ValidRound)
}

// BroadcastPrevote asks the consumer to broadcast a Prevote for Value
// (value.Nil for a nil prevote) at Round.
type BroadcastPrevote struct {
	Value value.Value
	Round value.Round
}

func (BroadcastPrevote) isMessage() {}
func (m BroadcastPrevote) String() string {
	return fmt.Sprintf("BroadcastPrevote(value=%v, round=%v)", m.Value, m.Round)
}

// BroadcastPrecommit asks the consumer to broadcast a Precommit for
// Value (value.Nil for a nil precommit) at Round.
type BroadcastPrecommit struct {
	Value value.Value
	Round value.Round
}

func (BroadcastPrecommit) isMessage() {}
func (m BroadcastPrecommit) String() string {
	return fmt.Sprintf("BroadcastPrecommit(value=%v, round=%v)", m.Value, m.Round)
}

// ScheduleTimeout asks the consumer to schedule a timeout of the given
// Kind (one of StepPropose, StepPrevote, StepPrecommit) for (Height,
// Round). The core never specifies a duration; that is entirely a
// consumer/Timer policy.
type ScheduleTimeout struct {
	Kind   Step
	Height value.Height
	Round  value.Round
}

func (ScheduleTimeout) isMessage() {}
func (m ScheduleTimeout) String() string {
	return fmt.Sprintf("ScheduleTimeout(kind=%v, height=%v, round=%v)", m.Kind, m.Height, m.Round)
}

// Decision is the terminal output: the value chosen for this height, and
// the round in which the deciding precommit quorum was observed. At
// most one Decision is ever emitted by an Instance.
type Decision struct {
	Value value.Value
	Round value.Round
}

func (Decision) isMessage() {}
func (m Decision) String() string {
	return fmt.Sprintf("Decision(value=%v, round=%v)", m.Value, m.Round)
}
