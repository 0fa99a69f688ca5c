package core

import (
	"fmt"

	"github.com/tendercore/tendercore/value"
)

// Event is the tagged union of every externally-classified stimulus the
// core accepts. The consumer is responsible for classification: vote
// counting, proposal validity, proposer determination, and timeout
// firing all happen outside the core, and are reported here only as
// already-decided facts.
type Event interface {
	fmt.Stringer
	isEvent()
}

// NewHeight is accepted only at construction time, via New. If it is
// ever replayed against a live Instance it is a no-op; the height of
// an Instance can never change mid-life.
type NewHeight struct{}

func (NewHeight) isEvent()        {}
func (NewHeight) String() string { return "NewHeight" }

// NewRound reports that the consumer has determined this replica should
// enter Round, either via f+1 evidence of higher-round activity or by
// this replica's own precommit timeout.
type NewRound struct {
	Round value.Round
}

func (NewRound) isEvent() {}
func (e NewRound) String() string {
	return fmt.Sprintf("NewRound(round=%v)", e.Round)
}

// ProposeValue supplies the value this replica, as proposer of the
// current round, should propose. The consumer is responsible for
// determining proposership; the core only acts on it while waiting to
// propose.
type ProposeValue struct {
	Value value.Value
}

func (ProposeValue) isEvent() {}
func (e ProposeValue) String() string {
	return fmt.Sprintf("ProposeValue(value=%v)", e.Value)
}

// ProposalValid reports a received Proposal that the consumer has
// judged application-valid. ValidRound is value.InvalidRound for a
// fresh proposal, or the prior polka round the proposer is re-offering.
type ProposalValid struct {
	Value      value.Value
	Round      value.Round
	ValidRound value.Round
}

func (ProposalValid) isEvent() {}
func (e ProposalValid) String() string {
	return fmt.Sprintf("ProposalValid(value=%v, round=%v, validRound=%v)", e.Value, e.Round, e.ValidRound)
}

// ProposalInvalid reports a received Proposal that the consumer has
// judged application-invalid.
type ProposalInvalid struct {
	Value      value.Value
	Round      value.Round
	ValidRound value.Round
}

func (ProposalInvalid) isEvent() {}
func (e ProposalInvalid) String() string {
	return fmt.Sprintf("ProposalInvalid(value=%v, round=%v, validRound=%v)", e.Value, e.Round, e.ValidRound)
}

// Polka reports that the consumer observed 2f+1 prevotes for Value in
// Round.
type Polka struct {
	Value value.Value
	Round value.Round
}

func (Polka) isEvent() {}
func (e Polka) String() string {
	return fmt.Sprintf("Polka(value=%v, round=%v)", e.Value, e.Round)
}

// PolkaNil reports that the consumer observed 2f+1 prevotes for nil in
// Round.
type PolkaNil struct {
	Round value.Round
}

func (PolkaNil) isEvent() {}
func (e PolkaNil) String() string {
	return fmt.Sprintf("PolkaNil(round=%v)", e.Round)
}

// PolkaAny reports that the consumer observed 2f+1 prevotes in Round
// distributed across values/nil, with no single majority.
type PolkaAny struct {
	Round value.Round
}

func (PolkaAny) isEvent() {}
func (e PolkaAny) String() string {
	return fmt.Sprintf("PolkaAny(round=%v)", e.Round)
}

// Precommit reports that the consumer observed 2f+1 precommits for
// Value in Round.
type Precommit struct {
	Value value.Value
	Round value.Round
}

func (Precommit) isEvent() {}
func (e Precommit) String() string {
	return fmt.Sprintf("Precommit(value=%v, round=%v)", e.Value, e.Round)
}

// PrecommitAny reports that the consumer observed 2f+1 precommits in
// Round, with no single majority value.
type PrecommitAny struct {
	Round value.Round
}

func (PrecommitAny) isEvent() {}
func (e PrecommitAny) String() string {
	return fmt.Sprintf("PrecommitAny(round=%v)", e.Round)
}

// TimeoutPropose reports that the propose-step timeout fired for
// (Height, Round).
type TimeoutPropose struct {
	Height value.Height
	Round  value.Round
}

func (TimeoutPropose) isEvent() {}
func (e TimeoutPropose) String() string {
	return fmt.Sprintf("TimeoutPropose(height=%v, round=%v)", e.Height, e.Round)
}

// TimeoutPrevote reports that the prevote-step timeout fired for
// (Height, Round).
type TimeoutPrevote struct {
	Height value.Height
	Round  value.Round
}

func (TimeoutPrevote) isEvent() {}
func (e TimeoutPrevote) String() string {
	return fmt.Sprintf("TimeoutPrevote(height=%v, round=%v)", e.Height, e.Round)
}

// TimeoutPrecommit reports that the precommit-step timeout fired for
// (Height, Round).
type TimeoutPrecommit struct {
	Height value.Height
	Round  value.Round
}

func (TimeoutPrecommit) isEvent() {}
func (e TimeoutPrecommit) String() string {
	return fmt.Sprintf("TimeoutPrecommit(height=%v, round=%v)", e.Height, e.Round)
}
