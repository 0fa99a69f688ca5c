package core

import (
	"github.com/sirupsen/logrus"
	"github.com/tendercore/tendercore/core/join"
	"github.com/tendercore/tendercore/core/latch"
	"github.com/tendercore/tendercore/value"
)

// RoundedValue pairs a Value with the Round in which it became
// significant: the round a replica locked it, the round a polka most
// recently touched it, or the round in which it was decided.
type RoundedValue struct {
	Value value.Value
	Round value.Round
}

// Equal compares one RoundedValue with another.
func (rv RoundedValue) Equal(other RoundedValue) bool {
	return rv.Value.Equal(other.Value) && rv.Round == other.Round
}

// ConsensusState is the mutable interior of a single decision instance:
// the round-scoped variables the Tendermint algorithm threads through
// its transition rules. It holds no mutex and performs no I/O; Apply is
// a plain, synchronous method call.
type ConsensusState struct {
	logger logrus.FieldLogger

	height value.Height
	round  value.Round
	step   Step

	lockedValue *RoundedValue
	validValue  *RoundedValue
	decision    *RoundedValue

	proposership Proposership
	cache        join.Cache
	latches      latch.Set
}

// New constructs a ConsensusState for height and returns it along with
// the message list produced by entering its initial round (typically a
// single ScheduleTimeout if this replica is not the proposer, or none
// if it is).
func New(height value.Height, opts ...Option) (*ConsensusState, []Message) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	cs := &ConsensusState{
		logger: cfg.logger,

		height: height,
		step:   StepPropose,

		lockedValue: cfg.lockedValue,
		validValue:  cfg.validValue,

		proposership: cfg.proposership,
		cache:        join.NewCache(),
		latches:      latch.NewSet(),
	}
	return cs, cs.startRound(cfg.initialRound)
}

// CurrentHeight of the instance. Fixed for its entire lifetime.
func (cs *ConsensusState) CurrentHeight() value.Height {
	return cs.height
}

// CurrentRound of the instance.
func (cs *ConsensusState) CurrentRound() value.Round {
	return cs.round
}

// CurrentStep of the instance, within CurrentRound.
func (cs *ConsensusState) CurrentStep() Step {
	return cs.step
}

// LockedValue returns the value this replica has precommitted for and
// will not prevote against without justification, and whether one is
// set.
func (cs *ConsensusState) LockedValue() (RoundedValue, bool) {
	if cs.lockedValue == nil {
		return RoundedValue{}, false
	}
	return *cs.lockedValue, true
}

// ValidValue returns the most recent value to receive a polka, and
// whether one is set.
func (cs *ConsensusState) ValidValue() (RoundedValue, bool) {
	if cs.validValue == nil {
		return RoundedValue{}, false
	}
	return *cs.validValue, true
}

// Decision returns the value chosen for this height, and whether the
// instance has decided. Once it returns true, the instance is terminal:
// every subsequent Apply call returns no messages and leaves the state
// unchanged.
func (cs *ConsensusState) Decision() (RoundedValue, bool) {
	if cs.decision == nil {
		return RoundedValue{}, false
	}
	return *cs.decision, true
}
