package core

import (
	"fmt"

	"github.com/tendercore/tendercore/core/join"
	"github.com/tendercore/tendercore/core/latch"
	"github.com/tendercore/tendercore/value"
)

// Apply is the sole transition entry point. It is a total function of
// (ConsensusState, Event): every admissible combination is handled by
// one of the rule methods below, and every other combination is an
// explicit no-op. Apply never returns an error; ill-formed or
// out-of-context events are silently dropped, reflecting the BFT
// liveness requirement that a noisy or Byzantine consumer must never be
// able to crash the replica.
func (cs *ConsensusState) Apply(event Event) []Message {
	if cs.decision != nil {
		return nil
	}

	cs.logger.Debugf("applying event=%v at height=%v, round=%v, step=%v", event, cs.height, cs.round, cs.step)

	switch e := event.(type) {
	case NewHeight:
		return nil
	case NewRound:
		return cs.applyNewRound(e)
	case ProposeValue:
		return cs.applyProposeValue(e)
	case ProposalValid:
		return cs.applyProposalValid(e)
	case ProposalInvalid:
		return cs.applyProposalInvalid(e)
	case Polka:
		return cs.applyPolka(e)
	case PolkaNil:
		return cs.applyPolkaNil(e)
	case PolkaAny:
		return cs.applyPolkaAny(e)
	case Precommit:
		return cs.applyPrecommit(e)
	case PrecommitAny:
		return cs.applyPrecommitAny(e)
	case TimeoutPropose:
		return cs.applyTimeoutPropose(e)
	case TimeoutPrevote:
		return cs.applyTimeoutPrevote(e)
	case TimeoutPrecommit:
		return cs.applyTimeoutPrecommit(e)
	default:
		return nil
	}
}

// startRound implements rule R1. It is called both from New (entering
// round 0) and from applyNewRound/applyTimeoutPrecommit (entering any
// later round), so it also carries rule R14's "skip to future round"
// behaviour: starting round r' is the same operation regardless of
// whether r' is the very next round or one reached via f+1 evidence.
func (cs *ConsensusState) startRound(round value.Round) []Message {
	if round < cs.round {
		panic(fmt.Sprintf("invariant violation: round %v is behind current round %v", round, cs.round))
	}

	cs.round = round
	cs.step = StepPropose

	if cs.proposership.IsProposer(cs.height, round) {
		cs.logger.Debugf("starting round=%v at height=%v as proposer", round, cs.height)
		return nil
	}
	cs.logger.Debugf("starting round=%v at height=%v, scheduling propose timeout", round, cs.height)
	return []Message{ScheduleTimeout{Kind: StepPropose, Height: cs.height, Round: round}}
}

// applyNewRound implements rules R1 and R14. A NewRound for the current
// round is idempotent; a NewRound for a past round is ignored (rounds
// never go backwards).
func (cs *ConsensusState) applyNewRound(e NewRound) []Message {
	if e.Round <= cs.round {
		return nil
	}
	return cs.startRound(e.Round)
}

// applyProposeValue implements rule R2. It is dropped outside the
// Propose step.
func (cs *ConsensusState) applyProposeValue(e ProposeValue) []Message {
	if cs.step != StepPropose {
		return nil
	}

	v := e.Value
	validRound := value.InvalidRound
	if cs.validValue != nil {
		v = cs.validValue.Value
		validRound = cs.validValue.Round
	}

	cs.logger.Infof("proposing value=%v at height=%v and round=%v (validRound=%v)", v, cs.height, cs.round, validRound)
	return []Message{BroadcastProposal{Value: v, Round: cs.round, ValidRound: validRound}}
}

// applyProposalValid implements rules R3 and R4, and is one half of the
// buffered joins for rules R7 and R13 (the other half lives in
// applyPolka and applyPrecommit respectively).
func (cs *ConsensusState) applyProposalValid(e ProposalValid) []Message {
	cs.cache.SetProposal(e.Round, join.Proposal{Value: e.Value, ValidRound: e.ValidRound, Valid: true})
	cs.tryUpdateValidValue(e.Round)

	var out []Message
	if e.Round == cs.round && cs.step == StepPropose {
		switch {
		case e.ValidRound == value.InvalidRound:
			// R3: fresh proposal.
			out = append(out, cs.prevoteAndAdvance(cs.proposalVote(e.Value, cs.lockAllowsFreshProposal(e.Value)))...)
		default:
			// R4: proposal re-offering a prior polka round. The join
			// with that polka may already be cached, or may arrive
			// later via applyPolka's own retrigger.
			if polka, ok := cs.cache.Polka(e.ValidRound); ok && polka.Value.Equal(e.Value) && e.ValidRound < cs.round {
				out = append(out, cs.prevoteAndAdvance(cs.proposalVote(e.Value, cs.lockAllowsReproposal(e.Value, e.ValidRound)))...)
			}
		}
	}

	out = append(out, cs.tryPrecommitOnPolka(e.Round)...)
	out = append(out, cs.tryDecide(e.Round)...)
	return out
}

// applyProposalInvalid implements rule R5.
func (cs *ConsensusState) applyProposalInvalid(e ProposalInvalid) []Message {
	cs.cache.SetProposal(e.Round, join.Proposal{Value: e.Value, ValidRound: e.ValidRound, Valid: false})

	if e.Round == cs.round && cs.step == StepPropose {
		return cs.prevoteAndAdvance(value.Nil)
	}
	return nil
}

// applyPolka implements rule R8, is one half of the buffered join for
// rule R7 (the other half lives in applyProposalValid), and retriggers
// rule R4 for a proposal that arrived before the polka it re-offers.
func (cs *ConsensusState) applyPolka(e Polka) []Message {
	cs.cache.SetPolka(e.Round, join.Polka{Value: e.Value})

	var out []Message
	out = append(out, cs.tryPrecommitOnPolka(e.Round)...)
	cs.tryUpdateValidValue(e.Round)

	if e.Round < cs.round && cs.step == StepPropose {
		if proposal, ok := cs.cache.Proposal(cs.round); ok && proposal.Valid && proposal.ValidRound == e.Round && proposal.Value.Equal(e.Value) {
			out = append(out, cs.prevoteAndAdvance(cs.proposalVote(e.Value, cs.lockAllowsReproposal(e.Value, e.Round)))...)
		}
	}

	return out
}

// applyPolkaNil implements rule R9.
func (cs *ConsensusState) applyPolkaNil(e PolkaNil) []Message {
	if e.Round != cs.round || cs.step != StepPrevote {
		return nil
	}
	cs.step = StepPrecommit
	cs.logger.Debugf("precommitted=<nil> at height=%v and round=%v (2f+1 prevote nil)", cs.height, e.Round)
	return []Message{BroadcastPrecommit{Value: value.Nil, Round: e.Round}}
}

// applyPolkaAny implements rule R10.
func (cs *ConsensusState) applyPolkaAny(e PolkaAny) []Message {
	if e.Round != cs.round || cs.step != StepPrevote {
		return nil
	}
	if !cs.latches.FireOnce(e.Round, latch.PrevoteAny) {
		return nil
	}
	return []Message{ScheduleTimeout{Kind: StepPrevote, Height: cs.height, Round: e.Round}}
}

// applyPrecommit implements rule R13. Decisions are accepted for any
// round at or before the current round.
func (cs *ConsensusState) applyPrecommit(e Precommit) []Message {
	cs.cache.SetPrecommit(e.Round, join.Precommit{Value: e.Value})

	if e.Round > cs.round {
		return nil
	}
	return cs.tryDecide(e.Round)
}

// applyPrecommitAny implements rule R12's timeout-scheduling half.
func (cs *ConsensusState) applyPrecommitAny(e PrecommitAny) []Message {
	if e.Round != cs.round {
		return nil
	}
	if !cs.latches.FireOnce(e.Round, latch.PrecommitAny) {
		return nil
	}
	return []Message{ScheduleTimeout{Kind: StepPrecommit, Height: cs.height, Round: e.Round}}
}

// applyTimeoutPropose implements rule R6.
func (cs *ConsensusState) applyTimeoutPropose(e TimeoutPropose) []Message {
	if e.Height != cs.height || e.Round != cs.round || cs.step != StepPropose {
		return nil
	}
	cs.step = StepPrevote
	cs.logger.Warnf("prevoted=<nil> at height=%v and round=%v (propose timeout)", cs.height, e.Round)
	return []Message{BroadcastPrevote{Value: value.Nil, Round: e.Round}}
}

// applyTimeoutPrevote implements rule R11.
func (cs *ConsensusState) applyTimeoutPrevote(e TimeoutPrevote) []Message {
	if e.Height != cs.height || e.Round != cs.round || cs.step != StepPrevote {
		return nil
	}
	cs.step = StepPrecommit
	cs.logger.Warnf("precommitted=<nil> at height=%v and round=%v (prevote timeout)", cs.height, e.Round)
	return []Message{BroadcastPrecommit{Value: value.Nil, Round: e.Round}}
}

// applyTimeoutPrecommit implements rule R12's round-advancing half.
func (cs *ConsensusState) applyTimeoutPrecommit(e TimeoutPrecommit) []Message {
	if e.Height != cs.height || e.Round != cs.round {
		return nil
	}
	return cs.startRound(cs.round + 1)
}

// tryUpdateValidValue implements rule R8's valid_value bump for round:
// it fires whenever a Polka and a matching valid Proposal for round are
// both present, regardless of which of the two completes the pair last
// and regardless of step, mirroring how tryPrecommitOnPolka and
// tryDecide join their own buffered pairs from either arrival order.
func (cs *ConsensusState) tryUpdateValidValue(round value.Round) {
	polka, ok := cs.cache.Polka(round)
	if !ok {
		return
	}
	proposal, ok := cs.cache.Proposal(round)
	if !ok || !proposal.Valid || !proposal.Value.Equal(polka.Value) {
		return
	}
	if cs.validValue == nil || round > cs.validValue.Round {
		cs.validValue = &RoundedValue{Value: polka.Value, Round: round}
		cs.logger.Debugf("valid value updated to=%v at round=%v", polka.Value, round)
	}
}

// tryPrecommitOnPolka implements rule R7: it fires at most once per
// round, the first time a Polka and a matching valid Proposal are both
// present while in the Prevote step.
func (cs *ConsensusState) tryPrecommitOnPolka(round value.Round) []Message {
	if round != cs.round || cs.step != StepPrevote {
		return nil
	}
	polka, ok := cs.cache.Polka(round)
	if !ok {
		return nil
	}
	proposal, ok := cs.cache.Proposal(round)
	if !ok || !proposal.Valid || !proposal.Value.Equal(polka.Value) {
		return nil
	}
	if !cs.latches.FireOnce(round, latch.PrevotePolka) {
		return nil
	}

	cs.lockedValue = &RoundedValue{Value: polka.Value, Round: round}
	cs.validValue = &RoundedValue{Value: polka.Value, Round: round}
	cs.step = StepPrecommit
	cs.logger.Infof("locked and precommitted value=%v at round=%v", polka.Value, round)
	return []Message{BroadcastPrecommit{Value: polka.Value, Round: round}}
}

// tryDecide implements rule R13: it decides the first time a Precommit
// and a matching valid Proposal are both present for round.
func (cs *ConsensusState) tryDecide(round value.Round) []Message {
	if cs.decision != nil {
		return nil
	}
	precommit, ok := cs.cache.Precommit(round)
	if !ok {
		return nil
	}
	proposal, ok := cs.cache.Proposal(round)
	if !ok || !proposal.Valid || !proposal.Value.Equal(precommit.Value) {
		return nil
	}

	cs.decision = &RoundedValue{Value: precommit.Value, Round: round}
	cs.step = StepCommitted
	cs.logger.Infof("decided value=%v at round=%v and height=%v", precommit.Value, round, cs.height)
	return []Message{Decision{Value: precommit.Value, Round: round}}
}

// prevoteAndAdvance broadcasts a Prevote for v at the current round and
// advances the step to Prevote.
func (cs *ConsensusState) prevoteAndAdvance(v value.Value) []Message {
	cs.step = StepPrevote
	cs.logger.Debugf("prevoted=%v at height=%v and round=%v", v, cs.height, cs.round)
	return []Message{BroadcastPrevote{Value: v, Round: cs.round}}
}

// proposalVote resolves a proposed value against the lock: allowed
// reports whether the lock permits prevoting for v.
func (cs *ConsensusState) proposalVote(v value.Value, allowed bool) value.Value {
	if allowed {
		return v
	}
	return value.Nil
}

// lockAllowsFreshProposal implements the locked_value guard for rule R3:
// a fresh proposal may be prevoted unless it conflicts with the locked
// value.
func (cs *ConsensusState) lockAllowsFreshProposal(v value.Value) bool {
	return cs.lockedValue == nil || cs.lockedValue.Value.Equal(v)
}

// lockAllowsReproposal implements the locked_value guard for rule R4: a
// re-offered proposal may be prevoted if there is no lock, if the lock
// was taken no later than the polka round being re-offered (the lock is
// released in favour of the newer polka), or if the lock is for this
// same value (re-affirming it changes nothing).
func (cs *ConsensusState) lockAllowsReproposal(v value.Value, validRound value.Round) bool {
	if cs.lockedValue == nil {
		return true
	}
	return cs.lockedValue.Round <= validRound || cs.lockedValue.Value.Equal(v)
}
