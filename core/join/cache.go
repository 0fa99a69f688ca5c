// Package join buffers the partner events that the Tendermint
// transition rules need to see together before they can fire: a
// Propose paired with the Polka that justifies it (rules R4 and R7),
// and a Propose paired with the Precommit that decides it (rule R13).
//
// It plays the same role that TransitionBuffer plays in earlier
// iterations of this algorithm: events can arrive in either order, and
// whichever arrives second is the one that completes the pair and
// triggers the rule.
package join

import "github.com/tendercore/tendercore/value"

// Proposal is the cached half of a Propose/Polka or Propose/Precommit
// join: the value a proposer offered for a round, whether the consumer
// judged it application-valid, and the polka round it claims to extend
// (value.InvalidRound for a fresh proposal).
type Proposal struct {
	Value      value.Value
	ValidRound value.Round
	Valid      bool
}

// Polka is the cached record of a detected 2f+1 prevote majority for a
// single value in a round.
type Polka struct {
	Value value.Value
}

// Precommit is the cached record of a detected 2f+1 precommit majority
// for a single value in a round.
type Precommit struct {
	Value value.Value
}

// Cache retains, per round, the most recent Proposal/Polka/Precommit
// seen by the core. A round's entries are never evicted automatically:
// R4 and R13 may need to look back at any previously-referenced round,
// and the owning ConsensusState is discarded wholesale on decision, so
// eviction policy is left to whichever rule consults the Cache.
type Cache struct {
	proposals  map[value.Round]Proposal
	polkas     map[value.Round]Polka
	precommits map[value.Round]Precommit
}

// NewCache returns an empty Cache.
func NewCache() Cache {
	return Cache{
		proposals:  map[value.Round]Proposal{},
		polkas:     map[value.Round]Polka{},
		precommits: map[value.Round]Precommit{},
	}
}

// SetProposal caches the Proposal seen for round. A later Proposal for
// the same round overwrites the earlier one (an honest proposer sends
// at most one; a conflicting resend is the consumer's concern, not the
// core's).
func (c Cache) SetProposal(round value.Round, p Proposal) {
	c.proposals[round] = p
}

// Proposal returns the cached Proposal for round, if any.
func (c Cache) Proposal(round value.Round) (Proposal, bool) {
	p, ok := c.proposals[round]
	return p, ok
}

// SetPolka caches the Polka seen for round.
func (c Cache) SetPolka(round value.Round, p Polka) {
	c.polkas[round] = p
}

// Polka returns the cached Polka for round, if any.
func (c Cache) Polka(round value.Round) (Polka, bool) {
	p, ok := c.polkas[round]
	return p, ok
}

// SetPrecommit caches the Precommit seen for round.
func (c Cache) SetPrecommit(round value.Round, p Precommit) {
	c.precommits[round] = p
}

// Precommit returns the cached Precommit for round, if any.
func (c Cache) Precommit(round value.Round) (Precommit, bool) {
	p, ok := c.precommits[round]
	return p, ok
}

// Forget drops every cached entry at a round strictly below round. It
// is never called by the core itself (decision rules may reach back to
// any past round), but a consumer that persists a Cache snapshot across
// heights can use it to bound memory.
func (c Cache) Forget(round value.Round) {
	for r := range c.proposals {
		if r < round {
			delete(c.proposals, r)
		}
	}
	for r := range c.polkas {
		if r < round {
			delete(c.polkas, r)
		}
	}
	for r := range c.precommits {
		if r < round {
			delete(c.precommits, r)
		}
	}
}
